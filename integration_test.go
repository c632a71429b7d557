package integration

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pybox/pybox/artifact"
	"github.com/pybox/pybox/config"
	"github.com/pybox/pybox/encoder"
	"github.com/pybox/pybox/engine"
	"github.com/pybox/pybox/logger"
	"github.com/pybox/pybox/mcpserver"
	"github.com/pybox/pybox/metrics"
	"github.com/pybox/pybox/session"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:    config.ServerConfig{StreamPort: 8080, PushPort: 8081},
		Execution: config.ExecutionConfig{PythonBin: "python3", TimeoutSec: 30, InstallDeps: false},
		Artifacts: config.ArtifactsConfig{BaseDir: t.TempDir(), KeepLast: 5},
		Sessions:  config.SessionsConfig{MaxSessions: 16, IdleTimeoutSec: 60},
		Logging:   config.LoggingConfig{Mode: "development", Level: "debug"},
	}
}

// TestIntegrationConfigAndLogger tests that a validated config drives
// logger construction.
func TestIntegrationConfigAndLogger(t *testing.T) {
	cfg := testConfig(t)

	log, err := logger.NewFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
}

// TestIntegrationExecuteAndPersist runs real code through the engine,
// persists the artifacts, and encodes the result document.
func TestIntegrationExecuteAndPersist(t *testing.T) {
	requirePython(t)

	cfg := testConfig(t)
	log := zaptest.NewLogger(t)
	eng := engine.New(log, cfg)
	manager := artifact.New(log, cfg)

	code := `print("hello")
with open("data.csv", "w") as f:
    f.write("a,b\n")
{"answer": 42}
`
	result, err := eng.Execute(context.Background(), []engine.CodeFile{
		{Name: "main.py", Content: code, Active: true},
	})
	require.NoError(t, err)
	require.Equal(t, engine.StatusSuccess, result.Status)
	assert.Equal(t, []string{"hello"}, result.Output)
	require.Len(t, result.GeneratedFiles, 1)

	codePath, err := manager.SaveCodeFile("abc", 1, code, result)
	require.NoError(t, err)
	outputPath, err := manager.SaveOutputFile("abc", 1, result.Output)
	require.NoError(t, err)
	returnValuePath, err := manager.SaveReturnValueFile("abc", 1, result.ReturnValueJSON)
	require.NoError(t, err)
	generatedPath, err := manager.SaveGeneratedFile("abc", 1, result.GeneratedFiles[0].Name, result.GeneratedFiles[0].Content)
	require.NoError(t, err)

	var files []artifact.FileInfo
	for _, path := range []string{codePath, outputPath, returnValuePath, generatedPath} {
		info, analyzeErr := manager.AnalyzeFile(path, "abc")
		require.NoError(t, analyzeErr)
		files = append(files, info)
	}

	archive := manager.CreateArchive(files, "abc", 1)
	require.NotNil(t, archive)

	doc := encoder.Encode(result, files, archive, "abc")

	status, ok := encoder.ExtractBlock(doc, encoder.TagStatus)
	require.True(t, ok)
	assert.Equal(t, "success", status)

	filesBlock, ok := encoder.ExtractBlock(doc, encoder.TagFiles)
	require.True(t, ok)
	assert.Contains(t, filesBlock, `<contained name="data.csv"`)
}

// TestIntegrationFullServerConstruction wires every component the way the
// command entrypoint does and verifies the assembled server.
func TestIntegrationFullServerConstruction(t *testing.T) {
	cfg := testConfig(t)
	log := zaptest.NewLogger(t)
	registry := session.NewRegistry(log, cfg)
	manager := artifact.New(log, cfg)
	eng := engine.NewEngine(log, cfg)

	srv, err := mcpserver.New(cfg, log, eng, registry, manager, metrics.New())
	require.NoError(t, err)
	require.NotNil(t, srv)
	require.NotNil(t, srv.GetMCPServer())

	// The implicit pipe-mode session exists before any client connects
	assert.Equal(t, 1, registry.Len())

	infos, err := manager.ListAll()
	require.NoError(t, err)
	assert.Empty(t, infos)
}
