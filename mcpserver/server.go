package mcpserver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/pybox/pybox/artifact"
	"github.com/pybox/pybox/config"
	"github.com/pybox/pybox/encoder"
	"github.com/pybox/pybox/engine"
	"github.com/pybox/pybox/metrics"
	"github.com/pybox/pybox/session"
)

// MCPServer binds the execution engine, artifact manager, and session
// registry to the MCP protocol.
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	engine    engine.Engine
	registry  *session.Registry
	manager   *artifact.Manager
	metrics   *metrics.Metrics
	mcpServer *server.MCPServer

	// defaultSessionID is the implicit session used when the transport
	// carries no session of its own (pipe mode).
	defaultSessionID string
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, eng engine.Engine, registry *session.Registry, manager *artifact.Manager, m *metrics.Metrics) (*MCPServer, error) {
	s := &MCPServer{
		config:           cfg,
		logger:           logger,
		engine:           eng,
		registry:         registry,
		manager:          manager,
		metrics:          m,
		defaultSessionID: uuid.NewString(),
	}

	logger.Info("configuration loaded",
		zap.Int("server.stream_port", cfg.Server.StreamPort),
		zap.Int("server.push_port", cfg.Server.PushPort),
		zap.String("execution.python_bin", cfg.Execution.PythonBin),
		zap.Int("execution.timeout_sec", cfg.Execution.TimeoutSec),
		zap.Bool("execution.install_deps", cfg.Execution.InstallDeps),
		zap.String("artifacts.base_dir", cfg.Artifacts.BaseDir),
		zap.Int("artifacts.keep_last", cfg.Artifacts.KeepLast),
		zap.Int("sessions.max_sessions", cfg.Sessions.MaxSessions),
	)

	hooks := &server.Hooks{}
	hooks.AddOnRegisterSession(func(_ context.Context, cs server.ClientSession) {
		if _, err := registry.Register(cs.SessionID()); err != nil {
			logger.Warn("session registration rejected", zap.String("session_id", cs.SessionID()), zap.Error(err))
			return
		}
		m.ActiveSessions.Set(float64(registry.Len()))
	})
	hooks.AddOnUnregisterSession(func(_ context.Context, cs server.ClientSession) {
		registry.Close(cs.SessionID())
		m.ActiveSessions.Set(float64(registry.Len()))
	})

	s.mcpServer = server.NewMCPServer("pybox", "1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, true),
		server.WithLogging(),
		server.WithHooks(hooks),
	)

	// The pipe transport has exactly one implicit session for the whole
	// process lifetime.
	if _, err := registry.Register(s.defaultSessionID); err != nil {
		return nil, fmt.Errorf("failed to register default session: %w", err)
	}

	s.registerRunPythonCodeTool()
	s.registerArtifactResources()

	return s, nil
}

// registerRunPythonCodeTool registers the run_python_code tool
func (s *MCPServer) registerRunPythonCodeTool() {
	tool := mcp.Tool{
		Name:        "run_python_code",
		Description: "Execute Python code in a sandboxed interpreter and return output, return value, and generated files",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python source code to execute",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunPythonCode)
}

// handleRunPythonCode handles the run_python_code tool
func (s *MCPServer) handleRunPythonCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	sessionID := s.sessionID(ctx)
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("unrecognized session id: %s", sessionID)
	}

	// Executions within one session are server-serialized: the session
	// lock is held across execute, persist, and encode.
	sess.Lock()
	defer sess.Unlock()

	n := sess.NextExecution()
	s.logger.Info("code execution requested",
		zap.String("session_id", sessionID),
		zap.Int("execution", n))

	result, err := s.engine.Execute(ctx, []engine.CodeFile{{Name: "main.py", Content: code, Active: true}})
	if err != nil {
		s.logger.Error("engine fault", zap.Error(err), zap.String("session_id", sessionID))
		s.metrics.RecordExecution("fault", 0, 0)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Execution failed: %v", err),
				},
			},
			IsError: true,
		}, nil
	}

	s.metrics.RecordExecution(string(result.Status), result.Duration.Seconds(), len(result.Output))

	files, archive, persistErr := s.persistArtifacts(sessionID, n, code, result)
	if persistErr != nil {
		// Degrade to the reduced document; the caller still gets the result.
		s.logger.Warn("artifact persistence failed",
			zap.String("session_id", sessionID),
			zap.Int("execution", n),
			zap.Error(persistErr))
		files, archive = nil, nil
	}

	document := encoder.Encode(result, files, archive, sessionID)

	s.manager.CleanupSession(sessionID, s.config.Artifacts.KeepLast)
	s.syncArtifactResources()
	s.notifyExecutionComplete(ctx, sessionID, n, result)

	s.logger.Info("code execution completed",
		zap.String("session_id", sessionID),
		zap.Int("execution", n),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.Duration),
		zap.Int("output_lines", len(result.Output)),
		zap.Int("generated_files", len(result.GeneratedFiles)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: document,
			},
		},
	}, nil
}

// persistArtifacts writes the execution's artifacts to disk and returns
// their descriptors plus the archive when generated files are present.
func (s *MCPServer) persistArtifacts(sessionID string, n int, code string, result engine.Result) ([]artifact.FileInfo, *artifact.FileInfo, error) {
	var paths []string

	codePath, err := s.manager.SaveCodeFile(sessionID, n, code, result)
	if err != nil {
		return nil, nil, err
	}
	paths = append(paths, codePath)

	outputPath, err := s.manager.SaveOutputFile(sessionID, n, result.Output)
	if err != nil {
		return nil, nil, err
	}
	paths = append(paths, outputPath)

	returnValuePath, err := s.manager.SaveReturnValueFile(sessionID, n, result.ReturnValueJSON)
	if err != nil {
		return nil, nil, err
	}
	if returnValuePath != "" {
		paths = append(paths, returnValuePath)
	}

	for _, generated := range result.GeneratedFiles {
		generatedPath, saveErr := s.manager.SaveGeneratedFile(sessionID, n, generated.Name, generated.Content)
		if saveErr != nil {
			return nil, nil, saveErr
		}
		paths = append(paths, generatedPath)
	}

	files := make([]artifact.FileInfo, 0, len(paths))
	for _, path := range paths {
		info, analyzeErr := s.manager.AnalyzeFile(path, sessionID)
		if analyzeErr != nil {
			return nil, nil, analyzeErr
		}
		s.metrics.ArtifactBytes.Add(float64(info.Size))
		files = append(files, info)
	}

	var archive *artifact.FileInfo
	if len(result.GeneratedFiles) > 0 {
		archive = s.manager.CreateArchive(files, sessionID, n)
	}
	return files, archive, nil
}

// notifyExecutionComplete pushes a log notification on the session's
// channel. The client's negotiated minimum severity gates delivery; send
// failures are ignored because not every transport supports push.
func (s *MCPServer) notifyExecutionComplete(ctx context.Context, sessionID string, n int, result engine.Result) {
	level := mcp.LoggingLevelInfo
	if result.Status == engine.StatusError {
		level = mcp.LoggingLevelError
	}

	notification := mcp.LoggingMessageNotification{}
	notification.Params.Level = level
	notification.Params.Logger = "pybox"
	notification.Params.Data = fmt.Sprintf("execution %d in session %s finished with status %s", n, sessionID, result.Status)

	_ = s.mcpServer.SendLogMessageToClient(ctx, notification)
}

// sessionID resolves the logical session for a request, falling back to the
// process-wide implicit session when the transport carries none.
func (s *MCPServer) sessionID(ctx context.Context) string {
	if cs := server.ClientSessionFromContext(ctx); cs != nil && cs.SessionID() != "" {
		return cs.SessionID()
	}
	return s.defaultSessionID
}

// Warmup pre-warms the execution engine. Failures are logged, never fatal.
func (s *MCPServer) Warmup(ctx context.Context) {
	s.engine.Warmup(ctx)
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
