package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pybox/pybox/config"
	"github.com/pybox/pybox/engine"
)

// File permission constants
const (
	DirPermission  = 0o755
	FilePermission = 0o644
)

// execDirPrefix names execution subdirectories: execution_001, execution_002...
const execDirPrefix = "execution_"

// Manager owns the artifact directory tree. All directory creation is
// create-if-absent, so every operation is idempotent with respect to layout.
type Manager struct {
	logger  *zap.Logger
	baseDir string
}

// New creates a Manager rooted at the configured base directory
func New(logger *zap.Logger, cfg *config.Config) *Manager {
	return &Manager{
		logger:  logger,
		baseDir: cfg.Artifacts.BaseDir,
	}
}

// BaseDir returns the artifact tree root
func (m *Manager) BaseDir() string {
	return m.baseDir
}

func execDirName(n int) string {
	return fmt.Sprintf("%s%03d", execDirPrefix, n)
}

func scriptFileName(n int) string {
	return fmt.Sprintf("script_%03d.py", n)
}

func outputFileName(n int) string {
	return fmt.Sprintf("output_%03d.txt", n)
}

func returnValueFileName(n int, ext string) string {
	return fmt.Sprintf("return_value_%03d%s", n, ext)
}

// EnsureExecutionDir creates (if absent) and returns the directory for one
// execution of one session.
func (m *Manager) EnsureExecutionDir(sessionID string, n int) (string, error) {
	dir := filepath.Join(m.baseDir, sessionID, execDirName(n))
	if err := os.MkdirAll(dir, DirPermission); err != nil {
		return "", fmt.Errorf("failed to create execution dir: %w", err)
	}
	return dir, nil
}

// SaveCodeFile writes the executed script prefixed with a header comment
// citing timestamp, session, execution number, status, and execution time.
func (m *Manager) SaveCodeFile(sessionID string, n int, code string, result engine.Result) (string, error) {
	dir, err := m.EnsureExecutionDir(sessionID, n)
	if err != nil {
		return "", err
	}

	header := fmt.Sprintf(`# Executed at: %s
# Session: %s
# Execution: %d
# Status: %s
# Execution time: %s

`, time.Now().UTC().Format(time.RFC3339), sessionID, n, result.Status, result.Duration.Round(time.Millisecond))

	path := filepath.Join(dir, scriptFileName(n))
	if err := os.WriteFile(path, []byte(header+code), FilePermission); err != nil {
		return "", fmt.Errorf("failed to save code file: %w", err)
	}
	return path, nil
}

// SaveOutputFile writes the captured output lines as a transcript with a
// banner header.
func (m *Manager) SaveOutputFile(sessionID string, n int, lines []string) (string, error) {
	dir, err := m.EnsureExecutionDir(sessionID, n)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("========================================\n")
	sb.WriteString(fmt.Sprintf(" Execution output: session %s, execution %d\n", sessionID, n))
	sb.WriteString("========================================\n\n")
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	path := filepath.Join(dir, outputFileName(n))
	if err := os.WriteFile(path, []byte(sb.String()), FilePermission); err != nil {
		return "", fmt.Errorf("failed to save output file: %w", err)
	}
	return path, nil
}

// SaveReturnValueFile persists the return value, pretty-printed as .json
// when it parses as JSON and byte-for-byte as .txt otherwise. Returns the
// empty string when there is no value to save.
func (m *Manager) SaveReturnValueFile(sessionID string, n int, value string) (string, error) {
	if value == "" {
		return "", nil
	}

	dir, err := m.EnsureExecutionDir(sessionID, n)
	if err != nil {
		return "", err
	}

	ext := ".txt"
	content := []byte(value)

	var parsed any
	if json.Unmarshal([]byte(value), &parsed) == nil {
		if pretty, marshalErr := json.MarshalIndent(parsed, "", "  "); marshalErr == nil {
			ext = ".json"
			content = pretty
		}
	}

	path := filepath.Join(dir, returnValueFileName(n, ext))
	if err := os.WriteFile(path, content, FilePermission); err != nil {
		return "", fmt.Errorf("failed to save return value file: %w", err)
	}
	return path, nil
}

// SaveGeneratedFile persists one script-generated file under its original
// name inside the execution directory.
func (m *Manager) SaveGeneratedFile(sessionID string, n int, name string, content []byte) (string, error) {
	dir, err := m.EnsureExecutionDir(sessionID, n)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, content, FilePermission); err != nil {
		return "", fmt.Errorf("failed to save generated file %s: %w", name, err)
	}
	return path, nil
}

// AnalyzeFile stats a persisted artifact and produces its FileInfo. This is
// the only way artifacts become visible to the result encoder.
func (m *Manager) AnalyzeFile(path, sessionID string) (FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	fileType := ClassifyExtension(ext)

	return FileInfo{
		Name:        name,
		Path:        path,
		Size:        stat.Size(),
		HumanSize:   HumanSize(stat.Size()),
		Type:        fileType,
		Extension:   ext,
		CreatedAt:   stat.ModTime(),
		Description: describeFile(name, fileType),
	}, nil
}

// DetectGeneratedFiles moves stray non-hidden, non-script files from dir
// into the execution directory and returns their new paths. This is the
// fallback for artifacts the engine could not enumerate directly; failures
// to move individual files are logged and skipped.
func (m *Manager) DetectGeneratedFiles(sessionID string, n int, dir string) []string {
	execDir, err := m.EnsureExecutionDir(sessionID, n)
	if err != nil {
		m.logger.Warn("failed to create execution dir for detection", zap.Error(err))
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		m.logger.Warn("failed to scan for generated files", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	var moved []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".py") {
			continue
		}
		dest := filepath.Join(execDir, name)
		if err := os.Rename(filepath.Join(dir, name), dest); err != nil {
			m.logger.Warn("failed to move generated file", zap.String("name", name), zap.Error(err))
			continue
		}
		moved = append(moved, dest)
	}
	return moved
}

// CleanupSession deletes all but the keepLast most-recently-modified
// execution directories of a session. Errors are logged and swallowed.
func (m *Manager) CleanupSession(sessionID string, keepLast int) {
	sessionDir := filepath.Join(m.baseDir, sessionID)
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("failed to list session dir for cleanup", zap.Error(err))
		}
		return
	}

	type execDir struct {
		name    string
		modTime time.Time
	}

	var dirs []execDir
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), execDirPrefix) {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			m.logger.Warn("failed to stat execution dir", zap.String("name", entry.Name()), zap.Error(infoErr))
			continue
		}
		dirs = append(dirs, execDir{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].modTime.Equal(dirs[j].modTime) {
			return dirs[i].name > dirs[j].name
		}
		return dirs[i].modTime.After(dirs[j].modTime)
	})

	for _, d := range dirs[min(keepLast, len(dirs)):] {
		if err := os.RemoveAll(filepath.Join(sessionDir, d.name)); err != nil {
			m.logger.Warn("failed to remove old execution dir", zap.String("name", d.name), zap.Error(err))
		}
	}
}
