package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pybox/pybox/config"
)

// Status describes the outcome of one execution
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// File permission constants
const (
	DirPermission  = 0o755
	FilePermission = 0o600
)

// controlDir is the hidden arena subdirectory shared with the harness.
// Files inside it never count as generated files.
const (
	controlDir      = ".pybox"
	returnValueFile = "return_value"
	errorFile       = "error"
	runnerFile      = "runner.py"
	defaultFileName = "main.py"
)

// CodeFile is one source file for an execution. Exactly one file per
// request is the active entry point; the others are importable siblings.
type CodeFile struct {
	Name    string
	Content string
	Active  bool
}

// GeneratedFile is a file the script created in its arena directory.
type GeneratedFile struct {
	Name    string
	Content []byte
}

// Result is the outcome of one execution. Exactly one of ReturnValueJSON
// and Error is set, matching Status; empty string means absent.
type Result struct {
	Status          Status
	Output          []string
	Dependencies    []string
	ReturnValueJSON string
	Error           string
	GeneratedFiles  []GeneratedFile
	Duration        time.Duration
}

// Engine runs code snippets to completion
type Engine interface {
	Execute(ctx context.Context, files []CodeFile) (Result, error)
	Warmup(ctx context.Context)
}

// PythonEngine implements Engine using a local Python interpreter
type PythonEngine struct {
	logger *zap.Logger
	config *config.Config
}

// New creates a new PythonEngine
func New(logger *zap.Logger, cfg *config.Config) *PythonEngine {
	return &PythonEngine{
		logger: logger,
		config: cfg,
	}
}

// NewEngine creates the engine behind the Engine interface for fx
func NewEngine(logger *zap.Logger, cfg *config.Config) Engine {
	return New(logger, cfg)
}

// Execute runs the active file to completion in a fresh arena directory.
//
// Script failures are reported inside the Result with StatusError; only
// engine-internal faults (arena setup, interpreter missing) return an error.
func (e *PythonEngine) Execute(ctx context.Context, files []CodeFile) (Result, error) {
	active, err := activeFile(files)
	if err != nil {
		return Result{}, err
	}

	arena, err := os.MkdirTemp("", "pybox-exec-*")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create arena dir: %w", err)
	}
	defer os.RemoveAll(arena)

	written := make(map[string]bool, len(files))
	for _, f := range files {
		name := filepath.Base(f.Name)
		if name == "" || name == "." {
			return Result{}, fmt.Errorf("invalid file name: %q", f.Name)
		}
		if writeErr := os.WriteFile(filepath.Join(arena, name), []byte(f.Content), FilePermission); writeErr != nil {
			return Result{}, fmt.Errorf("failed to write %s: %w", name, writeErr)
		}
		written[name] = true
	}

	control := filepath.Join(arena, controlDir)
	if mkdirErr := os.MkdirAll(control, DirPermission); mkdirErr != nil {
		return Result{}, fmt.Errorf("failed to create control dir: %w", mkdirErr)
	}
	runnerPath := filepath.Join(control, runnerFile)
	if writeErr := os.WriteFile(runnerPath, []byte(runnerSource), FilePermission); writeErr != nil {
		return Result{}, fmt.Errorf("failed to write harness: %w", writeErr)
	}

	deps := ParseInlineDependencies(active.Content)
	start := time.Now()

	if len(deps) > 0 && e.config.Execution.InstallDeps {
		if installErr := e.installDependencies(ctx, deps); installErr != nil {
			return Result{
				Status:       StatusError,
				Output:       []string{},
				Dependencies: deps,
				Error:        fmt.Sprintf("failed to install dependencies %v: %v", deps, installErr),
				Duration:     time.Since(start),
			}, nil
		}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.config.GetTimeout())
	defer cancel()

	cmd := exec.CommandContext(ctxWithTimeout, e.config.Execution.PythonBin, "-u", runnerPath, arena, filepath.Base(active.Name)) //nolint:gosec // interpreter binary comes from validated config
	cmd.Dir = arena

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()
	duration := time.Since(start)

	result := Result{
		Status:       StatusSuccess,
		Output:       splitOutputLines(stdoutBuf.String()),
		Dependencies: deps,
		Duration:     duration,
	}

	if ctxWithTimeout.Err() == context.DeadlineExceeded {
		result.Status = StatusError
		result.Error = fmt.Sprintf("execution timed out after %s", e.config.GetTimeout())
		return result, nil
	}

	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			return Result{}, fmt.Errorf("failed to run interpreter: %w", runErr)
		}
		result.Status = StatusError
		result.Error = e.readErrorText(control, stderrBuf.String(), runErr)
	} else if data, readErr := os.ReadFile(filepath.Join(control, returnValueFile)); readErr == nil {
		result.ReturnValueJSON = string(data)
	}

	generated, genErr := collectGeneratedFiles(arena, written)
	if genErr != nil {
		e.logger.Warn("failed to collect generated files", zap.Error(genErr))
	}
	result.GeneratedFiles = generated

	return result, nil
}

// Warmup runs a trivial script exercising the harness and interpreter so
// the first real request does not pay cold-start cost. Idempotent; failures
// are logged and never fatal.
func (e *PythonEngine) Warmup(ctx context.Context) {
	const warmupScript = "import json, asyncio, pathlib\njson.dumps({'warm': True})\n"

	result, err := e.Execute(ctx, []CodeFile{{Name: defaultFileName, Content: warmupScript, Active: true}})
	if err != nil {
		e.logger.Warn("warmup failed", zap.Error(err))
		return
	}
	if result.Status != StatusSuccess {
		e.logger.Warn("warmup script failed", zap.String("error", result.Error))
		return
	}
	e.logger.Info("warmup complete", zap.Duration("duration", result.Duration))
}

// installDependencies makes the declared packages importable before the run
func (e *PythonEngine) installDependencies(ctx context.Context, deps []string) error {
	args := append([]string{"-m", "pip", "install", "--quiet", "--disable-pip-version-check"}, deps...)
	cmd := exec.CommandContext(ctx, e.config.Execution.PythonBin, args...) //nolint:gosec // interpreter binary comes from validated config

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pip install: %v: %s", err, strings.TrimSpace(stderrBuf.String()))
	}

	e.logger.Info("installed dependencies", zap.Strings("packages", deps))
	return nil
}

// readErrorText prefers the harness-captured traceback over raw stderr
func (e *PythonEngine) readErrorText(control, stderr string, runErr error) string {
	if data, err := os.ReadFile(filepath.Join(control, errorFile)); err == nil && len(data) > 0 {
		return string(data)
	}
	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		return trimmed
	}
	return runErr.Error()
}

// activeFile returns the entry point. A single file with no Active flag is
// treated as active.
func activeFile(files []CodeFile) (CodeFile, error) {
	if len(files) == 0 {
		return CodeFile{}, fmt.Errorf("no files provided")
	}

	var active *CodeFile
	for i := range files {
		if files[i].Active {
			if active != nil {
				return CodeFile{}, fmt.Errorf("multiple active files: %s and %s", active.Name, files[i].Name)
			}
			active = &files[i]
		}
	}
	if active == nil {
		if len(files) == 1 {
			return files[0], nil
		}
		return CodeFile{}, fmt.Errorf("no active file among %d files", len(files))
	}
	return *active, nil
}

// splitOutputLines turns captured stdout into discrete output entries,
// keeping interior empty lines and treating an unterminated final line as
// one entry.
func splitOutputLines(stdout string) []string {
	if stdout == "" {
		return []string{}
	}
	lines := strings.Split(stdout, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// collectGeneratedFiles returns files that appeared in the arena during the
// run, skipping the submitted sources, hidden entries, and directories.
func collectGeneratedFiles(arena string, written map[string]bool) ([]GeneratedFile, error) {
	entries, err := os.ReadDir(arena)
	if err != nil {
		return nil, fmt.Errorf("failed to list arena: %w", err)
	}

	var generated []GeneratedFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || written[name] || strings.HasPrefix(name, ".") {
			continue
		}
		content, readErr := os.ReadFile(filepath.Join(arena, name))
		if readErr != nil {
			return generated, fmt.Errorf("failed to read generated file %s: %w", name, readErr)
		}
		generated = append(generated, GeneratedFile{Name: name, Content: content})
	}
	return generated, nil
}
