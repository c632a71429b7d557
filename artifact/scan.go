package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocatorScheme prefixes every artifact resource locator:
// artifacts://session/<sessionId>/file/<name>
const LocatorScheme = "artifacts"

// ErrNotFound reports an unknown artifact locator
var ErrNotFound = errors.New("artifact not found")

// BuildLocator returns the resource locator for a session's artifact
func BuildLocator(sessionID, name string) string {
	return fmt.Sprintf("%s://session/%s/file/%s", LocatorScheme, sessionID, name)
}

// ParseLocator splits a resource locator into session id and file name.
// Malformed locators fail with an error naming the locator.
func ParseLocator(locator string) (sessionID, name string, err error) {
	rest, ok := strings.CutPrefix(locator, LocatorScheme+"://session/")
	if !ok {
		return "", "", fmt.Errorf("malformed resource locator: %s", locator)
	}

	sessionID, name, ok = strings.Cut(rest, "/file/")
	if !ok || sessionID == "" || name == "" || strings.ContainsAny(sessionID, "/\\") || strings.ContainsAny(name, "/\\") {
		return "", "", fmt.Errorf("malformed resource locator: %s", locator)
	}
	return sessionID, name, nil
}

// ListAll scans the artifact tree and returns FileInfo descriptors for
// every artifact currently on disk across all sessions. This is a live
// filesystem scan, not a cached index.
func (m *Manager) ListAll() ([]FileInfo, error) {
	sessions, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list artifact base dir: %w", err)
	}

	infos := []FileInfo{}
	for _, sessionEntry := range sessions {
		if !sessionEntry.IsDir() {
			continue
		}
		sessionID := sessionEntry.Name()

		execDirs, err := os.ReadDir(filepath.Join(m.baseDir, sessionID))
		if err != nil {
			continue
		}
		for _, execEntry := range execDirs {
			if !execEntry.IsDir() || !strings.HasPrefix(execEntry.Name(), execDirPrefix) {
				continue
			}
			files, err := os.ReadDir(filepath.Join(m.baseDir, sessionID, execEntry.Name()))
			if err != nil {
				continue
			}
			for _, fileEntry := range files {
				if fileEntry.IsDir() {
					continue
				}
				path := filepath.Join(m.baseDir, sessionID, execEntry.Name(), fileEntry.Name())
				info, err := m.AnalyzeFile(path, sessionID)
				if err != nil {
					continue
				}
				infos = append(infos, info)
			}
		}
	}
	return infos, nil
}

// SessionIDForPath recovers the session id an artifact path belongs to.
// Paths outside the base dir yield the empty string.
func (m *Manager) SessionIDForPath(path string) string {
	rel, err := filepath.Rel(m.baseDir, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 || parts[0] == ".." {
		return ""
	}
	return parts[0]
}

// FindSessionFile searches all execution directories of a session for a
// file with exactly the given name and returns its path. Returns
// ErrNotFound when the session or file does not exist.
func (m *Manager) FindSessionFile(sessionID, name string) (string, error) {
	sessionDir := filepath.Join(m.baseDir, sessionID)
	execDirs, err := os.ReadDir(sessionDir)
	if err != nil {
		return "", ErrNotFound
	}

	for _, execEntry := range execDirs {
		if !execEntry.IsDir() || !strings.HasPrefix(execEntry.Name(), execDirPrefix) {
			continue
		}
		path := filepath.Join(sessionDir, execEntry.Name(), name)
		if stat, statErr := os.Stat(path); statErr == nil && !stat.IsDir() {
			return path, nil
		}
	}
	return "", ErrNotFound
}
