package artifact

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CreateArchive bundles the given artifacts into one tar.gz, base64-encodes
// it for inline transport, and returns a FileInfo describing the archive
// with a manifest of contained files. Returns nil when the file list is
// empty or archiving fails; archiving failure is logged, not fatal.
func (m *Manager) CreateArchive(files []FileInfo, sessionID string, n int) *FileInfo {
	if len(files) == 0 {
		return nil
	}

	data, contained, err := buildTarGz(files)
	if err != nil {
		m.logger.Warn("failed to create archive",
			zap.String("session_id", sessionID),
			zap.Int("execution", n),
			zap.Error(err))
		return nil
	}

	name := fmt.Sprintf("artifacts_%03d.tar.gz", n)
	return &FileInfo{
		Name:           name,
		Size:           int64(len(data)),
		HumanSize:      HumanSize(int64(len(data))),
		Type:           TypeData,
		Extension:      ".tar.gz",
		CreatedAt:      time.Now().UTC(),
		Description:    fmt.Sprintf("Archive of %d artifact(s)", len(contained)),
		ContainedFiles: contained,
		Base64Data:     base64.StdEncoding.EncodeToString(data),
	}
}

// buildTarGz archives each FileInfo's underlying bytes under its name
func buildTarGz(files []FileInfo) ([]byte, []ContainedFile, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	var contained []ContainedFile
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
		}

		header := &tar.Header{
			Name:    f.Name,
			Mode:    int64(FilePermission),
			Size:    int64(len(content)),
			ModTime: f.CreatedAt,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return nil, nil, fmt.Errorf("failed to write tar header for %s: %w", f.Name, err)
		}
		if _, err := tarWriter.Write(content); err != nil {
			return nil, nil, fmt.Errorf("failed to write tar entry for %s: %w", f.Name, err)
		}
		contained = append(contained, ContainedFile{Name: f.Name, Size: int64(len(content))})
	}

	if err := tarWriter.Close(); err != nil {
		return nil, nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), contained, nil
}

// ExtractTarGz unpacks an archive produced by CreateArchive into name to
// content pairs. Paths are flattened and validated against traversal.
func ExtractTarGz(data []byte) (map[string][]byte, error) {
	gzipReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	files := make(map[string][]byte)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		cleanName := filepath.Clean(header.Name)
		if strings.Contains(cleanName, "..") || filepath.IsAbs(cleanName) {
			return nil, fmt.Errorf("unsafe path in tar: %s", header.Name)
		}

		content, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, fmt.Errorf("failed to read tar entry %s: %w", header.Name, err)
		}
		files[cleanName] = content
	}

	return files, nil
}
