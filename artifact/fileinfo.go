package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileType is the closed classification of an artifact by extension
type FileType string

const (
	TypeImage    FileType = "image"
	TypeData     FileType = "data"
	TypeDocument FileType = "document"
	TypeCode     FileType = "code"
	TypeFile     FileType = "file"
)

// ContainedFile is one manifest entry of an archive
type ContainedFile struct {
	Name string
	Size int64
}

// FileInfo describes one artifact. Path is empty for in-memory artifacts
// such as archives; Base64Data is set only for inline download payloads.
type FileInfo struct {
	Name           string
	Path           string
	Size           int64
	HumanSize      string
	Type           FileType
	Extension      string
	CreatedAt      time.Time
	Description    string
	ContainedFiles []ContainedFile
	Base64Data     string
}

var extensionTypes = map[string]FileType{
	".png":  TypeImage,
	".jpg":  TypeImage,
	".jpeg": TypeImage,
	".gif":  TypeImage,
	".svg":  TypeImage,
	".bmp":  TypeImage,
	".webp": TypeImage,

	".json":    TypeData,
	".csv":     TypeData,
	".tsv":     TypeData,
	".xml":     TypeData,
	".yaml":    TypeData,
	".yml":     TypeData,
	".parquet": TypeData,
	".xlsx":    TypeData,

	".txt":  TypeDocument,
	".md":   TypeDocument,
	".pdf":  TypeDocument,
	".html": TypeDocument,
	".rst":  TypeDocument,

	".py":  TypeCode,
	".js":  TypeCode,
	".ts":  TypeCode,
	".go":  TypeCode,
	".sh":  TypeCode,
	".sql": TypeCode,
}

// ClassifyExtension maps a file extension (with or without leading dot)
// to its FileType. Unknown extensions classify as TypeFile.
func ClassifyExtension(ext string) FileType {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return TypeFile
}

// HumanSize renders a byte count for humans: "900 B", "1.2 KB", "3.4 MB"
func HumanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// describeFile synthesizes a human description from the artifact naming
// convention, falling back to a type-based description.
func describeFile(name string, fileType FileType) string {
	switch {
	case strings.HasPrefix(name, "script_"):
		return "Executed script"
	case strings.HasPrefix(name, "output_"):
		return "Captured execution output"
	case strings.HasPrefix(name, "return_value_"):
		return "Return value of the final expression"
	}

	switch fileType {
	case TypeImage:
		return "Image generated by the script"
	case TypeData:
		return "Data file generated by the script"
	case TypeDocument:
		return "Document generated by the script"
	case TypeCode:
		return "Code file generated by the script"
	default:
		return "File generated by the script"
	}
}

var extensionMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".csv":  "text/csv",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".pdf":  "application/pdf",
	".py":   "text/x-python",
	".js":   "text/javascript",
	".sh":   "text/x-shellscript",
}

// MIMEType returns the MIME type for a file name, defaulting to
// application/octet-stream.
func MIMEType(name string) string {
	if mime, ok := extensionMIMETypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsTextMIME reports whether resource retrieval should return decoded text
// rather than base64 bytes for the given MIME type.
func IsTextMIME(mime string) bool {
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch mime {
	case "application/json", "application/xml", "application/yaml", "image/svg+xml":
		return true
	}
	return false
}
