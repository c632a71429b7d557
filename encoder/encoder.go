package encoder

import (
	"fmt"
	"strings"

	"github.com/pybox/pybox/artifact"
	"github.com/pybox/pybox/engine"
)

// Section tag names of the result grammar
const (
	TagResult       = "result"
	TagStatus       = "status"
	TagDependencies = "dependencies"
	TagOutput       = "output"
	TagReturnValue  = "return_value"
	TagError        = "error"
	TagFiles        = "files"
)

const indent = "  "

// Encode renders a result document. Section order: status, dependencies
// (omitted when empty), output, then return_value or error matching the
// status, then files (omitted when there is neither an archive nor files).
//
// Passing nil files and archive produces the reduced document used when
// artifact persistence failed.
func Encode(result engine.Result, files []artifact.FileInfo, archive *artifact.FileInfo, sessionID string) string {
	var sb strings.Builder

	sb.WriteString("<" + TagResult + ">\n")
	sb.WriteString(indent + "<" + TagStatus + ">" + string(result.Status) + "</" + TagStatus + ">\n")

	if len(result.Dependencies) > 0 {
		writeBlock(&sb, TagDependencies, strings.Join(result.Dependencies, ", "))
	}

	writeBlock(&sb, TagOutput, strings.Join(result.Output, "\n"))

	if result.Status == engine.StatusError {
		writeBlock(&sb, TagError, result.Error)
	} else if result.ReturnValueJSON != "" {
		writeBlock(&sb, TagReturnValue, result.ReturnValueJSON)
	}

	writeFilesBlock(&sb, files, archive, sessionID)

	sb.WriteString("</" + TagResult + ">")
	return sb.String()
}

// writeBlock writes one escaped multi-line section
func writeBlock(sb *strings.Builder, tag, content string) {
	sb.WriteString(indent + "<" + tag + ">\n")
	sb.WriteString(Escape(content))
	sb.WriteString("\n" + indent + "</" + tag + ">\n")
}

// writeFilesBlock writes either the single archive entry or one entry per
// file; nothing at all when both are absent.
func writeFilesBlock(sb *strings.Builder, files []artifact.FileInfo, archive *artifact.FileInfo, sessionID string) {
	if archive == nil && len(files) == 0 {
		return
	}

	sb.WriteString(indent + "<" + TagFiles + ">\n")
	if archive != nil {
		sb.WriteString(fmt.Sprintf("%s<archive name=%q size=%q count=\"%d\">\n",
			indent+indent, archive.Name, archive.HumanSize, len(archive.ContainedFiles)))
		for _, contained := range archive.ContainedFiles {
			sb.WriteString(fmt.Sprintf("%s<contained name=%q size=%q/>\n",
				indent+indent+indent, contained.Name, artifact.HumanSize(contained.Size)))
		}
		sb.WriteString(fmt.Sprintf("%s<data>data:application/gzip;base64,%s</data>\n",
			indent+indent+indent, archive.Base64Data))
		sb.WriteString(indent + indent + "</archive>\n")
	} else {
		for _, f := range files {
			sb.WriteString(fmt.Sprintf("%s<file name=%q size=%q type=%q description=%q>%s</file>\n",
				indent+indent, f.Name, f.HumanSize, f.Type, f.Description,
				artifact.BuildLocator(sessionID, f.Name)))
		}
	}
	sb.WriteString(indent + "</" + TagFiles + ">\n")
}

// sectionTags lists every tag of the grammar. Escaping covers all of them
// in every textual section, so content in one section can never pose as a
// delimiter of another.
var sectionTags = []string{
	TagResult,
	TagStatus,
	TagDependencies,
	TagOutput,
	TagReturnValue,
	TagError,
	TagFiles,
}

// Escape neutralizes section-tag lookalikes inside user content. Both the
// opening and closing form of every grammar tag are rewritten, nothing else.
func Escape(content string) string {
	for _, tag := range sectionTags {
		content = strings.ReplaceAll(content, "</"+tag+">", `<\/`+tag+">")
		content = strings.ReplaceAll(content, "<"+tag+">", `<\`+tag+">")
	}
	return content
}

// Unescape reverses Escape
func Unescape(content string) string {
	for _, tag := range sectionTags {
		content = strings.ReplaceAll(content, `<\/`+tag+">", "</"+tag+">")
		content = strings.ReplaceAll(content, `<\`+tag+">", "<"+tag+">")
	}
	return content
}

// ExtractBlock recovers the unescaped content of the section with the given
// tag. Escape rewrites every grammar-tag lookalike in section content, so
// the first literal occurrence of the tag pair in a document is always the
// structural one. The second return value is false when the section is
// absent.
func ExtractBlock(doc, tag string) (string, bool) {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	start := strings.Index(doc, open)
	if start < 0 {
		return "", false
	}
	rest := doc[start+len(open):]
	end := strings.Index(rest, closing)
	if end < 0 {
		return "", false
	}

	// Multi-line sections put content on its own lines with the closing tag
	// indented below; the inline status section carries neither newline, so
	// both trims are no-ops there.
	content := rest[:end]
	content = strings.TrimPrefix(content, "\n")
	content = strings.TrimSuffix(content, "\n"+indent)
	return Unescape(content), true
}
