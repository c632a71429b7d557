package engine

import (
	"regexp"
	"strings"
)

// Inline script metadata block markers (PEP 723 style):
//
//	# /// script
//	# dependencies = ["numpy", "pandas"]
//	# ///
const (
	metadataOpen  = "# /// script"
	metadataClose = "# ///"
)

var dependencyEntryRe = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// ParseInlineDependencies extracts package names declared in the script's
// inline metadata block. Returns an empty slice when no block is present or
// the block declares no dependencies.
func ParseInlineDependencies(code string) []string {
	block, ok := metadataBlock(code)
	if !ok {
		return []string{}
	}

	depsList, ok := dependenciesList(block)
	if !ok {
		return []string{}
	}

	deps := []string{}
	for _, match := range dependencyEntryRe.FindAllStringSubmatch(depsList, -1) {
		name := match[1]
		if name == "" {
			name = match[2]
		}
		if name != "" {
			deps = append(deps, name)
		}
	}
	return deps
}

// metadataBlock returns the uncommented text between the block markers
func metadataBlock(code string) (string, bool) {
	var block []string
	inBlock := false

	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inBlock {
			if trimmed == metadataOpen {
				inBlock = true
			}
			continue
		}
		if trimmed == metadataClose {
			return strings.Join(block, "\n"), true
		}
		block = append(block, strings.TrimPrefix(strings.TrimPrefix(trimmed, "#"), " "))
	}
	return "", false
}

// dependenciesList returns the bracketed value of the dependencies key
func dependenciesList(block string) (string, bool) {
	idx := strings.Index(block, "dependencies")
	if idx < 0 {
		return "", false
	}
	rest := block[idx:]
	open := strings.Index(rest, "[")
	if open < 0 {
		return "", false
	}
	closing := strings.Index(rest[open:], "]")
	if closing < 0 {
		return "", false
	}
	return rest[open : open+closing+1], true
}
