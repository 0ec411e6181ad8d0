package search

import (
	"path/filepath"
	"strings"
)

// extensionFilter decides which files are opened for scanning.
// An empty filter accepts every file.
type extensionFilter struct {
	allowed map[string]bool
}

func newExtensionFilter(extensions []string) extensionFilter {
	f := extensionFilter{allowed: make(map[string]bool)}
	for _, ext := range extensions {
		if clean := normalizeExtension(ext); clean != "" {
			f.allowed[clean] = true
		}
	}
	return f
}

// accepts compares the file's extension case-insensitively
func (f extensionFilter) accepts(name string) bool {
	if len(f.allowed) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	return f.allowed[strings.ToLower(ext)]
}

// normalizeExtension lowercases ext and ensures a leading dot
func normalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	ext = strings.TrimLeft(ext, "*")
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

// ParseExtensions splits a comma-separated extension list such as "txt,.MD, go"
func ParseExtensions(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if clean := normalizeExtension(part); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// isHidden reports whether an entry name carries the hidden marker
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
