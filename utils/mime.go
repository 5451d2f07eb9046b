package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

// MimeByName maps a file name to a MIME type through its extension.
// Returns "" for unknown extensions so callers can fall back to content
// sniffing.
func MimeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return ""
}
