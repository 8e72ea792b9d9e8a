package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// canonicalURI normalises percent-encoding so one document never lives
// under two keys. Non-file URIs are kept as sent.
func canonicalURI(uri string) string {
	uri = strings.TrimSpace(uri)
	parsed, err := url.Parse(uri)
	if uri == "" || err != nil || parsed.Scheme != "file" {
		return uri
	}
	return (&url.URL{Scheme: "file", Path: parsed.Path}).String()
}

// filePath returns the local path of a file URI. Untitled buffers and other
// schemes have none.
func filePath(uri string) (string, bool) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" || parsed.Path == "" {
		return "", false
	}
	return filepath.Clean(filepath.FromSlash(parsed.Path)), true
}

func pathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
