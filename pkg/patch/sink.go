package patch

import (
	"path/filepath"
	"strings"
)

// Sink persists split entries. Names are relative to the sink's root and
// the returned string is the destination actually written.
type Sink interface {
	// WritePatch stores the text of one entry under name.
	WritePatch(name string, text []byte) (string, error)
	// WriteFile stores reconstructed file contents at path, creating parent
	// directories as needed.
	WriteFile(path string, content []byte) (string, error)
}

// cleanRelative validates that p names a location inside the sink root and
// returns it in slash-separated form.
func cleanRelative(p string) (string, error) {
	rel := strings.TrimSpace(p)
	if rel == "" {
		return "", &Error{Code: CodeIO, Message: "invalid output path"}
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == "." || !filepath.IsLocal(cleaned) {
		return "", &Error{Code: CodeIO, Path: rel, Message: "output path escapes the output directory"}
	}
	return filepath.ToSlash(cleaned), nil
}
