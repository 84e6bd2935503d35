package patch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemOptions configures a FilesystemSink.
type FilesystemOptions struct {
	// Dir is the output directory. It must exist; empty means the working
	// directory.
	Dir string
	// Perm is the mode of written files, 0o644 when zero.
	Perm fs.FileMode
}

// FilesystemSink writes entries below a directory on the OS filesystem.
type FilesystemSink struct {
	dir  string
	perm fs.FileMode
}

var _ Sink = (*FilesystemSink)(nil)

// NewFilesystemSink validates opts.Dir and returns a sink rooted there.
func NewFilesystemSink(opts FilesystemOptions) (*FilesystemSink, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = wd
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &Error{Code: CodeIO, Path: dir, Message: "output directory is not accessible", Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Code: CodeIO, Path: dir, Message: "output path is not a directory"}
	}
	perm := opts.Perm & fs.ModePerm
	if perm == 0 {
		perm = 0o644
	}
	return &FilesystemSink{dir: dir, perm: perm}, nil
}

// Dir returns the absolute output directory.
func (s *FilesystemSink) Dir() string {
	return s.dir
}

// WritePatch implements Sink.
func (s *FilesystemSink) WritePatch(name string, text []byte) (string, error) {
	return s.write(name, text)
}

// WriteFile implements Sink.
func (s *FilesystemSink) WriteFile(path string, content []byte) (string, error) {
	return s.write(path, content)
}

func (s *FilesystemSink) write(relative string, data []byte) (string, error) {
	abs, rel, err := s.resolvePath(relative)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", &Error{Code: CodeIO, Path: rel, Message: "failed to create directory", Err: err}
	}
	info, err := os.Stat(abs)
	if err == nil && info.IsDir() {
		return "", &Error{Code: CodeIO, Path: rel, Message: "destination is a directory"}
	}
	if err := os.WriteFile(abs, data, s.perm); err != nil {
		return "", &Error{Code: CodeIO, Path: rel, Message: "failed to write", Err: err}
	}
	return abs, nil
}

func (s *FilesystemSink) resolvePath(relative string) (string, string, error) {
	rel, err := cleanRelative(relative)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(rel)), rel, nil
}
