package patch

import "maps"

// MemorySink collects written entries in a map keyed by slash-separated
// relative path. It is used by tests and by tools that post-process entries
// without touching the disk.
type MemorySink struct {
	files map[string][]byte
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink returns a sink seeded with a copy of initial.
func NewMemorySink(initial map[string][]byte) *MemorySink {
	files := make(map[string][]byte, len(initial))
	for k, v := range initial {
		files[k] = append([]byte(nil), v...)
	}
	return &MemorySink{files: files}
}

// Files returns a snapshot of everything written so far.
func (s *MemorySink) Files() map[string][]byte {
	return maps.Clone(s.files)
}

// WritePatch implements Sink.
func (s *MemorySink) WritePatch(name string, text []byte) (string, error) {
	return s.write(name, text)
}

// WriteFile implements Sink.
func (s *MemorySink) WriteFile(path string, content []byte) (string, error) {
	return s.write(path, content)
}

func (s *MemorySink) write(relative string, data []byte) (string, error) {
	rel, err := cleanRelative(relative)
	if err != nil {
		return "", err
	}
	s.files[rel] = append([]byte(nil), data...)
	return rel, nil
}
