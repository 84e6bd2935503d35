package patch

import "strings"

// Line is one body line of a hunk with its marker removed.
type Line struct {
	Kind      LineKind // AddedLine, RemovedLine or ContextLine
	Text      string
	Number    int  // 1-based line number in the input
	NoNewline bool // followed by "\ No newline at end of file"
}

// Hunk is one "@@ ... @@" delimited change block.
type Hunk struct {
	Header   string
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  string
	Lines    []Line
	// Raw holds the header, body lines and no-newline markers exactly as
	// they appeared in the input.
	Raw []string
}

// Entry is one file's worth of a multi-file diff. Entries returned by a
// Scanner are never modified afterwards.
type Entry struct {
	Source    string
	Index     int // 0-based position within Source
	StartLine int
	// Header holds every line before the first hunk, starting with the line
	// that opened the entry.
	Header []string
	Hunks  []Hunk

	meta    Metadata
	metaErr error
}

// Ordinal is the 1-based position of the entry within its source.
func (e *Entry) Ordinal() int {
	return e.Index + 1
}

// Metadata returns the classification derived from the entry header. The
// error is an *Error with CodeUnparsablePath when no path could be recovered.
func (e *Entry) Metadata() (Metadata, error) {
	return e.meta, e.metaErr
}

// Text returns the entry's header and hunks as they appeared in the input.
// Lines surrounding the entry (mail headers, diffstat, signatures) are not
// included.
func (e *Entry) Text() string {
	var b strings.Builder
	for _, line := range e.Header {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, h := range e.Hunks {
		for _, line := range h.Raw {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (e *Entry) isGit() bool {
	return len(e.Header) > 0 && strings.HasPrefix(e.Header[0], gitDiffPrefix)
}
