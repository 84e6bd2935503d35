package patch

import (
	"bytes"
	"fmt"
)

// ReconstructAdded replays the hunks of a newly added text file and returns
// the file's bytes. Added and context lines are kept; a removed line is a
// MalformedPatch error because the file had no previous version.
func ReconstructAdded(e *Entry) ([]byte, error) {
	return reconstruct(e, StatusAdded, AddedLine, RemovedLine)
}

// ReconstructRemoved is the mirror of ReconstructAdded for deleted files:
// it recovers the contents the file had before it was removed.
func ReconstructRemoved(e *Entry) ([]byte, error) {
	return reconstruct(e, StatusDeleted, RemovedLine, AddedLine)
}

func reconstruct(e *Entry, want Status, keep, forbid LineKind) ([]byte, error) {
	meta, err := e.Metadata()
	if err != nil {
		return nil, err
	}
	if meta.Change != want {
		return nil, &Error{
			Code:    CodeUnsupported,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Path:    meta.Path(),
			Message: fmt.Sprintf("entry is %s, not %s", meta.Change, want),
		}
	}
	if meta.IsBinary() {
		return nil, &Error{
			Code:    CodeUnsupported,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Path:    meta.Path(),
			Message: "binary contents cannot be reconstructed",
		}
	}

	var buf bytes.Buffer
	for _, h := range e.Hunks {
		for _, line := range h.Lines {
			switch line.Kind {
			case keep, ContextLine:
				buf.WriteString(line.Text)
				if !line.NoNewline {
					buf.WriteByte('\n')
				}
			case forbid:
				return nil, &Error{
					Code:    CodeMalformedPatch,
					Source:  e.Source,
					Line:    line.Number,
					Entry:   e.Ordinal(),
					Path:    meta.Path(),
					Message: fmt.Sprintf("%s line in a %s file", forbid, want),
				}
			}
		}
	}
	return buf.Bytes(), nil
}
