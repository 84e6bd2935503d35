package patch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// Verify re-parses the text of e with an independent parser and reports an
// error with CodeVerifyMismatch when the two disagree about the change. For
// added text files the reconstructed contents are also compared with the
// result of applying the entry to an empty file.
func Verify(e *Entry) error {
	meta, err := e.Metadata()
	if err != nil {
		return err
	}
	mismatch := func(format string, args ...any) error {
		return &Error{
			Code:    CodeVerifyMismatch,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Path:    meta.Path(),
			Message: fmt.Sprintf(format, args...),
		}
	}

	files, _, err := gitdiff.Parse(strings.NewReader(e.Text()))
	if err != nil {
		return &Error{
			Code:    CodeVerifyMismatch,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Path:    meta.Path(),
			Message: "entry does not parse as a standalone patch",
			Err:     err,
		}
	}
	if len(files) != 1 {
		return mismatch("expected one file, found %d", len(files))
	}
	f := files[0]

	if f.IsBinary != meta.IsBinary() {
		return mismatch("binary flag differs: got %t, want %t", f.IsBinary, meta.IsBinary())
	}
	if !f.IsBinary && len(f.TextFragments) != len(e.Hunks) {
		return mismatch("hunk count differs: got %d, want %d", len(f.TextFragments), len(e.Hunks))
	}
	if !e.isGit() {
		return nil
	}

	if f.IsNew != (meta.Change == StatusAdded) {
		return mismatch("new-file flag differs: got %t, want %t", f.IsNew, meta.Change == StatusAdded)
	}
	if f.IsDelete != (meta.Change == StatusDeleted) {
		return mismatch("deleted-file flag differs: got %t, want %t", f.IsDelete, meta.Change == StatusDeleted)
	}
	got, want := f.NewName, meta.NewPath
	if meta.Change == StatusDeleted {
		got, want = f.OldName, meta.OldPath
	}
	if got = stripPrefix(got, ""); got != want {
		return mismatch("path differs: got %q, want %q", got, want)
	}

	if meta.Change != StatusAdded || meta.IsBinary() {
		return nil
	}
	var applied bytes.Buffer
	if err := gitdiff.Apply(&applied, bytes.NewReader(nil), f); err != nil {
		return &Error{
			Code:    CodeVerifyMismatch,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Path:    meta.Path(),
			Message: "entry does not apply to an empty file",
			Err:     err,
		}
	}
	content, err := ReconstructAdded(e)
	if err != nil {
		return err
	}
	if !bytes.Equal(applied.Bytes(), content) {
		return mismatch("reconstructed contents differ from applied contents (%d vs %d bytes)", len(content), applied.Len())
	}
	return nil
}
