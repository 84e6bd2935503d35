package patch

import (
	"errors"
	"io/fs"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *Error
		want string
	}{
		{
			err:  &Error{Code: CodeMalformedPatch, Source: "x.patch", Line: 3, Entry: 2, Message: "boom", Path: "a.txt"},
			want: "x.patch:3: entry 2: boom (a.txt)",
		},
		{
			err:  &Error{Code: CodeIO, Line: 4, Message: "read failed", Err: fs.ErrClosed},
			want: "line 4: read failed: file already closed",
		},
		{
			err:  &Error{Code: CodeUnparsablePath, Source: "in.diff"},
			want: "in.diff: unparsable path",
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestErrorMatchesByCode(t *testing.T) {
	t.Parallel()

	err := error(&Error{Code: CodeIO, Err: fs.ErrPermission})
	if !errors.Is(err, ErrIO) {
		t.Fatal("expected code match")
	}
	if errors.Is(err, ErrMalformedPatch) {
		t.Fatal("unexpected match on different code")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatal("expected wrapped cause to be reachable")
	}
}
