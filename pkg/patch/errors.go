package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// Code identifies the class of a patch failure.
type Code string

const (
	// CodeMalformedPatch marks a structural violation of the diff format.
	// It aborts the current input source.
	CodeMalformedPatch Code = "malformed_patch"
	// CodeUnparsablePath marks an entry whose header carries no usable path.
	// Only the offending entry is skipped.
	CodeUnparsablePath Code = "unparsable_path"
	// CodeIO marks a read or write failure.
	CodeIO Code = "io_error"
	// CodeVerifyMismatch marks an entry that go-gitdiff reads differently.
	CodeVerifyMismatch Code = "verify_mismatch"
	// CodeUnsupported marks a request the entry cannot satisfy, such as
	// reconstructing the contents of a binary file.
	CodeUnsupported Code = "unsupported"
)

// Sentinels for errors.Is comparisons.
var (
	ErrMalformedPatch = &Error{Code: CodeMalformedPatch}
	ErrUnparsablePath = &Error{Code: CodeUnparsablePath}
	ErrIO             = &Error{Code: CodeIO}
	ErrVerifyMismatch = &Error{Code: CodeVerifyMismatch}
	ErrUnsupported    = &Error{Code: CodeUnsupported}
)

// Error represents a structured failure while splitting a patch. It carries
// enough context (source, line, entry) to be reported to a user.
type Error struct {
	Code    Code
	Source  string
	Line    int // 1-based input line, 0 when unknown
	Entry   int // 1-based entry position within Source, 0 when not tied to an entry
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	switch {
	case e.Source != "" && e.Line > 0:
		b.WriteString(e.Source + ":" + strconv.Itoa(e.Line) + ": ")
	case e.Source != "":
		b.WriteString(e.Source + ": ")
	case e.Line > 0:
		b.WriteString("line " + strconv.Itoa(e.Line) + ": ")
	}
	if e.Entry > 0 {
		fmt.Fprintf(&b, "entry %d: ", e.Entry)
	}
	msg := e.Message
	if msg == "" {
		msg = strings.ReplaceAll(string(e.Code), "_", " ")
	}
	if msg == "" {
		msg = "patch error"
	}
	b.WriteString(msg)
	if e.Path != "" {
		b.WriteString(" (" + e.Path + ")")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code == e.Code
}

func malformedf(source string, line, entry int, format string, args ...any) *Error {
	return &Error{
		Code:    CodeMalformedPatch,
		Source:  source,
		Line:    line,
		Entry:   entry,
		Message: fmt.Sprintf(format, args...),
	}
}
