package patch

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

type rawLine struct {
	text   string
	number int
}

// lineReader yields input lines with their numbers and supports a single
// line of lookahead.
type lineReader struct {
	br     *bufio.Reader
	number int
	ahead  []rawLine
}

func (lr *lineReader) next() (rawLine, error) {
	if len(lr.ahead) > 0 {
		line := lr.ahead[0]
		lr.ahead = lr.ahead[1:]
		return line, nil
	}
	return lr.read()
}

func (lr *lineReader) peek() (rawLine, error) {
	if len(lr.ahead) == 0 {
		line, err := lr.read()
		if err != nil {
			return rawLine{}, err
		}
		lr.ahead = append(lr.ahead, line)
	}
	return lr.ahead[0], nil
}

func (lr *lineReader) read() (rawLine, error) {
	text, err := lr.br.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || text == "") {
		return rawLine{}, err
	}
	lr.number++
	return rawLine{text: strings.TrimSuffix(text, "\n"), number: lr.number}, nil
}

type scanState int

const (
	inHeader scanState = iota
	inHunk
	afterHunk
)

// Scanner is a pull parser that yields one Entry per file section of a
// unified diff. Next returns io.EOF once the input is exhausted.
type Scanner struct {
	source  string
	lines   *lineReader
	pending []rawLine
	index   int
	err     error
}

// NewScanner returns a Scanner reading r. source names the input in errors
// and is empty for standard input.
func NewScanner(r io.Reader, source string) *Scanner {
	return &Scanner{
		source: source,
		lines:  &lineReader{br: bufio.NewReader(r)},
	}
}

// Segment reads r to the end and returns its entries in input order. When
// the input is malformed no entries are returned.
func Segment(r io.Reader, source string) ([]*Entry, error) {
	sc := NewScanner(r, source)
	var entries []*Entry
	for {
		entry, err := sc.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}

// Next returns the next entry. Errors are sticky: once Next fails every
// later call returns the same error.
func (s *Scanner) Next() (*Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	opening, err := s.seek()
	if err != nil {
		s.err = err
		return nil, err
	}
	entry := &Entry{
		Source:    s.source,
		Index:     s.index,
		StartLine: opening[0].number,
	}
	s.index++
	if err := s.fill(entry, opening); err != nil {
		s.err = err
		return nil, err
	}
	entry.meta, entry.metaErr = classifyEntry(entry)
	return entry, nil
}

// seek skips preamble and trailer text up to the next entry boundary.
func (s *Scanner) seek() ([]rawLine, error) {
	if s.pending != nil {
		opening := s.pending
		s.pending = nil
		return opening, nil
	}
	for {
		line, err := s.lines.next()
		if err != nil {
			return nil, s.readErr(err)
		}
		opening, ok, err := s.opening(line, true)
		if err != nil {
			return nil, err
		}
		if ok {
			return opening, nil
		}
		switch {
		case strings.HasPrefix(line.text, "@@ "):
			return nil, malformedf(s.source, line.number, 0, "hunk header %q outside of a file entry", line.text)
		case strings.HasPrefix(line.text, "+") && !strings.HasPrefix(line.text, newMarkerPrefix):
			return nil, malformedf(s.source, line.number, 0, "added line %q outside of a file entry", line.text)
		}
	}
}

// opening reports whether line starts a new entry and returns the lines that
// open it. A "diff --git" line always does; a "---" line immediately followed
// by "+++" does when plain is set.
func (s *Scanner) opening(line rawLine, plain bool) ([]rawLine, bool, error) {
	if strings.HasPrefix(line.text, gitDiffPrefix) {
		if strings.HasSuffix(line.text, "\r") {
			return nil, false, s.crlf(line)
		}
		return []rawLine{line}, true, nil
	}
	if !plain || !strings.HasPrefix(line.text, oldMarkerPrefix) {
		return nil, false, nil
	}
	next, err := s.lines.peek()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.readErr(err)
	}
	if !strings.HasPrefix(next.text, newMarkerPrefix) {
		return nil, false, nil
	}
	_, _ = s.lines.next()
	for _, l := range []rawLine{line, next} {
		if strings.HasSuffix(l.text, "\r") {
			return nil, false, s.crlf(l)
		}
	}
	return []rawLine{line, next}, true, nil
}

// fill reads the header and hunks of e. It stops at the next boundary, which
// is kept pending for the following call to Next, or at the first trailer
// line after a complete hunk.
func (s *Scanner) fill(e *Entry, opening []rawLine) error {
	for _, l := range opening {
		e.Header = append(e.Header, l.text)
	}

	var (
		hunk             *Hunk
		oldLeft, newLeft int
		state            = inHeader
	)
	closeHunk := func() {
		if hunk != nil {
			e.Hunks = append(e.Hunks, *hunk)
			hunk = nil
		}
	}
	startHunk := func(line rawLine) error {
		closeHunk()
		h, ok := ParseHunkHeader(line.text)
		if !ok {
			return malformedf(s.source, line.number, e.Ordinal(), "unparsable hunk header %q", line.text)
		}
		h.Raw = []string{line.text}
		hunk = &h
		oldLeft, newLeft = h.OldCount, h.NewCount
		state = inHunk
		if oldLeft == 0 && newLeft == 0 {
			state = afterHunk
		}
		return nil
	}
	markNoNewline := func(line rawLine) error {
		if hunk == nil || len(hunk.Lines) == 0 {
			return malformedf(s.source, line.number, e.Ordinal(), "no-newline marker without a preceding line")
		}
		hunk.Lines[len(hunk.Lines)-1].NoNewline = true
		hunk.Raw = append(hunk.Raw, line.text)
		return nil
	}

	for {
		line, err := s.lines.next()
		if errors.Is(err, io.EOF) {
			if state == inHunk {
				return malformedf(s.source, s.lines.number, e.Ordinal(),
					"hunk %q ends early: %d old and %d new lines missing", hunk.Header, oldLeft, newLeft)
			}
			closeHunk()
			return nil
		}
		if err != nil {
			return s.readErr(err)
		}

		switch state {
		case inHeader:
			opening, ok, err := s.opening(line, false)
			if err != nil {
				return err
			}
			if ok {
				s.pending = opening
				return nil
			}
			switch kind := Classify(line.text, false); {
			case kind == HunkHeader, strings.HasPrefix(line.text, "@@ "):
				if err := startHunk(line); err != nil {
					return err
				}
			case line.text == "-- ":
				return nil
			default:
				if (kind == OldFileMarker || kind == NewFileMarker) && strings.HasSuffix(line.text, "\r") {
					return s.crlf(line)
				}
				e.Header = append(e.Header, line.text)
			}

		case inHunk:
			if IsNoNewlineMarker(line.text) {
				if err := markNoNewline(line); err != nil {
					return err
				}
				continue
			}
			kind := Classify(line.text, true)
			switch kind {
			case ContextLine:
				if oldLeft == 0 || newLeft == 0 {
					return s.excess(e, hunk, line)
				}
				oldLeft--
				newLeft--
			case RemovedLine:
				if oldLeft == 0 {
					return s.excess(e, hunk, line)
				}
				oldLeft--
			case AddedLine:
				if newLeft == 0 {
					return s.excess(e, hunk, line)
				}
				newLeft--
			default:
				return malformedf(s.source, line.number, e.Ordinal(),
					"hunk %q ends early at %q: %d old and %d new lines missing", hunk.Header, line.text, oldLeft, newLeft)
			}
			text := ""
			if line.text != "" {
				text = line.text[1:]
			}
			hunk.Lines = append(hunk.Lines, Line{Kind: kind, Text: text, Number: line.number})
			hunk.Raw = append(hunk.Raw, line.text)
			if oldLeft == 0 && newLeft == 0 {
				state = afterHunk
			}

		case afterHunk:
			if IsNoNewlineMarker(line.text) {
				if err := markNoNewline(line); err != nil {
					return err
				}
				continue
			}
			opening, ok, err := s.opening(line, true)
			if err != nil {
				return err
			}
			if ok {
				closeHunk()
				s.pending = opening
				return nil
			}
			switch {
			case strings.HasPrefix(line.text, "@@ "):
				if err := startHunk(line); err != nil {
					return err
				}
			case line.text == "-- ", line.text == "--":
				closeHunk()
				return nil
			case line.text != "" && strings.ContainsRune("+- ", rune(line.text[0])):
				return s.excess(e, hunk, line)
			default:
				closeHunk()
				return nil
			}
		}
	}
}

func (s *Scanner) excess(e *Entry, h *Hunk, line rawLine) error {
	return malformedf(s.source, line.number, e.Ordinal(),
		"hunk %q has more lines than its header declares (at %q)", h.Header, line.text)
}

func (s *Scanner) crlf(line rawLine) error {
	return malformedf(s.source, line.number, 0, "CRLF line endings are not supported")
}

func (s *Scanner) readErr(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return &Error{Code: CodeIO, Source: s.source, Line: s.lines.number, Message: "read failed", Err: err}
}
