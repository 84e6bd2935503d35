package patch

import (
	"strconv"
	"strings"
)

// Status is the kind of change an entry describes.
type Status int

const (
	StatusModified Status = iota
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusBinary
)

func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusBinary:
		return "binary"
	default:
		return "modified"
	}
}

// Letter returns the one-letter code used in summaries.
func (s Status) Letter() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusDeleted:
		return "D"
	case StatusRenamed:
		return "R"
	case StatusBinary:
		return "B"
	default:
		return "M"
	}
}

// Metadata describes the file an entry touches. An empty OldPath or NewPath
// means the file does not exist on that side of the change (/dev/null).
type Metadata struct {
	OldPath string
	NewPath string
	// Status is the final classification; StatusBinary overrides the others.
	Status Status
	// Change is the structural kind (added, deleted, renamed, modified) and is
	// never StatusBinary. Filters use it so a binary addition is still new.
	Change     Status
	OldMode    string
	NewMode    string
	Similarity int // percentage from "similarity index", -1 when absent
	IsCopy     bool
}

// Path returns the new path, or the old path for deletions.
func (m Metadata) Path() string {
	if m.NewPath != "" {
		return m.NewPath
	}
	return m.OldPath
}

// Names returns the distinct paths of the entry, new path first.
func (m Metadata) Names() []string {
	var names []string
	if m.NewPath != "" {
		names = append(names, m.NewPath)
	}
	if m.OldPath != "" && m.OldPath != m.NewPath {
		names = append(names, m.OldPath)
	}
	return names
}

// IsBinary reports whether the entry carries binary content.
func (m Metadata) IsBinary() bool {
	return m.Status == StatusBinary
}

// side tracks what is known about one side of the change.
type side struct {
	path  string
	known bool
}

func (s *side) set(path string, ok bool) {
	if ok && !s.known {
		s.path, s.known = path, true
	}
}

func classifyEntry(e *Entry) (Metadata, error) {
	meta := Metadata{Similarity: -1}
	var (
		marker, renamed, binary, git [2]side
		newFile, deletedFile, isBin  bool
	)

	for i, line := range e.Header {
		if i == 0 && strings.HasPrefix(line, gitDiffPrefix) {
			if a, b, ok := splitGitLine(strings.TrimPrefix(line, gitDiffPrefix)); ok {
				git[0].set(stripPrefix(a, "a/"), true)
				git[1].set(stripPrefix(b, "b/"), true)
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, oldMarkerPrefix):
			marker[0].set(markerPath(line[len(oldMarkerPrefix):], "a/"))
		case strings.HasPrefix(line, newMarkerPrefix):
			marker[1].set(markerPath(line[len(newMarkerPrefix):], "b/"))
		case strings.HasPrefix(line, "rename from "):
			renamed[0].set(headerPath(strings.TrimPrefix(line, "rename from ")))
		case strings.HasPrefix(line, "rename to "):
			renamed[1].set(headerPath(strings.TrimPrefix(line, "rename to ")))
		case strings.HasPrefix(line, "copy from "):
			meta.IsCopy = true
			renamed[0].set(headerPath(strings.TrimPrefix(line, "copy from ")))
		case strings.HasPrefix(line, "copy to "):
			meta.IsCopy = true
			renamed[1].set(headerPath(strings.TrimPrefix(line, "copy to ")))
		case strings.HasPrefix(line, "new file mode "):
			newFile = true
			meta.NewMode = strings.TrimPrefix(line, "new file mode ")
		case strings.HasPrefix(line, "deleted file mode "):
			deletedFile = true
			meta.OldMode = strings.TrimPrefix(line, "deleted file mode ")
		case strings.HasPrefix(line, "old mode "):
			meta.OldMode = strings.TrimPrefix(line, "old mode ")
		case strings.HasPrefix(line, "new mode "):
			meta.NewMode = strings.TrimPrefix(line, "new mode ")
		case strings.HasPrefix(line, "similarity index "):
			pct := strings.TrimSuffix(strings.TrimPrefix(line, "similarity index "), "%")
			if n, err := strconv.Atoi(pct); err == nil {
				meta.Similarity = n
			}
		case strings.HasPrefix(line, "Binary files "):
			isBin = true
			body := strings.TrimSuffix(strings.TrimPrefix(line, "Binary files "), " differ")
			if a, b, ok := strings.Cut(body, " and "); ok {
				binary[0].set(markerPath(a, "a/"))
				binary[1].set(markerPath(b, "b/"))
			}
		case line == "GIT binary patch":
			isBin = true
		}
	}

	resolve := func(i int) side {
		for _, s := range []side{marker[i], binary[i], renamed[i], git[i]} {
			if s.known {
				return s
			}
		}
		return side{}
	}
	oldSide, newSide := resolve(0), resolve(1)
	if !oldSide.known && !newSide.known {
		return meta, &Error{
			Code:    CodeUnparsablePath,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Message: "no file path in entry header",
		}
	}
	if !oldSide.known {
		oldSide = newSide
	}
	if !newSide.known {
		newSide = oldSide
	}
	if newFile {
		oldSide.path = ""
	}
	if deletedFile {
		newSide.path = ""
	}
	if oldSide.path == "" && newSide.path == "" {
		return meta, &Error{
			Code:    CodeUnparsablePath,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Message: "both sides of the entry are /dev/null",
		}
	}
	meta.OldPath, meta.NewPath = oldSide.path, newSide.path

	switch {
	case meta.OldPath == "":
		meta.Change = StatusAdded
	case meta.NewPath == "":
		meta.Change = StatusDeleted
	case !meta.IsCopy && renamed[0].known && renamed[1].known && renamed[0].path != renamed[1].path:
		meta.Change = StatusRenamed
	default:
		meta.Change = StatusModified
	}
	meta.Status = meta.Change
	if isBin {
		meta.Status = StatusBinary
	}
	return meta, nil
}

// markerPath parses the path of a "---"/"+++" line or one side of a
// "Binary files" line. /dev/null yields an empty path.
func markerPath(raw, prefix string) (string, bool) {
	var p string
	if strings.HasPrefix(raw, `"`) {
		unquoted, _, ok := cutQuoted(raw)
		if !ok {
			return "", false
		}
		p = unquoted
	} else {
		// Git appends a tab after names with spaces; plain diff appends a
		// timestamp.
		p, _, _ = strings.Cut(raw, "\t")
		p = strings.TrimSpace(p)
	}
	if p == "" {
		return "", false
	}
	if p == devNull {
		return "", true
	}
	return stripPrefix(p, prefix), true
}

// headerPath parses the path of a rename/copy line, which carries no a/ or
// b/ prefix.
func headerPath(raw string) (string, bool) {
	if strings.HasPrefix(raw, `"`) {
		unquoted, _, ok := cutQuoted(raw)
		return unquoted, ok && unquoted != ""
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func stripPrefix(p, prefix string) string {
	p = strings.TrimPrefix(p, prefix)
	p = strings.TrimPrefix(p, "../")
	return strings.TrimPrefix(p, "./")
}

// splitGitLine splits the "a/x b/y" operands of a "diff --git" line. Paths
// containing spaces are only recoverable when quoted or when both sides name
// the same file.
func splitGitLine(rest string) (string, string, bool) {
	if strings.HasPrefix(rest, `"`) {
		a, tail, ok := cutQuoted(rest)
		if !ok || !strings.HasPrefix(tail, " ") {
			return "", "", false
		}
		b, ok := gitOperand(tail[1:])
		return a, b, ok
	}
	if i := strings.Index(rest, ` "`); i >= 0 {
		b, ok := gitOperand(rest[i+1:])
		return rest[:i], b, ok
	}
	if n := len(rest); n%2 == 1 {
		mid := n / 2
		a, b := rest[:mid], rest[mid+1:]
		if rest[mid] == ' ' && strings.TrimPrefix(a, "a/") == strings.TrimPrefix(b, "b/") {
			return a, b, true
		}
	}
	if a, b, ok := strings.Cut(rest, " b/"); ok {
		return a, "b/" + b, true
	}
	a, b, ok := strings.Cut(rest, " ")
	return a, b, ok && a != "" && b != ""
}

func gitOperand(s string) (string, bool) {
	if strings.HasPrefix(s, `"`) {
		p, _, ok := cutQuoted(s)
		return p, ok
	}
	return s, s != ""
}

// cutQuoted unquotes a leading C-style quoted string as emitted by git for
// unusual file names and returns the remainder after the closing quote.
func cutQuoted(s string) (string, string, bool) {
	if !strings.HasPrefix(s, `"`) {
		return "", s, false
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			unquoted, err := strconv.Unquote(s[:i+1])
			if err != nil {
				return "", s, false
			}
			return unquoted, s[i+1:], true
		}
	}
	return "", s, false
}
