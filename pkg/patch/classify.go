package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind tags a single line of a unified diff.
type LineKind int

const (
	Other LineKind = iota
	EntryBoundary
	OldFileMarker
	NewFileMarker
	RenameFrom
	RenameTo
	IndexLine
	HunkHeader
	AddedLine
	RemovedLine
	ContextLine
	BinaryMarker
)

var lineKindNames = [...]string{
	Other:         "other",
	EntryBoundary: "entry-boundary",
	OldFileMarker: "old-file-marker",
	NewFileMarker: "new-file-marker",
	RenameFrom:    "rename-from",
	RenameTo:      "rename-to",
	IndexLine:     "index",
	HunkHeader:    "hunk-header",
	AddedLine:     "added",
	RemovedLine:   "removed",
	ContextLine:   "context",
	BinaryMarker:  "binary",
}

func (k LineKind) String() string {
	if k < 0 || int(k) >= len(lineKindNames) {
		return "LineKind(" + strconv.Itoa(int(k)) + ")"
	}
	return lineKindNames[k]
}

const (
	gitDiffPrefix   = "diff --git "
	oldMarkerPrefix = "--- "
	newMarkerPrefix = "+++ "
	devNull         = "/dev/null"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@ ?(.*)$`)

// Classify tags line. Content markers (+, -, space) are only recognised when
// inHunk is true, so "--- a/x" and "+++ b/x" outside a hunk body classify as
// file markers.
func Classify(line string, inHunk bool) LineKind {
	if strings.HasPrefix(line, gitDiffPrefix) {
		return EntryBoundary
	}
	if strings.HasPrefix(line, "@@ ") {
		if hunkHeaderRe.MatchString(line) {
			return HunkHeader
		}
		return Other
	}
	if inHunk {
		if line == "" {
			// Some mailers strip the single space of empty context lines.
			return ContextLine
		}
		switch line[0] {
		case '+':
			return AddedLine
		case '-':
			return RemovedLine
		case ' ':
			return ContextLine
		}
		return Other
	}
	switch {
	case strings.HasPrefix(line, oldMarkerPrefix):
		return OldFileMarker
	case strings.HasPrefix(line, newMarkerPrefix):
		return NewFileMarker
	case strings.HasPrefix(line, "rename from "), strings.HasPrefix(line, "copy from "):
		return RenameFrom
	case strings.HasPrefix(line, "rename to "), strings.HasPrefix(line, "copy to "):
		return RenameTo
	case strings.HasPrefix(line, "index "):
		return IndexLine
	case strings.HasPrefix(line, "Binary files "), line == "GIT binary patch":
		return BinaryMarker
	}
	return Other
}

// IsNoNewlineMarker reports whether line is the "\ No newline at end of file"
// annotation. Git localises the text, so only the leading backslash-space is
// checked.
func IsNoNewlineMarker(line string) bool {
	return strings.HasPrefix(line, `\ `)
}

// ParseHunkHeader extracts the ranges of an "@@ -a,b +c,d @@ section" line.
// Omitted counts default to 1. The returned hunk has no lines.
func ParseHunkHeader(line string) (Hunk, bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}
	nums := [4]int{}
	for i, raw := range m[1:5] {
		if raw == "" {
			nums[i] = 1
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Hunk{}, false
		}
		nums[i] = n
	}
	return Hunk{
		Header:   line,
		OldStart: nums[0],
		OldCount: nums[1],
		NewStart: nums[2],
		NewCount: nums[3],
		Section:  m[5],
	}, true
}
