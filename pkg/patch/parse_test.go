package patch

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func paths(t *testing.T, entries []*Entry) []string {
	t.Helper()
	var out []string
	for _, e := range entries {
		meta, err := e.Metadata()
		require.NoError(t, err)
		out = append(out, meta.Path())
	}
	return out
}

func TestSegmentTwoModifiedFiles(t *testing.T) {
	t.Parallel()

	entries, err := Segment(strings.NewReader(twoModified), "two.patch")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	if diff := cmp.Diff([]string{"a.txt", "b.txt"}, paths(t, entries)); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
	for i, e := range entries {
		meta, _ := e.Metadata()
		require.Equal(t, StatusModified, meta.Status)
		require.Equal(t, i, e.Index)
		require.Equal(t, "two.patch", e.Source)
	}
	require.Equal(t, 1, entries[0].StartLine)
	require.Equal(t, 9, entries[1].StartLine)
}

func TestSegmentRoundTripsEntryText(t *testing.T) {
	t.Parallel()

	for name, input := range map[string]string{
		"modified":   twoModified,
		"added":      newFile,
		"no-newline": newFileNoNewline,
		"deleted":    deletedFile,
		"plain":      plainDiff,
	} {
		entries, err := Segment(strings.NewReader(input), name)
		require.NoError(t, err, name)

		var b strings.Builder
		for _, e := range entries {
			b.WriteString(e.Text())
		}
		if diff := cmp.Diff(input, b.String()); diff != "" {
			t.Errorf("%s: concatenated entries differ from input (-want +got):\n%s", name, diff)
		}
	}
}

func TestSegmentHunkStructure(t *testing.T) {
	t.Parallel()

	entries, err := Segment(strings.NewReader(twoModified), "")
	require.NoError(t, err)

	h := entries[0].Hunks
	require.Len(t, h, 1)
	want := []Line{
		{Kind: ContextLine, Text: "keep", Number: 6},
		{Kind: RemovedLine, Text: "old", Number: 7},
		{Kind: AddedLine, Text: "new", Number: 8},
	}
	if diff := cmp.Diff(want, h[0].Lines); diff != "" {
		t.Fatalf("unexpected hunk lines (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{
		"diff --git a/a.txt b/a.txt",
		"index 1111111..2222222 100644",
		"--- a/a.txt",
		"+++ b/a.txt",
	}, entries[0].Header)
}

func TestSegmentMultipleHunks(t *testing.T) {
	t.Parallel()

	input := `diff --git a/m.txt b/m.txt
--- a/m.txt
+++ b/m.txt
@@ -1,2 +1,2 @@
-a
+A
 b
@@ -10 +10,2 @@
 j
+k
`
	entries, err := Segment(strings.NewReader(input), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Hunks, 2)
	require.Equal(t, 10, entries[0].Hunks[1].NewStart)
	require.Equal(t, 2, entries[0].Hunks[1].NewCount)
}

func TestSegmentRejectsContentBeforeFirstEntry(t *testing.T) {
	t.Parallel()

	input := "+oops\n" + twoModified
	entries, err := Segment(strings.NewReader(input), "bad.patch")
	require.Error(t, err)
	require.Empty(t, entries)
	require.ErrorIs(t, err, ErrMalformedPatch)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 1, perr.Line)
	require.Equal(t, "bad.patch", perr.Source)
}

func TestSegmentRejectsHunkHeaderBeforeFirstEntry(t *testing.T) {
	t.Parallel()

	_, err := Segment(strings.NewReader("@@ -1 +1 @@\n-a\n+b\n"), "")
	require.ErrorIs(t, err, ErrMalformedPatch)
}

func TestSegmentSkipsFormatPatchEnvelope(t *testing.T) {
	t.Parallel()

	entries, err := Segment(strings.NewReader(formatPatch+formatPatch), "series.mbox")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		meta, err := e.Metadata()
		require.NoError(t, err)
		require.Equal(t, "hello.txt", meta.NewPath)
		require.Equal(t, StatusAdded, meta.Status)
		require.NotContains(t, e.Text(), "2.43.0")
	}
	require.Equal(t, 1, entries[1].Index)
}

func TestSegmentPlainUnifiedDiff(t *testing.T) {
	t.Parallel()

	entries, err := Segment(strings.NewReader(plainDiff), "")
	require.NoError(t, err)
	require.Equal(t, []string{"x.txt", "y.txt"}, paths(t, entries))
	require.False(t, entries[0].isGit())
}

func TestSegmentHunkEndsEarly(t *testing.T) {
	t.Parallel()

	input := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,2 +1,2 @@
 keep
-old
diff --git a/b.txt b/b.txt
`
	_, err := Segment(strings.NewReader(input), "short.patch")
	require.ErrorIs(t, err, ErrMalformedPatch)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 7, perr.Line)
	require.Equal(t, 1, perr.Entry)
}

func TestSegmentHunkTruncatedAtEOF(t *testing.T) {
	t.Parallel()

	input := "diff --git a/a b/a\n--- a/a\n+++ b/a\n@@ -1,3 +1,3 @@\n x\n"
	_, err := Segment(strings.NewReader(input), "")
	require.ErrorIs(t, err, ErrMalformedPatch)
}

func TestSegmentRejectsExcessHunkLines(t *testing.T) {
	t.Parallel()

	input := "diff --git a/a b/a\n--- a/a\n+++ b/a\n@@ -1 +1 @@\n-a\n+b\n+c\n"
	_, err := Segment(strings.NewReader(input), "")
	require.ErrorIs(t, err, ErrMalformedPatch)
	require.Contains(t, err.Error(), "more lines than its header declares")
}

func TestSegmentRejectsUnparsableHunkHeader(t *testing.T) {
	t.Parallel()

	input := "diff --git a/a b/a\n--- a/a\n+++ b/a\n@@ -x +y @@\n"
	_, err := Segment(strings.NewReader(input), "")
	require.ErrorIs(t, err, ErrMalformedPatch)
}

func TestSegmentRejectsCRLFBoundaries(t *testing.T) {
	t.Parallel()

	input := strings.ReplaceAll(newFile, "\n", "\r\n")
	_, err := Segment(strings.NewReader(input), "crlf.patch")
	require.ErrorIs(t, err, ErrMalformedPatch)
	require.Contains(t, err.Error(), "CRLF")
}

func TestSegmentKeepsCarriageReturnInContent(t *testing.T) {
	t.Parallel()

	input := strings.Replace(newFile, "+line1\n", "+line1\r\n", 1)
	entries, err := Segment(strings.NewReader(input), "")
	require.NoError(t, err)
	content, err := ReconstructAdded(entries[0])
	require.NoError(t, err)
	require.Equal(t, "line1\r\nline2\n", string(content))
}

func TestSegmentReportsReadErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := Segment(iotest.ErrReader(boom), "broken")
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, boom)
}

func TestSegmentEmptyInput(t *testing.T) {
	t.Parallel()

	entries, err := Segment(strings.NewReader(""), "")
	require.NoError(t, err)
	require.Empty(t, entries)

	entries, err = Segment(strings.NewReader("just some prose\nwithout a diff\n"), "")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestScannerErrorsAreSticky(t *testing.T) {
	t.Parallel()

	truncated := "diff --git a/z b/z\n--- a/z\n+++ b/z\n@@ -1 +1 @@\n"
	sc := NewScanner(strings.NewReader(newFile+truncated), "")
	first, err := sc.Next()
	require.NoError(t, err)
	require.Equal(t, 0, first.Index)

	_, err = sc.Next()
	require.ErrorIs(t, err, ErrMalformedPatch)
	_, again := sc.Next()
	require.Same(t, err, again)
}

func TestScannerReturnsEOF(t *testing.T) {
	t.Parallel()

	sc := NewScanner(strings.NewReader(newFile), "")
	_, err := sc.Next()
	require.NoError(t, err)
	_, err = sc.Next()
	require.ErrorIs(t, err, io.EOF)
}
