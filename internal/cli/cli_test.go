package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const twoFiles = `diff --git a/src/a.txt b/src/a.txt
index 1111111..2222222 100644
--- a/src/a.txt
+++ b/src/a.txt
@@ -1 +1 @@
-old
+new
diff --git a/dir/new.txt b/dir/new.txt
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/dir/new.txt
@@ -0,0 +1,2 @@
+line1
+line2
`

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--color", "never"}, args...)
	code := RunWithInput(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestRunSplitsStdin(t *testing.T) {
	out := t.TempDir()
	code, stdout, stderr := run(t, twoFiles, "-o", out)
	require.Equal(t, 0, code, stderr)
	require.ElementsMatch(t, []string{"src-a.txt.patch", "dir-new.txt.patch"}, listDir(t, out))
	require.Contains(t, stdout, "[A] dir/new.txt")
}

func TestRunSplitsNamedFiles(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	first := filepath.Join(in, "one.patch")
	second := filepath.Join(in, "two.diff")
	require.NoError(t, os.WriteFile(first, []byte(twoFiles), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(twoFiles), 0o644))

	code, stdout, stderr := run(t, "", "-o", out, "--files", first+" "+second, "--summary")
	require.Equal(t, 0, code, stderr)
	require.ElementsMatch(t, []string{
		"src-a.txt+one.patch", "dir-new.txt+one.patch",
		"src-a.txt+two.patch", "dir-new.txt+two.patch",
	}, listDir(t, out))
	require.Contains(t, stdout, "Splitting "+first)
	require.Contains(t, stdout, "Splitting "+second)
	require.Contains(t, stdout, "| **total** | 4 | 4 | 0 | 0 | |")
}

func TestRunExtractsNewFiles(t *testing.T) {
	out := t.TempDir()
	code, _, stderr := run(t, twoFiles, "-o", out, "-n", "-x")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, []string{"dir/new.txt"}, listDir(t, out))
	content, err := os.ReadFile(filepath.Join(out, "dir", "new.txt"))
	require.NoError(t, err)
	require.Equal(t, "line1\nline2\n", string(content))
}

func TestRunGlobFilter(t *testing.T) {
	out := t.TempDir()
	code, _, stderr := run(t, twoFiles, "-o", out, "--glob", "src/*")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, []string{"src-a.txt.patch"}, listDir(t, out))
}

func TestRunUsageErrors(t *testing.T) {
	out := t.TempDir()
	tests := [][]string{
		{"-o", out, "-x"},
		{"-o", out, "--glob", "*.c", "--regex", "c$"},
		{"-o", out, "--regex", "(broken"},
		{"-o", out, "--on-collision", "rename"},
		{"--no-such-flag"},
	}
	for _, args := range tests {
		code, _, _ := run(t, twoFiles, args...)
		require.Equal(t, 2, code, "args %v", args)
	}
	require.Empty(t, listDir(t, out))
}

func TestRunReportsMalformedInput(t *testing.T) {
	out := t.TempDir()
	code, stdout, _ := run(t, "+stray\n"+twoFiles, "-o", out)
	require.Equal(t, 1, code)
	require.Contains(t, stdout, "[error]")
	require.Empty(t, listDir(t, out))
}

func TestRunRejectsMissingOutputDir(t *testing.T) {
	code, _, stderr := run(t, twoFiles, "-o", filepath.Join(t.TempDir(), "missing"))
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "output directory")
}

func TestRunContinuesAfterFailedSource(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	good := filepath.Join(in, "good.patch")
	require.NoError(t, os.WriteFile(good, []byte(twoFiles), 0o644))

	code, _, _ := run(t, "", "-o", out, filepath.Join(in, "missing.patch"), good)
	require.Equal(t, 1, code)
	require.Len(t, listDir(t, out), 2)
}

func TestRunHelp(t *testing.T) {
	var stderr bytes.Buffer
	code := RunWithInput(context.Background(), []string{"--help"}, strings.NewReader(""), nil, &stderr)
	require.Equal(t, 0, code)
	require.Contains(t, stderr.String(), "Usage: spatch")
	require.Contains(t, stderr.String(), "--only-new")
}
