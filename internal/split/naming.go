package split

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/asynkron/spatch/pkg/patch"
)

// CollisionPolicy decides what happens when two entries of one run map to
// the same output name.
type CollisionPolicy string

const (
	// CollisionOverwrite lets the later entry replace the earlier one.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionError fails the source containing the later entry.
	CollisionError CollisionPolicy = "error"
	// CollisionSuffix numbers later entries: a.txt.1.patch, a.txt.2.patch.
	CollisionSuffix CollisionPolicy = "suffix"
)

// ParseCollisionPolicy validates a policy name. Empty selects overwrite.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CollisionOverwrite, nil
	case CollisionOverwrite, CollisionError, CollisionSuffix:
		return p, nil
	}
	return "", fmt.Errorf("unknown collision policy %q (want overwrite, error or suffix)", s)
}

// PatchName returns the output name for an entry's patch: the entry path with
// "/" replaced by "-", followed by "+<stem>" when the input came from a
// named file, and the ".patch" extension.
func PatchName(meta patch.Metadata, stem string) string {
	name := strings.ReplaceAll(meta.Path(), "/", "-")
	if stem != "" {
		name += "+" + stem
	}
	return name + ".patch"
}

// SourceStem returns the file name of source without its last extension.
// Standard input has no stem.
func SourceStem(source string) string {
	if source == "" || source == "-" {
		return ""
	}
	base := filepath.Base(source)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}

// numbered inserts ".n" before the extension of name.
func numbered(name string, n int) string {
	ext := path.Ext(name)
	return fmt.Sprintf("%s.%d%s", strings.TrimSuffix(name, ext), n, ext)
}
