// Package filter decides which patch entries are kept.
package filter

import (
	"errors"
	"fmt"
	"path"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/asynkron/spatch/pkg/patch"
)

// ErrCompile is matched by errors.Is for every *CompileError.
var ErrCompile = errors.New("filter compile error")

// CompileError reports a glob or regular expression that failed to compile.
type CompileError struct {
	Kind    string // "glob" or "regex"
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s pattern %q", e.Kind, e.Pattern)
	}
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Kind, e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCompile) succeed.
func (e *CompileError) Is(target error) bool { return target == ErrCompile }

// Predicate reports whether an entry with the given metadata is retained.
type Predicate interface {
	Match(meta patch.Metadata) bool
}

// Func adapts a plain function to Predicate.
type Func func(meta patch.Metadata) bool

// Match implements Predicate.
func (f Func) Match(meta patch.Metadata) bool { return f(meta) }

// Glob matches the entry's path against a doublestar pattern. The pattern is
// tried against the full path and the base name, so "*.go" selects Go files
// in any directory. Deleted entries are matched by their old path and
// renames match when either name does.
func Glob(pattern string) (Predicate, error) {
	if pattern == "" || !doublestar.ValidatePattern(pattern) {
		return nil, &CompileError{Kind: "glob", Pattern: pattern, Err: doublestar.ErrBadPattern}
	}
	return byName(func(name string) bool {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		ok, _ := doublestar.Match(pattern, path.Base(name))
		return ok
	}), nil
}

// Regex retains entries whose path contains a match for expr.
func Regex(expr string) (Predicate, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &CompileError{Kind: "regex", Pattern: expr, Err: err}
	}
	return byName(re.MatchString), nil
}

func byName(match func(name string) bool) Predicate {
	return Func(func(meta patch.Metadata) bool {
		for _, name := range meta.Names() {
			if match(name) {
				return true
			}
		}
		return false
	})
}

// Status retains entries whose structural change is s. Binary entries keep
// their structural kind, so a binary addition is still new.
func Status(s patch.Status) Predicate {
	return Func(func(meta patch.Metadata) bool { return meta.Change == s })
}

// OnlyNew retains newly added files.
func OnlyNew() Predicate { return Status(patch.StatusAdded) }

// OnlyRemoved retains deleted files.
func OnlyRemoved() Predicate { return Status(patch.StatusDeleted) }

// All retains entries matched by every predicate. Nil predicates are ignored
// and an empty list matches everything.
func All(preds ...Predicate) Predicate {
	preds = compact(preds)
	return Func(func(meta patch.Metadata) bool {
		for _, p := range preds {
			if !p.Match(meta) {
				return false
			}
		}
		return true
	})
}

// Any retains entries matched by at least one predicate. An empty list
// matches everything.
func Any(preds ...Predicate) Predicate {
	preds = compact(preds)
	return Func(func(meta patch.Metadata) bool {
		if len(preds) == 0 {
			return true
		}
		for _, p := range preds {
			if p.Match(meta) {
				return true
			}
		}
		return false
	})
}

func compact(preds []Predicate) []Predicate {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Select returns the classified entries that p retains, preserving order.
// Entries whose metadata could not be derived are dropped.
func Select(p Predicate, entries []*patch.Entry) []*patch.Entry {
	var out []*patch.Entry
	for _, e := range entries {
		meta, err := e.Metadata()
		if err != nil {
			continue
		}
		if p == nil || p.Match(meta) {
			out = append(out, e)
		}
	}
	return out
}
