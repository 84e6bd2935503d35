// Package split drives a patch source through segmentation, filtering and
// output.
package split

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/asynkron/spatch/internal/filter"
	"github.com/asynkron/spatch/internal/logging"
	"github.com/asynkron/spatch/pkg/patch"
)

// Options configures a Splitter.
type Options struct {
	// Filter selects entries. Nil keeps every classified entry.
	Filter filter.Predicate
	// Extract writes reconstructed file contents for added and deleted
	// entries instead of patches.
	Extract     bool
	OnCollision CollisionPolicy
	// Verify cross-checks every selected entry before it is written.
	Verify bool
	Logger logging.Logger
	// Observer, when set, is called after every successful write.
	Observer func(Result)
}

// Result describes one written output.
type Result struct {
	Source      string
	Entry       int // 1-based
	Meta        patch.Metadata
	Name        string // name handed to the sink
	Destination string // location reported by the sink
	Extracted   bool
}

// Summary reports what happened to one source.
type Summary struct {
	Source  string
	Entries int
	Written []Result
	Skipped int
	// Errors holds per-entry failures; the remaining entries were still
	// processed.
	Errors []error
	// Err is the failure that aborted the source, if any.
	Err error
}

// Failed reports whether the source was aborted or had entry failures.
func (s Summary) Failed() bool {
	return s.Err != nil || len(s.Errors) > 0
}

// Splitter writes the entries of one or more sources to a sink. Output
// names are tracked across sources so collisions are detected for the whole
// run. A Splitter is not safe for concurrent use.
type Splitter struct {
	sink  patch.Sink
	opts  Options
	names map[string]int
}

// New returns a Splitter writing to sink.
func New(sink patch.Sink, opts Options) *Splitter {
	if opts.Logger == nil {
		opts.Logger = &logging.NoOpLogger{}
	}
	if opts.OnCollision == "" {
		opts.OnCollision = CollisionOverwrite
	}
	return &Splitter{sink: sink, opts: opts, names: make(map[string]int)}
}

// SplitFile opens path and splits it. The input stem becomes part of every
// patch name.
func (s *Splitter) SplitFile(ctx context.Context, path string) (Summary, error) {
	info, err := os.Stat(path)
	if err == nil && !info.Mode().IsRegular() {
		err = errors.New("not a regular file")
	}
	if err != nil {
		perr := &patch.Error{Code: patch.CodeIO, Source: path, Message: "cannot open input", Err: err}
		return Summary{Source: path, Err: perr}, perr
	}
	f, err := os.Open(path)
	if err != nil {
		perr := &patch.Error{Code: patch.CodeIO, Source: path, Message: "cannot open input", Err: err}
		return Summary{Source: path, Err: perr}, perr
	}
	defer f.Close()
	return s.Split(ctx, f, path)
}

// Split segments r completely and then writes the selected entries in input
// order. A malformed source produces no output. source names the input and
// is empty for standard input.
func (s *Splitter) Split(ctx context.Context, r io.Reader, source string) (Summary, error) {
	ctx = logging.WithSource(ctx, source)
	summary := Summary{Source: source}
	fail := func(err error) (Summary, error) {
		summary.Err = err
		s.opts.Logger.Error(ctx, "aborting source", err)
		return summary, err
	}

	entries, err := patch.Segment(r, source)
	if err != nil {
		return fail(err)
	}
	summary.Entries = len(entries)
	s.opts.Logger.Debug(ctx, "segmented input", logging.Field("entries", len(entries)))

	stem := SourceStem(source)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		meta, err := e.Metadata()
		if err != nil {
			summary.Errors = append(summary.Errors, err)
			s.opts.Logger.Warn(ctx, "skipping entry without a usable path",
				logging.Field("entry", e.Ordinal()), logging.Field("line", e.StartLine))
			continue
		}
		if s.opts.Filter != nil && !s.opts.Filter.Match(meta) {
			summary.Skipped++
			continue
		}
		if s.opts.Verify {
			if err := patch.Verify(e); err != nil {
				summary.Errors = append(summary.Errors, err)
				s.opts.Logger.Warn(ctx, "entry failed verification",
					logging.Field("entry", e.Ordinal()), logging.Field("path", meta.Path()), logging.Field("error", err.Error()))
				continue
			}
		}

		var res Result
		if s.opts.Extract {
			res, err = s.extract(ctx, e, meta)
			var perr *patch.Error
			if errors.As(err, &perr) && perr.Code == patch.CodeUnsupported {
				summary.Errors = append(summary.Errors, err)
				s.opts.Logger.Warn(ctx, "cannot extract entry",
					logging.Field("entry", e.Ordinal()), logging.Field("path", meta.Path()))
				continue
			}
		} else {
			res, err = s.writePatch(ctx, e, meta, stem)
		}
		if err != nil {
			return fail(err)
		}
		summary.Written = append(summary.Written, res)
		s.opts.Logger.Info(ctx, "wrote entry",
			logging.Field("entry", res.Entry), logging.Field("status", meta.Status.String()), logging.Field("destination", res.Destination))
		if s.opts.Observer != nil {
			s.opts.Observer(res)
		}
	}
	return summary, nil
}

func (s *Splitter) writePatch(ctx context.Context, e *patch.Entry, meta patch.Metadata, stem string) (Result, error) {
	name, err := s.claim(ctx, e, PatchName(meta, stem))
	if err != nil {
		return Result{}, err
	}
	dest, err := s.sink.WritePatch(name, []byte(e.Text()))
	if err != nil {
		return Result{}, withEntry(err, e)
	}
	return Result{Source: e.Source, Entry: e.Ordinal(), Meta: meta, Name: name, Destination: dest}, nil
}

func (s *Splitter) extract(ctx context.Context, e *patch.Entry, meta patch.Metadata) (Result, error) {
	var (
		content []byte
		target  string
		err     error
	)
	switch meta.Change {
	case patch.StatusAdded:
		content, err = patch.ReconstructAdded(e)
		target = meta.NewPath
	case patch.StatusDeleted:
		content, err = patch.ReconstructRemoved(e)
		target = meta.OldPath
	default:
		err = &patch.Error{
			Code:    patch.CodeUnsupported,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Path:    meta.Path(),
			Message: fmt.Sprintf("cannot extract the contents of a %s file", meta.Change),
		}
	}
	if err != nil {
		return Result{}, err
	}
	name, err := s.claim(ctx, e, target)
	if err != nil {
		return Result{}, err
	}
	dest, err := s.sink.WriteFile(name, content)
	if err != nil {
		return Result{}, withEntry(err, e)
	}
	return Result{Source: e.Source, Entry: e.Ordinal(), Meta: meta, Name: name, Destination: dest, Extracted: true}, nil
}

// claim applies the collision policy to name and records the result.
func (s *Splitter) claim(ctx context.Context, e *patch.Entry, name string) (string, error) {
	n, taken := s.names[name]
	if !taken {
		s.names[name] = 0
		return name, nil
	}
	switch s.opts.OnCollision {
	case CollisionError:
		return "", &patch.Error{
			Code:    patch.CodeIO,
			Source:  e.Source,
			Line:    e.StartLine,
			Entry:   e.Ordinal(),
			Path:    name,
			Message: "output name already written in this run",
		}
	case CollisionSuffix:
		for {
			n++
			candidate := numbered(name, n)
			if _, used := s.names[candidate]; !used {
				s.names[name] = n
				s.names[candidate] = 0
				return candidate, nil
			}
		}
	default:
		s.opts.Logger.Warn(ctx, "overwriting output written earlier in this run",
			logging.Field("name", name), logging.Field("entry", e.Ordinal()))
		return name, nil
	}
}

// withEntry fills in the entry context of sink errors.
func withEntry(err error, e *patch.Entry) error {
	var perr *patch.Error
	if !errors.As(err, &perr) {
		return &patch.Error{Code: patch.CodeIO, Source: e.Source, Entry: e.Ordinal(), Message: "write failed", Err: err}
	}
	if perr.Source == "" {
		perr.Source = e.Source
	}
	if perr.Entry == 0 {
		perr.Entry = e.Ordinal()
		perr.Line = e.StartLine
	}
	return perr
}
