package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/asynkron/spatch/internal/config"
	"github.com/asynkron/spatch/internal/filter"
	"github.com/asynkron/spatch/internal/logging"
	"github.com/asynkron/spatch/internal/report"
	"github.com/asynkron/spatch/internal/split"
	"github.com/asynkron/spatch/pkg/patch"
)

const usageHeader = `Usage: spatch [flags] [file ...]

Split a unified diff into one patch per file. Input is read from the named
files, or from standard input when none are given.

Flags:
`

type flags struct {
	outputDir   string
	onlyNew     bool
	onlyRemoved bool
	extract     bool
	regex       string
	glob        string
	files       []string
	onCollision string
	verify      bool
	configPath  string
	logLevel    string
	color       string
	summary     bool
}

// Run executes spatch with the provided CLI arguments, reading standard
// input when no files are named. It returns a POSIX-style exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return RunWithInput(ctx, args, os.Stdin, stdout, stderr)
}

// RunWithInput is Run with an explicit standard input.
func RunWithInput(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	var f flags
	flagSet := pflag.NewFlagSet("spatch", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		flagSet.PrintDefaults()
	}
	flagSet.StringVarP(&f.outputDir, "output-dir", "o", "", "directory to write patches to (default: working directory)")
	flagSet.BoolVarP(&f.onlyNew, "only-new", "n", false, "only extract patches for newly added files")
	flagSet.BoolVarP(&f.onlyRemoved, "only-removed", "r", false, "only extract patches for removed files")
	flagSet.BoolVarP(&f.extract, "extract-file", "x", false, "write file contents instead of patches (requires -n or -r)")
	flagSet.StringVar(&f.regex, "regex", "", "only keep files whose path matches this regular expression")
	flagSet.StringVar(&f.glob, "glob", "", "only keep files whose path or base name matches this glob")
	flagSet.StringArrayVar(&f.files, "files", nil, "space separated list of patch files to split")
	flagSet.StringVar(&f.onCollision, "on-collision", "", "what to do when two entries map to one name: overwrite, error or suffix")
	flagSet.BoolVar(&f.verify, "verify", false, "cross-check every entry with an independent diff parser before writing")
	flagSet.StringVar(&f.configPath, "config", "", "TOML settings file (default: "+config.DefaultFile+" when present)")
	flagSet.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.StringVar(&f.color, "color", "", "colour output: auto, always or never")
	flagSet.BoolVar(&f.summary, "summary", false, "print a summary table when done")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	pred, err := buildFilter(f)
	if err != nil {
		fmt.Fprintf(stderr, "spatch: %v\n", err)
		return 2
	}

	cfg, err := config.Load(config.Options{Path: f.configPath, Overrides: overrides(flagSet, f)})
	if err != nil {
		fmt.Fprintf(stderr, "spatch: %v\n", err)
		return 2
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "spatch: %v\n", err)
		return 2
	}
	policy, err := split.ParseCollisionPolicy(cfg.OnCollision)
	if err != nil {
		fmt.Fprintf(stderr, "spatch: %v\n", err)
		return 2
	}

	logger := logging.New(stderr, logging.Options{Level: level, Console: true, NoColor: cfg.Color == "never"})
	sink, err := patch.NewFilesystemSink(patch.FilesystemOptions{Dir: cfg.OutputDir})
	if err != nil {
		fmt.Fprintf(stderr, "spatch: %v\n", err)
		return 1
	}

	reporter := report.New(stdout, cfg.Color)
	splitter := split.New(sink, split.Options{
		Filter:      pred,
		Extract:     f.extract,
		OnCollision: policy,
		Verify:      cfg.Verify,
		Logger:      logger,
		Observer:    reporter.Entry,
	})

	inputs := inputFiles(f.files, flagSet.Args())
	var summaries []split.Summary
	if len(inputs) == 0 {
		summary, _ := splitter.Split(ctx, stdin, "")
		summaries = append(summaries, summary)
	}
	for _, path := range inputs {
		if ctx.Err() != nil {
			break
		}
		reporter.Splitting(path)
		summary, _ := splitter.SplitFile(ctx, path)
		summaries = append(summaries, summary)
	}

	failed := false
	for _, s := range summaries {
		for _, err := range s.Errors {
			reporter.Error(err)
		}
		if s.Err != nil {
			reporter.Error(s.Err)
		}
		failed = failed || s.Failed()
	}
	if f.summary {
		if err := reporter.Summary(summaries); err != nil {
			logger.Error(ctx, "failed to print summary", err)
		}
	}
	if failed || ctx.Err() != nil {
		return 1
	}
	return 0
}

func buildFilter(f flags) (filter.Predicate, error) {
	if f.extract && !f.onlyNew && !f.onlyRemoved {
		return nil, errors.New("--extract-file requires --only-new or --only-removed")
	}
	if f.regex != "" && f.glob != "" {
		return nil, errors.New("--regex and --glob are mutually exclusive")
	}

	var preds []filter.Predicate
	switch {
	case f.onlyNew && f.onlyRemoved:
		preds = append(preds, filter.Any(filter.OnlyNew(), filter.OnlyRemoved()))
	case f.onlyNew:
		preds = append(preds, filter.OnlyNew())
	case f.onlyRemoved:
		preds = append(preds, filter.OnlyRemoved())
	}
	switch {
	case f.glob != "":
		p, err := filter.Glob(f.glob)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	case f.regex != "":
		p, err := filter.Regex(f.regex)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return filter.All(preds...), nil
}

// overrides returns the config keys set explicitly on the command line.
func overrides(flagSet *pflag.FlagSet, f flags) map[string]any {
	out := map[string]any{}
	if flagSet.Changed("output-dir") {
		out["output_dir"] = f.outputDir
	}
	if flagSet.Changed("on-collision") {
		out["on_collision"] = strings.ToLower(f.onCollision)
	}
	if flagSet.Changed("log-level") {
		out["log_level"] = f.logLevel
	}
	if flagSet.Changed("verify") {
		out["verify"] = f.verify
	}
	if flagSet.Changed("color") {
		out["color"] = strings.ToLower(f.color)
	}
	return out
}

// inputFiles merges --files values, which may hold several space separated
// names, with positional arguments.
func inputFiles(files, args []string) []string {
	var out []string
	for _, v := range files {
		out = append(out, strings.Fields(v)...)
	}
	return append(out, args...)
}
