package pipeline

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/ergrelet/cpplumber/internal/extract"
	"github.com/ergrelet/cpplumber/internal/leak"
	"github.com/ergrelet/cpplumber/internal/project"
	"github.com/ergrelet/cpplumber/internal/report"
	"github.com/ergrelet/cpplumber/internal/scan"
	"github.com/ergrelet/cpplumber/internal/suppressions"
)

// Run executes the leak-detection pipeline: resolve compile commands, apply
// suppressions, extract potential leaks, scan the binary, deduplicate, and
// write the report.
//
// source provides parsed translation units; pass nil to use the libclang
// front-end. The returned error is nil only for a clean run; confirmed leaks
// map to an Error with ExitLeaksFound.
func Run(ctx context.Context, opts Options, source extract.Source) error {
	logger := slog.Default().With("component", "pipeline")

	if opts.MinimumLeakSize <= 0 {
		opts.MinimumLeakSize = DefaultMinimumLeakSize
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	// Read the binary up front so an unreadable target fails before any
	// translation unit is parsed.
	binary, err := scan.Load(opts.BinaryPath)
	if err != nil {
		return NewInputError("loading target binary", err)
	}

	var db project.Database
	if opts.ProjectFile != "" {
		db, err = project.NewCompileCommandsDatabase(opts.ProjectFile)
		if err != nil {
			return NewInputError("loading compilation database", err)
		}
	} else {
		db = project.NewFileListDatabase(opts.SourceGlobs, opts.IncludeDirs, opts.Defines, opts.Jobs)
	}

	commands, err := db.Commands()
	if err != nil {
		return NewInputError("resolving compile commands", err)
	}

	var sup *suppressions.Suppressions
	if opts.SuppressionsPath != "" {
		sup, err = suppressions.Load(opts.SuppressionsPath)
		if err != nil {
			return NewInputError("loading suppressions", err)
		}
	}
	commands = sup.FilterCommands(commands)
	logger.Debug("compile commands resolved", "count", len(commands))

	if source == nil {
		clangSource := extract.NewClangSource()
		defer clangSource.Close()
		source = clangSource
	}

	extractor := extract.New(source, extract.Options{
		FilePathInArguments:  db.FilePathInArguments(),
		IgnoreSystemHeaders:  !opts.ReportSystemHeaders,
		IgnoreStringLiterals: opts.IgnoreStringLiterals,
		IgnoreStructNames:    opts.IgnoreStructNames,
		MinimumLeakSize:      opts.MinimumLeakSize,
		WideCharMode:         opts.WideCharMode,
	})

	potentials, err := extractor.ExtractAll(commands)
	if err != nil {
		return NewInputError("extracting artifacts", err)
	}
	potentials = sup.FilterLeaks(potentials)
	logger.Debug("potential leaks extracted", "count", len(potentials))

	candidates := make([]*leak.Potential, len(potentials))
	for i := range potentials {
		candidates[i] = &potentials[i]
	}
	index := scan.BuildIndex(candidates, opts.Jobs)

	confirmed, err := scan.NewScanner(opts.Jobs).Scan(ctx, binary, index)
	if err != nil {
		return NewInputError("scanning binary", err)
	}

	policy := report.UniqueByLocation
	if opts.IgnoreMultipleLocations {
		policy = report.UniqueByValue
	}
	deduplicated := report.Deduplicate(confirmed, policy)

	if err := report.Write(out, deduplicated, opts.JSONOutput); err != nil {
		return NewInputError("writing report", err)
	}

	if len(deduplicated) > 0 {
		return NewLeaksFoundError(len(deduplicated))
	}
	return nil
}
