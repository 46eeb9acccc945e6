package project

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// FileListDatabase resolves compile commands from a set of source-path glob
// expressions. Every resolved file shares the same argument vector, built
// from the include directories and preprocessor definitions.
type FileListDatabase struct {
	globs     []string
	arguments []string
	jobs      int
	logger    *slog.Logger
}

// NewFileListDatabase creates a manual-mode database from source globs,
// include directories, and preprocessor definitions. jobs bounds glob
// expansion concurrency; <= 0 means runtime.NumCPU().
func NewFileListDatabase(globs, includeDirs, defines []string, jobs int) *FileListDatabase {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	arguments := make([]string, 0, len(includeDirs)+len(defines))
	for _, dir := range includeDirs {
		arguments = append(arguments, "-I"+dir)
	}
	for _, def := range defines {
		arguments = append(arguments, "-D"+def)
	}

	return &FileListDatabase{
		globs:     globs,
		arguments: arguments,
		jobs:      jobs,
		logger:    slog.Default().With("component", "file-list"),
	}
}

// FilePathInArguments is always false in manual mode: the shared argument
// vector carries only flags, and the filename is passed to the parser
// separately.
func (db *FileListDatabase) FilePathInArguments() bool {
	return false
}

// Commands expands every source glob and emits one CompileCommand per
// resolved file. Globs are expanded in parallel; an invalid glob pattern is
// logged at WARN and skipped. The result is sorted and deduplicated so runs
// are stable regardless of expansion order.
func (db *FileListDatabase) Commands() ([]CompileCommand, error) {
	var (
		mu    sync.Mutex
		paths []string
	)

	var g errgroup.Group
	g.SetLimit(db.jobs)
	for _, pattern := range db.globs {
		g.Go(func() error {
			matches, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				db.logger.Warn("invalid source glob, skipping", "pattern", pattern, "error", err)
				return nil
			}
			if len(matches) == 0 {
				db.logger.Warn("source glob matched no files", "pattern", pattern)
				return nil
			}
			mu.Lock()
			paths = append(paths, matches...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	canonical := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		resolved, err := canonicalizePath(path)
		if err != nil {
			return nil, fmt.Errorf("resolving source file %q: %w", path, err)
		}
		canonical[resolved] = struct{}{}
	}

	files := make([]string, 0, len(canonical))
	for path := range canonical {
		files = append(files, path)
	}
	sort.Strings(files)

	commands := make([]CompileCommand, 0, len(files))
	for _, file := range files {
		arguments := make([]string, len(db.arguments))
		copy(arguments, db.arguments)
		commands = append(commands, CompileCommand{
			Filename:  file,
			Arguments: arguments,
		})
	}

	db.logger.Debug("manual mode resolved", "globs", len(db.globs), "files", len(commands))
	return commands, nil
}
