// Package suppressions loads the suppressions YAML file and prunes compile
// commands and extracted leaks that match it.
package suppressions

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/ergrelet/cpplumber/internal/leak"
	"github.com/ergrelet/cpplumber/internal/project"
)

// Suppressions holds the compiled suppression rules. The zero value
// suppresses nothing, so callers can use it when no file was given.
type Suppressions struct {
	// files holds validated file glob patterns (shell wildcard semantics).
	files []string

	// artifacts is the set of suppressed artifact values.
	artifacts map[string]struct{}

	logger *slog.Logger
}

// suppressionsFile mirrors the YAML document. Both sections are optional and
// unknown keys are ignored.
type suppressionsFile struct {
	Files     []string `yaml:"files"`
	Artifacts []string `yaml:"artifacts"`
}

// Load reads and compiles the suppressions file at path. Malformed glob
// patterns are dropped with a warning; a malformed document is an error.
func Load(path string) (*Suppressions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suppressions file %s: %w", path, err)
	}
	return parse(data, path)
}

// New builds Suppressions from in-memory pattern and artifact lists. Used by
// tests and by callers that assemble rules programmatically.
func New(files, artifacts []string) *Suppressions {
	s := &Suppressions{
		artifacts: make(map[string]struct{}, len(artifacts)),
		logger:    slog.Default().With("component", "suppressions"),
	}
	for _, pattern := range files {
		if !doublestar.ValidatePattern(pattern) {
			s.logger.Warn("invalid suppression glob, ignoring", "pattern", pattern)
			continue
		}
		s.files = append(s.files, pattern)
	}
	for _, artifact := range artifacts {
		s.artifacts[artifact] = struct{}{}
	}
	return s
}

func parse(data []byte, source string) (*Suppressions, error) {
	var doc suppressionsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing suppressions file %s: %w", source, err)
	}
	return New(doc.Files, doc.Artifacts), nil
}

// matchesFile reports whether path matches any suppressed file glob. Paths
// are normalised to forward slashes so patterns behave the same on every
// platform.
func (s *Suppressions) matchesFile(path string) bool {
	if s == nil {
		return false
	}
	normalized := filepath.ToSlash(path)
	for _, pattern := range s.files {
		if ok, _ := doublestar.Match(pattern, normalized); ok {
			return true
		}
	}
	return false
}

// FilterCommands drops compile commands whose source path matches a
// suppressed file glob. The predicate is pure per item, so the pass runs
// chunked across CPUs; relative order of the kept commands is preserved.
func (s *Suppressions) FilterCommands(commands []project.CompileCommand) []project.CompileCommand {
	if s == nil || len(s.files) == 0 {
		return commands
	}

	kept := filterParallel(commands, func(cmd project.CompileCommand) bool {
		if s.matchesFile(cmd.Filename) {
			s.logger.Debug("suppressed compile command", "file", cmd.Filename)
			return false
		}
		return true
	})
	return kept
}

// FilterLeaks drops potential leaks whose origin file matches a suppressed
// glob or whose value is in the suppressed-artifact set. This pass is needed
// on top of FilterCommands because artifacts from suppressed headers enter
// the stream through #include in non-suppressed files.
func (s *Suppressions) FilterLeaks(leaks []leak.Potential) []leak.Potential {
	if s == nil || (len(s.files) == 0 && len(s.artifacts) == 0) {
		return leaks
	}

	return filterParallel(leaks, func(l leak.Potential) bool {
		if l.Origin != nil && s.matchesFile(l.Origin.File) {
			s.logger.Debug("suppressed leak by origin", "file", l.Origin.File, "data", l.Data)
			return false
		}
		if _, suppressed := s.artifacts[l.Data]; suppressed {
			s.logger.Debug("suppressed leak by value", "data", l.Data)
			return false
		}
		return true
	})
}

// filterParallel keeps the items for which keep returns true, evaluating the
// predicate in parallel over contiguous chunks and concatenating the
// per-chunk results so input order is preserved.
func filterParallel[T any](items []T, keep func(T) bool) []T {
	workers := runtime.NumCPU()
	if len(items) < workers*minChunkSize {
		workers = 1
	}

	chunk := (len(items) + workers - 1) / workers
	results := make([][]T, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(items) {
			break
		}
		end := min(start+chunk, len(items))

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			local := make([]T, 0, end-start)
			for _, item := range items[start:end] {
				if keep(item) {
					local = append(local, item)
				}
			}
			results[w] = local
		}(w, start, end)
	}
	wg.Wait()

	kept := make([]T, 0, len(items))
	for _, local := range results {
		kept = append(kept, local...)
	}
	return kept
}

// minChunkSize is the per-worker item count below which filtering stays
// sequential.
const minChunkSize = 256
