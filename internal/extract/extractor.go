package extract

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ergrelet/cpplumber/internal/leak"
	"github.com/ergrelet/cpplumber/internal/project"
)

// Options configures an extraction run.
type Options struct {
	// FilePathInArguments mirrors the project resolver's flag: when true the
	// parser is invoked with an empty explicit target.
	FilePathInArguments bool

	// IgnoreSystemHeaders prunes the walk at entities residing in system
	// headers. Artifacts reached through non-system headers still
	// contribute.
	IgnoreSystemHeaders bool

	// IgnoreStringLiterals omits string literals from the capture set.
	IgnoreStringLiterals bool

	// IgnoreStructNames omits struct and class declarations from the
	// capture set.
	IgnoreStructNames bool

	// MinimumLeakSize drops artifacts whose byte pattern is shorter than
	// this many bytes.
	MinimumLeakSize int

	// WideCharMode controls the encoding of L"..." literals.
	WideCharMode leak.WideCharMode
}

// Extractor walks translation units and converts captured entities into
// potential leaks. Translation units are parsed sequentially: the underlying
// front-end is not thread-safe on a shared index.
type Extractor struct {
	source Source
	opts   Options
	logger *slog.Logger

	// canonical caches file-path canonicalization, and origins interns
	// SourceLocation instances so leaks declared at the same spot share one
	// value.
	canonical map[string]string
	origins   map[leak.SourceLocation]*leak.SourceLocation
}

// New creates an Extractor reading translation units from source.
func New(source Source, opts Options) *Extractor {
	return &Extractor{
		source:    source,
		opts:      opts,
		logger:    slog.Default().With("component", "extractor"),
		canonical: make(map[string]string),
		origins:   make(map[leak.SourceLocation]*leak.SourceLocation),
	}
}

// ExtractAll parses every compile command and returns the potential leaks of
// all translation units. A translation unit that fails to parse aborts the
// run with an error naming the offending file.
func (e *Extractor) ExtractAll(commands []project.CompileCommand) ([]leak.Potential, error) {
	var leaks []leak.Potential
	for _, cmd := range commands {
		found, err := e.extractOne(cmd)
		if err != nil {
			e.logger.Error("failed to parse translation unit", "file", cmd.Filename, "error", err)
			return nil, fmt.Errorf("parsing translation unit %s: %w", cmd.Filename, err)
		}
		leaks = append(leaks, found...)
	}
	return leaks, nil
}

func (e *Extractor) extractOne(cmd project.CompileCommand) ([]leak.Potential, error) {
	target := cmd.Filename
	if e.opts.FilePathInArguments {
		// The argument vector already names the source file; passing it
		// again as the explicit target makes the parse fail.
		target = ""
	}

	tu, err := e.source.Parse(target, cmd.Arguments)
	if err != nil {
		return nil, err
	}
	defer tu.Dispose()

	entities := e.gather(tu.Root())
	e.logger.Debug("translation unit walked", "file", cmd.Filename, "captured", len(entities))

	leaks := make([]leak.Potential, 0, len(entities))
	for _, entity := range entities {
		potential, err := e.convert(entity)
		if err != nil {
			e.logger.Warn("skipping entity", "file", cmd.Filename, "error", err)
			continue
		}
		if len(potential.Bytes) < e.opts.MinimumLeakSize {
			continue
		}
		leaks = append(leaks, potential)
	}
	return leaks, nil
}

// gather walks the subtree rooted at entity depth-first and returns every
// entity whose kind is in the active capture set.
func (e *Extractor) gather(entity Entity) []Entity {
	var captured []Entity
	if e.captures(entity.Kind()) {
		captured = append(captured, entity)
	}
	for _, child := range entity.Children() {
		if e.opts.IgnoreSystemHeaders && child.InSystemHeader() {
			continue
		}
		captured = append(captured, e.gather(child)...)
	}
	return captured
}

// captures reports whether the extractor collects entities of the given kind
// under the active flags.
func (e *Extractor) captures(kind Kind) bool {
	switch kind {
	case KindStringLiteral:
		return !e.opts.IgnoreStringLiterals
	case KindStructDecl, KindClassDecl:
		return !e.opts.IgnoreStructNames
	default:
		return false
	}
}

// convert turns a captured entity into a potential leak.
func (e *Extractor) convert(entity Entity) (leak.Potential, error) {
	file, line, ok := entity.Location()
	if !ok {
		return leak.Potential{}, fmt.Errorf("entity %q has no source file location", entity.DisplayName())
	}
	origin := e.internOrigin(file, line)

	switch entity.Kind() {
	case KindStringLiteral:
		literal := entity.DisplayName()
		data, err := leak.LiteralPayload(literal)
		if err != nil {
			return leak.Potential{}, err
		}
		bytes, err := leak.LiteralBytes(literal, e.opts.WideCharMode)
		if err != nil {
			return leak.Potential{}, err
		}
		return leak.Potential{
			Type:   leak.StringLiteral,
			Data:   data,
			Bytes:  bytes,
			Origin: origin,
		}, nil

	case KindStructDecl, KindClassDecl:
		dataType := leak.StructName
		if entity.Kind() == KindClassDecl {
			dataType = leak.ClassName
		}
		name := entity.DisplayName()
		return leak.Potential{
			Type:   dataType,
			Data:   name,
			Bytes:  []byte(name),
			Origin: origin,
		}, nil

	default:
		return leak.Potential{}, fmt.Errorf("unsupported entity kind %d", entity.Kind())
	}
}

// internOrigin canonicalizes the file path and returns a shared
// SourceLocation so every leak declared at the same spot references one
// instance.
func (e *Extractor) internOrigin(file string, line uint32) *leak.SourceLocation {
	canonical, ok := e.canonical[file]
	if !ok {
		canonical = file
		if abs, err := filepath.Abs(file); err == nil {
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				canonical = resolved
			} else {
				canonical = abs
			}
		}
		e.canonical[file] = canonical
	}

	key := leak.SourceLocation{File: canonical, Line: line}
	origin, ok := e.origins[key]
	if !ok {
		origin = &key
		e.origins[key] = origin
	}
	return origin
}
