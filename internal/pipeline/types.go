package pipeline

import (
	"io"

	"github.com/ergrelet/cpplumber/internal/leak"
)

// ExitCode represents the process exit code returned by the cpplumber CLI.
type ExitCode int

const (
	// ExitClean indicates the run completed and no leak was confirmed.
	ExitClean ExitCode = 0

	// ExitLeaksFound indicates the run completed and at least one leak was
	// confirmed in the target binary.
	ExitLeaksFound ExitCode = 1

	// ExitFailure indicates invalid input or an internal error.
	ExitFailure ExitCode = 2
)

// DefaultMinimumLeakSize is the minimum byte-pattern length required for an
// artifact to become a scan candidate when --minimum-leak-size is not given.
const DefaultMinimumLeakSize = 4

// Options collects every knob of a single cpplumber run. It is populated by
// the CLI layer (flags merged over the optional TOML defaults file) and passed
// to Run.
type Options struct {
	// BinaryPath is the target binary to scan. Required.
	BinaryPath string

	// ProjectFile is the path to a JSON compilation database. Mutually
	// exclusive with SourceGlobs.
	ProjectFile string

	// SourceGlobs are manual-mode source path glob expressions.
	SourceGlobs []string

	// IncludeDirs are manual-mode include directories, emitted as -I<dir>.
	IncludeDirs []string

	// Defines are manual-mode preprocessor definitions, emitted as -D<def>.
	Defines []string

	// SuppressionsPath is the optional suppressions YAML file.
	SuppressionsPath string

	// IgnoreMultipleLocations switches deduplication to unique-by-value:
	// each leaked value is reported once, at the first location found.
	IgnoreMultipleLocations bool

	// ReportSystemHeaders includes artifacts declared in system headers.
	ReportSystemHeaders bool

	// IgnoreStringLiterals omits string literals from the candidate set.
	IgnoreStringLiterals bool

	// IgnoreStructNames omits struct and class names from the candidate set.
	IgnoreStructNames bool

	// MinimumLeakSize is the minimum pattern length in bytes.
	MinimumLeakSize int

	// JSONOutput emits the report as JSON instead of text.
	JSONOutput bool

	// Jobs bounds the parallel stages. Defaults to runtime.NumCPU() when <= 0.
	Jobs int

	// WideCharMode controls how L"..." literals are encoded. The zero value
	// selects the platform default (UTF-16LE on Windows, UTF-32LE elsewhere).
	WideCharMode leak.WideCharMode

	// Out receives the report. Defaults to os.Stdout when nil. Log output
	// always goes to stderr so a redirected report stays clean.
	Out io.Writer
}
