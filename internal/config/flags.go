package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// DefaultMinimumLeakSize is the default --minimum-leak-size value.
const DefaultMinimumLeakSize = 4

// FlagValues collects all parsed flag values from the CLI. The struct is
// populated by BindFlags, layered over the optional defaults file by
// ApplyDefaults, and validated by ValidateFlags.
type FlagValues struct {
	BinaryPath              string
	ProjectFile             string
	IncludeDirs             []string
	Defines                 []string
	SuppressionsList        string
	IgnoreMultipleLocations bool
	ReportSystemHeaders     bool
	IgnoreStringLiterals    bool
	IgnoreStructNames       bool
	MinimumLeakSize         uint
	JSONOutput              bool
	Jobs                    int
	ConfigFile              string
	Verbose                 bool
	Quiet                   bool
}

// BindFlags registers all flags on the given Cobra command and returns a
// FlagValues pointer that is populated when the command is executed.
func BindFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}

	f := cmd.Flags()
	f.StringVarP(&fv.BinaryPath, "bin", "b", "", "target binary to scan for leaked information")
	f.StringVarP(&fv.ProjectFile, "project", "p", "", "JSON compilation database (mutually exclusive with source globs)")
	f.StringArrayVarP(&fv.IncludeDirs, "include-directory", "I", nil, "manual-mode include directory (repeatable)")
	f.StringArrayVarP(&fv.Defines, "compile-definition", "D", nil, "manual-mode preprocessor definition (repeatable)")
	f.StringVarP(&fv.SuppressionsList, "suppressions-list", "s", "", "YAML file with rules that prevent leaks from being reported")
	f.BoolVar(&fv.IgnoreMultipleLocations, "ignore-multiple-locations", false, "report leaked values only once, even when found in multiple locations")
	f.BoolVar(&fv.ReportSystemHeaders, "report-system-headers", false, "report leaks for data declared in system headers")
	f.BoolVar(&fv.IgnoreStringLiterals, "ignore-string-literals", false, "omit string literals from the candidate set")
	f.BoolVar(&fv.IgnoreStructNames, "ignore-struct-names", false, "omit struct and class names from the candidate set")
	f.UintVarP(&fv.MinimumLeakSize, "minimum-leak-size", "m", DefaultMinimumLeakSize, "minimum pattern size in bytes for a leak to be reported")
	f.BoolVarP(&fv.JSONOutput, "json", "j", false, "generate output as JSON")
	f.IntVar(&fv.Jobs, "jobs", 0, "number of parallel workers (0 = all CPUs)")
	f.StringVar(&fv.ConfigFile, "config", "", "TOML file providing flag defaults (default .cpplumber.toml if present)")
	f.BoolVarP(&fv.Verbose, "verbose", "v", false, "enable debug logging")
	f.BoolVarP(&fv.Quiet, "quiet", "q", false, "suppress all log output except errors")

	return fv
}

// ValidateFlags checks the parsed flag values for correctness and mutual
// exclusion. Call from PersistentPreRunE after Cobra has parsed the flags
// and defaults have been applied; args holds the positional source globs.
func ValidateFlags(fv *FlagValues, args []string) error {
	if fv.Verbose && fv.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	if fv.BinaryPath == "" {
		return fmt.Errorf("--bin is required")
	}
	info, err := os.Stat(fv.BinaryPath)
	if err != nil {
		return fmt.Errorf("--bin: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("--bin: %s is not a file", fv.BinaryPath)
	}

	if fv.ProjectFile != "" && len(args) > 0 {
		return fmt.Errorf("--project and source globs are mutually exclusive")
	}

	if fv.MinimumLeakSize < 1 {
		return fmt.Errorf("--minimum-leak-size: must be at least 1")
	}

	return nil
}
