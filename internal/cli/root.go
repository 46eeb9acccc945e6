// Package cli implements the Cobra command surface of cpplumber. The root
// command runs the leak-detection pipeline; cross-cutting concerns like flag
// validation and logging initialization live in PersistentPreRunE.
package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ergrelet/cpplumber/internal/config"
	"github.com/ergrelet/cpplumber/internal/pipeline"
)

// flagValues holds the parsed flag values, populated by config.BindFlags
// during command initialization and validated in PersistentPreRunE.
var flagValues *config.FlagValues

var rootCmd = &cobra.Command{
	Use:   "cpplumber [flags] [source-globs...]",
	Short: "An information leak detector for C and C++ code bases.",
	Long: `Cpplumber detects information leakage from C/C++ source trees into
compiled binaries.

It parses the project's translation units, extracts string literals and
struct/class names, decodes each literal to the exact bytes the compiler
emits for it, and scans the target binary for those patterns. Sources come
either from a JSON compilation database (--project) or from source-path glob
expressions with -I and -D flags.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logging first so defaults-file warnings are visible.
		level := config.ResolveLogLevel(flagValues.Verbose, flagValues.Quiet)
		format := config.ResolveLogFormat()
		config.SetupLogging(level, format)

		// The version subcommand has no use for run flags.
		if cmd != cmd.Root() {
			return nil
		}

		if err := applyDefaultsFile(cmd); err != nil {
			return err
		}
		if err := config.ValidateFlags(flagValues, args); err != nil {
			return err
		}

		slog.Debug("flags validated", "bin", flagValues.BinaryPath, "project", flagValues.ProjectFile)
		return nil
	},
	RunE: runScan,
}

// applyDefaultsFile layers the TOML defaults file (explicit --config path or
// the conventional .cpplumber.toml) under the flags the user set.
func applyDefaultsFile(cmd *cobra.Command) error {
	path := flagValues.ConfigFile
	explicit := path != ""
	if !explicit {
		path = config.DefaultsFileName
	}

	defaults, err := config.LoadDefaults(path, explicit)
	if err != nil {
		return err
	}
	return config.ApplyDefaults(flagValues, defaults, cmd.Flags().Changed)
}

func init() {
	flagValues = config.BindFlags(rootCmd)
}

// runScan builds pipeline options from the validated flags and executes the
// run.
func runScan(cmd *cobra.Command, args []string) error {
	opts := pipeline.Options{
		BinaryPath:              flagValues.BinaryPath,
		ProjectFile:             flagValues.ProjectFile,
		SourceGlobs:             args,
		IncludeDirs:             flagValues.IncludeDirs,
		Defines:                 flagValues.Defines,
		SuppressionsPath:        flagValues.SuppressionsList,
		IgnoreMultipleLocations: flagValues.IgnoreMultipleLocations,
		ReportSystemHeaders:     flagValues.ReportSystemHeaders,
		IgnoreStringLiterals:    flagValues.IgnoreStringLiterals,
		IgnoreStructNames:       flagValues.IgnoreStructNames,
		MinimumLeakSize:         int(flagValues.MinimumLeakSize),
		JSONOutput:              flagValues.JSONOutput,
		Jobs:                    flagValues.Jobs,
		Out:                     cmd.OutOrStdout(),
	}

	return pipeline.Run(cmd.Context(), opts, nil)
}

// Execute runs the root command and returns the process exit code: 0 for a
// clean run, the embedded code of a *pipeline.Error (1 for confirmed leaks),
// and 2 for any other failure.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return int(pipeline.ExitClean)
	}

	code := extractExitCode(err)
	if code == int(pipeline.ExitLeaksFound) {
		// Confirmed leaks are the expected signal, not a failure.
		slog.Warn(err.Error())
	} else {
		slog.Error(err.Error())
	}
	return code
}

// extractExitCode determines the process exit code from an error.
func extractExitCode(err error) int {
	if err == nil {
		return int(pipeline.ExitClean)
	}
	var pipelineErr *pipeline.Error
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Code
	}
	// Flag and validation errors are invalid input.
	return int(pipeline.ExitFailure)
}

// RootCmd returns the root cobra.Command for use in testing.
func RootCmd() *cobra.Command {
	return rootCmd
}

// Main is the entry point used by cmd/cpplumber.
func Main() {
	os.Exit(Execute())
}
