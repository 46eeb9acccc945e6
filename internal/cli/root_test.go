package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ergrelet/cpplumber/internal/pipeline"
)

func TestExtractExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error is clean", err: nil, want: 0},
		{name: "leaks found", err: pipeline.NewLeaksFoundError(3), want: 1},
		{name: "input error", err: pipeline.NewInputError("bad input", nil), want: 2},
		{name: "wrapped pipeline error", err: fmt.Errorf("context: %w", pipeline.NewLeaksFoundError(1)), want: 1},
		{name: "generic error is invalid input", err: errors.New("flag parse failure"), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, extractExitCode(tt.err))
		})
	}
}

func TestRootCmd_FlagSurface(t *testing.T) {
	t.Parallel()

	flags := RootCmd().Flags()
	for _, name := range []string{
		"bin",
		"project",
		"include-directory",
		"compile-definition",
		"suppressions-list",
		"ignore-multiple-locations",
		"report-system-headers",
		"ignore-string-literals",
		"ignore-struct-names",
		"minimum-leak-size",
		"json",
		"jobs",
		"config",
		"verbose",
		"quiet",
	} {
		assert.NotNil(t, flags.Lookup(name), "flag %s should be registered", name)
	}

	// Short forms from the original CLI surface.
	assert.Equal(t, "bin", flags.ShorthandLookup("b").Name)
	assert.Equal(t, "project", flags.ShorthandLookup("p").Name)
	assert.Equal(t, "include-directory", flags.ShorthandLookup("I").Name)
	assert.Equal(t, "compile-definition", flags.ShorthandLookup("D").Name)
	assert.Equal(t, "suppressions-list", flags.ShorthandLookup("s").Name)
	assert.Equal(t, "minimum-leak-size", flags.ShorthandLookup("m").Name)
	assert.Equal(t, "json", flags.ShorthandLookup("j").Name)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := RootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "cpplumber version")
}

func TestVersionCommand_JSON(t *testing.T) {
	var out bytes.Buffer
	cmd := RootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--json"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"version"`)
	assert.Contains(t, out.String(), `"goVersion"`)
}
