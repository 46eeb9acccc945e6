package suppressions

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ergrelet/cpplumber/internal/leak"
	"github.com/ergrelet/cpplumber/internal/project"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "suppressions.yml")
	content := `
files:
  - "*/file2.cc"
  - "**/third_party/**"
artifacts:
  - "c_string"
  - "utf32_string"
unknown_key: ignored
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.files, 2)
	assert.Len(t, s.artifacts, 2)
}

func TestLoad_InvalidInputs(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yml")
		require.NoError(t, os.WriteFile(path, []byte("files: [unclosed"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestNew_DropsInvalidGlobs(t *testing.T) {
	t.Parallel()

	s := New([]string{"[invalid", "*.cc"}, nil)
	assert.Equal(t, []string{"*.cc"}, s.files)
}

func TestFilterCommands(t *testing.T) {
	t.Parallel()

	commands := []project.CompileCommand{
		{Filename: "/src/keep.cc"},
		{Filename: "/src/vendor/drop.cc"},
	}

	s := New([]string{"**/vendor/*"}, nil)
	kept := s.FilterCommands(commands)
	require.Len(t, kept, 1)
	assert.Equal(t, "/src/keep.cc", kept[0].Filename)
}

func TestFilterCommands_NoRules(t *testing.T) {
	t.Parallel()

	commands := []project.CompileCommand{{Filename: "/src/a.cc"}}
	assert.Equal(t, commands, New(nil, nil).FilterCommands(commands))

	var nilSuppressions *Suppressions
	assert.Equal(t, commands, nilSuppressions.FilterCommands(commands))
}

func TestFilterLeaks(t *testing.T) {
	t.Parallel()

	origin := &leak.SourceLocation{File: "/src/a.cc", Line: 3}
	suppressedOrigin := &leak.SourceLocation{File: "/src/generated/gen.h", Line: 1}

	leaks := []leak.Potential{
		{Type: leak.StringLiteral, Data: "c_string", Bytes: []byte("c_string"), Origin: origin},
		{Type: leak.StringLiteral, Data: "def_test", Bytes: []byte("def_test"), Origin: origin},
		{Type: leak.StructName, Data: "Hidden", Bytes: []byte("Hidden"), Origin: suppressedOrigin},
	}

	s := New([]string{"**/generated/*"}, []string{"c_string"})
	kept := s.FilterLeaks(leaks)

	require.Len(t, kept, 1)
	assert.Equal(t, "def_test", kept[0].Data)
}

func TestFilterLeaks_LargeInputKeepsOrder(t *testing.T) {
	t.Parallel()

	origin := &leak.SourceLocation{File: "/src/a.cc", Line: 1}
	var leaks []leak.Potential
	for i := 0; i < 10_000; i++ {
		data := "keep_" + strconv.Itoa(i)
		if i%3 == 0 {
			data = "drop_me"
		}
		leaks = append(leaks, leak.Potential{Type: leak.StringLiteral, Data: data, Origin: origin})
	}

	kept := New(nil, []string{"drop_me"}).FilterLeaks(leaks)
	require.Len(t, kept, 6666)

	// Chunked filtering must preserve input order.
	assert.Equal(t, "keep_1", kept[0].Data)
	assert.Equal(t, "keep_2", kept[1].Data)
	assert.Equal(t, "keep_4", kept[2].Data)
}

func TestFilterLeaks_ValueMatchIsExact(t *testing.T) {
	t.Parallel()

	leaks := []leak.Potential{
		{Type: leak.StringLiteral, Data: "c_string_suffix", Origin: &leak.SourceLocation{File: "/a.cc", Line: 1}},
	}

	kept := New(nil, []string{"c_string"}).FilterLeaks(leaks)
	assert.Len(t, kept, 1)
}
