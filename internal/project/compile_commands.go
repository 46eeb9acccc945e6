package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// commandObject mirrors one entry of the standard JSON compilation-database
// format. Exactly one of Arguments and Command is expected to be set.
type commandObject struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
	Command   string   `json:"command"`
	Output    string   `json:"output"`
}

// CompileCommandsDatabase resolves compile commands from a JSON compilation
// database (compile_commands.json).
type CompileCommandsDatabase struct {
	entries []commandObject
	logger  *slog.Logger
}

// NewCompileCommandsDatabase parses the compilation database at path. The
// file must contain a JSON array of {directory, file, arguments?, command?}
// objects; anything else is an error.
func NewCompileCommandsDatabase(path string) (*CompileCommandsDatabase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compilation database %s: %w", path, err)
	}

	var entries []commandObject
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing compilation database %s: %w", path, err)
	}

	return &CompileCommandsDatabase{
		entries: entries,
		logger:  slog.Default().With("component", "compilation-database"),
	}, nil
}

// FilePathInArguments is always true for compilation databases: each entry's
// argument vector names its own source file.
func (db *CompileCommandsDatabase) FilePathInArguments() bool {
	return true
}

// Commands converts every database entry into a CompileCommand. Relative file
// paths are resolved against the entry's directory and canonicalized; a file
// that does not exist is an error, since the parser would fail on it anyway
// with a far less helpful message.
func (db *CompileCommandsDatabase) Commands() ([]CompileCommand, error) {
	commands := make([]CompileCommand, 0, len(db.entries))
	for _, entry := range db.entries {
		filename := entry.File
		if !filepath.IsAbs(filename) {
			filename = filepath.Join(entry.Directory, filename)
		}
		canonical, err := canonicalizePath(filename)
		if err != nil {
			return nil, fmt.Errorf("resolving database entry %q: %w", entry.File, err)
		}

		arguments, err := entry.argumentVector()
		if err != nil {
			return nil, err
		}

		commands = append(commands, CompileCommand{
			Filename:  canonical,
			Arguments: arguments,
		})
	}

	db.logger.Debug("compilation database resolved", "commands", len(commands))
	return commands, nil
}

// argumentVector returns the entry's argument vector, splitting the shell
// command form when the array form is absent.
func (o *commandObject) argumentVector() ([]string, error) {
	if o.Arguments != nil {
		out := make([]string, len(o.Arguments))
		copy(out, o.Arguments)
		return out, nil
	}
	if o.Command != "" {
		return splitCommand(o.Command)
	}
	return nil, fmt.Errorf("database entry %q has neither arguments nor command", o.File)
}

// splitCommand splits a shell command string into an argument vector,
// honouring double quotes, single quotes, and backslash escapes the way a
// POSIX shell tokenizes them.
func splitCommand(command string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   rune
	)

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				current.WriteRune(c)
			}
		case quote == '"':
			switch c {
			case '"':
				quote = 0
			case '\\':
				if i+1 >= len(runes) {
					return nil, fmt.Errorf("trailing backslash in command %q", command)
				}
				// Inside double quotes a backslash only escapes the
				// characters that are special there; before any other
				// character it is kept literally.
				switch runes[i+1] {
				case '"', '\\', '$', '`':
					i++
					current.WriteRune(runes[i])
				default:
					current.WriteRune(c)
				}
			default:
				current.WriteRune(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inArg = true
		case c == '\\':
			if i+1 >= len(runes) {
				return nil, fmt.Errorf("trailing backslash in command %q", command)
			}
			i++
			current.WriteRune(runes[i])
			inArg = true
		case c == ' ' || c == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(c)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command %q", command)
	}
	if inArg {
		args = append(args, current.String())
	}

	return args, nil
}

// canonicalizePath returns the absolute, symlink-resolved form of path.
func canonicalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
