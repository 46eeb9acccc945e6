package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/providers/confmap"
	koanf "github.com/knadh/koanf/v2"
)

// DefaultsFileName is the defaults file looked up in the working directory
// when --config is not given.
const DefaultsFileName = ".cpplumber.toml"

// Defaults mirrors the optional TOML defaults file. Every field corresponds
// to a flag; values act as defaults and are overridden by flags the user set
// explicitly.
type Defaults struct {
	SuppressionsList   string   `toml:"suppressions-list"`
	MinimumLeakSize    uint     `toml:"minimum-leak-size"`
	IncludeDirectories []string `toml:"include-directories"`
	CompileDefinitions []string `toml:"compile-definitions"`
	Jobs               int      `toml:"jobs"`
	JSONOutput         bool     `toml:"json"`
}

// LoadDefaults reads the TOML defaults file at path. Unknown keys produce
// slog warnings (not errors) so the file format can grow without breaking
// older binaries. A missing file is only an error when the path was given
// explicitly; pass explicit=false for the conventional lookup.
func LoadDefaults(path string, explicit bool) (*Defaults, error) {
	var d Defaults
	meta, err := toml.DecodeFile(path, &d)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &Defaults{}, nil
		}
		return nil, fmt.Errorf("parse defaults file %s: %w", path, err)
	}

	warnUndecodedKeys(meta, path)
	return &d, nil
}

// warnUndecodedKeys logs a warning for each key in the TOML document that did
// not map to any field of Defaults.
func warnUndecodedKeys(meta toml.MetaData, source string) {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return
	}

	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}

	slog.Warn("unknown defaults-file keys will be ignored",
		"source", source,
		"keys", strings.Join(keys, ", "),
	)
}

// ApplyDefaults layers built-in defaults, the defaults file, and explicitly
// set flags into fv, in that priority order. changed reports whether the
// user set the named flag on the command line.
func ApplyDefaults(fv *FlagValues, d *Defaults, changed func(name string) bool) error {
	k := koanf.New(".")

	builtin := map[string]any{
		"minimum-leak-size": uint(DefaultMinimumLeakSize),
		"suppressions-list": "",
		"jobs":              0,
		"json":              false,
	}
	if err := k.Load(confmap.Provider(builtin, "."), nil); err != nil {
		return fmt.Errorf("loading built-in defaults: %w", err)
	}

	if err := k.Load(confmap.Provider(defaultsToMap(d), "."), nil); err != nil {
		return fmt.Errorf("loading defaults file values: %w", err)
	}

	if err := k.Load(confmap.Provider(explicitFlagsToMap(fv, changed), "."), nil); err != nil {
		return fmt.Errorf("loading explicit flags: %w", err)
	}

	fv.SuppressionsList = k.String("suppressions-list")
	fv.MinimumLeakSize = uint(k.Int("minimum-leak-size"))
	fv.Jobs = k.Int("jobs")
	fv.JSONOutput = k.Bool("json")

	// Include directories and definitions accumulate instead of replacing:
	// the defaults file provides the project-wide set, flags add to it.
	if len(d.IncludeDirectories) > 0 {
		fv.IncludeDirs = append(append([]string{}, d.IncludeDirectories...), fv.IncludeDirs...)
	}
	if len(d.CompileDefinitions) > 0 {
		fv.Defines = append(append([]string{}, d.CompileDefinitions...), fv.Defines...)
	}

	return nil
}

// defaultsToMap flattens the non-zero scalar fields of a Defaults into a
// koanf-compatible map.
func defaultsToMap(d *Defaults) map[string]any {
	m := make(map[string]any)
	if d.SuppressionsList != "" {
		m["suppressions-list"] = d.SuppressionsList
	}
	if d.MinimumLeakSize != 0 {
		m["minimum-leak-size"] = d.MinimumLeakSize
	}
	if d.Jobs != 0 {
		m["jobs"] = d.Jobs
	}
	if d.JSONOutput {
		m["json"] = true
	}
	return m
}

// explicitFlagsToMap flattens the flags the user set on the command line.
func explicitFlagsToMap(fv *FlagValues, changed func(name string) bool) map[string]any {
	m := make(map[string]any)
	if changed("suppressions-list") {
		m["suppressions-list"] = fv.SuppressionsList
	}
	if changed("minimum-leak-size") {
		m["minimum-leak-size"] = fv.MinimumLeakSize
	}
	if changed("jobs") {
		m["jobs"] = fv.Jobs
	}
	if changed("json") {
		m["json"] = fv.JSONOutput
	}
	return m
}
