// Package report deduplicates confirmed leaks and renders them as text or
// JSON. The deduplication policy doubles as the output ordering, so reports
// are stable across runs for a given input.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ergrelet/cpplumber/internal/buildinfo"
	"github.com/ergrelet/cpplumber/internal/leak"
)

// formatVersion is bumped when the JSON report layout changes.
const formatVersion = 1

// Policy selects which confirmed leaks are considered duplicates of each
// other.
type Policy int

const (
	// UniqueByLocation keeps one leak per distinct source x binary position.
	// This is the default.
	UniqueByLocation Policy = iota

	// UniqueByValue keeps one leak per distinct leaked value; the first
	// location found wins.
	UniqueByValue
)

// locationKey identifies a leak under UniqueByLocation.
type locationKey struct {
	sourceFile string
	sourceLine uint32
	binaryFile string
	offset     uint64
}

// Deduplicate collapses the confirmed-leak set under the given policy and
// returns it in the policy's canonical order: by source location then binary
// offset for UniqueByLocation, by leaked value for UniqueByValue. The input
// slice is not mutated.
func Deduplicate(leaks []leak.Confirmed, policy Policy) []leak.Confirmed {
	if policy == UniqueByValue {
		return deduplicateByValue(leaks)
	}
	return deduplicateByLocation(leaks)
}

func deduplicateByLocation(leaks []leak.Confirmed) []leak.Confirmed {
	seen := make(map[locationKey]leak.Confirmed, len(leaks))
	for _, l := range leaks {
		key := locationKey{
			binaryFile: l.Location.Binary.File,
			offset:     l.Location.Binary.Offset,
		}
		if l.Location.Source != nil {
			key.sourceFile = l.Location.Source.File
			key.sourceLine = l.Location.Source.Line
		}
		if _, dup := seen[key]; !dup {
			seen[key] = l
		}
	}

	out := make([]leak.Confirmed, 0, len(seen))
	for _, l := range seen {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Location.Source.File != b.Location.Source.File {
			return a.Location.Source.File < b.Location.Source.File
		}
		if a.Location.Source.Line != b.Location.Source.Line {
			return a.Location.Source.Line < b.Location.Source.Line
		}
		if a.Location.Binary.File != b.Location.Binary.File {
			return a.Location.Binary.File < b.Location.Binary.File
		}
		return a.Location.Binary.Offset < b.Location.Binary.Offset
	})
	return out
}

func deduplicateByValue(leaks []leak.Confirmed) []leak.Confirmed {
	seen := make(map[string]leak.Confirmed, len(leaks))
	for _, l := range leaks {
		if _, dup := seen[l.Data]; !dup {
			seen[l.Data] = l
		}
	}

	out := make([]leak.Confirmed, 0, len(seen))
	for _, l := range seen {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Data < out[j].Data
	})
	return out
}

// jsonReport is the envelope of the JSON output format.
type jsonReport struct {
	Version reportVersion    `json:"version"`
	Leaks   []leak.Confirmed `json:"leaks"`
}

type reportVersion struct {
	Executable string `json:"executable"`
	Format     int    `json:"format"`
}

// WriteJSON renders the deduplicated leaks as a single JSON document.
func WriteJSON(w io.Writer, leaks []leak.Confirmed) error {
	if leaks == nil {
		leaks = []leak.Confirmed{}
	}
	doc := jsonReport{
		Version: reportVersion{Executable: buildinfo.Version, Format: formatVersion},
		Leaks:   leaks,
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("writing JSON report: %w", err)
	}
	return nil
}

// WriteText renders one line per deduplicated leak.
func WriteText(w io.Writer, leaks []leak.Confirmed) error {
	for _, l := range leaks {
		_, err := fmt.Fprintf(w, "\"%s\" (%s) leaked at offset 0x%x in \"%s\" [declared at %s:%d]\n",
			l.Data,
			l.Type,
			l.Location.Binary.Offset,
			l.Location.Binary.File,
			l.Location.Source.File,
			l.Location.Source.Line,
		)
		if err != nil {
			return fmt.Errorf("writing text report: %w", err)
		}
	}
	return nil
}

// Write renders the leaks in the requested format.
func Write(w io.Writer, leaks []leak.Confirmed, asJSON bool) error {
	if asJSON {
		return WriteJSON(w, leaks)
	}
	return WriteText(w, leaks)
}
