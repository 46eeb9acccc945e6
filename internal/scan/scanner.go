// Package scan locates candidate byte patterns inside a binary image. The
// binary is read fully into memory, candidates are bucketed by their first
// byte, and the offset space is swept in parallel.
package scan

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/ergrelet/cpplumber/internal/leak"
)

// Binary is a target binary loaded into memory. Data is shared read-only
// across scan workers and Path is shared across every confirmed leak.
type Binary struct {
	// Path is the canonical path of the binary.
	Path string

	// Data is the full binary image.
	Data []byte

	// Hash is the XXH3 fingerprint of Data. Load logs it at debug level.
	Hash uint64
}

// Load reads the binary at path fully into memory. The path is canonicalized
// once so every confirmed leak reports the same spelling.
func Load(path string) (*Binary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving binary path %s: %w", path, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving binary path %s: %w", path, err)
	}

	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("reading binary %s: %w", canonical, err)
	}

	bin := &Binary{Path: canonical, Data: data, Hash: xxh3.Hash(data)}
	slog.Default().With("component", "scanner").Debug("binary loaded",
		"path", canonical,
		"size", len(data),
		"xxh3", fmt.Sprintf("%016x", bin.Hash),
	)
	return bin, nil
}

// Index buckets scan candidates under the first byte of their pattern. The
// bucket lookup keeps the inner comparison loop empty for most offsets.
type Index struct {
	buckets [256][]*leak.Potential

	// maxPatternLen is the length of the longest candidate pattern.
	maxPatternLen int
}

// BuildIndex builds the first-byte bucket index over the candidate set.
// Candidates are folded into per-worker indexes in parallel and merged;
// within a bucket, candidates keep the order of the input slice. Empty
// patterns are never indexed (the extractor's minimum-size filter removes
// them long before this point).
func BuildIndex(candidates []*leak.Potential, jobs int) *Index {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if len(candidates) < jobs*smallInputThreshold {
		// Fan-out costs more than it saves on small candidate sets.
		jobs = 1
	}

	partials := make([]*Index, jobs)
	chunk := (len(candidates) + jobs - 1) / jobs

	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		start := w * chunk
		if start >= len(candidates) {
			break
		}
		end := min(start+chunk, len(candidates))

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			partial := &Index{}
			for _, candidate := range candidates[start:end] {
				partial.add(candidate)
			}
			partials[w] = partial
		}(w, start, end)
	}
	wg.Wait()

	merged := &Index{}
	for _, partial := range partials {
		if partial == nil {
			continue
		}
		for b := range partial.buckets {
			merged.buckets[b] = append(merged.buckets[b], partial.buckets[b]...)
		}
		merged.maxPatternLen = max(merged.maxPatternLen, partial.maxPatternLen)
	}
	return merged
}

// smallInputThreshold is the per-worker candidate count below which the index
// build stays sequential.
const smallInputThreshold = 64

func (idx *Index) add(candidate *leak.Potential) {
	if len(candidate.Bytes) == 0 {
		return
	}
	first := candidate.Bytes[0]
	idx.buckets[first] = append(idx.buckets[first], candidate)
	idx.maxPatternLen = max(idx.maxPatternLen, len(candidate.Bytes))
}

// Candidates returns the bucket for the given first byte.
func (idx *Index) Candidates(first byte) []*leak.Potential {
	return idx.buckets[first]
}

// Scanner sweeps a binary image for indexed candidates.
type Scanner struct {
	jobs   int
	logger *slog.Logger
}

// NewScanner creates a Scanner running jobs parallel workers; <= 0 means
// runtime.NumCPU().
func NewScanner(jobs int) *Scanner {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &Scanner{
		jobs:   jobs,
		logger: slog.Default().With("component", "scanner"),
	}
}

// Scan finds every offset of bin at which an indexed candidate's bytes
// occur, and returns one confirmed leak per (candidate, offset) pair,
// ordered by offset. The offset space is split into one contiguous chunk per
// worker; a worker owns the matches that start inside its chunk, so no match
// is reported twice and none is missed at a chunk boundary.
func (s *Scanner) Scan(ctx context.Context, bin *Binary, idx *Index) ([]leak.Confirmed, error) {
	if len(bin.Data) == 0 {
		return nil, nil
	}

	jobs := s.jobs
	chunk := (len(bin.Data) + jobs - 1) / jobs
	results := make([][]leak.Confirmed, jobs)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < jobs; w++ {
		start := w * chunk
		if start >= len(bin.Data) {
			break
		}
		end := min(start+chunk, len(bin.Data))

		g.Go(func() error {
			local, err := scanRange(ctx, bin, idx, start, end)
			if err != nil {
				return err
			}
			results[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var confirmed []leak.Confirmed
	for _, local := range results {
		confirmed = append(confirmed, local...)
	}
	s.logger.Debug("scan finished", "offsets", len(bin.Data), "confirmed", len(confirmed))
	return confirmed, nil
}

// scanRange sweeps offsets in [start, end). Patterns may extend past end into
// the rest of the image; they only need to start inside the range.
func scanRange(ctx context.Context, bin *Binary, idx *Index, start, end int) ([]leak.Confirmed, error) {
	var confirmed []leak.Confirmed
	data := bin.Data

	for i := start; i < end; i++ {
		// Cancellation is checked once per stride to keep the hot loop
		// branch-light.
		if i%cancelCheckStride == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		for _, candidate := range idx.Candidates(data[i]) {
			patternLen := len(candidate.Bytes)
			if i+patternLen > len(data) {
				continue
			}
			if !bytes.Equal(data[i:i+patternLen], candidate.Bytes) {
				continue
			}
			confirmed = append(confirmed, leak.Confirmed{
				Type: candidate.Type,
				Data: candidate.Data,
				Location: leak.Location{
					Source: candidate.Origin,
					Binary: leak.BinaryLocation{File: bin.Path, Offset: uint64(i)},
				},
			})
		}
	}
	return confirmed, nil
}

// cancelCheckStride is how many offsets a scan worker advances between
// context cancellation checks.
const cancelCheckStride = 1 << 16
