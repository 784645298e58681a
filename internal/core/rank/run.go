package rank

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options configures one ranking run.
type Options struct {
	// Context is the number of unchanged lines around each changed span that
	// also get attributed.
	Context int
	// MaxConcurrency caps the number of concurrent attribution tasks.
	// 0 lets the runtime pick based on available parallelism.
	MaxConcurrency int
	// MaxFileSize skips files whose larger blob exceeds this many bytes.
	// 0 means no ceiling.
	MaxFileSize int64
}

// Result is the outcome of a completed (non-cancelled) run.
type Result struct {
	Ranked   []AuthorLines
	Failures []FileFailure
	Skipped  []string
}

// Run executes the pipeline: fetch changes, expand spans with context, blame
// each file under a bounded worker pool, and return the ranked author table.
//
// Cancellation of ctx discards partial aggregation and returns the context
// error. Per-file failures do not abort the run unless every file fails.
func Run(ctx context.Context, src Source, opts Options, reporter Reporter, logger zerolog.Logger) (*Result, error) {
	changes, err := src.Changes(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute changes: %w", err)
	}

	work := make([]FileChange, 0, len(changes))
	for _, fc := range changes {
		spans := Expand(fc, opts.Context)
		if len(spans) == 0 {
			logger.Debug().Str("path", fc.Path).Msg("no attributable lines")
			continue
		}
		fc.Spans = spans
		work = append(work, fc)
	}

	reporter.Announce(len(work))
	if len(work) == 0 {
		return &Result{}, nil
	}

	workers := opts.MaxConcurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(work) {
		workers = len(work)
	}

	var (
		agg      = NewAggregator()
		mu       sync.Mutex
		failures []FileFailure
		skipped  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan FileChange)

	g.Go(func() error {
		defer close(tasks)
		for _, fc := range work {
			select {
			case tasks <- fc:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			blamer, err := src.NewBlamer(gctx)
			if err != nil {
				return fmt.Errorf("open blame handle: %w", err)
			}
			defer blamer.Close()

			for fc := range tasks {
				if err := gctx.Err(); err != nil {
					return err
				}

				if opts.MaxFileSize > 0 && fc.Size > opts.MaxFileSize {
					logger.Debug().Str("path", fc.Path).Int64("size", fc.Size).Msg("skipping file over size ceiling")
					mu.Lock()
					skipped = append(skipped, fc.Path)
					mu.Unlock()
					reporter.Completed()
					continue
				}

				logger.Info().Str("path", fc.Path).Msg("processing")
				counts, err := blamer.Blame(gctx, fc.Path, fc.Spans)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return err
					}
					logger.Debug().Err(err).Str("path", fc.Path).Msg("blame failed")
					mu.Lock()
					failures = append(failures, FileFailure{Path: fc.Path, Err: err})
					mu.Unlock()
					reporter.Completed()
					continue
				}

				agg.Merge(counts)
				reporter.Completed()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(failures) == len(work) {
		return nil, fmt.Errorf("attribution failed for all %d files: %w", len(work), failures[0].Err)
	}

	return &Result{
		Ranked:   agg.Finalize(),
		Failures: failures,
		Skipped:  skipped,
	}, nil
}
