package sampler

import (
	"context"
	"image/color"
	"sort"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/logging"
)

// placeholderFill is the color of blank frames substituted for failed
// extractions.
var placeholderFill = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}

// ExtractAll resolves every sample against the source through a bounded
// worker pool. Samples whose extraction fails are retried once in a second
// pass; anything still failing becomes a blank placeholder, so the returned
// slice always has one frame per sample, ordered by ordinal. The
// placeholder count is returned alongside.
//
// The only error ExtractAll returns is cancellation: the dispatch loop
// checks ctx before handing out each sample, and in-flight extractions are
// allowed to finish.
func ExtractAll(ctx context.Context, src FrameSource, source string, samples []Sample, opts Options) ([]Frame, int, error) {
	if len(samples) == 0 {
		return nil, 0, nil
	}

	tolerance := FastSeekTolerance
	if opts.Accurate {
		tolerance = 0
	}

	results := make([]Frame, len(samples))
	total := len(samples)

	var progressMu sync.Mutex
	resolved := 0
	progress := func() {
		progressMu.Lock()
		defer progressMu.Unlock()
		resolved++
		if opts.OnProgress != nil {
			opts.OnProgress(resolved, total)
		}
	}

	failed := runPass(ctx, src, source, samples, tolerance, opts, results, progress)
	if ctx.Err() != nil {
		return nil, 0, errors.NewCancelledError()
	}

	if len(failed) > 0 {
		logging.Debug("retrying failed extractions", "count", len(failed), "source", source)
		failed = runPass(ctx, src, source, failed, tolerance, opts, results, progress)
		if ctx.Err() != nil {
			return nil, 0, errors.NewCancelledError()
		}
	}

	for _, s := range failed {
		w, h := placeholderSize(opts, s.Ordinal)
		results[s.Ordinal] = Frame{
			Ordinal:       s.Ordinal,
			TimestampSecs: s.TimestampSecs,
			Image:         imaging.New(w, h, placeholderFill),
			Placeholder:   true,
		}
		progress()
	}

	return results, len(failed), nil
}

// runPass extracts the given samples in parallel, writing successes into
// results by ordinal and returning the samples that failed, ordered by
// ordinal. Each result slot is written by exactly one worker, so no lock
// guards the slice.
func runPass(ctx context.Context, src FrameSource, source string, work []Sample, tolerance float64, opts Options, results []Frame, progress func()) []Sample {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(work) {
		concurrency = len(work)
	}

	workChan := make(chan Sample)

	var failedMu sync.Mutex
	var failed []Sample

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range workChan {
				img, err := src.Extract(ctx, source, s.TimestampSecs, tolerance)
				if err != nil {
					failedMu.Lock()
					failed = append(failed, s)
					failedMu.Unlock()
					continue
				}
				if opts.Accurate && opts.Label != nil {
					img = opts.Label(img, s.TimestampSecs)
				}
				results[s.Ordinal] = Frame{
					Ordinal:       s.Ordinal,
					TimestampSecs: s.TimestampSecs,
					Image:         img,
				}
				progress()
			}
		}()
	}

dispatch:
	for _, s := range work {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case workChan <- s:
		}
	}
	close(workChan)
	wg.Wait()

	sort.Slice(failed, func(i, j int) bool { return failed[i].Ordinal < failed[j].Ordinal })
	return failed
}

func placeholderSize(opts Options, ordinal int) (int, int) {
	if ordinal < len(opts.Sizes) {
		sz := opts.Sizes[ordinal]
		if sz.Width > 0 && sz.Height > 0 {
			return sz.Width, sz.Height
		}
	}
	// No layout size available; a small dark tile scales fine.
	return 160, 90
}
