// Package sampler schedules frame sample timestamps for a video and drives
// bounded-parallel extraction through a FrameSource.
package sampler

import (
	"context"
	"image"
	"math"

	"github.com/framegrid/framegrid/internal/layout"
)

const (
	// edgeExclusion is the fraction of the video duration excluded at each
	// end, skipping intros, fades and credits.
	edgeExclusion = 0.05

	// outerShare is the fraction of samples assigned to each outer third
	// of the sampling window. The middle third gets the remainder, biasing
	// sampling toward mid-video content.
	outerShare = 0.2

	// FastSeekTolerance is the seek tolerance in seconds when accurate
	// timestamps are not requested.
	FastSeekTolerance = 0.5
)

// FrameSource decodes a single frame at a timestamp. A zero tolerance
// requests an exact seek; a positive tolerance allows the source to return
// a nearby frame for speed. Implementations must be safe for concurrent
// use.
type FrameSource interface {
	Extract(ctx context.Context, source string, timestampSecs, toleranceSecs float64) (image.Image, error)
}

// Sample is one scheduled extraction point.
type Sample struct {
	Ordinal       int
	TimestampSecs float64
}

// Frame is the outcome of one sample's extraction. Placeholder is set when
// the source failed twice and a blank image was substituted.
type Frame struct {
	Ordinal       int
	TimestampSecs float64
	Image         image.Image
	Placeholder   bool
}

// LabelFunc composites a visible timestamp label onto an extracted frame.
type LabelFunc func(img image.Image, timestampSecs float64) image.Image

// Options configures an extraction run.
type Options struct {
	// Concurrency bounds the extraction worker pool. Values below 1 run
	// a single worker.
	Concurrency int

	// Accurate requests exact seeks and timestamp labels on each frame.
	Accurate bool

	// Sizes supplies per-ordinal target sizes, used to shape blank
	// placeholders. Usually the layout's ThumbSizes.
	Sizes []layout.Size

	// Label, when set and Accurate is on, is applied to every
	// successfully extracted frame.
	Label LabelFunc

	// OnProgress is called serially after each sample resolves, with the
	// number of resolved samples so far and the total.
	OnProgress func(done, total int)
}

// Schedule computes sample timestamps for a video. The first and last 5%
// of the duration are excluded; of the remaining window, 20% of samples
// land in the first third, 60% in the middle third and 20% in the last
// third, evenly spaced within each sub-window. Samples are ordered by
// ordinal, which is temporal order.
func Schedule(durationSecs float64, count int) []Sample {
	if count < 1 || durationSecs <= 0 {
		return nil
	}

	start := durationSecs * edgeExclusion
	window := durationSecs * (1 - 2*edgeExclusion)
	third := window / 3

	n1 := int(math.Round(outerShare * float64(count)))
	n3 := n1
	n2 := count - n1 - n3

	samples := make([]Sample, 0, count)
	ordinal := 0
	appendWindow := func(a float64, k int) {
		for j := 0; j < k; j++ {
			samples = append(samples, Sample{
				Ordinal:       ordinal,
				TimestampSecs: a + (float64(j)+0.5)*third/float64(k),
			})
			ordinal++
		}
	}

	appendWindow(start, n1)
	appendWindow(start+third, n2)
	appendWindow(start+2*third, n3)
	return samples
}
