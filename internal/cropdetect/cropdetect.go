// Package cropdetect finds letterbox and pillarbox bars by sampling
// ffmpeg's cropdetect filter across the video and voting on the results.
package cropdetect

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/framegrid/framegrid/internal/ffprobe"
	"github.com/framegrid/framegrid/internal/logging"
)

const (
	// sampleConcurrency bounds how many ffmpeg probes run at once.
	sampleConcurrency = 4

	// Samples span 15% to 85% of the runtime, every 5%. Intros and
	// credits sit outside that window and would skew the vote.
	sampleSpanStart = 15
	sampleSpanEnd   = 85
	sampleSpanStep  = 5

	// sampleFrames is how many frames each probe feeds the filter.
	sampleFrames = 10

	// Black bar luma thresholds. HDR blacks sit well above SDR blacks,
	// so the same limit would miss HDR bars entirely.
	thresholdSDR = 16
	thresholdHDR = 100

	// A crop seen in over 80% of samples wins outright. Above 60% it
	// still wins when the runner-up stays under 5%, which filters the
	// noise dark scenes produce.
	dominantRatio  = 0.8
	clearWinnerMin = 0.6
	noiseCeiling   = 0.05
)

// Result is the outcome of a detection pass.
type Result struct {
	// Filter is the ffmpeg crop filter to apply, "crop=w:h:x:y".
	// Empty when no crop is required.
	Filter string

	// Width and Height are the frame dimensions after cropping.
	Width  int
	Height int

	// Required reports whether bars were found and cropping helps.
	Required bool

	// MultipleRatios marks inputs that switch aspect ratio mid-stream,
	// where any single crop would cut real picture.
	MultipleRatios bool

	// Samples is how many probes produced a usable crop value.
	Samples int
}

var cropRe = regexp.MustCompile(`crop=(\d+:\d+:\d+:\d+)`)

// Detect samples the video at evenly spaced positions and returns the
// crop the samples agree on. Failed probes are skipped rather than
// failing the pass; an empty vote means no crop.
func Detect(ctx context.Context, inputPath string, info *ffprobe.VideoInfo) Result {
	threshold := thresholdSDR
	if info.IsHDR {
		threshold = thresholdHDR
	}

	var positions []float64
	for p := sampleSpanStart; p <= sampleSpanEnd; p += sampleSpanStep {
		positions = append(positions, info.DurationSecs*float64(p)/100)
	}

	counts := make(map[string]int)
	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan float64)

	workers := sampleConcurrency
	if len(positions) < workers {
		workers = len(positions)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range work {
				crop := sampleAt(ctx, inputPath, pos, threshold)
				if crop == "" {
					continue
				}
				mu.Lock()
				counts[crop]++
				mu.Unlock()
			}
		}()
	}
	for _, pos := range positions {
		work <- pos
	}
	close(work)
	wg.Wait()

	result := pick(counts, info.Width, info.Height)
	logging.Debug("crop detection finished",
		"input", inputPath, "samples", result.Samples,
		"crop", result.Filter, "required", result.Required)
	return result
}

// pick runs the vote over per-sample crop values. The source dimensions
// rule out crops that would not remove any pixels.
func pick(counts map[string]int, srcWidth, srcHeight int) Result {
	if len(counts) == 0 {
		return Result{Width: srcWidth, Height: srcHeight}
	}

	type vote struct {
		crop  string
		count int
	}
	var sorted []vote
	total := 0
	for crop, count := range counts {
		sorted = append(sorted, vote{crop, count})
		total += count
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].count > sorted[j].count })

	none := Result{Width: srcWidth, Height: srcHeight, Samples: total}

	winner := sorted[0]
	ratio := float64(winner.count) / float64(total)
	accepted := len(sorted) == 1 || ratio > dominantRatio
	if !accepted && ratio > clearWinnerMin {
		second := float64(sorted[1].count) / float64(total)
		accepted = second < noiseCeiling
	}
	if !accepted {
		none.MultipleRatios = len(sorted) > 1
		return none
	}

	w, h, ok := cropDims(winner.crop)
	if !ok || (w == srcWidth && h == srcHeight) {
		return none
	}
	return Result{
		Filter:   "crop=" + winner.crop,
		Width:    w,
		Height:   h,
		Required: true,
		Samples:  total,
	}
}

// sampleAt runs one cropdetect probe and returns the crop value the
// probe's frames agree on most, or "" when the probe fails.
func sampleAt(ctx context.Context, inputPath string, startSecs float64, threshold int) string {
	cmd := exec.CommandContext(ctx, "ffmpeg", sampleArgs(inputPath, startSecs, threshold)...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ""
	}
	if err := cmd.Start(); err != nil {
		return ""
	}
	crop := mostCommonCrop(stderr)
	_ = cmd.Wait()
	return crop
}

// sampleArgs builds the ffmpeg invocation for one probe. The decoded
// output is discarded; only the filter's stderr log matters.
func sampleArgs(inputPath string, startSecs float64, threshold int) []string {
	return []string{
		"-hide_banner",
		"-ss", fmt.Sprintf("%.2f", startSecs),
		"-i", inputPath,
		"-frames:v", strconv.Itoa(sampleFrames),
		"-vf", fmt.Sprintf("cropdetect=limit=%d:round=2:reset=1", threshold),
		"-f", "null",
		"-",
	}
}

// mostCommonCrop scans cropdetect log lines and returns the value most
// frames reported.
func mostCommonCrop(r io.Reader) string {
	counts := make(map[string]int)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := cropRe.FindStringSubmatch(scanner.Text())
		if len(m) < 2 {
			continue
		}
		if _, _, ok := cropDims(m[1]); ok {
			counts[m[1]]++
		}
	}

	best, bestCount := "", 0
	for crop, count := range counts {
		if count > bestCount {
			best, bestCount = crop, count
		}
	}
	return best
}

// cropDims parses the w:h:x:y crop notation and returns the cropped
// frame size. ok is false for malformed or degenerate values.
func cropDims(crop string) (width, height int, ok bool) {
	parts := strings.Split(crop, ":")
	if len(parts) != 4 {
		return 0, 0, false
	}
	nums := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		nums[i] = n
	}
	if nums[0] == 0 || nums[1] == 0 {
		return 0, 0, false
	}
	return nums[0], nums[1], true
}
