// Package ffmpeg extracts single frames from video files through the
// ffmpeg tool.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"

	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/sampler"
)

// stderrTailLen bounds how much captured stderr travels inside errors.
const stderrTailLen = 400

// Source extracts frames by spawning one ffmpeg process per frame.
// Frames are decoded from a PNG pipe, never touching the filesystem.
// Safe for concurrent use; each call owns its own process.
type Source struct {
	scaleWidth int
	tonemap    bool
	crop       string
}

var _ sampler.FrameSource = (*Source)(nil)

// NewSource returns a frame source. scaleWidth > 0 makes ffmpeg scale
// extracted frames down to that width, which keeps large extractions
// from holding full-resolution frames in memory. tonemap converts HDR
// frames to BT.709 so they do not come out washed out on an SDR canvas.
// crop trims detected bars ahead of scaling, "" leaves frames whole.
func NewSource(scaleWidth int, tonemap bool, crop string) *Source {
	return &Source{scaleWidth: scaleWidth, tonemap: tonemap, crop: crop}
}

// Available reports whether ffmpeg can be found on PATH.
func Available() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return errors.NewBackendUnavailableError("ffmpeg", err)
	}
	return nil
}

// Extract seeks to a timestamp and decodes one frame. A zero tolerance
// requests an exact seek; a positive tolerance lets ffmpeg land on the
// nearest seek point, which is considerably faster on long files.
func (s *Source) Extract(ctx context.Context, source string, timestampSecs, toleranceSecs float64) (image.Image, error) {
	args := extractArgs(source, timestampSecs, toleranceSecs, s.scaleWidth, s.tonemap, s.crop)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError()
		}
		return nil, errors.WrapExecError("ffmpeg", err, stderrTail(stderr.String()))
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decoding frame at %.3fs: %w", timestampSecs, err)
	}
	return img, nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailLen {
		s = s[len(s)-stderrTailLen:]
	}
	return s
}
