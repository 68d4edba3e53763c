// Package ffprobe extracts video metadata through the ffprobe tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/framegrid/framegrid/internal/errors"
)

// VideoInfo describes the probed properties a mosaic run needs.
type VideoInfo struct {
	DurationSecs float64
	Width        int
	Height       int
	FrameRate    float64
	Codec        string
	SizeBytes    uint64
	IsHDR        bool
}

// AspectRatio returns width over height, or 0 for degenerate dimensions.
func (v *VideoInfo) AspectRatio() float64 {
	if v.Width <= 0 || v.Height <= 0 {
		return 0
	}
	return float64(v.Width) / float64(v.Height)
}

// probeOutput represents the JSON output from ffprobe.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
}

type probeStream struct {
	CodecType      string           `json:"codec_type"`
	CodecName      string           `json:"codec_name"`
	Width          int              `json:"width"`
	Height         int              `json:"height"`
	AvgFrameRate   string           `json:"avg_frame_rate"`
	RFrameRate     string           `json:"r_frame_rate"`
	Duration       string           `json:"duration"`
	ColorTransfer  string           `json:"color_transfer"`
	ColorPrimaries string           `json:"color_primaries"`
	ColorSpace     string           `json:"color_space"`
	Disposition    probeDisposition `json:"disposition"`
}

type probeDisposition struct {
	AttachedPic int `json:"attached_pic"`
}

// Available reports whether ffprobe can be found on PATH.
func Available() error {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return errors.NewBackendUnavailableError("ffprobe", err)
	}
	return nil
}

// Probe runs ffprobe against a file and extracts its video properties.
func Probe(ctx context.Context, inputPath string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)

	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		return nil, errors.WrapExecError("ffprobe", err, stderr)
	}

	probe, err := parseProbeOutput(output)
	if err != nil {
		return nil, err
	}
	return extractVideoInfo(probe, inputPath)
}

// parseProbeOutput decodes raw ffprobe JSON.
func parseProbeOutput(data []byte) (*probeOutput, error) {
	var result probeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.NewProbeParseError(fmt.Sprintf("decoding ffprobe output: %v", err))
	}
	return &result, nil
}

// extractVideoInfo pulls the first real video stream out of a probe
// result. Attached cover art is reported as a video stream by ffprobe
// and must be skipped.
func extractVideoInfo(probe *probeOutput, inputPath string) (*VideoInfo, error) {
	var video *probeStream
	for i := range probe.Streams {
		s := &probe.Streams[i]
		if s.CodecType == "video" && s.Disposition.AttachedPic == 0 {
			video = s
			break
		}
	}
	if video == nil {
		return nil, errors.NewVideoInfoError(fmt.Sprintf("no video stream found in %s", inputPath))
	}
	if video.Width <= 0 || video.Height <= 0 {
		return nil, errors.NewVideoInfoError(
			fmt.Sprintf("invalid dimensions in %s: %dx%d", inputPath, video.Width, video.Height))
	}

	info := &VideoInfo{
		Width:  video.Width,
		Height: video.Height,
		Codec:  video.CodecName,
	}

	// Container duration is authoritative; fall back to the stream's
	// own duration for containers that do not carry one.
	if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.DurationSecs = d
	} else if d, err := strconv.ParseFloat(video.Duration, 64); err == nil {
		info.DurationSecs = d
	}
	if info.DurationSecs <= 0 {
		return nil, errors.NewVideoInfoError(fmt.Sprintf("no usable duration in %s", inputPath))
	}

	if size, err := strconv.ParseUint(probe.Format.Size, 10, 64); err == nil {
		info.SizeBytes = size
	}

	info.FrameRate = parseFrameRate(video.AvgFrameRate)
	if info.FrameRate == 0 {
		info.FrameRate = parseFrameRate(video.RFrameRate)
	}

	info.IsHDR = isHDRColor(video.ColorTransfer, video.ColorPrimaries, video.ColorSpace)

	return info, nil
}

// isHDRColor reports whether the stream colorimetry marks high dynamic
// range content: a PQ or HLG transfer function, or the BT.2020 gamut in
// the primaries or matrix. Such frames need tone mapping before they
// render correctly on an SDR canvas.
func isHDRColor(transfer, primaries, space string) bool {
	if containsAny(transfer, "smpte2084", "arib-std-b67") {
		return true
	}
	if containsAny(primaries, "bt2020") {
		return true
	}
	return containsAny(space, "bt2020")
}

func containsAny(s string, patterns ...string) bool {
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// parseFrameRate parses ffprobe's fractional rate notation, "30000/1001"
// or a plain decimal. Returns 0 when the value is absent or degenerate.
func parseFrameRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 || n <= 0 {
			return 0
		}
		return n / d
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return f
}
