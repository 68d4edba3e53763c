package ffmpeg

import (
	"fmt"
	"strings"
)

// tonemapFilter maps PQ or HLG input down to BT.709 through a linear
// light pass with hable curve compression.
const tonemapFilter = "zscale=t=linear:npl=100,tonemap=hable,zscale=t=bt709:m=bt709:p=bt709,format=rgb24"

// extractArgs builds the argument list for a single-frame extraction.
// The seek always goes before the input so ffmpeg jumps by index instead
// of decoding from the start; -noaccurate_seek additionally skips the
// decode forward from the preceding seek point when tolerance allows it.
func extractArgs(source string, timestampSecs, toleranceSecs float64, scaleWidth int, tonemap bool, crop string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
	}
	if toleranceSecs > 0 {
		args = append(args, "-noaccurate_seek")
	}
	args = append(args,
		"-ss", fmt.Sprintf("%.3f", timestampSecs),
		"-i", source,
		"-an", "-sn",
		"-frames:v", "1",
	)
	var filters []string
	if crop != "" {
		filters = append(filters, crop)
	}
	if tonemap {
		filters = append(filters, tonemapFilter)
	}
	if scaleWidth > 0 {
		filters = append(filters, fmt.Sprintf("scale=%d:-2:flags=bilinear", scaleWidth))
	}
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}
	args = append(args,
		"-f", "image2",
		"-c:v", "png",
		"pipe:1",
	)
	return args
}
