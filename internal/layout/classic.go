package layout

import (
	"fmt"
	"math"

	"github.com/framegrid/framegrid/internal/errors"
)

// classicGrid arranges uniform thumbnails in a near-square grid. Column
// count follows ceil(sqrt(count * targetAR)) so the filled grid approaches
// the target aspect ratio; the last row may be partially filled.
func classicGrid(p Params, canvasWidth int, targetAR float64) (*Grid, error) {
	cols := int(math.Ceil(math.Sqrt(float64(p.Count) * targetAR)))
	if cols < 1 {
		cols = 1
	}
	rows := (p.Count + cols - 1) / cols

	s := p.Spacing
	thumbW := (canvasWidth - (cols+1)*s) / cols
	if thumbW < minThumbWidth {
		return nil, errors.NewLayoutError(fmt.Sprintf(
			"%d columns at width %d with spacing %d leave only %dpx per thumbnail",
			cols, canvasWidth, s, thumbW))
	}
	thumbH := thumbHeight(thumbW, p.VideoAspectRatio)
	if thumbH < 1 {
		return nil, errors.NewLayoutError(fmt.Sprintf(
			"thumbnail width %d collapses to zero height at aspect ratio %.3f",
			thumbW, p.VideoAspectRatio))
	}

	size := Size{Width: thumbW, Height: thumbH}
	positions := make([]Point, p.Count)
	sizes := make([]Size, p.Count)
	for i := 0; i < p.Count; i++ {
		row, col := i/cols, i%cols
		positions[i] = Point{
			X: s + col*(thumbW+s),
			Y: s + row*(thumbH+s),
		}
		sizes[i] = size
	}

	return &Grid{
		Rows:       rows,
		Cols:       cols,
		ThumbSize:  size,
		ThumbSizes: sizes,
		Positions:  positions,
		CanvasSize: Size{
			Width:  canvasWidth,
			Height: rows*thumbH + (rows+1)*s,
		},
	}, nil
}

// autoGrid is classic arithmetic driven by the display-size hint instead of
// the configured canvas geometry.
func autoGrid(p Params) (*Grid, error) {
	width, targetAR := p.CanvasWidth, p.TargetAspectRatio
	if p.DisplayWidth > 0 && p.DisplayHeight > 0 {
		width = p.DisplayWidth
		targetAR = float64(p.DisplayWidth) / float64(p.DisplayHeight)
	}
	return classicGrid(p, width, targetAR)
}
