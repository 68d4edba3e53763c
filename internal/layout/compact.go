package layout

import (
	"fmt"

	"github.com/framegrid/framegrid/internal/errors"
)

// compactGrid stacks full-width thumbnails in a single column. Useful for
// scrubbing through a video top to bottom; the canvas grows as tall as the
// thumbnail count demands.
func compactGrid(p Params) (*Grid, error) {
	thumbW := p.CanvasWidth
	thumbH := thumbHeight(thumbW, p.VideoAspectRatio)
	if thumbH < 1 {
		return nil, errors.NewLayoutError(fmt.Sprintf(
			"canvas width %d collapses to zero height at aspect ratio %.3f",
			p.CanvasWidth, p.VideoAspectRatio))
	}

	size := Size{Width: thumbW, Height: thumbH}
	positions := make([]Point, p.Count)
	sizes := make([]Size, p.Count)
	for i := 0; i < p.Count; i++ {
		positions[i] = Point{X: 0, Y: i * (thumbH + p.Spacing)}
		sizes[i] = size
	}

	return &Grid{
		Rows:       p.Count,
		Cols:       1,
		ThumbSize:  size,
		ThumbSizes: sizes,
		Positions:  positions,
		CanvasSize: Size{
			Width:  thumbW,
			Height: p.Count*thumbH + (p.Count-1)*p.Spacing,
		},
	}, nil
}
