package layout

import "math"

// dynamicGrid sizes thumbnails by temporal position: frames near the middle
// of the video render up to 1.5x larger than frames at the edges. Rows are
// re-packed greedily left to right to fit the variable widths without
// overlap.
func dynamicGrid(p Params) (*Grid, error) {
	base, err := classicGrid(p, p.CanvasWidth, p.TargetAspectRatio)
	if err != nil {
		return nil, err
	}

	s := p.Spacing
	maxW := p.CanvasWidth - 2*s
	n := p.Count

	sizes := make([]Size, n)
	for i := 0; i < n; i++ {
		m := 1 + (1-2*math.Abs(float64(i)/float64(n)-0.5))*0.5
		w := int(math.Round(float64(base.ThumbSize.Width) * m))
		if w > maxW {
			w = maxW
		}
		h := thumbHeight(w, p.VideoAspectRatio)
		if h < 1 {
			h = 1
		}
		sizes[i] = Size{Width: w, Height: h}
	}

	positions := make([]Point, n)
	x, y := s, s
	rowH, rowLen, maxRowLen, rows := 0, 0, 0, 1
	for i, sz := range sizes {
		if rowLen > 0 && x+sz.Width > p.CanvasWidth-s {
			y += rowH + s
			x = s
			rowH, rowLen = 0, 0
			rows++
		}
		positions[i] = Point{X: x, Y: y}
		x += sz.Width + s
		rowLen++
		if sz.Height > rowH {
			rowH = sz.Height
		}
		if rowLen > maxRowLen {
			maxRowLen = rowLen
		}
	}

	return &Grid{
		Rows:       rows,
		Cols:       maxRowLen,
		ThumbSize:  base.ThumbSize,
		ThumbSizes: sizes,
		Positions:  positions,
		CanvasSize: Size{Width: p.CanvasWidth, Height: y + rowH + s},
	}, nil
}
