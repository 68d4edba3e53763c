package layout

import (
	"fmt"
	"math"

	"github.com/framegrid/framegrid/internal/errors"
)

// The custom mode partitions the canvas into three horizontal zones: a top
// band of small thumbnails (25% of nominal height), a center band of large
// thumbnails (50%) and a bottom band of small thumbnails (25%). A bounded
// search over per-row thumbnail counts picks the geometry whose total count
// lands closest to the requested one.

// customCandidate is one scored geometry from the custom-mode search.
type customCandidate struct {
	smallPerRow int
	largePerRow int
	small       Size
	large       Size
	topRows     int
	centerRows  int
	bottomRows  int
	achieved    int
	score       int
	arDeviation float64
	usedHeight  int
}

// customGrid runs the candidate search, reducing the requested count by 20%
// per attempt when no candidate is feasible. The reduction loop terminates
// at MinCount.
func customGrid(p Params) (*Grid, error) {
	count := p.Count
	for {
		if cand := bestCustomCandidate(p, count); cand != nil {
			return buildCustomGrid(p, cand), nil
		}

		next := int(float64(count) * reductionFactor)
		if next >= count {
			next = count - 1
		}
		if next < MinCount {
			return nil, errors.NewLayoutError(fmt.Sprintf(
				"no feasible custom geometry for %d thumbnails at width %d with spacing %d (reduced down to %d)",
				p.Count, p.CanvasWidth, p.Spacing, count))
		}
		count = next
	}
}

// bestCustomCandidate scores every feasible (smallPerRow, largePerRow) pair
// in a window around the classic column heuristic. Candidates are scored by
// distance from the requested count; ties fall to the candidate whose
// stacked height deviates least from the target aspect ratio.
func bestCustomCandidate(p Params, count int) *customCandidate {
	mosaicHeight := int(math.Round(float64(p.CanvasWidth) / p.TargetAspectRatio))
	topH := mosaicHeight / 4
	centerH := mosaicHeight / 2
	bottomH := mosaicHeight - topH - centerH
	s := p.Spacing

	base := int(math.Ceil(math.Sqrt(float64(count) * p.TargetAspectRatio)))
	lo := base - 2
	if lo < 3 {
		lo = 3
	}
	hi := base + 4
	if hi < lo {
		hi = lo
	}

	var best *customCandidate
	for smallPerRow := lo; smallPerRow <= hi; smallPerRow++ {
		smallW := (p.CanvasWidth - (smallPerRow+1)*s) / smallPerRow
		if smallW < minThumbWidth {
			continue
		}
		smallH := thumbHeight(smallW, p.VideoAspectRatio)
		if smallH < 1 {
			continue
		}
		topRows := zoneRows(topH, smallH, s)
		bottomRows := zoneRows(bottomH, smallH, s)

		for largePerRow := 2; largePerRow < smallPerRow; largePerRow++ {
			largeW := (p.CanvasWidth - (largePerRow+1)*s) / largePerRow
			if largeW <= smallW {
				continue
			}
			largeH := thumbHeight(largeW, p.VideoAspectRatio)
			if largeH < 1 {
				continue
			}
			centerRows := zoneRows(centerH, largeH, s)

			achieved := (topRows+bottomRows)*smallPerRow + centerRows*largePerRow
			usedHeight := s + topRows*(smallH+s) + centerRows*(largeH+s) + bottomRows*(smallH+s)
			cand := &customCandidate{
				smallPerRow: smallPerRow,
				largePerRow: largePerRow,
				small:       Size{Width: smallW, Height: smallH},
				large:       Size{Width: largeW, Height: largeH},
				topRows:     topRows,
				centerRows:  centerRows,
				bottomRows:  bottomRows,
				achieved:    achieved,
				score:       absInt(achieved - count),
				arDeviation: math.Abs(float64(p.CanvasWidth)/float64(usedHeight) - p.TargetAspectRatio),
				usedHeight:  usedHeight,
			}
			if better(cand, best) {
				best = cand
			}
		}
	}
	return best
}

func better(cand, best *customCandidate) bool {
	if best == nil {
		return true
	}
	if cand.score != best.score {
		return cand.score < best.score
	}
	return cand.arDeviation < best.arDeviation
}

// zoneRows returns how many rows of the given thumbnail height fit in a
// zone, never less than one. Zones guide sizing; a row taller than its zone
// spills into the actual stacked height rather than being dropped.
func zoneRows(zoneH, thumbH, spacing int) int {
	n := (zoneH - spacing) / (thumbH + spacing)
	if n < 1 {
		return 1
	}
	return n
}

// buildCustomGrid materializes positions for the winning candidate in
// reading order: top small rows, center large rows, bottom small rows.
// Each row is centered horizontally.
func buildCustomGrid(p Params, c *customCandidate) *Grid {
	s := p.Spacing
	positions := make([]Point, 0, c.achieved)
	sizes := make([]Size, 0, c.achieved)

	y := s
	appendRows := func(rows, perRow int, sz Size) {
		rowWidth := perRow*sz.Width + (perRow-1)*s
		x0 := (p.CanvasWidth - rowWidth) / 2
		for r := 0; r < rows; r++ {
			for col := 0; col < perRow; col++ {
				positions = append(positions, Point{X: x0 + col*(sz.Width+s), Y: y})
				sizes = append(sizes, sz)
			}
			y += sz.Height + s
		}
	}

	appendRows(c.topRows, c.smallPerRow, c.small)
	appendRows(c.centerRows, c.largePerRow, c.large)
	appendRows(c.bottomRows, c.smallPerRow, c.small)

	return &Grid{
		Rows:       c.topRows + c.centerRows + c.bottomRows,
		Cols:       c.smallPerRow,
		ThumbSize:  c.large,
		ThumbSizes: sizes,
		Positions:  positions,
		CanvasSize: Size{Width: p.CanvasWidth, Height: y},
	}
}
