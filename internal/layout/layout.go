// Package layout computes mosaic grid geometry: per-thumbnail sizes and
// positions for each of the five layout modes.
package layout

import (
	"fmt"
	"math"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/errors"
)

const (
	// MinCount is the smallest thumbnail count the custom-mode search will
	// reduce to before giving up.
	MinCount = 4

	// minThumbWidth rejects geometries whose thumbnails would collapse
	// below a usable size.
	minThumbWidth = 8

	// reductionFactor shrinks the requested count between custom-mode
	// search attempts.
	reductionFactor = 0.8
)

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// Point is a top-left offset on the canvas in pixels.
type Point struct {
	X int
	Y int
}

// Grid describes the geometry of one mosaic: where each thumbnail goes,
// how large it is, and the overall canvas size. Index i holds the i-th
// sampled frame, so slice order is temporal order.
type Grid struct {
	Rows       int
	Cols       int
	ThumbSize  Size
	ThumbSizes []Size
	Positions  []Point
	CanvasSize Size
}

// Count returns the number of thumbnails the grid places. This may differ
// from the requested count: custom mode optimizes toward it, classic mode
// matches it exactly.
func (g *Grid) Count() int {
	return len(g.Positions)
}

// Params holds the inputs to a layout computation.
type Params struct {
	// VideoAspectRatio is the width/height ratio of the source frames.
	VideoAspectRatio float64

	// TargetAspectRatio is the desired canvas width/height ratio.
	TargetAspectRatio float64

	// Count is the requested thumbnail count.
	Count int

	CanvasWidth int
	Spacing     int
	Mode        config.LayoutMode

	// Display hint used by the auto mode. When zero, auto falls back to
	// the configured canvas geometry.
	DisplayWidth  int
	DisplayHeight int
}

// Compute builds the grid for the requested mode. It is a pure function of
// its parameters: identical inputs produce identical grids.
func Compute(p Params) (*Grid, error) {
	if err := p.check(); err != nil {
		return nil, err
	}

	var (
		grid *Grid
		err  error
	)
	switch p.Mode {
	case config.LayoutClassic:
		grid, err = classicGrid(p, p.CanvasWidth, p.TargetAspectRatio)
	case config.LayoutAuto:
		grid, err = autoGrid(p)
	case config.LayoutDynamic:
		grid, err = dynamicGrid(p)
	case config.LayoutCompactVertical:
		grid, err = compactGrid(p)
	case config.LayoutCustom, "":
		grid, err = customGrid(p)
	default:
		return nil, errors.NewInvalidConfigError(fmt.Sprintf("unknown layout mode '%s'", p.Mode))
	}
	if err != nil {
		return nil, err
	}

	if err := grid.validate(); err != nil {
		return nil, err
	}
	return grid, nil
}

func (p Params) check() error {
	if p.VideoAspectRatio <= 0 || math.IsNaN(p.VideoAspectRatio) || math.IsInf(p.VideoAspectRatio, 0) {
		return errors.NewInvalidConfigError(fmt.Sprintf("video aspect ratio must be positive, got %v", p.VideoAspectRatio))
	}
	if p.TargetAspectRatio <= 0 || math.IsNaN(p.TargetAspectRatio) || math.IsInf(p.TargetAspectRatio, 0) {
		return errors.NewInvalidConfigError(fmt.Sprintf("target aspect ratio must be positive, got %v", p.TargetAspectRatio))
	}
	if p.Count < 1 {
		return errors.NewInvalidConfigError(fmt.Sprintf("thumbnail count must be at least 1, got %d", p.Count))
	}
	if p.CanvasWidth < 1 {
		return errors.NewInvalidConfigError(fmt.Sprintf("canvas width must be positive, got %d", p.CanvasWidth))
	}
	if p.Spacing < 0 {
		return errors.NewInvalidConfigError(fmt.Sprintf("spacing must not be negative, got %d", p.Spacing))
	}
	return nil
}

// validate checks the geometric invariants every mode must uphold: matching
// slice lengths, every rectangle inside the canvas, no two rectangles
// overlapping. A violation is an implementation bug, not a user error.
func (g *Grid) validate() error {
	if len(g.Positions) != len(g.ThumbSizes) {
		return invariantError("position count %d does not match size count %d", len(g.Positions), len(g.ThumbSizes))
	}
	if g.CanvasSize.Width < 1 || g.CanvasSize.Height < 1 {
		return invariantError("canvas size %dx%d is not positive", g.CanvasSize.Width, g.CanvasSize.Height)
	}

	for i, pos := range g.Positions {
		sz := g.ThumbSizes[i]
		if sz.Width < 1 || sz.Height < 1 {
			return invariantError("thumbnail %d has degenerate size %dx%d", i, sz.Width, sz.Height)
		}
		if pos.X < 0 || pos.Y < 0 || pos.X+sz.Width > g.CanvasSize.Width || pos.Y+sz.Height > g.CanvasSize.Height {
			return invariantError("thumbnail %d at (%d,%d) size %dx%d exceeds canvas %dx%d",
				i, pos.X, pos.Y, sz.Width, sz.Height, g.CanvasSize.Width, g.CanvasSize.Height)
		}
	}

	for i := range g.Positions {
		for j := i + 1; j < len(g.Positions); j++ {
			if rectsOverlap(g.Positions[i], g.ThumbSizes[i], g.Positions[j], g.ThumbSizes[j]) {
				return invariantError("thumbnails %d and %d overlap", i, j)
			}
		}
	}
	return nil
}

func invariantError(format string, args ...any) error {
	return errors.NewLayoutError("internal geometry error: " + fmt.Sprintf(format, args...))
}

func rectsOverlap(pa Point, sa Size, pb Point, sb Size) bool {
	if pa.X+sa.Width <= pb.X || pb.X+sb.Width <= pa.X {
		return false
	}
	if pa.Y+sa.Height <= pb.Y || pb.Y+sb.Height <= pa.Y {
		return false
	}
	return true
}

// thumbHeight derives a thumbnail height from a width at the video's
// native aspect ratio.
func thumbHeight(width int, videoAspectRatio float64) int {
	return int(math.Round(float64(width) / videoAspectRatio))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
