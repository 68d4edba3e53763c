// Package compose assembles extracted frames onto a canvas according to a
// grid, in resource-bounded batches.
package compose

import (
	"image"
	"image/color"

	"github.com/framegrid/framegrid/internal/config"
)

// Surface is an in-progress mosaic owned by a Canvas backend.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)
}

// GradientSpec describes a vertical background gradient.
type GradientSpec struct {
	Top    color.NRGBA
	Bottom color.NRGBA
}

// Canvas is the drawing capability the compositor renders through. Draw
// calls may be buffered; Flush completes everything submitted so far and
// marks a batch boundary. Implementations must be safe for concurrent use
// by multiple generation tasks, each operating on its own surfaces.
type Canvas interface {
	// NewSurface allocates a blank surface.
	NewSurface(width, height int) (Surface, error)

	// FillColor floods the whole surface with one color.
	FillColor(s Surface, c color.NRGBA) error

	// FillGradient paints a blurred vertical gradient across the surface.
	FillGradient(s Surface, spec GradientSpec) error

	// FillRect fills an axis-aligned rectangle. Rectangles extending
	// past the surface are clipped.
	FillRect(s Surface, r image.Rectangle, c color.NRGBA) error

	// StrokeRect outlines a rectangle, the stroke extending inward.
	StrokeRect(s Surface, r image.Rectangle, c color.NRGBA, width int) error

	// DrawScaled scales img to cover dst and composites it.
	DrawScaled(s Surface, img image.Image, dst image.Rectangle) error

	// Flush completes all submitted draws.
	Flush(s Surface) error

	// Export encodes the surface to the given format.
	Export(s Surface, format config.OutputFormat, quality float64) ([]byte, error)

	// BatchSize reports how many draws the backend accepts between
	// flushes without risking resource exhaustion.
	BatchSize() int
}
