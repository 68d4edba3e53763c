package compose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/layout"
	"github.com/framegrid/framegrid/internal/sampler"
)

// headerHeightRatio sizes the metadata band relative to one thumbnail.
const headerHeightRatio = 0.3

// shadowFill is the drop shadow color.
var shadowFill = color.NRGBA{A: 0x80}

// Options carries the non-geometric inputs to composition.
type Options struct {
	Visual config.VisualSettings

	// IncludeHeader reserves a metadata band above the grid and shifts
	// every thumbnail down by its height.
	IncludeHeader bool

	// Dominant extracts a representative color from a frame. It feeds
	// the gradient background; without it the background falls back to
	// the flat color.
	Dominant func(image.Image) color.NRGBA

	// Header renders the metadata band at the given size.
	Header func(width, height int) image.Image
}

// HeaderHeight returns the metadata band height for a thumbnail height.
func HeaderHeight(thumbHeight int) int {
	return int(math.Round(float64(thumbHeight) * headerHeightRatio))
}

// Compose draws frames onto a new surface following the grid. Thumbnails
// are drawn in ordinal order in fixed-size batches; between batches the
// canvas is flushed and the context checked, so cancellation takes effect
// at batch boundaries and in-flight draws are bounded regardless of
// thumbnail count. Frame images are released as soon as they are drawn.
func Compose(ctx context.Context, canvas Canvas, grid *layout.Grid, frames []sampler.Frame, opts Options) (Surface, error) {
	if grid.CanvasSize.Width < 1 || grid.CanvasSize.Height < 1 {
		return nil, errors.NewInvalidDimensionsError(grid.CanvasSize.Width, grid.CanvasSize.Height)
	}
	if len(frames) != grid.Count() {
		return nil, errors.NewImageGenerationError(
			fmt.Sprintf("frame count %d does not match grid count %d", len(frames), grid.Count()), nil)
	}

	headerH := 0
	if opts.IncludeHeader {
		headerH = HeaderHeight(grid.ThumbSize.Height)
	}

	surface, err := canvas.NewSurface(grid.CanvasSize.Width, grid.CanvasSize.Height+headerH)
	if err != nil {
		return nil, errors.NewImageGenerationError("creating surface", err)
	}

	if err := paintBackground(canvas, surface, frames, opts); err != nil {
		return nil, err
	}

	if headerH > 0 && opts.Header != nil {
		img := opts.Header(grid.CanvasSize.Width, headerH)
		if img != nil {
			dst := image.Rect(0, 0, grid.CanvasSize.Width, headerH)
			if err := canvas.DrawScaled(surface, img, dst); err != nil {
				return nil, errors.NewImageGenerationError("drawing header", err)
			}
		}
	}

	batch := canvas.BatchSize()
	if batch < 1 {
		batch = 1
	}

	for i := range frames {
		if i > 0 && i%batch == 0 {
			if err := canvas.Flush(surface); err != nil {
				return nil, errors.NewImageGenerationError("flushing batch", err)
			}
			if ctx.Err() != nil {
				return nil, errors.NewCancelledError()
			}
		}

		pos := grid.Positions[i]
		sz := grid.ThumbSizes[i]
		dst := image.Rect(pos.X, pos.Y+headerH, pos.X+sz.Width, pos.Y+headerH+sz.Height)

		if err := drawThumbnail(canvas, surface, frames[i].Image, dst, opts.Visual); err != nil {
			return nil, err
		}
		frames[i].Image = nil
	}

	if err := canvas.Flush(surface); err != nil {
		return nil, errors.NewImageGenerationError("flushing surface", err)
	}
	return surface, nil
}

// paintBackground fills the surface with either a gradient derived from
// the first and last sampled frames' dominant colors or the configured
// flat color.
func paintBackground(canvas Canvas, surface Surface, frames []sampler.Frame, opts Options) error {
	if opts.Visual.Background == config.BackgroundGradient && opts.Dominant != nil {
		if first, last, ok := gradientSources(frames); ok {
			spec := GradientSpec{
				Top:    opts.Dominant(first),
				Bottom: opts.Dominant(last),
			}
			if err := canvas.FillGradient(surface, spec); err != nil {
				return errors.NewImageGenerationError("painting gradient background", err)
			}
			return nil
		}
	}

	if err := canvas.FillColor(surface, opts.Visual.BackgroundColor); err != nil {
		return errors.NewImageGenerationError("painting background", err)
	}
	return nil
}

// gradientSources picks the first and last frames that carry real pixel
// data. Placeholders would poison the gradient with their fill color.
func gradientSources(frames []sampler.Frame) (first, last image.Image, ok bool) {
	for _, f := range frames {
		if f.Image == nil || f.Placeholder {
			continue
		}
		if first == nil {
			first = f.Image
		}
		last = f.Image
	}
	return first, last, first != nil
}

func drawThumbnail(canvas Canvas, surface Surface, img image.Image, dst image.Rectangle, visual config.VisualSettings) error {
	if visual.ShadowEnabled && visual.ShadowOffset != 0 {
		shadow := dst.Add(image.Pt(visual.ShadowOffset, visual.ShadowOffset))
		if err := canvas.FillRect(surface, shadow, shadowFill); err != nil {
			return errors.NewImageGenerationError("drawing shadow", err)
		}
	}

	if img != nil {
		if err := canvas.DrawScaled(surface, img, dst); err != nil {
			return errors.NewImageGenerationError("drawing thumbnail", err)
		}
	}

	if visual.BorderWidth > 0 {
		if err := canvas.StrokeRect(surface, dst, visual.BorderColor, visual.BorderWidth); err != nil {
			return errors.NewImageGenerationError("drawing border", err)
		}
	}
	return nil
}
