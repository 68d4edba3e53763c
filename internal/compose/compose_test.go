package compose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/layout"
	"github.com/framegrid/framegrid/internal/sampler"
)

type spySurface struct {
	w, h int
}

func (s *spySurface) Size() (int, int) { return s.w, s.h }

// spyCanvas records the operations issued against it. Compose drives the
// canvas from a single goroutine, so no locking is needed here.
type spyCanvas struct {
	batch int

	fills     []color.NRGBA
	gradients []GradientSpec
	rects     []image.Rectangle
	strokes   []image.Rectangle
	draws     []image.Rectangle
	flushes   int

	drawsSinceFlush int
	maxBetweenFlush int

	failDraw bool
	onFlush  func(n int)
}

func (c *spyCanvas) NewSurface(w, h int) (Surface, error) {
	return &spySurface{w: w, h: h}, nil
}

func (c *spyCanvas) FillColor(_ Surface, col color.NRGBA) error {
	c.fills = append(c.fills, col)
	return nil
}

func (c *spyCanvas) FillGradient(_ Surface, spec GradientSpec) error {
	c.gradients = append(c.gradients, spec)
	return nil
}

func (c *spyCanvas) FillRect(_ Surface, r image.Rectangle, _ color.NRGBA) error {
	c.rects = append(c.rects, r)
	return nil
}

func (c *spyCanvas) StrokeRect(_ Surface, r image.Rectangle, _ color.NRGBA, _ int) error {
	c.strokes = append(c.strokes, r)
	return nil
}

func (c *spyCanvas) DrawScaled(_ Surface, _ image.Image, dst image.Rectangle) error {
	if c.failDraw {
		return fmt.Errorf("draw rejected")
	}
	c.draws = append(c.draws, dst)
	c.drawsSinceFlush++
	if c.drawsSinceFlush > c.maxBetweenFlush {
		c.maxBetweenFlush = c.drawsSinceFlush
	}
	return nil
}

func (c *spyCanvas) Flush(_ Surface) error {
	c.flushes++
	c.drawsSinceFlush = 0
	if c.onFlush != nil {
		c.onFlush(c.flushes)
	}
	return nil
}

func (c *spyCanvas) Export(_ Surface, _ config.OutputFormat, _ float64) ([]byte, error) {
	return []byte{0x0}, nil
}

func (c *spyCanvas) BatchSize() int { return c.batch }

func testGrid(t *testing.T, count int) *layout.Grid {
	t.Helper()
	g, err := layout.Compute(layout.Params{
		VideoAspectRatio:  16.0 / 9.0,
		TargetAspectRatio: 16.0 / 9.0,
		Count:             count,
		CanvasWidth:       2048,
		Spacing:           4,
		Mode:              config.LayoutClassic,
	})
	if err != nil {
		t.Fatalf("layout.Compute() error = %v", err)
	}
	return g
}

func solidFrames(n int) []sampler.Frame {
	frames := make([]sampler.Frame, n)
	for i := range frames {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		frames[i] = sampler.Frame{Ordinal: i, Image: img}
	}
	return frames
}

func flatOptions() Options {
	return Options{
		Visual: config.VisualSettings{
			Background:      config.BackgroundFlat,
			BackgroundColor: color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff},
		},
	}
}

func TestComposeBatching(t *testing.T) {
	grid := testGrid(t, 100)
	canvas := &spyCanvas{batch: 16}

	_, err := Compose(context.Background(), canvas, grid, solidFrames(100), flatOptions())
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if len(canvas.draws) != 100 {
		t.Errorf("draw count = %d, want 100", len(canvas.draws))
	}
	if canvas.maxBetweenFlush > 16 {
		t.Errorf("max draws between flushes = %d, want at most 16", canvas.maxBetweenFlush)
	}
	// Boundaries at 16,32,...,96 plus the final flush.
	if canvas.flushes != 7 {
		t.Errorf("flush count = %d, want 7", canvas.flushes)
	}
}

func TestComposeDrawsMatchGrid(t *testing.T) {
	grid := testGrid(t, 12)
	canvas := &spyCanvas{batch: 64}

	surface, err := Compose(context.Background(), canvas, grid, solidFrames(12), flatOptions())
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	w, h := surface.Size()
	if w != grid.CanvasSize.Width || h != grid.CanvasSize.Height {
		t.Errorf("surface %dx%d, want %dx%d", w, h, grid.CanvasSize.Width, grid.CanvasSize.Height)
	}

	if len(canvas.draws) != 12 {
		t.Fatalf("draw count = %d, want 12", len(canvas.draws))
	}
	for i, dst := range canvas.draws {
		pos, sz := grid.Positions[i], grid.ThumbSizes[i]
		want := image.Rect(pos.X, pos.Y, pos.X+sz.Width, pos.Y+sz.Height)
		if dst != want {
			t.Errorf("draw %d at %v, want %v", i, dst, want)
		}
	}
	if len(canvas.fills) != 1 {
		t.Errorf("background fill count = %d, want 1", len(canvas.fills))
	}
}

func TestComposeHeaderShiftsPlacements(t *testing.T) {
	grid := testGrid(t, 4)
	canvas := &spyCanvas{batch: 64}

	headerCalls := 0
	opts := flatOptions()
	opts.IncludeHeader = true
	opts.Header = func(w, h int) image.Image {
		headerCalls++
		return image.NewNRGBA(image.Rect(0, 0, w, h))
	}

	surface, err := Compose(context.Background(), canvas, grid, solidFrames(4), opts)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	headerH := HeaderHeight(grid.ThumbSize.Height)
	if headerCalls != 1 {
		t.Errorf("header rendered %d times, want 1", headerCalls)
	}
	_, h := surface.Size()
	if want := grid.CanvasSize.Height + headerH; h != want {
		t.Errorf("surface height = %d, want %d", h, want)
	}

	if len(canvas.draws) != 5 {
		t.Fatalf("draw count = %d, want header plus 4 thumbnails", len(canvas.draws))
	}
	if got := canvas.draws[0]; got != image.Rect(0, 0, grid.CanvasSize.Width, headerH) {
		t.Errorf("header drawn at %v", got)
	}
	for i, dst := range canvas.draws[1:] {
		if want := grid.Positions[i].Y + headerH; dst.Min.Y != want {
			t.Errorf("thumbnail %d at y=%d, want %d (shifted by header)", i, dst.Min.Y, want)
		}
	}
}

func TestComposeGradientBackground(t *testing.T) {
	grid := testGrid(t, 4)
	canvas := &spyCanvas{batch: 64}
	frames := solidFrames(4)

	colors := map[image.Image]color.NRGBA{
		frames[0].Image: {R: 0xff, A: 0xff},
		frames[3].Image: {B: 0xff, A: 0xff},
	}

	opts := flatOptions()
	opts.Visual.Background = config.BackgroundGradient
	opts.Dominant = func(img image.Image) color.NRGBA {
		return colors[img]
	}

	if _, err := Compose(context.Background(), canvas, grid, frames, opts); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if len(canvas.gradients) != 1 {
		t.Fatalf("gradient fill count = %d, want 1", len(canvas.gradients))
	}
	spec := canvas.gradients[0]
	if spec.Top != (color.NRGBA{R: 0xff, A: 0xff}) {
		t.Errorf("gradient top = %+v, want first frame's dominant color", spec.Top)
	}
	if spec.Bottom != (color.NRGBA{B: 0xff, A: 0xff}) {
		t.Errorf("gradient bottom = %+v, want last frame's dominant color", spec.Bottom)
	}
	if len(canvas.fills) != 0 {
		t.Errorf("flat fill issued alongside gradient")
	}
}

func TestComposeGradientSkipsPlaceholders(t *testing.T) {
	grid := testGrid(t, 4)
	canvas := &spyCanvas{batch: 64}
	frames := solidFrames(4)
	frames[0].Placeholder = true
	frames[3].Placeholder = true
	wantFirst, wantLast := frames[1].Image, frames[2].Image

	var sources []image.Image
	opts := flatOptions()
	opts.Visual.Background = config.BackgroundGradient
	opts.Dominant = func(img image.Image) color.NRGBA {
		sources = append(sources, img)
		return color.NRGBA{A: 0xff}
	}

	if _, err := Compose(context.Background(), canvas, grid, frames, opts); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("dominant sampled %d frames, want 2", len(sources))
	}
	if sources[0] != wantFirst || sources[1] != wantLast {
		t.Error("gradient derived from placeholder frames")
	}
}

func TestComposeVisualSettings(t *testing.T) {
	grid := testGrid(t, 4)
	canvas := &spyCanvas{batch: 64}

	opts := flatOptions()
	opts.Visual.ShadowEnabled = true
	opts.Visual.ShadowOffset = 4
	opts.Visual.BorderWidth = 2
	opts.Visual.BorderColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	if _, err := Compose(context.Background(), canvas, grid, solidFrames(4), opts); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if len(canvas.rects) != 4 {
		t.Errorf("shadow fill count = %d, want 4", len(canvas.rects))
	}
	if len(canvas.strokes) != 4 {
		t.Errorf("border stroke count = %d, want 4", len(canvas.strokes))
	}
	for i, shadow := range canvas.rects {
		if want := canvas.draws[i].Add(image.Pt(4, 4)); shadow != want {
			t.Errorf("shadow %d at %v, want %v", i, shadow, want)
		}
	}
	for i, stroke := range canvas.strokes {
		if stroke != canvas.draws[i] {
			t.Errorf("border %d at %v, want %v", i, stroke, canvas.draws[i])
		}
	}
}

func TestComposeInvalidDimensions(t *testing.T) {
	grid := &layout.Grid{CanvasSize: layout.Size{Width: 0, Height: 0}}
	_, err := Compose(context.Background(), &spyCanvas{batch: 16}, grid, nil, flatOptions())
	if !errors.IsKind(err, errors.KindInvalidDimensions) {
		t.Errorf("expected invalid dimensions error, got %v", err)
	}
}

func TestComposeFrameCountMismatch(t *testing.T) {
	grid := testGrid(t, 4)
	_, err := Compose(context.Background(), &spyCanvas{batch: 16}, grid, solidFrames(3), flatOptions())
	if !errors.IsKind(err, errors.KindImageGeneration) {
		t.Errorf("expected image generation error, got %v", err)
	}
}

func TestComposeCancellationBetweenBatches(t *testing.T) {
	grid := testGrid(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	canvas := &spyCanvas{batch: 16}
	canvas.onFlush = func(n int) {
		if n == 1 {
			cancel()
		}
	}

	_, err := Compose(ctx, canvas, grid, solidFrames(100), flatOptions())
	if !errors.IsCancelled(err) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	// The first batch completes; no second batch is started.
	if len(canvas.draws) != 16 {
		t.Errorf("draw count after cancellation = %d, want 16", len(canvas.draws))
	}
}

func TestComposeCanvasFailure(t *testing.T) {
	grid := testGrid(t, 4)
	canvas := &spyCanvas{batch: 16, failDraw: true}

	_, err := Compose(context.Background(), canvas, grid, solidFrames(4), flatOptions())
	if !errors.IsKind(err, errors.KindImageGeneration) {
		t.Errorf("expected image generation error, got %v", err)
	}
}

func TestComposeReleasesFrames(t *testing.T) {
	grid := testGrid(t, 9)
	frames := solidFrames(9)

	if _, err := Compose(context.Background(), &spyCanvas{batch: 4}, grid, frames, flatOptions()); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	for i, f := range frames {
		if f.Image != nil {
			t.Errorf("frame %d still references its image after composition", i)
		}
	}
}
