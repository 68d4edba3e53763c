// Package render is the software canvas backend. It draws mosaics into
// in-memory NRGBA images and encodes them to the supported output formats.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"

	"github.com/framegrid/framegrid/internal/compose"
	"github.com/framegrid/framegrid/internal/config"
)

// DefaultBatchSize is how many thumbnail draws the backend accepts
// between flushes. The software backend draws immediately, so the batch
// size only paces cancellation checks upstream.
const DefaultBatchSize = 16

// Canvas implements compose.Canvas on plain image buffers. All drawing
// is immediate; Flush is a no-op kept for the batch contract. A single
// Canvas may serve many surfaces concurrently since it holds no state
// of its own.
type Canvas struct {
	batch int
}

var _ compose.Canvas = (*Canvas)(nil)

// NewCanvas returns a software canvas. A batchSize below 1 selects
// DefaultBatchSize.
func NewCanvas(batchSize int) *Canvas {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Canvas{batch: batchSize}
}

type surface struct {
	img *image.NRGBA
}

func (s *surface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Canvas) NewSurface(width, height int) (compose.Surface, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("surface dimensions %dx%d out of range", width, height)
	}
	return &surface{img: image.NewNRGBA(image.Rect(0, 0, width, height))}, nil
}

func (c *Canvas) FillColor(s compose.Surface, col color.NRGBA) error {
	img, err := surfaceImage(s)
	if err != nil {
		return err
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
	return nil
}

// FillGradient paints a vertical gradient, one interpolated row at a
// time. Row colors land directly in the pixel buffer since the surface
// owns the full NRGBA backing array.
func (c *Canvas) FillGradient(s compose.Surface, spec compose.GradientSpec) error {
	img, err := surfaceImage(s)
	if err != nil {
		return err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		col := lerpColor(spec.Top, spec.Bottom, t)
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+w*4]
		for x := 0; x < len(row); x += 4 {
			row[x] = col.R
			row[x+1] = col.G
			row[x+2] = col.B
			row[x+3] = col.A
		}
	}
	return nil
}

func (c *Canvas) FillRect(s compose.Surface, r image.Rectangle, col color.NRGBA) error {
	img, err := surfaceImage(s)
	if err != nil {
		return err
	}
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Over)
	return nil
}

func (c *Canvas) StrokeRect(s compose.Surface, r image.Rectangle, col color.NRGBA, width int) error {
	if width < 1 {
		return nil
	}
	if width*2 > r.Dx() || width*2 > r.Dy() {
		return c.FillRect(s, r, col)
	}
	bands := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+width, r.Min.X+width, r.Max.Y-width),
		image.Rect(r.Max.X-width, r.Min.Y+width, r.Max.X, r.Max.Y-width),
	}
	for _, band := range bands {
		if err := c.FillRect(s, band, col); err != nil {
			return err
		}
	}
	return nil
}

func (c *Canvas) DrawScaled(s compose.Surface, src image.Image, dst image.Rectangle) error {
	img, err := surfaceImage(s)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("drawing nil image")
	}
	if dst.Empty() {
		return nil
	}
	xdraw.BiLinear.Scale(img, dst, src, src.Bounds(), draw.Over, nil)
	return nil
}

func (c *Canvas) Flush(s compose.Surface) error {
	_, err := surfaceImage(s)
	return err
}

func (c *Canvas) Export(s compose.Surface, format config.OutputFormat, quality float64) ([]byte, error) {
	img, err := surfaceImage(s)
	if err != nil {
		return nil, err
	}

	q := int(quality*100 + 0.5)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}

	var buf bytes.Buffer
	switch format {
	case config.FormatPNG:
		err = png.Encode(&buf, img)
	case config.FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: q})
	case config.FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: float32(q)})
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func (c *Canvas) BatchSize() int {
	return c.batch
}

func surfaceImage(s compose.Surface) (*image.NRGBA, error) {
	cs, ok := s.(*surface)
	if !ok {
		return nil, fmt.Errorf("surface type %T does not belong to this backend", s)
	}
	return cs.img, nil
}
