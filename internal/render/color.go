package render

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// backgroundDim scales dominant colors down so the background gradient
// stays behind the thumbnails instead of competing with them.
const backgroundDim = 0.45

// AverageColor returns the mean color of an image. The image is box
// filtered down to a small grid first so large frames stay cheap to
// sample.
func AverageColor(img image.Image) color.NRGBA {
	if img == nil {
		return color.NRGBA{A: 0xff}
	}
	small := imaging.Resize(img, 16, 16, imaging.Box)
	b := small.Bounds()
	if b.Empty() {
		return color.NRGBA{A: 0xff}
	}

	var r, g, bl, n uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := small.NRGBAAt(x, y)
			r += uint64(c.R)
			g += uint64(c.G)
			bl += uint64(c.B)
			n++
		}
	}
	return color.NRGBA{
		R: uint8(r / n),
		G: uint8(g / n),
		B: uint8(bl / n),
		A: 0xff,
	}
}

// DominantColor derives a background shade from a frame: its average
// color darkened for use behind the grid.
func DominantColor(img image.Image) color.NRGBA {
	return darken(AverageColor(img), backgroundDim)
}

func darken(c color.NRGBA, factor float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
		A: lerpChannel(a.A, b.A, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
