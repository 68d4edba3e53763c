package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/framegrid/framegrid/internal/util"
)

var face = basicfont.Face7x13

var (
	labelFill  = color.NRGBA{A: 0xb4}
	labelText  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	headerFill = color.NRGBA{R: 0x16, G: 0x16, B: 0x16, A: 0xff}
	headerText = color.NRGBA{R: 0xd8, G: 0xd8, B: 0xd8, A: 0xff}
	headerRule = color.NRGBA{R: 0x32, G: 0x32, B: 0x32, A: 0xff}
)

const (
	labelPadX  = 4
	labelPadY  = 2
	labelInset = 4
)

// Label stamps a timestamp in the bottom right corner of a frame and
// returns the stamped copy. The input image is never modified. Frames
// too small to hold the label are returned as is.
func Label(img image.Image, timestampSecs float64) image.Image {
	if img == nil {
		return nil
	}
	text := util.FormatTimestamp(timestampSecs)
	boxW := font.MeasureString(face, text).Ceil() + 2*labelPadX
	boxH := face.Height + 2*labelPadY

	b := img.Bounds()
	if b.Dx() < boxW+2*labelInset || b.Dy() < boxH+2*labelInset {
		return img
	}

	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	box := image.Rect(w-labelInset-boxW, h-labelInset-boxH, w-labelInset, h-labelInset)
	draw.Draw(out, box, image.NewUniform(labelFill), image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(labelText),
		Face: face,
		Dot:  fixed.P(box.Min.X+labelPadX, box.Min.Y+labelPadY+face.Ascent),
	}
	d.DrawString(text)
	return out
}

// Header renders the metadata band drawn above the grid. Lines are laid
// out top to bottom and centered vertically as a block; lines that do
// not fit are dropped.
func Header(width, height int, lines []string) image.Image {
	if width < 1 || height < 1 {
		return nil
	}
	img := imaging.New(width, height, headerFill)

	rule := image.Rect(0, height-1, width, height)
	draw.Draw(img, rule, image.NewUniform(headerRule), image.Point{}, draw.Src)

	advance := face.Height + 3
	baseline := (height-len(lines)*advance)/2 + face.Ascent
	if baseline < face.Ascent {
		baseline = face.Ascent
	}
	for _, line := range lines {
		if baseline > height-2 {
			break
		}
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(headerText),
			Face: face,
			Dot:  fixed.P(12, baseline),
		}
		d.DrawString(line)
		baseline += advance
	}
	return img
}
