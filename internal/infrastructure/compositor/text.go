package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawTextFitted renders text at the largest scale whose bounding box
// fits rect on both axes, centred both ways. Empty strings and
// degenerate rectangles draw nothing.
func drawTextFitted(dst *image.RGBA, rect image.Rectangle, text string, col color.Color) {
	text = strings.TrimSpace(text)
	if text == "" || rect.Dx() <= 0 || rect.Dy() <= 0 {
		return
	}

	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	textH := face.Height
	if textW <= 0 {
		return
	}

	// Render once at native face size, then scale the rendering.
	src := image.NewRGBA(image.Rect(0, 0, textW, textH))
	drawer := font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	drawer.DrawString(text)

	scale := float64(rect.Dx()) / float64(textW)
	if s := float64(rect.Dy()) / float64(textH); s < scale {
		scale = s
	}

	dstW := int(float64(textW) * scale)
	dstH := int(float64(textH) * scale)
	if dstW <= 0 || dstH <= 0 {
		return
	}

	x := rect.Min.X + (rect.Dx()-dstW)/2
	y := rect.Min.Y + (rect.Dy()-dstH)/2
	target := image.Rect(x, y, x+dstW, y+dstH)

	xdraw.ApproxBiLinear.Scale(dst, target, src, src.Bounds(), draw.Over, nil)
}

// scaleInto blits src scaled to exactly cover rect.
func scaleInto(dst *image.RGBA, rect image.Rectangle, src *image.RGBA) {
	if src == nil || rect.Dx() <= 0 || rect.Dy() <= 0 {
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
}
