package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func drawnBounds(img *image.RGBA) image.Rectangle {
	bounds := image.Rectangle{}
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				px := image.Rect(x, y, x+1, y+1)
				if bounds.Empty() {
					bounds = px
				} else {
					bounds = bounds.Union(px)
				}
			}
		}
	}
	return bounds
}

func TestDrawTextFittedStaysInsideRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))
	rect := image.Rect(50, 20, 350, 80)

	drawTextFitted(img, rect, "SCANDINAVIAN ROOM", color.White)

	drawn := drawnBounds(img)
	assert.False(t, drawn.Empty(), "text must produce pixels")
	assert.True(t, drawn.In(rect), "text %v must stay inside %v", drawn, rect)
}

func TestDrawTextFittedCentred(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))
	rect := image.Rect(0, 0, 400, 100)

	drawTextFitted(img, rect, "HI", color.White)

	drawn := drawnBounds(img)
	centerX := (drawn.Min.X + drawn.Max.X) / 2
	assert.InDelta(t, 200, centerX, 12, "text centred horizontally")
}

func TestDrawTextFittedEmptyInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))

	drawTextFitted(img, image.Rect(0, 0, 100, 100), "   ", color.White)
	assert.True(t, drawnBounds(img).Empty())

	drawTextFitted(img, image.Rect(10, 10, 10, 50), "text", color.White)
	assert.True(t, drawnBounds(img).Empty(), "degenerate rect draws nothing")
}
