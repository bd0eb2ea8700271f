package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/aeroview/go-flowvel"
	"gocv.io/x/gocv"
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
	}
}

// VelocityLabel writes the mean velocity estimate in the top left corner of
// the source image on a filled background box
func VelocityLabel(img *gocv.Mat, sum flowvel.Summary, font Font) {

	text := fmt.Sprintf("vx %.2f m/s  vy %.2f m/s  (%d features)",
		sum.MeanX, sum.MeanY, sum.Samples)

	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	// box text gets written on
	bRect := image.Rect(0, 0,
		textSize.X+font.LeftPad+font.RightPad,
		textSize.Y+font.TopPad+font.BottomPad)

	gocv.Rectangle(img, bRect, Black, -1)

	textPos := image.Pt(font.LeftPad, font.TopPad+textSize.Y)

	gocv.PutTextWithParams(img, text, textPos, font.Face, font.Scale,
		font.Color, font.Thickness, font.LineType, false)
}
