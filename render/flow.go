package render

import (
	"image"
	"image/color"

	"github.com/aeroview/go-flowvel"
	"gocv.io/x/gocv"
)

// FlowStyle defines the parameters used for rendering flow vectors
type FlowStyle struct {
	LineColor     color.RGBA
	LineThickness int
	CircleColor   color.RGBA
	CircleRadius  int
}

// DefaultFlowStyle returns default flow vector style settings
func DefaultFlowStyle() FlowStyle {
	return FlowStyle{
		LineColor:     Green,
		LineThickness: 1,
		CircleColor:   Red,
		CircleRadius:  3,
	}
}

// Flow draws the displacement vector of each surviving feature on the
// source image, a line from the feature's previous location to its new
// location with a circle at the new location
func Flow(img *gocv.Mat, res flowvel.VelocityResult, style FlowStyle) {

	for i := range res.NewFeatures {

		oldPt := image.Pt(int(res.OldFeatures[i].X), int(res.OldFeatures[i].Y))
		newPt := image.Pt(int(res.NewFeatures[i].X), int(res.NewFeatures[i].Y))

		// draw displacement line from old to new feature location
		gocv.Line(img, oldPt, newPt, style.LineColor, style.LineThickness)

		// draw circle on current feature location
		gocv.Circle(img, newPt, style.CircleRadius, style.CircleColor, -1)
	}
}
