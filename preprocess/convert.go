package preprocess

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FrameConverter converts normalized intensity buffers supplied by a
// simulation or acquisition host into the 8-bit grayscale Mat the tracker
// consumes.  The input convention is a column-major float64 buffer with
// intensities in the range 0-1, values outside the range are clamped.
type FrameConverter struct {
	// width is the frame width in pixels
	width int
	// height is the frame height in pixels
	height int
	// frame is the reusable destination Mat
	frame gocv.Mat
}

// NewFrameConverter returns a converter for frames of the given pixel
// dimensions
func NewFrameConverter(width, height int) *FrameConverter {
	return &FrameConverter{
		width:  width,
		height: height,
		frame:  gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1),
	}
}

// Close frees memory allocated for the destination frame
func (c *FrameConverter) Close() error {
	return c.frame.Close()
}

// Convert fills the destination frame from a column-major normalized
// intensity buffer of length width*height.  The returned Mat is owned by
// the converter and stays valid until the next Convert or Close call.
func (c *FrameConverter) Convert(samples []float64) (gocv.Mat, error) {

	if len(samples) != c.width*c.height {
		return gocv.Mat{}, fmt.Errorf("buffer length %d does not match "+
			"%dx%d frame", len(samples), c.width, c.height)
	}

	for row := 0; row < c.height; row++ {
		for col := 0; col < c.width; col++ {

			v := samples[row+col*c.height] * 255.0

			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}

			c.frame.SetUCharAt(row, col, uint8(v))
		}
	}

	return c.frame, nil
}

// Width returns the frame width in pixels
func (c *FrameConverter) Width() int {
	return c.width
}

// Height returns the frame height in pixels
func (c *FrameConverter) Height() int {
	return c.height
}
