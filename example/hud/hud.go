package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"

	"github.com/aeroview/go-flowvel"
	"github.com/aeroview/go-flowvel/render"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// TTFFontSize is the font size used to render the velocity HUD
	TTFFontSize = 28
)

func main() {

	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	imgA := flag.String("a", "frame-a.jpg", "First frame image file")
	imgB := flag.String("b", "frame-b.jpg", "Second frame image file")
	outFile := flag.String("o", "hud-out.jpg", "Output image file with HUD rendered")
	ttfFont := flag.String("t", "fzhei-b01s-regular.ttf", "TTF font file to render HUD with")
	focal := flag.Float64("f", 0.004, "Camera focal length in meters")
	sensorW := flag.Float64("sw", 0.0064, "Camera sensor width in meters")
	sensorH := flag.Float64("sh", 0.0048, "Camera sensor height in meters")
	interval := flag.Float64("dt", 0.1, "Time between the two frames in seconds")
	height := flag.Float64("alt", 2.0, "Height above ground in meters")
	flag.Parse()

	err := run(*imgA, *imgB, *outFile, *ttfFont, float32(*focal),
		float32(*sensorW), float32(*sensorH), *interval, float32(*height))

	if err != nil {
		log.Fatal(err)
	}
}

func run(imgA, imgB, outFile, ttfFont string, focal, sensorW,
	sensorH float32, interval float64, height float32) error {

	fontFace, err := loadFont(ttfFont)

	if err != nil {
		return err
	}

	frameA := gocv.IMRead(imgA, gocv.IMReadColor)

	if frameA.Empty() {
		return fmt.Errorf("error reading image from: %s", imgA)
	}

	defer frameA.Close()

	frameB := gocv.IMRead(imgB, gocv.IMReadColor)

	if frameB.Empty() {
		return fmt.Errorf("error reading image from: %s", imgB)
	}

	defer frameB.Close()

	tracker, err := flowvel.NewTracker(flowvel.MethodLucasKanade,
		float32(interval), focal, sensorW, sensorH)

	if err != nil {
		return err
	}

	defer tracker.Close()

	// first call seeds the feature set, second call tracks
	tracker.ComputeVelocity(frameA, height)
	res := tracker.ComputeVelocity(frameB, height)

	sum := flowvel.Summarize(res)

	log.Printf("vx=%.3f m/s, vy=%.3f m/s over %d features",
		sum.MeanX, sum.MeanY, sum.Samples)

	render.Flow(&frameB, res, render.DefaultFlowStyle())

	text := fmt.Sprintf("vx %.2f m/s   vy %.2f m/s", sum.MeanX, sum.MeanY)

	err = putHUDText(&frameB, fontFace, text, 16, 40)

	if err != nil {
		return err
	}

	if ok := gocv.IMWrite(outFile, frameB); !ok {
		return fmt.Errorf("error writing image to: %s", outFile)
	}

	log.Printf("wrote %s", outFile)

	return nil
}

// loadFont loads the TTF font and sets up a new font face
func loadFont(fontPath string) (font.Face, error) {

	// load font data
	fontBytes, err := os.ReadFile(fontPath)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	// parse the font
	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	// create a type face
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    TTFFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return face, nil
}

// putHUDText draws the HUD text onto the image with the TTF font face
func putHUDText(img *gocv.Mat, face font.Face, text string, x, y int) error {

	// create image with text writing
	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}),
		image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	dr.DrawString(text)

	// Convert image.RGBA to gocv.Mat
	imgRGBA, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(),
		gocv.MatTypeCV8UC4, rgba.Pix)

	if imgRGBA.Empty() || err != nil {
		return fmt.Errorf("error creating Mat from RGBA")
	}

	defer imgRGBA.Close()

	gocv.CvtColor(imgRGBA, &imgRGBA, gocv.ColorRGBAToBGR)
	gocv.AddWeighted(*img, 1.0, imgRGBA, 1.0, 0, img)

	return nil
}
