package main

import (
	"flag"
	"log"
	"time"

	"github.com/aeroview/go-flowvel"
	"github.com/aeroview/go-flowvel/render"
	"gocv.io/x/gocv"
)

func main() {

	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	vidFile := flag.String("v", "drone-down.mp4", "Video file to run velocity estimation on")
	outFile := flag.String("o", "", "Optional output video file with flow vectors rendered")
	focal := flag.Float64("f", 0.004, "Camera focal length in meters")
	sensorW := flag.Float64("sw", 0.0064, "Camera sensor width in meters")
	sensorH := flag.Float64("sh", 0.0048, "Camera sensor height in meters")
	height := flag.Float64("a", 2.0, "Height above ground in meters")
	platform := flag.String("p", "", "Optional platform to pin CPU cores on, rk3576|rk3588|rpi5")
	flag.Parse()

	err := run(*vidFile, *outFile, float32(*focal), float32(*sensorW),
		float32(*sensorH), float32(*height), *platform)

	if err != nil {
		log.Fatal(err)
	}
}

func run(vidFile, outFile string, focal, sensorW, sensorH,
	height float32, platform string) error {

	if platform != "" {
		// pin the tracking loop to the fast cores
		err := flowvel.SetCPUAffinityByPlatform(platform, flowvel.FastCores)

		if err != nil {
			return err
		}
	}

	vid, err := gocv.OpenVideoCapture(vidFile)

	if err != nil {
		return err
	}

	defer vid.Close()

	// frame interval from the video's frame rate
	fps := vid.Get(gocv.VideoCaptureFPS)

	if fps <= 0 {
		fps = 30
	}

	tracker, err := flowvel.NewTracker(flowvel.MethodLucasKanade,
		float32(1.0/fps), focal, sensorW, sensorH)

	if err != nil {
		return err
	}

	defer tracker.Close()

	var writer *gocv.VideoWriter

	flowStyle := render.DefaultFlowStyle()
	font := render.DefaultFont()

	img := gocv.NewMat()
	defer img.Close()

	frameNum := 0

	for {
		if ok := vid.Read(&img); !ok || img.Empty() {
			break
		}

		frameNum++

		if outFile != "" && writer == nil {
			writer, err = gocv.VideoWriterFile(outFile, "mp4v", fps,
				img.Cols(), img.Rows(), true)

			if err != nil {
				return err
			}

			defer writer.Close()
		}

		start := time.Now()

		res := tracker.ComputeVelocity(img, height)
		sum := flowvel.Summarize(res)

		elapsed := time.Since(start)

		log.Printf("frame %d: vx=%.3f m/s, vy=%.3f m/s, features=%d, took %s",
			frameNum, sum.MeanX, sum.MeanY, sum.Samples, elapsed)

		if writer != nil {
			render.Flow(&img, res, flowStyle)
			render.VelocityLabel(&img, sum, font)

			err = writer.Write(img)

			if err != nil {
				return err
			}
		}
	}

	log.Printf("done, processed %d frames", frameNum)

	return nil
}
