package flowvel

import (
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the per-feature velocity estimates of one tracking
// cycle into a single estimate.  Units are m/s along the vehicle forward
// (X) and lateral (Y) axes.
type Summary struct {
	MeanX   float32
	MeanY   float32
	StdDevX float32
	StdDevY float32
	// Samples is the number of surviving features the summary was
	// computed over
	Samples int
}

// Summarize computes the mean and standard deviation of the velocity
// samples in res.  A result with no surviving features yields a zero
// Summary.
func Summarize(res VelocityResult) Summary {

	s := Summary{
		Samples: res.Count(),
	}

	if s.Samples == 0 {
		return s
	}

	meanX, stdX := stat.MeanStdDev(toFloat64(res.VelX), nil)
	meanY, stdY := stat.MeanStdDev(toFloat64(res.VelY), nil)

	s.MeanX = float32(meanX)
	s.MeanY = float32(meanY)

	// MeanStdDev returns NaN deviation for a single sample
	if s.Samples > 1 {
		s.StdDevX = float32(stdX)
		s.StdDevY = float32(stdY)
	}

	return s
}

// toFloat64 widens a velocity sample slice for the gonum stat functions
func toFloat64(in []float32) []float64 {

	out := make([]float64, len(in))

	for i, v := range in {
		out[i] = float64(v)
	}

	return out
}
