package flowvel

import (
	"testing"
)

func TestSummarize(t *testing.T) {

	tests := []struct {
		name        string
		velX        []float32
		velY        []float32
		wantMeanX   float32
		wantMeanY   float32
		wantStdDevX float32
		wantStdDevY float32
	}{
		{"empty", nil, nil, 0, 0, 0, 0},
		{"single sample", []float32{1.5}, []float32{-0.5}, 1.5, -0.5, 0, 0},
		{"multiple samples", []float32{1, 2, 3}, []float32{-1, 0, 1}, 2, 0, 1, 1},
	}

	for _, tc := range tests {

		sum := Summarize(VelocityResult{
			VelX:    tc.velX,
			VelY:    tc.velY,
			Success: true,
		})

		if sum.Samples != len(tc.velX) {
			t.Errorf("%s: expected %d samples, got %d", tc.name,
				len(tc.velX), sum.Samples)
		}

		if !almostEqual(sum.MeanX, tc.wantMeanX, 1e-6) ||
			!almostEqual(sum.MeanY, tc.wantMeanY, 1e-6) {
			t.Errorf("%s: expected mean (%f, %f), got (%f, %f)", tc.name,
				tc.wantMeanX, tc.wantMeanY, sum.MeanX, sum.MeanY)
		}

		if !almostEqual(sum.StdDevX, tc.wantStdDevX, 1e-6) ||
			!almostEqual(sum.StdDevY, tc.wantStdDevY, 1e-6) {
			t.Errorf("%s: expected stddev (%f, %f), got (%f, %f)", tc.name,
				tc.wantStdDevX, tc.wantStdDevY, sum.StdDevX, sum.StdDevY)
		}
	}
}
