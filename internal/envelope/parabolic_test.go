package envelope

import (
	"math"
	"testing"
)

func TestParabolicShape(t *testing.T) {
	for _, tc := range []struct {
		name     string
		duration int
		peak     float32
	}{
		{"short", 256, 1.0},
		{"grain default", 3000, 0.7},
		{"long", 44100, 0.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := NewParabolic(float32(tc.duration), tc.peak)
			values := make([]float32, tc.duration)
			var maxVal float32
			maxIdx := 0
			for i := range values {
				v := env.Process()
				if v < 0 {
					t.Fatalf("sample %d negative: %f", i, v)
				}
				values[i] = v
				if v > maxVal {
					maxVal = v
					maxIdx = i
				}
			}
			tol := float64(tc.peak) * 0.05
			if math.Abs(float64(values[0])) > tol {
				t.Errorf("start = %f, want ~0", values[0])
			}
			if math.Abs(float64(values[len(values)-1])) > tol {
				t.Errorf("end = %f, want ~0", values[len(values)-1])
			}
			if math.Abs(float64(maxVal-tc.peak)) > tol {
				t.Errorf("peak = %f, want ~%f", maxVal, tc.peak)
			}
			mid := tc.duration / 2
			if d := maxIdx - mid; d < -tc.duration/20 || d > tc.duration/20 {
				t.Errorf("peak at %d, want near %d", maxIdx, mid)
			}
		})
	}
}

func TestParabolicRestartsPastDuration(t *testing.T) {
	env := NewParabolic(100, 1)
	for i := 0; i < 1000; i++ {
		v := env.Process()
		if v < 0 {
			t.Fatalf("sample %d negative: %f", i, v)
		}
		// Driven for ten lengths it keeps producing bounded bumps.
		if v > 1.05 {
			t.Fatalf("sample %d runaway amplitude %f", i, v)
		}
	}
}

func TestParabolicIsDeterministic(t *testing.T) {
	a := NewParabolic(500, 0.7)
	b := NewParabolic(500, 0.7)
	for i := 0; i < 1500; i++ {
		if x, y := a.Process(), b.Process(); x != y {
			t.Fatalf("sample %d differs: %f vs %f", i, x, y)
		}
	}
}
