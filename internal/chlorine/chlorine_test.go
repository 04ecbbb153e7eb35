package chlorine

import (
	"math"
	"testing"
)

func TestEstimatePPM(t *testing.T) {
	tests := []struct {
		name string
		ph   float64
		orp  float64
		want float64
	}{
		{"zero pH", 0, 700, 0},
		{"zero ORP", 7.2, 0, 0},
		{"NaN pH", math.NaN(), 700, 0},
		{"ORP below range", 7.2, 399, 0},
		{"ORP above range", 7.2, 951, 5},
		{"ORP at upper bound", 7.0, 950, 4},
		{"below first point", 7.0, 500, 0.4},
		{"on 0.5 ppm point", 7.0, 625, 0.5},
		{"between 0.5 and 1", 7.0, 670, 0.8},
		{"on 1 ppm point", 7.2, 705, 1},
		{"between 1 and 2", 7.4, 737, 1.5},
		{"between 3 and 4", 7.8, 815.5, 3.5},
		{"on 4 ppm point", 7.6, 848, 4},
		{"above 4 ppm point", 7.6, 900, 4},
		{"pH clamped low uses 7.0 curve", 5.0, 715, 1},
		{"pH clamped high uses 7.8 curve", 9.0, 675, 1},
		{"pH tie goes to lower curve", 7.1, 715, 1},
		{"pH rounds to nearest curve", 7.25, 705, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimatePPM(tt.ph, tt.orp); got != tt.want {
				t.Errorf("EstimatePPM(%v, %v) = %v, want %v", tt.ph, tt.orp, got, tt.want)
			}
		})
	}
}

func TestEstimatePPM_MonotonicInORP(t *testing.T) {
	for _, ph := range []float64{7.0, 7.2, 7.4, 7.6, 7.8} {
		prev := 0.0
		for orp := 400.0; orp <= 950; orp += 5 {
			got := EstimatePPM(ph, orp)
			if got < prev {
				t.Fatalf("EstimatePPM(%v, %v) = %v decreased from %v", ph, orp, got, prev)
			}
			prev = got
		}
	}
}

func TestNearestCurve(t *testing.T) {
	tests := []struct {
		ph   float64
		want float64
	}{
		{6.5, 7.0},
		{7.0, 7.0},
		{7.31, 7.4},
		{7.69, 7.6},
		{8.0, 7.8},
	}
	for _, tt := range tests {
		if got := nearestCurve(tt.ph).ph; got != tt.want {
			t.Errorf("nearestCurve(%v) = %v, want %v", tt.ph, got, tt.want)
		}
	}
}
