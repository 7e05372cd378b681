package gain

import (
	"math"
	"testing"
)

func TestDbConversion(t *testing.T) {
	tests := []struct {
		db     float64
		linear float64
	}{
		{0, 1},
		{-6.0206, 0.5},
		{20, 10},
	}
	for _, tt := range tests {
		if got := DbToLinear(tt.db); math.Abs(got-tt.linear) > 1e-4 {
			t.Errorf("DbToLinear(%f) = %f, want %f", tt.db, got, tt.linear)
		}
		if got := LinearToDb(tt.linear); math.Abs(got-tt.db) > 1e-3 {
			t.Errorf("LinearToDb(%f) = %f, want %f", tt.linear, got, tt.db)
		}
	}
	if DbToLinear(MinDB) != 0 || LinearToDb(0) != MinDB {
		t.Error("Expected silence to map to MinDB")
	}
}

func TestApplyCurve(t *testing.T) {
	buf := []float32{1, 1, 1, 1}
	ApplyCurve(buf, []float32{0, 0.5, 1})
	want := []float32{0, 0.5, 1, 1}
	for i := range buf {
		if buf[i] != want[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], buf[i])
		}
	}
}

func TestMetering(t *testing.T) {
	buf := []float32{0.5, -1, 0.25}
	if Peak(buf) != 1 {
		t.Errorf("Expected peak 1, got %f", Peak(buf))
	}
	if got := RMS([]float32{1, -1, 1, -1}); got != 1 {
		t.Errorf("Expected RMS 1, got %f", got)
	}
	if RMS(nil) != 0 {
		t.Error("Expected RMS of empty buffer to be 0")
	}
}
