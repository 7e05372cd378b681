package param

import (
	"math"
	"testing"
)

func TestSmoother(t *testing.T) {
	t.Run("LinearSmoothing", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 10) // 10 samples
		smoother.Reset(0.0)
		smoother.SetTarget(1.0)

		for i := 0; i < 10; i++ {
			value := smoother.Next()
			expected := float64(i+1) * 0.1
			if math.Abs(value-expected) > 0.001 {
				t.Errorf("Sample %d: expected %f, got %f", i, expected, value)
			}
		}

		if smoother.Next() != 1.0 {
			t.Error("Should stay at target after reaching it")
		}
		if smoother.IsSmoothing() {
			t.Error("Should not be smoothing after reaching target")
		}
	})

	t.Run("ExponentialSmoothing", func(t *testing.T) {
		smoother := NewSmoother(ExponentialSmoothing, 0.9)
		smoother.Reset(0.0)
		smoother.SetTarget(1.0)

		prev := 0.0
		for i := 0; i < 50; i++ {
			value := smoother.Next()
			if value <= prev {
				t.Error("Value should be increasing")
			}
			if value >= 1.0 {
				t.Error("Should not exceed target")
			}
			prev = value
		}

		for i := 0; i < 200; i++ {
			smoother.Next()
		}
		if smoother.IsSmoothing() {
			t.Error("Should have reached target by now")
		}
	})

	t.Run("LogarithmicSmoothing", func(t *testing.T) {
		smoother := NewSmoother(LogarithmicSmoothing, 10)
		smoother.Reset(100.0)
		smoother.SetTarget(1000.0)

		values := []float64{}
		for i := 0; i < 10; i++ {
			values = append(values, smoother.Next())
		}

		ratio := values[1] / values[0]
		for i := 2; i < len(values); i++ {
			if math.Abs(values[i]/values[i-1]-ratio) > 0.01 {
				t.Error("Logarithmic interpolation not maintaining constant ratio")
			}
		}
		if values[9] != 1000.0 {
			t.Errorf("Expected to land on target, got %f", values[9])
		}
	})

	t.Run("Threshold", func(t *testing.T) {
		smoother := NewSmoother(ExponentialSmoothing, 0.9)
		smoother.SetThreshold(0.1)
		smoother.Reset(0.0)
		smoother.SetTarget(0.05)

		if smoother.IsSmoothing() {
			t.Error("Should not smooth when change is below threshold")
		}
	})

	t.Run("ZeroRateJumps", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 0)
		smoother.SetTarget(0.7)
		if smoother.IsSmoothing() || smoother.Current() != 0.7 {
			t.Errorf("Expected jump to 0.7, got %f", smoother.Current())
		}
	})

	t.Run("Process", func(t *testing.T) {
		smoother := NewSmoother(LinearSmoothing, 5)
		smoother.Reset(0.0)
		smoother.SetTarget(1.0)

		buffer := []float32{1.0, 1.0, 1.0, 1.0, 1.0}
		smoother.Process(buffer, func(value float64, sample float32) float32 {
			return sample * float32(value)
		})

		expected := []float32{0.2, 0.4, 0.6, 0.8, 1.0}
		for i, v := range buffer {
			if math.Abs(float64(v-expected[i])) > 0.001 {
				t.Errorf("Sample %d: expected %f, got %f", i, expected[i], v)
			}
		}
	})
}

func TestSmootherSkip(t *testing.T) {
	stepped := NewSmoother(LinearSmoothing, 8)
	skipped := NewSmoother(LinearSmoothing, 8)
	stepped.SetTarget(1.0)
	skipped.SetTarget(1.0)

	for i := 0; i < 3; i++ {
		stepped.Next()
	}
	if got, want := skipped.Skip(3), stepped.Current(); math.Abs(got-want) > 1e-12 {
		t.Errorf("Skip(3) = %f, stepping gives %f", got, want)
	}
	if skipped.Remaining() != 5 {
		t.Errorf("Expected 5 remaining, got %d", skipped.Remaining())
	}

	if got := skipped.Skip(100); got != 1.0 || skipped.IsSmoothing() {
		t.Errorf("Expected to finish at 1.0, got %f", got)
	}
}

func TestSmootherRetarget(t *testing.T) {
	s := NewSmoother(LinearSmoothing, 4)
	s.SetTarget(1.0)
	s.Skip(2) // 0.5

	s.SetTarget(0.0)
	if got := s.Next(); math.Abs(got-0.375) > 1e-12 {
		t.Errorf("Expected ramp from 0.5 down, got %f", got)
	}
}

func TestRateForTime(t *testing.T) {
	if got := RateForTime(LinearSmoothing, 48000, 10); got != 480 {
		t.Errorf("Expected 480 samples, got %f", got)
	}
	coeff := RateForTime(ExponentialSmoothing, 48000, 10)
	if coeff <= 0.9 || coeff >= 1 {
		t.Errorf("Unexpected coefficient %f", coeff)
	}
}
