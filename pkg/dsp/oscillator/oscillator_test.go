package oscillator

import (
	"math"
	"testing"
)

func TestSine(t *testing.T) {
	o := New(8)
	o.SetFrequency(1) // 8 samples per cycle

	buf := make([]float32, 8)
	o.Process(buf, Sine)

	if buf[0] != 0 {
		t.Errorf("Expected sine to start at 0, got %f", buf[0])
	}
	if math.Abs(float64(buf[2]-1)) > 1e-6 {
		t.Errorf("Expected peak at quarter cycle, got %f", buf[2])
	}
}

func TestWaveformsStayInRange(t *testing.T) {
	for w := Waveform(0); w < WaveformCount; w++ {
		o := New(48000)
		o.SetFrequency(1234)
		for i := 0; i < 1000; i++ {
			s := o.Next(w)
			if s < -1 || s > 1 {
				t.Fatalf("Waveform %d out of range: %f", w, s)
			}
		}
	}
}

func TestSetSampleRateKeepsFrequency(t *testing.T) {
	o := New(44100)
	o.SetFrequency(100)
	o.SetSampleRate(48000)
	if o.Frequency() != 100 {
		t.Errorf("Expected 100 Hz, got %f", o.Frequency())
	}
}
