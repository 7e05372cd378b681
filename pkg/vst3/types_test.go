package vst3

import (
	"errors"
	"testing"
)

func TestInlineUID(t *testing.T) {
	want := TUID{
		0xE8, 0x31, 0xFF, 0x31, 0xF2, 0xD5, 0x43, 0x01,
		0x92, 0x8E, 0xBB, 0xEE, 0x25, 0x69, 0x78, 0x02,
	}
	if IIDIComponent != want {
		t.Errorf("Expected %v, got %v", want, IIDIComponent)
	}
	if IIDIComponent.String() != "E831FF31F2D54301928EBBEE25697802" {
		t.Errorf("Unexpected string form %s", IIDIComponent.String())
	}
}

func TestParseTUID(t *testing.T) {
	id, err := ParseTUID("42043F99-B7DA453C-A569E79D-9AAEC33D")
	if err != nil {
		t.Fatalf("ParseTUID failed: %v", err)
	}
	if id != IIDIAudioProcessor {
		t.Errorf("Expected IIDIAudioProcessor, got %s", id)
	}

	if _, err := ParseTUID("nope"); err == nil {
		t.Error("Expected error for short uid")
	}
	if (TUID{}).IsZero() != true {
		t.Error("Expected zero TUID to report IsZero")
	}
}

func TestResult(t *testing.T) {
	if ResultOK.Err() != nil {
		t.Errorf("Expected nil error for ResultOK")
	}
	err := ResultInvalidArgument.Err()
	if err == nil {
		t.Fatal("Expected error for ResultInvalidArgument")
	}
	var r Result
	if !errors.As(err, &r) || r != ResultInvalidArgument {
		t.Errorf("Expected Result in chain, got %v", err)
	}
	if ResultNoInterface.Error() != "no interface" {
		t.Errorf("Unexpected message %q", ResultNoInterface.Error())
	}
}

func TestBusInfo(t *testing.T) {
	bus := BusInfo{
		MediaType:    MediaTypeAudio,
		Direction:    BusDirectionInput,
		ChannelCount: 2,
		Name:         "Main Input",
		BusType:      BusTypeMain,
		Flags:        BusDefaultActive,
	}

	if bus.MediaType != MediaTypeAudio {
		t.Errorf("Expected MediaTypeAudio, got %d", bus.MediaType)
	}
	if bus.Flags&BusDefaultActive == 0 {
		t.Errorf("Expected default active flag")
	}
}

func TestProcessSetupValidate(t *testing.T) {
	setup := ProcessSetup{
		ProcessMode:        ProcessModeRealtime,
		SymbolicSampleSize: Sample32,
		MaxSamplesPerBlock: 1024,
		SampleRate:         48000.0,
	}
	if err := setup.Validate(); err != nil {
		t.Errorf("Expected valid setup, got %v", err)
	}

	setup.SampleRate = 0
	if err := setup.Validate(); err == nil {
		t.Error("Expected error for zero sample rate")
	}

	setup.SampleRate = 44100
	setup.MaxSamplesPerBlock = -1
	if err := setup.Validate(); err == nil {
		t.Error("Expected error for negative block size")
	}
}

func TestParameterChanges(t *testing.T) {
	changes := NewParameterChanges(2, 3)

	if !changes.AddPoint(7, 0, 0.25) {
		t.Fatal("AddPoint failed")
	}
	if !changes.AddPoint(7, 10, 0.75) {
		t.Fatal("AddPoint failed")
	}
	if !changes.AddPoint(7, 10, 0.5) {
		t.Fatal("Replacing a point at the same offset failed")
	}
	if changes.AddPoint(7, 5, 0.1) {
		t.Error("Expected out of order point to be rejected")
	}
	if !changes.AddPoint(9, 0, 1) {
		t.Fatal("AddPoint for second parameter failed")
	}
	if changes.AddPoint(11, 0, 1) {
		t.Error("Expected third parameter to be rejected")
	}

	if changes.Count() != 2 {
		t.Errorf("Expected 2 queues, got %d", changes.Count())
	}

	q := changes.Find(7)
	if q == nil || q.PointCount() != 2 {
		t.Fatalf("Expected 2 points for id 7")
	}
	if v, _ := q.ValueAt(5); v != 0.375 {
		t.Errorf("Expected interpolated 0.375, got %f", v)
	}
	if v, _ := q.ValueAt(20); v != 0.5 {
		t.Errorf("Expected held 0.5, got %f", v)
	}

	changes.Clear()
	if changes.Count() != 0 || changes.Find(7) != nil {
		t.Error("Expected Clear to empty the set")
	}
}

func TestProcessDataChannels(t *testing.T) {
	data := &ProcessData{
		NumSamples: 4,
		Outputs: []AudioBusBuffers{
			{Channels: [][]float32{make([]float32, 16)}},
		},
	}
	if got := len(data.Output(0, 0)); got != 4 {
		t.Errorf("Expected 4 samples, got %d", got)
	}
	if data.Output(1, 0) != nil || data.Input(0, 0) != nil {
		t.Error("Expected nil for missing buses")
	}
}
