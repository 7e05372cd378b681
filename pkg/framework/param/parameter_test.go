package param

import (
	"math"
	"testing"
)

func TestParameterValue(t *testing.T) {
	p := New(1, "Gain").Range(-60, 12).Default(0).Unit("dB").Build()

	if math.Abs(p.GetPlainValue()) > 1e-9 {
		t.Errorf("Expected default plain 0 dB, got %f", p.GetPlainValue())
	}

	p.SetValue(1.5)
	if p.GetValue() != 1 {
		t.Errorf("Expected clamp to 1, got %f", p.GetValue())
	}
	p.SetValue(math.NaN())
	if p.GetValue() != 0 {
		t.Errorf("Expected NaN to clamp to 0, got %f", p.GetValue())
	}
	if got := p.FormatValue(1); got != "12.00" {
		t.Errorf("Expected 12.00, got %s", got)
	}
}

func TestSteppedParameter(t *testing.T) {
	p := New(2, "Wave").Range(0, 3).Steps(3).Build()
	if got := p.Denormalize(0.4); got != 1 {
		t.Errorf("Expected step 1, got %f", got)
	}
	if got := p.FormatValue(1); got != "3" {
		t.Errorf("Expected 3, got %s", got)
	}

	bypass := New(3, "Bypass").Bypass().Build()
	if bypass.Flags&IsBypass == 0 || bypass.StepCount != 1 {
		t.Error("Expected bypass toggle")
	}
}

func TestParseValue(t *testing.T) {
	p := New(1, "Time").Range(0, 1000).Build()
	v, err := p.ParseValue("250")
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	if v != 0.25 {
		t.Errorf("Expected 0.25, got %f", v)
	}
	if _, err := p.ParseValue("abc"); err == nil {
		t.Error("Expected parse error")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Add(
		New(10, "A").Build(),
		New(20, "B").Default(0.5).Build(),
		New(10, "Duplicate").Build(),
	)

	if r.Count() != 2 {
		t.Fatalf("Expected 2 parameters, got %d", r.Count())
	}
	if r.GetByIndex(1).ID != 20 {
		t.Errorf("Expected index 1 to be ID 20")
	}
	if r.GetByIndex(5) != nil {
		t.Error("Expected nil for out of range index")
	}
	if r.Value(20) != 0.5 {
		t.Errorf("Expected 0.5, got %f", r.Value(20))
	}
	if r.Value(99) != 0 {
		t.Error("Expected 0 for unknown id")
	}

	infos := r.Infos()
	if len(infos) != 2 || infos[0].Title != "A" || infos[0].Flags&CanAutomate == 0 {
		t.Errorf("Unexpected infos %+v", infos)
	}
}
