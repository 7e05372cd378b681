package process

import (
	"testing"

	"github.com/justyntemme/vst3host/pkg/framework/param"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

func newData(n int32) *vst3.ProcessData {
	return &vst3.ProcessData{
		NumSamples: n,
		Inputs: []vst3.AudioBusBuffers{{Channels: [][]float32{
			{1, 2, 3, 4, 5, 6, 7, 8}, {8, 7, 6, 5, 4, 3, 2, 1},
		}}},
		Outputs: []vst3.AudioBusBuffers{{Channels: [][]float32{
			make([]float32, 8), make([]float32, 8),
		}}},
		InputParameterChanges: vst3.NewParameterChanges(4, 4),
	}
}

func TestContextBind(t *testing.T) {
	ctx := NewContext(8, 2, param.NewRegistry())
	data := newData(4)
	ctx.Bind(data)

	if ctx.NumSamples() != 4 || len(ctx.Input[0]) != 4 || len(ctx.WorkBuffer()) != 4 {
		t.Fatalf("Expected 4 sample views")
	}

	ctx.PassThrough()
	if data.Outputs[0].Channels[1][0] != 8 || data.Outputs[0].Channels[1][4] != 0 {
		t.Errorf("PassThrough copied the wrong range: %v", data.Outputs[0].Channels[1])
	}

	ctx.Clear()
	if data.Outputs[0].Channels[0][0] != 0 {
		t.Error("Expected Clear to zero outputs")
	}
}

func TestContextAutomation(t *testing.T) {
	params := param.NewRegistry()
	params.Add(param.New(1, "Level").Default(0.2).Build())
	ctx := NewContext(8, 2, params)

	data := newData(8)
	data.InputParameterChanges.AddPoint(1, 0, 0.0)
	data.InputParameterChanges.AddPoint(1, 8, 1.0)
	ctx.Bind(data)

	if !ctx.Automated(1) || ctx.Automated(2) {
		t.Error("Unexpected automation state")
	}
	if got := ctx.ParamAt(1, 4); got != 0.5 {
		t.Errorf("Expected 0.5 at offset 4, got %f", got)
	}
	if got := ctx.Param(1); got != 0.2 {
		t.Errorf("Expected stored value before commit, got %f", got)
	}

	ctx.CommitChanges()
	if got := ctx.Param(1); got != 1.0 {
		t.Errorf("Expected committed 1.0, got %f", got)
	}
}
