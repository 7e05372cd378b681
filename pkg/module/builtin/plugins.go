package builtin

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/dsp/delay"
	"github.com/justyntemme/vst3host/pkg/dsp/gain"
	"github.com/justyntemme/vst3host/pkg/dsp/oscillator"
	"github.com/justyntemme/vst3host/pkg/dsp/reverb"
	"github.com/justyntemme/vst3host/pkg/framework/bus"
	"github.com/justyntemme/vst3host/pkg/framework/param"
	"github.com/justyntemme/vst3host/pkg/framework/process"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Parameter IDs of the builtin plugins
const (
	GainParamGain   uint32 = 0
	GainParamBypass uint32 = 1

	SynthParamLevel     uint32 = 0
	SynthParamFrequency uint32 = 1
	SynthParamWaveform  uint32 = 2

	DelayParamMix      uint32 = 0
	DelayParamTime     uint32 = 1
	DelayParamFeedback uint32 = 2

	ReverbParamMix     uint32 = 0
	ReverbParamRoom    uint32 = 1
	ReverbParamDamping uint32 = 2
)

type gainKernel struct {
	gain *param.Parameter
}

// NewGain creates a stereo gain with a bypass switch.
func NewGain() *Base {
	k := &gainKernel{
		gain: param.New(GainParamGain, "Gain").Range(-60, 12).Default(0).Unit("dB").Build(),
	}
	params := param.NewRegistry()
	params.Add(k.gain, param.New(GainParamBypass, "Bypass").Bypass().Build())
	return NewBase(bus.NewStereoConfiguration(), params, k, true)
}

func (k *gainKernel) Setup(float64, int) {}
func (k *gainKernel) Reset()             {}

func (k *gainKernel) Process(ctx *process.Context) {
	ctx.PassThrough()
	if ctx.ParamAt(GainParamBypass, 0) >= 0.5 {
		return
	}
	if !ctx.Automated(GainParamGain) {
		g := float32(gain.DbToLinear(k.gain.GetPlainValue()))
		for _, ch := range ctx.Output {
			gain.ApplyBuffer(ch, g)
		}
		return
	}
	curve := ctx.WorkBuffer()
	for i := range curve {
		curve[i] = float32(gain.DbToLinear(k.gain.Denormalize(ctx.ParamAt(GainParamGain, i))))
	}
	for _, ch := range ctx.Output {
		gain.ApplyCurve(ch, curve)
	}
}

type synthKernel struct {
	osc       *oscillator.Oscillator
	frequency *param.Parameter
	waveform  *param.Parameter
}

// NewSynth creates a tone generator with level, frequency and waveform.
func NewSynth() *Base {
	k := &synthKernel{
		osc:       oscillator.New(48000),
		frequency: param.New(SynthParamFrequency, "Frequency").Range(20, 20000).Default(440).Unit("Hz").Build(),
		waveform:  param.New(SynthParamWaveform, "Waveform").Range(0, oscillator.WaveformCount-1).Steps(oscillator.WaveformCount - 1).Build(),
	}
	params := param.NewRegistry()
	params.Add(
		param.New(SynthParamLevel, "Level").Default(0.5).Build(),
		k.frequency,
		k.waveform,
	)
	return NewBase(bus.NewGenerator(), params, k, true)
}

func (k *synthKernel) Setup(sampleRate float64, _ int) {
	k.osc.SetSampleRate(sampleRate)
}

func (k *synthKernel) Reset() {
	k.osc.Reset()
}

func (k *synthKernel) Process(ctx *process.Context) {
	if ctx.NumOutputChannels() == 0 {
		return
	}
	wave := oscillator.Waveform(k.waveform.Denormalize(ctx.ParamAt(SynthParamWaveform, 0)))
	automated := ctx.Automated(SynthParamFrequency) || ctx.Automated(SynthParamLevel)

	out := ctx.Output[0]
	if !automated {
		k.osc.SetFrequency(k.frequency.GetPlainValue())
		k.osc.Process(out, wave)
		gain.ApplyBuffer(out, float32(ctx.Param(SynthParamLevel)))
	} else {
		for i := range out {
			k.osc.SetFrequency(k.frequency.Denormalize(ctx.ParamAt(SynthParamFrequency, i)))
			out[i] = k.osc.Next(wave) * float32(ctx.ParamAt(SynthParamLevel, i))
		}
	}
	for _, ch := range ctx.Output[1:] {
		copy(ch, out)
	}
}

type delayKernel struct {
	lines    []*delay.Line
	time     *param.Parameter
	feedback *param.Parameter
}

// NewDelay creates a stereo feedback delay.
func NewDelay() *Base {
	k := &delayKernel{
		time:     param.New(DelayParamTime, "Time").Range(1, 2000).Default(250).Unit("ms").Build(),
		feedback: param.New(DelayParamFeedback, "Feedback").Range(0, 0.95).Default(0.3).Build(),
	}
	params := param.NewRegistry()
	params.Add(
		param.New(DelayParamMix, "Mix").Default(0.5).Build(),
		k.time,
		k.feedback,
	)
	return NewBase(bus.NewStereoConfiguration(), params, k, true)
}

func (k *delayKernel) Setup(sampleRate float64, _ int) {
	k.lines = []*delay.Line{delay.New(2.0, sampleRate), delay.New(2.0, sampleRate)}
}

func (k *delayKernel) Reset() {
	for _, l := range k.lines {
		l.Reset()
	}
}

func (k *delayKernel) Process(ctx *process.Context) {
	ctx.PassThrough()
	for c, ch := range ctx.Output {
		if c >= len(k.lines) {
			break
		}
		line := k.lines[c]
		for i, dry := range ch {
			mix := float32(ctx.ParamAt(DelayParamMix, i))
			samples := line.SamplesForMs(k.time.Denormalize(ctx.ParamAt(DelayParamTime, i)))
			fb := float32(k.feedback.Denormalize(ctx.ParamAt(DelayParamFeedback, i)))
			wet := line.Process(dry, samples, fb)
			ch[i] = dry*(1-mix) + wet*mix
		}
	}
}

type reverbKernel struct {
	verb    *reverb.Freeverb
	room    *param.Parameter
	damping *param.Parameter
}

// NewReverb creates a stereo room reverb.
func NewReverb() *Base {
	k := &reverbKernel{
		verb:    reverb.New(48000),
		room:    param.New(ReverbParamRoom, "Room Size").Default(0.5).Build(),
		damping: param.New(ReverbParamDamping, "Damping").Default(0.5).Build(),
	}
	params := param.NewRegistry()
	params.Add(param.New(ReverbParamMix, "Mix").Default(0.5).Build(), k.room, k.damping)
	return NewBase(bus.NewStereoConfiguration(), params, k, true)
}

func (k *reverbKernel) Setup(sampleRate float64, _ int) {
	k.verb = reverb.New(sampleRate)
}

func (k *reverbKernel) Reset() {
	k.verb.Reset()
}

func (k *reverbKernel) Process(ctx *process.Context) {
	ctx.PassThrough()
	if ctx.NumOutputChannels() < 2 {
		return
	}
	left, right := ctx.Output[0], ctx.Output[1]
	automated := ctx.Automated(ReverbParamRoom) || ctx.Automated(ReverbParamDamping)
	if !automated {
		k.verb.SetRoomSize(k.room.GetValue())
		k.verb.SetDamping(k.damping.GetValue())
	}
	for i := range left {
		if automated {
			k.verb.SetRoomSize(ctx.ParamAt(ReverbParamRoom, i))
			k.verb.SetDamping(ctx.ParamAt(ReverbParamDamping, i))
		}
		mix := float32(ctx.ParamAt(ReverbParamMix, i))
		wetL, wetR := k.verb.Process(left[i], right[i])
		left[i] = left[i]*(1-mix) + wetL*mix
		right[i] = right[i]*(1-mix) + wetR*mix
	}
}

// meterKernel passes audio through and keeps the last block's peak.
type meterKernel struct {
	peak atomic.Uint32
}

// Meter is a processor without a controller.
type Meter struct {
	*Base
	kernel *meterKernel
}

// NewMeter creates a pass-through peak meter with no controller.
func NewMeter() *Meter {
	k := &meterKernel{}
	return &Meter{Base: NewBase(bus.NewStereoConfiguration(), nil, k, false), kernel: k}
}

// Peak returns the peak of the last processed block.
func (m *Meter) Peak() float32 {
	return math.Float32frombits(m.kernel.peak.Load())
}

func (k *meterKernel) Setup(float64, int) {}
func (k *meterKernel) Reset()             { k.peak.Store(0) }

func (k *meterKernel) Process(ctx *process.Context) {
	ctx.PassThrough()
	var peak float32
	for _, ch := range ctx.Output {
		peak = max(peak, gain.Peak(ch))
	}
	k.peak.Store(math.Float32bits(peak))
}

// Remote is a controller without an audio processor, the shape of a
// remote-control surface plugin.
type Remote struct {
	*Base
}

// NewRemote creates a component that cannot process audio.
func NewRemote() *Remote {
	params := param.NewRegistry()
	params.Add(param.New(0, "Value").Build())
	return &Remote{Base: NewBase(bus.NewConfiguration(), params, nil, true)}
}

// QueryInterface refuses the processor capability.
func (r *Remote) QueryInterface(iid vst3.TUID) (interface{}, error) {
	switch iid {
	case vst3.IIDIAudioProcessor:
		return nil, vst3.ResultNoInterface
	case vst3.IIDIEditController:
		return r.Base, nil
	}
	return r.Base.QueryInterface(iid)
}
