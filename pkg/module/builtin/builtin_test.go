package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/dsp/gain"
	"github.com/justyntemme/vst3host/pkg/module"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

func stereoData(frames int) *vst3.ProcessData {
	mk := func() vst3.AudioBusBuffers {
		return vst3.AudioBusBuffers{Channels: [][]float32{make([]float32, frames), make([]float32, frames)}}
	}
	return &vst3.ProcessData{
		ProcessMode:        vst3.ProcessModeRealtime,
		SymbolicSampleSize: vst3.Sample32,
		NumSamples:         int32(frames),
		Inputs:             []vst3.AudioBusBuffers{mk()},
		Outputs:            []vst3.AudioBusBuffers{mk()},
	}
}

func activate(t *testing.T, b *Base) {
	t.Helper()
	require.NoError(t, b.Initialize(nil))
	require.NoError(t, b.SetupProcessing(vst3.ProcessSetup{
		ProcessMode:        vst3.ProcessModeRealtime,
		SymbolicSampleSize: vst3.Sample32,
		MaxSamplesPerBlock: 256,
		SampleRate:         48000,
	}))
	require.NoError(t, b.SetActive(true))
	require.NoError(t, b.SetProcessing(true))
}

func TestCatalogLoadsModules(t *testing.T) {
	c := DefaultCatalog()
	assert.Contains(t, c.Modules(), "builtin:gain")
	assert.Contains(t, c.Modules(), "builtin:suite")

	m, err := c.Load(context.Background(), "builtin:suite")
	require.NoError(t, err)
	assert.Equal(t, "builtin:suite", m.Path())
	assert.EqualValues(t, 6, m.Factory().CountClasses())

	info, ok := module.FindClass(m.Factory(), "delay")
	require.True(t, ok)
	assert.Equal(t, ClassID("Delay"), info.ID)

	comp, err := m.Factory().CreateComponent(info.ID)
	require.NoError(t, err)
	assert.NotNil(t, comp)

	_, err = m.Factory().CreateComponent(vst3.TUID{})
	assert.Error(t, err)

	_, err = c.Load(context.Background(), "builtin:missing")
	assert.Error(t, err)
}

func TestClassIDIsStable(t *testing.T) {
	assert.Equal(t, ClassID("Gain"), ClassID("gain"))
	assert.NotEqual(t, ClassID("Gain"), ClassID("Synth"))
	assert.False(t, ClassID("Gain").IsZero())
}

func TestCapabilities(t *testing.T) {
	_, ok := vst3.QueryProcessor(NewGain())
	assert.True(t, ok)
	_, ok = vst3.QueryController(NewGain())
	assert.True(t, ok)

	_, ok = vst3.QueryController(NewMeter())
	assert.False(t, ok)

	_, ok = vst3.QueryProcessor(NewRemote())
	assert.False(t, ok)
	_, ok = vst3.QueryController(NewRemote())
	assert.True(t, ok)
}

func TestSetupValidation(t *testing.T) {
	b := NewGain()
	require.NoError(t, b.Initialize(nil))

	setup := vst3.ProcessSetup{SymbolicSampleSize: vst3.Sample32, MaxSamplesPerBlock: 256, SampleRate: 100}
	assert.Error(t, b.SetupProcessing(setup))

	setup.SampleRate = 44100
	setup.SymbolicSampleSize = vst3.Sample64
	assert.Error(t, b.SetupProcessing(setup))

	setup.SymbolicSampleSize = vst3.Sample32
	setup.MaxSamplesPerBlock = MaxBlockSize + 1
	assert.Error(t, b.SetupProcessing(setup))

	assert.Error(t, b.SetActive(true), "activation before a valid setup")

	setup.MaxSamplesPerBlock = 512
	require.NoError(t, b.SetupProcessing(setup))
	require.NoError(t, b.SetActive(true))
	assert.Error(t, b.SetupProcessing(setup), "setup while active")
}

func TestProcessRequiresProcessingState(t *testing.T) {
	b := NewGain()
	assert.ErrorIs(t, b.Process(stereoData(64)), vst3.ResultNotInitialized)

	activate(t, b)
	assert.NoError(t, b.Process(stereoData(64)))
	assert.ErrorIs(t, b.Process(stereoData(512)), vst3.ResultInvalidArgument)
}

func TestGainAppliesLevel(t *testing.T) {
	b := NewGain()
	activate(t, b)
	require.NoError(t, b.SetParamNormalized(GainParamGain, b.PlainToNormalized(GainParamGain, -6)))

	data := stereoData(32)
	for i := range data.Inputs[0].Channels[0] {
		data.Inputs[0].Channels[0][i] = 1
		data.Inputs[0].Channels[1][i] = 1
	}
	require.NoError(t, b.Process(data))
	assert.InDelta(t, gain.DbToLinear(-6), data.Outputs[0].Channels[0][31], 1e-4)

	require.NoError(t, b.SetParamNormalized(GainParamBypass, 1))
	require.NoError(t, b.Process(data))
	assert.InDelta(t, 1.0, data.Outputs[0].Channels[1][0], 1e-6)
}

func TestGainFollowsAutomation(t *testing.T) {
	b := NewGain()
	activate(t, b)

	data := stereoData(64)
	for i := range data.Inputs[0].Channels[0] {
		data.Inputs[0].Channels[0][i] = 1
	}
	changes := vst3.NewParameterChanges(4, 8)
	lo := b.PlainToNormalized(GainParamGain, -60)
	hi := b.PlainToNormalized(GainParamGain, 0)
	require.True(t, changes.AddPoint(GainParamGain, 0, lo))
	require.True(t, changes.AddPoint(GainParamGain, 63, hi))
	data.InputParameterChanges = changes

	require.NoError(t, b.Process(data))
	out := data.Outputs[0].Channels[0]
	assert.Less(t, out[0], float32(0.01))
	assert.InDelta(t, 1.0, out[63], 1e-4)
	assert.Less(t, out[16], out[48])
	assert.InDelta(t, hi, b.ParamNormalized(GainParamGain), 1e-9, "last point is committed")
}

func TestSynthRenders(t *testing.T) {
	b := NewSynth()
	activate(t, b)

	data := stereoData(256)
	require.NoError(t, b.Process(data))
	left, right := data.Outputs[0].Channels[0], data.Outputs[0].Channels[1]
	assert.Greater(t, gain.Peak(left), float32(0.1))
	assert.Equal(t, left, right)

	require.NoError(t, b.SetParamNormalized(SynthParamLevel, 0))
	require.NoError(t, b.Process(data))
	assert.Zero(t, gain.Peak(left))
}

func TestDelayEchoes(t *testing.T) {
	b := NewDelay()
	activate(t, b)
	require.NoError(t, b.SetParamNormalized(DelayParamMix, 1))
	require.NoError(t, b.SetParamNormalized(DelayParamTime, b.PlainToNormalized(DelayParamTime, 1)))
	require.NoError(t, b.SetParamNormalized(DelayParamFeedback, 0))

	data := stereoData(128)
	data.Inputs[0].Channels[0][0] = 1
	require.NoError(t, b.Process(data))

	out := data.Outputs[0].Channels[0]
	assert.Zero(t, out[0])
	assert.InDelta(t, 1.0, gain.Peak(out), 1e-3)
}

func TestReverbAddsTail(t *testing.T) {
	b := NewReverb()
	activate(t, b)
	require.NoError(t, b.SetParamNormalized(ReverbParamMix, 1))

	data := stereoData(256)
	data.Inputs[0].Channels[0][0] = 1
	data.Inputs[0].Channels[1][0] = 1
	require.NoError(t, b.Process(data))
	assert.Zero(t, gain.Peak(data.Outputs[0].Channels[0]), "no tail before the first comb")

	tail := false
	for block := 0; block < 20 && !tail; block++ {
		data = stereoData(256)
		require.NoError(t, b.Process(data))
		tail = gain.Peak(data.Outputs[0].Channels[0]) > 0
	}
	assert.True(t, tail)

	require.NoError(t, b.SetActive(false))
	require.NoError(t, b.SetActive(true))
	require.NoError(t, b.SetProcessing(true))
	data = stereoData(256)
	require.NoError(t, b.Process(data))
	assert.Zero(t, gain.Peak(data.Outputs[0].Channels[0]), "deactivation clears the tail")
}

func TestMeterReportsPeak(t *testing.T) {
	m := NewMeter()
	activate(t, m.Base)

	data := stereoData(16)
	data.Inputs[0].Channels[1][3] = -0.75
	require.NoError(t, m.Process(data))
	assert.InDelta(t, 0.75, m.Peak(), 1e-6)

	require.NoError(t, m.SetActive(false))
	assert.Zero(t, m.Peak())
}
