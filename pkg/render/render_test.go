package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/dsp/gain"
	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/module/builtin"
	"github.com/justyntemme/vst3host/pkg/observability"
)

func newTestRenderer(t *testing.T) (*Renderer, *host.Host, *observability.Metrics) {
	t.Helper()
	log := observability.Discard()
	metrics := observability.NewMetrics(nil)
	h, err := host.New(host.Options{Logger: log, Metrics: metrics, Offline: true})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close(context.Background()) })
	return NewRenderer(h, log, metrics), h, metrics
}

func constant(channels, frames int, v float32) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
		for i := range out[c] {
			out[c][i] = v
		}
	}
	return out
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	in := [][]float32{{0, 0.5, -0.5, 1.5}, {0.25, -1, 0, 0}}
	require.NoError(t, WriteWAV(path, in, 44100, 24))

	out, rate, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	require.Len(t, out, 2)
	require.Len(t, out[0], 4)
	assert.InDelta(t, 0.5, out[0][1], 1e-6)
	assert.InDelta(t, -0.5, out[0][2], 1e-6)
	assert.InDelta(t, 1.0, out[0][3], 1e-6, "clipped")
	assert.InDelta(t, -1.0, out[1][1], 1e-6)
}

func TestRenderGain(t *testing.T) {
	r, h, metrics := newTestRenderer(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	require.NoError(t, WriteWAV(in, constant(2, 1000, 0.5), 48000, 16))

	minus6 := (-6 + 60) / 72.0
	job := &Job{
		Input:   in,
		Output:  filepath.Join(dir, "out.wav"),
		Tail:    Duration(time.Millisecond),
		Plugins: []Stage{{Path: "builtin:gain", Parameters: map[uint32]float64{builtin.GainParamGain: minus6}}},
	}
	job.withDefaults()
	require.NoError(t, job.Validate())

	res, err := r.Render(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1048, res.Frames)
	assert.Equal(t, 2, res.Channels)
	assert.Empty(t, h.Handles(), "render unloads its plugins")
	assert.Equal(t, 1048.0, testutil.ToFloat64(metrics.RenderFrames))

	out, _, err := ReadWAV(job.Output)
	require.NoError(t, err)
	require.Len(t, out[0], 1048)
	want := float32(0.5 * gain.DbToLinear(-6))
	assert.InDelta(t, want, out[0][0], 1e-3)
	assert.InDelta(t, want, out[1][999], 1e-3)
	assert.InDelta(t, 0, out[0][1047], 1e-3, "tail is silent")
}

func TestRenderAutomationIsSampleAccurate(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	job := &Job{
		Output:   filepath.Join(t.TempDir(), "synth.wav"),
		Duration: Duration(100 * time.Millisecond),
		Plugins: []Stage{{
			Path:       "builtin:synth",
			Parameters: map[uint32]float64{builtin.SynthParamLevel: 0.8},
			Automation: []Automation{{ID: builtin.SynthParamLevel, At: Duration(50 * time.Millisecond), Value: 0}},
		}},
	}
	job.withDefaults()

	res, err := r.Render(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 4800, res.Frames)

	out, _, err := ReadWAV(job.Output)
	require.NoError(t, err)
	assert.Greater(t, gain.Peak(out[0][:2400]), float32(0.5))
	assert.Zero(t, gain.Peak(out[0][2400:]), "silent from the automation frame on")
	assert.Equal(t, out[0], out[1])
}

func TestRenderChain(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	job := &Job{
		Output:   filepath.Join(t.TempDir(), "chain.wav"),
		Duration: Duration(20 * time.Millisecond),
		Plugins: []Stage{
			{Path: "builtin:synth"},
			{Path: "builtin:delay", Parameters: map[uint32]float64{builtin.DelayParamMix: 0}},
		},
	}
	job.withDefaults()

	res, err := r.Render(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 960, res.Frames)
	out, _, err := ReadWAV(job.Output)
	require.NoError(t, err)
	assert.Greater(t, gain.Peak(out[1]), float32(0.25), "dry synth reaches the output")
}

func TestRenderFailureUnloads(t *testing.T) {
	r, h, _ := newTestRenderer(t)
	job := &Job{
		Output:   filepath.Join(t.TempDir(), "x.wav"),
		Duration: Duration(time.Millisecond),
		Plugins:  []Stage{{Path: "builtin:gain"}, {Path: "builtin:remote"}},
	}
	job.withDefaults()
	_, err := r.Render(context.Background(), job)
	require.Error(t, err)
	assert.Empty(t, h.Handles())
}

func TestLoadJob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output: out.wav
duration: 1.5s
block_size: 256
plugins:
  - path: builtin:synth
    parameters:
      0: 0.25
    automation:
      - id: 1
        at: 500ms
        value: 0.75
        ramp: 100ms
`), 0o644))

	job, err := LoadJob(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.wav"), job.Output)
	assert.Equal(t, 48000.0, job.SampleRate)
	assert.Equal(t, 256, job.BlockSize)
	assert.Equal(t, 16, job.BitDepth)
	assert.Equal(t, 72000, job.Duration.Frames(job.SampleRate))
	require.Len(t, job.Plugins, 1)
	assert.Equal(t, "builtin:synth", job.Plugins[0].Path)
	assert.Equal(t, 0.25, job.Plugins[0].Parameters[0])

	events := job.events()
	require.Len(t, events, 1)
	assert.Equal(t, event{stage: 0, frame: 24000, id: 1, value: 0.75, ramp: 4800}, events[0])
}

func TestJobValidation(t *testing.T) {
	valid := func() *Job {
		j := &Job{Output: "o.wav", Duration: Duration(time.Second), Plugins: []Stage{{Path: "builtin:gain"}}}
		j.withDefaults()
		return j
	}
	tests := []struct {
		name   string
		modify func(*Job)
	}{
		{"no output", func(j *Job) { j.Output = "" }},
		{"no plugins", func(j *Job) { j.Plugins = nil }},
		{"no duration or input", func(j *Job) { j.Duration = 0 }},
		{"bad bit depth", func(j *Job) { j.BitDepth = 12 }},
		{"empty plugin path", func(j *Job) { j.Plugins[0].Path = "" }},
		{"negative automation", func(j *Job) {
			j.Plugins[0].Automation = []Automation{{At: Duration(-time.Second)}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := valid()
			tt.modify(j)
			assert.Error(t, j.Validate())
		})
	}
	assert.NoError(t, valid().Validate())
}

func TestLoadJobErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("output: o.wav\nduration: soon\nplugins: [{path: builtin:gain}]\n"), 0o644))
	_, err := LoadJob(bad)
	assert.ErrorContains(t, err, "line 2")

	_, err = LoadJob(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
