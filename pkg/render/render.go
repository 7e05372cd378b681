package render

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/observability"
)

// Result summarizes a finished render.
type Result struct {
	Frames   int
	Channels int
	Elapsed  time.Duration
}

// Renderer runs jobs on a host.
type Renderer struct {
	host    *host.Host
	log     *logrus.Logger
	metrics *observability.Metrics
}

// NewRenderer creates a renderer. log and metrics may be nil.
func NewRenderer(h *host.Host, log *logrus.Logger, metrics *observability.Metrics) *Renderer {
	if log == nil {
		log = logrus.New()
	}
	return &Renderer{host: h, log: log, metrics: metrics}
}

// stage is a loaded plugin with its block buffers.
type stage struct {
	handle host.Handle
	in     [][]float32
	out    [][]float32
}

// Render runs job. The plugins it loads are unloaded before it returns.
func (r *Renderer) Render(ctx context.Context, job *Job) (res Result, err error) {
	ctx, span := observability.Tracer().Start(ctx, "render.Render")
	defer func() {
		span.SetAttributes(attribute.Int("frames", res.Frames))
		observability.EndSpan(span, err)
	}()
	start := time.Now()

	var input [][]float32
	if job.Input != "" {
		var rate int
		input, rate, err = ReadWAV(job.Input)
		if err != nil {
			return res, err
		}
		if float64(rate) != job.SampleRate {
			r.log.WithFields(logrus.Fields{"file_rate": rate, "job_rate": job.SampleRate}).
				Warn("Input sample rate differs from the job; samples are not resampled")
		}
	}

	total := job.Duration.Frames(job.SampleRate)
	if input != nil {
		total = len(input[0]) + job.Tail.Frames(job.SampleRate)
	}

	stages := make([]*stage, 0, len(job.Plugins))
	defer func() {
		for _, s := range stages {
			if uerr := r.host.UnloadPlugin(context.Background(), s.handle); uerr != nil {
				r.log.WithError(uerr).WithField("handle", s.handle).Warn("Failed to unload render plugin")
			}
		}
	}()
	for _, def := range job.Plugins {
		s, err := r.load(ctx, job, def)
		if s != nil {
			stages = append(stages, s)
		}
		if err != nil {
			return res, err
		}
	}

	last := stages[len(stages)-1]
	res.Channels = max(len(last.out), 1)
	w, err := newWAVWriter(job.Output, int(job.SampleRate), job.BitDepth, res.Channels)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := w.close(); err == nil {
			err = cerr
		}
	}()

	events := job.events()
	next := 0
	for pos := 0; pos < total; {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for ; next < len(events) && events[next].frame <= pos; next++ {
			ev := events[next]
			if err := r.host.AutomateParameter(stages[ev.stage].handle, ev.id, ev.value, ev.ramp); err != nil {
				return res, err
			}
		}

		n := min(job.BlockSize, total-pos)
		if next < len(events) {
			n = min(n, events[next].frame-pos)
		}

		var src [][]float32
		if input != nil {
			src = inputSlice(input, pos, n)
		}
		for _, s := range stages {
			route(src, s.in, n)
			if err := r.host.Process(s.handle, s.in, s.out, n); err != nil {
				return res, err
			}
			src = s.out
		}
		if err := w.write(last.out, n); err != nil {
			return res, fmt.Errorf("write %s: %w", job.Output, err)
		}
		pos += n
		res.Frames = pos
	}

	res.Elapsed = time.Since(start)
	if r.metrics != nil {
		r.metrics.RenderFrames.Add(float64(res.Frames))
	}
	r.log.WithFields(logrus.Fields{
		"output":   job.Output,
		"frames":   res.Frames,
		"channels": res.Channels,
		"elapsed":  res.Elapsed,
	}).Info("Render finished")
	return res, nil
}

// load loads and sets up one stage. A non-nil stage is returned whenever
// the plugin was loaded, so the caller can unload it.
func (r *Renderer) load(ctx context.Context, job *Job, def Stage) (*stage, error) {
	h, err := r.host.LoadPlugin(ctx, def.Path)
	if err != nil {
		return nil, err
	}
	s := &stage{handle: h}
	if err := r.host.Initialize(ctx, h, job.SampleRate, job.BlockSize); err != nil {
		return s, err
	}
	for id, v := range def.Parameters {
		if err := r.host.AutomateParameter(h, id, v, 0); err != nil {
			return s, err
		}
	}
	info, err := r.host.Info(h)
	if err != nil {
		return s, err
	}
	s.in = makeChannels(info.InputChannels, job.BlockSize)
	s.out = makeChannels(info.OutputChannels, job.BlockSize)
	return s, nil
}

func makeChannels(n, frames int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, frames)
	}
	return out
}

// inputSlice returns n frames of input from pos, zero padded past the end.
func inputSlice(input [][]float32, pos, n int) [][]float32 {
	out := make([][]float32, len(input))
	for c, ch := range input {
		buf := make([]float32, n)
		if pos < len(ch) {
			copy(buf, ch[pos:min(len(ch), pos+n)])
		}
		out[c] = buf
	}
	return out
}

// route copies src into dst, cycling through src's channels when dst has
// more. Without a source dst is silenced.
func route(src, dst [][]float32, n int) {
	for c, ch := range dst {
		if len(src) == 0 {
			clear(ch[:n])
			continue
		}
		copy(ch[:n], src[c%len(src)][:n])
	}
}
