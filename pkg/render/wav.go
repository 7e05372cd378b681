package render

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV decodes a PCM WAV file into per-channel float samples in
// [-1, 1].
func ReadWAV(path string) (channels [][]float32, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	nch := buf.Format.NumChannels
	if nch <= 0 {
		return nil, 0, fmt.Errorf("%s: no channels", path)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	scale := float32(math.Exp2(float64(depth - 1)))
	frames := len(buf.Data) / nch
	channels = make([][]float32, nch)
	for c := range channels {
		channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < nch; c++ {
			channels[c][i] = float32(buf.Data[i*nch+c]) / scale
		}
	}
	return channels, buf.Format.SampleRate, nil
}

// wavWriter streams interleaved PCM to a WAV file.
type wavWriter struct {
	f     *os.File
	enc   *wav.Encoder
	buf   *audio.IntBuffer
	scale float64
	limit int
}

func newWAVWriter(path string, sampleRate, bitDepth, channels int) (*wavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &wavWriter{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, bitDepth, channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
			SourceBitDepth: bitDepth,
		},
		scale: math.Exp2(float64(bitDepth - 1)),
		limit: audio.IntMaxSignedValue(bitDepth),
	}, nil
}

// write appends n frames of channels, clipping to full scale.
func (w *wavWriter) write(channels [][]float32, n int) error {
	nch := w.buf.Format.NumChannels
	data := w.buf.Data[:0]
	for i := 0; i < n; i++ {
		for c := 0; c < nch; c++ {
			v := 0
			if c < len(channels) {
				v = int(math.Round(float64(channels[c][i]) * w.scale))
			}
			data = append(data, max(-w.limit-1, min(w.limit, v)))
		}
	}
	w.buf.Data = data
	return w.enc.Write(w.buf)
}

func (w *wavWriter) close() error {
	return errors.Join(w.enc.Close(), w.f.Close())
}

// WriteWAV writes channels to path as PCM.
func WriteWAV(path string, channels [][]float32, sampleRate, bitDepth int) error {
	nch := max(len(channels), 1)
	w, err := newWAVWriter(path, sampleRate, bitDepth, nch)
	if err != nil {
		return err
	}
	frames := 0
	if len(channels) > 0 {
		frames = len(channels[0])
	}
	if err := w.write(channels, frames); err != nil {
		w.close()
		return err
	}
	return w.close()
}
