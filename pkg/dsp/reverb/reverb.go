// Package reverb provides a Freeverb-style stereo reverb.
package reverb

// Tuning at 44.1kHz, scaled to the running sample rate.
const (
	numCombs     = 8
	numAllpasses = 4
	stereoSpread = 23
	inputGain    = 0.015
	scaleDamping = 0.4
	scaleRoom    = 0.28
	offsetRoom   = 0.7
	allpassGain  = 0.5
)

var (
	combTuning    = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTuning = [numAllpasses]int{556, 441, 341, 225}
)

// comb is a feedback comb with a one-pole lowpass in the loop
type comb struct {
	buf      []float32
	pos      int
	store    float32
	feedback float32
	damp1    float32
	damp2    float32
}

func (c *comb) process(in float32) float32 {
	out := c.buf[c.pos]
	c.store = out*c.damp2 + c.store*c.damp1
	c.buf[c.pos] = in + c.store*c.feedback
	if c.pos++; c.pos == len(c.buf) {
		c.pos = 0
	}
	return out
}

type allpass struct {
	buf []float32
	pos int
}

func (a *allpass) process(in float32) float32 {
	delayed := a.buf[a.pos]
	a.buf[a.pos] = in + delayed*allpassGain
	if a.pos++; a.pos == len(a.buf) {
		a.pos = 0
	}
	return delayed - in
}

type channel struct {
	combs     [numCombs]comb
	allpasses [numAllpasses]allpass
}

func newChannel(sampleRate float64, spread int) channel {
	var ch channel
	scale := sampleRate / 44100.0
	for i := range ch.combs {
		ch.combs[i].buf = make([]float32, max(1, int(float64(combTuning[i]+spread)*scale)))
	}
	for i := range ch.allpasses {
		ch.allpasses[i].buf = make([]float32, max(1, int(float64(allpassTuning[i]+spread)*scale)))
	}
	return ch
}

func (ch *channel) process(in float32) float32 {
	var out float32
	for i := range ch.combs {
		out += ch.combs[i].process(in)
	}
	for i := range ch.allpasses {
		out = ch.allpasses[i].process(out)
	}
	return out
}

// Freeverb is eight parallel combs into four series allpasses per channel.
// Buffers are allocated in New; Process never allocates.
type Freeverb struct {
	left, right channel
	roomSize    float64
	damping     float64
}

// New creates a reverb for sampleRate with a medium room.
func New(sampleRate float64) *Freeverb {
	f := &Freeverb{
		left:     newChannel(sampleRate, 0),
		right:    newChannel(sampleRate, stereoSpread),
		roomSize: 0.5,
		damping:  0.5,
	}
	f.update()
	return f
}

// SetRoomSize sets the room size, 0 to 1.
func (f *Freeverb) SetRoomSize(size float64) {
	if size = clamp01(size); size != f.roomSize {
		f.roomSize = size
		f.update()
	}
}

// SetDamping sets high frequency damping, 0 to 1.
func (f *Freeverb) SetDamping(damping float64) {
	if damping = clamp01(damping); damping != f.damping {
		f.damping = damping
		f.update()
	}
}

// RoomSize returns the current room size.
func (f *Freeverb) RoomSize() float64 { return f.roomSize }

// Damping returns the current damping.
func (f *Freeverb) Damping() float64 { return f.damping }

func (f *Freeverb) update() {
	feedback := float32(f.roomSize*scaleRoom + offsetRoom)
	damp1 := float32(f.damping * scaleDamping)
	for _, ch := range []*channel{&f.left, &f.right} {
		for i := range ch.combs {
			ch.combs[i].feedback = feedback
			ch.combs[i].damp1 = damp1
			ch.combs[i].damp2 = 1 - damp1
		}
	}
}

// Process returns the wet signal for one stereo frame.
func (f *Freeverb) Process(inL, inR float32) (outL, outR float32) {
	in := (inL + inR) * inputGain
	return f.left.process(in), f.right.process(in)
}

// Reset clears the reverb tail.
func (f *Freeverb) Reset() {
	for _, ch := range []*channel{&f.left, &f.right} {
		for i := range ch.combs {
			clear(ch.combs[i].buf)
			ch.combs[i].pos = 0
			ch.combs[i].store = 0
		}
		for i := range ch.allpasses {
			clear(ch.allpasses[i].buf)
			ch.allpasses[i].pos = 0
		}
	}
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
