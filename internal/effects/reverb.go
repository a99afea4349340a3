package effects

import "github.com/cbegin/granular-go/internal/dsp"

// Reverb is a small Schroeder reverb: four parallel combs into two series
// allpasses, fed from the mono sum.
type Reverb struct {
	combs   [4]ringFilter
	allpass [2]ringFilter
	wet     float32
}

// ringFilter is the shared state of comb and allpass sections.
type ringFilter struct {
	buf []float32
	pos int
	fb  float32
}

func newRingFilter(n int, fb float32) ringFilter {
	return ringFilter{buf: make([]float32, max(n, 1)), fb: fb}
}

// comb returns the delayed sample and recirculates it.
func (f *ringFilter) comb(in float32) float32 {
	out := f.buf[f.pos]
	f.buf[f.pos] = in + out*f.fb
	f.advance()
	return out
}

func (f *ringFilter) allpass(in float32) float32 {
	held := f.buf[f.pos]
	f.buf[f.pos] = in + held*f.fb
	f.advance()
	return held - in
}

func (f *ringFilter) advance() {
	if f.pos++; f.pos == len(f.buf) {
		f.pos = 0
	}
}

func (f *ringFilter) reset() {
	clear(f.buf)
	f.pos = 0
}

// NewReverb creates a reverb.
// roomSize: 0..1, scales the delay lengths
// feedback: 0..0.95, decay
// wet: 0..1
func NewReverb(sampleRate int, roomSize, feedback, wet float32) *Reverb {
	base := max(int(float32(sampleRate)*roomSize*0.05), 10)
	fb := clamp(feedback, 0, 0.95)
	r := &Reverb{wet: clamp(wet, 0, 1)}
	// Mutually prime-ish lengths keep the comb resonances apart.
	for i, permille := range [4]int{1000, 1117, 1271, 1437} {
		r.combs[i] = newRingFilter(base*permille/1000, fb)
	}
	for i, permille := range [2]int{347, 213} {
		r.allpass[i] = newRingFilter(base*permille/1000, 0.5)
	}
	return r
}

func (r *Reverb) Process(in dsp.Frame) dsp.Frame {
	mono := (in.L + in.R) * 0.5
	var tail float32
	for i := range r.combs {
		tail += r.combs[i].comb(mono)
	}
	tail *= 0.25
	for i := range r.allpass {
		tail = r.allpass[i].allpass(tail)
	}
	return in.Lerp(dsp.Frame{L: tail, R: tail}, r.wet)
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		r.combs[i].reset()
	}
	for i := range r.allpass {
		r.allpass[i].reset()
	}
}
