package effects

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/granular-go/internal/dsp"
)

// Bands is the number of EQ5Band bands.
const Bands = 5

// EQ5Band is a master equalizer whose gains can be changed from a control
// goroutine while the audio goroutine runs Process. Bands split at 200Hz,
// 800Hz, 2.5kHz and 8kHz.
type EQ5Band struct {
	gains  [Bands]atomic.Uint32 // float32 bits; 1.0 = unity
	alphas [Bands - 1]float32
	lp     [Bands - 1]dsp.Frame // one-pole lowpass state per crossover
}

var crossovers = [Bands - 1]float64{200, 800, 2500, 8000}

// NewEQ5Band creates an EQ with every band at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	for i, freq := range crossovers {
		eq.alphas[i] = lowpassAlpha(freq, sampleRate)
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1))
	}
	return eq
}

// SetGain sets band's linear gain, clamped to [0, 4]. Out-of-range bands are
// ignored.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band < 0 || band >= Bands {
		return
	}
	eq.gains[band].Store(math.Float32bits(clamp(gain, 0, 4)))
}

// Gain returns band's linear gain, or 1 for an unknown band.
func (eq *EQ5Band) Gain(band int) float32 {
	if band < 0 || band >= Bands {
		return 1
	}
	return math.Float32frombits(eq.gains[band].Load())
}

func (eq *EQ5Band) Process(in dsp.Frame) dsp.Frame {
	// Each crossover peels its low band off what remains; the rest is the
	// top band.
	var out dsp.Frame
	rem := in
	for i := range eq.lp {
		eq.lp[i] = eq.lp[i].Lerp(rem, eq.alphas[i])
		band := eq.lp[i]
		out = out.Add(band.Scale(eq.Gain(i)))
		rem.L -= band.L
		rem.R -= band.R
	}
	return out.Add(rem.Scale(eq.Gain(Bands - 1)))
}

func (eq *EQ5Band) Reset() {
	for i := range eq.lp {
		eq.lp[i] = dsp.Silence
	}
}
