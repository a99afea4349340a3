// Package automation drives engine parameters at control rate, from periodic
// waveforms or from random sample-and-hold draws.
package automation

import "math/rand/v2"

// Waveform selects the shape a Lane sweeps through.
type Waveform int

const (
	WaveSaw Waveform = iota
	WaveSquare
	WaveTriangle
	WaveRandom // new uniform value once per period
)

// lfo produces a unipolar value in [0, 1] per step. Phase is measured in
// frames so a lane's period is exact regardless of how blocks are sized.
type lfo struct {
	waveform Waveform
	period   int // frames per cycle, >= 1
	phase    int // frames into the current cycle
	held     float64
	rng      *rand.Rand
}

func newLFO(waveform Waveform, period int, rng *rand.Rand) lfo {
	if period < 1 {
		period = 1
	}
	l := lfo{waveform: waveform, period: period, rng: rng}
	if waveform == WaveRandom {
		l.held = rng.Float64()
	}
	return l
}

// value returns the waveform at the current phase.
func (l *lfo) value() float64 {
	p := float64(l.phase) / float64(l.period)
	switch l.waveform {
	case WaveSaw:
		return p
	case WaveSquare:
		if p < 0.5 {
			return 1
		}
		return 0
	case WaveRandom:
		return l.held
	default: // WaveTriangle
		if p < 0.5 {
			return 2 * p
		}
		return 2 - 2*p
	}
}

// advance moves frames forward and reports how many cycle boundaries were
// crossed.
func (l *lfo) advance(frames int) int {
	l.phase += frames
	wraps := l.phase / l.period
	l.phase %= l.period
	if wraps > 0 && l.waveform == WaveRandom {
		l.held = l.rng.Float64()
	}
	return wraps
}

func (l *lfo) reset() {
	l.phase = 0
}
