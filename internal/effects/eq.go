package effects

import "github.com/cbegin/granular-go/internal/dsp"

// EQ3Band is a fixed-gain three band equalizer built from two one-pole
// crossovers.
type EQ3Band struct {
	low, mid, high float32
	lowAlpha       float32
	highAlpha      float32
	lowState       dsp.Frame
	highState      dsp.Frame
}

// NewEQ3Band creates an equalizer. Gains are linear, 1 = unity; lowHz and
// highHz are the two crossover frequencies.
func NewEQ3Band(sampleRate int, low, mid, high, lowHz, highHz float32) *EQ3Band {
	return &EQ3Band{
		low:       low,
		mid:       mid,
		high:      high,
		lowAlpha:  lowpassAlpha(float64(lowHz), sampleRate),
		highAlpha: lowpassAlpha(float64(highHz), sampleRate),
	}
}

func (eq *EQ3Band) Process(in dsp.Frame) dsp.Frame {
	eq.lowState = eq.lowState.Lerp(in, eq.lowAlpha)
	eq.highState = eq.highState.Lerp(in, eq.highAlpha)
	lowBand := eq.lowState
	highBand := dsp.Frame{L: in.L - eq.highState.L, R: in.R - eq.highState.R}
	midBand := dsp.Frame{
		L: in.L - lowBand.L - highBand.L,
		R: in.R - lowBand.R - highBand.R,
	}
	return lowBand.Scale(eq.low).Add(midBand.Scale(eq.mid)).Add(highBand.Scale(eq.high))
}

func (eq *EQ3Band) Reset() {
	eq.lowState = dsp.Silence
	eq.highState = dsp.Silence
}
