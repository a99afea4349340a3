package effects

import (
	"math"

	"github.com/cbegin/granular-go/internal/dsp"
)

// Distortion is tanh soft clipping followed by an optional one-pole lowpass.
type Distortion struct {
	drive  float32
	level  float32
	alpha  float32 // 0 disables the lowpass
	smooth dsp.Frame
}

// NewDistortion creates a distortion.
// drive: gain into the shaper
// level: gain after it
// cutoffHz: lowpass corner, 0 or >= Nyquist for none
func NewDistortion(sampleRate int, drive, level, cutoffHz float32) *Distortion {
	d := &Distortion{drive: drive, level: level}
	if cutoffHz > 0 && cutoffHz < float32(sampleRate)/2 {
		d.alpha = lowpassAlpha(float64(cutoffHz), sampleRate)
	}
	return d
}

func (d *Distortion) Process(in dsp.Frame) dsp.Frame {
	out := dsp.Frame{
		L: float32(math.Tanh(float64(in.L*d.drive))) * d.level,
		R: float32(math.Tanh(float64(in.R*d.drive))) * d.level,
	}
	if d.alpha == 0 {
		return out
	}
	d.smooth = d.smooth.Lerp(out, d.alpha)
	return d.smooth
}

func (d *Distortion) Reset() { d.smooth = dsp.Silence }

// lowpassAlpha is the one-pole RC smoothing coefficient for freqHz.
func lowpassAlpha(freqHz float64, sampleRate int) float32 {
	rc := 1 / (2 * math.Pi * freqHz)
	dt := 1 / float64(sampleRate)
	return float32(dt / (rc + dt))
}
