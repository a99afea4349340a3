package effects

import (
	"math"

	"github.com/cbegin/granular-go/internal/dsp"
)

// Compressor is a stereo-linked peak compressor. Feedback can pile grains up
// well past full scale; this tames the result before it reaches the device.
type Compressor struct {
	threshold float32 // linear
	ratio     float32
	attack    float32 // one-pole coefficients
	release   float32
	makeup    float32
	env       float32
}

// NewCompressor creates a compressor.
// thresholdDB: level above which gain is reduced (e.g. -6)
// ratio: compression ratio, at least 1 (e.g. 4 for 4:1)
// attackMs, releaseMs: envelope follower times
// makeupDB: gain applied after compression
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	if ratio < 1 {
		ratio = 1
	}
	return &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    onePole(attackMs, sr),
		release:   onePole(releaseMs, sr),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
}

func onePole(ms float32, sampleRate float64) float32 {
	if ms <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(float64(ms)*sampleRate/1000)))
}

func (c *Compressor) Process(in dsp.Frame) dsp.Frame {
	level := max(abs32(in.L), abs32(in.R))
	if level > c.env {
		c.env += c.attack * (level - c.env)
	} else {
		c.env += c.release * (level - c.env)
	}
	return in.Scale(c.gain() * c.makeup)
}

// gain maps the envelope through the static curve: above threshold the excess
// is divided by ratio in the log domain.
func (c *Compressor) gain() float32 {
	if c.env <= c.threshold || c.threshold <= 0 {
		return 1
	}
	over := c.env / c.threshold
	return float32(math.Pow(float64(over), float64(1/c.ratio-1)))
}

// Envelope returns the current detector level.
func (c *Compressor) Envelope() float32 { return c.env }

func (c *Compressor) Reset() {
	c.env = 0
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
