package effects

import (
	"math"

	"github.com/cbegin/granular-go/internal/dsp"
)

// Chorus is a sine-modulated short delay; with feedback and a small base
// delay it behaves as a flanger.
type Chorus struct {
	buf      []dsp.Frame
	pos      int
	center   float32 // samples
	depth    float32 // samples
	step     float64 // radians per sample
	phase    float64
	feedback float32
	wet      float32
}

// NewChorus creates a chorus.
// delayMs: base delay, typically 5..30
// feedback: 0..0.9
// depthMs: modulation depth
// rateHz: modulation rate, typically 0.1..5
// wet: 0..1
func NewChorus(sampleRate int, delayMs, feedback, depthMs, rateHz, wet float32) *Chorus {
	sr := float64(sampleRate)
	depth := float64(depthMs) * sr / 1000
	size := max(int(float64(delayMs)*sr/1000)+int(depth)+2, 4)
	return &Chorus{
		buf:      make([]dsp.Frame, size),
		center:   float32(size / 2),
		depth:    float32(depth),
		step:     2 * math.Pi * float64(rateHz) / sr,
		feedback: clamp(feedback, 0, 0.9),
		wet:      clamp(wet, 0, 1),
	}
}

func (c *Chorus) Process(in dsp.Frame) dsp.Frame {
	mod := float32(math.Sin(c.phase)) * c.depth
	if c.phase += c.step; c.phase > 2*math.Pi {
		c.phase -= 2 * math.Pi
	}

	size := len(c.buf)
	read := float32(c.pos) - (c.center + mod)
	for read < 0 {
		read += float32(size)
	}
	i := int(read) % size
	j := i + 1
	if j == size {
		j = 0
	}
	delayed := c.buf[i].Lerp(c.buf[j], read-float32(int(read)))

	c.buf[c.pos] = in.Add(delayed.Scale(c.feedback))
	if c.pos++; c.pos == size {
		c.pos = 0
	}
	return in.Lerp(delayed, c.wet)
}

func (c *Chorus) Reset() {
	clear(c.buf)
	c.pos = 0
	c.phase = 0
}
