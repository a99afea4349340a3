// Package effects holds the stereo processors that can follow the granular
// engine on its way to the output.
package effects

import "github.com/cbegin/granular-go/internal/dsp"

// Effector processes one stereo frame at a time.
type Effector interface {
	Process(in dsp.Frame) dsp.Frame
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(in dsp.Frame) dsp.Frame {
	for _, e := range c.effects {
		in = e.Process(in)
	}
	return in
}

// ProcessInterleaved runs the chain over an interleaved stereo buffer in place.
func (c *Chain) ProcessInterleaved(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		out := c.Process(dsp.Frame{L: buf[i], R: buf[i+1]})
		buf[i], buf[i+1] = out.L, out.R
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

// Len returns the number of effects in the chain.
func (c *Chain) Len() int { return len(c.effects) }

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
