// Package dsp holds the stereo sample types shared by the granular engine.
package dsp

// Frame is one stereo sample pair, nominally in [-1, 1].
type Frame struct {
	L, R float32
}

// Silence is the zero frame.
var Silence = Frame{}

func (f Frame) Add(o Frame) Frame {
	return Frame{L: f.L + o.L, R: f.R + o.R}
}

func (f Frame) Scale(g float32) Frame {
	return Frame{L: f.L * g, R: f.R * g}
}

// Lerp returns f + t*(o - f).
func (f Frame) Lerp(o Frame, t float32) Frame {
	return Frame{
		L: f.L + t*(o.L-f.L),
		R: f.R + t*(o.R-f.R),
	}
}
