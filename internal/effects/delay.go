package effects

import "github.com/cbegin/granular-go/internal/dsp"

// Delay is a stereo echo with feedback. Cross moves part of each channel's
// feedback to the other side for ping-pong repeats.
type Delay struct {
	buf      []dsp.Frame
	pos      int
	feedback float32
	cross    float32
	wet      float32
}

// NewDelay creates a delay.
// delayMs: echo time in milliseconds
// feedback: 0..0.95
// cross: 0 keeps repeats on their side, 1 swaps them every pass
// wet: 0..1
func NewDelay(sampleRate int, delayMs float64, feedback, cross, wet float32) *Delay {
	n := max(int(delayMs*float64(sampleRate)/1000), 1)
	return &Delay{
		buf:      make([]dsp.Frame, n),
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(in dsp.Frame) dsp.Frame {
	echo := d.buf[d.pos]
	swapped := dsp.Frame{L: echo.R, R: echo.L}
	d.buf[d.pos] = in.Add(echo.Lerp(swapped, d.cross).Scale(d.feedback))
	if d.pos++; d.pos == len(d.buf) {
		d.pos = 0
	}
	return in.Lerp(echo, d.wet)
}

func (d *Delay) Reset() {
	clear(d.buf)
	d.pos = 0
}
