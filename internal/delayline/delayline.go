// Package delayline implements a fixed-capacity circular history of stereo
// frames with fractional, linearly interpolated reads.
package delayline

import (
	"errors"
	"math"

	"github.com/cbegin/granular-go/internal/dsp"
)

// DelayLine keeps the most recent len(buf) frames. The backing storage is
// supplied by the caller and never reallocated.
type DelayLine struct {
	buf   []dsp.Frame
	write int
	size  float32 // len(buf) as float32
}

// New wraps buf as a delay line. The slice must not be empty; its length is
// the capacity. Existing contents are kept as history.
func New(buf []dsp.Frame) (*DelayLine, error) {
	if len(buf) == 0 {
		return nil, errors.New("delay line storage must not be empty")
	}
	return &DelayLine{buf: buf, size: float32(len(buf))}, nil
}

// Capacity returns the number of frames of history.
func (d *DelayLine) Capacity() int { return len(d.buf) }

// WriteIndex returns the slot the next write lands in, always in [0, Capacity).
func (d *DelayLine) WriteIndex() int { return d.write }

// WriteAndAdvance stores f at the write cursor and moves the cursor forward,
// wrapping at capacity.
func (d *DelayLine) WriteAndAdvance(f dsp.Frame) {
	d.buf[d.write] = f
	d.write++
	if d.write >= len(d.buf) {
		d.write = 0
	}
}

// Read returns the history delayLength frames behind the write cursor.
// delayLength is clamped to [0, Capacity-1]; fractional lengths interpolate
// linearly between the two neighbouring slots. A delay of 0 reads the cursor
// slot, the oldest frame, which is where grains with pitch > 1 end up.
func (d *DelayLine) Read(delayLength float32) dsp.Frame {
	pos := d.readPosition(delayLength)

	next := float32(math.Ceil(float64(pos)))
	delta := next - pos
	nextIdx := int(next)
	if nextIdx >= len(d.buf) {
		nextIdx = 0
	}
	prevIdx := nextIdx - 1
	if prevIdx < 0 {
		prevIdx = len(d.buf) - 1
	}
	return d.buf[nextIdx].Lerp(d.buf[prevIdx], delta)
}

// Reset zeroes the history and rewinds the cursor.
func (d *DelayLine) Reset() {
	for i := range d.buf {
		d.buf[i] = dsp.Silence
	}
	d.write = 0
}

// readPosition maps a delay length to a fractional index in [0, Capacity).
func (d *DelayLine) readPosition(delayLength float32) float32 {
	// NaN compares false everywhere; treat it as "now".
	if !(delayLength > 0) {
		delayLength = 0
	}
	if delayLength > d.size-1 {
		delayLength = d.size - 1
	}
	pos := float32(d.write) - delayLength
	if pos < 0 {
		pos += d.size
	}
	if pos >= d.size {
		pos = 0
	}
	return pos
}
