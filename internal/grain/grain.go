// Package grain implements a single pooled grain: a short enveloped read
// from the delay line with its own position, duration and pitch.
package grain

import (
	"math"

	"github.com/cbegin/granular-go/internal/delayline"
	"github.com/cbegin/granular-go/internal/dsp"
	"github.com/cbegin/granular-go/internal/envelope"
)

// Amplitude is the envelope peak given to every grain.
const Amplitude float32 = 0.7

// Grain is a value type meant to live in a fixed pool and be reused in place.
// The zero value is an inactive grain.
type Grain struct {
	active   bool
	duration float32 // samples of source material
	pitch    float32 // playback ratio, > 0
	position float32 // delay length at onset
	step     int // output samples produced so far
	steps    int // ceil(duration/pitch), fixed at activation
	env      envelope.Parabolic
}

// Active reports whether the grain is sounding.
func (g *Grain) Active() bool { return g.active }

func (g *Grain) Duration() float32 { return g.duration }
func (g *Grain) Pitch() float32    { return g.pitch }
func (g *Grain) Position() float32 { return g.position }

// Activate starts the grain. It is ignored while the grain is already active,
// and for non-positive duration or pitch. It reports whether the grain
// started.
//
// The envelope spans duration/pitch output samples, which is exactly how long
// the grain sounds, so the requested duration holds regardless of pitch.
func (g *Grain) Activate(position, duration, pitch float32) bool {
	if g.active || !(duration > 0) || !(pitch > 0) {
		return false
	}
	g.position = position
	g.duration = duration
	g.pitch = pitch
	g.step = 0
	g.steps = int(math.Ceil(float64(duration) / float64(pitch)))
	g.env = envelope.NewParabolic(duration/pitch, Amplitude)
	g.active = true
	return true
}

// Process returns the grain's next output frame. Inactive grains return
// silence without touching any state.
//
// The read pointer moves through history at rate pitch: reading at
// position + progress*(1-pitch), with progress = step*pitch, while the write
// cursor advances one frame per call nets a traversal of pitch frames per
// call. The grain lasts ceil(duration/pitch) calls however long it is.
func (g *Grain) Process(d *delayline.DelayLine) dsp.Frame {
	if !g.active {
		return dsp.Silence
	}
	amp := g.env.Process()
	progress := float64(g.step) * float64(g.pitch)
	f := d.Read(g.position + float32(progress*float64(1-g.pitch)))
	g.step++
	if g.step >= g.steps {
		g.step = 0
		g.active = false
	}
	return f.Scale(amp)
}

// Deactivate silences the grain immediately.
func (g *Grain) Deactivate() {
	g.active = false
	g.step = 0
}
