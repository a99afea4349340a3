package source

import (
	"math"
	"sync/atomic"
)

// Player streams a clip, optionally looping. Once a non-looping clip runs
// out the rest of each buffer is silence and Finished reports true.
type Player struct {
	clip     *Clip
	loop     bool
	pos      int // sample index into clip.Samples
	finished atomic.Bool
}

func NewPlayer(clip *Clip, loop bool) *Player {
	return &Player{clip: clip, loop: loop}
}

func (p *Player) Process(dst []float32) {
	samples := p.clip.Samples
	for i := 0; i+1 < len(dst); i += 2 {
		if p.pos+1 >= len(samples) {
			if !p.loop || len(samples) < 2 {
				p.finished.Store(true)
				dst[i], dst[i+1] = 0, 0
				continue
			}
			p.pos = 0
		}
		dst[i], dst[i+1] = samples[p.pos], samples[p.pos+1]
		p.pos += 2
	}
}

// Finished reports whether a non-looping clip has been fully played.
func (p *Player) Finished() bool { return p.finished.Load() }

// Rewind restarts the clip.
func (p *Player) Rewind() {
	p.pos = 0
	p.finished.Store(false)
}

// Tone is a stereo sine test signal.
type Tone struct {
	amplitude float32
	phase     float64
	step      float64 // radians per frame
}

func NewTone(sampleRate int, freqHz, amplitude float64) *Tone {
	return &Tone{
		amplitude: float32(amplitude),
		step:      2 * math.Pi * freqHz / float64(sampleRate),
	}
}

func (t *Tone) Process(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		v := t.amplitude * float32(math.Sin(t.phase))
		dst[i], dst[i+1] = v, v
		t.phase += t.step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
}

// Silence feeds zeros, leaving only what the engine regenerates.
type Silence struct{}

func (Silence) Process(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}
