// Package granular is a real-time granular audio effect. An Engine keeps a
// circular history of its feedback signal and, at stochastic onsets, starts
// short enveloped grains that read that history at a chosen delay, duration
// and pitch. The grain mix is blended with the input and fed back into the
// history.
//
// Engine.Process runs once per stereo sample, never allocates and never
// blocks. The setters may be called from another goroutine while audio is
// running.
package granular

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cbegin/granular-go/internal/delayline"
	"github.com/cbegin/granular-go/internal/dsp"
	"github.com/cbegin/granular-go/internal/grain"
	"github.com/cbegin/granular-go/internal/scheduler"
)

// Frame is one stereo sample pair.
type Frame = dsp.Frame

// MaxGrains is the size of the grain pool. Onsets that find every slot busy
// are dropped.
const MaxGrains = 100

// mixGain offsets the loudness lost by averaging the active grains.
const mixGain float32 = 2

// NewGrainHook is notified on the audio goroutine each time a grain starts,
// with that grain's duration in samples. Implementations must return
// quickly, must not allocate and must not call back into the Engine.
type NewGrainHook interface {
	OnNewGrain(duration float32)
}

// NewGrainFunc adapts a function to NewGrainHook.
type NewGrainFunc func(duration float32)

func (f NewGrainFunc) OnNewGrain(duration float32) { f(duration) }

type hookSlot struct {
	hook NewGrainHook
}

// param is a float32 readable by the audio goroutine while another goroutine
// writes it.
type param struct {
	bits atomic.Uint32
}

func (p *param) get() float32  { return math.Float32frombits(p.bits.Load()) }
func (p *param) set(v float32) { p.bits.Store(math.Float32bits(v)) }

type Engine struct {
	sampleRate int
	scheduler  *scheduler.Scheduler
	grains     [MaxGrains]grain.Grain
	delay      *delayline.DelayLine

	position param
	duration param
	pitch    param
	volume   param
	feedback param
	wetDry   param

	hook   atomic.Pointer[hookSlot]
	active atomic.Int32
}

// New builds an engine. All storage is allocated (or adopted, see
// WithDelayBuffer) here; processing never allocates afterwards.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	buf := cfg.buffer
	if buf == nil {
		if !(cfg.maxDelaySeconds > 0) {
			return nil, errors.New("max delay must be positive")
		}
		capacity := int(cfg.maxDelaySeconds * float64(cfg.sampleRate))
		if capacity < 1 {
			return nil, fmt.Errorf("max delay %gs at %d Hz holds no samples", cfg.maxDelaySeconds, cfg.sampleRate)
		}
		buf = make([]Frame, capacity)
	}
	delay, err := delayline.New(buf)
	if err != nil {
		return nil, err
	}

	position := float32(delay.Capacity() / 2)
	if cfg.positionSet {
		position = cfg.position
	}
	if !(position >= 0) || position > float32(delay.Capacity()) {
		return nil, fmt.Errorf("initial position %g outside delay capacity %d", position, delay.Capacity())
	}
	if !(cfg.density > 0) {
		return nil, fmt.Errorf("density must be positive, got %g", cfg.density)
	}
	if !(cfg.duration > 0) {
		return nil, fmt.Errorf("duration must be positive, got %g", cfg.duration)
	}
	if !(cfg.pitch > 0) {
		return nil, fmt.Errorf("pitch must be positive, got %g", cfg.pitch)
	}

	e := &Engine{
		sampleRate: cfg.sampleRate,
		scheduler:  scheduler.New(cfg.density, cfg.seed),
		delay:      delay,
	}
	e.position.set(position)
	e.duration.set(cfg.duration)
	e.pitch.set(cfg.pitch)
	e.volume.set(cfg.volume)
	e.feedback.set(cfg.feedback)
	e.wetDry.set(cfg.wetDry)
	e.SetNewGrainHook(cfg.hook)
	return e, nil
}

// Process consumes one input frame and returns one output frame.
func (e *Engine) Process(in Frame) Frame {
	if e.scheduler.Advance() {
		duration := e.duration.get()
		if e.activateGrain(e.position.get(), duration, e.pitch.get()) {
			if slot := e.hook.Load(); slot != nil {
				slot.hook.OnNewGrain(duration)
			}
		}
	}

	mix := e.synthesize()

	// The history receives input plus regenerated grains, not the raw input.
	e.delay.WriteAndAdvance(in.Add(mix.Scale(e.feedback.get())))

	wet := e.wetDry.get()
	dry := 1 - wet
	return in.Scale(-dry).Add(mix.Scale(wet)).Scale(e.volume.get())
}

// ProcessInterleaved runs Process over an interleaved stereo buffer in place.
// A trailing odd sample is left untouched.
func (e *Engine) ProcessInterleaved(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		out := e.Process(Frame{L: buf[i], R: buf[i+1]})
		buf[i], buf[i+1] = out.L, out.R
	}
}

// ProcessPlanar runs Process over split channel buffers and returns the
// number of frames processed, the shortest of the four lengths. Input and
// output slices may alias.
func (e *Engine) ProcessPlanar(inL, inR, outL, outR []float32) int {
	n := min(len(inL), len(inR), len(outL), len(outR))
	for i := 0; i < n; i++ {
		out := e.Process(Frame{L: inL[i], R: inR[i]})
		outL[i], outR[i] = out.L, out.R
	}
	return n
}

// activateGrain starts the first idle grain in the pool. It reports false
// when the pool is saturated and the onset is dropped.
func (e *Engine) activateGrain(position, duration, pitch float32) bool {
	for i := range e.grains {
		g := &e.grains[i]
		if !g.Active() {
			return g.Activate(position, duration, pitch)
		}
	}
	return false
}

// synthesize averages the active grains and applies the compensation gain.
func (e *Engine) synthesize() Frame {
	var sum Frame
	n := 0
	for i := range e.grains {
		g := &e.grains[i]
		if !g.Active() {
			continue
		}
		sum = sum.Add(g.Process(e.delay))
		n++
	}
	e.active.Store(int32(n))
	if n == 0 {
		return dsp.Silence
	}
	count := float32(n)
	return Frame{
		L: sum.L / count * mixGain,
		R: sum.R / count * mixGain,
	}
}

// Reset clears the history, silences every grain and rewinds the scheduler
// to its seed. Parameters are kept. It must not run concurrently with
// Process.
func (e *Engine) Reset() {
	e.delay.Reset()
	for i := range e.grains {
		e.grains[i].Deactivate()
	}
	e.scheduler.Reset()
	e.active.Store(0)
}

// SetPosition sets the delay, in samples, at which new grains start reading.
func (e *Engine) SetPosition(samples float32) { e.position.set(samples) }

// SetDensity sets the expected onset rate used from the next onset on.
func (e *Engine) SetDensity(density float32) { e.scheduler.SetDensity(density) }

// SetDuration sets the length in samples of grains started from now on.
func (e *Engine) SetDuration(samples float32) { e.duration.set(samples) }

// SetPitch sets the playback ratio of grains started from now on.
func (e *Engine) SetPitch(ratio float32) { e.pitch.set(ratio) }

func (e *Engine) SetVolume(volume float32)     { e.volume.set(volume) }
func (e *Engine) SetFeedback(feedback float32) { e.feedback.set(feedback) }
func (e *Engine) SetWetDry(wetDry float32)     { e.wetDry.set(wetDry) }

// SetNewGrainHook installs hook, or removes the current one when hook is nil.
func (e *Engine) SetNewGrainHook(hook NewGrainHook) {
	if hook == nil {
		e.hook.Store(nil)
		return
	}
	e.hook.Store(&hookSlot{hook: hook})
}

func (e *Engine) Position() float32 { return e.position.get() }
func (e *Engine) Density() float32  { return e.scheduler.Density() }
func (e *Engine) Duration() float32 { return e.duration.get() }
func (e *Engine) Pitch() float32    { return e.pitch.get() }
func (e *Engine) Volume() float32   { return e.volume.get() }
func (e *Engine) Feedback() float32 { return e.feedback.get() }
func (e *Engine) WetDry() float32   { return e.wetDry.get() }

// SampleRate returns the rate fixed at construction.
func (e *Engine) SampleRate() int { return e.sampleRate }

// Capacity returns the delay history length in frames.
func (e *Engine) Capacity() int { return e.delay.Capacity() }

// ActiveGrains returns how many grains sounded in the most recent Process
// call. It is safe to call from any goroutine.
func (e *Engine) ActiveGrains() int { return int(e.active.Load()) }
