package granular

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	intaudio "github.com/cbegin/granular-go/internal/audio"
)

// PlaybackEvent carries grain and playback events from Watch().
type PlaybackEvent struct {
	Kind     int     // EventGrain or EventPlaybackEnded
	Duration float32 // grain length in samples, for EventGrain
}

const (
	EventGrain int = iota
	EventPlaybackEnded
)

// output is a started audio backend.
type output interface {
	Play()
	Pause()
	Stop() error
	IsPlaying() bool
	Position() time.Duration
	Frames() int64
}

// Player runs the granular engine live: it pulls an input source through
// the engine, the post effects and the master EQ into an audio device.
type Player struct {
	mu         sync.Mutex
	cfg        playerConfig
	path       *signalPath
	sampleRate int
	userHook   NewGrainHook
	out        output

	doneMu sync.Mutex
	done   chan struct{}

	events atomic.Pointer[chan PlaybackEvent]
	grains atomic.Uint64
}

// NewPlayer builds the engine and signal path. No audio device is opened
// until Play.
func NewPlayer(opts ...PlayerOption) (*Player, error) {
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.backend {
	case BackendEbiten, BackendBeep:
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.backend)
	}
	path, err := newSignalPath(cfg)
	if err != nil {
		return nil, err
	}
	p := &Player{
		cfg:        cfg,
		path:       path,
		sampleRate: path.engine.SampleRate(),
	}
	if slot := path.engine.hook.Load(); slot != nil {
		p.userHook = slot.hook
	}
	path.engine.SetNewGrainHook(NewGrainFunc(p.onGrain))
	return p, nil
}

// Engine exposes the live engine for parameter changes. Its setters are safe
// to call while audio is running.
func (p *Player) Engine() *Engine { return p.path.engine }

func (p *Player) SampleRate() int { return p.sampleRate }

// Play starts streaming input through the engine, replacing any current
// playback. The engine history, grains and automation restart from scratch,
// and a RewindableSource is rewound once the previous output has stopped.
func (p *Player) Play(input SampleSource) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out != nil {
		_ = p.out.Stop()
		p.out = nil
	}
	// Signal any existing Wait() that the previous playback was replaced
	p.doneMu.Lock()
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})
	p.doneMu.Unlock()

	p.path.reset()
	pl := p.path.start(input, p.playbackEnded)

	var (
		out output
		err error
	)
	switch p.cfg.backend {
	case BackendBeep:
		out, err = newBeepOutput(p.sampleRate, pl, p.cfg.bufferSize)
	default:
		out, err = intaudio.NewPlayer(p.sampleRate, pl, p.cfg.bufferSize)
	}
	if err != nil {
		return err
	}
	p.out = out
	p.out.Play()
	return nil
}

// onGrain runs on the audio goroutine for every grain onset.
func (p *Player) onGrain(duration float32) {
	p.grains.Add(1)
	if p.userHook != nil {
		p.userHook.OnNewGrain(duration)
	}
	p.sendEvent(PlaybackEvent{Kind: EventGrain, Duration: duration})
}

func (p *Player) playbackEnded() {
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	p.signalDone()
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	ch := p.events.Load()
	if ch == nil {
		return
	}
	select {
	case *ch <- ev:
	default:
		// Channel full; drop event
	}
}

func (p *Player) signalDone() {
	p.doneMu.Lock()
	done := p.done
	p.done = nil
	p.doneMu.Unlock()
	if done != nil {
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.out == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.out.Stop()
	p.out = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	p.signalDone()
	return err
}

// Wait blocks until the current playback ends. With an endless input it
// blocks until Stop. Wait returns immediately if nothing is playing.
func (p *Player) Wait() {
	p.doneMu.Lock()
	done := p.done
	p.doneMu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events:
//   - EventGrain: a grain started (Duration set)
//   - EventPlaybackEnded: a finite input and its tail finished, or Stop was called
//
// The channel is buffered (cap 256) and events are dropped rather than block
// the audio goroutine; receive in a goroutine. Only the most recent Watch()
// channel receives events.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 256)
	p.events.Store(&ch)
	return ch
}

// IsPlaying reports whether an output is started and not paused.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out != nil && p.out.IsPlaying()
}

// FramesPulled returns how many frames the current output has taken from the
// signal path. It runs ahead of PlaybackPosition by the device buffer.
func (p *Player) FramesPulled() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return 0
	}
	return p.out.Frames()
}

// PostEffects returns the number of processors after the engine, the master
// EQ included.
func (p *Player) PostEffects() int { return p.path.post.Len() }

// AutomationLanes returns the number of automation lanes driving the engine.
func (p *Player) AutomationLanes() int {
	if p.path.automator == nil {
		return 0
	}
	return p.path.automator.Lanes()
}

// Grains returns the number of grains started since the player was built.
func (p *Player) Grains() uint64 { return p.grains.Load() }

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (p *Player) SetEQBand(band int, gain float32) {
	p.path.eq.SetGain(band, gain)
}

// EQBand returns the current gain for a master EQ band (0-4).
func (p *Player) EQBand(band int) float32 {
	return p.path.eq.Gain(band)
}

// PlaybackPosition returns the current output position in frames. Returns 0
// if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	out := p.out
	p.mu.Unlock()
	if out == nil {
		return 0
	}
	return int64(out.Position().Seconds() * float64(p.sampleRate))
}
