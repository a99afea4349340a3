package granular

import (
	"sync/atomic"
	"time"

	intaudio "github.com/cbegin/granular-go/internal/audio"
	"github.com/cbegin/granular-go/internal/automation"
	intfx "github.com/cbegin/granular-go/internal/effects"
)

// SampleSource fills dst with interleaved stereo samples. Hosts pull input
// from one and hand it to the engine block by block.
type SampleSource = intaudio.SampleSource

// FinishingSource is a SampleSource that can run out.
type FinishingSource = intaudio.FinishingSource

// RewindableSource is a SampleSource that Play and Render restart from its
// first frame.
type RewindableSource = intaudio.RewindableSource

// Backend selects the audio output library used by a Player.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendBeep   Backend = "beep"
)

// PlayerOption configures a Player or an offline Render.
type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend        Backend
	engineOpts     []Option
	lanes          []automation.Lane
	automationSeed uint64
	effects        []intfx.Effector
	tail           time.Duration
	bufferSize     time.Duration
	sampleTap      func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{backend: BackendEbiten, tail: 2 * time.Second}
}

func WithBackend(backend Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = backend
	}
}

// WithEngineOptions passes options through to the engine's constructor.
func WithEngineOptions(opts ...Option) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.engineOpts = append(cfg.engineOpts, opts...)
	}
}

// WithAutomation drives engine parameters from lanes, advanced once per
// audio block. Random lanes draw from a generator seeded with seed.
func WithAutomation(seed uint64, lanes ...automation.Lane) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.automationSeed = seed
		cfg.lanes = append(cfg.lanes, lanes...)
	}
}

// WithPostEffects inserts effects between the engine and the master EQ.
func WithPostEffects(effects ...intfx.Effector) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.effects = append(cfg.effects, effects...)
	}
}

// WithTail keeps the engine running for d after a finishing input ends so
// that sounding grains and feedback can decay.
func WithTail(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.tail = d
	}
}

// WithBufferSize sets the output device buffer. Zero keeps the backend
// default.
func WithBufferSize(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.bufferSize = d
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// signalPath is everything between the input and the output: the engine,
// its automation, the post effects and the master EQ.
type signalPath struct {
	engine     *Engine
	automator  *automation.Automator
	post       *intfx.Chain
	eq         *intfx.EQ5Band
	tap        func([]float32)
	tailFrames int
}

func newSignalPath(cfg playerConfig) (*signalPath, error) {
	engine, err := New(cfg.engineOpts...)
	if err != nil {
		return nil, err
	}
	sp := &signalPath{
		engine:     engine,
		post:       intfx.NewChain(cfg.effects...),
		eq:         intfx.NewEQ5Band(engine.SampleRate()),
		tap:        cfg.sampleTap,
		tailFrames: int(cfg.tail.Seconds() * float64(engine.SampleRate())),
	}
	sp.post.Add(sp.eq)
	if len(cfg.lanes) > 0 {
		sp.automator, err = automation.New(engine, cfg.automationSeed, cfg.lanes...)
		if err != nil {
			return nil, err
		}
		sp.automator.Apply()
	}
	return sp, nil
}

// reset rewinds the path for a new input. It must not run while a pipeline
// built on it is being processed.
func (sp *signalPath) reset() {
	sp.engine.Reset()
	if sp.automator != nil {
		sp.automator.Reset()
	}
	sp.post.Reset()
}

// pipeline pulls an input through a signalPath. It implements
// FinishingSource so output backends stop once a finite input and its tail
// have played out.
type pipeline struct {
	path      *signalPath
	input     SampleSource
	finishing FinishingSource // nil for endless inputs
	tailLeft  int
	finished  atomic.Bool
	onEnd     func()
}

func (sp *signalPath) newPipeline(input SampleSource, onEnd func()) *pipeline {
	pl := &pipeline{path: sp, input: input, tailLeft: sp.tailFrames, onEnd: onEnd}
	pl.finishing, _ = input.(FinishingSource)
	return pl
}

// start rewinds input when it can be rewound and wraps it in a pipeline. No
// output may still be pulling from input.
func (sp *signalPath) start(input SampleSource, onEnd func()) *pipeline {
	if r, ok := input.(RewindableSource); ok {
		r.Rewind()
	}
	return sp.newPipeline(input, onEnd)
}

func (pl *pipeline) Process(dst []float32) {
	if pl.finished.Load() {
		clear(dst)
		return
	}
	sp := pl.path
	pl.input.Process(dst)
	sp.engine.ProcessInterleaved(dst)
	sp.post.ProcessInterleaved(dst)
	if sp.automator != nil {
		sp.automator.Advance(len(dst) / 2)
	}
	if sp.tap != nil {
		sp.tap(dst)
	}
	if pl.finishing == nil || !pl.finishing.Finished() {
		return
	}
	pl.tailLeft -= len(dst) / 2
	if pl.tailLeft <= 0 {
		pl.finished.Store(true)
		if pl.onEnd != nil {
			pl.onEnd()
		}
	}
}

func (pl *pipeline) Finished() bool { return pl.finished.Load() }
