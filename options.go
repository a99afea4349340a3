package granular

const (
	DefaultSampleRate      = 48000
	DefaultMaxDelaySeconds = 10.0

	DefaultDensity  float32 = 50
	DefaultDuration float32 = 3000
	DefaultPitch    float32 = 1
	DefaultVolume   float32 = 0.5
	DefaultFeedback float32 = 0.6
	DefaultWetDry   float32 = 1 // fully wet

	DefaultSeed uint64 = 10
)

// Option configures an Engine at construction.
type Option func(*engineConfig)

type engineConfig struct {
	sampleRate      int
	maxDelaySeconds float64
	buffer          []Frame

	position    float32
	positionSet bool
	density     float32
	duration    float32
	pitch       float32
	volume      float32
	feedback    float32
	wetDry      float32
	seed        uint64
	hook        NewGrainHook
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		sampleRate:      DefaultSampleRate,
		maxDelaySeconds: DefaultMaxDelaySeconds,
		density:         DefaultDensity,
		duration:        DefaultDuration,
		pitch:           DefaultPitch,
		volume:          DefaultVolume,
		feedback:        DefaultFeedback,
		wetDry:          DefaultWetDry,
		seed:            DefaultSeed,
	}
}

// WithSampleRate fixes the engine's sample rate in Hz. Together with
// WithMaxDelaySeconds it sizes the internally owned delay buffer.
func WithSampleRate(sampleRate int) Option {
	return func(cfg *engineConfig) {
		cfg.sampleRate = sampleRate
	}
}

func WithMaxDelaySeconds(seconds float64) Option {
	return func(cfg *engineConfig) {
		cfg.maxDelaySeconds = seconds
	}
}

// WithDelayBuffer makes the engine use buf as delay storage instead of
// allocating its own. The capacity is len(buf) and the engine writes into it
// for its whole lifetime, so the caller must not touch it afterwards.
func WithDelayBuffer(buf []Frame) Option {
	return func(cfg *engineConfig) {
		cfg.buffer = buf
	}
}

// WithPosition sets the initial grain read delay in samples. It defaults to
// half the delay capacity and must not exceed the capacity.
func WithPosition(samples float32) Option {
	return func(cfg *engineConfig) {
		cfg.position = samples
		cfg.positionSet = true
	}
}

func WithDensity(density float32) Option {
	return func(cfg *engineConfig) {
		cfg.density = density
	}
}

// WithDuration sets the grain length in samples.
func WithDuration(samples float32) Option {
	return func(cfg *engineConfig) {
		cfg.duration = samples
	}
}

func WithPitch(ratio float32) Option {
	return func(cfg *engineConfig) {
		cfg.pitch = ratio
	}
}

func WithVolume(volume float32) Option {
	return func(cfg *engineConfig) {
		cfg.volume = volume
	}
}

func WithFeedback(feedback float32) Option {
	return func(cfg *engineConfig) {
		cfg.feedback = feedback
	}
}

// WithWetDry sets the mix: 1 is fully wet, 0 fully (phase-inverted) dry.
func WithWetDry(wetDry float32) Option {
	return func(cfg *engineConfig) {
		cfg.wetDry = wetDry
	}
}

// WithSeed seeds the onset scheduler. Equal seeds give equal onset timing.
func WithSeed(seed uint64) Option {
	return func(cfg *engineConfig) {
		cfg.seed = seed
	}
}

func WithNewGrainHook(hook NewGrainHook) Option {
	return func(cfg *engineConfig) {
		cfg.hook = hook
	}
}
