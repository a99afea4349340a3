// Package config loads the YAML host configuration for cmd/granulate.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/granular-go/internal/automation"
	"github.com/cbegin/granular-go/internal/effects"
)

type Config struct {
	Engine     Engine     `yaml:"engine"`
	Input      Input      `yaml:"input"`
	Automation Automation `yaml:"automation"`
	Post       Post       `yaml:"post"`
	Output     Output     `yaml:"output"`
	Logging    Logging    `yaml:"logging"`
}

type Engine struct {
	SampleRate      int     `yaml:"sample_rate"`
	MaxDelaySeconds float64 `yaml:"max_delay_seconds"`
	// Position defaults to half the delay capacity when unset.
	Position *float32 `yaml:"position"`
	Density  float32  `yaml:"density"`
	Duration float32  `yaml:"duration"`
	Pitch    float32  `yaml:"pitch"`
	Volume   float32  `yaml:"volume"`
	Feedback float32  `yaml:"feedback"`
	WetDry   float32  `yaml:"wet_dry"`
	Seed     uint64   `yaml:"seed"`
}

// Input picks what feeds the engine: a WAV file if set, else a tone if
// ToneHz is positive, else silence.
type Input struct {
	WAV           string  `yaml:"wav"`
	Loop          bool    `yaml:"loop"`
	ToneHz        float64 `yaml:"tone_hz"`
	ToneAmplitude float64 `yaml:"tone_amplitude"`
}

type Automation struct {
	// Preset "desktop" prepends automation.DesktopDefaults to Lanes.
	Preset string `yaml:"preset"`
	Seed   uint64 `yaml:"seed"`
	Lanes  []Lane `yaml:"lanes"`
}

type Lane struct {
	Param         string  `yaml:"param"`
	Waveform      string  `yaml:"waveform"`
	Min           float32 `yaml:"min"`
	Max           float32 `yaml:"max"`
	PeriodSeconds float64 `yaml:"period_seconds"`
}

type Post struct {
	Compressor Compressor `yaml:"compressor"`
	Effects    []Effect   `yaml:"effects"`
	EQ         []float32  `yaml:"eq"` // up to effects.Bands linear gains
}

type Compressor struct {
	Enabled     bool    `yaml:"enabled"`
	ThresholdDB float32 `yaml:"threshold_db"`
	Ratio       float32 `yaml:"ratio"`
	AttackMs    float32 `yaml:"attack_ms"`
	ReleaseMs   float32 `yaml:"release_ms"`
	MakeupDB    float32 `yaml:"makeup_db"`
}

// Effect names one of the effects understood by effects.New.
type Effect struct {
	Type   string    `yaml:"type"`
	Params []float64 `yaml:"params"`
}

type Output struct {
	Backend     string  `yaml:"backend"` // ebiten|beep
	BufferMs    int     `yaml:"buffer_ms"`
	Render      string  `yaml:"render"` // WAV path; renders offline when set
	Format      string  `yaml:"format"` // float32|pcm16
	Seconds     float64 `yaml:"seconds"`
	TailSeconds float64 `yaml:"tail_seconds"`
}

type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used for every key a file leaves out.
func Default() Config {
	return Config{
		Engine: Engine{
			SampleRate:      48000,
			MaxDelaySeconds: 10,
			Density:         50,
			Duration:        3000,
			Pitch:           1,
			Volume:          0.5,
			Feedback:        0.6,
			WetDry:          1,
			Seed:            10,
		},
		Input: Input{Loop: true, ToneHz: 220, ToneAmplitude: 0.5},
		Automation: Automation{
			Preset: "desktop",
			Seed:   1,
		},
		Post: Post{
			Compressor: Compressor{
				Enabled:     true,
				ThresholdDB: -6,
				Ratio:       4,
				AttackMs:    5,
				ReleaseMs:   100,
			},
		},
		Output: Output{
			Backend:     "ebiten",
			BufferMs:    100,
			Format:      "float32",
			Seconds:     10,
			TailSeconds: 2,
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	e := c.Engine
	if e.SampleRate <= 0 {
		bad("engine.sample_rate must be positive, got %d", e.SampleRate)
	}
	if e.MaxDelaySeconds <= 0 {
		bad("engine.max_delay_seconds must be positive, got %g", e.MaxDelaySeconds)
	}
	if e.Position != nil && *e.Position < 0 {
		bad("engine.position must not be negative, got %g", *e.Position)
	}
	for _, p := range []struct {
		name string
		v    float32
	}{{"density", e.Density}, {"duration", e.Duration}, {"pitch", e.Pitch}} {
		if p.v <= 0 {
			bad("engine.%s must be positive, got %g", p.name, p.v)
		}
	}

	switch c.Automation.Preset {
	case "", "none", "desktop":
	default:
		bad("automation.preset %q is not none|desktop", c.Automation.Preset)
	}
	if _, err := c.Automation.Build(e.SampleRate); err != nil {
		errs = append(errs, err)
	}

	for i, fx := range c.Post.Effects {
		if _, err := effects.New(fx.Type, fx.Params, max(e.SampleRate, 1)); err != nil {
			bad("post.effects[%d]: %w", i, err)
		}
	}
	if len(c.Post.EQ) > effects.Bands {
		bad("post.eq has %d bands, at most %d", len(c.Post.EQ), effects.Bands)
	}

	switch c.Output.Backend {
	case "ebiten", "beep":
	default:
		bad("output.backend %q is not ebiten|beep", c.Output.Backend)
	}
	switch c.Output.Format {
	case "float32", "pcm16":
	default:
		bad("output.format %q is not float32|pcm16", c.Output.Format)
	}
	if c.Output.Seconds < 0 || c.Output.TailSeconds < 0 || c.Output.BufferMs < 0 {
		bad("output durations must not be negative")
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Build converts the configured preset and lanes to automation lanes at
// sampleRate.
func (a Automation) Build(sampleRate int) ([]automation.Lane, error) {
	var lanes []automation.Lane
	if a.Preset == "desktop" {
		lanes = append(lanes, automation.DesktopDefaults(sampleRate)...)
	}
	for i, l := range a.Lanes {
		param, err := automation.ParseParam(l.Param)
		if err != nil {
			return nil, fmt.Errorf("automation.lanes[%d]: %w", i, err)
		}
		wave, err := automation.ParseWaveform(l.Waveform)
		if err != nil {
			return nil, fmt.Errorf("automation.lanes[%d]: %w", i, err)
		}
		period := int(l.PeriodSeconds * float64(sampleRate))
		if period < 1 {
			return nil, fmt.Errorf("automation.lanes[%d]: period_seconds %g is shorter than one frame", i, l.PeriodSeconds)
		}
		if l.Min > l.Max {
			return nil, fmt.Errorf("automation.lanes[%d]: min %g above max %g", i, l.Min, l.Max)
		}
		lanes = append(lanes, automation.Lane{Param: param, Waveform: wave, Min: l.Min, Max: l.Max, PeriodFrames: period})
	}
	return lanes, nil
}

// SlogLevel parses Level as a slog level name (debug, info, warn, error).
func (l Logging) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
