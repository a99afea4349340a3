// Package host turns a config.Config into the pieces the granulate commands
// run: player options, an input source and a logger.
package host

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	granular "github.com/cbegin/granular-go"
	"github.com/cbegin/granular-go/internal/config"
	"github.com/cbegin/granular-go/internal/effects"
	"github.com/cbegin/granular-go/internal/source"
)

// EngineOptions maps the engine section to engine options.
func EngineOptions(e config.Engine) []granular.Option {
	opts := []granular.Option{
		granular.WithSampleRate(e.SampleRate),
		granular.WithMaxDelaySeconds(e.MaxDelaySeconds),
		granular.WithDensity(e.Density),
		granular.WithDuration(e.Duration),
		granular.WithPitch(e.Pitch),
		granular.WithVolume(e.Volume),
		granular.WithFeedback(e.Feedback),
		granular.WithWetDry(e.WetDry),
		granular.WithSeed(e.Seed),
	}
	if e.Position != nil {
		opts = append(opts, granular.WithPosition(*e.Position))
	}
	return opts
}

// PlayerOptions maps a validated config to player options. Extra engine
// options, such as a grain hook, are appended after the configured ones.
func PlayerOptions(cfg config.Config, extra ...granular.Option) ([]granular.PlayerOption, error) {
	sr := cfg.Engine.SampleRate
	lanes, err := cfg.Automation.Build(sr)
	if err != nil {
		return nil, err
	}
	var post []effects.Effector
	for i, fx := range cfg.Post.Effects {
		e, err := effects.New(fx.Type, fx.Params, sr)
		if err != nil {
			return nil, fmt.Errorf("post.effects[%d]: %w", i, err)
		}
		post = append(post, e)
	}
	if c := cfg.Post.Compressor; c.Enabled {
		post = append(post, effects.NewCompressor(sr, c.ThresholdDB, c.Ratio, c.AttackMs, c.ReleaseMs, c.MakeupDB))
	}

	opts := []granular.PlayerOption{
		granular.WithBackend(granular.Backend(cfg.Output.Backend)),
		granular.WithEngineOptions(EngineOptions(cfg.Engine)...),
		granular.WithEngineOptions(extra...),
		granular.WithPostEffects(post...),
		granular.WithTail(seconds(cfg.Output.TailSeconds)),
		granular.WithBufferSize(time.Duration(cfg.Output.BufferMs) * time.Millisecond),
	}
	if len(lanes) > 0 {
		opts = append(opts, granular.WithAutomation(cfg.Automation.Seed, lanes...))
	}
	return opts, nil
}

// ApplyEQ copies the configured master EQ gains onto p.
func ApplyEQ(p *granular.Player, gains []float32) {
	for band, g := range gains {
		p.SetEQBand(band, g)
	}
}

// Input opens the configured input source. WAV clips recorded at another
// rate are resampled to the engine's.
func Input(in config.Input, sampleRate int) (granular.SampleSource, error) {
	switch {
	case in.WAV != "":
		clip, err := source.LoadWAV(in.WAV)
		if err != nil {
			return nil, err
		}
		if clip, err = clip.Resample(sampleRate); err != nil {
			return nil, fmt.Errorf("%s: %w", in.WAV, err)
		}
		return source.NewPlayer(clip, in.Loop), nil
	case in.ToneHz > 0:
		return source.NewTone(sampleRate, in.ToneHz, in.ToneAmplitude), nil
	default:
		return source.Silence{}, nil
	}
}

// NewLogger builds the process logger from the logging section.
func NewLogger(l config.Logging, w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.JSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
