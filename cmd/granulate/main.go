package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	granular "github.com/cbegin/granular-go"
	"github.com/cbegin/granular-go/internal/config"
	"github.com/cbegin/granular-go/internal/host"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		wavPath    = flag.String("wav", "", "input WAV file (overrides config)")
		toneHz     = flag.Float64("tone", -1, "sine input frequency in Hz when no WAV is given (0 = silence)")
		noLoop     = flag.Bool("once", false, "play the WAV input once instead of looping")
		backend    = flag.String("backend", "", "audio backend: ebiten|beep")
		render     = flag.String("render", "", "render offline to this WAV path instead of playing")
		seconds    = flag.Float64("seconds", -1, "render length, or live run time (0 = until interrupted)")
		seed       = flag.Int64("seed", -1, "scheduler seed")
		density    = flag.Float64("density", -1, "grain density")
		volume     = flag.Float64("volume", -1, "output volume")
		feedback   = flag.Float64("feedback", -1, "feedback amount")
		wetDry     = flag.Float64("wetdry", -1, "wet/dry mix (1 = wet)")
		preset     = flag.String("automation", "", "automation preset: none|desktop")
		logLevel   = flag.String("log-level", "", "log level: debug|info|warn|error")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	// Flags win over the file.
	if *wavPath != "" {
		cfg.Input.WAV = *wavPath
	}
	if *toneHz >= 0 {
		cfg.Input.ToneHz = *toneHz
	}
	if *noLoop {
		cfg.Input.Loop = false
	}
	if *backend != "" {
		cfg.Output.Backend = *backend
	}
	if *render != "" {
		cfg.Output.Render = *render
	}
	if *seconds >= 0 {
		cfg.Output.Seconds = *seconds
	}
	if *seed >= 0 {
		cfg.Engine.Seed = uint64(*seed)
	}
	if *density >= 0 {
		cfg.Engine.Density = float32(*density)
	}
	if *volume >= 0 {
		cfg.Engine.Volume = float32(*volume)
	}
	if *feedback >= 0 {
		cfg.Engine.Feedback = float32(*feedback)
	}
	if *wetDry >= 0 {
		cfg.Engine.WetDry = float32(*wetDry)
	}
	if *preset != "" {
		cfg.Automation.Preset = *preset
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := host.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	logger.Info("starting",
		"config", *configPath,
		"sample_rate", cfg.Engine.SampleRate,
		"max_delay_seconds", cfg.Engine.MaxDelaySeconds,
		"seed", cfg.Engine.Seed,
		"automation", cfg.Automation.Preset,
	)

	input, err := host.Input(cfg.Input, cfg.Engine.SampleRate)
	if err != nil {
		return err
	}
	var grains atomic.Uint64
	opts, err := host.PlayerOptions(cfg, granular.WithNewGrainHook(granular.NewGrainFunc(func(float32) {
		grains.Add(1)
	})))
	if err != nil {
		return err
	}

	if cfg.Output.Render != "" {
		return renderOffline(logger, cfg, input, opts, &grains)
	}
	return playLive(logger, cfg, input, opts)
}

func renderOffline(logger *slog.Logger, cfg config.Config, input granular.SampleSource, opts []granular.PlayerOption, grains *atomic.Uint64) error {
	if cfg.Output.Seconds <= 0 {
		return errors.New("offline render needs a positive -seconds")
	}
	sr := cfg.Engine.SampleRate
	frames := int(cfg.Output.Seconds * float64(sr))
	start := time.Now()
	samples, err := granular.Render(input, frames, opts...)
	if err != nil {
		return err
	}
	if err := writeWAV(cfg.Output.Render, cfg.Output.Format, samples, sr); err != nil {
		return err
	}
	logger.Info("rendered",
		"path", cfg.Output.Render,
		"format", cfg.Output.Format,
		"frames", len(samples)/2,
		"grains", grains.Load(),
		"elapsed", time.Since(start),
	)
	return nil
}

func writeWAV(path, format string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if format == "pcm16" {
		err = granular.WriteWAV16(f, samples, sampleRate, 2)
	} else {
		_, err = f.Write(granular.EncodeWAVFloat32LE(samples, sampleRate, 2))
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func playLive(logger *slog.Logger, cfg config.Config, input granular.SampleSource, opts []granular.PlayerOption) error {
	pl, err := granular.NewPlayer(opts...)
	if err != nil {
		return err
	}
	host.ApplyEQ(pl, cfg.Post.EQ)
	ch := pl.Watch()
	if err := pl.Play(input); err != nil {
		return err
	}
	logger.Info("playing",
		"backend", cfg.Output.Backend,
		"capacity", pl.Engine().Capacity(),
		"input", describeInput(cfg.Input),
		"post_effects", pl.PostEffects(),
		"automation_lanes", pl.AutomationLanes(),
	)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)
	var deadline <-chan time.Time
	if cfg.Output.Seconds > 0 {
		deadline = time.After(time.Duration(cfg.Output.Seconds * float64(time.Second)))
	}
	report := time.NewTicker(time.Second)
	defer report.Stop()

	var lengths, count float64
	for {
		select {
		case ev := <-ch:
			switch ev.Kind {
			case granular.EventGrain:
				lengths += float64(ev.Duration)
				count++
			case granular.EventPlaybackEnded:
				logger.Info("playback completed", "grains", pl.Grains())
				return nil
			}
		case <-report.C:
			e := pl.Engine()
			mean := 0.0
			if count > 0 {
				mean = lengths / count
			}
			logger.Debug("engine",
				"playing", pl.IsPlaying(),
				"frames", pl.FramesPulled(),
				"active", e.ActiveGrains(),
				"onsets", count,
				"mean_duration", mean,
				"position", e.Position(),
				"density", e.Density(),
				"pitch", e.Pitch(),
			)
			lengths, count = 0, 0
		case <-deadline:
			logger.Info("time limit reached")
			return stop(logger, pl)
		case <-interrupt:
			logger.Info("interrupted")
			return stop(logger, pl)
		}
	}
}

func stop(logger *slog.Logger, pl *granular.Player) error {
	frames := pl.FramesPulled()
	err := pl.Stop()
	pl.Wait()
	logger.Info("stopped", "grains", pl.Grains(), "frames", frames)
	return err
}

func describeInput(in config.Input) string {
	switch {
	case in.WAV != "":
		return in.WAV
	case in.ToneHz > 0:
		return fmt.Sprintf("tone %gHz", in.ToneHz)
	}
	return "silence"
}
