package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbegin/granular-go/internal/automation"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "granulate.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
engine:
  sample_rate: 44100
  position: 1200
  pitch: 0.5
input:
  wav: loop.wav
  loop: false
automation:
  preset: none
  seed: 4
  lanes:
    - param: wet_dry
      waveform: triangle
      min: 0.2
      max: 0.9
      period_seconds: 2
post:
  effects:
    - type: reverb
      params: [0.8, 0.6, 0.3]
  eq: [1.2, 1, 1, 0.8]
output:
  backend: beep
  render: out.wav
  format: pcm16
logging:
  level: debug
  json: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.SampleRate != 44100 || cfg.Engine.Pitch != 0.5 {
		t.Fatalf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.Position == nil || *cfg.Engine.Position != 1200 {
		t.Fatalf("position = %v", cfg.Engine.Position)
	}
	// Omitted keys keep their defaults.
	if cfg.Engine.Density != 50 || cfg.Engine.Feedback != 0.6 || cfg.Engine.Seed != 10 {
		t.Fatalf("defaults lost: %+v", cfg.Engine)
	}
	if !cfg.Post.Compressor.Enabled || cfg.Output.TailSeconds != 2 {
		t.Fatal("nested defaults lost")
	}
	if cfg.Input.WAV != "loop.wav" || cfg.Input.Loop {
		t.Fatalf("input = %+v", cfg.Input)
	}
	if cfg.Output.Backend != "beep" || cfg.Output.Render != "out.wav" || cfg.Output.Format != "pcm16" {
		t.Fatalf("output = %+v", cfg.Output)
	}
	if len(cfg.Post.Effects) != 1 || cfg.Post.Effects[0].Type != "reverb" || len(cfg.Post.Effects[0].Params) != 3 {
		t.Fatalf("effects = %+v", cfg.Post.Effects)
	}
	if len(cfg.Post.EQ) != 4 || cfg.Post.EQ[0] != 1.2 {
		t.Fatalf("eq = %v", cfg.Post.EQ)
	}

	lanes, err := cfg.Automation.Build(cfg.Engine.SampleRate)
	if err != nil {
		t.Fatal(err)
	}
	want := automation.Lane{Param: automation.ParamWetDry, Waveform: automation.WaveTriangle, Min: 0.2, Max: 0.9, PeriodFrames: 88200}
	if len(lanes) != 1 || lanes[0] != want {
		t.Fatalf("lanes = %+v", lanes)
	}
	level, err := cfg.Logging.SlogLevel()
	if err != nil || level.String() != "DEBUG" || !cfg.Logging.JSON {
		t.Fatalf("logging = %v, %v", level, err)
	}
}

func TestDesktopPresetPrependsDefaults(t *testing.T) {
	a := Automation{
		Preset: "desktop",
		Lanes:  []Lane{{Param: "volume", Waveform: "saw", Min: 0, Max: 1, PeriodSeconds: 1}},
	}
	lanes, err := a.Build(48000)
	if err != nil {
		t.Fatal(err)
	}
	if len(lanes) != 5 || lanes[4].Param != automation.ParamVolume {
		t.Fatalf("lanes = %+v", lanes)
	}
}

func TestLoadErrors(t *testing.T) {
	for _, tc := range []struct {
		name, body, want string
	}{
		{"syntax", "engine: [", "parse config"},
		{"sample rate", "engine: {sample_rate: 0}", "engine.sample_rate"},
		{"density", "engine: {density: -1}", "engine.density"},
		{"position", "engine: {position: -5}", "engine.position"},
		{"preset", "automation: {preset: wild}", "automation.preset"},
		{"lane param", "automation: {lanes: [{param: cutoff, period_seconds: 1}]}", "automation.lanes[0]"},
		{"lane period", "automation: {lanes: [{param: pitch, period_seconds: 0}]}", "period_seconds"},
		{"effect", "post: {effects: [{type: flanger}]}", "post.effects[0]"},
		{"eq bands", "post: {eq: [1, 1, 1, 1, 1, 1]}", "post.eq"},
		{"backend", "output: {backend: alsa}", "output.backend"},
		{"format", "output: {format: mp3}", "output.format"},
		{"level", "logging: {level: chatty}", "logging.level"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Engine.Pitch = 0
	cfg.Output.Backend = "alsa"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"engine.pitch", "output.backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
