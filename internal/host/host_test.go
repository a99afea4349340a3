package host

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	granular "github.com/cbegin/granular-go"
	"github.com/cbegin/granular-go/internal/config"
	"github.com/cbegin/granular-go/internal/source"
)

func TestPlayerOptionsBuildPlayer(t *testing.T) {
	cfg := config.Default()
	pos := float32(1234)
	cfg.Engine.Position = &pos
	cfg.Engine.Pitch = 1.5
	cfg.Automation.Preset = "none"
	cfg.Post.Effects = []config.Effect{{Type: "reverb"}, {Type: "delay", Params: []float64{100}}}
	var hooked int
	opts, err := PlayerOptions(cfg, granular.WithNewGrainHook(granular.NewGrainFunc(func(float32) { hooked++ })))
	if err != nil {
		t.Fatal(err)
	}
	p, err := granular.NewPlayer(opts...)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	e := p.Engine()
	if e.Position() != 1234 || e.Pitch() != 1.5 || e.SampleRate() != 48000 {
		t.Fatalf("engine position=%v pitch=%v rate=%d", e.Position(), e.Pitch(), e.SampleRate())
	}
	ApplyEQ(p, []float32{0.5, 1, 2})
	if p.EQBand(0) != 0.5 || p.EQBand(2) != 2 || p.EQBand(4) != 1 {
		t.Fatal("eq gains not applied")
	}
}

func TestPlayerOptionsRejectBadEffect(t *testing.T) {
	cfg := config.Default()
	cfg.Post.Effects = []config.Effect{{Type: "wah"}}
	if _, err := PlayerOptions(cfg); err == nil {
		t.Fatal("expected error")
	}
}

func TestDesktopAutomationDrivesEngine(t *testing.T) {
	cfg := config.Default()
	opts, err := PlayerOptions(cfg)
	if err != nil {
		t.Fatal(err)
	}
	p, err := granular.NewPlayer(opts...)
	if err != nil {
		t.Fatal(err)
	}
	// The desktop preset draws fresh values at construction.
	if d := p.Engine().Duration(); d < 1000 || d > 3000 {
		t.Fatalf("duration %v outside the preset range", d)
	}
}

func TestInputSelection(t *testing.T) {
	in, err := Input(config.Input{}, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := in.(source.Silence); !ok {
		t.Fatalf("empty input = %T, want silence", in)
	}
	in, err = Input(config.Input{ToneHz: 440, ToneAmplitude: 0.3}, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := in.(*source.Tone); !ok {
		t.Fatalf("tone input = %T", in)
	}

	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := granular.WriteWAV16(f, []float32{0.1, 0.1, 0.2, 0.2}, 22050, 2); err != nil {
		t.Fatal(err)
	}
	f.Close()
	in, err = Input(config.Input{WAV: path, ToneHz: 440}, 22050)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := in.(*source.Player); !ok {
		t.Fatalf("wav input = %T", in)
	}
	in, err = Input(config.Input{WAV: path}, 44100)
	if err != nil {
		t.Fatalf("mismatched rate: %v", err)
	}
	if _, ok := in.(*source.Player); !ok {
		t.Fatalf("resampled wav input = %T", in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(config.Logging{Level: "warn", JSON: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hidden")
	log.Warn("shown", "grains", 3)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["msg"] != "shown" || rec["grains"] != float64(3) {
		t.Fatalf("record = %v", rec)
	}
	if _, err := NewLogger(config.Logging{Level: "loud"}, &buf); err == nil {
		t.Fatal("expected level error")
	}
}
