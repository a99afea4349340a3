package automation

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Param names an engine parameter a lane can drive.
type Param int

const (
	ParamPosition Param = iota
	ParamDensity
	ParamDuration
	ParamPitch
	ParamVolume
	ParamFeedback
	ParamWetDry
)

var paramNames = [...]string{"position", "density", "duration", "pitch", "volume", "feedback", "wet_dry"}

func (p Param) String() string {
	if p < 0 || int(p) >= len(paramNames) {
		return fmt.Sprintf("Param(%d)", int(p))
	}
	return paramNames[p]
}

// ParseParam resolves a parameter by name, case-insensitively.
func ParseParam(name string) (Param, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range paramNames {
		if n == s {
			return Param(i), nil
		}
	}
	return 0, fmt.Errorf("unknown parameter %q", name)
}

// ParseWaveform resolves saw|square|triangle|random.
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "saw":
		return WaveSaw, nil
	case "square":
		return WaveSquare, nil
	case "triangle", "":
		return WaveTriangle, nil
	case "random":
		return WaveRandom, nil
	}
	return 0, fmt.Errorf("unknown waveform %q (expected saw|square|triangle|random)", name)
}

// Controls is the parameter surface a lane writes to. *granular.Engine
// satisfies it.
type Controls interface {
	SetPosition(samples float32)
	SetDensity(density float32)
	SetDuration(samples float32)
	SetPitch(ratio float32)
	SetVolume(volume float32)
	SetFeedback(feedback float32)
	SetWetDry(wetDry float32)
}

// Lane sweeps one parameter between Min and Max with the given waveform and
// period.
type Lane struct {
	Param    Param
	Waveform Waveform
	Min, Max float32
	// PeriodFrames is the cycle length. Random lanes draw a new value once
	// per period and hold it.
	PeriodFrames int
}

// Automator owns a set of lanes and writes their values into Controls.
// It is meant to run at block rate on the goroutine that owns the engine.
type Automator struct {
	target Controls
	lanes  []Lane
	lfos   []lfo
	seed   uint64
	src    *rand.PCG
}

// New builds an Automator. Random lanes share one generator seeded by seed.
func New(target Controls, seed uint64, lanes ...Lane) (*Automator, error) {
	src := rand.NewPCG(seed, ^seed)
	rng := rand.New(src)
	a := &Automator{target: target, lanes: lanes, seed: seed, src: src}
	for _, lane := range lanes {
		if lane.Param < ParamPosition || lane.Param > ParamWetDry {
			return nil, fmt.Errorf("lane targets unknown parameter %d", int(lane.Param))
		}
		if lane.PeriodFrames < 1 {
			return nil, fmt.Errorf("%s lane: period must be at least one frame", lane.Param)
		}
		if lane.Min > lane.Max {
			return nil, fmt.Errorf("%s lane: min %g above max %g", lane.Param, lane.Min, lane.Max)
		}
		a.lfos = append(a.lfos, newLFO(lane.Waveform, lane.PeriodFrames, rng))
	}
	return a, nil
}

// Apply writes every lane's current value without advancing.
func (a *Automator) Apply() {
	for i := range a.lanes {
		a.apply(i)
	}
}

// Advance moves every lane forward by frames. Periodic lanes are rewritten on
// every call; random lanes only when they cross a period boundary.
func (a *Automator) Advance(frames int) {
	if frames <= 0 {
		return
	}
	for i := range a.lanes {
		wraps := a.lfos[i].advance(frames)
		if a.lanes[i].Waveform == WaveRandom && wraps == 0 {
			continue
		}
		a.apply(i)
	}
}

// Value returns lane i's current output in [Min, Max].
func (a *Automator) Value(i int) float32 {
	lane := a.lanes[i]
	v := a.lfos[i].value()
	return lane.Min + float32(v)*(lane.Max-lane.Min)
}

// Lanes returns the number of lanes.
func (a *Automator) Lanes() int { return len(a.lanes) }

// Reset rewinds phases and the random generator, then reapplies.
func (a *Automator) Reset() {
	a.src.Seed(a.seed, ^a.seed)
	for i := range a.lfos {
		a.lfos[i].reset()
		if a.lanes[i].Waveform == WaveRandom {
			a.lfos[i].held = a.lfos[i].rng.Float64()
		}
	}
	a.Apply()
}

func (a *Automator) apply(i int) {
	v := a.Value(i)
	switch a.lanes[i].Param {
	case ParamPosition:
		a.target.SetPosition(v)
	case ParamDensity:
		a.target.SetDensity(v)
	case ParamDuration:
		a.target.SetDuration(v)
	case ParamPitch:
		a.target.SetPitch(v)
	case ParamVolume:
		a.target.SetVolume(v)
	case ParamFeedback:
		a.target.SetFeedback(v)
	case ParamWetDry:
		a.target.SetWetDry(v)
	}
}

// DesktopDefaults re-randomizes position and density every half second and
// duration and pitch every second, the way the desktop WAV player does.
func DesktopDefaults(sampleRate int) []Lane {
	half := sampleRate / 2
	return []Lane{
		{Param: ParamPosition, Waveform: WaveRandom, Min: 1000, Max: 41000, PeriodFrames: half},
		{Param: ParamDensity, Waveform: WaveRandom, Min: 1, Max: 100, PeriodFrames: half},
		{Param: ParamDuration, Waveform: WaveRandom, Min: 1000, Max: 3000, PeriodFrames: sampleRate},
		{Param: ParamPitch, Waveform: WaveRandom, Min: 0.5, Max: 2, PeriodFrames: sampleRate},
	}
}
