package automation

import (
	"math"
	"testing"
)

type recorder struct {
	values map[Param]float32
	writes map[Param]int
}

func newRecorder() *recorder {
	return &recorder{values: map[Param]float32{}, writes: map[Param]int{}}
}

func (r *recorder) set(p Param, v float32) {
	r.values[p] = v
	r.writes[p]++
}

func (r *recorder) SetPosition(v float32) { r.set(ParamPosition, v) }
func (r *recorder) SetDensity(v float32)  { r.set(ParamDensity, v) }
func (r *recorder) SetDuration(v float32) { r.set(ParamDuration, v) }
func (r *recorder) SetPitch(v float32)    { r.set(ParamPitch, v) }
func (r *recorder) SetVolume(v float32)   { r.set(ParamVolume, v) }
func (r *recorder) SetFeedback(v float32) { r.set(ParamFeedback, v) }
func (r *recorder) SetWetDry(v float32)   { r.set(ParamWetDry, v) }

func TestTriangleLaneShape(t *testing.T) {
	rec := newRecorder()
	a, err := New(rec, 1, Lane{Param: ParamVolume, Waveform: WaveTriangle, Min: 0, Max: 1, PeriodFrames: 100})
	if err != nil {
		t.Fatal(err)
	}
	a.Apply()
	if rec.values[ParamVolume] != 0 {
		t.Fatalf("phase 0 = %v, want 0", rec.values[ParamVolume])
	}
	a.Advance(25)
	if v := rec.values[ParamVolume]; math.Abs(float64(v)-0.5) > 1e-6 {
		t.Fatalf("phase 0.25 = %v, want 0.5", v)
	}
	a.Advance(25)
	if v := rec.values[ParamVolume]; math.Abs(float64(v)-1) > 1e-6 {
		t.Fatalf("phase 0.5 = %v, want 1", v)
	}
	a.Advance(50)
	if v := rec.values[ParamVolume]; v != 0 {
		t.Fatalf("full cycle = %v, want 0", v)
	}
}

func TestSquareAndSawLanes(t *testing.T) {
	rec := newRecorder()
	a, err := New(rec, 1,
		Lane{Param: ParamFeedback, Waveform: WaveSquare, Min: 0.2, Max: 0.8, PeriodFrames: 10},
		Lane{Param: ParamWetDry, Waveform: WaveSaw, Min: 0, Max: 1, PeriodFrames: 10},
	)
	if err != nil {
		t.Fatal(err)
	}
	a.Apply()
	if v := rec.values[ParamFeedback]; math.Abs(float64(v)-0.8) > 1e-6 {
		t.Fatalf("square first half = %v, want 0.8", rec.values[ParamFeedback])
	}
	a.Advance(6)
	if rec.values[ParamFeedback] != 0.2 {
		t.Fatalf("square second half = %v, want 0.2", rec.values[ParamFeedback])
	}
	if v := rec.values[ParamWetDry]; math.Abs(float64(v)-0.6) > 1e-6 {
		t.Fatalf("saw at 0.6 = %v", v)
	}
}

func TestRandomLaneHoldsUntilPeriodBoundary(t *testing.T) {
	rec := newRecorder()
	a, err := New(rec, 42, Lane{Param: ParamPitch, Waveform: WaveRandom, Min: 0.5, Max: 2, PeriodFrames: 1000})
	if err != nil {
		t.Fatal(err)
	}
	a.Apply()
	first := rec.values[ParamPitch]
	for i := 0; i < 9; i++ {
		a.Advance(100)
	}
	if rec.writes[ParamPitch] != 1 || rec.values[ParamPitch] != first {
		t.Fatalf("random lane rewrote inside its period: writes=%d", rec.writes[ParamPitch])
	}
	a.Advance(100)
	if rec.writes[ParamPitch] != 2 {
		t.Fatalf("random lane did not redraw at the boundary: writes=%d", rec.writes[ParamPitch])
	}
}

func TestLaneValuesStayInRange(t *testing.T) {
	rec := newRecorder()
	lanes := DesktopDefaults(48000)
	a, err := New(rec, 7, lanes...)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 500; i++ {
		a.Advance(4800)
		for j, lane := range lanes {
			v := a.Value(j)
			if v < lane.Min || v > lane.Max {
				t.Fatalf("%s = %v outside [%v, %v]", lane.Param, v, lane.Min, lane.Max)
			}
		}
	}
	if a.Lanes() != 4 {
		t.Fatalf("lanes = %d", a.Lanes())
	}
}

func TestResetReplaysRandomSequence(t *testing.T) {
	rec := newRecorder()
	a, err := New(rec, 3, DesktopDefaults(1000)...)
	if err != nil {
		t.Fatal(err)
	}
	var first []float32
	for i := 0; i < 20; i++ {
		a.Advance(500)
		first = append(first, a.Value(0), a.Value(3))
	}
	a.Reset()
	for i := 0; i < 20; i++ {
		a.Advance(500)
		if a.Value(0) != first[2*i] || a.Value(3) != first[2*i+1] {
			t.Fatalf("step %d differs after reset", i)
		}
	}
}

func TestNewRejectsBadLanes(t *testing.T) {
	for _, tc := range []struct {
		name string
		lane Lane
	}{
		{"zero period", Lane{Param: ParamVolume, PeriodFrames: 0}},
		{"inverted range", Lane{Param: ParamVolume, Min: 1, Max: 0, PeriodFrames: 10}},
		{"unknown param", Lane{Param: Param(99), PeriodFrames: 10}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(newRecorder(), 1, tc.lane); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseNames(t *testing.T) {
	p, err := ParseParam(" Wet_Dry ")
	if err != nil || p != ParamWetDry {
		t.Fatalf("ParseParam = %v, %v", p, err)
	}
	if _, err := ParseParam("cutoff"); err == nil {
		t.Fatal("expected error for unknown param")
	}
	w, err := ParseWaveform("RANDOM")
	if err != nil || w != WaveRandom {
		t.Fatalf("ParseWaveform = %v, %v", w, err)
	}
	if w, _ := ParseWaveform(""); w != WaveTriangle {
		t.Fatalf("empty waveform = %v, want triangle", w)
	}
	if ParamDensity.String() != "density" {
		t.Fatalf("String = %q", ParamDensity.String())
	}
}
