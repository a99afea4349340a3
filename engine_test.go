package granular

import (
	"math"
	"math/rand/v2"
	"testing"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func noise(n int, seed uint64) []Frame {
	r := rand.New(rand.NewPCG(seed, seed))
	out := make([]Frame, n)
	for i := range out {
		out[i] = Frame{L: r.Float32()*2 - 1, R: r.Float32()*2 - 1}
	}
	return out
}

func TestNewDefaults(t *testing.T) {
	e := newTestEngine(t)
	if got, want := e.Capacity(), DefaultSampleRate*10; got != want {
		t.Fatalf("capacity = %d, want %d", got, want)
	}
	if got, want := e.Position(), float32(e.Capacity()/2); got != want {
		t.Fatalf("position = %v, want %v", got, want)
	}
	checks := []struct {
		name      string
		got, want float32
	}{
		{"density", e.Density(), 50},
		{"duration", e.Duration(), 3000},
		{"pitch", e.Pitch(), 1},
		{"volume", e.Volume(), 0.5},
		{"feedback", e.Feedback(), 0.6},
		{"wet/dry", e.WetDry(), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if e.SampleRate() != DefaultSampleRate {
		t.Errorf("sample rate = %d", e.SampleRate())
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"zero sample rate", []Option{WithSampleRate(0)}},
		{"negative max delay", []Option{WithMaxDelaySeconds(-1)}},
		{"max delay below one sample", []Option{WithSampleRate(100), WithMaxDelaySeconds(0.001)}},
		{"empty external buffer", []Option{WithDelayBuffer([]Frame{})}},
		{"position beyond capacity", []Option{WithDelayBuffer(make([]Frame, 100)), WithPosition(101)}},
		{"negative position", []Option{WithPosition(-1)}},
		{"zero density", []Option{WithDensity(0)}},
		{"zero duration", []Option{WithDuration(0)}},
		{"zero pitch", []Option{WithPitch(0)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.opts...); err == nil {
				t.Fatal("expected construction error")
			}
		})
	}
}

func TestPositionAtCapacityIsAccepted(t *testing.T) {
	newTestEngine(t, WithDelayBuffer(make([]Frame, 100)), WithPosition(100))
}

func TestDryOnlyOutputIsInvertedAndAttenuated(t *testing.T) {
	e := newTestEngine(t,
		WithSampleRate(8000),
		WithMaxDelaySeconds(2),
		WithWetDry(0),
		WithVolume(0.5),
		WithFeedback(0),
		WithDensity(0.001),
	)
	for i, in := range noise(4000, 1) {
		got := e.Process(in)
		want := Frame{L: -0.5 * in.L, R: -0.5 * in.R}
		if got != want {
			t.Fatalf("sample %d: in=%+v out=%+v, want %+v", i, in, got, want)
		}
	}
}

func TestGrainsReplayHistory(t *testing.T) {
	e := newTestEngine(t,
		WithSampleRate(8000),
		WithMaxDelaySeconds(1),
		WithPosition(200),
		WithDuration(400),
		WithDensity(200),
		WithFeedback(0),
	)
	var peak float64
	for i := 0; i < 8000; i++ {
		out := e.Process(Frame{L: 0.5, R: 0.5})
		if v := math.Abs(float64(out.L)); v > peak {
			peak = v
		}
		if math.IsNaN(float64(out.L)) || math.Abs(float64(out.L)) > 2 {
			t.Fatalf("sample %d out of range: %+v", i, out)
		}
	}
	if peak < 0.05 {
		t.Fatalf("expected audible grains, peak=%f", peak)
	}
}

func TestHookFiresOncePerActivation(t *testing.T) {
	var calls int
	var lastDuration float32
	e := newTestEngine(t,
		WithSampleRate(1000),
		WithMaxDelaySeconds(1),
		WithDuration(10000),
		WithDensity(1e9), // one onset every other sample
		WithNewGrainHook(NewGrainFunc(func(d float32) {
			calls++
			lastDuration = d
		})),
	)
	for i := 0; i < 2*MaxGrains; i++ {
		e.Process(Frame{})
	}
	if calls != MaxGrains {
		t.Fatalf("hook calls = %d, want %d", calls, MaxGrains)
	}
	if lastDuration != 10000 {
		t.Fatalf("hook duration = %v, want 10000", lastDuration)
	}
	// The pool is saturated: further onsets are dropped without notice.
	for i := 0; i < 2*MaxGrains; i++ {
		e.Process(Frame{})
	}
	if calls != MaxGrains {
		t.Fatalf("hook fired for dropped onsets: %d calls", calls)
	}
	if got := e.ActiveGrains(); got != MaxGrains {
		t.Fatalf("active grains = %d, want %d", got, MaxGrains)
	}

	e.SetNewGrainHook(nil)
	e.Reset()
	e.Process(Frame{})
	if calls != MaxGrains {
		t.Fatal("removed hook still called")
	}
}

func TestSaturatedPoolDoesNotAllocate(t *testing.T) {
	var onsets int
	e := newTestEngine(t,
		WithSampleRate(1000),
		WithMaxDelaySeconds(1),
		WithDuration(1e6),
		WithDensity(1e9),
		WithNewGrainHook(NewGrainFunc(func(float32) { onsets++ })),
	)
	in := Frame{L: 0.1, R: -0.1}
	allocs := testing.AllocsPerRun(5*MaxGrains, func() { e.Process(in) })
	if allocs != 0 {
		t.Fatalf("Process allocated %v times per call", allocs)
	}
	if onsets != MaxGrains {
		t.Fatalf("onsets = %d, want pool size %d", onsets, MaxGrains)
	}
	if len(e.grains) != MaxGrains {
		t.Fatalf("pool size changed to %d", len(e.grains))
	}
}

func TestSameSeedIsBitExact(t *testing.T) {
	input := noise(20000, 2)
	a := newTestEngine(t, WithSampleRate(8000), WithMaxDelaySeconds(1), WithPosition(1000), WithSeed(77))
	b := newTestEngine(t, WithSampleRate(8000), WithMaxDelaySeconds(1), WithPosition(1000), WithSeed(77))
	for i, in := range input {
		if x, y := a.Process(in), b.Process(in); x != y {
			t.Fatalf("sample %d: %+v vs %+v", i, x, y)
		}
	}
}

func TestResetReplaysFromScratch(t *testing.T) {
	input := noise(10000, 3)
	e := newTestEngine(t, WithSampleRate(8000), WithMaxDelaySeconds(1), WithPosition(500), WithDuration(800))
	first := make([]Frame, len(input))
	for i, in := range input {
		first[i] = e.Process(in)
	}
	e.Reset()
	if e.ActiveGrains() != 0 {
		t.Fatalf("active grains after reset = %d", e.ActiveGrains())
	}
	for i, in := range input {
		if got := e.Process(in); got != first[i] {
			t.Fatalf("sample %d after reset: %+v, want %+v", i, got, first[i])
		}
	}
}

func TestBlockHelpersMatchPerSample(t *testing.T) {
	input := noise(3000, 4)
	opts := []Option{WithSampleRate(8000), WithMaxDelaySeconds(1), WithPosition(700), WithSeed(5)}
	ref := newTestEngine(t, opts...)
	inter := newTestEngine(t, opts...)
	planar := newTestEngine(t, opts...)

	buf := make([]float32, 2*len(input))
	inL := make([]float32, len(input))
	inR := make([]float32, len(input))
	for i, f := range input {
		buf[2*i], buf[2*i+1] = f.L, f.R
		inL[i], inR[i] = f.L, f.R
	}
	inter.ProcessInterleaved(buf)
	outL := make([]float32, len(input))
	outR := make([]float32, len(input))
	if n := planar.ProcessPlanar(inL, inR, outL, outR); n != len(input) {
		t.Fatalf("planar processed %d frames", n)
	}
	for i, in := range input {
		want := ref.Process(in)
		if buf[2*i] != want.L || buf[2*i+1] != want.R {
			t.Fatalf("interleaved frame %d = (%v, %v), want %+v", i, buf[2*i], buf[2*i+1], want)
		}
		if outL[i] != want.L || outR[i] != want.R {
			t.Fatalf("planar frame %d = (%v, %v), want %+v", i, outL[i], outR[i], want)
		}
	}
}

func TestProcessPlanarUsesShortestSlice(t *testing.T) {
	e := newTestEngine(t, WithSampleRate(1000), WithMaxDelaySeconds(1))
	if n := e.ProcessPlanar(make([]float32, 8), make([]float32, 5), make([]float32, 8), make([]float32, 8)); n != 5 {
		t.Fatalf("processed %d frames, want 5", n)
	}
}

func TestExternalDelayBuffer(t *testing.T) {
	buf := make([]Frame, 256)
	e := newTestEngine(t, WithDelayBuffer(buf), WithFeedback(0))
	if e.Capacity() != 256 || e.Position() != 128 {
		t.Fatalf("capacity=%d position=%v", e.Capacity(), e.Position())
	}
	e.Process(Frame{L: 0.25, R: 0.5})
	if buf[0] != (Frame{L: 0.25, R: 0.5}) {
		t.Fatalf("external buffer slot 0 = %+v", buf[0])
	}
}

func TestSettersRoundTrip(t *testing.T) {
	e := newTestEngine(t, WithSampleRate(1000), WithMaxDelaySeconds(1))
	e.SetPosition(12)
	e.SetDensity(3)
	e.SetDuration(450)
	e.SetPitch(1.5)
	e.SetVolume(0.8)
	e.SetFeedback(0.1)
	e.SetWetDry(0.25)
	got := []float32{e.Position(), e.Density(), e.Duration(), e.Pitch(), e.Volume(), e.Feedback(), e.WetDry()}
	want := []float32{12, 3, 450, 1.5, 0.8, 0.1, 0.25}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("param %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewGrainsUseCurrentParameters(t *testing.T) {
	e := newTestEngine(t, WithSampleRate(1000), WithMaxDelaySeconds(1), WithDensity(1e9))
	e.SetDuration(123)
	e.SetPitch(2)
	e.SetPosition(45)
	e.Process(Frame{})
	g := &e.grains[0]
	if !g.Active() || g.Duration() != 123 || g.Pitch() != 2 || g.Position() != 45 {
		t.Fatalf("grain = active:%v dur:%v pitch:%v pos:%v", g.Active(), g.Duration(), g.Pitch(), g.Position())
	}
	// Later parameter changes leave the sounding grain alone.
	e.SetDuration(999)
	if g.Duration() != 123 {
		t.Fatal("in-flight grain duration changed")
	}
}

func TestDegeneratePitchDropsOnset(t *testing.T) {
	var calls int
	e := newTestEngine(t, WithSampleRate(1000), WithMaxDelaySeconds(1), WithDensity(1e9),
		WithNewGrainHook(NewGrainFunc(func(float32) { calls++ })))
	e.SetPitch(0)
	for i := 0; i < 10; i++ {
		e.Process(Frame{})
	}
	if calls != 0 || e.ActiveGrains() != 0 {
		t.Fatalf("zero pitch started grains: calls=%d active=%d", calls, e.ActiveGrains())
	}
}
