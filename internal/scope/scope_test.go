package scope

import (
	"math"
	"testing"
)

func TestSpectrumOfSilenceIsFloor(t *testing.T) {
	bars := Spectrum(make([]float32, FFTSize), 48000, 16, 18000)
	if len(bars) != 16 {
		t.Fatalf("bars = %d", len(bars))
	}
	for i, v := range bars {
		if v != 0 {
			t.Fatalf("bar %d = %v, want 0", i, v)
		}
	}
}

func TestSnapshotFollowsPlaybackPosition(t *testing.T) {
	a := NewAnalyzer(1000)
	buf := make([]float32, 0, 200)
	for i := 0; i < 100; i++ {
		buf = append(buf, float32(i), float32(i))
	}
	a.Tap(buf)

	// Device has played 60 of the 100 tapped frames.
	got := a.Snapshot(4, 60)
	for i, v := range got {
		if want := float32(56 + i); v != want {
			t.Fatalf("snapshot[%d] = %v, want %v", i, v, want)
		}
	}
	// A device ahead of the tap reads the newest samples.
	got = a.Snapshot(2, 500)
	if got[0] != 98 || got[1] != 99 {
		t.Fatalf("snapshot = %v", got)
	}
	a.Reset()
	got = a.Snapshot(2, 0)
	if got[1] != 99 {
		t.Fatalf("after reset snapshot = %v", got)
	}
}

func TestSpectrumPeaksNearTone(t *testing.T) {
	const sr = 48000
	samples := make([]float32, FFTSize)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 1000 * float64(i) / sr))
	}
	bars := Spectrum(samples, sr, 32, 18000)
	if len(bars) != 32 {
		t.Fatalf("bars = %d", len(bars))
	}
	peak := 0
	for i, v := range bars {
		if v < 0 || v > 1 {
			t.Fatalf("bar %d = %v outside [0, 1]", i, v)
		}
		if v > bars[peak] {
			peak = i
		}
	}
	// 1kHz is bin ~43 of 768 on the log scale: ln(43)/ln(768) of the way up.
	want := int(32 * math.Log(1000.0*FFTSize/sr) / math.Log(18000.0*FFTSize/sr))
	if peak < want-2 || peak > want+2 {
		t.Fatalf("peak bar = %d, want about %d", peak, want)
	}
	if Spectrum(samples[:10], sr, 32, 18000) != nil {
		t.Fatal("short input should give no spectrum")
	}
}
