// Package scope keeps a short history of the output signal for the
// waveform and spectrum displays.
package scope

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

const (
	FFTSize    = 2048
	ringBufLen = 131072
)

// Analyzer is a mono ring buffer fed from the audio thread.
type Analyzer struct {
	mu          sync.Mutex
	sampleRate  int
	ring        []float32
	writePos    int
	totalTapped int64 // mono samples written since the last Reset
}

func NewAnalyzer(sampleRate int) *Analyzer {
	return &Analyzer{
		sampleRate: sampleRate,
		ring:       make([]float32, ringBufLen),
	}
}

func (a *Analyzer) SampleRate() int { return a.sampleRate }

// Tap copies an interleaved stereo buffer into the ring as mono. It is meant
// to be installed as a sample tap and does no other work.
func (a *Analyzer) Tap(samples []float32) {
	a.mu.Lock()
	for i := 0; i+1 < len(samples); i += 2 {
		a.ring[a.writePos] = (samples[i] + samples[i+1]) * 0.5
		a.writePos = (a.writePos + 1) % ringBufLen
		a.totalTapped++
	}
	a.mu.Unlock()
}

// Reset clears the tapped sample counter (call on new playback).
func (a *Analyzer) Reset() {
	a.mu.Lock()
	a.totalTapped = 0
	a.mu.Unlock()
}

// Snapshot copies the n samples ending at playbackPos, the frame the
// listener hears now. The tap runs ahead of the device by its buffer, so
// the read is shifted back by the difference.
func (a *Analyzer) Snapshot(n int, playbackPos int64) []float32 {
	n = min(n, ringBufLen)
	out := make([]float32, n)
	a.mu.Lock()
	defer a.mu.Unlock()
	lag := int(max(a.totalTapped-playbackPos, 0))
	lag = min(lag, ringBufLen-n)
	start := (a.writePos - lag - n + 2*ringBufLen) % ringBufLen
	for i := range out {
		out[i] = a.ring[(start+i)%ringBufLen]
	}
	return out
}

// Spectrum windows the last FFTSize samples and returns bars log-spaced
// bands up to maxHz, each normalised from -80dB..0dB to 0..1.
func Spectrum(samples []float32, sampleRate, bars int, maxHz float64) []float64 {
	if len(samples) < FFTSize || bars < 1 {
		return nil
	}
	windowed := make([]float64, FFTSize)
	tail := samples[len(samples)-FFTSize:]
	for i, s := range tail {
		hann := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(FFTSize-1)))
		windowed[i] = float64(s) * hann
	}
	buf := fft.FFTReal(windowed)

	half := FFTSize / 2
	maxBin := min(int(float64(half)*maxHz/(float64(sampleRate)/2)), half)
	logMin, logMax := 0.0, math.Log(float64(max(maxBin, 2))) // from bin 1, skipping DC
	out := make([]float64, bars)
	for i := range out {
		lo := int(math.Exp(logMin + float64(i)/float64(bars)*(logMax-logMin)))
		hi := int(math.Exp(logMin + float64(i+1)/float64(bars)*(logMax-logMin)))
		hi = min(max(hi, lo+1), half)
		var sum float64
		for b := lo; b < hi; b++ {
			sum += cmplx.Abs(buf[b])
		}
		avg := sum / float64(max(hi-lo, 1))
		db := 20 * math.Log10(avg/FFTSize+1e-10)
		out[i] = min(max((db+80)/80, 0), 1)
	}
	return out
}
