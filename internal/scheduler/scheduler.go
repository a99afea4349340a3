// Package scheduler decides, one sample at a time, when a new grain starts.
package scheduler

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
)

// MaxInterval caps a single inter-onset draw. A non-positive density draws
// this interval, which is effectively "no more onsets".
const MaxInterval = math.MaxInt32

// Scheduler draws approximately exponential inter-onset intervals whose mean
// shrinks as density grows. The sequence of onsets is fully determined by the
// seed.
//
// Advance must be called from a single goroutine. SetDensity may be called
// from another one.
type Scheduler struct {
	countdown int
	density   atomic.Uint32 // float32 bits
	seed      uint64
	src       *rand.PCG
	rng       *rand.Rand
}

// New returns a scheduler whose first Advance fires an onset.
func New(density float32, seed uint64) *Scheduler {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	s := &Scheduler{
		seed: seed,
		src:  src,
		rng:  rand.New(src),
	}
	s.SetDensity(density)
	return s
}

// Advance reports whether an onset fires on this sample. When the countdown
// is exhausted it fires and draws the next interval; otherwise it counts down.
func (s *Scheduler) Advance() bool {
	if s.countdown == 0 {
		s.countdown = s.nextInterval()
		return true
	}
	s.countdown--
	return false
}

// SetDensity changes the rate used by the next draw. An interval already
// counting down is left alone.
func (s *Scheduler) SetDensity(density float32) {
	s.density.Store(math.Float32bits(density))
}

func (s *Scheduler) Density() float32 {
	return math.Float32frombits(s.density.Load())
}

// Countdown returns the samples left before the next onset.
func (s *Scheduler) Countdown() int { return s.countdown }

// Reset rewinds the generator to its seed and arms an immediate onset.
func (s *Scheduler) Reset() {
	s.src.Seed(s.seed, s.seed^0x9e3779b97f4a7c15)
	s.countdown = 0
}

// nextInterval returns ceil(-ln(u)/density*1000) for u uniform in [0.1, 1),
// never less than 1.
func (s *Scheduler) nextInterval() int {
	density := float64(s.Density())
	u := 0.1 + 0.9*s.rng.Float64()
	if !(density > 0) {
		return MaxInterval
	}
	interval := math.Ceil(-math.Log(u) / density * 1000)
	if !(interval >= 1) {
		return 1
	}
	if interval > MaxInterval {
		return MaxInterval
	}
	return int(interval)
}
