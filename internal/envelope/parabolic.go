// Package envelope provides the grain amplitude envelope.
package envelope

// Parabolic traces amp(k) = 4*peak*(k/N)*(1-k/N) over N samples using only
// additions: amplitude += slope; slope += curve. It holds no table and its
// output depends only on the number of Process calls since construction.
type Parabolic struct {
	amplitude float32
	slope     float32
	curve     float32

	durationSamples float32
	peak            float32
}

// NewParabolic returns an envelope that rises from 0 to roughly peak at the
// midpoint and falls back to 0 after durationSamples calls.
func NewParabolic(durationSamples, peak float32) Parabolic {
	inv := 1 / durationSamples
	inv2 := inv * inv
	return Parabolic{
		slope:           4 * peak * (inv - inv2),
		curve:           -8 * peak * inv2,
		durationSamples: durationSamples,
		peak:            peak,
	}
}

// Process advances one sample and returns the new amplitude. If the curve
// would go negative the envelope restarts from its initial state, so the
// result is never negative and a driven-on envelope begins a fresh bump.
func (e *Parabolic) Process() float32 {
	e.amplitude += e.slope
	e.slope += e.curve
	if e.amplitude < 0 {
		*e = NewParabolic(e.durationSamples, e.peak)
	}
	return e.amplitude
}
