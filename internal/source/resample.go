package source

import (
	"fmt"

	"github.com/dh1tw/gosamplerate"
)

// Resample returns the clip converted to sampleRate with a band-limited sinc
// converter. A clip already at sampleRate is returned as is.
func (c *Clip) Resample(sampleRate int) (*Clip, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if c.SampleRate == sampleRate {
		return c, nil
	}
	if c.SampleRate <= 0 {
		return nil, fmt.Errorf("clip has invalid sample rate %d", c.SampleRate)
	}
	if c.Frames() == 0 {
		return &Clip{SampleRate: sampleRate}, nil
	}
	ratio := float64(sampleRate) / float64(c.SampleRate)
	out, err := gosamplerate.Simple(c.Samples[:2*c.Frames()], ratio, 2, gosamplerate.SRC_SINC_BEST_QUALITY)
	if err != nil {
		return nil, fmt.Errorf("resample %d Hz to %d Hz: %w", c.SampleRate, sampleRate, err)
	}
	return &Clip{SampleRate: sampleRate, Samples: out[:len(out)&^1]}, nil
}
