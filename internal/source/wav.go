// Package source provides the input streams a granular host feeds into the
// engine: decoded WAV clips, test tones and silence. Every source fills
// interleaved stereo float32 buffers.
package source

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"
)

// Clip is a decoded stereo recording.
type Clip struct {
	SampleRate int
	Samples    []float32 // interleaved L, R
}

// Frames returns the clip length in stereo frames.
func (c *Clip) Frames() int { return len(c.Samples) / 2 }

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// LoadWAV decodes an integer PCM or 32-bit IEEE float WAV file into a stereo
// clip. Mono files are duplicated to both channels; files with more than two
// channels keep the first two.
func LoadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels < 1 {
		return nil, errors.New("wav has no channels")
	}
	sample, err := sampleDecoder(dec.WavAudioFormat, bitDepth)
	if err != nil {
		return nil, err
	}

	frames := len(buf.Data) / channels
	clip := &Clip{
		SampleRate: int(dec.SampleRate),
		Samples:    make([]float32, frames*2),
	}
	for i := 0; i < frames; i++ {
		l := sample(buf.Data[i*channels])
		r := l
		if channels > 1 {
			r = sample(buf.Data[i*channels+1])
		}
		clip.Samples[2*i] = l
		clip.Samples[2*i+1] = r
	}
	return clip, nil
}

// sampleDecoder maps one decoded PCM value to [-1, 1). The decoder hands
// float data back as the raw 32-bit pattern of each sample.
func sampleDecoder(format uint16, bitDepth int) (func(int) float32, error) {
	if format == wavFormatFloat {
		if bitDepth != 32 {
			return nil, fmt.Errorf("unsupported float wav bit depth %d", bitDepth)
		}
		return func(v int) float32 { return math.Float32frombits(uint32(int32(v))) }, nil
	}
	if format != wavFormatPCM && format != 0xFFFE {
		return nil, fmt.Errorf("unsupported wav format %d", format)
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported wav bit depth %d", bitDepth)
	}
	// Integer PCM spans [-2^(bits-1), 2^(bits-1)); 8-bit data is unsigned.
	scale := float32(1) / float32(int64(1)<<(bitDepth-1))
	bias := 0
	if bitDepth == 8 {
		bias = 128
	}
	return func(v int) float32 { return float32(v-bias) * scale }, nil
}
