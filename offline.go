package granular

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// renderBlock is the block size used by Render, matching a typical device
// buffer so automation advances at the same rate as live playback.
const renderBlock = 512

// Render pulls frames stereo frames of input through a fresh engine and
// signal path configured by opts, without an audio device. A RewindableSource
// is rendered from its first frame. A finishing input
// stops the render once it and its tail are done, so the result may be
// shorter than requested.
func Render(input SampleSource, frames int, opts ...PlayerOption) ([]float32, error) {
	if frames < 0 {
		return nil, fmt.Errorf("negative frame count %d", frames)
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	path, err := newSignalPath(cfg)
	if err != nil {
		return nil, err
	}
	pl := path.start(input, nil)
	out := make([]float32, 2*frames)
	for off := 0; off < len(out); off += 2 * renderBlock {
		end := min(off+2*renderBlock, len(out))
		pl.Process(out[off:end])
		if pl.Finished() {
			return out[:end], nil
		}
	}
	return out, nil
}

// wavHeader is the canonical 44-byte header of an IEEE float WAV file.
type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

const wavFormatFloat = 3

// EncodeWAVFloat32LE returns samples as a 32-bit float WAV file.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := uint32(len(samples) * 4)
	h := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		Format:        wavFormatFloat,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * 4),
		BlockAlign:    uint16(channels * 4),
		BitsPerSample: 32,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}
	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	// Writes to a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, h)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// WriteWAV16 writes samples as 16-bit PCM, clipping to [-1, 1].
func WriteWAV16(w io.WriteSeeker, samples []float32, sampleRate int, channels int) error {
	if channels < 1 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(float64(max(-1, min(1, s))) * math.MaxInt16))
	}
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
