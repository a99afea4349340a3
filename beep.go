package granular

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Streamer returns a beep.Streamer that runs every sample of src through
// the engine. It ends when src ends.
func (e *Engine) Streamer(src beep.Streamer) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		n, ok = src.Stream(samples)
		for i := range samples[:n] {
			out := e.Process(Frame{L: float32(samples[i][0]), R: float32(samples[i][1])})
			samples[i][0], samples[i][1] = float64(out.L), float64(out.R)
		}
		return n, ok
	})
}

// sourceStreamer pulls a SampleSource as a beep.Streamer.
type sourceStreamer struct {
	src       SampleSource
	finishing FinishingSource
	buf       []float32
	frames    atomic.Int64
}

// SourceStreamer adapts a SampleSource to beep. A FinishingSource ends the
// stream once it reports Finished.
func SourceStreamer(src SampleSource) beep.Streamer {
	return newSourceStreamer(src)
}

func newSourceStreamer(src SampleSource) *sourceStreamer {
	s := &sourceStreamer{src: src}
	s.finishing, _ = src.(FinishingSource)
	return s
}

func (s *sourceStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.finishing != nil && s.finishing.Finished() {
		return 0, false
	}
	need := 2 * len(samples)
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	s.buf = s.buf[:need]
	s.src.Process(s.buf)
	for i := range samples {
		samples[i][0] = float64(s.buf[2*i])
		samples[i][1] = float64(s.buf[2*i+1])
	}
	s.frames.Add(int64(len(samples)))
	return len(samples), true
}

func (s *sourceStreamer) Err() error { return nil }

var (
	speakerOnce       sync.Once
	speakerErr        error
	speakerSampleRate beep.SampleRate
)

// initSpeaker opens the beep speaker once per process, like the ebiten
// context.
func initSpeaker(sampleRate int, bufferSize time.Duration) error {
	sr := beep.SampleRate(sampleRate)
	speakerOnce.Do(func() {
		if bufferSize <= 0 {
			bufferSize = time.Second / 10
		}
		speakerSampleRate = sr
		speakerErr = speaker.Init(sr, sr.N(bufferSize))
	})
	if speakerErr != nil {
		return fmt.Errorf("init speaker: %w", speakerErr)
	}
	if speakerSampleRate != sr {
		return fmt.Errorf("speaker already running at %d Hz (requested %d Hz)", speakerSampleRate, sampleRate)
	}
	return nil
}

// beepOutput plays a SampleSource through the beep speaker mixer.
type beepOutput struct {
	ctrl   *beep.Ctrl
	stream *sourceStreamer
	rate   beep.SampleRate
}

func newBeepOutput(sampleRate int, src SampleSource, bufferSize time.Duration) (*beepOutput, error) {
	if err := initSpeaker(sampleRate, bufferSize); err != nil {
		return nil, err
	}
	stream := newSourceStreamer(src)
	o := &beepOutput{
		ctrl:   &beep.Ctrl{Streamer: stream, Paused: true},
		stream: stream,
		rate:   beep.SampleRate(sampleRate),
	}
	speaker.Play(o.ctrl)
	return o, nil
}

func (o *beepOutput) setPaused(paused bool) {
	speaker.Lock()
	o.ctrl.Paused = paused
	speaker.Unlock()
}

func (o *beepOutput) Play()  { o.setPaused(false) }
func (o *beepOutput) Pause() { o.setPaused(true) }

func (o *beepOutput) IsPlaying() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return o.ctrl.Streamer != nil && !o.ctrl.Paused
}

func (o *beepOutput) Frames() int64 { return o.stream.frames.Load() }

// Stop detaches the stream; the mixer drops a Ctrl without a Streamer.
func (o *beepOutput) Stop() error {
	speaker.Lock()
	o.ctrl.Streamer = nil
	speaker.Unlock()
	return nil
}

// Position is measured at the mixer, ahead of the device by its buffer.
func (o *beepOutput) Position() time.Duration {
	return o.rate.D(int(o.Frames()))
}
