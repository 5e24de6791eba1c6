// Package audio adapts the engine's float32 sample source to an ebiten audio
// player. The shared audio context is created lazily on first use and lives
// for the process lifetime.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource produces interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// streamReader exposes a SampleSource as the little-endian float32 byte
// stream ebiten's player reads. The stream never ends; stopping playback is
// the transport's job, not the stream's.
type streamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func (r *streamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// Output owns the platform audio player feeding from a SampleSource.
type Output struct {
	player *ebitaudio.Player
}

// NewOutput opens the audio device at the given rate. Device failure is
// reported here and nowhere else; the caller surfaces it as an inability to
// play.
func NewOutput(sampleRate int, source SampleSource) (*Output, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(&streamReader{source: source})
	if err != nil {
		return nil, fmt.Errorf("open audio player: %w", err)
	}
	return &Output{player: pl}, nil
}

func (o *Output) Start() { o.player.Play() }

func (o *Output) Close() error {
	o.player.Pause()
	return o.player.Close()
}
