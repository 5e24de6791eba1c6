package stepsynth

import (
	"encoding/binary"
	"errors"
	"math"

	intengine "github.com/cbegin/stepsynth-go/internal/engine"
	intnotes "github.com/cbegin/stepsynth-go/internal/notes"
	intparams "github.com/cbegin/stepsynth-go/internal/params"
	intseq "github.com/cbegin/stepsynth-go/internal/sequencer"
)

// RenderSteps renders a sequence offline for the given number of seconds,
// returning interleaved stereo float32 samples. The tick logic is driven from
// the frame counter instead of a wall-clock timer, so output is deterministic
// in timing (reverb content is still stochastic via the generated kernel).
// Steps wrap around for as long as the render runs; empty or unresolvable
// slots are rests.
func RenderSteps(steps []string, sampleRate int, seconds float64, opts ...Option) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if len(steps) == 0 {
		return nil, errors.New("steps must not be empty")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	store := intparams.NewStore(cfg.initial)
	eng, err := intengine.New(sampleRate, cfg.kernelDur, cfg.kernelDecay, store.Load().ReverbAmount)
	if err != nil {
		return nil, err
	}

	totalFrames := int(float64(sampleRate) * seconds)
	out := make([]float32, totalFrames*2)
	step := -1
	pos := 0
	nextTick := 0
	for pos < totalFrames {
		if pos == nextTick {
			step = (step + 1) % len(steps)
			eng.Teardown()
			if note := steps[step]; note != "" {
				if freq, ok := intnotes.Frequency(note); ok {
					eng.Trigger(freq, store.Load())
				}
			}
			interval := int(intseq.StepInterval(store.Load().BPM).Seconds() * float64(sampleRate))
			if interval < 1 {
				interval = 1
			}
			nextTick += interval
		}
		end := nextTick
		if end > totalFrames {
			end = totalFrames
		}
		eng.Process(out[pos*2 : end*2])
		pos = end
	}
	return out, nil
}

// EncodeWAV wraps interleaved float32 samples in a WAVE_FORMAT_IEEE_FLOAT
// container.
func EncodeWAV(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
