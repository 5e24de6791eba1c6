package voice

import (
	"math"

	"github.com/cbegin/stepsynth-go/internal/params"
)

const twoPi = math.Pi * 2

// oscillator generates one of three band-unlimited waveforms from a
// normalized phase accumulator. The waveform can be switched while running;
// the phase carries over so retuning or reshaping never clicks to zero.
type oscillator struct {
	wave  params.Waveform
	phase float64 // 0..1
	incr  float64 // cycles per sample
}

func newOscillator(wave params.Waveform, freq float64, sampleRate int) oscillator {
	return oscillator{wave: wave, incr: freq / float64(sampleRate)}
}

func (o *oscillator) setWaveform(wave params.Waveform) {
	o.wave = wave
}

func (o *oscillator) next() float64 {
	var s float64
	switch o.wave {
	case params.WaveSawtooth:
		s = 2*o.phase - 1
	case params.WaveTriangle:
		s = 1 - 4*math.Abs(o.phase-0.5)
	default:
		s = math.Sin(twoPi * o.phase)
	}
	o.phase += o.incr
	if o.phase >= 1 {
		o.phase -= 1
	}
	return s
}
