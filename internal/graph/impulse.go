package graph

import (
	"math"
	"math/rand"
)

// ImpulseResponse generates the reverb convolution kernel: two channels of
// white noise under an exponentially decaying magnitude envelope
// (1 - i/length)^decayExp. The shape is deterministic, the content is not;
// each channel gets independent noise so the reverb tail decorrelates left
// from right.
func ImpulseResponse(sampleRate int, durationSec, decayExp float64) (left, right []float64) {
	length := int(float64(sampleRate) * durationSec)
	if length < 1 {
		length = 1
	}
	left = make([]float64, length)
	right = make([]float64, length)
	for i := 0; i < length; i++ {
		env := math.Pow(1-float64(i)/float64(length), decayExp)
		left[i] = (rand.Float64()*2 - 1) * env
		right[i] = (rand.Float64()*2 - 1) * env
	}
	return left, right
}
