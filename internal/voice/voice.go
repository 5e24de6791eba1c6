// Package voice implements the transient per-note signal chain: oscillator
// into a resonant low-pass biquad into an envelope-automated gain. A voice is
// built on trigger, torn down before the next trigger, and self-terminates at
// the end of its release ramp even if never explicitly torn down.
package voice

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cbegin/stepsynth-go/internal/params"
)

// filterQ matches the default resonance of the low-pass in the signal chain.
const filterQ = 1.0

// Voice owns the tone generator, filter, and gain for one sounding note.
// At most one Voice is alive at any instant; the sequencer enforces that by
// tearing down the previous voice before building the next.
type Voice struct {
	sampleRate int
	osc        oscillator
	filter     *biquad.Section
	env        Envelope
	torn       bool
}

// New builds the chain for a note at freq Hz, initializes the gain to zero
// amplitude, and arms the envelope at startFrame using the current parameter
// snapshot. The oscillator runs from the first RenderFrame call.
func New(sampleRate int, freq float64, snap params.Snapshot, startFrame int64) *Voice {
	v := &Voice{
		sampleRate: sampleRate,
		osc:        newOscillator(snap.Waveform, freq, sampleRate),
		filter:     biquad.NewSection(lowpass(snap.CutoffHz, sampleRate)),
	}
	v.env.Arm(startFrame, sampleRate, snap.Env, snap.Volume)
	return v
}

// RenderFrame produces one mono sample for the given absolute frame. A torn
// down or self-terminated voice is silent.
func (v *Voice) RenderFrame(frame int64) float64 {
	if v.torn || frame >= v.env.EndFrame() {
		return 0
	}
	s := v.osc.next()
	s = v.filter.ProcessSample(s)
	return s * v.env.ValueAt(frame)
}

// Finished reports whether the voice has reached its scheduled stop.
func (v *Voice) Finished(frame int64) bool {
	return v.torn || frame >= v.env.EndFrame()
}

// Teardown disconnects the chain. Idempotent; safe on an already-stopped
// voice.
func (v *Voice) Teardown() {
	v.torn = true
}

// SetWaveform switches the oscillator shape in place without re-triggering.
func (v *Voice) SetWaveform(wave params.Waveform) {
	v.osc.setWaveform(wave)
}

// SetCutoff redesigns the filter at the new cutoff, preserving filter state
// so the running signal does not glitch.
func (v *Voice) SetCutoff(hz float64) {
	v.filter.Coefficients = lowpass(hz, v.sampleRate)
}

// lowpass designs the voice filter. The cutoff is kept below Nyquist; the
// designer rejects frequencies at or above it.
func lowpass(hz float64, sampleRate int) biquad.Coefficients {
	nyquist := float64(sampleRate) / 2
	if hz >= nyquist {
		hz = nyquist * 0.99
	}
	return design.Lowpass(hz, filterQ, float64(sampleRate))
}

// SetVolume retargets the envelope ceiling without disturbing the in-flight
// automation shape.
func (v *Voice) SetVolume(volume float64) {
	v.env.SetCeiling(volume)
}

// Rearm repeats the four-point envelope schedule anchored at frame. The
// caller decides which parameter values to use; a mid-flight edit re-arms
// with the values that were current when the edit handler ran.
func (v *Voice) Rearm(frame int64, adsr params.ADSR, volume float64) {
	v.env.Arm(frame, v.sampleRate, adsr, volume)
}

// EnvelopePoints exposes the scheduled automation points for inspection.
func (v *Voice) EnvelopePoints() []Point {
	return v.env.Points()
}
