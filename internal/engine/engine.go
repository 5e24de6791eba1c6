// Package engine renders the synth: it owns the persistent audio graph, the
// single transient voice slot, and the frame counter that serves as the
// sample-accurate audio clock for envelope automation. Voice lifecycle calls
// and the render loop are serialized by one mutex, so a tick never observes a
// half-built voice.
package engine

import (
	"sync"

	"github.com/cbegin/stepsynth-go/internal/graph"
	"github.com/cbegin/stepsynth-go/internal/params"
	"github.com/cbegin/stepsynth-go/internal/voice"
)

type Engine struct {
	mu         sync.Mutex
	sampleRate int
	graph      *graph.Graph
	voice      *voice.Voice
	frame      int64
}

// New builds the persistent graph once. kernelDur/kernelDecay shape the
// generated reverb impulse response; the graph is never rebuilt afterwards.
func New(sampleRate int, kernelDur, kernelDecay, reverbAmount float64) (*Engine, error) {
	kl, kr := graph.ImpulseResponse(sampleRate, kernelDur, kernelDecay)
	g, err := graph.New(kl, kr, reverbAmount)
	if err != nil {
		return nil, err
	}
	return &Engine{sampleRate: sampleRate, graph: g}, nil
}

// SampleRate returns the render rate in Hz.
func (e *Engine) SampleRate() int { return e.sampleRate }

// Process renders interleaved stereo float32 frames. Implements the audio
// backend's SampleSource.
func (e *Engine) Process(dst []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	frames := len(dst) / 2
	for f := 0; f < frames; f++ {
		var s float64
		if e.voice != nil {
			s = e.voice.RenderFrame(e.frame)
			if e.voice.Finished(e.frame) {
				// Reached the scheduled stop; release the chain.
				e.voice.Teardown()
				e.voice = nil
			}
		}
		l, r := e.graph.Process(s)
		dst[f*2] = float32(l)
		dst[f*2+1] = float32(r)
		e.frame++
	}
}

// Now returns the audio clock in frames rendered since startup.
func (e *Engine) Now() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Trigger tears down any live voice, then builds and arms a new one from the
// given snapshot. The teardown-before-build order holds the monophonic
// invariant across every tick boundary.
func (e *Engine) Trigger(freq float64, snap params.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voice != nil {
		e.voice.Teardown()
	}
	e.voice = voice.New(e.sampleRate, freq, snap, e.frame)
}

// Teardown stops and releases the live voice, if any. Safe to call when no
// voice is sounding; every rest tick calls it unconditionally.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voice != nil {
		e.voice.Teardown()
		e.voice = nil
	}
}

// VoiceActive reports whether a voice is currently live.
func (e *Engine) VoiceActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voice != nil
}

// SetMix re-parameterizes the persistent graph's dry/wet gains. Independent
// of voice lifecycle.
func (e *Engine) SetMix(reverbAmount float64) {
	e.graph.SetMix(reverbAmount)
}

// Mix returns the graph's current reverb amount.
func (e *Engine) Mix() float64 {
	return e.graph.Mix()
}

// ApplyTimbre propagates waveform, cutoff, and volume to the live voice
// without re-triggering. The envelope's in-flight shape is untouched; volume
// only retargets its ceiling.
func (e *Engine) ApplyTimbre(snap params.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voice == nil {
		return
	}
	e.voice.SetWaveform(snap.Waveform)
	e.voice.SetCutoff(snap.CutoffHz)
	e.voice.SetVolume(snap.Volume)
}

// Rearm repeats the live voice's envelope schedule anchored at the current
// audio-clock instant. Callers pass the parameter values the edit handler
// observed; no voice means nothing to re-arm.
func (e *Engine) Rearm(adsr params.ADSR, volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voice == nil {
		return
	}
	e.voice.Rearm(e.frame, adsr, volume)
}

// LiveEnvelopePoints exposes the live voice's automation schedule, or nil
// when no voice is sounding.
func (e *Engine) LiveEnvelopePoints() []voice.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voice == nil {
		return nil
	}
	return e.voice.EnvelopePoints()
}
