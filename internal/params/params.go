// Package params holds the shared synth parameters as an immutable snapshot
// swapped atomically on edit. Readers always see a complete, consistent set;
// writers copy, mutate, and publish.
package params

import (
	"sync"
	"sync/atomic"
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSawtooth
	WaveTriangle
)

func (w Waveform) String() string {
	switch w {
	case WaveSawtooth:
		return "sawtooth"
	case WaveTriangle:
		return "triangle"
	default:
		return "sine"
	}
}

// ADSR holds the amplitude envelope parameters. Attack, Decay and Release are
// in seconds (0..2); Sustain is an amplitude fraction (0..1).
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Snapshot is one consistent view of every externally mutable parameter.
type Snapshot struct {
	Waveform     Waveform
	CutoffHz     float64
	Volume       float64
	Env          ADSR
	ReverbAmount float64
	BPM          float64
}

// Defaults returns the initial parameter set.
func Defaults() Snapshot {
	return Snapshot{
		Waveform:     WaveSine,
		CutoffHz:     8000,
		Volume:       0.8,
		Env:          ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.6, Release: 0.3},
		ReverbAmount: 0.3,
		BPM:          120,
	}
}

// Store publishes parameter snapshots. Load is lock-free; edits are
// serialized so concurrent writers cannot lose updates.
type Store struct {
	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
}

func NewStore(initial Snapshot) *Store {
	s := &Store{}
	initial = clamped(initial)
	s.snap.Store(&initial)
	return s
}

// Load returns the current snapshot by value.
func (s *Store) Load() Snapshot {
	return *s.snap.Load()
}

// Update applies fn to a copy of the current snapshot, clamps every field to
// its declared domain, publishes the result, and returns it.
func (s *Store) Update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.snap.Load()
	fn(&next)
	next = clamped(next)
	s.snap.Store(&next)
	return next
}

func clamped(p Snapshot) Snapshot {
	if p.Waveform < WaveSine || p.Waveform > WaveTriangle {
		p.Waveform = WaveSine
	}
	p.CutoffHz = clamp(p.CutoffHz, 20, 20000)
	p.Volume = clamp(p.Volume, 0, 1)
	p.Env.Attack = clamp(p.Env.Attack, 0, 2)
	p.Env.Decay = clamp(p.Env.Decay, 0, 2)
	p.Env.Sustain = clamp(p.Env.Sustain, 0, 1)
	p.Env.Release = clamp(p.Env.Release, 0, 2)
	p.ReverbAmount = clamp(p.ReverbAmount, 0, 1)
	p.BPM = clamp(p.BPM, 40, 300)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
