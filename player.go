// Package stepsynth is a monophonic step-sequenced tone synthesizer: sixteen
// note slots played back at a configurable tempo, each active slot triggering
// a tone through an ADSR envelope, a resonant low-pass filter, and a dry/wet
// convolution reverb mix. Timbre, tempo, and mix are adjustable in real time
// while the sequence runs.
package stepsynth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	intaudio "github.com/cbegin/stepsynth-go/internal/audio"
	intengine "github.com/cbegin/stepsynth-go/internal/engine"
	intnotes "github.com/cbegin/stepsynth-go/internal/notes"
	intparams "github.com/cbegin/stepsynth-go/internal/params"
	intseq "github.com/cbegin/stepsynth-go/internal/sequencer"
)

// SequenceLength is the fixed number of step slots.
const SequenceLength = 16

// Waveform selects the oscillator shape for new and live voices.
type Waveform string

const (
	WaveformSine     Waveform = "sine"
	WaveformSawtooth Waveform = "sawtooth"
	WaveformTriangle Waveform = "triangle"
)

// ParseWaveform maps a waveform name to its constant.
func ParseWaveform(s string) (Waveform, error) {
	switch Waveform(s) {
	case WaveformSine, WaveformSawtooth, WaveformTriangle:
		return Waveform(s), nil
	}
	return "", fmt.Errorf("unknown waveform %q", s)
}

// Envelope holds the ADSR parameters: Attack, Decay, Release in seconds
// (clamped to [0,2]), Sustain as an amplitude fraction (clamped to [0,1]).
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// StepEvent reports transport activity from Watch().
type StepEvent struct {
	Kind int // EventStep or EventStopped
	Step int // the step index just published (EventStep only)
}

const (
	EventStep int = iota
	EventStopped
)

// Scheduler is the step clock's timer source: it arms one deferred call and
// returns a cancel handle. The default schedules on the wall clock.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type Option func(*config)

type config struct {
	sched       intseq.Scheduler
	kernelDur   float64
	kernelDecay float64
	initial     intparams.Snapshot
}

func defaultConfig() config {
	return config{
		sched:       intseq.WallClock{},
		kernelDur:   2.0,
		kernelDecay: 2.0,
		initial:     intparams.Defaults(),
	}
}

// WithScheduler substitutes the step clock's timer source. Tests drive ticks
// by hand through this.
func WithScheduler(s Scheduler) Option {
	return func(cfg *config) { cfg.sched = s }
}

// WithReverbKernel sets the generated impulse response's duration in seconds
// and decay exponent.
func WithReverbKernel(durationSec, decayExp float64) Option {
	return func(cfg *config) {
		cfg.kernelDur = durationSec
		cfg.kernelDecay = decayExp
	}
}

// WithTempo sets the initial tempo in beats per minute.
func WithTempo(bpm float64) Option {
	return func(cfg *config) { cfg.initial.BPM = bpm }
}

// WithWaveform sets the initial oscillator shape.
func WithWaveform(w Waveform) Option {
	return func(cfg *config) { cfg.initial.Waveform = internalWaveform(w) }
}

// WithCutoff sets the initial filter cutoff in Hz.
func WithCutoff(hz float64) Option {
	return func(cfg *config) { cfg.initial.CutoffHz = hz }
}

// WithVolume sets the initial peak volume.
func WithVolume(v float64) Option {
	return func(cfg *config) { cfg.initial.Volume = v }
}

// WithEnvelope sets the initial ADSR parameters.
func WithEnvelope(env Envelope) Option {
	return func(cfg *config) { cfg.initial.Env = internalADSR(env) }
}

// WithReverb sets the initial dry/wet reverb amount.
func WithReverb(amount float64) Option {
	return func(cfg *config) { cfg.initial.ReverbAmount = amount }
}

// Player is the engine facade exposed to a control surface: sequence slots,
// transport, and real-time parameter setters. All methods are safe for
// concurrent use.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	cfg        config
	store      *intparams.Store
	seq        [SequenceLength]string
	engine     *intengine.Engine
	out        *intaudio.Output
	closed     bool
	clock      *intseq.Clock

	eventMu sync.Mutex
	eventCh chan StepEvent
}

// NewPlayer builds an idle player. The audio device is not touched until the
// first Play call; every parameter can be set beforehand.
func NewPlayer(sampleRate int, opts ...Option) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Player{
		sampleRate: sampleRate,
		cfg:        cfg,
		store:      intparams.NewStore(cfg.initial),
	}
	p.clock = intseq.New(SequenceLength, cfg.sched, p.stepInterval, p.advance, p.stopped)
	return p, nil
}

func (p *Player) stepInterval() time.Duration {
	// Tempo is read at fire time, so an edit lands within one sixteenth.
	return intseq.StepInterval(p.store.Load().BPM)
}

// advance is the tick body: publish happened in the clock, so tear down the
// previous voice, then build a new one unless the slot is a rest or its note
// does not resolve.
func (p *Player) advance(step int) {
	p.sendEvent(StepEvent{Kind: EventStep, Step: step})
	e := p.engineRef()
	if e == nil {
		return
	}
	e.Teardown()
	note := p.Note(step)
	if note == "" {
		return
	}
	freq, ok := intnotes.Frequency(note)
	if !ok {
		// Unresolvable identifier: silent rest, never a failed tick.
		return
	}
	e.Trigger(freq, p.store.Load())
}

func (p *Player) stopped() {
	if e := p.engineRef(); e != nil {
		e.Teardown()
	}
	p.sendEvent(StepEvent{Kind: EventStopped})
}

// Play starts the step clock, building the engine and opening the audio
// device on first use. Already-running playback is a no-op. An unavailable
// audio device surfaces here as an error; nothing crashes.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("player is closed")
	}
	if p.engine == nil {
		e, err := intengine.New(p.sampleRate, p.cfg.kernelDur, p.cfg.kernelDecay, p.store.Load().ReverbAmount)
		if err != nil {
			p.mu.Unlock()
			return err
		}
		out, err := intaudio.NewOutput(p.sampleRate, e)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("audio engine unavailable: %w", err)
		}
		p.engine = e
		p.out = out
		out.Start()
	}
	p.mu.Unlock()
	p.clock.Start()
	return nil
}

// Stop cancels the pending tick and tears down the live voice. The persistent
// graph keeps running, so a reverb tail rings out naturally. Stopping an idle
// player is a no-op.
func (p *Player) Stop() {
	p.clock.Stop()
}

// Close stops playback and releases the audio device. A closed player cannot
// be restarted; Play returns an error afterwards.
func (p *Player) Close() error {
	p.clock.Stop()
	p.mu.Lock()
	out := p.out
	p.out = nil
	p.engine = nil
	p.closed = true
	p.mu.Unlock()
	if out != nil {
		return out.Close()
	}
	return nil
}

// IsPlaying reports whether the transport is running.
func (p *Player) IsPlaying() bool { return p.clock.Playing() }

// StepIndex returns the step currently sounding, or -1 when idle. Intended
// for step highlighting in a control surface.
func (p *Player) StepIndex() int { return p.clock.Step() }

// Watch returns a buffered channel of transport events. The channel is
// replaced on each call; events are dropped rather than blocking the clock.
func (p *Player) Watch() <-chan StepEvent {
	ch := make(chan StepEvent, 8)
	p.eventMu.Lock()
	p.eventCh = ch
	p.eventMu.Unlock()
	return ch
}

func (p *Player) sendEvent(ev StepEvent) {
	p.eventMu.Lock()
	ch := p.eventCh
	p.eventMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Receiver is behind; drop rather than stall the tick.
		}
	}
}

// SetStep assigns a note identifier to a slot; the empty string is a rest.
// Unknown identifiers are accepted and simply play as rests.
func (p *Player) SetStep(index int, note string) error {
	if index < 0 || index >= SequenceLength {
		return fmt.Errorf("step index %d out of range [0,%d)", index, SequenceLength)
	}
	p.mu.Lock()
	p.seq[index] = note
	p.mu.Unlock()
	return nil
}

// SetSequence replaces all sixteen slots at once.
func (p *Player) SetSequence(seq [SequenceLength]string) {
	p.mu.Lock()
	p.seq = seq
	p.mu.Unlock()
}

// Sequence returns a copy of the current slots.
func (p *Player) Sequence() [SequenceLength]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// Note returns the note in one slot.
func (p *Player) Note(index int) string {
	if index < 0 || index >= SequenceLength {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq[index]
}

// SetTempo sets the playback tempo, clamped to [40,300] bpm. Takes effect on
// the next scheduled tick.
func (p *Player) SetTempo(bpm float64) {
	p.store.Update(func(s *intparams.Snapshot) { s.BPM = bpm })
}

// Tempo returns the current tempo in bpm.
func (p *Player) Tempo() float64 { return p.store.Load().BPM }

// SetWaveform switches the oscillator shape for the live voice and every
// future voice. No re-trigger.
func (p *Player) SetWaveform(w Waveform) error {
	if _, err := ParseWaveform(string(w)); err != nil {
		return err
	}
	snap := p.store.Update(func(s *intparams.Snapshot) { s.Waveform = internalWaveform(w) })
	p.applyTimbre(snap)
	return nil
}

// CurrentWaveform returns the waveform in effect.
func (p *Player) CurrentWaveform() Waveform {
	switch p.store.Load().Waveform {
	case intparams.WaveSawtooth:
		return WaveformSawtooth
	case intparams.WaveTriangle:
		return WaveformTriangle
	default:
		return WaveformSine
	}
}

// SetCutoff moves the low-pass cutoff, clamped to [20,20000] Hz, applied
// immediately to the live voice's filter.
func (p *Player) SetCutoff(hz float64) {
	snap := p.store.Update(func(s *intparams.Snapshot) { s.CutoffHz = hz })
	p.applyTimbre(snap)
}

// Cutoff returns the filter cutoff in Hz.
func (p *Player) Cutoff() float64 { return p.store.Load().CutoffHz }

// SetVolume sets the peak volume, clamped to [0,1]. A live voice keeps its
// envelope shape; only the gain ceiling moves.
func (p *Player) SetVolume(v float64) {
	snap := p.store.Update(func(s *intparams.Snapshot) { s.Volume = v })
	p.applyTimbre(snap)
}

// Volume returns the peak volume.
func (p *Player) Volume() float64 { return p.store.Load().Volume }

// SetEnvelope replaces the ADSR parameters, clamped to their domains. A
// sounding voice is re-armed from the current instant; the re-arm uses the
// parameter values that were in effect before this edit, matching the edit
// handler's read-before-commit ordering. Only the next trigger or the next
// edit picks up the new values.
func (p *Player) SetEnvelope(env Envelope) {
	prev := p.store.Load()
	p.store.Update(func(s *intparams.Snapshot) { s.Env = internalADSR(env) })
	if e := p.engineRef(); e != nil {
		e.Rearm(prev.Env, prev.Volume)
	}
}

// CurrentEnvelope returns the ADSR parameters in effect.
func (p *Player) CurrentEnvelope() Envelope {
	env := p.store.Load().Env
	return Envelope{Attack: env.Attack, Decay: env.Decay, Sustain: env.Sustain, Release: env.Release}
}

// SetReverb sets the dry/wet amount, clamped to [0,1]: dry gain is 1-amount,
// wet gain is amount. Applied immediately to the persistent graph without
// touching any voice.
func (p *Player) SetReverb(amount float64) {
	snap := p.store.Update(func(s *intparams.Snapshot) { s.ReverbAmount = amount })
	if e := p.engineRef(); e != nil {
		e.SetMix(snap.ReverbAmount)
	}
}

// ReverbAmount returns the wet mix amount.
func (p *Player) ReverbAmount() float64 { return p.store.Load().ReverbAmount }

func (p *Player) applyTimbre(snap intparams.Snapshot) {
	if e := p.engineRef(); e != nil {
		e.ApplyTimbre(snap)
	}
}

func (p *Player) engineRef() *intengine.Engine {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine
}

func internalWaveform(w Waveform) intparams.Waveform {
	switch w {
	case WaveformSawtooth:
		return intparams.WaveSawtooth
	case WaveformTriangle:
		return intparams.WaveTriangle
	default:
		return intparams.WaveSine
	}
}

func internalADSR(env Envelope) intparams.ADSR {
	return intparams.ADSR{
		Attack:  env.Attack,
		Decay:   env.Decay,
		Sustain: env.Sustain,
		Release: env.Release,
	}
}
