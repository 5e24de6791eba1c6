package voice

import (
	"math"
	"testing"

	"github.com/cbegin/stepsynth-go/internal/params"
)

func testSnapshot() params.Snapshot {
	p := params.Defaults()
	p.Waveform = params.WaveSine
	p.CutoffHz = 8000
	p.Volume = 0.8
	p.Env = params.ADSR{Attack: 0.01, Decay: 0.05, Sustain: 0.5, Release: 0.05}
	return p
}

func renderPeak(v *Voice, from, frames int64) float64 {
	var peak float64
	for f := from; f < from+frames; f++ {
		s := math.Abs(v.RenderFrame(f))
		if s > peak {
			peak = s
		}
	}
	return peak
}

func TestVoiceStartsSilentAndSwells(t *testing.T) {
	v := New(testRate, 440, testSnapshot(), 0)
	if got := v.RenderFrame(0); got != 0 {
		t.Errorf("first frame = %v, want 0 (gain starts at zero amplitude)", got)
	}
	if peak := renderPeak(v, 1, framesOf(0.02)); peak < 0.05 {
		t.Errorf("attack peak = %v, want audible signal", peak)
	}
}

func TestVoiceSelfTerminates(t *testing.T) {
	snap := testSnapshot()
	v := New(testRate, 440, snap, 0)
	total := snap.Env.Attack + snap.Env.Decay + snap.Env.Release
	end := framesOf(total)
	if v.Finished(end - 1) {
		t.Error("voice finished before its scheduled stop")
	}
	if !v.Finished(end) {
		t.Error("voice should self-terminate at attack+decay+release")
	}
	if got := v.RenderFrame(end + 1); got != 0 {
		t.Errorf("post-stop frame = %v, want 0", got)
	}
}

func TestVoiceTeardownIdempotent(t *testing.T) {
	v := New(testRate, 440, testSnapshot(), 0)
	v.Teardown()
	v.Teardown() // must be safe on an already-stopped voice
	if !v.Finished(0) {
		t.Error("torn down voice should report finished")
	}
	if got := v.RenderFrame(framesOf(0.01)); got != 0 {
		t.Errorf("torn down voice rendered %v, want 0", got)
	}
}

func TestVoiceCutoffEditLeavesEnvelopeAlone(t *testing.T) {
	v := New(testRate, 440, testSnapshot(), 0)
	before := v.EnvelopePoints()
	renderPeak(v, 0, framesOf(0.02)) // let the voice sound
	v.SetCutoff(500)
	after := v.EnvelopePoints()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("envelope point %d changed on cutoff edit: %+v -> %+v", i, before[i], after[i])
		}
	}
	// The voice keeps sounding through the edit.
	if peak := renderPeak(v, framesOf(0.02), framesOf(0.02)); peak == 0 {
		t.Error("voice went silent after cutoff edit")
	}
}

func TestVoiceCutoffEditDampensHighNote(t *testing.T) {
	snap := testSnapshot()
	snap.Env = params.ADSR{Attack: 0.001, Decay: 0.5, Sustain: 1, Release: 0.5}
	bright := New(testRate, 880, snap, 0)
	dark := New(testRate, 880, snap, 0)
	dark.SetCutoff(100)
	// Skip the attack, compare steady-state energy.
	renderPeak(bright, 0, framesOf(0.05))
	renderPeak(dark, 0, framesOf(0.05))
	pb := renderPeak(bright, framesOf(0.05), framesOf(0.05))
	pd := renderPeak(dark, framesOf(0.05), framesOf(0.05))
	if pd >= pb {
		t.Errorf("100 Hz cutoff should attenuate an 880 Hz tone: bright=%v dark=%v", pb, pd)
	}
}

func TestVoiceWaveformSwitchWithoutRetrigger(t *testing.T) {
	v := New(testRate, 220, testSnapshot(), 0)
	renderPeak(v, 0, framesOf(0.02))
	before := v.EnvelopePoints()
	v.SetWaveform(params.WaveSawtooth)
	if peak := renderPeak(v, framesOf(0.02), framesOf(0.02)); peak == 0 {
		t.Error("voice went silent after waveform switch")
	}
	after := v.EnvelopePoints()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("waveform switch must not re-arm the envelope")
		}
	}
}

func TestVoiceVolumeEditScalesCeilingOnly(t *testing.T) {
	v := New(testRate, 440, testSnapshot(), 0)
	v.SetVolume(0.1)
	pts := v.EnvelopePoints()
	if math.Abs(pts[1].Value-0.1) > 1e-9 {
		t.Errorf("attack target = %v, want 0.1", pts[1].Value)
	}
	if pts[0].Value != 0 || pts[3].Value != 0 {
		t.Error("endpoint values must stay zero")
	}
}

func TestVoiceRearmAnchorsAtGivenFrame(t *testing.T) {
	v := New(testRate, 440, testSnapshot(), 0)
	adsr := params.ADSR{Attack: 0.2, Decay: 0.2, Sustain: 0.5, Release: 0.2}
	anchor := framesOf(0.03)
	v.Rearm(anchor, adsr, 0.6)
	pts := v.EnvelopePoints()
	if pts[0].Frame != anchor {
		t.Errorf("re-arm anchor = %d, want %d", pts[0].Frame, anchor)
	}
	if math.Abs(pts[1].Value-0.6) > 1e-9 {
		t.Errorf("re-armed ceiling = %v, want 0.6", pts[1].Value)
	}
}

func TestOscillatorShapes(t *testing.T) {
	const rate = 1000
	cases := []struct {
		name string
		wave params.Waveform
		lo   float64
		hi   float64
	}{
		{"sine", params.WaveSine, -1, 1},
		{"sawtooth", params.WaveSawtooth, -1, 1},
		{"triangle", params.WaveTriangle, -1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newOscillator(tc.wave, 10, rate)
			var min, max, sum float64
			min, max = 2, -2
			n := rate // ten full cycles
			for i := 0; i < n; i++ {
				s := o.next()
				if s < min {
					min = s
				}
				if s > max {
					max = s
				}
				sum += s
			}
			if min < tc.lo-1e-9 || max > tc.hi+1e-9 {
				t.Errorf("range [%v, %v] outside [%v, %v]", min, max, tc.lo, tc.hi)
			}
			if max < 0.9 || min > -0.9 {
				t.Errorf("waveform does not span its range: [%v, %v]", min, max)
			}
			if mean := sum / float64(n); math.Abs(mean) > 0.05 {
				t.Errorf("waveform mean = %v, want ~0", mean)
			}
		})
	}
}
