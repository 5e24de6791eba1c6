package voice

import "github.com/cbegin/stepsynth-go/internal/params"

// Envelope is a four-point linear-ramp gain automation timeline anchored at an
// absolute audio-clock frame: zero at the anchor, volume after attack,
// volume*sustain after decay, zero after release. No sustain hold segment is
// scheduled; the decay target is held only until the release ramp starts at
// the same instant.
type Envelope struct {
	armed   bool
	frames  [4]int64
	adsr    params.ADSR
	ceiling float64
}

// Point is one scheduled automation point, exposed for inspection.
type Point struct {
	Frame int64
	Value float64
}

// Arm replaces any pending automation with a fresh four-point schedule
// anchored at startFrame.
func (e *Envelope) Arm(startFrame int64, sampleRate int, adsr params.ADSR, volume float64) {
	sr := float64(sampleRate)
	e.frames[0] = startFrame
	e.frames[1] = startFrame + int64(adsr.Attack*sr)
	e.frames[2] = e.frames[1] + int64(adsr.Decay*sr)
	e.frames[3] = e.frames[2] + int64(adsr.Release*sr)
	e.adsr = adsr
	e.ceiling = volume
	e.armed = true
}

// SetCeiling retargets the peak gain without moving any ramp in time. The
// in-flight shape is preserved; only the amplitude scale changes.
func (e *Envelope) SetCeiling(volume float64) {
	e.ceiling = volume
}

func (e *Envelope) targets() [4]float64 {
	return [4]float64{0, e.ceiling, e.ceiling * e.adsr.Sustain, 0}
}

// ValueAt evaluates the automation at an absolute frame. Before the anchor
// the value is zero; past the release endpoint it stays zero.
func (e *Envelope) ValueAt(frame int64) float64 {
	if !e.armed || frame <= e.frames[0] {
		return 0
	}
	vals := e.targets()
	for i := 1; i < len(e.frames); i++ {
		if frame >= e.frames[i] {
			continue
		}
		span := e.frames[i] - e.frames[i-1]
		if span <= 0 {
			return vals[i]
		}
		t := float64(frame-e.frames[i-1]) / float64(span)
		return vals[i-1] + (vals[i]-vals[i-1])*t
	}
	return vals[len(vals)-1]
}

// EndFrame is the frame at which the release ramp reaches zero.
func (e *Envelope) EndFrame() int64 {
	return e.frames[3]
}

// Points returns all scheduled automation points in order.
func (e *Envelope) Points() []Point {
	vals := e.targets()
	out := make([]Point, len(e.frames))
	for i := range e.frames {
		out[i] = Point{Frame: e.frames[i], Value: vals[i]}
	}
	return out
}
