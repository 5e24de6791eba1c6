// Package notes provides the read-only note-name-to-frequency table consumed
// by the sequencer. Three octaves, equal temperament, A4 = 440 Hz.
package notes

// frequencies maps note identifiers to fundamental frequency in Hz.
var frequencies = map[string]float64{
	"C3": 130.81, "C#3": 138.59, "D3": 146.83, "D#3": 155.56,
	"E3": 164.81, "F3": 174.61, "F#3": 185.00, "G3": 196.00,
	"G#3": 207.65, "A3": 220.00, "A#3": 233.08, "B3": 246.94,
	"C4": 261.63, "C#4": 277.18, "D4": 293.66, "D#4": 311.13,
	"E4": 329.63, "F4": 349.23, "F#4": 369.99, "G4": 392.00,
	"G#4": 415.30, "A4": 440.00, "A#4": 466.16, "B4": 493.88,
	"C5": 523.25, "C#5": 554.37, "D5": 587.33, "D#5": 622.25,
	"E5": 659.25, "F5": 698.46, "F#5": 739.99, "G5": 783.99,
	"G#5": 830.61, "A5": 880.00, "A#5": 932.33, "B5": 987.77,
}

// Frequency resolves a note identifier. ok is false for identifiers absent
// from the table; callers treat those as silent rests.
func Frequency(name string) (hz float64, ok bool) {
	hz, ok = frequencies[name]
	return hz, ok
}

// Names returns all known note identifiers in no particular order.
func Names() []string {
	out := make([]string, 0, len(frequencies))
	for name := range frequencies {
		out = append(out, name)
	}
	return out
}
