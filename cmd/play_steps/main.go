// Command play_steps is an example host for the step synthesizer: it programs
// a sixteen-slot pattern from the command line and either plays it on the
// audio device or renders it offline to a WAV file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	stepsynth "github.com/cbegin/stepsynth-go"
)

const defaultPattern = "E3,.,G3,A3,.,E3,.,G3,B3,.,A3,G3,.,E3,.,."

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		pattern    = flag.String("pattern", defaultPattern, "comma-separated note names; '.' or empty = rest")
		bpm        = flag.Float64("bpm", 120, "tempo in beats per minute (40-300)")
		wave       = flag.String("wave", "sine", "oscillator waveform: sine|sawtooth|triangle")
		cutoff     = flag.Float64("cutoff", 8000, "low-pass filter cutoff in Hz")
		volume     = flag.Float64("volume", 0.8, "peak volume (0-1)")
		attack     = flag.Float64("attack", 0.01, "envelope attack seconds (0-2)")
		decay      = flag.Float64("decay", 0.1, "envelope decay seconds (0-2)")
		sustain    = flag.Float64("sustain", 0.6, "envelope sustain fraction (0-1)")
		release    = flag.Float64("release", 0.3, "envelope release seconds (0-2)")
		reverb     = flag.Float64("reverb", 0.3, "dry/wet reverb amount (0-1)")
		seconds    = flag.Float64("seconds", 8, "playback or render duration")
		wavPath    = flag.String("wav", "", "render offline to this WAV file instead of playing")
	)
	flag.Parse()

	waveform, err := stepsynth.ParseWaveform(*wave)
	if err != nil {
		log.Fatal(err)
	}
	steps := parsePattern(*pattern)
	opts := []stepsynth.Option{
		stepsynth.WithTempo(*bpm),
		stepsynth.WithWaveform(waveform),
		stepsynth.WithCutoff(*cutoff),
		stepsynth.WithVolume(*volume),
		stepsynth.WithEnvelope(stepsynth.Envelope{Attack: *attack, Decay: *decay, Sustain: *sustain, Release: *release}),
		stepsynth.WithReverb(*reverb),
	}

	if *wavPath != "" {
		samples, err := stepsynth.RenderSteps(steps[:], *sampleRate, *seconds, opts...)
		if err != nil {
			log.Fatal(err)
		}
		wav := stepsynth.EncodeWAV(samples, *sampleRate, 2)
		if err := os.WriteFile(*wavPath, wav, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%.1fs at %d Hz)\n", *wavPath, *seconds, *sampleRate)
		return
	}

	pl, err := stepsynth.NewPlayer(*sampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer pl.Close()
	pl.SetSequence(steps)

	ch := pl.Watch()
	go func() {
		for ev := range ch {
			if ev.Kind == stepsynth.EventStep {
				fmt.Printf("\rstep %2d", ev.Step)
			}
		}
	}()

	if err := pl.Play(); err != nil {
		log.Fatal(err)
	}
	time.Sleep(time.Duration(*seconds * float64(time.Second)))
	pl.Stop()
	fmt.Println()
}

// parsePattern expands a comma-separated note list into the fixed sixteen
// slots, treating "." and empty fields as rests and repeating short patterns.
func parsePattern(s string) [stepsynth.SequenceLength]string {
	var out [stepsynth.SequenceLength]string
	fields := strings.Split(s, ",")
	for i := 0; i < stepsynth.SequenceLength; i++ {
		f := strings.TrimSpace(fields[i%len(fields)])
		if f == "." {
			f = ""
		}
		out[i] = f
	}
	return out
}
