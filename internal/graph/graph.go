// Package graph implements the persistent audio graph: a dry gain, a wet
// gain, and a convolution reverb node built once at startup and
// re-parameterized for the lifetime of the engine. Only voices are transient;
// this graph is never rebuilt.
package graph

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/conv"
)

// blockSize is the convolution pump granularity. The wet path runs one block
// behind the dry path, which reads as reverb pre-delay.
const blockSize = 256

// Graph mixes the dry signal with the convolved wet signal. SetMix may be
// called from any goroutine; Process is driven by the render loop.
type Graph struct {
	amount atomic.Uint64 // reverb amount as float64 bits

	convL, convR *conv.StreamingOverlapAdd

	in   []float64
	outL []float64
	outR []float64
	pos  int
}

// New builds the graph with the given reverb kernel. kernelL and kernelR
// must be the same length.
func New(kernelL, kernelR []float64, reverbAmount float64) (*Graph, error) {
	if len(kernelL) != len(kernelR) {
		return nil, fmt.Errorf("kernel channel lengths differ: %d vs %d", len(kernelL), len(kernelR))
	}
	convL, err := conv.NewStreamingOverlapAdd(kernelL, blockSize)
	if err != nil {
		return nil, fmt.Errorf("left convolver: %w", err)
	}
	convR, err := conv.NewStreamingOverlapAdd(kernelR, blockSize)
	if err != nil {
		return nil, fmt.Errorf("right convolver: %w", err)
	}
	g := &Graph{
		convL: convL,
		convR: convR,
		in:    make([]float64, blockSize),
		outL:  make([]float64, blockSize),
		outR:  make([]float64, blockSize),
	}
	g.SetMix(reverbAmount)
	return g, nil
}

// SetMix updates both gains from a single reverb amount: dry = 1-amount,
// wet = amount. Nothing is reconnected and no voice node is touched.
func (g *Graph) SetMix(reverbAmount float64) {
	if reverbAmount < 0 {
		reverbAmount = 0
	}
	if reverbAmount > 1 {
		reverbAmount = 1
	}
	g.amount.Store(math.Float64bits(reverbAmount))
}

// Mix returns the current reverb amount.
func (g *Graph) Mix() float64 {
	return math.Float64frombits(g.amount.Load())
}

// Process pushes one mono sample through both paths and returns the stereo
// output. Gains are read at use-time so a mix edit is audible on the very
// next sample.
func (g *Graph) Process(sample float64) (l, r float64) {
	wet := g.Mix()
	dry := (1 - wet) * sample

	wl := g.outL[g.pos]
	wr := g.outR[g.pos]
	g.in[g.pos] = sample
	g.pos++
	if g.pos == blockSize {
		// Errors cannot occur here: block sizes are fixed at construction.
		_ = g.convL.ProcessBlockTo(g.outL, g.in)
		_ = g.convR.ProcessBlockTo(g.outR, g.in)
		g.pos = 0
	}
	return dry + wl*wet, dry + wr*wet
}
