// Package dsp holds the allocation-free signal primitives used by the voice
// engine: smoothers, resonators, excitation sources and the subharmonic PLL.
package dsp

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	return float32(dspcore.FlushDenormals(float64(x)))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Noise is a 32-bit linear congruential white noise generator in [-1, 1).
// It is deterministic for a given seed so renders are reproducible.
type Noise struct {
	seed  uint32
	state uint32
}

// NewNoise creates a noise generator with the given seed.
func NewNoise(seed uint32) Noise {
	return Noise{seed: seed, state: seed}
}

// Next returns the next noise sample.
func (n *Noise) Next() float32 {
	n.state = n.state*1103515245 + 12345
	return float32((n.state>>16)&0x7fff)/16384.0 - 1.0
}

// Reset rewinds the generator to its seed.
func (n *Noise) Reset() {
	n.state = n.seed
}

// DCBlocker is a one-pole/one-zero high-pass that removes the DC offset of
// unipolar glottal pulses.
type DCBlocker struct {
	r       float32
	prevIn  float32
	prevOut float32
}

// NewDCBlocker creates a DC blocker with pole radius r (0.995 is typical).
func NewDCBlocker(r float32) DCBlocker {
	if r <= 0 || r >= 1 {
		r = 0.995
	}
	return DCBlocker{r: r}
}

// Process filters one sample.
func (d *DCBlocker) Process(x float32) float32 {
	y := x - d.prevIn + d.r*d.prevOut
	y = FlushDenormals(y)
	d.prevIn = x
	d.prevOut = y
	return y
}

// Reset clears the filter state
func (d *DCBlocker) Reset() {
	d.prevIn, d.prevOut = 0, 0
}
