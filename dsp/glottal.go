package dsp

import (
	"math"

	"github.com/chewxy/math32"
)

// GlottalModel selects the pulse shape produced by GlottalSource.
type GlottalModel int

const (
	// Rosenberg is the classic raised-cosine opening with exponential return.
	Rosenberg GlottalModel = iota
	// LF is a Liljencrants-Fant style pulse with a sharper closure.
	LF
	// Differentiated is the time derivative of the Rosenberg flow.
	Differentiated
)

func (m GlottalModel) String() string {
	switch m {
	case Rosenberg:
		return "rosenberg"
	case LF:
		return "lf"
	case Differentiated:
		return "differentiated"
	default:
		return "unknown"
	}
}

// GlottalSource generates a periodic glottal excitation.
type GlottalSource struct {
	f0         float32
	sampleRate float32
	model      GlottalModel

	openQuotient  float32
	speedQuotient float32
	returnPhase   float32

	phase float64
	inc   float64
}

// NewGlottalSource creates a Rosenberg source at 110 Hz.
func NewGlottalSource(sampleRate float32) GlottalSource {
	g := GlottalSource{
		f0:            110,
		model:         Rosenberg,
		openQuotient:  0.5,
		speedQuotient: 0.5,
		returnPhase:   0.1,
	}
	g.SetSampleRate(sampleRate)
	return g
}

// SetFrequency sets f0, clamped to 20..1000 Hz.
func (g *GlottalSource) SetFrequency(f0 float32) {
	g.f0 = Clamp(f0, 20, 1000)
	g.updateIncrement()
}

// Frequency returns the clamped f0.
func (g *GlottalSource) Frequency() float32 { return g.f0 }

// SetSampleRate sets the sample rate, clamped to 8..192 kHz.
func (g *GlottalSource) SetSampleRate(sampleRate float32) {
	g.sampleRate = Clamp(sampleRate, 8000, 192000)
	g.updateIncrement()
}

// SetModel selects the pulse shape.
func (g *GlottalSource) SetModel(m GlottalModel) {
	g.model = m
}

// Model returns the active pulse shape.
func (g *GlottalSource) Model() GlottalModel { return g.model }

// SetPulseShape sets open quotient, speed quotient and return phase.
func (g *GlottalSource) SetPulseShape(openQuotient, speedQuotient, returnPhase float32) {
	g.openQuotient = Clamp(openQuotient, 0.1, 0.9)
	g.speedQuotient = Clamp(speedQuotient, 0.1, 0.9)
	g.returnPhase = Clamp(returnPhase, 0, 0.5)
}

// Next returns one sample and advances the phase.
func (g *GlottalSource) Next() float32 {
	var out float32
	switch g.model {
	case LF:
		out = g.lf(g.phase)
	case Differentiated:
		out = g.differentiated(g.phase)
	default:
		out = g.rosenberg(g.phase)
	}
	g.phase += g.inc
	if g.phase >= 1 {
		g.phase -= 1
	}
	return out
}

// ProcessBlock fills out with consecutive samples.
func (g *GlottalSource) ProcessBlock(out []float32) {
	for i := range out {
		out[i] = g.Next()
	}
}

// Reset rewinds the phase to the start of the open phase.
func (g *GlottalSource) Reset() {
	g.phase = 0
}

func (g *GlottalSource) updateIncrement() {
	if g.sampleRate <= 0 {
		g.inc = 0
		return
	}
	inc := float64(g.f0) / float64(g.sampleRate)
	g.inc = math.Min(math.Max(inc, 0), 1)
}

func (g *GlottalSource) rosenberg(t float64) float32 {
	tOpen := float64(g.openQuotient)
	tReturn := tOpen + (1-tOpen)*float64(g.speedQuotient)
	switch {
	case t < tOpen:
		p := float32(t / tOpen)
		return 0.5 * (1 - math32.Cos(math32.Pi*p))
	case t < tReturn:
		p := float32((t - tOpen) / (tReturn - tOpen))
		return math32.Exp(-3 * p)
	default:
		return 0
	}
}

func (g *GlottalSource) lf(t float64) float32 {
	oq := g.openQuotient
	alpha := 1 / (oq * oq)
	epsilon := 1 / ((1 - oq) * g.speedQuotient)
	tOpen := float64(oq)
	tPeak := tOpen * 0.7
	tReturn := tOpen + (1-tOpen)*0.9
	switch {
	case t < tPeak:
		return math32.Pow(float32(t/tPeak), alpha)
	case t < tOpen:
		p := float32((t - tPeak) / (tOpen - tPeak))
		return math32.Pow(1-p, alpha)
	case t < tReturn:
		p := float32((t - tOpen) / (tReturn - tOpen))
		return math32.Exp(-epsilon * p)
	default:
		return 0
	}
}

func (g *GlottalSource) differentiated(t float64) float32 {
	const delta = 0.001
	y1 := g.rosenberg(t)
	t2 := t + delta
	if t2 >= 1 {
		t2 -= 1
	}
	y2 := g.rosenberg(t2)
	return (y2 - y1) / delta * 0.1
}
