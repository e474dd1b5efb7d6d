package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

// NoiseShaper band-limits white noise into a fricative-like hiss.
type NoiseShaper struct {
	section *biquad.Section
	gain    float32
}

// NewNoiseShaper creates a band-pass centered at centerHz with the given Q.
// The constant-peak-gain form keeps the shaped noise level independent of Q.
func NewNoiseShaper(centerHz, q, sampleRate float64) *NoiseShaper {
	return &NoiseShaper{
		section: biquad.NewSection(bandpassCoefficients(centerHz, q, sampleRate)),
		gain:    1,
	}
}

// SetGain sets the output gain.
func (n *NoiseShaper) SetGain(g float32) { n.gain = g }

// Process filters one sample.
func (n *NoiseShaper) Process(x float32) float32 {
	return float32(n.section.ProcessSample(float64(x))) * n.gain
}

// Reset clears the filter state
func (n *NoiseShaper) Reset() {
	n.section.Reset()
}

// Brightener is a high-shelf stage that lifts the upper spectrum of a voice.
type Brightener struct {
	section *biquad.Section
	enabled bool
}

// NewBrightener creates a high shelf at cornerHz with gainDB of boost.
func NewBrightener(cornerHz, gainDB, sampleRate float64) *Brightener {
	return &Brightener{
		section: biquad.NewSection(highShelfCoefficients(cornerHz, gainDB, sampleRate)),
		enabled: true,
	}
}

// SetEnabled toggles the stage; a disabled brightener passes samples through.
func (b *Brightener) SetEnabled(on bool) { b.enabled = on }

// Enabled reports whether the stage is active.
func (b *Brightener) Enabled() bool { return b.enabled }

// Process filters one sample.
func (b *Brightener) Process(x float32) float32 {
	if !b.enabled {
		return x
	}
	return float32(b.section.ProcessSample(float64(x)))
}

// Reset clears the filter state
func (b *Brightener) Reset() {
	b.section.Reset()
}

func bandpassCoefficients(freq, q, sampleRate float64) biquad.Coefficients {
	w0 := 2 * math.Pi * freq / sampleRate
	if w0 <= 0 || w0 >= math.Pi || q <= 0 {
		return biquad.Coefficients{B0: 1}
	}
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	inv := 1.0 / (1 + alpha)
	return biquad.Coefficients{
		B0: alpha * inv,
		B1: 0,
		B2: -alpha * inv,
		A1: -2 * cw * inv,
		A2: (1 - alpha) * inv,
	}
}

func highShelfCoefficients(freq, gainDB, sampleRate float64) biquad.Coefficients {
	w0 := 2 * math.Pi * freq / sampleRate
	if w0 <= 0 || w0 >= math.Pi {
		return biquad.Coefficients{B0: 1}
	}
	a := math.Pow(10, gainDB/40)
	cw := math.Cos(w0)
	// Shelf slope S = 1.
	alpha := math.Sin(w0) / 2 * math.Sqrt2
	sa := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) + (a-1)*cw + sa)
	b1 := -2 * a * ((a - 1) + (a+1)*cw)
	b2 := a * ((a + 1) + (a-1)*cw - sa)
	a0 := (a + 1) - (a-1)*cw + sa
	a1 := 2 * ((a - 1) - (a+1)*cw)
	a2 := (a + 1) - (a-1)*cw - sa

	inv := 1 / a0
	return biquad.Coefficients{
		B0: b0 * inv,
		B1: b1 * inv,
		B2: b2 * inv,
		A1: a1 * inv,
		A2: a2 * inv,
	}
}
