package dsp

import (
	"math"
	"math/cmplx"
)

// Resonator is a two-pole resonant filter built from a complex-conjugate pole
// pair at radius R = exp(-pi*b/fs) and angle w = 2*pi*f/fs:
//
//	y[n] = b0*x[n] - a1*y[n-1] - a2*y[n-2],  a1 = -2R*cos(w), a2 = R*R
//
// The input gain is b0 = 1/(1+R). Process allocates nothing.
type Resonator struct {
	b0, a1, a2 float32
	dcNorm     float32

	y1, y2 float32

	freq, bandwidth, sampleRate float32
}

// Minimum bandwidth and the Nyquist guard applied by ClampParameters.
const (
	MinResonatorBandwidth = 1.0
	maxResonatorFraction  = 0.49
)

// ClampParameters limits freq to (0, fs/2) and bandwidth so that 0 < R < 1.
func ClampParameters(freq, bandwidth, sampleRate float32) (float32, float32) {
	if freq < 1 {
		freq = 1
	}
	if lim := sampleRate * maxResonatorFraction; freq > lim {
		freq = lim
	}
	if bandwidth < MinResonatorBandwidth {
		bandwidth = MinResonatorBandwidth
	}
	if lim := sampleRate * 0.5; bandwidth > lim {
		bandwidth = lim
	}
	return freq, bandwidth
}

// NewResonator creates a resonator at freq/bandwidth Hz.
func NewResonator(freq, bandwidth, sampleRate float32) Resonator {
	r := Resonator{}
	r.SetParameters(freq, bandwidth, sampleRate)
	return r
}

// SetParameters recomputes the coefficients. Inputs are clamped as in
// ClampParameters; unchanged parameters are a no-op so per-sample callers pay
// only for real changes.
func (r *Resonator) SetParameters(freq, bandwidth, sampleRate float32) {
	if sampleRate <= 0 {
		return
	}
	freq, bandwidth = ClampParameters(freq, bandwidth, sampleRate)
	if freq == r.freq && bandwidth == r.bandwidth && sampleRate == r.sampleRate {
		return
	}
	r.freq, r.bandwidth, r.sampleRate = freq, bandwidth, sampleRate

	fs := float64(sampleRate)
	R := math.Exp(-math.Pi * float64(bandwidth) / fs)
	w := 2 * math.Pi * float64(freq) / fs
	a1 := -2 * R * math.Cos(w)
	a2 := R * R
	b0 := 1 / (1 + R)
	r.a1 = float32(a1)
	r.a2 = float32(a2)
	r.b0 = float32(b0)
	// Gain at DC is b0/(1+a1+a2); dcNorm folds it out for cascades.
	r.dcNorm = float32((1 + a1 + a2) / b0)
}

// Process filters one sample.
func (r *Resonator) Process(x float32) float32 {
	y := r.b0*x - r.a1*r.y1 - r.a2*r.y2
	y = FlushDenormals(y)
	r.y2 = r.y1
	r.y1 = y
	return y
}

// ProcessCascade filters one sample with unity gain at DC. Serial formant
// chains use it so each stage only shapes the spectrum around its peak.
func (r *Resonator) ProcessCascade(x float32) float32 {
	return r.Process(x) * r.dcNorm
}

// ProcessBlock filters buf in place.
func (r *Resonator) ProcessBlock(buf []float32) {
	for i, x := range buf {
		buf[i] = r.Process(x)
	}
}

// Reset zeroes the delay line.
func (r *Resonator) Reset() {
	r.y1, r.y2 = 0, 0
}

// Frequency returns the current (clamped) center frequency.
func (r *Resonator) Frequency() float32 { return r.freq }

// Bandwidth returns the current (clamped) bandwidth.
func (r *Resonator) Bandwidth() float32 { return r.bandwidth }

// PoleRadius returns R.
func (r *Resonator) PoleRadius() float32 {
	return float32(math.Sqrt(float64(r.a2)))
}

// MagnitudeResponse evaluates |H(e^jw)| at freq Hz.
func (r *Resonator) MagnitudeResponse(freq float32) float64 {
	if r.sampleRate <= 0 {
		return 0
	}
	w := 2 * math.Pi * float64(freq) / float64(r.sampleRate)
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	den := 1 + complex(float64(r.a1), 0)*z1 + complex(float64(r.a2), 0)*z2
	return float64(r.b0) / cmplx.Abs(den)
}
