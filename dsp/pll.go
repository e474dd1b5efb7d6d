package dsp

import "math"

const (
	twoPi = 2 * math.Pi

	// DefaultPLLKp and DefaultPLLKi are the loop gains of SubharmonicTracker.
	DefaultPLLKp = 0.1
	DefaultPLLKi = 0.001

	pllIntegralLimit = 100.0
)

// SubharmonicTracker is a phase-locked loop that follows a reference
// oscillator at f0 and emits a sine at f0/ratio whose phase is locked to the
// reference.
type SubharmonicTracker struct {
	sampleRate float64
	ratio      float64
	mix        float32
	kp, ki     float64

	refPhase float64
	phase    float64
	integral float64
	err      float64
}

// NewSubharmonicTracker creates a tracker at ratio 2 with unity mix.
func NewSubharmonicTracker(sampleRate float32) SubharmonicTracker {
	return SubharmonicTracker{
		sampleRate: float64(sampleRate),
		ratio:      2,
		mix:        1,
		kp:         DefaultPLLKp,
		ki:         DefaultPLLKi,
	}
}

// SetSampleRate changes the sample rate.
func (t *SubharmonicTracker) SetSampleRate(sampleRate float32) {
	t.sampleRate = float64(sampleRate)
}

// SetRatio sets the division ratio (2 = one octave down). Ratios below 1 are
// clamped to 1.
func (t *SubharmonicTracker) SetRatio(ratio float32) {
	if ratio < 1 {
		ratio = 1
	}
	t.ratio = float64(ratio)
}

// Ratio returns the division ratio.
func (t *SubharmonicTracker) Ratio() float32 { return float32(t.ratio) }

// SetMix sets the output level.
func (t *SubharmonicTracker) SetMix(mix float32) {
	t.mix = Clamp(mix, 0, 1)
}

// SetGains overrides the PI loop gains.
func (t *SubharmonicTracker) SetGains(kp, ki float64) {
	t.kp, t.ki = kp, ki
}

// Next advances the reference at f0 and returns one subharmonic sample.
func (t *SubharmonicTracker) Next(f0 float32) float32 {
	if f0 <= 0 || t.sampleRate <= 0 {
		return 0
	}
	inc := twoPi * float64(f0) / t.sampleRate

	// The reference wraps once per subharmonic period so that ref/ratio stays
	// continuous.
	t.refPhase += inc
	span := twoPi * t.ratio
	if t.refPhase >= span {
		t.refPhase = math.Mod(t.refPhase, span)
	}
	target := t.refPhase / t.ratio

	t.err = WrapPhase(target - t.phase)
	correction := t.kp*t.err + t.ki*t.integral
	t.integral += t.err
	if t.integral > pllIntegralLimit {
		t.integral = pllIntegralLimit
	} else if t.integral < -pllIntegralLimit {
		t.integral = -pllIntegralLimit
	}

	t.phase += inc/t.ratio + correction
	t.phase = math.Mod(t.phase, twoPi)
	if t.phase < 0 {
		t.phase += twoPi
	}
	return float32(math.Sin(t.phase)) * t.mix
}

// PhaseError returns the wrapped error of the last Next call, in radians.
func (t *SubharmonicTracker) PhaseError() float64 { return t.err }

// Reset zeroes both phases and the integral term.
func (t *SubharmonicTracker) Reset() {
	t.refPhase = 0
	t.phase = 0
	t.integral = 0
	t.err = 0
}

// WrapPhase maps p to (-pi, pi].
func WrapPhase(p float64) float64 {
	p = math.Mod(p+math.Pi, twoPi)
	if p <= 0 {
		p += twoPi
	}
	return p - math.Pi
}
