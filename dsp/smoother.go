package dsp

import "github.com/chewxy/math32"

// Smoother is a one-pole exponential interpolator that moves a control value
// toward its target one sample at a time.
type Smoother struct {
	current float32
	target  float32
	alpha   float32
}

// NewSmoother creates a smoother with time constant tau seconds at sampleRate.
func NewSmoother(tau, sampleRate float32) Smoother {
	s := Smoother{}
	s.SetTimeConstant(tau, sampleRate)
	return s
}

// SmoothingAlpha returns 1 - exp(-1/(tau*fs)). A non-positive time constant
// yields 1, which makes the smoother follow its target immediately.
func SmoothingAlpha(tau, sampleRate float32) float32 {
	if tau <= 0 || sampleRate <= 0 {
		return 1
	}
	return 1 - math32.Exp(-1/(tau*sampleRate))
}

// SetTimeConstant changes tau without touching the current value.
func (s *Smoother) SetTimeConstant(tau, sampleRate float32) {
	s.alpha = SmoothingAlpha(tau, sampleRate)
}

// SetTarget sets the value the smoother ramps toward.
func (s *Smoother) SetTarget(v float32) {
	s.target = v
}

// SetTargetImmediate snaps both current and target to v.
func (s *Smoother) SetTargetImmediate(v float32) {
	s.target = v
	s.current = v
}

// Next advances one sample and returns the new current value.
func (s *Smoother) Next() float32 {
	s.current += s.alpha * (s.target - s.current)
	s.current = FlushDenormals(s.current)
	return s.current
}

// Current returns the current value without advancing.
func (s *Smoother) Current() float32 { return s.current }

// Target returns the current target.
func (s *Smoother) Target() float32 { return s.target }

// Reset snaps the current value onto the target.
func (s *Smoother) Reset() {
	s.current = s.target
}

// SmootherBank runs the smoother recurrence over several independent
// channels that share one alpha, e.g. one channel per formant band.
type SmootherBank struct {
	current []float32
	target  []float32
	alpha   float32
}

// NewSmootherBank allocates a bank of n channels.
func NewSmootherBank(n int, tau, sampleRate float32) *SmootherBank {
	return &SmootherBank{
		current: make([]float32, n),
		target:  make([]float32, n),
		alpha:   SmoothingAlpha(tau, sampleRate),
	}
}

// Len returns the number of channels.
func (b *SmootherBank) Len() int { return len(b.current) }

// SetTimeConstant changes the shared time constant.
func (b *SmootherBank) SetTimeConstant(tau, sampleRate float32) {
	b.alpha = SmoothingAlpha(tau, sampleRate)
}

// SetTarget sets the target of channel ch.
func (b *SmootherBank) SetTarget(ch int, v float32) {
	b.target[ch] = v
}

// SetTargetImmediate snaps channel ch to v.
func (b *SmootherBank) SetTargetImmediate(ch int, v float32) {
	b.target[ch] = v
	b.current[ch] = v
}

// Next advances every channel by one sample. out receives the new values and
// may be nil.
func (b *SmootherBank) Next(out []float32) {
	a := b.alpha
	for i := range b.current {
		c := b.current[i] + a*(b.target[i]-b.current[i])
		b.current[i] = FlushDenormals(c)
	}
	if out != nil {
		copy(out, b.current)
	}
}

// Current returns the current value of channel ch.
func (b *SmootherBank) Current(ch int) float32 { return b.current[ch] }

// Reset snaps all channels onto their targets.
func (b *SmootherBank) Reset() {
	copy(b.current, b.target)
}
