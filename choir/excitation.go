package choir

import (
	"github.com/cwbudde/algo-choir/dsp"
	"github.com/cwbudde/algo-choir/phoneme"
)

const (
	// Resonator coefficients follow the smoothers at this many samples.
	controlInterval = 16

	plosiveBurstSeconds = 0.010
	fricativeCenterHz   = 4000
	fricativeQ          = 0.7

	// The serial chain has unity gain at DC but large gain at its high
	// formants, so noise enters well below the pulse level.
	hissLevel  = 0.05
	burstLevel = 0.1
)

// exciter produces the source signal for one voice lane. The excitation
// class follows the category and voicing of the current phoneme.
type exciter struct {
	glottal dsp.GlottalSource
	noise   dsp.Noise
	shaper  *dsp.NoiseShaper
	dc      dsp.DCBlocker

	burst    int
	burstLen int
}

func newExciter(sampleRate float32, seed uint32) exciter {
	return exciter{
		glottal:  dsp.NewGlottalSource(sampleRate),
		noise:    dsp.NewNoise(seed),
		shaper:   dsp.NewNoiseShaper(fricativeCenterHz, fricativeQ, float64(sampleRate)),
		dc:       dsp.NewDCBlocker(0.995),
		burstLen: int(plosiveBurstSeconds * sampleRate),
	}
}

// onset arms the plosive burst when ph starts.
func (e *exciter) onset(ph *phoneme.Phoneme) {
	if ph != nil && ph.Category == phoneme.Plosive {
		e.burst = e.burstLen
	} else {
		e.burst = 0
	}
}

func (e *exciter) reset() {
	e.glottal.Reset()
	e.noise.Reset()
	e.shaper.Reset()
	e.dc.Reset()
	e.burst = 0
}

func (e *exciter) pulse() float32 {
	return e.dc.Process(e.glottal.Next())
}

// next returns one excitation sample for ph.
func (e *exciter) next(ph *phoneme.Phoneme, pulseMix, breathiness float32) float32 {
	switch ph.Category {
	case phoneme.Vowel, phoneme.Nasal, phoneme.Approximant:
		p := e.pulse()
		if breathiness > 0 {
			return p*(1-breathiness) + e.noise.Next()*breathiness*0.5
		}
		return p
	case phoneme.Fricative:
		hiss := e.shaper.Process(e.noise.Next()) * hissLevel
		if ph.Voiced {
			return pulseMix*e.pulse() + (1-pulseMix)*hiss
		}
		return hiss
	case phoneme.Aspirate:
		// Breathy onset: mostly noise with a trace of voicing.
		n := e.noise.Next()
		p := e.pulse()
		return (1-pulseMix)*n*burstLevel + pulseMix*0.3*p
	case phoneme.Plosive:
		if e.burst > 0 {
			e.burst--
			e.glottal.Next()
			return e.noise.Next() * burstLevel
		}
		if ph.Voiced {
			return e.pulse()
		}
		return 0.3 * burstLevel * e.noise.Next()
	default:
		return 0
	}
}
