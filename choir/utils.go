package choir

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/cwbudde/algo-approx"
)

// midiNoteToFreq converts MIDI note number to frequency in Hz.
func midiNoteToFreq(note int) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float32(note-a4Note) / 12.0
	return a4Freq * pow2Approx(exponent)
}

// MIDINoteToFreq is the exported form of the note to frequency mapping.
func MIDINoteToFreq(note int) float32 { return midiNoteToFreq(note) }

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func semitonesToRatio(st float32) float32 {
	return pow2Approx(st / 12.0)
}

// velocityToAmplitude maps a MIDI velocity in [0,127] to [0,1].
func velocityToAmplitude(velocity float32) float32 {
	return velocity / 127.0
}

// equalPowerPan returns the left and right gains for pan in [-1,1].
// L^2 + R^2 = 1 everywhere; the center is cos(pi/4) on both sides.
func equalPowerPan(pan float32) (float32, float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	theta := (pan + 1) * math32.Pi / 4
	return math32.Cos(theta), math32.Sin(theta)
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
