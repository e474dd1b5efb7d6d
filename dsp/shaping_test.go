package dsp

import (
	"math"
	"testing"
)

func sineGain(process func(float32) float32, freq, fs float64) float64 {
	n := int(fs / 2)
	var inE, outE float64
	for i := 0; i < n; i++ {
		x := float32(math.Sin(2 * math.Pi * freq * float64(i) / fs))
		y := process(x)
		if i < n/2 {
			continue
		}
		inE += float64(x * x)
		outE += float64(y * y)
	}
	return math.Sqrt(outE / inE)
}

func TestNoiseShaperPassesCenterBand(t *testing.T) {
	const fs = 48000
	center := sineGain(NewNoiseShaper(5000, 2, fs).Process, 5000, fs)
	low := sineGain(NewNoiseShaper(5000, 2, fs).Process, 200, fs)
	if math.Abs(center-1) > 0.05 {
		t.Fatalf("center gain %.3f, want ~1", center)
	}
	if low > 0.1*center {
		t.Fatalf("200 Hz leaks through: %.3f vs center %.3f", low, center)
	}
}

func TestNoiseShaperGainAndReset(t *testing.T) {
	s := NewNoiseShaper(3000, 1, 44100)
	s.SetGain(0.5)
	g := sineGain(s.Process, 3000, 44100)
	if math.Abs(g-0.5) > 0.05 {
		t.Fatalf("gain %.3f, want 0.5", g)
	}
	s.Reset()
	if y := s.Process(0); y != 0 {
		t.Fatalf("expected silence after reset, got %f", y)
	}
}

func TestBrightenerLiftsHighs(t *testing.T) {
	const fs = 48000
	high := sineGain(NewBrightener(2000, 6, fs).Process, 12000, fs)
	low := sineGain(NewBrightener(2000, 6, fs).Process, 100, fs)
	if db := 20 * math.Log10(high); math.Abs(db-6) > 1 {
		t.Fatalf("shelf gain %.2f dB, want ~6 dB", db)
	}
	if db := 20 * math.Log10(low); math.Abs(db) > 0.5 {
		t.Fatalf("low band moved by %.2f dB", db)
	}

	b := NewBrightener(2000, 6, fs)
	b.SetEnabled(false)
	if b.Enabled() || b.Process(0.3) != 0.3 {
		t.Fatalf("disabled brightener must pass through")
	}
}
