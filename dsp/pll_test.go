package dsp

import (
	"math"
	"testing"
)

func TestSubharmonicTrackerLocksAtRatioTwo(t *testing.T) {
	const fs = 44100
	tr := NewSubharmonicTracker(fs)
	tr.SetRatio(2)

	settle := fs / 10
	total := 2 * fs
	for i := 0; i < total; i++ {
		tr.Next(110)
		if i < settle {
			continue
		}
		if e := math.Abs(tr.PhaseError()); e >= 0.05 {
			t.Fatalf("sample %d: phase error %.4f rad after settling", i, e)
		}
	}
}

func TestSubharmonicTrackerReacquiresAfterRatioChange(t *testing.T) {
	const fs = 48000
	tr := NewSubharmonicTracker(fs)
	tr.SetRatio(2)
	for i := 0; i < fs/2; i++ {
		tr.Next(110)
	}
	tr.SetRatio(3)

	var maxLate float64
	for i := 0; i < fs; i++ {
		tr.Next(110)
		if i > fs/2 {
			maxLate = math.Max(maxLate, math.Abs(tr.PhaseError()))
		}
	}
	if maxLate >= 0.05 {
		t.Fatalf("lock not re-acquired after ratio change, max error %.4f", maxLate)
	}
}

func TestSubharmonicTrackerOutputFrequency(t *testing.T) {
	const fs = 48000
	tr := NewSubharmonicTracker(fs)
	for _, ratio := range []float32{2, 3, 4} {
		tr.Reset()
		tr.SetRatio(ratio)
		out := make([]float32, fs)
		for i := range out {
			out[i] = tr.Next(220)
		}
		got := zeroCrossingFreq(out[fs/4:], fs)
		want := 220 / float64(ratio)
		if math.Abs(got-want) > 2 {
			t.Fatalf("ratio %.0f: measured %.2f Hz, want %.2f Hz", ratio, got, want)
		}
	}
}

func TestSubharmonicTrackerResetAndMix(t *testing.T) {
	tr := NewSubharmonicTracker(44100)
	tr.SetMix(0.25)
	var peak float32
	for i := 0; i < 44100; i++ {
		v := tr.Next(100)
		if v > peak {
			peak = v
		}
	}
	if peak > 0.25+1e-6 {
		t.Fatalf("mix not applied: peak %f", peak)
	}
	tr.Reset()
	if tr.PhaseError() != 0 {
		t.Fatalf("reset must clear the phase error")
	}
	if v := tr.Next(0); v != 0 {
		t.Fatalf("zero reference must emit silence, got %f", v)
	}
}

func TestWrapPhase(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{7 * math.Pi / 2, -math.Pi / 2},
	}
	for _, tc := range tests {
		if got := WrapPhase(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("WrapPhase(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func zeroCrossingFreq(samples []float32, sampleRate int) float64 {
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	duration := float64(len(samples)) / float64(sampleRate)
	return float64(crossings) / (2 * duration)
}
