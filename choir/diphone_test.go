package choir

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-choir/phoneme"
)

func TestTransitionRatioCrossover(t *testing.T) {
	tests := []struct {
		name     string
		from, to phoneme.Category
		t, want  float32
	}{
		{"cv start", phoneme.Plosive, phoneme.Vowel, 0, 0},
		{"cv crossover", phoneme.Plosive, phoneme.Vowel, 0.3, 0.5},
		{"cv end", phoneme.Fricative, phoneme.Vowel, 1, 1},
		{"vc crossover", phoneme.Vowel, phoneme.Nasal, 0.7, 0.5},
		{"vc early", phoneme.Vowel, phoneme.Plosive, 0.35, 0.25},
		{"vv linear", phoneme.Vowel, phoneme.Vowel, 0.3, 0.3},
		{"cc linear", phoneme.Fricative, phoneme.Plosive, 0.6, 0.6},
		{"clamped", phoneme.Vowel, phoneme.Vowel, 1.5, 1},
	}
	for _, tc := range tests {
		got := TransitionRatio(tc.from, tc.to, tc.t, 0.3, 0.7)
		if math.Abs(float64(got-tc.want)) > 1e-5 {
			t.Fatalf("%s: TransitionRatio(%f) = %f, want %f", tc.name, tc.t, got, tc.want)
		}
	}
}

func TestTransitionRatioIsMonotonic(t *testing.T) {
	prev := float32(-1)
	for i := 0; i <= 100; i++ {
		r := TransitionRatio(phoneme.Nasal, phoneme.Vowel, float32(i)/100, 0.3, 0.7)
		if r < prev {
			t.Fatalf("ratio decreased at step %d", i)
		}
		prev = r
	}
}

func TestDiphoneMethodCompletesTransition(t *testing.T) {
	const fs = 48000
	m := NewDiphoneMethod()
	m.SetTransition(0.1, 2)
	if err := m.Prepare(MethodParams{SampleRate: fs, MaxBlockSize: 512, Voices: 2}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	aa := phoneme.MustLookup("AA")
	iy := phoneme.MustLookup("IY")
	m.Start(0, 220, aa)

	buf := make([]float32, 512)
	if err := m.Process(0, 220, 1, iy, buf); err != nil {
		t.Fatalf("process: %v", err)
	}
	mid := m.Progress(0)
	if mid <= 0 || mid >= 1 {
		t.Fatalf("progress after one block = %f, want within (0,1)", mid)
	}
	// curve 2 keeps early progress below linear.
	if lin := float32(512) / (0.1 * fs); mid >= lin {
		t.Fatalf("curve 2 progress %f should trail linear %f", mid, lin)
	}
	for i := 0; i < 10; i++ {
		if err := m.Process(0, 220, 1, iy, buf); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if m.Progress(0) != 1 {
		t.Fatalf("transition did not finish: %f", m.Progress(0))
	}
	if got := m.lanes[0].current; got != iy.Target {
		t.Fatalf("final target %+v, want %+v", got, iy.Target)
	}
}

func TestDiphoneWithoutCoarticulationJumps(t *testing.T) {
	p := NewDefaultParams()
	p.Diphone.Coarticulation = false
	m := NewDiphoneMethod()
	m.SetParams(p)
	if err := m.Prepare(MethodParams{SampleRate: 44100, MaxBlockSize: 64, Voices: 1}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	m.Start(0, 110, phoneme.MustLookup("UW"))
	buf := make([]float32, 64)
	if err := m.Process(0, 110, 1, phoneme.MustLookup("EH"), buf); err != nil {
		t.Fatalf("process: %v", err)
	}
	if m.Progress(0) != 1 {
		t.Fatalf("expected an immediate jump, progress %f", m.Progress(0))
	}
}
