package dsp

import (
	"math"
	"testing"
)

func TestSmootherSettlesWithinFiveTimeConstants(t *testing.T) {
	const tau = 0.05
	for _, fs := range []float32{44100, 48000, 96000} {
		s := NewSmoother(tau, fs)
		s.SetTargetImmediate(0)
		s.SetTarget(1)
		n := int(math.Ceil(5 * tau * float64(fs)))
		for i := 0; i < n; i++ {
			s.Next()
		}
		if d := math.Abs(float64(s.Current() - 1)); d > 0.01 {
			t.Fatalf("fs=%.0f: after 5 tau current=%f (|err|=%f)", fs, s.Current(), d)
		}
	}
}

func TestSmootherIsMonotonicTowardTarget(t *testing.T) {
	s := NewSmoother(0.01, 48000)
	s.SetTargetImmediate(2)
	s.SetTarget(-1)
	prev := s.Current()
	for i := 0; i < 2000; i++ {
		v := s.Next()
		if v > prev || v < -1-1e-6 {
			t.Fatalf("sample %d: %f after %f, expected monotonic approach to -1", i, v, prev)
		}
		prev = v
	}
}

func TestSmootherImmediateAndReset(t *testing.T) {
	s := NewSmoother(0.1, 44100)
	s.SetTargetImmediate(0.7)
	if s.Current() != 0.7 || s.Next() != 0.7 {
		t.Fatalf("SetTargetImmediate did not snap: %f", s.Current())
	}
	s.SetTarget(0.2)
	s.Next()
	s.Reset()
	if s.Current() != 0.2 {
		t.Fatalf("Reset should snap onto target, got %f", s.Current())
	}
}

func TestSmootherZeroTimeConstantFollowsImmediately(t *testing.T) {
	s := NewSmoother(0, 48000)
	s.SetTarget(3)
	if v := s.Next(); v != 3 {
		t.Fatalf("expected immediate follow, got %f", v)
	}
}

func TestSmootherBankMatchesScalarSmoothers(t *testing.T) {
	const fs = 48000
	targets := []float32{270, 2300, 3000, 3500, 4500}
	bank := NewSmootherBank(len(targets), 0.02, fs)
	scalars := make([]Smoother, len(targets))
	for i := range targets {
		bank.SetTargetImmediate(i, 500)
		bank.SetTarget(i, targets[i])
		scalars[i] = NewSmoother(0.02, fs)
		scalars[i].SetTargetImmediate(500)
		scalars[i].SetTarget(targets[i])
	}
	out := make([]float32, len(targets))
	for n := 0; n < 1000; n++ {
		bank.Next(out)
		for i := range scalars {
			want := scalars[i].Next()
			if math.Abs(float64(out[i]-want)) > 1e-3 {
				t.Fatalf("channel %d sample %d: bank=%f scalar=%f", i, n, out[i], want)
			}
		}
	}
}
