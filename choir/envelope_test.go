package choir

import (
	"math"
	"testing"
)

func TestEnvelopeAttackAndReleaseTiming(t *testing.T) {
	const fs = 48000
	tests := []struct {
		attack, release float32
	}{
		{0.01, 0.01},
		{0.05, 0.3},
		{0.2, 1.0},
	}
	for _, tc := range tests {
		ac := attackCoefficient(tc.attack, fs)
		rm := releaseMultiplier(tc.release, fs)
		var e Envelope
		e.Trigger()
		n := 0
		for e.State() == EnvAttack {
			e.Next(ac, rm)
			n++
			if n > fs*2 {
				t.Fatalf("attack %.3f never completed", tc.attack)
			}
		}
		want := float64(tc.attack * fs)
		if math.Abs(float64(n)-want) > 0.02*want+2 {
			t.Fatalf("attack %.3f took %d samples, want ~%.0f", tc.attack, n, want)
		}
		if e.Level() != 1 || e.State() != EnvSustain {
			t.Fatalf("expected sustain at 1, got %s at %f", e.State(), e.Level())
		}

		e.Release()
		n = 0
		for e.State() == EnvRelease {
			e.Next(ac, rm)
			n++
			if n > fs*4 {
				t.Fatalf("release %.3f never completed", tc.release)
			}
		}
		want = float64(tc.release * fs)
		if math.Abs(float64(n)-want) > 0.02*want+2 {
			t.Fatalf("release %.3f took %d samples, want ~%.0f", tc.release, n, want)
		}
		if e.Level() != 0 || e.State() != EnvIdle {
			t.Fatalf("expected idle at 0, got %s at %f", e.State(), e.Level())
		}
	}
}

func TestEnvelopeReleaseFromIdleIsNoop(t *testing.T) {
	var e Envelope
	e.Release()
	if e.State() != EnvIdle || e.Next(0.5, 0.5) != 0 {
		t.Fatalf("idle envelope must stay silent")
	}
}

func TestEnvelopeReleaseDuringAttack(t *testing.T) {
	var e Envelope
	e.Trigger()
	for i := 0; i < 10; i++ {
		e.Next(0.01, 0.9)
	}
	peak := e.Level()
	e.Release()
	if v := e.Next(0.01, 0.9); v >= peak {
		t.Fatalf("release did not start decaying: %f >= %f", v, peak)
	}
}
