package choir

import (
	"math"
	"testing"
)

func TestEqualPowerPanKeepsPower(t *testing.T) {
	for _, pan := range []float32{-1, -0.5, 0, 0.3, 1, 2, -3} {
		l, r := equalPowerPan(pan)
		if p := float64(l*l + r*r); math.Abs(p-1) > 1e-5 {
			t.Fatalf("pan %.2f: L^2+R^2 = %f", pan, p)
		}
	}
	l, r := equalPowerPan(0)
	if math.Abs(float64(l-r)) > 1e-6 || math.Abs(float64(l)-math.Sqrt2/2) > 1e-5 {
		t.Fatalf("center pan should be cos(pi/4) on both sides, got %f/%f", l, r)
	}
	l, r = equalPowerPan(-1)
	if math.Abs(float64(l-1)) > 1e-6 || math.Abs(float64(r)) > 1e-6 {
		t.Fatalf("hard left should be 1/0, got %f/%f", l, r)
	}
}

func TestMIDINoteToFreq(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{69, 440},
		{57, 220},
		{81, 880},
		{60, 261.63},
	}
	for _, tc := range tests {
		got := float64(MIDINoteToFreq(tc.note))
		if math.Abs(got-tc.want) > 0.005*tc.want {
			t.Fatalf("note %d: %f Hz, want %f", tc.note, got, tc.want)
		}
	}
}

func TestVelocityToAmplitude(t *testing.T) {
	if velocityToAmplitude(0) != 0 || velocityToAmplitude(127) != 1 {
		t.Fatalf("velocity endpoints must map to 0 and 1")
	}
}
