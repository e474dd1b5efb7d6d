package dsp

import (
	"math"
	"testing"
)

func TestResonatorPeakDominatesNeighbours(t *testing.T) {
	r := NewResonator(500, 50, 44100)

	tests := []struct {
		freq float32
		want float64
	}{
		{500, 991.8},
		{250, 131.5},
		{750, 79.0},
	}
	for _, tc := range tests {
		got := r.MagnitudeResponse(tc.freq)
		if math.Abs(got-tc.want) > 0.05*tc.want {
			t.Fatalf("|H(%.0f Hz)| = %.2f, want %.2f +/-5%%", tc.freq, got, tc.want)
		}
	}

	peak := r.MagnitudeResponse(500)
	for _, f := range []float32{250, 750} {
		side := r.MagnitudeResponse(f)
		if db := 20 * math.Log10(peak/side); db < 6 {
			t.Fatalf("peak only %.2f dB above %.0f Hz", db, f)
		}
	}
}

func TestResonatorImpulseResponseDecays(t *testing.T) {
	const fs = 44100
	for _, bw := range []float32{20, 50, 200, 1000} {
		r := NewResonator(500, bw, fs)
		// The envelope falls as exp(-pi*b*n/fs); 20*fs/b samples is far past -200 dB.
		n := int(20 * fs / bw)
		var peak, tail float32
		for i := 0; i < n+1024; i++ {
			x := float32(0)
			if i == 0 {
				x = 1
			}
			y := r.Process(x)
			if math.IsNaN(float64(y)) || math.IsInf(float64(y), 0) {
				t.Fatalf("bw=%.0f: non-finite output at %d", bw, i)
			}
			a := float32(math.Abs(float64(y)))
			if a > peak {
				peak = a
			}
			if i >= n && a > tail {
				tail = a
			}
		}
		if peak == 0 {
			t.Fatalf("bw=%.0f: impulse produced no output", bw)
		}
		if tail > 1e-6*peak {
			t.Fatalf("bw=%.0f: tail %.3g did not decay (peak %.3g)", bw, tail, peak)
		}
	}
}

func TestResonatorStableAcrossSampleRates(t *testing.T) {
	for _, fs := range []float32{44100, 48000, 96000} {
		for _, f := range []float32{-10, 0, 80, 500, 2500, 8000, fs / 2, fs} {
			for _, bw := range []float32{-5, 0, 10, 100, 1000} {
				r := NewResonator(f, bw, fs)
				R := r.PoleRadius()
				if !(R > 0 && R < 1) {
					t.Fatalf("fs=%.0f f=%.0f bw=%.0f: pole radius %f outside (0,1)", fs, f, bw, R)
				}
				if r.Frequency() <= 0 || r.Frequency() >= fs/2 {
					t.Fatalf("fs=%.0f f=%.0f: clamped frequency %f outside (0, fs/2)", fs, f, r.Frequency())
				}
				var maxAbs float64
				for i := 0; i < 4096; i++ {
					y := float64(r.Process(whiteish(i)))
					if math.IsNaN(y) || math.IsInf(y, 0) {
						t.Fatalf("fs=%.0f f=%.0f bw=%.0f: non-finite output", fs, f, bw)
					}
					maxAbs = math.Max(maxAbs, math.Abs(y))
				}
				if maxAbs > 1e6 {
					t.Fatalf("fs=%.0f f=%.0f bw=%.0f: output grew to %g", fs, f, bw, maxAbs)
				}
			}
		}
	}
}

func TestResonatorResetClearsState(t *testing.T) {
	r := NewResonator(700, 80, 48000)
	for i := 0; i < 100; i++ {
		r.Process(whiteish(i))
	}
	r.Reset()
	if y := r.Process(0); y != 0 {
		t.Fatalf("expected silence after reset, got %g", y)
	}
}

func TestResonatorCascadeHasUnityDCGain(t *testing.T) {
	r := NewResonator(800, 90, 48000)
	var y float32
	for i := 0; i < 48000; i++ {
		y = r.ProcessCascade(1)
	}
	if math.Abs(float64(y)-1) > 1e-3 {
		t.Fatalf("DC gain = %f, want 1", y)
	}
}

func whiteish(i int) float32 {
	n := NewNoise(uint32(i)*2654435761 + 1)
	return n.Next() * 0.5
}
