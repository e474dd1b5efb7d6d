package audioio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Interleave packs two equal-length channels as LRLR...
func Interleave(left, right []float32) ([]float32, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("left/right length mismatch (%d vs %d)", len(left), len(right))
	}
	out := make([]float32, 2*len(left))
	for i := range left {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out, nil
}

// StereoToMono averages two channels into float64.
func StereoToMono(left, right []float32) []float64 {
	n := min(len(left), len(right))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (float64(left[i]) + float64(right[i]))
	}
	return out
}

// RMS of x. Empty input is 0.
func RMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, s := range x {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Peak returns the largest absolute sample.
func Peak(x ...[]float32) float32 {
	var p float32
	for _, ch := range x {
		for _, s := range ch {
			if s < 0 {
				s = -s
			}
			if s > p {
				p = s
			}
		}
	}
	return p
}

// Normalize scales every channel so the common peak equals target and
// returns the applied gain. Silent input is left untouched.
func Normalize(target float32, channels ...[]float32) float32 {
	p := Peak(channels...)
	if p == 0 {
		return 1
	}
	g := target / p
	for _, ch := range channels {
		for i := range ch {
			ch[i] *= g
		}
	}
	return g
}

// ParseWorkers parses a worker count flag. "auto" yields 0.
func ParseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}
