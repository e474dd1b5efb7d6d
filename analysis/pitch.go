package analysis

import "math"

const yinThreshold = 0.15

// EstimateF0 estimates the fundamental of x with the YIN difference function
// over one analysis window taken from the middle of the signal. It returns 0
// when no period in [minHz, maxHz] is found.
func EstimateF0(x []float64, sampleRate int, minHz, maxHz float64) float64 {
	if sampleRate <= 0 || minHz <= 0 || maxHz <= minHz {
		return 0
	}
	minLag := int(float64(sampleRate) / maxHz)
	maxLag := int(math.Ceil(float64(sampleRate) / minHz))
	if minLag < 2 {
		minLag = 2
	}
	window := 2 * maxLag
	if window < 1024 {
		window = 1024
	}
	if len(x) < window+maxLag+1 {
		window = len(x) - maxLag - 1
		if window < maxLag {
			return 0
		}
	}
	start := (len(x) - window - maxLag) / 2
	seg := x[start : start+window+maxLag+1]

	d := make([]float64, maxLag+2)
	for tau := 1; tau <= maxLag+1; tau++ {
		var sum float64
		for i := 0; i < window; i++ {
			diff := seg[i] - seg[i+tau]
			sum += diff * diff
		}
		d[tau] = sum
	}

	// cumulative mean normalized difference
	cmnd := make([]float64, len(d))
	cmnd[0] = 1
	var running float64
	for tau := 1; tau < len(d); tau++ {
		running += d[tau]
		if running <= 0 {
			cmnd[tau] = 1
			continue
		}
		cmnd[tau] = d[tau] * float64(tau) / running
	}

	best := -1
	for tau := minLag; tau <= maxLag; tau++ {
		if cmnd[tau] < yinThreshold {
			for tau+1 <= maxLag && cmnd[tau+1] < cmnd[tau] {
				tau++
			}
			best = tau
			break
		}
	}
	if best < 0 {
		return 0
	}
	lag := float64(best) + parabolicOffset(cmnd[best-1], cmnd[best], cmnd[best+1])
	if lag <= 0 {
		return 0
	}
	return float64(sampleRate) / lag
}

// CentsDiff returns the absolute interval between two frequencies in cents,
// or NaN when either is not positive.
func CentsDiff(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return math.NaN()
	}
	return math.Abs(1200 * math.Log2(b/a))
}
