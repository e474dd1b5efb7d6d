package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/cwbudde/algo-fft"
)

// Spectrum is a frame-averaged magnitude spectrum with FFTSize/2+1 bins.
type Spectrum struct {
	SampleRate int
	FFTSize    int
	Frames     int
	Mag        []float64
}

// AverageSpectrum averages Hann-windowed magnitude spectra of x. Inputs
// shorter than one frame are zero-padded.
func AverageSpectrum(x []float64, sampleRate, fftSize, hop int) (Spectrum, error) {
	if sampleRate <= 0 {
		return Spectrum{}, fmt.Errorf("sample rate must be > 0 (got %d)", sampleRate)
	}
	if fftSize < 64 || fftSize&(fftSize-1) != 0 {
		return Spectrum{}, fmt.Errorf("fft size must be a power of two >= 64 (got %d)", fftSize)
	}
	if hop <= 0 {
		hop = fftSize / 2
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return Spectrum{}, err
	}

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}
	buf := make([]float64, fftSize)
	spec := make([]complex128, fftSize/2+1)
	s := Spectrum{
		SampleRate: sampleRate,
		FFTSize:    fftSize,
		Mag:        make([]float64, fftSize/2+1),
	}

	for pos := 0; pos == 0 || pos+fftSize <= len(x); pos += hop {
		for i := range buf {
			if pos+i < len(x) {
				buf[i] = x[pos+i] * hann[i]
			} else {
				buf[i] = 0
			}
		}
		plan.Forward(spec, buf)
		for k := range s.Mag {
			s.Mag[k] += cmplx.Abs(spec[k])
		}
		s.Frames++
	}
	for k := range s.Mag {
		s.Mag[k] /= float64(s.Frames)
	}
	return s, nil
}

// BinHz is the bin spacing.
func (s Spectrum) BinHz() float64 {
	if s.FFTSize == 0 {
		return 0
	}
	return float64(s.SampleRate) / float64(s.FFTSize)
}

// DB returns the magnitudes in decibels.
func (s Spectrum) DB() []float64 {
	out := make([]float64, len(s.Mag))
	for k, v := range s.Mag {
		out[k] = linToDB(v)
	}
	return out
}

// Centroid returns the magnitude-weighted mean frequency.
func (s Spectrum) Centroid() float64 {
	var num, den float64
	bin := s.BinHz()
	for k, v := range s.Mag {
		num += float64(k) * bin * v
		den += v
	}
	if den <= 0 {
		return 0
	}
	return num / den
}

// PeakFrequency returns the frequency of the strongest bin in [lo, hi].
func (s Spectrum) PeakFrequency(lo, hi float64) float64 {
	bin := s.BinHz()
	if bin == 0 {
		return 0
	}
	best, bestK := -1.0, -1
	for k, v := range s.Mag {
		f := float64(k) * bin
		if f < lo || f > hi {
			continue
		}
		if v > best {
			best, bestK = v, k
		}
	}
	if bestK < 0 {
		return 0
	}
	return float64(bestK) * bin
}

// Envelope returns the power spectrum smoothed with a Hann kernel spanning
// ±widthHz, in dB. A width of at least twice the fundamental removes the
// harmonic comb of voiced sounds and leaves the formant structure.
func (s Spectrum) Envelope(widthHz float64) []float64 {
	half := 0
	if bin := s.BinHz(); bin > 0 {
		half = int(widthHz / bin)
	}
	kernel := make([]float64, 2*half+1)
	for i := range kernel {
		kernel[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i+1)/float64(len(kernel)+1))
	}
	out := make([]float64, len(s.Mag))
	for k := range s.Mag {
		var p, w float64
		for i, kw := range kernel {
			j := k - half + i
			if j < 0 || j >= len(s.Mag) {
				continue
			}
			p += kw * s.Mag[j] * s.Mag[j]
			w += kw
		}
		out[k] = linToDB(math.Sqrt(p / w))
	}
	return out
}

// Formants picks up to n envelope peaks above minHz, in ascending frequency.
// Peaks less than 6 dB above the mean envelope level, or within widthHz of a
// stronger peak, are ignored.
func (s Spectrum) Formants(n int, widthHz, minHz float64) []float64 {
	env := s.Envelope(widthHz)
	if len(env) < 3 || n <= 0 {
		return nil
	}
	var mean float64
	for _, v := range env {
		mean += v
	}
	mean /= float64(len(env))

	type peak struct {
		freq, level float64
	}
	var peaks []peak
	bin := s.BinHz()
	for k := 1; k < len(env)-1; k++ {
		f := float64(k) * bin
		if f < minHz || env[k] < mean+6 {
			continue
		}
		if env[k] > env[k-1] && env[k] >= env[k+1] {
			peaks = append(peaks, peak{f + bin*parabolicOffset(env[k-1], env[k], env[k+1]), env[k]})
		}
	}

	// strongest first, then drop neighbours
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].level > peaks[j].level })
	var kept []peak
	for _, p := range peaks {
		near := false
		for _, q := range kept {
			if math.Abs(p.freq-q.freq) < widthHz {
				near = true
				break
			}
		}
		if !near {
			kept = append(kept, p)
		}
	}
	if len(kept) > n {
		kept = kept[:n]
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].freq < kept[j].freq })
	out := make([]float64, len(kept))
	for i, p := range kept {
		out[i] = p.freq
	}
	return out
}

func parabolicOffset(a, b, c float64) float64 {
	den := a - 2*b + c
	if math.Abs(den) < 1e-12 {
		return 0
	}
	return 0.5 * (a - c) / den
}

// SpectralDistanceDB is the RMS difference in dB of two spectra of equal
// size, skipping DC.
func SpectralDistanceDB(a, b Spectrum) float64 {
	n := min(len(a.Mag), len(b.Mag))
	if n < 2 {
		return 0
	}
	var sum float64
	for k := 1; k < n; k++ {
		d := linToDB(a.Mag[k]) - linToDB(b.Mag[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}
