package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cwbudde/algo-choir/analysis"
	"github.com/cwbudde/algo-choir/internal/audioio"
	"github.com/cwbudde/algo-choir/internal/cli"
	"github.com/cwbudde/algo-choir/phoneme"
)

func main() {
	if err := cli.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	referencePath := flag.String("reference", "", "Reference vowel WAV (required)")
	initial := flag.String("phoneme", "AX", "Phoneme used as the starting point")
	sampleRate := flag.Int("sample-rate", 16000, "Analysis and render sample rate")
	renderSec := flag.Float64("render-seconds", 0.6, "Rendered length per candidate")
	maxEvals := flag.Int("max-evals", 600, "Maximum candidate evaluations")
	timeBudget := flag.Duration("time-budget", 2*time.Minute, "Wall clock budget (0 = unlimited)")
	variant := flag.String("variant", "ma", "Mayfly variant: ma, desma, olce, eobbma, gsasma, mpma, aoblmoa")
	pop := flag.Int("pop", 10, "Mayfly population size")
	roundEvals := flag.Int("round-evals", 120, "Evaluations per mayfly round")
	workersRaw := flag.String("workers", "auto", "Parallel workers (integer or 'auto')")
	seed := flag.Int64("seed", 1, "Random seed")
	reportPath := flag.String("report", "out/fit-report.json", "Fit report JSON path")
	outputWAV := flag.String("output", "", "Optional WAV of the best candidate")
	debug := flag.Bool("debug", cli.EnvBool("CHOIR_DEBUG", false), "Enable debug logging")
	flag.Parse()

	logger := cli.InitLogger(*debug)

	if *referencePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -reference is required")
		os.Exit(1)
	}
	workers, err := audioio.ParseWorkers(*workersRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -workers: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := fitConfig{
		sampleRate: *sampleRate,
		renderSec:  *renderSec,
		maxEvals:   *maxEvals,
		timeBudget: *timeBudget,
		variant:    strings.ToLower(*variant),
		pop:        *pop,
		roundEvals: *roundEvals,
		workers:    workers,
		seed:       *seed,
		logger:     logger,
	}
	if err := run(ctx, cfg, *referencePath, *initial, *reportPath, *outputWAV); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg fitConfig, referencePath, initialSymbol, reportPath, outputWAV string) error {
	start := time.Now()
	ph, ok := phoneme.Lookup(initialSymbol)
	if !ok {
		return fmt.Errorf("unknown phoneme %q", initialSymbol)
	}
	cfg.initial = ph.Target

	ref, refRate, err := audioio.ReadWAVMono(referencePath)
	if err != nil {
		return err
	}
	if ref, err = audioio.Resample(ref, refRate, cfg.sampleRate); err != nil {
		return err
	}
	cfg.reference = ref

	cfg.f0 = analysis.EstimateF0(ref, cfg.sampleRate, 60, 800)
	if cfg.f0 <= 0 {
		return fmt.Errorf("reference %s has no detectable pitch", referencePath)
	}
	cfg.note = noteForFrequency(cfg.f0)
	fmt.Printf("Reference: %s (%d frames, f0 %.1f Hz, note %d)\n", referencePath, len(ref), cfg.f0, cfg.note)

	res, err := runFit(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Best distance %.2f dB (initial %.2f dB) after %d evals\n", res.Distance, res.Initial, res.Evals)
	fmt.Printf("Formants:   %v\nBandwidths: %v\n", res.Target.Freqs, res.Target.Bandwidths)

	best, err := renderCandidate(cfg, res.Target)
	if err != nil {
		return err
	}
	cmp := analysis.Compare(ref, best.mono, cfg.sampleRate)
	fmt.Printf("Similarity %.4f (score %.4f, spectral %.2f dB)\n", cmp.Similarity, cmp.Score, cmp.SpectralRMSEDB)

	report := newReport(referencePath, cfg, ph, res, time.Since(start))
	report.Comparison = cmp
	if err := writeReport(reportPath, report); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", reportPath)

	if outputWAV != "" {
		if err := audioio.WriteStereo(outputWAV, best.left, best.right, cfg.sampleRate, 16); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", outputWAV)
	}
	return nil
}

// renderCandidate renders target once on a fresh evaluator.
func renderCandidate(cfg fitConfig, target phoneme.Target) (*evaluator, error) {
	ev, err := newEvaluator(cfg, nil, 1)
	if err != nil {
		return nil, err
	}
	if _, err := ev.render(target); err != nil {
		return nil, err
	}
	return ev, nil
}

func noteForFrequency(f float64) int {
	n := int(math.Round(69 + 12*math.Log2(f/440)))
	return max(0, min(127, n))
}
