package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/mayfly"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-choir/analysis"
	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/phoneme"
)

const (
	fftSize      = 2048
	skipSeconds  = 0.12
	envelopeLoHz = 100
	envelopeHiHz = 5000
)

type fitConfig struct {
	reference  []float64
	sampleRate int
	note       int
	f0         float64
	initial    phoneme.Target
	renderSec  float64
	maxEvals   int
	timeBudget time.Duration
	variant    string
	pop        int
	roundEvals int
	workers    int
	seed       int64
	logger     *slog.Logger
}

type fitResult struct {
	Target   phoneme.Target
	Distance float64
	Initial  float64
	Evals    int
}

// evaluator renders one candidate vowel and scores it against the
// reference envelope. Each worker owns one.
type evaluator struct {
	m       *choir.VoiceManager
	note    int
	frames  int
	block   int
	left    []float32
	right   []float32
	mono    []float64
	refEnv  []float64
	binHz   float64
	widthHz float64
}

func envelopeWidth(f0 float64) float64 {
	return math.Max(2*f0, 200)
}

func newEvaluator(cfg fitConfig, refEnv []float64, binHz float64) (*evaluator, error) {
	p := choir.NewDefaultParams()
	p.Method = choir.MethodFormant
	p.Attack = 0.01
	p.VibratoDepth = 0
	p.Formant.Breathiness = 0
	m, err := choir.NewVoiceManager(1, choir.WithSeed(uint64(cfg.seed)), choir.WithParams(p))
	if err != nil {
		return nil, err
	}
	const block = 256
	if err := m.Prepare(float32(cfg.sampleRate), block); err != nil {
		return nil, err
	}
	frames := int(cfg.renderSec * float64(cfg.sampleRate))
	return &evaluator{
		m:       m,
		note:    cfg.note,
		frames:  frames,
		block:   block,
		left:    make([]float32, frames),
		right:   make([]float32, frames),
		mono:    make([]float64, frames),
		refEnv:  refEnv,
		binHz:   binHz,
		widthHz: envelopeWidth(cfg.f0),
	}, nil
}

func (e *evaluator) render(t phoneme.Target) ([]float64, error) {
	ph := &phoneme.Phoneme{Symbol: "FIT", Category: phoneme.Vowel, Voiced: true, Target: t}
	e.m.Reset()
	if _, err := e.m.NoteOnWith(e.note, 100, choir.MethodFormant, ph); err != nil {
		return nil, err
	}
	for pos := 0; pos < e.frames; pos += e.block {
		n := min(e.block, e.frames-pos)
		if err := e.m.ProcessBlock(e.left[pos:pos+n], e.right[pos:pos+n], n); err != nil {
			return nil, err
		}
	}
	for i := range e.mono {
		e.mono[i] = 0.5 * (float64(e.left[i]) + float64(e.right[i]))
	}
	return e.mono, nil
}

func (e *evaluator) score(t phoneme.Target) (float64, error) {
	x, err := e.render(t)
	if err != nil {
		return 0, err
	}
	skip := min(int(skipSeconds*float64(e.m.SampleRate())), len(x)/2)
	spec, err := analysis.AverageSpectrum(x[skip:], int(e.m.SampleRate()), fftSize, fftSize/4)
	if err != nil {
		return 0, err
	}
	return envelopeDistance(e.refEnv, spec.Envelope(e.widthHz), e.binHz), nil
}

// envelopeDistance is the RMS dB difference of two envelopes between
// envelopeLoHz and envelopeHiHz after removing the mean level offset.
func envelopeDistance(ref, cand []float64, binHz float64) float64 {
	lo := int(envelopeLoHz / binHz)
	hi := min(int(envelopeHiHz/binHz), len(ref)-1, len(cand)-1)
	if hi <= lo {
		return math.Inf(1)
	}
	n := float64(hi - lo + 1)
	var offset float64
	for k := lo; k <= hi; k++ {
		offset += ref[k] - cand[k]
	}
	offset /= n
	var sum float64
	for k := lo; k <= hi; k++ {
		d := ref[k] - cand[k] - offset
		sum += d * d
	}
	return math.Sqrt(sum / n)
}

type fitState struct {
	mu   sync.Mutex
	best phoneme.Target
	dist float64
}

func (s *fitState) offer(t phoneme.Target, d float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < s.dist {
		s.best, s.dist = t, d
		return true
	}
	return false
}

func (s *fitState) snapshot() (phoneme.Target, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best, s.dist
}

func runFit(ctx context.Context, cfg fitConfig) (fitResult, error) {
	refSpec, err := analysis.AverageSpectrum(cfg.reference, cfg.sampleRate, fftSize, fftSize/4)
	if err != nil {
		return fitResult{}, err
	}
	refEnv := refSpec.Envelope(envelopeWidth(cfg.f0))

	base, err := newEvaluator(cfg, refEnv, refSpec.BinHz())
	if err != nil {
		return fitResult{}, err
	}
	initial, err := base.score(cfg.initial)
	if err != nil {
		return fitResult{}, err
	}
	state := &fitState{best: cfg.initial, dist: initial}
	cfg.logger.Info("initial candidate", "distance_db", initial)

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(workers, 1)

	if cfg.timeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeBudget)
		defer cancel()
	}

	var evals, rounds int64 = 1, 0
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			ev := base
			if w > 0 {
				var err error
				if ev, err = newEvaluator(cfg, refEnv, refSpec.BinHz()); err != nil {
					return err
				}
			}
			for {
				if gctx.Err() != nil || atomic.LoadInt64(&evals) >= int64(cfg.maxEvals) {
					return nil
				}
				round := atomic.AddInt64(&rounds, 1)
				budget := min(cfg.roundEvals, cfg.maxEvals-int(atomic.LoadInt64(&evals)))
				iters := max(1, budget/(2*cfg.pop))

				mc, err := newMayflyConfig(cfg.variant, cfg.pop, len(knobDefs), iters)
				if err != nil {
					return err
				}
				mc.Rand = rand.New(rand.NewSource(cfg.seed + round*7919))
				mc.ObjectiveFunc = func(pos []float64) float64 {
					_, best := state.snapshot()
					if gctx.Err() != nil || atomic.AddInt64(&evals, 1) > int64(cfg.maxEvals) {
						return best + 1
					}
					t := targetFromUnit(pos)
					d, err := ev.score(t)
					if err != nil {
						return best + 1
					}
					if state.offer(t, d) {
						cfg.logger.Info("improved", "round", round, "distance_db", d, "f1", t.Freqs[0], "f2", t.Freqs[1], "f3", t.Freqs[2])
					}
					return d
				}
				before := atomic.LoadInt64(&evals)
				if _, err := runMayfly(mc); err != nil {
					if atomic.LoadInt64(&evals) == before {
						return fmt.Errorf("mayfly round %d: %w", round, err)
					}
					cfg.logger.Warn("mayfly round failed", "round", round, "err", err)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return fitResult{}, err
	}

	best, dist := state.snapshot()
	return fitResult{
		Target:   best,
		Distance: dist,
		Initial:  initial,
		Evals:    int(min(atomic.LoadInt64(&evals), int64(cfg.maxEvals))),
	}, nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
