package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/internal/audioio"
	"github.com/cwbudde/algo-choir/internal/cli"
	"github.com/cwbudde/algo-choir/internal/render"
	"github.com/cwbudde/algo-choir/internal/score"
	"github.com/cwbudde/algo-choir/phoneme"
	"github.com/cwbudde/algo-choir/preset"
)

type renderConfig struct {
	presetPath string
	midiPath   string
	notes      string
	phonemes   string
	method     string
	velocity   float64
	duration   float64
	tail       float64
	voices     int
	sampleRate int
	blockSize  int
	bitDepth   int
	seed       uint64
	normalize  float64
	output     string
	stemsDir   string
}

func main() {
	if err := cli.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	var cfg renderConfig
	flag.StringVar(&cfg.presetPath, "preset", cli.EnvString("CHOIR_PRESET", ""), "Preset JSON/YAML file (optional)")
	flag.StringVar(&cfg.midiPath, "midi", "", "Standard MIDI file to render (overrides -notes)")
	flag.StringVar(&cfg.notes, "notes", "57,60,64", "Comma separated MIDI notes sung together")
	flag.StringVar(&cfg.phonemes, "phonemes", "", "Phoneme sequence sung on every note, e.g. \"HH AH L OW\"")
	flag.StringVar(&cfg.method, "method", "", "Synthesis method override: formant, diphone or subharmonic")
	flag.Float64Var(&cfg.velocity, "velocity", 100, "MIDI velocity (1-127)")
	flag.Float64Var(&cfg.duration, "duration", 2.0, "Note duration in seconds (ignored with -midi)")
	flag.Float64Var(&cfg.tail, "tail", 0.5, "Extra render time after the last note in seconds")
	flag.IntVar(&cfg.voices, "voices", cli.EnvInt("CHOIR_VOICES", 16), "Polyphony")
	flag.IntVar(&cfg.sampleRate, "sample-rate", cli.EnvInt("CHOIR_SAMPLE_RATE", 48000), "Render sample rate in Hz")
	flag.IntVar(&cfg.blockSize, "block-size", 256, "Processing block size")
	flag.IntVar(&cfg.bitDepth, "bit-depth", 16, "Output bit depth (16 or 24)")
	flag.Uint64Var(&cfg.seed, "seed", 1, "Voice priority RNG seed")
	flag.Float64Var(&cfg.normalize, "normalize", math.Inf(-1), "Normalize the peak to this dBFS (e.g. -1). Disabled by default")
	flag.StringVar(&cfg.output, "output", cli.EnvString("CHOIR_OUTPUT", "output.wav"), "Output WAV file path")
	flag.StringVar(&cfg.stemsDir, "stems", "", "Also render one stem per synthesis method into this directory")
	debug := flag.Bool("debug", cli.EnvBool("CHOIR_DEBUG", false), "Enable debug logging")
	flag.Parse()

	logger := cli.InitLogger(*debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg renderConfig, logger *slog.Logger) error {
	conf := preset.NewConfig()
	if cfg.presetPath != "" {
		var err error
		if conf, err = preset.Load(cfg.presetPath); err != nil {
			return err
		}
	}
	if cfg.method != "" {
		kind, err := choir.ParseMethodKind(cfg.method)
		if err != nil {
			return err
		}
		conf.Params.Method = kind
	}

	sc, err := buildScore(cfg)
	if err != nil {
		return err
	}
	sc.Assign(conf.PerNote)
	if len(sc.Notes) == 0 {
		return fmt.Errorf("nothing to render")
	}

	totalFrames := int((sc.Length() + cfg.tail) * float64(cfg.sampleRate))
	fmt.Printf("Rendering %d notes (%.2fs) at %d Hz with %s (preset: %s)...\n",
		len(sc.Notes), float64(totalFrames)/float64(cfg.sampleRate), cfg.sampleRate, conf.Params.Method, orDefault(cfg.presetPath))

	build := func(kind choir.MethodKind) (*choir.VoiceManager, error) {
		p := *conf.Params
		p.Method = kind
		m, err := choir.NewVoiceManager(cfg.voices,
			choir.WithSeed(cfg.seed),
			choir.WithLogger(logger),
			choir.WithPresets(conf.Presets),
			choir.WithParams(&p),
		)
		if err != nil {
			return nil, err
		}
		if err := m.Prepare(float32(cfg.sampleRate), cfg.blockSize); err != nil {
			return nil, err
		}
		return m, nil
	}

	m, err := build(conf.Params.Method)
	if err != nil {
		return err
	}
	mix, err := render.Render(ctx, m, sc.Events(cfg.sampleRate), totalFrames, cfg.blockSize, logger)
	if err != nil {
		return err
	}
	st := m.Stats()
	logger.Info("render finished",
		"blocks", st.Blocks,
		"allocations", st.Allocations,
		"stolen", st.StolenVoices,
		"peak_cpu", st.PeakCPU,
		"rejected_events", st.RejectedEvents)

	if err := writeStereo(cfg, cfg.output, mix); err != nil {
		return err
	}
	fmt.Printf("Successfully wrote %s (%d frames, peak %.3f)\n", cfg.output, mix.Frames(), audioio.Peak(mix.Left, mix.Right))

	if cfg.stemsDir == "" {
		return nil
	}
	stems, err := render.Stems(ctx, build, sc, cfg.sampleRate, totalFrames, cfg.blockSize, logger)
	if err != nil {
		return err
	}
	for kind, stem := range stems {
		path := filepath.Join(cfg.stemsDir, kind.String()+".wav")
		if err := writeStereo(cfg, path, stem); err != nil {
			return err
		}
		fmt.Printf("Wrote stem %s\n", path)
	}
	return nil
}

func buildScore(cfg renderConfig) (*score.Score, error) {
	if cfg.midiPath != "" {
		sc, err := score.ReadMIDIFile(cfg.midiPath)
		if err != nil {
			return nil, err
		}
		if cfg.phonemes != "" {
			seq, err := phoneme.ParseSequence(cfg.phonemes)
			if err != nil {
				return nil, err
			}
			for i := range sc.Notes {
				sc.Notes[i].Phonemes = seq
			}
		}
		return sc, nil
	}

	keys, err := parseNotes(cfg.notes)
	if err != nil {
		return nil, err
	}
	var seq []*phoneme.Phoneme
	if cfg.phonemes != "" {
		if seq, err = phoneme.ParseSequence(cfg.phonemes); err != nil {
			return nil, err
		}
	}
	return score.Chord(keys, float32(cfg.velocity), cfg.duration, score.DefaultMethod, seq)
}

func parseNotes(raw string) ([]int, error) {
	var keys []int
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		k, err := strconv.Atoi(f)
		if err != nil || k < 0 || k > 127 {
			return nil, fmt.Errorf("invalid note %q (expected 0..127)", f)
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no notes given")
	}
	return keys, nil
}

func writeStereo(cfg renderConfig, path string, st render.Stereo) error {
	if !math.IsInf(cfg.normalize, -1) {
		target := float32(math.Pow(10, cfg.normalize/20))
		audioio.Normalize(target, st.Left, st.Right)
	}
	return audioio.WriteStereo(path, st.Left, st.Right, cfg.sampleRate, cfg.bitDepth)
}

func orDefault(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
