package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/internal/cli"
	"github.com/cwbudde/algo-choir/internal/score"
	"github.com/cwbudde/algo-choir/observe"
	"github.com/cwbudde/algo-choir/phoneme"
	"github.com/cwbudde/algo-choir/preset"
)

func main() {
	if err := cli.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	presetPath := flag.String("preset", cli.EnvString("CHOIR_PRESET", ""), "Preset JSON/YAML file (optional)")
	midiPath := flag.String("midi", "", "Standard MIDI file to play")
	phonemes := flag.String("phonemes", "HH AH L OW", "Phoneme sequence for the demo phrase")
	method := flag.String("method", "", "Synthesis method override")
	voices := flag.Int("voices", cli.EnvInt("CHOIR_VOICES", 16), "Polyphony")
	sampleRate := flag.Int("sample-rate", cli.EnvInt("CHOIR_SAMPLE_RATE", 48000), "Output sample rate in Hz")
	blockSize := flag.Int("block-size", 256, "Processing block size")
	tail := flag.Duration("tail", time.Second, "Keep playing after the last event")
	metricsAddr := flag.String("metrics-addr", cli.EnvString("CHOIR_METRICS_ADDR", ""), "Serve Prometheus metrics on this address, e.g. :9464")
	debug := flag.Bool("debug", cli.EnvBool("CHOIR_DEBUG", false), "Enable debug logging")
	flag.Parse()

	logger := cli.InitLogger(*debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, *presetPath, *midiPath, *phonemes, *method, *voices, *sampleRate, *blockSize, *tail, *metricsAddr); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, presetPath, midiPath, phonemes, method string, voices, sampleRate, blockSize int, tail time.Duration, metricsAddr string) error {
	conf := preset.NewConfig()
	if presetPath != "" {
		var err error
		if conf, err = preset.Load(presetPath); err != nil {
			return err
		}
	}
	if method != "" {
		kind, err := choir.ParseMethodKind(method)
		if err != nil {
			return err
		}
		conf.Params.Method = kind
	}

	sc, err := loadScore(midiPath, phonemes)
	if err != nil {
		return err
	}
	sc.Assign(conf.PerNote)

	m, err := choir.NewVoiceManager(voices,
		choir.WithLogger(logger),
		choir.WithPresets(conf.Presets),
		choir.WithParams(conf.Params),
		choir.WithSeed(uint64(time.Now().UnixNano())),
	)
	if err != nil {
		return err
	}
	if err := m.Prepare(float32(sampleRate), blockSize); err != nil {
		return err
	}

	if metricsAddr != "" {
		shutdown, err := serveMetrics(metricsAddr, m, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	be, err := newBackend(sampleRate, blockSize, newEngine(m, blockSize))
	if err != nil {
		return fmt.Errorf("%s backend: %w", backendName, err)
	}
	defer be.Close()
	if err := be.Start(); err != nil {
		return err
	}
	logger.Info("playing", "backend", backendName, "notes", len(sc.Notes), "length", sc.Length(), "method", conf.Params.Method.String())

	err = newScheduler(m).run(ctx, sc.Events(sampleRate), sampleRate)
	if err == nil {
		err = sleepContext(ctx, tail)
	}

	m.Post(choir.AllNotesOffEvent())
	time.Sleep(time.Duration(conf.Params.Release * float32(time.Second)))

	st := m.Stats()
	logger.Info("stopped",
		"blocks", st.Blocks,
		"stolen", st.StolenVoices,
		"dropped_events", st.DroppedEvents,
		"synthesis_failures", st.SynthesisFailures,
		"peak_cpu", st.PeakCPU)
	return err
}

func loadScore(midiPath, phonemes string) (*score.Score, error) {
	var seq []*phoneme.Phoneme
	if phonemes != "" {
		var err error
		if seq, err = phoneme.ParseSequence(phonemes); err != nil {
			return nil, err
		}
	}
	if midiPath != "" {
		sc, err := score.ReadMIDIFile(midiPath)
		if err != nil {
			return nil, err
		}
		for i := range sc.Notes {
			sc.Notes[i].Phonemes = seq
		}
		return sc, nil
	}

	// A short demo: a triad swelling in, then a bass entry.
	sc := &score.Score{}
	for i, n := range []score.Note{
		{Key: 57, Velocity: 90, Start: 0, Duration: 3},
		{Key: 60, Velocity: 85, Start: 0.4, Duration: 2.6},
		{Key: 64, Velocity: 80, Start: 0.8, Duration: 2.2},
		{Key: 45, Velocity: 100, Start: 1.5, Duration: 1.5, Method: choir.MethodSubharmonic},
	} {
		if i < 3 {
			n.Method = score.DefaultMethod
		}
		n.Phonemes = seq
		if err := sc.Add(n); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func serveMetrics(addr string, m *choir.VoiceManager, logger *slog.Logger) (func(), error) {
	prov, err := observe.NewPrometheusProvider()
	if err != nil {
		return nil, err
	}
	met, err := observe.NewMetrics(prov.MeterProvider, m)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", prov.Handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = met.Unregister()
		_ = prov.Shutdown(ctx)
	}, nil
}
