package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-choir/internal/audioio"
)

func TestParseNotes(t *testing.T) {
	keys, err := parseNotes(" 57, 60,,64 ")
	if err != nil || len(keys) != 3 || keys[2] != 64 {
		t.Fatalf("parseNotes = %v, %v", keys, err)
	}
	for _, bad := range []string{"", "60,x", "128"} {
		if _, err := parseNotes(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRunWritesMixAndStems(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "choir.yaml")
	if err := os.WriteFile(presetPath, []byte("method: diphone\nper_note:\n  \"60\":\n    phonemes: M AA\n"), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	cfg := renderConfig{
		presetPath: presetPath,
		notes:      "55,60",
		phonemes:   "",
		velocity:   100,
		duration:   0.2,
		tail:       0.1,
		voices:     4,
		sampleRate: 16000,
		blockSize:  128,
		bitDepth:   16,
		seed:       1,
		normalize:  -1,
		output:     filepath.Join(dir, "mix.wav"),
		stemsDir:   filepath.Join(dir, "stems"),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(context.Background(), cfg, logger); err != nil {
		t.Fatalf("run: %v", err)
	}

	mix, sr, err := audioio.ReadWAVMono(cfg.output)
	if err != nil {
		t.Fatalf("read mix: %v", err)
	}
	if sr != 16000 || len(mix) != int(0.3*16000) {
		t.Fatalf("unexpected mix format: sr=%d frames=%d", sr, len(mix))
	}
	var peak float64
	for _, v := range mix {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak < 0.5 || peak > 1 {
		t.Fatalf("normalized peak out of range: %f", peak)
	}
	for _, name := range []string{"formant", "diphone", "subharmonic"} {
		if _, err := os.Stat(filepath.Join(cfg.stemsDir, name+".wav")); err != nil {
			t.Fatalf("stem %s missing: %v", name, err)
		}
	}
}

func TestRunRejectsBadPhonemes(t *testing.T) {
	cfg := renderConfig{notes: "60", phonemes: "AA ZZZ", velocity: 100, duration: 0.1, voices: 2, sampleRate: 16000, blockSize: 64, bitDepth: 16,
		output: filepath.Join(t.TempDir(), "x.wav")}
	if err := run(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatalf("expected unknown phoneme error")
	}
}
