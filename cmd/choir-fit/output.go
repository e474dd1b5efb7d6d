package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cwbudde/algo-choir/analysis"
	"github.com/cwbudde/algo-choir/phoneme"
)

type fitReport struct {
	Reference     string     `json:"reference"`
	SampleRate    int        `json:"sample_rate"`
	EstimatedF0   float64    `json:"estimated_f0"`
	Note          int        `json:"note"`
	InitialSymbol string     `json:"initial_symbol"`
	Formants      [5]float32 `json:"formants"`
	Bandwidths    [5]float32 `json:"bandwidths"`
	InitialDB     float64    `json:"initial_distance_db"`
	DistanceDB    float64    `json:"distance_db"`
	Evals         int        `json:"evals"`
	ElapsedSec    float64    `json:"elapsed_sec"`

	Comparison analysis.Metrics `json:"comparison"`
}

func newReport(refPath string, cfg fitConfig, initial *phoneme.Phoneme, res fitResult, elapsed time.Duration) fitReport {
	return fitReport{
		Reference:     refPath,
		SampleRate:    cfg.sampleRate,
		EstimatedF0:   cfg.f0,
		Note:          cfg.note,
		InitialSymbol: initial.Symbol,
		Formants:      res.Target.Freqs,
		Bandwidths:    res.Target.Bandwidths,
		InitialDB:     res.Initial,
		DistanceDB:    res.Distance,
		Evals:         res.Evals,
		ElapsedSec:    elapsed.Seconds(),
	}
}

func writeReport(path string, r fitReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
