// Package preset loads engine parameters, custom subharmonic presets and
// per-note phoneme assignments from JSON or YAML files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/phoneme"
)

// File is the on-disk schema. Every field is optional and overrides the
// defaults only when present.
type File struct {
	MasterGain    *float32 `json:"master_gain" yaml:"master_gain"`
	Attack        *float32 `json:"attack" yaml:"attack"`
	Release       *float32 `json:"release" yaml:"release"`
	VibratoRate   *float32 `json:"vibrato_rate" yaml:"vibrato_rate"`
	VibratoDepth  *float32 `json:"vibrato_depth" yaml:"vibrato_depth"`
	SmoothingTime *float32 `json:"smoothing_time" yaml:"smoothing_time"`
	PanSpread     *float32 `json:"pan_spread" yaml:"pan_spread"`
	Method        string   `json:"method" yaml:"method"`

	GlottalModel     string   `json:"glottal_model" yaml:"glottal_model"`
	PulseMix         *float32 `json:"pulse_mix" yaml:"pulse_mix"`
	Breathiness      *float32 `json:"breathiness" yaml:"breathiness"`
	FormantSmoothing *float32 `json:"formant_smoothing" yaml:"formant_smoothing"`
	OutputGain       *float32 `json:"output_gain" yaml:"output_gain"`

	TransitionDuration *float32 `json:"transition_duration" yaml:"transition_duration"`
	CrossfadeCurve     *float32 `json:"crossfade_curve" yaml:"crossfade_curve"`
	ConsonantRatio     *float32 `json:"consonant_ratio" yaml:"consonant_ratio"`
	VowelRatio         *float32 `json:"vowel_ratio" yaml:"vowel_ratio"`
	Coarticulation     *bool    `json:"coarticulation" yaml:"coarticulation"`

	SubharmonicPreset string   `json:"subharmonic_preset" yaml:"subharmonic_preset"`
	SubharmonicRatio  *float32 `json:"subharmonic_ratio" yaml:"subharmonic_ratio"`
	SubharmonicMix    *float32 `json:"subharmonic_mix" yaml:"subharmonic_mix"`
	Brightness        *float32 `json:"brightness" yaml:"brightness"`
	UsePresetF0       *bool    `json:"use_preset_f0" yaml:"use_preset_f0"`

	Presets []choir.Preset         `json:"presets" yaml:"presets"`
	PerNote map[string]NoteSetting `json:"per_note" yaml:"per_note"`
}

// NoteSetting assigns a method and phoneme sequence to one note.
type NoteSetting struct {
	Method   string `json:"method" yaml:"method"`
	Phonemes string `json:"phonemes" yaml:"phonemes"`
}

// NoteAssignment is a resolved NoteSetting.
type NoteAssignment struct {
	Method   choir.MethodKind
	Phonemes []*phoneme.Phoneme
}

// Config is the result of loading a preset file.
type Config struct {
	Params  *choir.Params
	Presets choir.PresetTable
	PerNote map[int]NoteAssignment
}

// NewConfig returns the defaults a file is applied on.
func NewConfig() *Config {
	return &Config{
		Params:  choir.NewDefaultParams(),
		Presets: choir.DefaultPresets(),
		PerNote: make(map[int]NoteAssignment),
	}
}

// Load dispatches on the file extension: .yaml and .yml are YAML, anything
// else is JSON.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return LoadJSON(path)
	}
}

// LoadJSON loads a preset JSON file and applies it on top of the defaults.
func LoadJSON(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}

	c := NewConfig()
	if err := ApplyFile(c, &f); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}
	return c, nil
}

type rangeCheck struct {
	name   string
	src    *float32
	dst    *float32
	lo, hi float32
}

// ApplyFile applies a parsed preset file onto an existing config.
func ApplyFile(dst *Config, f *File) error {
	if dst == nil || dst.Params == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}
	p := dst.Params

	for _, c := range []rangeCheck{
		{"master_gain", f.MasterGain, &p.MasterGain, 0, 2},
		{"attack", f.Attack, &p.Attack, 0.001, 1},
		{"release", f.Release, &p.Release, 0.001, 2},
		{"vibrato_rate", f.VibratoRate, &p.VibratoRate, 0, 20},
		{"vibrato_depth", f.VibratoDepth, &p.VibratoDepth, 0, 1},
		{"smoothing_time", f.SmoothingTime, &p.SmoothingTime, 0, 1},
		{"pan_spread", f.PanSpread, &p.PanSpread, 0, 1},
		{"pulse_mix", f.PulseMix, &p.Formant.PulseMix, 0, 1},
		{"breathiness", f.Breathiness, &p.Formant.Breathiness, 0, 1},
		{"formant_smoothing", f.FormantSmoothing, &p.Formant.FormantSmoothing, 0, 1},
		{"output_gain", f.OutputGain, &p.Formant.OutputGain, 0, 4},
		{"transition_duration", f.TransitionDuration, &p.Diphone.Duration, 0.01, 1},
		{"crossfade_curve", f.CrossfadeCurve, &p.Diphone.Curve, 0.1, 3},
		{"consonant_ratio", f.ConsonantRatio, &p.Diphone.ConsonantRatio, 0.05, 0.95},
		{"vowel_ratio", f.VowelRatio, &p.Diphone.VowelRatio, 0.05, 0.95},
		{"subharmonic_ratio", f.SubharmonicRatio, &p.Subharmonic.Ratio, 1, 8},
		{"subharmonic_mix", f.SubharmonicMix, &p.Subharmonic.Mix, 0, 1},
		{"brightness", f.Brightness, &p.Subharmonic.Brightness, 0, 18},
	} {
		if c.src == nil {
			continue
		}
		if *c.src < c.lo || *c.src > c.hi {
			return fmt.Errorf("%s must be in [%g,%g]", c.name, c.lo, c.hi)
		}
		*c.dst = *c.src
	}

	if f.Method != "" {
		k, err := choir.ParseMethodKind(f.Method)
		if err != nil {
			return err
		}
		p.Method = k
	}
	if f.GlottalModel != "" {
		g, err := choir.ParseGlottalModel(f.GlottalModel)
		if err != nil {
			return err
		}
		p.Formant.Glottal = g
	}
	if f.Coarticulation != nil {
		p.Diphone.Coarticulation = *f.Coarticulation
	}
	if f.UsePresetF0 != nil {
		p.Subharmonic.UsePresetF0 = *f.UsePresetF0
	}

	if len(f.Presets) > 0 {
		merged, err := dst.Presets.Merge(f.Presets...)
		if err != nil {
			return err
		}
		dst.Presets = merged
	}
	if f.SubharmonicPreset != "" {
		name := strings.TrimSpace(f.SubharmonicPreset)
		if _, ok := dst.Presets.Lookup(name); !ok {
			return fmt.Errorf("subharmonic_preset %q is not defined (have %s)", name, strings.Join(dst.Presets.Names(), ", "))
		}
		p.Subharmonic.Preset = name
	}

	return applyPerNote(dst, f.PerNote)
}

func applyPerNote(dst *Config, perNote map[string]NoteSetting) error {
	if len(perNote) == 0 {
		return nil
	}
	if dst.PerNote == nil {
		dst.PerNote = make(map[int]NoteAssignment)
	}

	keys := make([]string, 0, len(perNote))
	for k := range perNote {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		note, err := strconv.Atoi(k)
		if err != nil || note < 0 || note > 127 {
			return fmt.Errorf("invalid per_note key %q (expected 0..127)", k)
		}
		s := perNote[k]
		a := NoteAssignment{Method: dst.Params.Method}
		if s.Method != "" {
			if a.Method, err = choir.ParseMethodKind(s.Method); err != nil {
				return fmt.Errorf("per_note[%d]: %w", note, err)
			}
		}
		if a.Phonemes, err = phoneme.ParseSequence(s.Phonemes); err != nil {
			return fmt.Errorf("per_note[%d]: %w", note, err)
		}
		dst.PerNote[note] = a
	}
	return nil
}
