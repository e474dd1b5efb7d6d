package choir

import (
	"fmt"
	"sort"
)

// Preset describes a throat-singing style for the subharmonic method.
type Preset struct {
	Name string `json:"name" yaml:"name"`
	// F0 is the preset fundamental in Hz, applied when
	// SubharmonicParams.UsePresetF0 is set. 0 leaves the note pitch alone.
	F0           float32 `json:"f0,omitempty" yaml:"f0,omitempty"`
	Ratio        float32 `json:"ratio" yaml:"ratio"`
	SubAmplitude float32 `json:"sub_amplitude" yaml:"sub_amplitude"`

	MelodyFormant   float32 `json:"melody_formant" yaml:"melody_formant"`
	MelodyBandwidth float32 `json:"melody_bandwidth" yaml:"melody_bandwidth"`
	MelodyAmplitude float32 `json:"melody_amplitude" yaml:"melody_amplitude"`

	VentricularFolds  bool `json:"ventricular_folds,omitempty" yaml:"ventricular_folds,omitempty"`
	ChestVoice        bool `json:"chest_voice,omitempty" yaml:"chest_voice,omitempty"`
	SharpResonance    bool `json:"sharp_resonance,omitempty" yaml:"sharp_resonance,omitempty"`
	FormantModulation bool `json:"formant_modulation,omitempty" yaml:"formant_modulation,omitempty"`

	PulseRate  float32 `json:"pulse_rate,omitempty" yaml:"pulse_rate,omitempty"`
	PulseDepth float32 `json:"pulse_depth,omitempty" yaml:"pulse_depth,omitempty"`
}

// Validate reports the first out-of-range field.
func (p Preset) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("preset name must not be empty")
	case p.Ratio < 1 || p.Ratio > 8:
		return fmt.Errorf("preset %q: ratio must be in [1,8] (got %g)", p.Name, p.Ratio)
	case p.SubAmplitude < 0 || p.SubAmplitude > 1:
		return fmt.Errorf("preset %q: sub_amplitude must be in [0,1] (got %g)", p.Name, p.SubAmplitude)
	case p.MelodyFormant <= 0:
		return fmt.Errorf("preset %q: melody_formant must be > 0 (got %g)", p.Name, p.MelodyFormant)
	case p.MelodyBandwidth <= 0:
		return fmt.Errorf("preset %q: melody_bandwidth must be > 0 (got %g)", p.Name, p.MelodyBandwidth)
	case p.MelodyAmplitude < 0 || p.MelodyAmplitude > 1:
		return fmt.Errorf("preset %q: melody_amplitude must be in [0,1] (got %g)", p.Name, p.MelodyAmplitude)
	case p.PulseRate < 0 || p.PulseRate > 40:
		return fmt.Errorf("preset %q: pulse_rate must be in [0,40] (got %g)", p.Name, p.PulseRate)
	case p.PulseDepth < 0 || p.PulseDepth > 1:
		return fmt.Errorf("preset %q: pulse_depth must be in [0,1] (got %g)", p.Name, p.PulseDepth)
	}
	return nil
}

// PresetTable is a read-only set of presets keyed by name. Build it before
// audio starts; the audio thread only reads it.
type PresetTable map[string]Preset

var builtinPresets = []Preset{
	{Name: "tibetan_sygyt", Ratio: 2, SubAmplitude: 0.4, MelodyFormant: 1800, MelodyBandwidth: 80, MelodyAmplitude: 0.85, SharpResonance: true},
	{Name: "tuva_kargyraa", Ratio: 3, SubAmplitude: 0.7, MelodyFormant: 600, MelodyBandwidth: 150, MelodyAmplitude: 0.5, VentricularFolds: true, ChestVoice: true},
	{Name: "inuit_katajjaq", F0: 147, Ratio: 2, SubAmplitude: 0.5, MelodyFormant: 1200, MelodyBandwidth: 120, MelodyAmplitude: 0.6, FormantModulation: true, PulseRate: 6, PulseDepth: 0.5},
	{Name: "sardinian_cantu_a_tenore", F0: 98, Ratio: 2, SubAmplitude: 0.3, MelodyFormant: 1000, MelodyBandwidth: 100, MelodyAmplitude: 0.7},
	{Name: "subhuman_deep", F0: 82, Ratio: 4, SubAmplitude: 0.8, MelodyFormant: 400, MelodyBandwidth: 200, MelodyAmplitude: 0.4, VentricularFolds: true, ChestVoice: true},
	{Name: "basso_profondo", F0: 65, Ratio: 2, SubAmplitude: 0.6, MelodyFormant: 500, MelodyBandwidth: 150, MelodyAmplitude: 0.5, ChestVoice: true},
}

// DefaultPresets returns a fresh table holding the built-in presets.
func DefaultPresets() PresetTable {
	t := make(PresetTable, len(builtinPresets))
	for _, p := range builtinPresets {
		t[p.Name] = p
	}
	return t
}

// Merge returns a new table with extra layered over t. Every extra preset
// is validated.
func (t PresetTable) Merge(extra ...Preset) (PresetTable, error) {
	out := make(PresetTable, len(t)+len(extra))
	for k, v := range t {
		out[k] = v
	}
	for _, p := range extra {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		out[p.Name] = p
	}
	return out, nil
}

// Lookup returns the preset called name.
func (t PresetTable) Lookup(name string) (Preset, bool) {
	p, ok := t[name]
	return p, ok
}

// Names lists the presets in sorted order.
func (t PresetTable) Names() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
