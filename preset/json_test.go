package preset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/dsp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesGlobalAndPerNote(t *testing.T) {
	path := writeFile(t, "preset.json", `{
  "master_gain": 0.8,
  "attack": 0.02,
  "vibrato_depth": 0.3,
  "method": "diphone",
  "glottal_model": "lf",
  "crossfade_curve": 1.5,
  "coarticulation": false,
  "subharmonic_preset": "tuva_kargyraa",
  "per_note": {
    "60": {"phonemes": "HH AH L OW"},
    "48": {"method": "subharmonic", "phonemes": "AA"}
  }
}`)

	c, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	p := c.Params
	if p.MasterGain != 0.8 || p.Attack != 0.02 || p.VibratoDepth != 0.3 {
		t.Fatalf("global fields mismatch: %+v", p)
	}
	if p.Method != choir.MethodDiphone || p.Formant.Glottal != dsp.LF {
		t.Fatalf("method/glottal mismatch: %s %s", p.Method, p.Formant.Glottal)
	}
	if p.Diphone.Curve != 1.5 || p.Diphone.Coarticulation {
		t.Fatalf("diphone fields mismatch: %+v", p.Diphone)
	}
	if p.Subharmonic.Preset != "tuva_kargyraa" {
		t.Fatalf("preset mismatch: %q", p.Subharmonic.Preset)
	}
	if p.Release != choir.NewDefaultParams().Release {
		t.Fatalf("absent field should keep its default")
	}

	n60, ok := c.PerNote[60]
	if !ok || len(n60.Phonemes) != 4 || n60.Method != choir.MethodDiphone {
		t.Fatalf("note 60 assignment mismatch: %+v", n60)
	}
	if n48 := c.PerNote[48]; n48.Method != choir.MethodSubharmonic || n48.Phonemes[0].Symbol != "AA" {
		t.Fatalf("note 48 assignment mismatch: %+v", n48)
	}
}

func TestLoadJSONRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name, content, want string
	}{
		{"range", `{"master_gain": 3}`, "master_gain"},
		{"note key", `{"per_note": {"x": {"phonemes": "AA"}}}`, "per_note key"},
		{"phoneme", `{"per_note": {"60": {"phonemes": "AA QQ"}}}`, "unknown phoneme"},
		{"method", `{"method": "granular"}`, "unknown method"},
		{"preset", `{"subharmonic_preset": "nope"}`, "not defined"},
	}
	for _, tc := range tests {
		path := writeFile(t, "preset.json", tc.content)
		_, err := LoadJSON(path)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCustomPresetCanBeSelected(t *testing.T) {
	path := writeFile(t, "preset.json", `{
  "presets": [{"name": "octavist", "ratio": 2, "sub_amplitude": 0.9,
    "melody_formant": 300, "melody_bandwidth": 120, "melody_amplitude": 0.3}],
  "subharmonic_preset": "octavist",
  "use_preset_f0": true
}`)
	c, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if _, ok := c.Presets.Lookup("octavist"); !ok || c.Params.Subharmonic.Preset != "octavist" {
		t.Fatalf("custom preset not registered")
	}
	if !c.Params.Subharmonic.UsePresetF0 {
		t.Fatalf("use_preset_f0 not applied")
	}
	if _, ok := c.Presets.Lookup("tibetan_sygyt"); !ok {
		t.Fatalf("built-in presets lost")
	}
}
