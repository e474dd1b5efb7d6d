package preset

import (
	"strings"
	"testing"

	"github.com/cwbudde/algo-choir/choir"
)

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "choir.yaml", `
master_gain: 1.2
release: 0.8
pan_spread: 0.5
method: subharmonic
subharmonic_preset: inuit_katajjaq
subharmonic_mix: 0.7
brightness: 6
per_note:
  "55":
    phonemes: M AA
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := c.Params
	if p.MasterGain != 1.2 || p.Release != 0.8 || p.PanSpread != 0.5 {
		t.Fatalf("global fields mismatch: %+v", p)
	}
	if p.Method != choir.MethodSubharmonic || p.Subharmonic.Preset != "inuit_katajjaq" || p.Subharmonic.Mix != 0.7 {
		t.Fatalf("subharmonic fields mismatch: %+v", p.Subharmonic)
	}
	if a := c.PerNote[55]; len(a.Phonemes) != 2 || a.Phonemes[0].Symbol != "M" {
		t.Fatalf("per-note mismatch: %+v", a)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("loaded params invalid: %v", err)
	}
}

func TestLoadYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := LoadYAMLFromReader(strings.NewReader("master_gian: 1\n"))
	if err == nil || !strings.Contains(err.Error(), "master_gian") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadYAMLEmptyDocumentKeepsDefaults(t *testing.T) {
	c, err := LoadYAMLFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty document: %v", err)
	}
	if *c.Params != *choir.NewDefaultParams() {
		t.Fatalf("empty document changed defaults")
	}
}
