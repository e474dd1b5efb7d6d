package choir

import (
	"sort"
	"testing"
)

func TestBuiltinPresets(t *testing.T) {
	table := DefaultPresets()
	want := []string{
		"basso_profondo", "inuit_katajjaq", "sardinian_cantu_a_tenore",
		"subhuman_deep", "tibetan_sygyt", "tuva_kargyraa",
	}
	names := table.Names()
	if len(names) != len(want) || !sort.StringsAreSorted(names) {
		t.Fatalf("unexpected preset names %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("preset %d = %q, want %q", i, names[i], want[i])
		}
		if err := table[names[i]].Validate(); err != nil {
			t.Fatalf("%s: %v", names[i], err)
		}
	}
	if p, _ := table.Lookup("tuva_kargyraa"); p.Ratio != 3 || !p.VentricularFolds {
		t.Fatalf("kargyraa should be ratio 3 with ventricular folds, got %+v", p)
	}
}

func TestPresetTableMerge(t *testing.T) {
	base := DefaultPresets()
	custom := Preset{Name: "octavist", Ratio: 2, SubAmplitude: 0.9, MelodyFormant: 300, MelodyBandwidth: 120, MelodyAmplitude: 0.3}
	merged, err := base.Merge(custom)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, ok := merged.Lookup("octavist"); !ok {
		t.Fatalf("custom preset missing after merge")
	}
	if _, ok := base.Lookup("octavist"); ok {
		t.Fatalf("merge must not modify the receiver")
	}

	bad := custom
	bad.Ratio = 0.5
	if _, err := base.Merge(bad); err == nil {
		t.Fatalf("invalid preset accepted")
	}
}
