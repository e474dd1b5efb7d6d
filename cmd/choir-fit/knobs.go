package main

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-choir/phoneme"
)

type knobDef struct {
	name   string
	lo, hi float64
	log    bool
}

// Five centre frequencies followed by five bandwidths.
var knobDefs = []knobDef{
	{"f1", 200, 1100, true},
	{"f2", 550, 3000, true},
	{"f3", 1400, 3800, true},
	{"f4", 2600, 4600, true},
	{"f5", 3400, 5600, true},
	{"b1", 40, 400, true},
	{"b2", 40, 400, true},
	{"b3", 60, 500, true},
	{"b4", 60, 600, true},
	{"b5", 80, 800, true},
}

func (d knobDef) fromUnit(u float64) float64 {
	u = clamp(u, 0, 1)
	if d.log {
		return math.Exp(math.Log(d.lo) + u*(math.Log(d.hi)-math.Log(d.lo)))
	}
	return d.lo + u*(d.hi-d.lo)
}

func (d knobDef) toUnit(v float64) float64 {
	v = clamp(v, d.lo, d.hi)
	if d.log {
		return (math.Log(v) - math.Log(d.lo)) / (math.Log(d.hi) - math.Log(d.lo))
	}
	return (v - d.lo) / (d.hi - d.lo)
}

// targetFromUnit maps a normalized position to a formant target. The
// frequencies are sorted so the bands stay ascending.
func targetFromUnit(pos []float64) phoneme.Target {
	var t phoneme.Target
	freqs := make([]float64, phoneme.Bands)
	for b := 0; b < phoneme.Bands; b++ {
		freqs[b] = knobDefs[b].fromUnit(pos[b])
		t.Bandwidths[b] = float32(knobDefs[phoneme.Bands+b].fromUnit(pos[phoneme.Bands+b]))
	}
	sort.Float64s(freqs)
	for b, f := range freqs {
		t.Freqs[b] = float32(f)
	}
	return t
}

func unitFromTarget(t phoneme.Target) []float64 {
	pos := make([]float64, len(knobDefs))
	for b := 0; b < phoneme.Bands; b++ {
		pos[b] = knobDefs[b].toUnit(float64(t.Freqs[b]))
		pos[phoneme.Bands+b] = knobDefs[phoneme.Bands+b].toUnit(float64(t.Bandwidths[b]))
	}
	return pos
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
