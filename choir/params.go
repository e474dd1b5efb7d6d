package choir

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-choir/dsp"
)

// MethodKind selects the synthesis method of a voice.
type MethodKind int

const (
	MethodFormant MethodKind = iota
	MethodDiphone
	MethodSubharmonic

	numMethods
)

func (k MethodKind) String() string {
	switch k {
	case MethodFormant:
		return "formant"
	case MethodDiphone:
		return "diphone"
	case MethodSubharmonic:
		return "subharmonic"
	default:
		return "unknown"
	}
}

// Valid reports whether k names one of the methods.
func (k MethodKind) Valid() bool { return k >= 0 && k < numMethods }

// ParseMethodKind maps a method name to its kind.
func ParseMethodKind(s string) (MethodKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "formant", "":
		return MethodFormant, nil
	case "diphone":
		return MethodDiphone, nil
	case "subharmonic", "throat":
		return MethodSubharmonic, nil
	}
	return 0, invalidArgf("unknown method %q", s)
}

// ParseGlottalModel maps a glottal model name to its value.
func ParseGlottalModel(s string) (dsp.GlottalModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rosenberg", "":
		return dsp.Rosenberg, nil
	case "lf":
		return dsp.LF, nil
	case "differentiated":
		return dsp.Differentiated, nil
	}
	return 0, invalidArgf("unknown glottal model %q", s)
}

// Params holds every engine control parameter.
type Params struct {
	MasterGain   float32 // 0..2
	Attack       float32 // seconds, 0.001..1
	Release      float32 // seconds, 0.001..2
	VibratoRate  float32 // Hz, 0..20
	VibratoDepth float32 // semitones, 0..1

	// SmoothingTime is the time constant of the global parameter smoothers.
	SmoothingTime float32
	// PanSpread maps note number to pan position; 0 keeps every voice centered.
	PanSpread float32

	// Method is used by NoteOn; NoteOnWith picks its own.
	Method MethodKind

	Formant     FormantParams
	Diphone     DiphoneParams
	Subharmonic SubharmonicParams
}

// FormantParams configures the formant method's excitation.
type FormantParams struct {
	Glottal dsp.GlottalModel
	// PulseMix is the glottal share of voiced fricatives and breathy blends.
	PulseMix float32
	// Breathiness adds aspiration noise to voiced segments.
	Breathiness float32
	// FormantSmoothing is the formant glide time constant in seconds.
	FormantSmoothing float32
	OutputGain       float32
}

// DiphoneParams configures phoneme-to-phoneme transitions.
type DiphoneParams struct {
	Duration       float32 // seconds, 0.01..1
	Curve          float32 // 0.1..3
	ConsonantRatio float32 // crossover point of CV transitions
	VowelRatio     float32 // crossover point of VC transitions
	Coarticulation bool
}

// SubharmonicParams configures the subharmonic method.
type SubharmonicParams struct {
	Preset string
	// Ratio and Mix override the preset when > 0.
	Ratio      float32
	Mix        float32
	Brightness float32 // high-shelf boost in dB, 0 disables the stage
	// UsePresetF0 replaces the note pitch with the preset's F0 when it has one.
	UsePresetF0 bool
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		MasterGain:    1.0,
		Attack:        0.05,
		Release:       0.3,
		VibratoRate:   5.0,
		VibratoDepth:  0.0,
		SmoothingTime: 0.02,
		PanSpread:     0.0,
		Method:        MethodFormant,
		Formant: FormantParams{
			Glottal:          dsp.Rosenberg,
			PulseMix:         0.6,
			Breathiness:      0.05,
			FormantSmoothing: 0.03,
			OutputGain:       0.25,
		},
		Diphone: DiphoneParams{
			Duration:       0.15,
			Curve:          1.0,
			ConsonantRatio: 0.3,
			VowelRatio:     0.7,
			Coarticulation: true,
		},
		Subharmonic: SubharmonicParams{
			Preset: "tibetan_sygyt",
			Mix:    0.5,
		},
	}
}

// Clamp limits every field to its documented range.
func (p *Params) Clamp() {
	p.MasterGain = dsp.Clamp(p.MasterGain, 0, 2)
	p.Attack = dsp.Clamp(p.Attack, 0.001, 1)
	p.Release = dsp.Clamp(p.Release, 0.001, 2)
	p.VibratoRate = dsp.Clamp(p.VibratoRate, 0, 20)
	p.VibratoDepth = dsp.Clamp(p.VibratoDepth, 0, 1)
	p.SmoothingTime = dsp.Clamp(p.SmoothingTime, 0, 1)
	p.PanSpread = dsp.Clamp(p.PanSpread, 0, 1)
	if !p.Method.Valid() {
		p.Method = MethodFormant
	}

	p.Formant.PulseMix = dsp.Clamp(p.Formant.PulseMix, 0, 1)
	p.Formant.Breathiness = dsp.Clamp(p.Formant.Breathiness, 0, 1)
	p.Formant.FormantSmoothing = dsp.Clamp(p.Formant.FormantSmoothing, 0, 1)
	p.Formant.OutputGain = dsp.Clamp(p.Formant.OutputGain, 0, 4)

	p.Diphone.Duration = dsp.Clamp(p.Diphone.Duration, 0.01, 1)
	p.Diphone.Curve = dsp.Clamp(p.Diphone.Curve, 0.1, 3)
	p.Diphone.ConsonantRatio = dsp.Clamp(p.Diphone.ConsonantRatio, 0.05, 0.95)
	p.Diphone.VowelRatio = dsp.Clamp(p.Diphone.VowelRatio, 0.05, 0.95)

	if p.Subharmonic.Ratio > 0 {
		p.Subharmonic.Ratio = dsp.Clamp(p.Subharmonic.Ratio, 1, 8)
	}
	p.Subharmonic.Mix = dsp.Clamp(p.Subharmonic.Mix, 0, 1)
	p.Subharmonic.Brightness = dsp.Clamp(p.Subharmonic.Brightness, 0, 18)
}

// Validate reports the first out-of-range field.
func (p *Params) Validate() error {
	check := func(name string, v, lo, hi float32) error {
		if !isFinite(v) || v < lo || v > hi {
			return invalidArgf("%s must be in [%g,%g] (got %g)", name, lo, hi, v)
		}
		return nil
	}
	for _, c := range []struct {
		name      string
		v, lo, hi float32
	}{
		{"master gain", p.MasterGain, 0, 2},
		{"attack", p.Attack, 0.001, 1},
		{"release", p.Release, 0.001, 2},
		{"vibrato rate", p.VibratoRate, 0, 20},
		{"vibrato depth", p.VibratoDepth, 0, 1},
		{"smoothing time", p.SmoothingTime, 0, 1},
		{"pan spread", p.PanSpread, 0, 1},
		{"pulse mix", p.Formant.PulseMix, 0, 1},
		{"breathiness", p.Formant.Breathiness, 0, 1},
		{"transition duration", p.Diphone.Duration, 0.01, 1},
		{"crossfade curve", p.Diphone.Curve, 0.1, 3},
		{"subharmonic mix", p.Subharmonic.Mix, 0, 1},
	} {
		if err := check(c.name, c.v, c.lo, c.hi); err != nil {
			return err
		}
	}
	if p.Subharmonic.Ratio != 0 {
		if err := check("subharmonic ratio", p.Subharmonic.Ratio, 1, 8); err != nil {
			return err
		}
	}
	if !p.Method.Valid() {
		return invalidArgf("method %d is not defined", int(p.Method))
	}
	return nil
}

func (p *Params) String() string {
	return fmt.Sprintf("gain=%.2f attack=%.3fs release=%.3fs vibrato=%.1fHz/%.2fst method=%s preset=%s",
		p.MasterGain, p.Attack, p.Release, p.VibratoRate, p.VibratoDepth, p.Method, p.Subharmonic.Preset)
}
