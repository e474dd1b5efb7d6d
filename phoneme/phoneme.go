// Package phoneme defines the formant targets the synthesis methods consume
// and a built-in ARPAbet-style table of vowels and consonants.
package phoneme

import (
	"errors"
	"fmt"
	"strings"
)

// Bands is the number of formant bands in a Target.
const Bands = 5

// ErrUnknown is returned when a symbol is not in the table.
var ErrUnknown = errors.New("unknown phoneme")

// Category groups phonemes by how they are excited.
type Category int

const (
	Vowel Category = iota
	Nasal
	Approximant
	Fricative
	Plosive
	Aspirate
	Silence
)

func (c Category) String() string {
	switch c {
	case Vowel:
		return "vowel"
	case Nasal:
		return "nasal"
	case Approximant:
		return "approximant"
	case Fricative:
		return "fricative"
	case Plosive:
		return "plosive"
	case Aspirate:
		return "aspirate"
	case Silence:
		return "silence"
	default:
		return "unknown"
	}
}

// Sonorant reports whether the category carries a steady formant structure.
func (c Category) Sonorant() bool {
	return c == Vowel || c == Nasal || c == Approximant
}

// Target is a set of formant center frequencies and bandwidths in Hz.
// Values handed to the engine are treated as immutable.
type Target struct {
	Freqs      [Bands]float32
	Bandwidths [Bands]float32
}

// Validate checks that every band has a positive frequency and bandwidth.
func (t Target) Validate() error {
	for i := 0; i < Bands; i++ {
		if !(t.Freqs[i] > 0) {
			return fmt.Errorf("formant F%d must be > 0 (got %g)", i+1, t.Freqs[i])
		}
		if !(t.Bandwidths[i] > 0) {
			return fmt.Errorf("bandwidth B%d must be > 0 (got %g)", i+1, t.Bandwidths[i])
		}
	}
	return nil
}

// Lerp interpolates from a to b; x=0 yields a and x=1 yields b.
func Lerp(a, b Target, x float32) Target {
	var out Target
	for i := 0; i < Bands; i++ {
		out.Freqs[i] = a.Freqs[i] + (b.Freqs[i]-a.Freqs[i])*x
		out.Bandwidths[i] = a.Bandwidths[i] + (b.Bandwidths[i]-a.Bandwidths[i])*x
	}
	return out
}

// SubharmonicParams overrides the subharmonic method for a single phoneme.
type SubharmonicParams struct {
	Ratio float32
	Mix   float32
}

// Phoneme is one entry of the table.
type Phoneme struct {
	Symbol   string
	IPA      string
	Category Category
	Voiced   bool
	Target   Target

	// Sub is optional; nil leaves the subharmonic settings untouched.
	Sub *SubharmonicParams
}

func (p *Phoneme) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.Symbol
}

// Validate checks the target and the optional subharmonic override.
func (p *Phoneme) Validate() error {
	if p == nil {
		return errors.New("phoneme is nil")
	}
	if err := p.Target.Validate(); err != nil {
		return fmt.Errorf("phoneme %q: %w", p.Symbol, err)
	}
	if p.Sub != nil {
		if p.Sub.Ratio < 1 {
			return fmt.Errorf("phoneme %q: subharmonic ratio must be >= 1 (got %g)", p.Symbol, p.Sub.Ratio)
		}
		if p.Sub.Mix < 0 || p.Sub.Mix > 1 {
			return fmt.Errorf("phoneme %q: subharmonic mix must be in [0,1] (got %g)", p.Symbol, p.Sub.Mix)
		}
	}
	return nil
}

// Lookup returns the table entry for symbol. Matching is case-insensitive.
func Lookup(symbol string) (*Phoneme, bool) {
	p, ok := table[strings.ToUpper(strings.TrimSpace(symbol))]
	return p, ok
}

// MustLookup is Lookup for symbols known at compile time.
func MustLookup(symbol string) *Phoneme {
	p, ok := Lookup(symbol)
	if !ok {
		panic(fmt.Sprintf("phoneme: %q not in table", symbol))
	}
	return p
}

// Default returns the neutral vowel used when a note carries no phoneme.
func Default() *Phoneme { return table["AX"] }

// ParseSequence splits a whitespace or hyphen separated list of symbols.
func ParseSequence(s string) ([]*Phoneme, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '-' || r == ','
	})
	out := make([]*Phoneme, 0, len(fields))
	for _, f := range fields {
		p, ok := Lookup(f)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknown, f)
		}
		out = append(out, p)
	}
	return out, nil
}

// Symbols lists the table in declaration order.
func Symbols() []string {
	out := make([]string, len(entries))
	for i := range entries {
		out[i] = entries[i].Symbol
	}
	return out
}
