// Package score turns note lists and standard MIDI files into
// sample-stamped engine events.
package score

import (
	"fmt"
	"sort"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/phoneme"
	"github.com/cwbudde/algo-choir/preset"
)

// DefaultMethod marks a note that uses the engine's configured method.
const DefaultMethod choir.MethodKind = -1

// Note is one sung note. Phonemes are spread evenly over the duration; an
// empty list sings the neutral vowel.
type Note struct {
	Key      int
	Velocity float32
	Start    float64
	Duration float64
	Method   choir.MethodKind
	Phonemes []*phoneme.Phoneme
}

// Score is an unordered collection of notes.
type Score struct {
	Notes []Note
}

// TimedEvent is an engine event stamped with its frame offset.
type TimedEvent struct {
	Frame int
	Event choir.Event
}

// Add appends a note after validating it.
func (s *Score) Add(n Note) error {
	if n.Key < 0 || n.Key > 127 {
		return fmt.Errorf("note key must be in [0,127] (got %d)", n.Key)
	}
	if n.Velocity <= 0 || n.Velocity > 127 {
		return fmt.Errorf("note velocity must be in (0,127] (got %g)", n.Velocity)
	}
	if n.Start < 0 || n.Duration <= 0 {
		return fmt.Errorf("note %d: start must be >= 0 and duration > 0", n.Key)
	}
	s.Notes = append(s.Notes, n)
	return nil
}

// Chord builds a score of keys starting together.
func Chord(keys []int, velocity float32, duration float64, method choir.MethodKind, phonemes []*phoneme.Phoneme) (*Score, error) {
	s := &Score{}
	for _, k := range keys {
		if err := s.Add(Note{Key: k, Velocity: velocity, Duration: duration, Method: method, Phonemes: phonemes}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Length returns the end time of the last note in seconds.
func (s *Score) Length() float64 {
	var end float64
	for _, n := range s.Notes {
		end = max(end, n.Start+n.Duration)
	}
	return end
}

// Assign fills method and phonemes from per-note preset settings for notes
// that do not set them explicitly.
func (s *Score) Assign(perNote map[int]preset.NoteAssignment) {
	for i := range s.Notes {
		n := &s.Notes[i]
		a, ok := perNote[n.Key]
		if !ok {
			continue
		}
		if n.Method == DefaultMethod {
			n.Method = a.Method
		}
		if len(n.Phonemes) == 0 {
			n.Phonemes = a.Phonemes
		}
	}
}

// WithMethod returns a copy of s in which every note uses kind.
func (s *Score) WithMethod(kind choir.MethodKind) *Score {
	out := &Score{Notes: make([]Note, len(s.Notes))}
	copy(out.Notes, s.Notes)
	for i := range out.Notes {
		out.Notes[i].Method = kind
	}
	return out
}

func eventRank(k choir.EventKind) int {
	switch k {
	case choir.EventNoteOff:
		return 0
	case choir.EventNoteOn:
		return 1
	default:
		return 2
	}
}

// Events converts the score into frame-stamped events sorted by frame.
// Within a frame note-offs come first so a retriggered key is released
// before it starts again.
func (s *Score) Events(sampleRate int) []TimedEvent {
	fs := float64(sampleRate)
	var out []TimedEvent
	for _, n := range s.Notes {
		start := int(n.Start * fs)
		end := int((n.Start + n.Duration) * fs)
		if end <= start {
			end = start + 1
		}

		var first *phoneme.Phoneme
		if len(n.Phonemes) > 0 {
			first = n.Phonemes[0]
		}
		out = append(out, TimedEvent{start, choir.NoteOnWithEvent(n.Key, n.Velocity, n.Method, first)})
		for i := 1; i < len(n.Phonemes); i++ {
			at := start + (end-start)*i/len(n.Phonemes)
			out = append(out, TimedEvent{at, choir.PhonemeEvent(n.Key, n.Phonemes[i])})
		}
		out = append(out, TimedEvent{end, choir.NoteOffEvent(n.Key, 0)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frame != out[j].Frame {
			return out[i].Frame < out[j].Frame
		}
		return eventRank(out[i].Event.Kind) < eventRank(out[j].Event.Kind)
	})
	return out
}
