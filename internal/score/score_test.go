package score

import (
	"math"
	"path/filepath"
	"sort"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/phoneme"
	"github.com/cwbudde/algo-choir/preset"
)

func TestAddValidates(t *testing.T) {
	var s Score
	bad := []Note{
		{Key: -1, Velocity: 100, Duration: 1},
		{Key: 128, Velocity: 100, Duration: 1},
		{Key: 60, Velocity: 0, Duration: 1},
		{Key: 60, Velocity: 100, Duration: 0},
		{Key: 60, Velocity: 100, Start: -1, Duration: 1},
	}
	for _, n := range bad {
		if err := s.Add(n); err == nil {
			t.Fatalf("expected error for %+v", n)
		}
	}
	if len(s.Notes) != 0 {
		t.Fatalf("invalid notes were added")
	}
}

func TestEventsOrderAndPhonemeSpread(t *testing.T) {
	seq, err := phoneme.ParseSequence("HH AH L OW")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	var s Score
	mustAdd(t, &s, Note{Key: 60, Velocity: 100, Start: 0, Duration: 1, Method: choir.MethodDiphone, Phonemes: seq})
	mustAdd(t, &s, Note{Key: 60, Velocity: 90, Start: 1, Duration: 0.5, Method: DefaultMethod})

	evs := s.Events(1000)
	if len(evs) != 7 {
		t.Fatalf("expected 7 events, got %d", len(evs))
	}
	if !sort.SliceIsSorted(evs, func(i, j int) bool { return evs[i].Frame < evs[j].Frame }) {
		t.Fatalf("events not sorted by frame")
	}
	first := evs[0].Event
	if first.Kind != choir.EventNoteOn || first.Phoneme.Symbol != "HH" || first.Method != choir.MethodDiphone {
		t.Fatalf("unexpected first event %+v", first)
	}
	wantFrames := []int{0, 250, 500, 750}
	for i, f := range wantFrames[1:] {
		ev := evs[i+1]
		if ev.Frame != f || ev.Event.Kind != choir.EventPhoneme || ev.Event.Phoneme != seq[i+1] {
			t.Fatalf("phoneme %d: frame %d kind %s", i+1, ev.Frame, ev.Event.Kind)
		}
	}
	// The retriggered key is released before it starts again.
	if evs[4].Frame != 1000 || evs[4].Event.Kind != choir.EventNoteOff || evs[5].Event.Kind != choir.EventNoteOn {
		t.Fatalf("note-off must precede note-on at frame 1000: %+v %+v", evs[4], evs[5])
	}
	if s.Length() != 1.5 {
		t.Fatalf("Length = %f", s.Length())
	}
}

func TestAssignAndWithMethod(t *testing.T) {
	s, err := Chord([]int{48, 60}, 100, 1, DefaultMethod, nil)
	if err != nil {
		t.Fatalf("Chord: %v", err)
	}
	aa := phoneme.MustLookup("AA")
	s.Assign(map[int]preset.NoteAssignment{
		48: {Method: choir.MethodSubharmonic, Phonemes: []*phoneme.Phoneme{aa}},
	})
	if s.Notes[0].Method != choir.MethodSubharmonic || s.Notes[0].Phonemes[0] != aa {
		t.Fatalf("assignment not applied: %+v", s.Notes[0])
	}
	if s.Notes[1].Method != DefaultMethod || len(s.Notes[1].Phonemes) != 0 {
		t.Fatalf("unassigned note changed: %+v", s.Notes[1])
	}

	f := s.WithMethod(choir.MethodFormant)
	if f.Notes[0].Method != choir.MethodFormant || s.Notes[0].Method != choir.MethodSubharmonic {
		t.Fatalf("WithMethod must copy")
	}
}

func TestReadMIDIFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrase.mid")
	f := smf.New()
	f.TimeFormat = smf.MetricTicks(960)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(60))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(0, midi.NoteOn(0, 64, 80))
	tr.Add(960, midi.NoteOff(0, 60))
	tr.Add(480, midi.NoteOff(0, 64))
	tr.Add(0, midi.NoteOn(1, 67, 90))
	tr.Add(960, midi.NoteOff(1, 67))
	tr.Close(0)
	if err := f.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	if err := f.WriteFile(path); err != nil {
		t.Fatalf("write midi: %v", err)
	}

	s, err := ReadMIDIFile(path)
	if err != nil {
		t.Fatalf("ReadMIDIFile: %v", err)
	}
	if len(s.Notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(s.Notes))
	}
	byKey := map[int]Note{}
	for _, n := range s.Notes {
		byKey[n.Key] = n
	}
	check := func(key int, start, dur float64, vel float32) {
		t.Helper()
		n, ok := byKey[key]
		if !ok {
			t.Fatalf("note %d missing", key)
		}
		if math.Abs(n.Start-start) > 1e-3 || math.Abs(n.Duration-dur) > 1e-3 || n.Velocity != vel {
			t.Fatalf("note %d: start %.3f dur %.3f vel %g", key, n.Start, n.Duration, n.Velocity)
		}
	}
	// 960 ticks per quarter at 60 bpm is one second.
	check(60, 0, 1, 100)
	check(64, 0, 1.5, 80)
	check(67, 1.5, 1, 90)
}

func TestReadMIDIFileMissing(t *testing.T) {
	if _, err := ReadMIDIFile(filepath.Join(t.TempDir(), "none.mid")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func mustAdd(t *testing.T, s *Score, n Note) {
	t.Helper()
	if err := s.Add(n); err != nil {
		t.Fatalf("Add: %v", err)
	}
}
