package score

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type heldNote struct {
	start    float64
	velocity uint8
}

// ReadMIDIFile reads all note events of a standard MIDI file. Channels are
// merged; overlapping notes on the same key are closed at the next note-off.
// Notes still held at the end of the file last until the last event.
func ReadMIDIFile(path string) (*Score, error) {
	s := &Score{}
	held := make(map[uint8][]heldNote)
	var last float64
	var addErr error

	closeNote := func(key uint8, at float64) {
		stack := held[key]
		if len(stack) == 0 {
			return
		}
		h := stack[0]
		held[key] = stack[1:]
		dur := at - h.start
		if dur <= 0 {
			dur = 1e-3
		}
		if err := s.Add(Note{
			Key:      int(key),
			Velocity: float32(h.velocity),
			Start:    h.start,
			Duration: dur,
			Method:   DefaultMethod,
		}); err != nil && addErr == nil {
			addErr = err
		}
	}

	rd := smf.ReadTracks(path).Do(func(te smf.TrackEvent) {
		at := float64(te.AbsMicroSeconds) / 1e6
		last = max(last, at)
		msg := midi.Message(te.Message)
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			held[key] = append(held[key], heldNote{start: at, velocity: vel})
		case msg.GetNoteEnd(&ch, &key):
			closeNote(key, at)
		}
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read midi %s: %w", path, err)
	}
	for key := range held {
		for len(held[key]) > 0 {
			closeNote(key, last)
		}
	}
	if addErr != nil {
		return nil, addErr
	}
	return s, nil
}
