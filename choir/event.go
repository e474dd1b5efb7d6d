package choir

import "github.com/cwbudde/algo-choir/phoneme"

// EventKind tags an Event.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventAllNotesOff
	EventParams
	EventPhoneme
)

func (k EventKind) String() string {
	switch k {
	case EventNoteOn:
		return "note-on"
	case EventNoteOff:
		return "note-off"
	case EventAllNotesOff:
		return "all-notes-off"
	case EventParams:
		return "params"
	case EventPhoneme:
		return "phoneme"
	default:
		return "unknown"
	}
}

// Event is a control message applied by VoiceManager at the start of the
// next block. Values referenced by an event must not change after Post.
type Event struct {
	Kind     EventKind
	Note     int
	Velocity float32
	Method   MethodKind
	Phoneme  *phoneme.Phoneme
	Params   *Params
}

// NoteOnEvent starts note with the default method and phoneme.
func NoteOnEvent(note int, velocity float32) Event {
	return Event{Kind: EventNoteOn, Note: note, Velocity: velocity, Method: -1}
}

// NoteOnWithEvent starts note with an explicit method and phoneme.
func NoteOnWithEvent(note int, velocity float32, kind MethodKind, ph *phoneme.Phoneme) Event {
	return Event{Kind: EventNoteOn, Note: note, Velocity: velocity, Method: kind, Phoneme: ph}
}

// NoteOffEvent releases note.
func NoteOffEvent(note int, velocity float32) Event {
	return Event{Kind: EventNoteOff, Note: note, Velocity: velocity}
}

// AllNotesOffEvent releases every sounding note.
func AllNotesOffEvent() Event { return Event{Kind: EventAllNotesOff} }

// PhonemeEvent moves the sounding voices of note to ph.
func PhonemeEvent(note int, ph *phoneme.Phoneme) Event {
	return Event{Kind: EventPhoneme, Note: note, Phoneme: ph}
}
