package choir

import (
	"math"
	"math/rand/v2"
)

// VoiceState is the lifecycle of a slot.
type VoiceState int

const (
	VoiceFree VoiceState = iota
	VoiceAttack
	VoiceSustain
	VoiceRelease
)

func (s VoiceState) String() string {
	switch s {
	case VoiceFree:
		return "free"
	case VoiceAttack:
		return "attack"
	case VoiceSustain:
		return "sustain"
	case VoiceRelease:
		return "release"
	default:
		return "unknown"
	}
}

const (
	maxAge = 100

	priorityVelocityWeight = 0.5
	priorityAgeWeight      = 0.3
	priorityRandomWeight   = 0.2
)

// VoiceSlot is one unit of polyphony.
type VoiceSlot struct {
	ID        int
	Note      int
	Velocity  float32
	Frequency float32
	Amplitude float32
	Priority  float32
	Age       int
	State     VoiceState
	Pan       float32

	random float32
}

// Active reports whether the slot holds a note.
func (v *VoiceSlot) Active() bool { return v.State != VoiceFree }

// Allocation is the result of VoiceAllocator.Allocate.
type Allocation struct {
	SlotID int
	Stolen bool
	// StolenFromID is the slot the evicted note played on. It equals SlotID
	// because a stolen slot is reused in place; -1 when nothing was stolen.
	StolenFromID int
	StolenNote   int
}

// AllocatorStats are cumulative counters since the last Reset.
type AllocatorStats struct {
	Allocations uint64
	Steals      uint64
}

// VoiceAllocator owns a fixed arena of slots and an array+cursor free list.
// It is not safe for concurrent use.
type VoiceAllocator struct {
	slots   []VoiceSlot
	free    []int
	freeTop int
	active  int
	seed    uint64
	rng     *rand.Rand
	stats   AllocatorStats
}

// NewVoiceAllocator creates an allocator with capacity slots. The seed makes
// the random priority term reproducible.
func NewVoiceAllocator(capacity int, seed uint64) *VoiceAllocator {
	if capacity < 1 {
		capacity = 1
	}
	a := &VoiceAllocator{
		slots: make([]VoiceSlot, capacity),
		free:  make([]int, capacity),
		seed:  seed,
	}
	a.Reset()
	return a
}

// Capacity returns the number of slots.
func (a *VoiceAllocator) Capacity() int { return len(a.slots) }

// ActiveCount returns the number of slots holding a note.
func (a *VoiceAllocator) ActiveCount() int { return a.active }

// Stats returns the allocation counters.
func (a *VoiceAllocator) Stats() AllocatorStats { return a.stats }

// Allocate assigns a slot to note. When every slot is active the one with the
// lowest priority is evicted; ties go to the lowest id.
func (a *VoiceAllocator) Allocate(note int, velocity float32) (Allocation, error) {
	if note < 0 || note > 127 {
		return Allocation{}, invalidArgf("note %d outside [0,127]", note)
	}
	if math.IsNaN(float64(velocity)) || velocity < 0 || velocity > 127 {
		return Allocation{}, invalidArgf("velocity %g outside [0,127]", velocity)
	}

	res := Allocation{StolenFromID: -1, StolenNote: -1}
	var id int
	if a.freeTop > 0 {
		a.freeTop--
		id = a.free[a.freeTop]
		a.active++
	} else {
		id = a.lowestPriority()
		res.Stolen = true
		res.StolenFromID = id
		res.StolenNote = a.slots[id].Note
		a.stats.Steals++
	}
	res.SlotID = id

	s := &a.slots[id]
	s.Note = note
	s.Velocity = velocity
	s.Frequency = midiNoteToFreq(note)
	s.Amplitude = velocityToAmplitude(velocity)
	s.Age = 0
	s.State = VoiceAttack
	s.Pan = 0
	s.random = a.rng.Float32() * 100
	s.Priority = priorityScore(s)
	a.stats.Allocations++
	return res, nil
}

func (a *VoiceAllocator) lowestPriority() int {
	best := -1
	var bestScore float32
	for i := range a.slots {
		if !a.slots[i].Active() {
			continue
		}
		if best < 0 || a.slots[i].Priority < bestScore {
			best = i
			bestScore = a.slots[i].Priority
		}
	}
	if best < 0 {
		best = 0
	}
	return best
}

// Free returns id to the free list. Ids that are not active are ignored.
func (a *VoiceAllocator) Free(id int) {
	if id < 0 || id >= len(a.slots) || !a.slots[id].Active() {
		return
	}
	a.slots[id].State = VoiceFree
	a.slots[id].Priority = 0
	a.free[a.freeTop] = id
	a.freeTop++
	a.active--
}

// UpdatePriorities ages every active slot by one tick (capped at 100) and
// redraws its random term. Aging counts calls, not seconds; deltaSeconds is
// accepted so callers can pass the block duration.
func (a *VoiceAllocator) UpdatePriorities(deltaSeconds float32) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.Active() {
			continue
		}
		if s.Age < maxAge {
			s.Age++
		}
		s.random = a.rng.Float32() * 100
		s.Priority = priorityScore(s)
	}
}

// Voice returns the slot for id, or false for invalid or free ids.
func (a *VoiceAllocator) Voice(id int) (*VoiceSlot, bool) {
	if id < 0 || id >= len(a.slots) || !a.slots[id].Active() {
		return nil, false
	}
	return &a.slots[id], true
}

// ActiveIDs appends the active slot ids in id order to dst.
func (a *VoiceAllocator) ActiveIDs(dst []int) []int {
	for i := range a.slots {
		if a.slots[i].Active() {
			dst = append(dst, i)
		}
	}
	return dst
}

// Reset frees every slot, clears the counters and reseeds the random source.
func (a *VoiceAllocator) Reset() {
	for i := range a.slots {
		a.slots[i] = VoiceSlot{ID: i}
	}
	// Pop order is ascending id.
	n := len(a.slots)
	for i := 0; i < n; i++ {
		a.free[i] = n - 1 - i
	}
	a.freeTop = n
	a.active = 0
	a.stats = AllocatorStats{}
	a.rng = rand.New(rand.NewPCG(a.seed, a.seed^0x9e3779b97f4a7c15))
}

func priorityScore(s *VoiceSlot) float32 {
	velocityTerm := s.Velocity / 127 * 100
	ageTerm := float32(min(s.Age, maxAge))
	p := priorityVelocityWeight*velocityTerm + priorityAgeWeight*ageTerm + priorityRandomWeight*s.random
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
