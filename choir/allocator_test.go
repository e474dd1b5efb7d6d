package choir

import (
	"errors"
	"testing"
)

func TestAllocatorIDsUniqueUpToCapacity(t *testing.T) {
	a := NewVoiceAllocator(60, 1)
	seen := make(map[int]bool)
	for i := 0; i < 60; i++ {
		res, err := a.Allocate(40+i%40, 100)
		if err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
		if res.Stolen {
			t.Fatalf("allocate %d stole a voice below capacity", i)
		}
		if seen[res.SlotID] {
			t.Fatalf("slot %d handed out twice", res.SlotID)
		}
		seen[res.SlotID] = true
	}
	if a.ActiveCount() != 60 {
		t.Fatalf("expected 60 active voices, got %d", a.ActiveCount())
	}
	if st := a.Stats(); st.Allocations != 60 || st.Steals != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestAllocatorStealsLowestPriorityFirstID(t *testing.T) {
	a := NewVoiceAllocator(4, 1)
	for i := 0; i < 4; i++ {
		if _, err := a.Allocate(60+i, 64); err != nil {
			t.Fatalf("allocate: %v", err)
		}
	}
	a.slots[0].Priority = 50
	a.slots[1].Priority = 10
	a.slots[2].Priority = 10
	a.slots[3].Priority = 70

	res, err := a.Allocate(72, 64)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if !res.Stolen || res.StolenFromID != 1 || res.SlotID != 1 {
		t.Fatalf("expected steal of slot 1, got %+v", res)
	}
	if res.StolenNote != 61 {
		t.Fatalf("expected stolen note 61, got %d", res.StolenNote)
	}
	if a.ActiveCount() != 4 || a.Stats().Steals != 1 {
		t.Fatalf("steal changed active count or missed stats: %d %+v", a.ActiveCount(), a.Stats())
	}
}

func TestAllocatorCapacityTwoStealsQuietVoice(t *testing.T) {
	for seed := uint64(0); seed < 64; seed++ {
		a := NewVoiceAllocator(2, seed)
		resA, _ := a.Allocate(60, 40)
		if _, err := a.Allocate(64, 120); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		resC, err := a.Allocate(67, 100)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if !resC.Stolen || resC.StolenFromID != resA.SlotID {
			t.Fatalf("seed %d: expected to steal A (slot %d), got %+v", seed, resA.SlotID, resC)
		}
	}
}

func TestAllocatorPriorityBoundsAndAgeCap(t *testing.T) {
	a := NewVoiceAllocator(8, 3)
	for i := 0; i < 8; i++ {
		if _, err := a.Allocate(50+i, float32(i*18)); err != nil {
			t.Fatalf("allocate: %v", err)
		}
	}
	for tick := 0; tick < 150; tick++ {
		a.UpdatePriorities(0.01)
		for id := 0; id < 8; id++ {
			s, ok := a.Voice(id)
			if !ok {
				t.Fatalf("voice %d vanished", id)
			}
			if s.Priority < 0 || s.Priority > 100 {
				t.Fatalf("priority %f out of range", s.Priority)
			}
			if s.Age > maxAge {
				t.Fatalf("age %d above cap", s.Age)
			}
		}
	}
	for id := 0; id < 8; id++ {
		s, _ := a.Voice(id)
		if s.Age != 100 {
			t.Fatalf("voice %d: age %d after 150 updates, want 100", id, s.Age)
		}
	}
}

func TestAllocatorRejectsInvalidArguments(t *testing.T) {
	a := NewVoiceAllocator(2, 1)
	tests := []struct {
		note int
		vel  float32
	}{
		{-1, 64},
		{128, 64},
		{60, -1},
		{60, 128},
	}
	for _, tc := range tests {
		if _, err := a.Allocate(tc.note, tc.vel); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("Allocate(%d, %f): expected ErrInvalidArgument, got %v", tc.note, tc.vel, err)
		}
	}
	if a.ActiveCount() != 0 || a.Stats().Allocations != 0 {
		t.Fatalf("rejected calls mutated state")
	}
}

func TestAllocatorFreeVoiceAndReset(t *testing.T) {
	a := NewVoiceAllocator(3, 1)
	res, _ := a.Allocate(60, 100)

	a.Free(2)
	a.Free(-4)
	a.Free(99)
	if a.ActiveCount() != 1 {
		t.Fatalf("freeing inactive ids changed the pool")
	}
	if _, ok := a.Voice(99); ok {
		t.Fatalf("out of range id must not resolve")
	}
	if _, ok := a.Voice(2); ok {
		t.Fatalf("free id must not resolve")
	}

	a.Free(res.SlotID)
	a.Free(res.SlotID)
	if a.ActiveCount() != 0 {
		t.Fatalf("double free corrupted active count: %d", a.ActiveCount())
	}
	again, _ := a.Allocate(61, 100)
	if again.SlotID != res.SlotID {
		t.Fatalf("freed slot should be reused first, got %d", again.SlotID)
	}

	a.Reset()
	if a.ActiveCount() != 0 || a.Stats() != (AllocatorStats{}) {
		t.Fatalf("reset left state behind")
	}
	first, _ := a.Allocate(60, 100)
	if first.SlotID != 0 {
		t.Fatalf("after reset allocation should start at slot 0, got %d", first.SlotID)
	}
}

func TestAllocatorSeedIsReproducible(t *testing.T) {
	run := func() []float32 {
		a := NewVoiceAllocator(4, 42)
		for i := 0; i < 4; i++ {
			a.Allocate(60+i, 90)
		}
		a.UpdatePriorities(0.01)
		out := make([]float32, 4)
		for i := range out {
			s, _ := a.Voice(i)
			out[i] = s.Priority
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("slot %d: %f vs %f with the same seed", i, a[i], b[i])
		}
	}
}
