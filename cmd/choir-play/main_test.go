package main

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/internal/score"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.t = c.t.Add(d)
	}
	return nil
}

func TestSchedulerPostsInOrderAtTime(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	start := clock.t
	var got []choir.Event
	var at []time.Duration
	s := &scheduler{
		post: func(ev choir.Event) bool {
			got = append(got, ev)
			at = append(at, clock.t.Sub(start))
			return true
		},
		sleep: clock.sleep,
		now:   clock.now,
	}
	sc, _ := score.Chord([]int{60, 64}, 100, 0.5, score.DefaultMethod, nil)
	events := sc.Events(1000)
	if err := s.run(context.Background(), events, 1000); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("posted %d of %d events", len(got), len(events))
	}
	if at[0] != 0 || at[len(at)-1] != 500*time.Millisecond {
		t.Fatalf("unexpected post times %v", at)
	}
}

func TestSchedulerRetriesFullQueue(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	fails := 3
	s := &scheduler{
		post: func(choir.Event) bool {
			if fails > 0 {
				fails--
				return false
			}
			return true
		},
		sleep: clock.sleep,
		now:   clock.now,
	}
	events := []score.TimedEvent{{Frame: 0, Event: choir.NoteOnEvent(60, 100)}}
	if err := s.run(context.Background(), events, 48000); err != nil {
		t.Fatalf("run: %v", err)
	}

	s.post = func(choir.Event) bool { return false }
	if err := s.run(context.Background(), events, 48000); err == nil {
		t.Fatalf("expected error when the queue never drains")
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &scheduler{post: func(choir.Event) bool { return true }, sleep: sleepContext, now: time.Now}
	events := []score.TimedEvent{{Frame: 48000, Event: choir.NoteOnEvent(60, 100)}}
	if err := s.run(ctx, events, 48000); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngineFillsThroughQueue(t *testing.T) {
	m, err := choir.NewVoiceManager(4)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}
	if err := m.Prepare(16000, 64); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	e := newEngine(m, 64)
	if !m.Post(choir.NoteOnEvent(57, 100)) {
		t.Fatalf("Post failed")
	}
	left := make([]float32, 1000)
	right := make([]float32, 1000)
	e.fill(left, right)

	var energy float64
	for i := range left {
		if math.IsNaN(float64(left[i])) {
			t.Fatalf("NaN at %d", i)
		}
		energy += float64(left[i]*left[i] + right[i]*right[i])
	}
	if energy == 0 {
		t.Fatalf("posted note produced silence")
	}
	if st := m.Stats(); st.ActiveVoices != 1 || st.Blocks != 16 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestLoadScoreDemo(t *testing.T) {
	sc, err := loadScore("", "AA")
	if err != nil {
		t.Fatalf("loadScore: %v", err)
	}
	if len(sc.Notes) != 4 || sc.Notes[3].Method != choir.MethodSubharmonic || sc.Notes[0].Phonemes[0].Symbol != "AA" {
		t.Fatalf("unexpected demo score %+v", sc.Notes)
	}
	if _, err := loadScore("", "QQ"); err == nil {
		t.Fatalf("expected phoneme error")
	}
}
