package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/internal/score"
)

const postRetries = 50

type backend interface {
	Start() error
	Close() error
}

// scheduler posts score events at their wall-clock time from a single
// control goroutine.
type scheduler struct {
	post  func(choir.Event) bool
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func newScheduler(m *choir.VoiceManager) *scheduler {
	return &scheduler{
		post:  m.Post,
		sleep: sleepContext,
		now:   time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// run posts events in order and returns when all are posted or ctx ends.
func (s *scheduler) run(ctx context.Context, events []score.TimedEvent, sampleRate int) error {
	start := s.now()
	for _, te := range events {
		at := time.Duration(float64(te.Frame) / float64(sampleRate) * float64(time.Second))
		if err := s.sleep(ctx, at-s.now().Sub(start)); err != nil {
			return err
		}
		posted := false
		for try := 0; try < postRetries; try++ {
			if s.post(te.Event) {
				posted = true
				break
			}
			if err := s.sleep(ctx, time.Millisecond); err != nil {
				return err
			}
		}
		if !posted {
			return fmt.Errorf("event queue stayed full at frame %d", te.Frame)
		}
	}
	return nil
}
