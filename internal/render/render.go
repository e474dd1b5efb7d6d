// Package render drives a VoiceManager offline from a score.
package render

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/internal/score"
)

// Stereo is a pair of equal-length channels.
type Stereo struct {
	Left, Right []float32
}

// Frames returns the channel length.
func (s Stereo) Frames() int { return len(s.Left) }

// Apply sends one event straight to m. Rejections are returned, not counted.
func Apply(m *choir.VoiceManager, ev choir.Event) error {
	switch ev.Kind {
	case choir.EventNoteOn:
		kind := ev.Method
		if kind < 0 {
			kind = m.Params().Method
		}
		_, err := m.NoteOnWith(ev.Note, ev.Velocity, kind, ev.Phoneme)
		return err
	case choir.EventNoteOff:
		return m.NoteOff(ev.Note, ev.Velocity)
	case choir.EventAllNotesOff:
		m.AllNotesOff()
		return nil
	case choir.EventParams:
		return m.SetParams(ev.Params)
	case choir.EventPhoneme:
		return m.SetPhoneme(ev.Note, ev.Phoneme)
	default:
		return fmt.Errorf("unknown event kind %d", int(ev.Kind))
	}
}

// Render plays events into a buffer of totalFrames frames. Blocks are split
// at event frames so every event lands sample-accurately. m must be
// prepared with a max block size of at least blockSize.
func Render(ctx context.Context, m *choir.VoiceManager, events []score.TimedEvent, totalFrames, blockSize int, logger *slog.Logger) (Stereo, error) {
	if totalFrames < 0 || blockSize < 1 {
		return Stereo{}, fmt.Errorf("invalid render size: %d frames, block %d", totalFrames, blockSize)
	}
	if logger == nil {
		logger = slog.Default()
	}
	out := Stereo{
		Left:  make([]float32, totalFrames),
		Right: make([]float32, totalFrames),
	}

	next := 0
	for pos := 0; pos < totalFrames; {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		for next < len(events) && events[next].Frame <= pos {
			if err := Apply(m, events[next].Event); err != nil {
				logger.Debug("event rejected", "frame", events[next].Frame, "kind", events[next].Event.Kind, "note", events[next].Event.Note, "err", err)
			}
			next++
		}
		n := min(blockSize, totalFrames-pos)
		if next < len(events) && events[next].Frame-pos < n {
			n = events[next].Frame - pos
		}
		if err := m.ProcessBlock(out.Left[pos:pos+n], out.Right[pos:pos+n], n); err != nil {
			return out, fmt.Errorf("frame %d: %w", pos, err)
		}
		pos += n
	}
	return out, nil
}

// Factory builds a prepared engine that renders with kind.
type Factory func(kind choir.MethodKind) (*choir.VoiceManager, error)

// Stems renders sc once per method in parallel, each on its own engine.
func Stems(ctx context.Context, build Factory, sc *score.Score, sampleRate, totalFrames, blockSize int, logger *slog.Logger) (map[choir.MethodKind]Stereo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	kinds := []choir.MethodKind{choir.MethodFormant, choir.MethodDiphone, choir.MethodSubharmonic}
	results := make([]Stereo, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			m, err := build(kind)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			events := sc.WithMethod(kind).Events(sampleRate)
			st, err := Render(gctx, m, events, totalFrames, blockSize, logger.With("method", kind.String()))
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[choir.MethodKind]Stereo, len(kinds))
	for i, kind := range kinds {
		out[kind] = results[i]
	}
	return out, nil
}
