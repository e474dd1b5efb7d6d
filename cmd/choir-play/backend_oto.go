//go:build !portaudio && !headless

package main

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const backendName = "oto"

// otoBackend pulls interleaved float32 frames from the engine through the
// io.Reader that oto polls.
type otoBackend struct {
	ctx    *oto.Context
	player *oto.Player
	eng    *engine

	left, right []float32
	mu          sync.Mutex // setup and teardown only
}

func newBackend(sampleRate, blockSize int, eng *engine) (backend, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	b := &otoBackend{
		ctx:   ctx,
		eng:   eng,
		left:  make([]float32, 4*blockSize),
		right: make([]float32, 4*blockSize),
	}
	b.player = ctx.NewPlayer(b)
	return b, nil
}

func (b *otoBackend) Read(p []byte) (int, error) {
	frames := len(p) / 8
	for done := 0; done < frames; {
		n := min(frames-done, len(b.left))
		l, r := b.left[:n], b.right[:n]
		b.eng.fill(l, r)
		out := p[done*8:]
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(l[i]))
			binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(r[i]))
		}
		done += n
	}
	return frames * 8, nil
}

func (b *otoBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.player.Play()
	return nil
}

func (b *otoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	return err
}
