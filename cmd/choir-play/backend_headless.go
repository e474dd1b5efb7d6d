//go:build headless && !portaudio

package main

import (
	"sync"
	"time"
)

const backendName = "headless"

// headlessBackend pulls blocks at real-time pace and discards them. It keeps
// the engine, queue and metrics running on machines without an audio device.
type headlessBackend struct {
	eng         *engine
	period      time.Duration
	left, right []float32

	stop chan struct{}
	wg   sync.WaitGroup
}

func newBackend(sampleRate, blockSize int, eng *engine) (backend, error) {
	return &headlessBackend{
		eng:    eng,
		period: time.Duration(float64(blockSize) / float64(sampleRate) * float64(time.Second)),
		left:   make([]float32, blockSize),
		right:  make([]float32, blockSize),
		stop:   make(chan struct{}),
	}, nil
}

func (b *headlessBackend) Start() error {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		t := time.NewTicker(b.period)
		defer t.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-t.C:
				b.eng.fill(b.left, b.right)
			}
		}
	}()
	return nil
}

func (b *headlessBackend) Close() error {
	select {
	case <-b.stop:
	default:
		close(b.stop)
	}
	b.wg.Wait()
	return nil
}
