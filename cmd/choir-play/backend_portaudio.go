//go:build portaudio

package main

import (
	"github.com/gordonklaus/portaudio"
)

const backendName = "portaudio"

type portaudioBackend struct {
	stream *portaudio.Stream
}

func newBackend(sampleRate, blockSize int, eng *engine) (backend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), blockSize, func(out [][]float32) {
		eng.fill(out[0], out[1])
	})
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return &portaudioBackend{stream: stream}, nil
}

func (b *portaudioBackend) Start() error {
	return b.stream.Start()
}

func (b *portaudioBackend) Close() error {
	if b.stream == nil {
		return nil
	}
	_ = b.stream.Stop()
	err := b.stream.Close()
	b.stream = nil
	portaudio.Terminate()
	return err
}
