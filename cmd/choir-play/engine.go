package main

import (
	"github.com/cwbudde/algo-choir/choir"
)

// engine adapts VoiceManager to the callback shape of the audio backends.
// fill runs on the audio thread only.
type engine struct {
	m         *choir.VoiceManager
	blockSize int
}

func newEngine(m *choir.VoiceManager, blockSize int) *engine {
	return &engine{m: m, blockSize: blockSize}
}

// fill renders len(left) frames. A failed block is replaced by silence; the
// manager counts the failure in its stats.
func (e *engine) fill(left, right []float32) {
	for off := 0; off < len(left); off += e.blockSize {
		n := min(e.blockSize, len(left)-off)
		l, r := left[off:off+n], right[off:off+n]
		if err := e.m.ProcessBlock(l, r, n); err != nil {
			clear(l)
			clear(r)
		}
	}
}
