package choir

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-choir/phoneme"
)

// BatchWidth is the largest number of voices handed to ProcessBatch at once.
const BatchWidth = 8

// MethodParams is passed to Method.Prepare.
type MethodParams struct {
	SampleRate   float32
	MaxBlockSize int
	Voices       int
}

// MethodStats are cumulative counters of a method.
type MethodStats struct {
	Name            string
	VoicesProcessed uint64
	BlocksProcessed uint64
	// AvgCPU is the mean ratio of processing time to audio duration per call.
	AvgCPU float64
}

// Method renders the dry signal of voices. Per-voice state lives in lanes
// indexed by slot id and allocated in Prepare; every other call must not
// allocate.
type Method interface {
	Name() string
	Prepare(p MethodParams) error
	// SetParams applies engine parameters. It is called at block boundaries.
	SetParams(p *Params)
	// SetVibrato sets the vibrato applied to F1 and F2 for the next block.
	SetVibrato(rateHz, depthSemitones float32)
	// Start resets the lane of voice and snaps it onto ph.
	Start(voice int, frequency float32, ph *phoneme.Phoneme)
	// Process overwrites out with len(out) samples of voice.
	Process(voice int, frequency, amplitude float32, ph *phoneme.Phoneme, out []float32) error
	// ProcessBatch renders up to BatchWidth voices. It stops at the first
	// failure; buffers of voices already rendered keep their output.
	ProcessBatch(voices []int, freqs, amps []float32, phs []*phoneme.Phoneme, out [][]float32) error
	Reset()
	Stats() MethodStats
}

// methodStats is shared by the method implementations. Counters are atomic
// because Stats is polled from outside the audio thread.
type methodStats struct {
	voices  atomic.Uint64
	blocks  atomic.Uint64
	cpuBits atomic.Uint64
}

func (s *methodStats) record(voices, samples int, sampleRate float32, elapsed time.Duration) {
	s.voices.Add(uint64(voices))
	n := s.blocks.Add(1)
	if samples <= 0 || sampleRate <= 0 {
		return
	}
	audio := float64(samples) / float64(sampleRate)
	load := elapsed.Seconds() / audio
	prev := math.Float64frombits(s.cpuBits.Load())
	s.cpuBits.Store(math.Float64bits(prev + (load-prev)/float64(n)))
}

func (s *methodStats) snapshot(name string) MethodStats {
	return MethodStats{
		Name:            name,
		VoicesProcessed: s.voices.Load(),
		BlocksProcessed: s.blocks.Load(),
		AvgCPU:          math.Float64frombits(s.cpuBits.Load()),
	}
}

func (s *methodStats) reset() {
	s.voices.Store(0)
	s.blocks.Store(0)
	s.cpuBits.Store(0)
}

// vibratoCurver is implemented by methods that follow the vibrato smoothers
// sample by sample instead of once per block.
type vibratoCurver interface {
	SetVibratoCurve(rateHz, depthSemitones []float32)
}

// processBatch runs process over each voice in order, failing fast.
func processBatch(m Method, voices []int, freqs, amps []float32, phs []*phoneme.Phoneme, out [][]float32) error {
	if len(voices) > BatchWidth {
		return invalidArgf("batch of %d voices exceeds %d", len(voices), BatchWidth)
	}
	if len(freqs) < len(voices) || len(amps) < len(voices) || len(phs) < len(voices) || len(out) < len(voices) {
		return invalidArgf("batch slices shorter than voice list")
	}
	for i, v := range voices {
		if err := m.Process(v, freqs[i], amps[i], phs[i], out[i]); err != nil {
			return err
		}
	}
	return nil
}

// checkBlock returns a SynthesisError when buf holds a non-finite sample.
func checkBlock(name string, voice int, buf []float32) error {
	var sum float32
	for _, x := range buf {
		sum += x * x
	}
	if !isFinite(sum) {
		return &SynthesisError{Voice: voice, Method: name, Reason: "non-finite output"}
	}
	return nil
}

func laneIndex(name string, voice, lanes int) error {
	if lanes == 0 {
		return ErrNotPrepared
	}
	if voice < 0 || voice >= lanes {
		return invalidArgf("%s: voice %d outside [0,%d)", name, voice, lanes)
	}
	return nil
}
