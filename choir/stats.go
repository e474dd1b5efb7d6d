package choir

import (
	"math"
	"sync/atomic"
)

// Stats is a read-only snapshot of the engine counters. It may be taken from
// any goroutine while audio is running.
type Stats struct {
	ActiveVoices int
	StolenVoices uint64
	Allocations  uint64
	Blocks       uint64

	// CPU is the processing time of the last block divided by its duration.
	CPU     float64
	PeakCPU float64

	DroppedEvents     uint64
	RejectedEvents    uint64
	SynthesisFailures uint64

	Methods [numMethods]MethodStats
}

type statsCounters struct {
	active      atomic.Int64
	stolen      atomic.Uint64
	allocations atomic.Uint64
	blocks      atomic.Uint64
	dropped     atomic.Uint64
	rejected    atomic.Uint64
	failures    atomic.Uint64
	cpuBits     atomic.Uint64
	peakBits    atomic.Uint64
}

func (c *statsCounters) setCPU(load float64) {
	c.cpuBits.Store(math.Float64bits(load))
	if load > math.Float64frombits(c.peakBits.Load()) {
		c.peakBits.Store(math.Float64bits(load))
	}
}

func (c *statsCounters) reset() {
	c.active.Store(0)
	c.stolen.Store(0)
	c.allocations.Store(0)
	c.blocks.Store(0)
	c.dropped.Store(0)
	c.rejected.Store(0)
	c.failures.Store(0)
	c.cpuBits.Store(0)
	c.peakBits.Store(0)
}

// Stats returns the current counters.
func (m *VoiceManager) Stats() Stats {
	s := Stats{
		ActiveVoices:      int(m.stats.active.Load()),
		StolenVoices:      m.stats.stolen.Load(),
		Allocations:       m.stats.allocations.Load(),
		Blocks:            m.stats.blocks.Load(),
		CPU:               math.Float64frombits(m.stats.cpuBits.Load()),
		PeakCPU:           math.Float64frombits(m.stats.peakBits.Load()),
		DroppedEvents:     m.stats.dropped.Load(),
		RejectedEvents:    m.stats.rejected.Load(),
		SynthesisFailures: m.stats.failures.Load(),
	}
	for k := range m.methods {
		s.Methods[k] = m.methods[k].Stats()
	}
	return s
}
