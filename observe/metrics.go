// Package observe exposes engine statistics as OpenTelemetry metrics.
//
// All instruments are asynchronous: the audio path keeps updating its atomic
// counters and a registered callback reads one [choir.Stats] snapshot per
// collection. Nothing here runs on the audio thread.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cwbudde/algo-choir/choir"
)

const meterName = "github.com/cwbudde/algo-choir"

// StatsSource is anything that can produce an engine snapshot.
// *choir.VoiceManager satisfies it.
type StatsSource interface {
	Stats() choir.Stats
}

// Metrics holds the registered instruments.
type Metrics struct {
	ActiveVoices metric.Int64ObservableGauge
	StolenVoices metric.Int64ObservableCounter
	Allocations  metric.Int64ObservableCounter
	Blocks       metric.Int64ObservableCounter

	BlockCPU     metric.Float64ObservableGauge
	BlockCPUPeak metric.Float64ObservableGauge

	DroppedEvents     metric.Int64ObservableCounter
	RejectedEvents    metric.Int64ObservableCounter
	SynthesisFailures metric.Int64ObservableCounter

	// Per-method instruments carry attribute.String("method", ...).
	MethodVoices metric.Int64ObservableCounter
	MethodBlocks metric.Int64ObservableCounter
	MethodCPU    metric.Float64ObservableGauge

	reg metric.Registration
}

// NewMetrics creates the instruments on mp and registers a callback that
// samples src on every collection.
func NewMetrics(mp metric.MeterProvider, src StatsSource) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ActiveVoices, err = m.Int64ObservableGauge("choir.voices.active",
		metric.WithDescription("Voices currently sounding."),
	); err != nil {
		return nil, err
	}
	if met.StolenVoices, err = m.Int64ObservableCounter("choir.voices.stolen",
		metric.WithDescription("Voices evicted to make room for a new note."),
	); err != nil {
		return nil, err
	}
	if met.Allocations, err = m.Int64ObservableCounter("choir.voices.allocations",
		metric.WithDescription("Voice allocations including steals."),
	); err != nil {
		return nil, err
	}
	if met.Blocks, err = m.Int64ObservableCounter("choir.blocks",
		metric.WithDescription("Audio blocks rendered."),
	); err != nil {
		return nil, err
	}
	if met.BlockCPU, err = m.Float64ObservableGauge("choir.block.cpu",
		metric.WithDescription("Processing time of the last block relative to its duration."),
		metric.WithUnit("1"),
	); err != nil {
		return nil, err
	}
	if met.BlockCPUPeak, err = m.Float64ObservableGauge("choir.block.cpu.peak",
		metric.WithDescription("Highest block CPU load since the last reset."),
		metric.WithUnit("1"),
	); err != nil {
		return nil, err
	}
	if met.DroppedEvents, err = m.Int64ObservableCounter("choir.events.dropped",
		metric.WithDescription("Control events dropped because the queue was full."),
	); err != nil {
		return nil, err
	}
	if met.RejectedEvents, err = m.Int64ObservableCounter("choir.events.rejected",
		metric.WithDescription("Queued control events that failed validation."),
	); err != nil {
		return nil, err
	}
	if met.SynthesisFailures, err = m.Int64ObservableCounter("choir.synthesis.failures",
		metric.WithDescription("Blocks aborted by a synthesis failure."),
	); err != nil {
		return nil, err
	}
	if met.MethodVoices, err = m.Int64ObservableCounter("choir.method.voices",
		metric.WithDescription("Voice renders per synthesis method."),
	); err != nil {
		return nil, err
	}
	if met.MethodBlocks, err = m.Int64ObservableCounter("choir.method.blocks",
		metric.WithDescription("Process calls per synthesis method."),
	); err != nil {
		return nil, err
	}
	if met.MethodCPU, err = m.Float64ObservableGauge("choir.method.cpu",
		metric.WithDescription("Average CPU load per synthesis method call."),
		metric.WithUnit("1"),
	); err != nil {
		return nil, err
	}

	met.reg, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		met.observe(o, src.Stats())
		return nil
	},
		met.ActiveVoices, met.StolenVoices, met.Allocations, met.Blocks,
		met.BlockCPU, met.BlockCPUPeak,
		met.DroppedEvents, met.RejectedEvents, met.SynthesisFailures,
		met.MethodVoices, met.MethodBlocks, met.MethodCPU,
	)
	if err != nil {
		return nil, err
	}
	return met, nil
}

func (met *Metrics) observe(o metric.Observer, s choir.Stats) {
	o.ObserveInt64(met.ActiveVoices, int64(s.ActiveVoices))
	o.ObserveInt64(met.StolenVoices, int64(s.StolenVoices))
	o.ObserveInt64(met.Allocations, int64(s.Allocations))
	o.ObserveInt64(met.Blocks, int64(s.Blocks))
	o.ObserveFloat64(met.BlockCPU, s.CPU)
	o.ObserveFloat64(met.BlockCPUPeak, s.PeakCPU)
	o.ObserveInt64(met.DroppedEvents, int64(s.DroppedEvents))
	o.ObserveInt64(met.RejectedEvents, int64(s.RejectedEvents))
	o.ObserveInt64(met.SynthesisFailures, int64(s.SynthesisFailures))

	for _, ms := range s.Methods {
		if ms.Name == "" {
			continue
		}
		attrs := metric.WithAttributes(attribute.String("method", ms.Name))
		o.ObserveInt64(met.MethodVoices, int64(ms.VoicesProcessed), attrs)
		o.ObserveInt64(met.MethodBlocks, int64(ms.BlocksProcessed), attrs)
		o.ObserveFloat64(met.MethodCPU, ms.AvgCPU, attrs)
	}
}

// Unregister detaches the collection callback.
func (met *Metrics) Unregister() error {
	if met == nil || met.reg == nil {
		return nil
	}
	return met.reg.Unregister()
}
