package observe

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/cwbudde/algo-choir/choir"
)

type fakeSource struct {
	stats choir.Stats
}

func (f *fakeSource) Stats() choir.Stats { return f.stats }

func newTestMetrics(t *testing.T, src StatsSource) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp, src)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestObservableInstrumentsReportSnapshot(t *testing.T) {
	src := &fakeSource{stats: choir.Stats{
		ActiveVoices:      5,
		StolenVoices:      2,
		Allocations:       9,
		Blocks:            40,
		CPU:               0.125,
		PeakCPU:           0.5,
		DroppedEvents:     1,
		SynthesisFailures: 3,
	}}
	_, reader := newTestMetrics(t, src)
	rm := collect(t, reader)

	gauge := findMetric(rm, "choir.voices.active")
	if gauge == nil {
		t.Fatalf("choir.voices.active not exported")
	}
	g, ok := gauge.Data.(metricdata.Gauge[int64])
	if !ok || len(g.DataPoints) != 1 || g.DataPoints[0].Value != 5 {
		t.Fatalf("unexpected active voices data: %#v", gauge.Data)
	}

	counters := map[string]int64{
		"choir.voices.stolen":      2,
		"choir.voices.allocations": 9,
		"choir.blocks":             40,
		"choir.events.dropped":     1,
		"choir.synthesis.failures": 3,
	}
	for name, want := range counters {
		m := findMetric(rm, name)
		if m == nil {
			t.Fatalf("%s not exported", name)
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != want || !sum.IsMonotonic {
			t.Fatalf("%s: unexpected data %#v", name, m.Data)
		}
	}

	cpu := findMetric(rm, "choir.block.cpu")
	if cpu == nil {
		t.Fatalf("choir.block.cpu not exported")
	}
	if g, ok := cpu.Data.(metricdata.Gauge[float64]); !ok || g.DataPoints[0].Value != 0.125 {
		t.Fatalf("unexpected cpu data: %#v", cpu.Data)
	}

	src.stats.ActiveVoices = 1
	rm = collect(t, reader)
	g = findMetric(rm, "choir.voices.active").Data.(metricdata.Gauge[int64])
	if g.DataPoints[0].Value != 1 {
		t.Fatalf("gauge did not follow the source: %d", g.DataPoints[0].Value)
	}
}

func TestPerMethodAttributes(t *testing.T) {
	var s choir.Stats
	s.Methods[0] = choir.MethodStats{Name: "formant", VoicesProcessed: 12, BlocksProcessed: 4, AvgCPU: 0.01}
	s.Methods[2] = choir.MethodStats{Name: "subharmonic", VoicesProcessed: 3, BlocksProcessed: 3}
	_, reader := newTestMetrics(t, &fakeSource{stats: s})
	rm := collect(t, reader)

	m := findMetric(rm, "choir.method.voices")
	if m == nil {
		t.Fatalf("choir.method.voices not exported")
	}
	sum := m.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 2 {
		t.Fatalf("expected 2 methods with names, got %d points", len(sum.DataPoints))
	}
	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, ok := dp.Attributes.Value(attribute.Key("method"))
		if !ok {
			t.Fatalf("data point without method attribute")
		}
		got[v.AsString()] = dp.Value
	}
	if got["formant"] != 12 || got["subharmonic"] != 3 {
		t.Fatalf("unexpected per-method values: %v", got)
	}
}

func TestUnregisterStopsObservation(t *testing.T) {
	m, reader := newTestMetrics(t, &fakeSource{stats: choir.Stats{ActiveVoices: 3}})
	if err := m.Unregister(); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	rm := collect(t, reader)
	if f := findMetric(rm, "choir.voices.active"); f != nil {
		if g, ok := f.Data.(metricdata.Gauge[int64]); ok && len(g.DataPoints) > 0 {
			t.Fatalf("expected no data points after Unregister, got %d", len(g.DataPoints))
		}
	}
}

func TestPrometheusProviderServesEngineMetrics(t *testing.T) {
	p, err := NewPrometheusProvider()
	if err != nil {
		t.Fatalf("NewPrometheusProvider: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if _, err := NewMetrics(p.MeterProvider, &fakeSource{stats: choir.Stats{ActiveVoices: 7}}); err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	rec := httptest.NewRecorder()
	p.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "choir_voices_active") {
		t.Fatalf("metrics output lacks choir_voices_active:\n%s", body)
	}
}
