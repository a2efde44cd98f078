package ndlog

import (
	"testing"
	"time"

	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.TotalAppends != 0 {
		t.Errorf("Expected 0 initial appends, got %d", snap.TotalAppends)
	}

	m.RecordAppend(wire.KindInput4, 28)
	m.RecordAppend(wire.KindInterruptRequest, 16)
	m.RecordAppend(wire.KindInput4, 28)

	snap = m.Snapshot()

	if snap.AppendCounts[wire.KindInput4] != 2 {
		t.Errorf("Expected 2 INPUT_4 appends, got %d", snap.AppendCounts[wire.KindInput4])
	}
	if snap.AppendCounts[wire.KindInterruptRequest] != 1 {
		t.Errorf("Expected 1 INTERRUPT_REQUEST append, got %d", snap.AppendCounts[wire.KindInterruptRequest])
	}
	if snap.TotalAppends != 3 {
		t.Errorf("Expected 3 total appends, got %d", snap.TotalAppends)
	}
	if snap.TotalBytes != 72 {
		t.Errorf("Expected 72 total bytes, got %d", snap.TotalBytes)
	}
}

func TestMetricsConsume(t *testing.T) {
	m := NewMetrics()

	m.RecordConsume(wire.KindInput1)
	m.RecordConsume(wire.KindInput1)
	m.RecordConsume(wire.KindExitRequest)

	snap := m.Snapshot()
	if snap.ConsumeCounts[wire.KindInput1] != 2 {
		t.Errorf("Expected 2 INPUT_1 consumes, got %d", snap.ConsumeCounts[wire.KindInput1])
	}
	if snap.TotalConsumes != 3 {
		t.Errorf("Expected 3 total consumes, got %d", snap.TotalConsumes)
	}
}

func TestMetricsQueueDepth(t *testing.T) {
	m := NewMetrics()

	m.RecordQueueDepth(10)
	m.RecordQueueDepth(20)
	m.RecordQueueDepth(15)

	snap := m.Snapshot()
	if snap.MaxQueueDepth != 20 {
		t.Errorf("Expected max queue depth 20, got %d", snap.MaxQueueDepth)
	}
}

func TestMetricsDivergence(t *testing.T) {
	m := NewMetrics()

	m.RecordDivergence()
	m.RecordDivergence()

	snap := m.Snapshot()
	if snap.DivergenceCount != 2 {
		t.Errorf("Expected 2 divergences, got %d", snap.DivergenceCount)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	if snap.UptimeNs < 10*1000000 {
		t.Errorf("Expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()
	if snap2.UptimeNs > snap.UptimeNs+2*1000000 {
		t.Errorf("Uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordAppend(wire.KindInput4, 28)
	m.RecordQueueDepth(10)
	m.RecordDivergence()

	snap := m.Snapshot()
	if snap.TotalAppends == 0 {
		t.Error("Expected some appends before reset")
	}

	m.Reset()

	snap = m.Snapshot()
	if snap.TotalAppends != 0 {
		t.Errorf("Expected 0 appends after reset, got %d", snap.TotalAppends)
	}
	if snap.TotalBytes != 0 {
		t.Errorf("Expected 0 bytes after reset, got %d", snap.TotalBytes)
	}
	if snap.MaxQueueDepth != 0 {
		t.Errorf("Expected 0 max queue depth after reset, got %d", snap.MaxQueueDepth)
	}
	if snap.DivergenceCount != 0 {
		t.Errorf("Expected 0 divergences after reset, got %d", snap.DivergenceCount)
	}
}

func TestObserver(t *testing.T) {
	observer := &NoOpObserver{}
	observer.ObserveAppend(wire.KindInput4, 28)
	observer.ObserveConsume(wire.KindInput4)
	observer.ObserveFillQueue(10)
	observer.ObserveDivergence(wire.ProgramPoint{}, wire.ProgramPoint{}, wire.KindInput4)

	m := NewMetrics()
	metricsObserver := NewMetricsObserver(m)

	metricsObserver.ObserveAppend(wire.KindInput4, 28)
	metricsObserver.ObserveConsume(wire.KindInput4)
	metricsObserver.ObserveFillQueue(5)
	metricsObserver.ObserveDivergence(wire.ProgramPoint{GuestInstrCount: 1}, wire.ProgramPoint{GuestInstrCount: 2}, wire.KindInput4)

	snap := m.Snapshot()
	if snap.AppendCounts[wire.KindInput4] != 1 {
		t.Errorf("Expected 1 INPUT_4 append from observer, got %d", snap.AppendCounts[wire.KindInput4])
	}
	if snap.ConsumeCounts[wire.KindInput4] != 1 {
		t.Errorf("Expected 1 INPUT_4 consume from observer, got %d", snap.ConsumeCounts[wire.KindInput4])
	}
	if snap.MaxQueueDepth != 5 {
		t.Errorf("Expected max queue depth 5 from observer, got %d", snap.MaxQueueDepth)
	}
	if snap.DivergenceCount != 1 {
		t.Errorf("Expected 1 divergence from observer, got %d", snap.DivergenceCount)
	}
}
