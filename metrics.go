package ndlog

import (
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/go-ndlog/internal/interfaces"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

const numKinds = int(wire.KindLast) + 1

// Metrics tracks recording and replay statistics for an ndlog session:
// per-kind entry counts and byte totals, the look-ahead queue's
// high-water mark, and the count of divergences observed.
type Metrics struct {
	// Per-kind append counters, indexed by wire.Kind.
	AppendCounts [numKinds]atomic.Uint64
	AppendBytes  [numKinds]atomic.Uint64

	// Per-kind consume counters, indexed by wire.Kind.
	ConsumeCounts [numKinds]atomic.Uint64

	MaxQueueDepth   atomic.Uint32
	DivergenceCount atomic.Uint64

	// Session lifecycle
	StartTime atomic.Int64 // Session start timestamp (UnixNano)
	StopTime  atomic.Int64 // Session stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordAppend records an entry of the given kind being appended to the
// log, along with the total on-disk bytes it occupied (fixed payload
// plus any trailing buffer).
func (m *Metrics) RecordAppend(kind wire.Kind, bytes int) {
	if int(kind) >= numKinds {
		return
	}
	m.AppendCounts[kind].Add(1)
	m.AppendBytes[kind].Add(uint64(bytes))
}

// RecordConsume records an entry of the given kind being consumed off
// the look-ahead queue's head during replay.
func (m *Metrics) RecordConsume(kind wire.Kind) {
	if int(kind) >= numKinds {
		return
	}
	m.ConsumeCounts[kind].Add(1)
}

// RecordQueueDepth records the look-ahead queue's depth after a fill,
// updating the high-water mark.
func (m *Metrics) RecordQueueDepth(depth int) {
	d := uint32(depth)
	for {
		current := m.MaxQueueDepth.Load()
		if d <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, d) {
			break
		}
	}
}

// RecordDivergence records a fatal divergence between the current
// program point and the log's next expected entry.
func (m *Metrics) RecordDivergence() {
	m.DivergenceCount.Add(1)
}

// Stop marks the session as ended.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics.
type MetricsSnapshot struct {
	AppendCounts  [numKinds]uint64
	AppendBytes   [numKinds]uint64
	ConsumeCounts [numKinds]uint64

	TotalAppends  uint64
	TotalBytes    uint64
	TotalConsumes uint64

	MaxQueueDepth   uint32
	DivergenceCount uint64
	UptimeNs        uint64
}

// Snapshot creates a point-in-time snapshot of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var snap MetricsSnapshot
	for i := 0; i < numKinds; i++ {
		snap.AppendCounts[i] = m.AppendCounts[i].Load()
		snap.AppendBytes[i] = m.AppendBytes[i].Load()
		snap.ConsumeCounts[i] = m.ConsumeCounts[i].Load()
		snap.TotalAppends += snap.AppendCounts[i]
		snap.TotalBytes += snap.AppendBytes[i]
		snap.TotalConsumes += snap.ConsumeCounts[i]
	}
	snap.MaxQueueDepth = m.MaxQueueDepth.Load()
	snap.DivergenceCount = m.DivergenceCount.Load()

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}
	return snap
}

// Reset zeroes all counters and restarts StartTime at now.
func (m *Metrics) Reset() {
	for i := 0; i < numKinds; i++ {
		m.AppendCounts[i].Store(0)
		m.AppendBytes[i].Store(0)
		m.ConsumeCounts[i].Store(0)
	}
	m.MaxQueueDepth.Store(0)
	m.DivergenceCount.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// NoOpObserver is a no-op implementation of interfaces.Observer, used
// when a caller wants record/replay without metrics collection.
type NoOpObserver struct{}

func (NoOpObserver) ObserveAppend(wire.Kind, int)                          {}
func (NoOpObserver) ObserveConsume(wire.Kind)                              {}
func (NoOpObserver) ObserveFillQueue(int)                                  {}
func (NoOpObserver) ObserveDivergence(wire.ProgramPoint, wire.ProgramPoint, wire.Kind) {}

// MetricsObserver implements interfaces.Observer using the built-in
// Metrics, and is what Engine wires into its writer and queue by
// default.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveAppend(kind wire.Kind, bytes int) {
	o.metrics.RecordAppend(kind, bytes)
}

func (o *MetricsObserver) ObserveConsume(kind wire.Kind) {
	o.metrics.RecordConsume(kind)
}

func (o *MetricsObserver) ObserveFillQueue(depth int) {
	o.metrics.RecordQueueDepth(depth)
}

func (o *MetricsObserver) ObserveDivergence(expected, actual wire.ProgramPoint, kind wire.Kind) {
	o.metrics.RecordDivergence()
}

// Compile-time interface checks.
var _ interfaces.Observer = (*MetricsObserver)(nil)
var _ interfaces.Observer = (*NoOpObserver)(nil)
