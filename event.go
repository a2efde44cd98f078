package ndlog

import (
	"github.com/ehrlich-b/go-ndlog/internal/queue"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// LogEntry is the public, detached view of one consumed log entry:
// everything the emulator needs to apply or inspect it, with no
// reference back into the queue's internal free-list bookkeeping.
type LogEntry struct {
	Point    wire.ProgramPoint
	Kind     wire.Kind
	Callsite wire.Callsite

	// Variant holds the kind-specific payload: wire.Input for the
	// INPUT_* kinds, wire.InterruptRequest, wire.ExitRequest, or one of
	// the SKIPPED_CALL payloads (wire.CPUMemRW, wire.CPUMemUnmap,
	// wire.MemRegionChange, wire.Transfer, wire.HandlePacket). nil for
	// DEBUG and LAST.
	Variant any

	// SkippedKind is only meaningful when Kind == KindSkippedCall.
	SkippedKind wire.SkippedCallKind

	// Buf is the trailing buffer for CPU_MEM_RW, CPU_MEM_UNMAP, and
	// HANDLE_PACKET, or the region name for MEM_REGION_CHANGE. nil
	// otherwise.
	Buf []byte
}

// newLogEntry detaches a queue.Entry into a caller-owned LogEntry. Buf is
// copied into a fresh slice: the entry this is built from is about to be
// (or already has been) recycled through the allocator, which returns
// its buffer to the pooled free list, and a caller holding an alias into
// pooled memory would see it overwritten by the next unrelated read.
func newLogEntry(e *queue.Entry) *LogEntry {
	var buf []byte
	if e.Buf != nil {
		buf = make([]byte, len(e.Buf))
		copy(buf, e.Buf)
	}
	return &LogEntry{
		Point:       e.Point(),
		Kind:        e.Kind(),
		Callsite:    e.Header.Callsite,
		Variant:     e.Variant,
		SkippedKind: e.SkippedKind,
		Buf:         buf,
	}
}

// InputValue returns the entry's input value and true if Kind is one of
// the INPUT_* kinds.
func (le *LogEntry) InputValue() (uint64, bool) {
	in, ok := le.Variant.(wire.Input)
	if !ok {
		return 0, false
	}
	return in.Value, true
}

// InterruptValue returns the entry's pending-interrupt bitmask and true
// if Kind == KindInterruptRequest.
func (le *LogEntry) InterruptValue() (uint32, bool) {
	ir, ok := le.Variant.(wire.InterruptRequest)
	if !ok {
		return 0, false
	}
	return ir.Value, true
}

// ExitCode returns the entry's exit code and true if Kind == KindExitRequest.
func (le *LogEntry) ExitCode() (uint32, bool) {
	er, ok := le.Variant.(wire.ExitRequest)
	if !ok {
		return 0, false
	}
	return er.Code, true
}
