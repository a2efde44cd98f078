// Package interfaces provides internal interface definitions for go-ndlog.
// These are separate from the public package to avoid circular imports
// between the root package and its internals: the emulator-facing
// collaborator interfaces live here, package wire/queue/writer/reader
// depend on them, and the root package implements or consumes them.
package interfaces

import "github.com/ehrlich-b/go-ndlog/internal/wire"

// ProgramPointSource reports the emulator's current program point. The
// log's idea of "now" is always this value, never a wall-clock read.
type ProgramPointSource interface {
	CurrentProgramPoint() wire.ProgramPoint
}

// Comparator orders the emulator's current program point against a
// logged one for a given event kind, returning <0, 0, or >0 the way
// bytes.Compare does. Replay uses this to decide whether to consume,
// wait, or fatally diverge on the head of the look-ahead queue.
type Comparator interface {
	Compare(current, logged wire.ProgramPoint, kind wire.Kind) int
}

// MemoryApplier replays the side effects of entries the record pass
// skipped because they only restate CPU-visible memory and device
// address-space state already implied by guest instruction execution.
type MemoryApplier interface {
	ApplyCPUMemRW(addr uint64, data []byte) error
	ApplyCPUMemUnmap(addr uint64, data []byte) error
	ApplyMemoryRegionChange(start, size uint64, memType uint32, name string, added bool) error
}

// CPULoopController lets replay break the emulator out of its inner
// instruction-execution loop: replay calls it after consuming an
// EXIT_REQUEST entry and when it detects a divergence.
type CPULoopController interface {
	QuitCPULoop()
}

// SnapshotProvider captures or restores whole-machine state at a named
// checkpoint. BeginRecordFrom and the rr-snp naming convention depend on
// this being implemented by the emulator, not by the log itself.
type SnapshotProvider interface {
	TakeSnapshot(name string) error
	LoadSnapshot(name string) error
}

// Logger is the narrow logging surface the ndlog packages depend on.
// Satisfied by *logging.Logger; tests may supply a recording stub.
type Logger interface {
	Printf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Observer receives metrics events from the writer and the look-ahead
// queue. Implementations must be safe to call from the
// single vCPU thread the rest of ndlog is confined to; no cross-thread
// synchronization is assumed of the caller.
type Observer interface {
	ObserveAppend(kind wire.Kind, bytes int)
	ObserveConsume(kind wire.Kind)
	ObserveFillQueue(depth int)
	ObserveDivergence(expected, actual wire.ProgramPoint, kind wire.Kind)
}
