package ndlog

import (
	"github.com/ehrlich-b/go-ndlog/internal/constants"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// Re-export constants for public API.
const (
	MaxQueueLen              = constants.MaxQueueLen
	HistorySize              = constants.HistorySize
	LogFileSuffix            = constants.LogFileSuffix
	SnapshotDirSuffix        = constants.SnapshotDirSuffix
	ProgressThresholdPercent = constants.ProgressThresholdPercent
)

// Kind discriminates the tagged union of log entries.
type Kind = wire.Kind

// Entry kind constants, re-exported for callers that only need the
// public API and shouldn't have to import internal/wire.
const (
	KindInput1           = wire.KindInput1
	KindInput2           = wire.KindInput2
	KindInput4           = wire.KindInput4
	KindInput8           = wire.KindInput8
	KindInterruptRequest = wire.KindInterruptRequest
	KindExitRequest      = wire.KindExitRequest
	KindSkippedCall      = wire.KindSkippedCall
	KindDebug            = wire.KindDebug
	KindLast             = wire.KindLast
)

// Callsite names where in the emulator's control flow an event was
// recorded or is being replayed.
type Callsite = wire.Callsite

const (
	CallsiteUnknown      = wire.CallsiteUnknown
	CallsiteCPULoop      = wire.CallsiteCPULoop
	CallsiteMainLoopWait = wire.CallsiteMainLoopWait
	CallsiteMonitor      = wire.CallsiteMonitor
)

// ProgramPoint identifies a point in the guest's deterministic
// instruction stream.
type ProgramPoint = wire.ProgramPoint
