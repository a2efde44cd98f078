// Package wire defines the on-disk binary format of the non-deterministic
// event log: program points, entry headers, and the per-kind variant
// payloads. Every type here is encoded little-endian regardless of host,
// with no padding inserted between fields (see marshal/unmarshal pairs in
// payloads.go).
package wire

// Kind discriminates the tagged union of log entries.
type Kind uint32

const (
	KindInput1 Kind = iota
	KindInput2
	KindInput4
	KindInput8
	KindInterruptRequest
	KindExitRequest
	KindSkippedCall
	KindDebug
	KindLast
)

func (k Kind) String() string {
	switch k {
	case KindInput1:
		return "INPUT_1"
	case KindInput2:
		return "INPUT_2"
	case KindInput4:
		return "INPUT_4"
	case KindInput8:
		return "INPUT_8"
	case KindInterruptRequest:
		return "INTERRUPT_REQUEST"
	case KindExitRequest:
		return "EXIT_REQUEST"
	case KindSkippedCall:
		return "SKIPPED_CALL"
	case KindDebug:
		return "DEBUG"
	case KindLast:
		return "LAST"
	default:
		return "UNKNOWN"
	}
}

// SkippedCallKind discriminates the SKIPPED_CALL sub-kinds. Written as a
// 4-byte tag at the start of the SKIPPED_CALL variant payload.
type SkippedCallKind uint32

const (
	SkippedCPUMemRW SkippedCallKind = iota
	SkippedCPUMemUnmap
	SkippedMemRegionChange
	SkippedHDTransfer
	SkippedNetTransfer
	SkippedHandlePacket
)

func (s SkippedCallKind) String() string {
	switch s {
	case SkippedCPUMemRW:
		return "CPU_MEM_RW"
	case SkippedCPUMemUnmap:
		return "CPU_MEM_UNMAP"
	case SkippedMemRegionChange:
		return "MEM_REGION_CHANGE"
	case SkippedHDTransfer:
		return "HD_TRANSFER"
	case SkippedNetTransfer:
		return "NET_TRANSFER"
	case SkippedHandlePacket:
		return "HANDLE_PACKET"
	default:
		return "UNKNOWN"
	}
}

// Callsite names where in the emulator's control flow an event was
// recorded or is being replayed. Carried verbatim, checked only when the
// consumer asks for it.
type Callsite uint32

const (
	CallsiteUnknown Callsite = iota
	CallsiteCPULoop
	CallsiteMainLoopWait
	CallsiteMonitor
)

func (c Callsite) String() string {
	switch c {
	case CallsiteCPULoop:
		return "CPU_LOOP"
	case CallsiteMainLoopWait:
		return "MAIN_LOOP_WAIT"
	case CallsiteMonitor:
		return "MONITOR"
	default:
		return "UNKNOWN"
	}
}

const (
	// HeaderSize is the on-disk size of the log file header: a single
	// ProgramPoint giving the highest guest_instr_count seen during record.
	HeaderSize = ProgramPointSize

	// EntryHeaderSize is the on-disk size of the (P, K, CS) tuple that
	// precedes every entry's variant payload.
	EntryHeaderSize = ProgramPointSize + 4 + 4
)
