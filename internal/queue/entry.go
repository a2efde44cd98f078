// Package queue implements the look-ahead FIFO that sits between the
// reader and the replaying emulator, the free-list allocator that backs
// it, and the diagnostic history ring kept for post-mortem reporting on
// divergence.
package queue

import "github.com/ehrlich-b/go-ndlog/internal/wire"

// Entry is the owning, in-memory runtime representation of one log
// entry: the fixed header, a typed variant (one of the payload structs
// in package wire, or nil for DEBUG/LAST), a trailing buffer for the
// buffer-carrying SKIPPED_CALL sub-kinds (CPU_MEM_RW, CPU_MEM_UNMAP,
// HANDLE_PACKET, and MEM_REGION_CHANGE's region name), the byte offset of the
// entry's first byte in the log file, and a free-list/FIFO link.
//
// This is the "struct with tag plus explicit owning buffer" shape
// rather than a raw pointer+length pair: Buf is always entry-owned,
// recycled through Allocator rather than handed out and forgotten.
type Entry struct {
	Header wire.EntryHeader
	Variant any
	Buf     []byte
	FilePos int64

	// SkippedKind is only meaningful when Header.Kind == wire.KindSkippedCall;
	// it carries the sub-kind tag the reader parsed, since the HD_TRANSFER
	// and NET_TRANSFER sub-kinds share an identical Variant struct (wire.Transfer)
	// and would otherwise be indistinguishable once read back.
	SkippedKind wire.SkippedCallKind

	next      *Entry
	bufPooled bool
}

// reset clears an entry for reuse without releasing the node itself;
// the allocator separately decides whether to return Buf to the buffer
// pool before or after calling this.
func (e *Entry) reset() {
	e.Header = wire.EntryHeader{}
	e.Variant = nil
	e.Buf = nil
	e.FilePos = 0
	e.SkippedKind = 0
	e.next = nil
	e.bufPooled = false
}

// Kind is a convenience accessor used throughout the queue and reader.
func (e *Entry) Kind() wire.Kind {
	return e.Header.Kind
}

// Point is a convenience accessor for the entry's program point.
func (e *Entry) Point() wire.ProgramPoint {
	return e.Header.Point
}

// Copy returns a value copy of the entry's header, variant, and file
// position, with Buf set to nil. Used by the history ring, which keeps
// diagnostic copies without pinning trailing buffers in memory.
func (e *Entry) Copy() Entry {
	return Entry{Header: e.Header, Variant: e.Variant, FilePos: e.FilePos, SkippedKind: e.SkippedKind}
}
