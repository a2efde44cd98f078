// Package writer implements the RECORD-path serializer: one reused
// scratch buffer, a tracked file offset, and the typed Record* entry
// points that apply the interrupt/exit filters before ever touching the
// file.
package writer

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-ndlog/internal/interfaces"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// Writer serializes log entries to a single append-only file via
// positioned writes (golang.org/x/sys/unix.Pwrite) rather than buffered
// os.File access, on the hot record path.
type Writer struct {
	fd       int
	off      int64
	points   interfaces.ProgramPointSource
	logger   interfaces.Logger
	observer interfaces.Observer

	scratch []byte // reused across every Record* call

	lastInterruptValue uint32
	haveLastInterrupt  bool

	lastProgPoint wire.ProgramPoint
}

// New takes fd, a log file already opened for writing, writes a
// placeholder header (rewritten with the true last_prog_point by
// CloseSession), and returns a ready Writer. observer may be nil, in which
// case appends are not reported anywhere.
func New(fd int, points interfaces.ProgramPointSource, logger interfaces.Logger, observer interfaces.Observer) (*Writer, error) {
	w := &Writer{
		fd:       fd,
		off:      wire.HeaderSize,
		points:   points,
		logger:   logger,
		observer: observer,
		scratch:  make([]byte, 0, wire.EntryHeaderSize+64),
	}
	hdr := make([]byte, wire.HeaderSize)
	if err := w.pwriteAll(hdr, 0); err != nil {
		return nil, fmt.Errorf("writer: writing placeholder header: %w", err)
	}
	return w, nil
}

// Close rewrites the header with the true last_prog_point and closes
// the underlying file descriptor.
func (w *Writer) Close() error {
	hdr := make([]byte, wire.HeaderSize)
	wire.Header{LastProgPoint: w.lastProgPoint}.MarshalInto(hdr)
	if err := w.pwriteAll(hdr, 0); err != nil {
		return fmt.Errorf("writer: rewriting header: %w", err)
	}
	return unix.Close(w.fd)
}

// pwriteAll writes the whole of buf at off, treating a short write as
// fatal: record logs are not crash-safe beyond what the OS guarantees,
// so a partial write is not a condition record can recover from.
func (w *Writer) pwriteAll(buf []byte, off int64) error {
	for len(buf) > 0 {
		n, err := unix.Pwrite(w.fd, buf, off)
		if err != nil {
			if w.logger != nil {
				w.logger.Printf("fatal: write at offset %d failed: %v", off, err)
			}
			return err
		}
		if n == 0 {
			if w.logger != nil {
				w.logger.Printf("fatal: short write at offset %d", off)
			}
			return fmt.Errorf("writer: short write at offset %d", off)
		}
		buf = buf[n:]
		off += int64(n)
	}
	return nil
}

// appendEntry resets the scratch slot, marshals the header and fixed
// payload into it, then writes the fixed portion followed by any
// trailing buffer, advancing the tracked offset and last_prog_point.
func (w *Writer) appendEntry(kind wire.Kind, callsite wire.Callsite, fixedSize int, marshalFixed func([]byte), trailing []byte) error {
	point := w.points.CurrentProgramPoint()
	total := wire.EntryHeaderSize + fixedSize
	if cap(w.scratch) < total {
		w.scratch = make([]byte, total)
	} else {
		w.scratch = w.scratch[:total]
		for i := range w.scratch {
			w.scratch[i] = 0
		}
	}

	wire.EntryHeader{Point: point, Kind: kind, Callsite: callsite}.MarshalInto(w.scratch[:wire.EntryHeaderSize])
	if fixedSize > 0 {
		marshalFixed(w.scratch[wire.EntryHeaderSize:total])
	}

	if w.logger != nil {
		w.logger.Debugf("record %s at instr=%d callsite=%s", kind, point.GuestInstrCount, callsite)
	}

	if err := w.pwriteAll(w.scratch, w.off); err != nil {
		return err
	}
	w.off += int64(total)

	if len(trailing) > 0 {
		if err := w.pwriteAll(trailing, w.off); err != nil {
			return err
		}
		w.off += int64(len(trailing))
	}

	if kind != wire.KindLast {
		w.lastProgPoint = point
	}
	if w.observer != nil {
		w.observer.ObserveAppend(kind, total+len(trailing))
	}
	return nil
}

// RecordInput1 records an 8-bit input value at the given callsite.
func (w *Writer) RecordInput1(value uint8, callsite wire.Callsite) error {
	return w.appendEntry(wire.KindInput1, callsite, 1, func(b []byte) {
		wire.Input{Value: uint64(value)}.MarshalInto(b, wire.KindInput1)
	}, nil)
}

// RecordInput2 records a 16-bit input value at the given callsite.
func (w *Writer) RecordInput2(value uint16, callsite wire.Callsite) error {
	return w.appendEntry(wire.KindInput2, callsite, 2, func(b []byte) {
		wire.Input{Value: uint64(value)}.MarshalInto(b, wire.KindInput2)
	}, nil)
}

// RecordInput4 records a 32-bit input value at the given callsite.
func (w *Writer) RecordInput4(value uint32, callsite wire.Callsite) error {
	return w.appendEntry(wire.KindInput4, callsite, 4, func(b []byte) {
		wire.Input{Value: uint64(value)}.MarshalInto(b, wire.KindInput4)
	}, nil)
}

// RecordInput8 records a 64-bit input value at the given callsite.
func (w *Writer) RecordInput8(value uint64, callsite wire.Callsite) error {
	return w.appendEntry(wire.KindInput8, callsite, 8, func(b []byte) {
		wire.Input{Value: value}.MarshalInto(b, wire.KindInput8)
	}, nil)
}

// RecordInterruptRequest records a change in the CPU's pending-interrupt
// bitmask. It is a no-op when value equals the last recorded value
// (only edges are recorded).
func (w *Writer) RecordInterruptRequest(value uint32, callsite wire.Callsite) error {
	if w.haveLastInterrupt && value == w.lastInterruptValue {
		return nil
	}
	w.haveLastInterrupt = true
	w.lastInterruptValue = value
	return w.appendEntry(wire.KindInterruptRequest, callsite, wire.InterruptRequestWireSize, func(b []byte) {
		wire.InterruptRequest{Value: value}.MarshalInto(b)
	}, nil)
}

// RecordExitRequest records a guest exit code. It is a no-op for a zero
// code (a clean continuation is not recorded).
func (w *Writer) RecordExitRequest(code uint32, callsite wire.Callsite) error {
	if code == 0 {
		return nil
	}
	return w.appendEntry(wire.KindExitRequest, callsite, wire.ExitRequestWireSize, func(b []byte) {
		wire.ExitRequest{Code: code}.MarshalInto(b)
	}, nil)
}

func (w *Writer) recordSkippedCall(sub wire.SkippedCallKind, fixedSize int, marshalFixed func([]byte), trailing []byte, callsite wire.Callsite) error {
	return w.appendEntry(wire.KindSkippedCall, callsite, wire.SkippedCallKindWireSize+fixedSize, func(b []byte) {
		wire.MarshalSkippedCallKind(b[:wire.SkippedCallKindWireSize], sub)
		if fixedSize > 0 {
			marshalFixed(b[wire.SkippedCallKindWireSize:])
		}
	}, trailing)
}

// RecordCPUMemRW records a skipped guest-memory write of data at addr.
func (w *Writer) RecordCPUMemRW(addr uint64, data []byte, callsite wire.Callsite) error {
	c := wire.CPUMemRW{Addr: addr, Length: uint32(len(data))}
	return w.recordSkippedCall(wire.SkippedCPUMemRW, c.FixedSize(), func(b []byte) { c.MarshalFixedInto(b) }, data, callsite)
}

// RecordCPUMemUnmap records a skipped guest-memory write that occurred
// through an unmapped I/O buffer.
func (w *Writer) RecordCPUMemUnmap(addr uint64, data []byte, callsite wire.Callsite) error {
	c := wire.CPUMemUnmap{Addr: addr, Length: uint32(len(data))}
	return w.recordSkippedCall(wire.SkippedCPUMemUnmap, c.FixedSize(), func(b []byte) { c.MarshalFixedInto(b) }, data, callsite)
}

// RecordMemoryRegionChange records a guest memory region being mapped
// or unmapped.
func (w *Writer) RecordMemoryRegionChange(start, size uint64, memType uint32, name string, added bool, callsite wire.Callsite) error {
	addedFlag := uint32(0)
	if added {
		addedFlag = 1
	}
	m := wire.MemRegionChange{Start: start, Size: size, MemType: memType, Added: addedFlag, NameLength: uint32(len(name))}
	return w.recordSkippedCall(wire.SkippedMemRegionChange, m.FixedSize(), func(b []byte) { m.MarshalFixedInto(b) }, []byte(name), callsite)
}

// RecordHDTransfer records a skipped disk DMA transfer.
func (w *Writer) RecordHDTransfer(transferType uint32, src, dest, byteCount uint64, callsite wire.Callsite) error {
	tr := wire.Transfer{TransferType: transferType, Src: src, Dest: dest, Bytes: byteCount}
	return w.recordSkippedCall(wire.SkippedHDTransfer, tr.FixedSize(), func(b []byte) { tr.MarshalFixedInto(b) }, nil, callsite)
}

// RecordNetTransfer records a skipped network DMA transfer.
func (w *Writer) RecordNetTransfer(transferType uint32, src, dest, byteCount uint64, callsite wire.Callsite) error {
	tr := wire.Transfer{TransferType: transferType, Src: src, Dest: dest, Bytes: byteCount}
	return w.recordSkippedCall(wire.SkippedNetTransfer, tr.FixedSize(), func(b []byte) { tr.MarshalFixedInto(b) }, nil, callsite)
}

// RecordHandlePacket records a skipped network packet handed to the
// guest's virtual NIC.
func (w *Writer) RecordHandlePacket(direction uint32, data []byte, callsite wire.Callsite) error {
	h := wire.HandlePacket{Size: uint32(len(data)), Direction: direction}
	return w.recordSkippedCall(wire.SkippedHandlePacket, h.FixedSize(), func(b []byte) { h.MarshalFixedInto(b) }, data, callsite)
}

// RecordDebug appends a DEBUG checkpoint entry carrying no payload.
func (w *Writer) RecordDebug(callsite wire.Callsite) error {
	return w.appendEntry(wire.KindDebug, callsite, 0, nil, nil)
}

// recordLast appends the terminal LAST entry that marks a clean close
// of the log.
func (w *Writer) recordLast(callsite wire.Callsite) error {
	return w.appendEntry(wire.KindLast, callsite, 0, nil, nil)
}

// CloseSession ends the writer's session, appending a LAST entry before
// rewriting the header and closing the file descriptor.
func (w *Writer) CloseSession(callsite wire.Callsite) error {
	if err := w.recordLast(callsite); err != nil {
		return err
	}
	return w.Close()
}
