// Package reader implements the REPLAY-path deserializer: it parses
// exactly one entry at a time off a tracked file cursor, lazily, the
// way perffile's record reader advances one record at a time rather
// than decoding a whole file up front.
package reader

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-ndlog/internal/interfaces"
	"github.com/ehrlich-b/go-ndlog/internal/queue"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// Reader parses log entries one at a time from a file opened for
// reading, via positioned reads (golang.org/x/sys/unix.Pread), tracking
// its own cursor rather than relying on the file descriptor's seek
// position.
type Reader struct {
	fd     int
	size   int64
	off    int64
	logger interfaces.Logger

	fixedBuf [64]byte // scratch for header + the largest fixed payload
}

// Open reads the file's size via Fstat and the 24-byte header, and
// returns a Reader positioned at the first entry.
func Open(fd int, logger interfaces.Logger) (*Reader, wire.Header, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, wire.Header{}, fmt.Errorf("reader: fstat: %w", err)
	}
	hdrBuf := make([]byte, wire.HeaderSize)
	if err := preadFull(fd, hdrBuf, 0); err != nil {
		return nil, wire.Header{}, fmt.Errorf("reader: reading header: %w", err)
	}
	r := &Reader{
		fd:     fd,
		size:   st.Size,
		off:    wire.HeaderSize,
		logger: logger,
	}
	return r, wire.UnmarshalHeader(hdrBuf), nil
}

// Close closes the underlying file descriptor.
func (r *Reader) Close() error {
	return unix.Close(r.fd)
}

// preadFull reads exactly len(buf) bytes at off, returning io.ErrUnexpectedEOF
// on any short read, including one that lands exactly on end-of-file (the
// caller is responsible for distinguishing clean EOF from a truncated record).
func preadFull(fd int, buf []byte, off int64) error {
	read := 0
	for read < len(buf) {
		n, err := unix.Pread(fd, buf[read:], off+int64(read))
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
		read += n
	}
	return nil
}

// Next implements queue.Source: it parses exactly one entry (header,
// then kind-specific fixed payload, then any trailing buffer) and
// advances the cursor past it. It returns (nil, nil) only when the
// cursor sits exactly at end-of-file with no partial entry; any other
// short read is a fatal, non-nil error.
func (r *Reader) Next(alloc *queue.Allocator) (*queue.Entry, error) {
	if r.off == r.size {
		return nil, nil
	}
	if r.off > r.size {
		return nil, fmt.Errorf("reader: cursor %d past end of file (size %d)", r.off, r.size)
	}

	hdrBuf := r.fixedBuf[:wire.EntryHeaderSize]
	if err := preadFull(r.fd, hdrBuf, r.off); err != nil {
		return nil, fmt.Errorf("reader: short read at offset %d (truncated entry): %w", r.off, err)
	}
	header := wire.UnmarshalEntryHeader(hdrBuf)
	entryStart := r.off
	r.off += wire.EntryHeaderSize

	e := alloc.Get()
	e.Header = header
	e.FilePos = entryStart

	if err := r.readVariant(e, alloc); err != nil {
		return nil, err
	}

	if r.logger != nil {
		r.logger.Debugf("read %s at instr=%d file_pos=%d", header.Kind, header.Point.GuestInstrCount, entryStart)
	}
	return e, nil
}

func (r *Reader) readVariant(e *queue.Entry, alloc *queue.Allocator) error {
	switch e.Header.Kind {
	case wire.KindInput1, wire.KindInput2, wire.KindInput4, wire.KindInput8:
		size := wire.InputWireSize(e.Header.Kind)
		buf := r.fixedBuf[:size]
		if err := preadFull(r.fd, buf, r.off); err != nil {
			return fmt.Errorf("reader: short read of input payload at offset %d: %w", r.off, err)
		}
		e.Variant = wire.UnmarshalInput(buf, e.Header.Kind)
		r.off += int64(size)
		return nil

	case wire.KindInterruptRequest:
		buf := r.fixedBuf[:wire.InterruptRequestWireSize]
		if err := preadFull(r.fd, buf, r.off); err != nil {
			return fmt.Errorf("reader: short read of interrupt payload at offset %d: %w", r.off, err)
		}
		e.Variant = wire.UnmarshalInterruptRequest(buf)
		r.off += wire.InterruptRequestWireSize
		return nil

	case wire.KindExitRequest:
		buf := r.fixedBuf[:wire.ExitRequestWireSize]
		if err := preadFull(r.fd, buf, r.off); err != nil {
			return fmt.Errorf("reader: short read of exit payload at offset %d: %w", r.off, err)
		}
		e.Variant = wire.UnmarshalExitRequest(buf)
		r.off += wire.ExitRequestWireSize
		return nil

	case wire.KindSkippedCall:
		return r.readSkippedCall(e, alloc)

	case wire.KindDebug, wire.KindLast:
		e.Variant = nil
		return nil

	default:
		return fmt.Errorf("reader: unknown kind %d at offset %d", e.Header.Kind, r.off)
	}
}

func (r *Reader) readSkippedCall(e *queue.Entry, alloc *queue.Allocator) error {
	tagBuf := r.fixedBuf[:wire.SkippedCallKindWireSize]
	if err := preadFull(r.fd, tagBuf, r.off); err != nil {
		return fmt.Errorf("reader: short read of skipped-call tag at offset %d: %w", r.off, err)
	}
	sub := wire.UnmarshalSkippedCallKind(tagBuf)
	r.off += wire.SkippedCallKindWireSize

	fixedSize := sub.FixedSize()
	fixedBuf := r.fixedBuf[:fixedSize]
	if err := preadFull(r.fd, fixedBuf, r.off); err != nil {
		return fmt.Errorf("reader: short read of skipped-call fixed fields at offset %d: %w", r.off, err)
	}
	r.off += int64(fixedSize)
	e.SkippedKind = sub

	switch sub {
	case wire.SkippedCPUMemRW:
		c := wire.UnmarshalCPUMemRWFixed(fixedBuf)
		if err := r.readTrailing(e, alloc, c.Length); err != nil {
			return err
		}
		c.BufPtr = 0
		e.Variant = c
	case wire.SkippedCPUMemUnmap:
		c := wire.UnmarshalCPUMemUnmapFixed(fixedBuf)
		if err := r.readTrailing(e, alloc, c.Length); err != nil {
			return err
		}
		c.BufPtr = 0
		e.Variant = c
	case wire.SkippedMemRegionChange:
		m := wire.UnmarshalMemRegionChangeFixed(fixedBuf)
		if err := r.readTrailing(e, alloc, m.NameLength); err != nil {
			return err
		}
		e.Variant = m
	case wire.SkippedHDTransfer, wire.SkippedNetTransfer:
		e.Variant = wire.UnmarshalTransferFixed(fixedBuf)
	case wire.SkippedHandlePacket:
		h := wire.UnmarshalHandlePacketFixed(fixedBuf)
		if err := r.readTrailing(e, alloc, h.Size); err != nil {
			return err
		}
		h.BufPtr = 0
		e.Variant = h
	default:
		return fmt.Errorf("reader: unknown skipped-call sub-kind %d at offset %d", sub, r.off)
	}
	return nil
}

func (r *Reader) readTrailing(e *queue.Entry, alloc *queue.Allocator, n uint32) error {
	if n == 0 {
		return nil
	}
	buf := alloc.NewBuffer(e, n)
	if err := preadFull(r.fd, buf, r.off); err != nil {
		return fmt.Errorf("reader: short read of %d-byte trailing buffer at offset %d: %w", n, r.off, err)
	}
	e.Buf = buf
	r.off += int64(n)
	return nil
}
