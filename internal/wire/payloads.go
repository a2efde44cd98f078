package wire

import (
	"encoding/binary"
)

// Every variant payload below implements manual little-endian
// marshal/unmarshal, mirroring the reference format's host struct
// layout rather than reflection. The buffer-pointer field the reference
// writes into CPU_MEM_RW, CPU_MEM_UNMAP, and HANDLE_PACKET is preserved as
// an explicit placeholder, always written as zero and ignored on read.

// Input is the payload for INPUT_1/2/4/8: a fixed-width integer value
// returned to the guest by an I/O port or MMIO read. Width is implied by
// the entry's Kind, not stored in the payload itself.
type Input struct {
	Value uint64 // widened; only the low InputWireSize(kind) bytes are significant/on-disk
}

// InputWireSize returns the on-disk size of the input value for the given kind.
func InputWireSize(k Kind) int {
	switch k {
	case KindInput1:
		return 1
	case KindInput2:
		return 2
	case KindInput4:
		return 4
	case KindInput8:
		return 8
	default:
		return 0
	}
}

// MarshalInto writes the low InputWireSize(k) bytes of the value, little-endian.
func (in Input) MarshalInto(buf []byte, k Kind) {
	switch k {
	case KindInput1:
		buf[0] = byte(in.Value)
	case KindInput2:
		binary.LittleEndian.PutUint16(buf[0:2], uint16(in.Value))
	case KindInput4:
		binary.LittleEndian.PutUint32(buf[0:4], uint32(in.Value))
	case KindInput8:
		binary.LittleEndian.PutUint64(buf[0:8], in.Value)
	}
}

// UnmarshalInput reads an Input of the given width from buf.
func UnmarshalInput(buf []byte, k Kind) Input {
	switch k {
	case KindInput1:
		return Input{Value: uint64(buf[0])}
	case KindInput2:
		return Input{Value: uint64(binary.LittleEndian.Uint16(buf[0:2]))}
	case KindInput4:
		return Input{Value: uint64(binary.LittleEndian.Uint32(buf[0:4]))}
	case KindInput8:
		return Input{Value: binary.LittleEndian.Uint64(buf[0:8])}
	default:
		return Input{}
	}
}

// InterruptRequest is the payload for INTERRUPT_REQUEST: the 32-bit new
// value of the CPU's pending-interrupt bitmask. The writer only emits
// this entry on transitions (see writer package).
type InterruptRequest struct {
	Value uint32
}

const InterruptRequestWireSize = 4

func (r InterruptRequest) MarshalInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], r.Value)
}

func UnmarshalInterruptRequest(buf []byte) InterruptRequest {
	return InterruptRequest{Value: binary.LittleEndian.Uint32(buf[0:4])}
}

// ExitRequest is the payload for EXIT_REQUEST: a 32-bit exit code,
// recorded only when nonzero.
type ExitRequest struct {
	Code uint32
}

const ExitRequestWireSize = 4

func (r ExitRequest) MarshalInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], r.Code)
}

func UnmarshalExitRequest(buf []byte) ExitRequest {
	return ExitRequest{Code: binary.LittleEndian.Uint32(buf[0:4])}
}

// CPUMemRW is the fixed-field struct for the CPU_MEM_RW skipped call:
// a guest address and a length, followed on disk by `Length` bytes of
// write data. BufPtr is the reference format's raw buffer pointer field,
// meaningless once read back; this implementation always writes zero.
type CPUMemRW struct {
	Addr   uint64
	BufPtr uint64 // on-disk placeholder, always zero, ignored on read
	Length uint32
}

const cpuMemRWFixedSize = 8 + 8 + 4

func (c CPUMemRW) MarshalFixedInto(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], c.Addr)
	binary.LittleEndian.PutUint64(buf[8:16], 0) // buffer-pointer placeholder
	binary.LittleEndian.PutUint32(buf[16:20], c.Length)
}

// FixedSize returns the on-disk size of CPUMemRW's fixed fields, not
// including its trailing write-data buffer.
func (c CPUMemRW) FixedSize() int { return cpuMemRWFixedSize }

func UnmarshalCPUMemRWFixed(buf []byte) CPUMemRW {
	return CPUMemRW{
		Addr:   binary.LittleEndian.Uint64(buf[0:8]),
		BufPtr: 0,
		Length: binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// CPUMemUnmap has the identical wire shape to CPUMemRW: a guest address
// and length, followed by `Length` bytes of write data.
type CPUMemUnmap = CPUMemRW

func UnmarshalCPUMemUnmapFixed(buf []byte) CPUMemUnmap { return UnmarshalCPUMemRWFixed(buf) }

// MemRegionChange is the fixed-field struct for the MEM_REGION_CHANGE
// skipped call, followed on disk by NameLength bytes of region name.
type MemRegionChange struct {
	Start      uint64
	Size       uint64
	MemType    uint32
	Added      uint32 // 1 = region added, 0 = removed
	NameLength uint32
}

const memRegionChangeFixedSize = 8 + 8 + 4 + 4 + 4

// FixedSize returns the on-disk size of MemRegionChange's fixed fields,
// not including its trailing name buffer.
func (m MemRegionChange) FixedSize() int { return memRegionChangeFixedSize }

func (m MemRegionChange) MarshalFixedInto(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], m.Start)
	binary.LittleEndian.PutUint64(buf[8:16], m.Size)
	binary.LittleEndian.PutUint32(buf[16:20], m.MemType)
	binary.LittleEndian.PutUint32(buf[20:24], m.Added)
	binary.LittleEndian.PutUint32(buf[24:28], m.NameLength)
}

func UnmarshalMemRegionChangeFixed(buf []byte) MemRegionChange {
	return MemRegionChange{
		Start:      binary.LittleEndian.Uint64(buf[0:8]),
		Size:       binary.LittleEndian.Uint64(buf[8:16]),
		MemType:    binary.LittleEndian.Uint32(buf[16:20]),
		Added:      binary.LittleEndian.Uint32(buf[20:24]),
		NameLength: binary.LittleEndian.Uint32(buf[24:28]),
	}
}

// Transfer is the fixed-field struct shared by HD_TRANSFER and
// NET_TRANSFER: a transfer-type tag, source and destination addresses,
// and a byte count. Neither carries a trailing buffer.
type Transfer struct {
	TransferType uint32
	Src          uint64
	Dest         uint64
	Bytes        uint64
}

const transferFixedSize = 4 + 8 + 8 + 8

// FixedSize returns the on-disk size of Transfer, which carries no
// trailing buffer.
func (t Transfer) FixedSize() int { return transferFixedSize }

func (t Transfer) MarshalFixedInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], t.TransferType)
	binary.LittleEndian.PutUint64(buf[4:12], t.Src)
	binary.LittleEndian.PutUint64(buf[12:20], t.Dest)
	binary.LittleEndian.PutUint64(buf[20:28], t.Bytes)
}

func UnmarshalTransferFixed(buf []byte) Transfer {
	return Transfer{
		TransferType: binary.LittleEndian.Uint32(buf[0:4]),
		Src:          binary.LittleEndian.Uint64(buf[4:12]),
		Dest:         binary.LittleEndian.Uint64(buf[12:20]),
		Bytes:        binary.LittleEndian.Uint64(buf[20:28]),
	}
}

// HandlePacket is the fixed-field struct for the HANDLE_PACKET skipped
// call, followed on disk by `Size` bytes of packet data. BufPtr mirrors
// the reference format's raw buffer pointer field (always zero here).
type HandlePacket struct {
	Size      uint32
	Direction uint32
	BufPtr    uint64 // on-disk placeholder, always zero, ignored on read
}

const handlePacketFixedSize = 4 + 4 + 8

// FixedSize returns the on-disk size of HandlePacket's fixed fields,
// not including its trailing packet-data buffer.
func (h HandlePacket) FixedSize() int { return handlePacketFixedSize }

func (h HandlePacket) MarshalFixedInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Size)
	binary.LittleEndian.PutUint32(buf[4:8], h.Direction)
	binary.LittleEndian.PutUint64(buf[8:16], 0) // buffer-pointer placeholder
}

func UnmarshalHandlePacketFixed(buf []byte) HandlePacket {
	return HandlePacket{
		Size:      binary.LittleEndian.Uint32(buf[0:4]),
		Direction: binary.LittleEndian.Uint32(buf[4:8]),
		BufPtr:    0,
	}
}

// SkippedCallKindWireSize is the on-disk size of the sub-kind tag that
// begins every SKIPPED_CALL variant payload.
const SkippedCallKindWireSize = 4

func MarshalSkippedCallKind(buf []byte, k SkippedCallKind) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(k))
}

func UnmarshalSkippedCallKind(buf []byte) SkippedCallKind {
	return SkippedCallKind(binary.LittleEndian.Uint32(buf[0:4]))
}

// FixedSize returns the on-disk size of the fixed-field struct for a
// SKIPPED_CALL sub-kind, not including the leading sub-kind tag or any
// trailing buffer.
func (s SkippedCallKind) FixedSize() int {
	switch s {
	case SkippedCPUMemRW, SkippedCPUMemUnmap:
		return cpuMemRWFixedSize
	case SkippedMemRegionChange:
		return memRegionChangeFixedSize
	case SkippedHDTransfer, SkippedNetTransfer:
		return transferFixedSize
	case SkippedHandlePacket:
		return handlePacketFixedSize
	default:
		return 0
	}
}
