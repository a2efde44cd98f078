package wire

import "encoding/binary"

// ProgramPointSize is the on-disk size of a ProgramPoint (three uint64s).
const ProgramPointSize = 24

// ProgramPoint is the deterministic triple (guest_instr_count, pc,
// secondary) that keys every log entry. guest_instr_count is the
// authoritative clock; pc and secondary are advisory and carried through
// unchanged.
type ProgramPoint struct {
	GuestInstrCount uint64
	PC              uint64
	Secondary       uint64
}

// MarshalInto writes the program point into buf[:24] little-endian.
func (p ProgramPoint) MarshalInto(buf []byte) {
	_ = buf[23]
	binary.LittleEndian.PutUint64(buf[0:8], p.GuestInstrCount)
	binary.LittleEndian.PutUint64(buf[8:16], p.PC)
	binary.LittleEndian.PutUint64(buf[16:24], p.Secondary)
}

// UnmarshalProgramPoint reads a ProgramPoint from buf[:24].
func UnmarshalProgramPoint(buf []byte) ProgramPoint {
	_ = buf[23]
	return ProgramPoint{
		GuestInstrCount: binary.LittleEndian.Uint64(buf[0:8]),
		PC:              binary.LittleEndian.Uint64(buf[8:16]),
		Secondary:       binary.LittleEndian.Uint64(buf[16:24]),
	}
}

// Less reports whether p sorts strictly before q by guest_instr_count,
// the only field treated as authoritative for replay ordering.
func (p ProgramPoint) Less(q ProgramPoint) bool {
	return p.GuestInstrCount < q.GuestInstrCount
}

// Header is the 24-byte on-disk log file header: the highest
// guest_instr_count seen during record (last_prog_point).
type Header struct {
	LastProgPoint ProgramPoint
}

// MarshalInto writes the header into buf[:HeaderSize].
func (h Header) MarshalInto(buf []byte) {
	h.LastProgPoint.MarshalInto(buf)
}

// UnmarshalHeader reads a Header from buf[:HeaderSize].
func UnmarshalHeader(buf []byte) Header {
	return Header{LastProgPoint: UnmarshalProgramPoint(buf)}
}
