package wire

import "encoding/binary"

// EntryHeader is the (P, K, CS) tuple written before every entry's
// variant payload: 24 + 4 + 4 = 32 bytes, no padding.
type EntryHeader struct {
	Point    ProgramPoint
	Kind     Kind
	Callsite Callsite
}

// MarshalInto writes the entry header into buf[:EntryHeaderSize].
func (h EntryHeader) MarshalInto(buf []byte) {
	_ = buf[EntryHeaderSize-1]
	h.Point.MarshalInto(buf[0:ProgramPointSize])
	binary.LittleEndian.PutUint32(buf[ProgramPointSize:ProgramPointSize+4], uint32(h.Kind))
	binary.LittleEndian.PutUint32(buf[ProgramPointSize+4:ProgramPointSize+8], uint32(h.Callsite))
}

// UnmarshalEntryHeader reads an EntryHeader from buf[:EntryHeaderSize].
func UnmarshalEntryHeader(buf []byte) EntryHeader {
	_ = buf[EntryHeaderSize-1]
	return EntryHeader{
		Point:    UnmarshalProgramPoint(buf[0:ProgramPointSize]),
		Kind:     Kind(binary.LittleEndian.Uint32(buf[ProgramPointSize : ProgramPointSize+4])),
		Callsite: Callsite(binary.LittleEndian.Uint32(buf[ProgramPointSize+4 : ProgramPointSize+8])),
	}
}
