package ndlog

import "github.com/ehrlich-b/go-ndlog/internal/wire"

// RecordInput1 records an 8-bit input value at callsite.
// Calling this outside RECORD mode is reported as ErrCodeWrongMode.
func (e *Engine) RecordInput1(value uint8, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordInput1")
	if err != nil {
		return err
	}
	return wrapErr("RecordInput1", w.RecordInput1(value, callsite))
}

// RecordInput2 records a 16-bit input value at callsite.
func (e *Engine) RecordInput2(value uint16, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordInput2")
	if err != nil {
		return err
	}
	return wrapErr("RecordInput2", w.RecordInput2(value, callsite))
}

// RecordInput4 records a 32-bit input value at callsite.
func (e *Engine) RecordInput4(value uint32, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordInput4")
	if err != nil {
		return err
	}
	return wrapErr("RecordInput4", w.RecordInput4(value, callsite))
}

// RecordInput8 records a 64-bit input value at callsite.
func (e *Engine) RecordInput8(value uint64, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordInput8")
	if err != nil {
		return err
	}
	return wrapErr("RecordInput8", w.RecordInput8(value, callsite))
}

// RecordInterruptRequest records a change in the CPU's pending-interrupt
// bitmask. A value equal to the last recorded one is silently elided.
func (e *Engine) RecordInterruptRequest(value uint32, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordInterruptRequest")
	if err != nil {
		return err
	}
	return wrapErr("RecordInterruptRequest", w.RecordInterruptRequest(value, callsite))
}

// RecordExitRequest records a guest exit code. A zero code is silently
// elided.
func (e *Engine) RecordExitRequest(code uint32, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordExitRequest")
	if err != nil {
		return err
	}
	return wrapErr("RecordExitRequest", w.RecordExitRequest(code, callsite))
}

// RecordCPUMemRW records a skipped guest-memory write of data at addr.
func (e *Engine) RecordCPUMemRW(addr uint64, data []byte, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordCPUMemRW")
	if err != nil {
		return err
	}
	return wrapErr("RecordCPUMemRW", w.RecordCPUMemRW(addr, data, callsite))
}

// RecordCPUMemUnmap records a skipped guest-memory write that occurred
// through an unmapped I/O buffer.
func (e *Engine) RecordCPUMemUnmap(addr uint64, data []byte, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordCPUMemUnmap")
	if err != nil {
		return err
	}
	return wrapErr("RecordCPUMemUnmap", w.RecordCPUMemUnmap(addr, data, callsite))
}

// RecordMemoryRegionChange records a guest memory region being mapped or
// unmapped.
func (e *Engine) RecordMemoryRegionChange(start, size uint64, memType uint32, name string, added bool, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordMemoryRegionChange")
	if err != nil {
		return err
	}
	return wrapErr("RecordMemoryRegionChange", w.RecordMemoryRegionChange(start, size, memType, name, added, callsite))
}

// RecordHDTransfer records a skipped disk DMA transfer.
func (e *Engine) RecordHDTransfer(transferType uint32, src, dest, byteCount uint64, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordHDTransfer")
	if err != nil {
		return err
	}
	return wrapErr("RecordHDTransfer", w.RecordHDTransfer(transferType, src, dest, byteCount, callsite))
}

// RecordNetTransfer records a skipped network DMA transfer.
func (e *Engine) RecordNetTransfer(transferType uint32, src, dest, byteCount uint64, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordNetTransfer")
	if err != nil {
		return err
	}
	return wrapErr("RecordNetTransfer", w.RecordNetTransfer(transferType, src, dest, byteCount, callsite))
}

// RecordHandlePacket records a skipped network packet handed to the
// guest's virtual NIC.
func (e *Engine) RecordHandlePacket(direction uint32, data []byte, callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordHandlePacket")
	if err != nil {
		return err
	}
	return wrapErr("RecordHandlePacket", w.RecordHandlePacket(direction, data, callsite))
}

// RecordDebug appends a DEBUG checkpoint entry carrying no payload.
func (e *Engine) RecordDebug(callsite wire.Callsite) error {
	w, err := e.writerOrErr("RecordDebug")
	if err != nil {
		return err
	}
	return wrapErr("RecordDebug", w.RecordDebug(callsite))
}
