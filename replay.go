package ndlog

import (
	"github.com/ehrlich-b/go-ndlog/internal/lifecycle"
	"github.com/ehrlich-b/go-ndlog/internal/queue"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// getNext implements the consume algorithm shared by every typed
// Replay* method: it fills the queue if empty, compares the current
// program point against the head via the Comparator collaborator, and
// returns the matched entry, or (nil, nil) if replay should wait, or a
// *DivergenceError if the current point has run past the log (after
// asking the CPULoopController, when one is configured, to quit its loop).
func (e *Engine) getNext(op string, kind wire.Kind, callsite wire.Callsite, checkCallsite bool) (*queue.Entry, error) {
	if e.ctrl.Mode() != lifecycle.ModeReplay {
		return nil, NewError(op, ErrCodeWrongMode, "engine is not replaying")
	}
	q := e.ctrl.Queue()
	if q.Empty() {
		if err := q.FillQueue(callsite); err != nil {
			return nil, WrapError(op, err)
		}
	}

	current := e.points.CurrentProgramPoint()
	entry, result := q.GetNext(e.comparator, current, kind, callsite, checkCallsite)
	switch result {
	case queue.CompareMatch:
		return entry, nil
	case queue.CompareBehind:
		return nil, nil
	default: // queue.CompareDiverged
		if e.cpuLoop != nil {
			e.cpuLoop.QuitCPULoop()
		}
		head := q.Peek()
		expectedPoint, expectedKind := current, kind
		if head != nil {
			expectedPoint, expectedKind = head.Point(), head.Kind()
		}
		return nil, &DivergenceError{Expected: expectedPoint, Actual: current, Kind: expectedKind}
	}
}

// recycle returns e to the history ring and the free list. Callers must
// finish using any payload or trailing buffer e carries before calling
// this: the buffer may be handed back to the pool and reused.
func (e *Engine) recycle(entry *queue.Entry) {
	e.ctrl.History().Record(entry)
	e.ctrl.Allocator().Put(entry)
}

func replayInput(e *Engine, op string, kind wire.Kind, callsite wire.Callsite, checkCallsite bool) (uint64, bool, error) {
	entry, err := e.getNext(op, kind, callsite, checkCallsite)
	if err != nil || entry == nil {
		return 0, false, err
	}
	in, _ := entry.Variant.(wire.Input)
	e.recycle(entry)
	return in.Value, true, nil
}

// ReplayInput1 consumes the next INPUT_1 entry matching callsite, if the
// current program point has reached it. ok is false (with a nil error)
// when replay has not yet reached the logged point.
func (e *Engine) ReplayInput1(callsite wire.Callsite, checkCallsite bool) (value uint8, ok bool, err error) {
	v, ok, err := replayInput(e, "ReplayInput1", wire.KindInput1, callsite, checkCallsite)
	return uint8(v), ok, err
}

// ReplayInput2 consumes the next INPUT_2 entry matching callsite.
func (e *Engine) ReplayInput2(callsite wire.Callsite, checkCallsite bool) (value uint16, ok bool, err error) {
	v, ok, err := replayInput(e, "ReplayInput2", wire.KindInput2, callsite, checkCallsite)
	return uint16(v), ok, err
}

// ReplayInput4 consumes the next INPUT_4 entry matching callsite.
func (e *Engine) ReplayInput4(callsite wire.Callsite, checkCallsite bool) (value uint32, ok bool, err error) {
	v, ok, err := replayInput(e, "ReplayInput4", wire.KindInput4, callsite, checkCallsite)
	return uint32(v), ok, err
}

// ReplayInput8 consumes the next INPUT_8 entry matching callsite.
func (e *Engine) ReplayInput8(callsite wire.Callsite, checkCallsite bool) (value uint64, ok bool, err error) {
	return replayInput(e, "ReplayInput8", wire.KindInput8, callsite, checkCallsite)
}

// ReplayInterruptRequest consumes the next INTERRUPT_REQUEST entry
// matching callsite. On a match it immediately refills the queue,
// preserving the invariant that the next interrupt-shaped stop point is
// already queued.
func (e *Engine) ReplayInterruptRequest(callsite wire.Callsite, checkCallsite bool) (value uint32, ok bool, err error) {
	entry, err := e.getNext("ReplayInterruptRequest", wire.KindInterruptRequest, callsite, checkCallsite)
	if err != nil || entry == nil {
		return 0, false, err
	}
	ir, _ := entry.Variant.(wire.InterruptRequest)
	e.recycle(entry)
	if err := e.ctrl.Queue().FillQueue(callsite); err != nil {
		return ir.Value, true, WrapError("ReplayInterruptRequest", err)
	}
	return ir.Value, true, nil
}

// ReplayExitRequest consumes the next EXIT_REQUEST entry matching
// callsite. Because record elides zero exit codes, a caller observing
// no matching entry gets code 0 and a nil error rather than "not found".
func (e *Engine) ReplayExitRequest(callsite wire.Callsite, checkCallsite bool) (code uint32, err error) {
	entry, err := e.getNext("ReplayExitRequest", wire.KindExitRequest, callsite, checkCallsite)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, nil
	}
	er, _ := entry.Variant.(wire.ExitRequest)
	e.recycle(entry)
	if e.cpuLoop != nil {
		e.cpuLoop.QuitCPULoop()
	}
	return er.Code, nil
}

// ReplayDebug advisorily drains leading DEBUG entries whose
// guest_instr_count is at or before the current program point. An
// entry strictly ahead of current is left in the queue.
func (e *Engine) ReplayDebug() error {
	if e.ctrl.Mode() != lifecycle.ModeReplay {
		return NewError("ReplayDebug", ErrCodeWrongMode, "engine is not replaying")
	}
	current := e.points.CurrentProgramPoint()
	for _, entry := range e.ctrl.Queue().PopDebug(current) {
		e.recycle(entry)
	}
	return nil
}

// applySkippedCall dispatches one SKIPPED_CALL entry's effects to the
// MemoryApplier collaborator based on its sub-kind. HD_TRANSFER and
// NET_TRANSFER carry no memory effect to replay (the DMA engine itself
// is outside the log's scope) and are reported but otherwise no-ops.
func (e *Engine) applySkippedCall(entry *queue.Entry) error {
	switch entry.SkippedKind {
	case wire.SkippedCPUMemRW:
		c, _ := entry.Variant.(wire.CPUMemRW)
		if e.memory != nil {
			return e.memory.ApplyCPUMemRW(c.Addr, entry.Buf)
		}
	case wire.SkippedCPUMemUnmap:
		c, _ := entry.Variant.(wire.CPUMemUnmap)
		if e.memory != nil {
			return e.memory.ApplyCPUMemUnmap(c.Addr, entry.Buf)
		}
	case wire.SkippedMemRegionChange:
		m, _ := entry.Variant.(wire.MemRegionChange)
		if e.memory != nil {
			return e.memory.ApplyMemoryRegionChange(m.Start, m.Size, m.MemType, string(entry.Buf), m.Added != 0)
		}
	case wire.SkippedHDTransfer, wire.SkippedNetTransfer, wire.SkippedHandlePacket:
		// No MemoryApplier effect: transfers and packets are exposed to
		// the caller via ReplaySkippedCalls' returned []*LogEntry, not
		// applied automatically, since their dispatch target (the DMA
		// engine, the virtual NIC) is outside the MemoryApplier contract.
	}
	return nil
}

// ReplaySkippedCalls pumps every SKIPPED_CALL entry at the current
// program point: CPU_MEM_RW, CPU_MEM_UNMAP, and MEM_REGION_CHANGE are
// applied directly via the MemoryApplier collaborator; HD_TRANSFER,
// NET_TRANSFER, and HANDLE_PACKET are returned for the caller to
// dispatch (the log core has no collaborator interface for DMA engines
// or virtual NICs). If the queue empties while at callsite
// MAIN_LOOP_WAIT, it refills before returning.
func (e *Engine) ReplaySkippedCalls(callsite wire.Callsite) ([]*LogEntry, error) {
	if e.ctrl.Mode() != lifecycle.ModeReplay {
		return nil, NewError("ReplaySkippedCalls", ErrCodeWrongMode, "engine is not replaying")
	}

	var out []*LogEntry
	for {
		entry, err := e.getNext("ReplaySkippedCalls", wire.KindSkippedCall, callsite, true)
		if err != nil {
			return out, err
		}
		if entry == nil {
			break
		}
		if err := e.applySkippedCall(entry); err != nil {
			e.recycle(entry)
			return out, WrapError("ReplaySkippedCalls", err)
		}
		switch entry.SkippedKind {
		case wire.SkippedHDTransfer, wire.SkippedNetTransfer, wire.SkippedHandlePacket:
			out = append(out, newLogEntry(entry))
		}
		e.recycle(entry)
	}

	if e.ctrl.Queue().Empty() && callsite == wire.CallsiteMainLoopWait {
		if err := e.ctrl.Queue().FillQueue(callsite); err != nil {
			return out, WrapError("ReplaySkippedCalls", err)
		}
	}
	return out, nil
}

// ReplayFinished reports whether replay has reached the end of the log:
// the queue is drained from the source and either empty or holding only
// the terminal LAST entry.
func (e *Engine) ReplayFinished() bool {
	if e.ctrl.Mode() != lifecycle.ModeReplay {
		return false
	}
	q := e.ctrl.Queue()
	if !q.EOF() {
		return false
	}
	if q.Empty() {
		return true
	}
	head := q.Peek()
	return head.Kind() == wire.KindLast
}
