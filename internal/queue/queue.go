package queue

import (
	"github.com/ehrlich-b/go-ndlog/internal/constants"
	"github.com/ehrlich-b/go-ndlog/internal/interfaces"
	"github.com/ehrlich-b/go-ndlog/internal/progress"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// Source supplies the next entry from the log file, reporting EOF only
// when the file ends on an exact entry boundary. Satisfied by
// *reader.Reader; taking the narrow interface here instead of importing
// package reader keeps the dependency direction reader -> queue ->
// wire, not the reverse.
type Source interface {
	Next(alloc *Allocator) (*Entry, error)
}

// LookAheadQueue is the bounded look-ahead FIFO replay consumes from.
// fill_queue refills it from Source up to MaxQueueLen entries, stopping
// early once it has appended an INTERRUPT_REQUEST (so replay observes
// interrupt edges one at a time) or a SKIPPED_CALL entry while at
// MAIN_LOOP_WAIT (so skipped-call batches don't run ahead of the callsite
// that consumes them), or once the source reports EOF.
type LookAheadQueue struct {
	head, tail *Entry
	length     int
	maxLen     int

	src      Source
	alloc    *Allocator
	logger   interfaces.Logger
	observer interfaces.Observer
	progress *progress.Reporter

	eof        bool
	highWater  int
	totalCount int
}

// New returns an empty LookAheadQueue bounded at MaxQueueLen entries.
// reporter may be nil, in which case no progress lines are logged.
func New(src Source, alloc *Allocator, logger interfaces.Logger, observer interfaces.Observer, reporter *progress.Reporter) *LookAheadQueue {
	return &LookAheadQueue{
		maxLen:   constants.MaxQueueLen,
		src:      src,
		alloc:    alloc,
		logger:   logger,
		observer: observer,
		progress: reporter,
	}
}

// Len reports the queue's current occupancy.
func (q *LookAheadQueue) Len() int { return q.length }

// HighWater reports the largest occupancy ever observed.
func (q *LookAheadQueue) HighWater() int { return q.highWater }

// TotalCount reports the total number of entries ever pushed onto the
// queue over its lifetime, including ones already popped.
func (q *LookAheadQueue) TotalCount() int { return q.totalCount }

func (q *LookAheadQueue) push(e *Entry) {
	e.next = nil
	if q.tail == nil {
		q.head, q.tail = e, e
	} else {
		q.tail.next = e
		q.tail = e
	}
	q.length++
	q.totalCount++
	if q.length > q.highWater {
		q.highWater = q.length
	}
}

func (q *LookAheadQueue) popFront() *Entry {
	e := q.head
	if e == nil {
		return nil
	}
	q.head = e.next
	if q.head == nil {
		q.tail = nil
	}
	e.next = nil
	q.length--
	return e
}

// FillQueue refills the queue from Source, stopping at the first of:
// the source reporting EOF, the queue reaching MaxQueueLen, an
// INTERRUPT_REQUEST entry just having been appended, or a SKIPPED_CALL
// entry just having been appended while callsite is MAIN_LOOP_WAIT.
func (q *LookAheadQueue) FillQueue(callsite wire.Callsite) error {
	if q.eof {
		return nil
	}
	for q.length < q.maxLen {
		e, err := q.src.Next(q.alloc)
		if err != nil {
			return err
		}
		if e == nil {
			q.eof = true
			break
		}
		q.push(e)
		if q.observer != nil {
			q.observer.ObserveFillQueue(q.length)
		}
		if q.logger != nil {
			q.logger.Debugf("fill_queue: appended %s at instr=%d", e.Kind(), e.Point().GuestInstrCount)
		}
		if q.progress != nil {
			q.progress.Report(e.Point())
		}

		switch {
		case e.Kind() == wire.KindInterruptRequest:
			return nil
		case e.Kind() == wire.KindSkippedCall && callsite == wire.CallsiteMainLoopWait:
			return nil
		}
	}
	return nil
}

// Peek returns the entry at the head of the queue without removing it,
// or nil if the queue is empty.
func (q *LookAheadQueue) Peek() *Entry {
	return q.head
}

// PopDebug drains leading DEBUG entries whose guest_instr_count is at
// or before current's, returning them for the caller to recycle. A
// DEBUG entry strictly ahead of current is left in place, since replay
// may still reach that checkpoint once translation-block chaining
// catches up.
func (q *LookAheadQueue) PopDebug(current wire.ProgramPoint) []*Entry {
	var drained []*Entry
	for q.head != nil && q.head.Kind() == wire.KindDebug && q.head.Point().GuestInstrCount <= current.GuestInstrCount {
		drained = append(drained, q.popFront())
	}
	return drained
}

// Empty reports whether the queue currently holds no entries.
func (q *LookAheadQueue) Empty() bool { return q.length == 0 }

// EOF reports whether the underlying source has been exhausted. The
// queue can still hold entries after EOF; Empty() && EOF() together mean
// replay has genuinely run out of log.
func (q *LookAheadQueue) EOF() bool { return q.eof }

// CompareResult mirrors the three-way outcome of comparing the current
// program point against the entry at the head of the queue.
type CompareResult int

const (
	// CompareBehind means the current program point has not yet reached
	// the head entry; replay should not consume it yet.
	CompareBehind CompareResult = iota
	// CompareMatch means the current program point matches the head
	// entry exactly; replay should consume it.
	CompareMatch
	// CompareDiverged means the current program point has passed the
	// head entry without matching it; this is a fatal divergence.
	CompareDiverged
)

// GetNext implements the replay consume algorithm: drain and discard any
// DEBUG entries at the head, except when kind is INTERRUPT_REQUEST or
// SKIPPED_CALL — those two "ambient" kinds may legitimately be queued
// ahead of a debug checkpoint, so the drain is skipped entirely for
// them. It then compares the current program point against the
// (possibly callsite-checked) head entry via the Comparator
// collaborator, and either returns the entry (detaching it from the
// queue), reports that replay should wait, or reports fatal divergence.
func (q *LookAheadQueue) GetNext(
	cmp interfaces.Comparator,
	current wire.ProgramPoint,
	kind wire.Kind,
	callsite wire.Callsite,
	checkCallsite bool,
) (*Entry, CompareResult) {
	if kind != wire.KindInterruptRequest && kind != wire.KindSkippedCall {
		for q.head != nil && q.head.Kind() == wire.KindDebug {
			e := q.popFront()
			if q.logger != nil {
				q.logger.Debugf("GetNext: dropping DEBUG entry at instr=%d", e.Point().GuestInstrCount)
			}
			q.alloc.Put(e)
		}
	}

	head := q.head
	if head == nil {
		return nil, CompareBehind
	}

	// First-entry-at-zero grace: when both the current program point and
	// the head entry sit at guest_instr_count == 0, the comparator's
	// verdict is overridden to a match, so an entry stamped at instruction
	// zero is always consumable at instruction zero even if the advisory
	// pc/secondary fields differ. A head at zero with current already past
	// it is still a divergence.
	c := cmp.Compare(current, head.Point(), kind)
	if current.GuestInstrCount == 0 && head.Point().GuestInstrCount == 0 {
		c = 0
	}

	switch {
	case c < 0:
		return nil, CompareBehind
	case c > 0:
		if q.observer != nil {
			q.observer.ObserveDivergence(head.Point(), current, head.Kind())
		}
		return nil, CompareDiverged
	}

	// A kind or callsite mismatch at the current program point is not a
	// divergence: it means the log's next entry is for a different
	// question than the one being asked right now (e.g. the head is an
	// entry a batch-consuming caller like ReplaySkippedCalls/
	// ReplayExitRequest doesn't want this time around). Only current
	// having run past the head (c > 0 above) is fatal.
	if head.Kind() != kind {
		return nil, CompareBehind
	}
	if checkCallsite && head.Header.Callsite != callsite {
		return nil, CompareBehind
	}

	e := q.popFront()
	if q.observer != nil {
		q.observer.ObserveConsume(e.Kind())
	}
	return e, CompareMatch
}
