// Package lifecycle implements the mode/state controller: the five
// record/replay transitions, the on-disk naming convention, and the
// lock-free request flags a monitor goroutine or signal handler can set
// to ask the emulator's main loop to end the current session.
package lifecycle

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-ndlog/internal/constants"
	"github.com/ehrlich-b/go-ndlog/internal/progress"
	"github.com/ehrlich-b/go-ndlog/internal/queue"
	"github.com/ehrlich-b/go-ndlog/internal/reader"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
	"github.com/ehrlich-b/go-ndlog/internal/writer"
)

// Mode is the controller's current record/replay state, read and
// written only via atomic.Int32.
type Mode int32

const (
	ModeOff Mode = iota
	ModeRecord
	ModeReplay
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModeRecord:
		return "RECORD"
	case ModeReplay:
		return "REPLAY"
	default:
		return "UNKNOWN"
	}
}

// RecordRequest distinguishes a cold start from a record session begun
// by first restoring a named snapshot.
type RecordRequest int32

const (
	RecordNone RecordRequest = iota
	RecordFresh
	RecordFromSnapshot
)

// EndReplayReason reports how a replay session ended.
type EndReplayReason int

const (
	// EndReplayExhausted is reported whenever no end-of-replay request
	// was pending. EndReplay does not check that the LAST entry or the
	// end of file was reached.
	EndReplayExhausted EndReplayReason = iota
	// EndReplayRequested means a request flag ended the session early.
	EndReplayRequested
)

// Controller holds record/replay mode as a lock-free word, the
// collaborators it drives, and the writer/reader/queue machinery for
// whichever session is currently open.
type Controller struct {
	mode                atomic.Int32
	recordRequested     atomic.Int32
	endRecordRequested  atomic.Bool
	endReplayRequested  atomic.Bool

	opts Options

	w        *writer.Writer
	r        *reader.Reader
	q        *queue.LookAheadQueue
	alloc    *queue.Allocator
	history  *queue.History
	logHdr   wire.Header
}

// New returns a Controller in ModeOff.
func New(opts Options) *Controller {
	return &Controller{opts: opts}
}

// Mode returns the controller's current mode.
func (c *Controller) Mode() Mode {
	return Mode(c.mode.Load())
}

// LogPath returns the path of the non-deterministic event log for this
// controller's Dir/Name.
func (c *Controller) LogPath() string {
	return filepath.Join(c.opts.Dir, c.opts.Name+constants.LogFileSuffix)
}

// SnapshotPath returns the path of the whole-machine snapshot that
// BeginRecord takes and BeginReplay loads.
func (c *Controller) SnapshotPath() string {
	return filepath.Join(c.opts.Dir, c.opts.Name+constants.SnapshotDirSuffix)
}

func (c *Controller) logf(format string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Printf(format, args...)
	}
}

func (c *Controller) debugf(format string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Debugf(format, args...)
	}
}

// BeginRecord opens the log for writing and transitions ModeOff -> ModeRecord.
// If no snapshot collaborator is configured this is a cold start with
// nothing to snapshot; otherwise it takes the VM snapshot this record
// session's own SnapshotPath names before ever touching the log, whether
// that snapshot marks a cold start (BeginRecord called directly) or the
// fresh post-restore state a caller chaining through BeginRecordFrom needs.
func (c *Controller) BeginRecord() error {
	if c.Mode() != ModeOff {
		return fmt.Errorf("lifecycle: BeginRecord: controller is in mode %s, want OFF", c.Mode())
	}
	if c.recordRequested.Load() == int32(RecordNone) {
		c.recordRequested.Store(int32(RecordFresh))
	}
	if c.opts.Snapshot != nil {
		c.debugf("BeginRecord: taking VM snapshot %s", c.SnapshotPath())
		if err := c.opts.Snapshot.TakeSnapshot(c.SnapshotPath()); err != nil {
			return fmt.Errorf("lifecycle: BeginRecord: taking snapshot: %w", err)
		}
	}
	c.debugf("BeginRecord: opening %s", c.LogPath())
	fd, err := openForWrite(c.LogPath())
	if err != nil {
		return fmt.Errorf("lifecycle: BeginRecord: %w", err)
	}
	w, err := writer.New(fd, c.opts.Points, c.opts.Logger, c.opts.Observer)
	if err != nil {
		return fmt.Errorf("lifecycle: BeginRecord: %w", err)
	}
	c.w = w
	c.mode.Store(int32(ModeRecord))
	c.recordRequested.Store(int32(RecordNone))
	c.logf("BeginRecord: recording to %s", c.LogPath())
	return nil
}

// BeginRecordFrom restores the named snapshot via the SnapshotProvider
// collaborator, then begins recording exactly as BeginRecord does.
// BeginRecord itself then leaves a fresh snapshot of this post-restore
// state, so a later BeginReplay always has the state this session
// actually started from to load.
func (c *Controller) BeginRecordFrom(snapshotName string) error {
	if c.Mode() != ModeOff {
		return fmt.Errorf("lifecycle: BeginRecordFrom: controller is in mode %s, want OFF", c.Mode())
	}
	if c.opts.Snapshot == nil {
		return fmt.Errorf("lifecycle: BeginRecordFrom: no snapshot collaborator configured")
	}
	c.debugf("BeginRecordFrom: loading snapshot %q", snapshotName)
	if err := c.opts.Snapshot.LoadSnapshot(snapshotName); err != nil {
		return fmt.Errorf("lifecycle: BeginRecordFrom: loading snapshot: %w", err)
	}
	c.recordRequested.Store(int32(RecordFromSnapshot))
	return c.BeginRecord()
}

// EndRecord appends the terminal LAST entry, rewrites the header with
// the true last_prog_point, closes the log file, and transitions back
// to ModeOff.
func (c *Controller) EndRecord() error {
	if c.Mode() != ModeRecord {
		return fmt.Errorf("lifecycle: EndRecord: controller is in mode %s, want RECORD", c.Mode())
	}
	c.debugf("EndRecord: closing %s", c.LogPath())
	if err := c.w.CloseSession(wire.CallsiteMonitor); err != nil {
		return fmt.Errorf("lifecycle: EndRecord: %w", err)
	}
	c.w = nil
	c.mode.Store(int32(ModeOff))
	c.endRecordRequested.Store(false)
	c.logf("EndRecord: closed %s", c.LogPath())
	return nil
}

// BeginReplay loads the VM snapshot this log's record session left at
// SnapshotPath, restoring the state recording started from before
// anything in the log can be replayed against it, then opens the log
// for reading, primes the look-ahead queue, and transitions ModeOff ->
// ModeReplay.
func (c *Controller) BeginReplay() error {
	if c.Mode() != ModeOff {
		return fmt.Errorf("lifecycle: BeginReplay: controller is in mode %s, want OFF", c.Mode())
	}
	if c.opts.Snapshot != nil {
		c.debugf("BeginReplay: loading VM snapshot %s", c.SnapshotPath())
		if err := c.opts.Snapshot.LoadSnapshot(c.SnapshotPath()); err != nil {
			return fmt.Errorf("lifecycle: BeginReplay: loading snapshot: %w", err)
		}
	}
	c.debugf("BeginReplay: opening %s", c.LogPath())
	fd, err := unix.Open(c.LogPath(), unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("lifecycle: BeginReplay: %w", err)
	}
	r, hdr, err := reader.Open(fd, c.opts.Logger)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("lifecycle: BeginReplay: %w", err)
	}
	c.r = r
	c.logHdr = hdr
	c.alloc = queue.NewAllocator()
	c.history = queue.NewHistory()

	bound := c.opts.QueueBound
	if bound <= 0 {
		bound = constants.MaxQueueLen
	}
	reporter := progress.New(hdr.LastProgPoint.GuestInstrCount, c.opts.Logger)
	c.q = queue.New(r, c.alloc, c.opts.Logger, c.opts.Observer, reporter)

	if err := c.q.FillQueue(wire.CallsiteCPULoop); err != nil {
		return fmt.Errorf("lifecycle: BeginReplay: priming queue: %w", err)
	}

	c.mode.Store(int32(ModeReplay))
	c.logf("BeginReplay: replaying %s (last_prog_point instr=%d)", c.LogPath(), hdr.LastProgPoint.GuestInstrCount)
	return nil
}

// EndReplay closes the log file and transitions back to ModeOff,
// reporting EndReplayRequested if an end-of-replay request was pending
// and EndReplayExhausted otherwise.
func (c *Controller) EndReplay() (EndReplayReason, error) {
	if c.Mode() != ModeReplay {
		return 0, fmt.Errorf("lifecycle: EndReplay: controller is in mode %s, want REPLAY", c.Mode())
	}
	reason := EndReplayExhausted
	if c.endReplayRequested.Load() {
		reason = EndReplayRequested
	}
	c.debugf("EndReplay: closing %s (reason=%v)", c.LogPath(), reason)
	if err := c.r.Close(); err != nil {
		return reason, fmt.Errorf("lifecycle: EndReplay: %w", err)
	}
	c.r, c.q, c.alloc = nil, nil, nil
	c.mode.Store(int32(ModeOff))
	c.endReplayRequested.Store(false)
	c.logf("EndReplay: closed %s", c.LogPath())
	return reason, nil
}

// Writer returns the active Writer, or nil when not recording.
func (c *Controller) Writer() *writer.Writer { return c.w }

// Reader returns the active Reader, or nil when not replaying.
func (c *Controller) Reader() *reader.Reader { return c.r }

// Queue returns the active look-ahead queue, or nil when not replaying.
func (c *Controller) Queue() *queue.LookAheadQueue { return c.q }

// Allocator returns the active entry allocator, or nil when not replaying.
func (c *Controller) Allocator() *queue.Allocator { return c.alloc }

// History returns the diagnostic history ring of the current or most
// recent replay session (it is kept after EndReplay), or nil before the
// first BeginReplay.
func (c *Controller) History() *queue.History { return c.history }

// LogHeader returns the header read at BeginReplay.
func (c *Controller) LogHeader() wire.Header { return c.logHdr }

// RequestEndRecord asks a recording session to end at the next
// PollSafePoint call. Safe to call from any goroutine or a signal
// handler: it only sets a word-sized atomic flag.
func (c *Controller) RequestEndRecord() {
	c.endRecordRequested.Store(true)
}

// RequestEndReplay asks a replaying session to end at the next
// PollSafePoint call.
func (c *Controller) RequestEndReplay() {
	c.endReplayRequested.Store(true)
}

// PollSafePoint is the single place request flags are observed and
// acted on; the emulator's main loop calls this between guest
// instructions, never from a signal handler directly.
func (c *Controller) PollSafePoint() error {
	switch c.Mode() {
	case ModeRecord:
		if c.endRecordRequested.Load() {
			return c.EndRecord()
		}
	case ModeReplay:
		if c.endReplayRequested.Load() {
			_, err := c.EndReplay()
			return err
		}
	}
	return nil
}

func openForWrite(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0o644)
}
