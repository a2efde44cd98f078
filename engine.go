// Package ndlog implements a non-deterministic event log: a recorder
// that captures the inputs a deterministic CPU emulator cannot
// reproduce on its own, and a replayer that feeds them back so a second
// run reaches the identical sequence of program points.
package ndlog

import (
	"os"

	"github.com/ehrlich-b/go-ndlog/internal/constants"
	"github.com/ehrlich-b/go-ndlog/internal/interfaces"
	"github.com/ehrlich-b/go-ndlog/internal/lifecycle"
	"github.com/ehrlich-b/go-ndlog/internal/logging"
	"github.com/ehrlich-b/go-ndlog/internal/writer"
)

// EngineOptions configures an Engine: the collaborators it drives
// through the five record/replay transitions, the directory/name pair
// the on-disk log and snapshot are rooted at, and optional
// logger/observer overrides.
type EngineOptions struct {
	// Points reports the emulator's current program point. Required.
	Points interfaces.ProgramPointSource

	// Comparator orders the current program point against a logged one.
	// Required for BeginReplay.
	Comparator interfaces.Comparator

	// Memory replays the side effects of entries record skipped.
	// Required for BeginReplay if the log can contain SKIPPED_CALL entries.
	Memory interfaces.MemoryApplier

	// CPULoop lets replay break the emulator out of its instruction loop.
	CPULoop interfaces.CPULoopController

	// Snapshot captures/restores whole-machine state. Required only for
	// BeginRecordFrom.
	Snapshot interfaces.SnapshotProvider

	Dir  string
	Name string

	// QueueBound is passed through to the lifecycle controller, but it
	// does not change the look-ahead queue's depth: the queue is always
	// bounded at constants.MaxQueueLen, whatever value is set here.
	QueueBound int

	// Logger receives Debug/Info lines. Defaults to logging.Default().
	Logger interfaces.Logger

	// Observer receives metrics events. Defaults to a MetricsObserver
	// wrapping a fresh Metrics instance (see Engine.Metrics).
	Observer interfaces.Observer
}

// DefaultEngineOptions returns an EngineOptions with Dir/Name set to the
// given values and every other field at its zero value, which NewEngine
// treats as "use the package default" (constants.MaxQueueLen for
// QueueBound, logging.Default() for Logger, a fresh Metrics-backed
// observer for Observer). Callers still need to fill in Points and the
// other collaborator interfaces before use.
func DefaultEngineOptions(dir, name string) EngineOptions {
	return EngineOptions{
		Dir:        dir,
		Name:       name,
		QueueBound: constants.MaxQueueLen,
	}
}

// Engine is the main entry point for recording and replaying a
// non-deterministic event log. It owns the mode/state controller, the
// metrics instance backing its default observer, and the collaborators
// supplied at construction.
type Engine struct {
	ctrl       *lifecycle.Controller
	metrics    *Metrics
	logger     interfaces.Logger
	points     interfaces.ProgramPointSource
	comparator interfaces.Comparator
	memory     interfaces.MemoryApplier
	cpuLoop    interfaces.CPULoopController
}

// NewEngine constructs an Engine in the OFF mode. Call BeginRecord,
// BeginRecordFrom, or BeginReplay to start a session.
func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	metrics := NewMetrics()
	observer := opts.Observer
	if observer == nil {
		observer = NewMetricsObserver(metrics)
	}

	lopts := lifecycle.Options{
		Points:     opts.Points,
		Comparator: opts.Comparator,
		Memory:     opts.Memory,
		CPULoop:    opts.CPULoop,
		Snapshot:   opts.Snapshot,
		Dir:        opts.Dir,
		Name:       opts.Name,
		QueueBound: opts.QueueBound,
		Logger:     logger,
		Observer:   observer,
	}

	return &Engine{
		ctrl:       lifecycle.New(lopts),
		metrics:    metrics,
		logger:     logger,
		points:     opts.Points,
		comparator: opts.Comparator,
		memory:     opts.Memory,
		cpuLoop:    opts.CPULoop,
	}
}

// Mode returns the engine's current record/replay mode.
func (e *Engine) Mode() lifecycle.Mode { return e.ctrl.Mode() }

// Metrics returns the Metrics instance backing the engine's default
// observer. If a custom Observer was supplied, this still returns a
// live Metrics instance, but it will not have recorded anything unless
// the custom observer also wraps it.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// LogPath returns the path of the non-deterministic event log for this
// engine's Dir/Name.
func (e *Engine) LogPath() string { return e.ctrl.LogPath() }

// SnapshotPath returns the path of the whole-machine snapshot that
// BeginRecord takes and BeginReplay loads. BeginRecordFrom restores the
// snapshot it is given by name, not this path.
func (e *Engine) SnapshotPath() string { return e.ctrl.SnapshotPath() }

// BeginRecord opens the log for writing and starts a fresh recording
// session.
func (e *Engine) BeginRecord() error {
	return e.ctrl.BeginRecord()
}

// BeginRecordFrom restores the named snapshot, then begins recording.
func (e *Engine) BeginRecordFrom(snapshotName string) error {
	return e.ctrl.BeginRecordFrom(snapshotName)
}

// EndRecord appends the terminal entry, closes the log, and returns to
// the OFF mode.
func (e *Engine) EndRecord() error {
	defer e.metrics.Stop()
	return e.ctrl.EndRecord()
}

// BeginReplay opens the log for reading, primes the look-ahead queue,
// and starts a replay session.
func (e *Engine) BeginReplay() error {
	return e.ctrl.BeginReplay()
}

// EndReplay closes the log and returns to the OFF mode, reporting
// EndReplayRequested if an end-of-replay request was pending and
// EndReplayExhausted otherwise; it does not check how much of the log
// was consumed.
func (e *Engine) EndReplay() (lifecycle.EndReplayReason, error) {
	defer e.metrics.Stop()
	return e.ctrl.EndReplay()
}

// RequestEndRecord asks a recording session to end at the next
// PollSafePoint call. Safe to call from any goroutine.
func (e *Engine) RequestEndRecord() { e.ctrl.RequestEndRecord() }

// RequestEndReplay asks a replaying session to end at the next
// PollSafePoint call.
func (e *Engine) RequestEndReplay() { e.ctrl.RequestEndReplay() }

// PollSafePoint observes and acts on any pending end-of-session
// request. The emulator's main loop should call this between guest
// instructions.
func (e *Engine) PollSafePoint() error { return e.ctrl.PollSafePoint() }

// WatchSignal installs a signal handler that requests the current
// session end. Returns a function that stops watching.
func (e *Engine) WatchSignal(sig os.Signal) (stop func()) {
	return e.ctrl.WatchSignal(sig)
}

// History returns the most recently consumed entries, oldest first, for
// post-mortem inspection after a divergence. It survives past EndReplay
// so a caller that just received a DivergenceError can still look back
// at what replay saw leading up to it. Empty before the first replay
// session of this Engine's lifetime.
func (e *Engine) History() []*LogEntry {
	h := e.ctrl.History()
	if h == nil {
		return nil
	}
	recent := h.Recent()
	out := make([]*LogEntry, 0, len(recent))
	for i := range recent {
		out = append(out, newLogEntry(&recent[i]))
	}
	return out
}

// writerOrErr returns the active Writer, or a wrong-mode error.
func (e *Engine) writerOrErr(op string) (*writer.Writer, error) {
	w := e.ctrl.Writer()
	if w == nil {
		return nil, NewError(op, ErrCodeWrongMode, "engine is not recording")
	}
	return w, nil
}
