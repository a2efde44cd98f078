package lifecycle

import "github.com/ehrlich-b/go-ndlog/internal/interfaces"

// Options configures a Controller: the collaborators it drives through
// the five transitions, the directory/name pair the on-disk log and
// snapshot are rooted at, and the optional logger/observer.
type Options struct {
	Points     interfaces.ProgramPointSource
	Comparator interfaces.Comparator
	Memory     interfaces.MemoryApplier
	CPULoop    interfaces.CPULoopController
	Snapshot   interfaces.SnapshotProvider

	Dir  string
	Name string

	QueueBound int // not applied: the queue is always bounded at constants.MaxQueueLen

	Logger   interfaces.Logger
	Observer interfaces.Observer
}

// DefaultOptions returns Options with the queue bound left at the
// package default and every other field zero; callers fill in the
// collaborators and Dir/Name before use.
func DefaultOptions() Options {
	return Options{QueueBound: 0}
}
