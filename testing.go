package ndlog

import (
	"fmt"
	"sync"

	"github.com/ehrlich-b/go-ndlog/internal/interfaces"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// memWrite records one ApplyCPUMemRW/ApplyCPUMemUnmap call for test
// assertions.
type memWrite struct {
	Addr  uint64
	Data  []byte
	Unmap bool
}

// regionChange records one ApplyMemoryRegionChange call.
type regionChange struct {
	Start, Size uint64
	MemType     uint32
	Name        string
	Added       bool
}

// FakeEmulator is a test double implementing every collaborator
// interface the record/replay lifecycle depends on: ProgramPointSource,
// Comparator, MemoryApplier, CPULoopController, and SnapshotProvider.
// It tracks call counts and applied effects for assertions, the way the
// teacher's MockBackend tracks read/write/flush calls.
type FakeEmulator struct {
	mu sync.Mutex

	point wire.ProgramPoint

	memWrites      []memWrite
	regionChanges  []regionChange
	quitCalls      int
	snapshots      map[string]wire.ProgramPoint
	loadedSnapshot string
}

// NewFakeEmulator returns a FakeEmulator positioned at guest_instr_count 0.
func NewFakeEmulator() *FakeEmulator {
	return &FakeEmulator{snapshots: make(map[string]wire.ProgramPoint)}
}

// CurrentProgramPoint implements interfaces.ProgramPointSource.
func (f *FakeEmulator) CurrentProgramPoint() wire.ProgramPoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.point
}

// SetProgramPoint drives the fake's notion of "now" forward, the way
// the real CPU loop would after executing guest instructions.
func (f *FakeEmulator) SetProgramPoint(p wire.ProgramPoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.point = p
}

// AdvanceInstructions is a convenience wrapper around SetProgramPoint
// for tests that only care about guest_instr_count.
func (f *FakeEmulator) AdvanceInstructions(n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.point.GuestInstrCount = n
}

// Compare implements interfaces.Comparator, ordering strictly by
// guest_instr_count (the only field the log treats as authoritative).
func (f *FakeEmulator) Compare(current, logged wire.ProgramPoint, kind wire.Kind) int {
	switch {
	case current.GuestInstrCount < logged.GuestInstrCount:
		return -1
	case current.GuestInstrCount > logged.GuestInstrCount:
		return 1
	default:
		return 0
	}
}

// ApplyCPUMemRW implements interfaces.MemoryApplier.
func (f *FakeEmulator) ApplyCPUMemRW(addr uint64, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.memWrites = append(f.memWrites, memWrite{Addr: addr, Data: cp})
	return nil
}

// ApplyCPUMemUnmap implements interfaces.MemoryApplier.
func (f *FakeEmulator) ApplyCPUMemUnmap(addr uint64, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.memWrites = append(f.memWrites, memWrite{Addr: addr, Data: cp, Unmap: true})
	return nil
}

// ApplyMemoryRegionChange implements interfaces.MemoryApplier.
func (f *FakeEmulator) ApplyMemoryRegionChange(start, size uint64, memType uint32, name string, added bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regionChanges = append(f.regionChanges, regionChange{Start: start, Size: size, MemType: memType, Name: name, Added: added})
	return nil
}

// QuitCPULoop implements interfaces.CPULoopController.
func (f *FakeEmulator) QuitCPULoop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quitCalls++
}

// TakeSnapshot implements interfaces.SnapshotProvider, capturing the
// fake's current program point under name.
func (f *FakeEmulator) TakeSnapshot(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[name] = f.point
	return nil
}

// LoadSnapshot implements interfaces.SnapshotProvider, restoring the
// program point captured under name.
func (f *FakeEmulator) LoadSnapshot(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.snapshots[name]
	if !ok {
		return fmt.Errorf("fake emulator: no snapshot named %q", name)
	}
	f.point = p
	f.loadedSnapshot = name
	return nil
}

// MemWriteCount returns the number of ApplyCPUMemRW/ApplyCPUMemUnmap
// calls observed so far.
func (f *FakeEmulator) MemWriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.memWrites)
}

// RegionChangeCount returns the number of ApplyMemoryRegionChange calls
// observed so far.
func (f *FakeEmulator) RegionChangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.regionChanges)
}

// QuitCalls returns the number of times QuitCPULoop was called.
func (f *FakeEmulator) QuitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quitCalls
}

// LoadedSnapshot returns the name of the most recently loaded snapshot,
// or "" if none has been loaded.
func (f *FakeEmulator) LoadedSnapshot() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadedSnapshot
}

// Reset clears all tracked calls and effects without touching the
// current program point.
func (f *FakeEmulator) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memWrites = nil
	f.regionChanges = nil
	f.quitCalls = 0
}

// Compile-time interface checks.
var (
	_ interfaces.ProgramPointSource = (*FakeEmulator)(nil)
	_ interfaces.Comparator         = (*FakeEmulator)(nil)
	_ interfaces.MemoryApplier      = (*FakeEmulator)(nil)
	_ interfaces.CPULoopController  = (*FakeEmulator)(nil)
	_ interfaces.SnapshotProvider   = (*FakeEmulator)(nil)
)
