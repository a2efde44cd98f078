package ndlog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-ndlog/internal/lifecycle"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

func newTestEngine(t *testing.T, fake *FakeEmulator) *Engine {
	t.Helper()
	return NewEngine(EngineOptions{
		Points:     fake,
		Comparator: fake,
		Memory:     fake,
		CPULoop:    fake,
		Snapshot:   fake,
		Dir:        t.TempDir(),
		Name:       "test",
	})
}

func TestEngineRecordReplayRoundTrip(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)
	require.Equal(t, lifecycle.ModeOff, eng.Mode())

	require.NoError(t, eng.BeginRecord())
	require.Equal(t, lifecycle.ModeRecord, eng.Mode())

	fake.AdvanceInstructions(100)
	require.NoError(t, eng.RecordInput1(0x42, wire.CallsiteCPULoop))

	fake.AdvanceInstructions(200)
	require.NoError(t, eng.RecordInterruptRequest(0x1, wire.CallsiteCPULoop))

	fake.AdvanceInstructions(500)
	require.NoError(t, eng.RecordCPUMemRW(0x1000, []byte("ABCD"), wire.CallsiteCPULoop))

	require.NoError(t, eng.EndRecord())
	require.Equal(t, lifecycle.ModeOff, eng.Mode())

	snap := eng.Metrics().Snapshot()
	require.EqualValues(t, 4, snap.TotalAppends) // three records plus the LAST entry EndRecord appends

	require.NoError(t, eng.BeginReplay())
	require.Equal(t, lifecycle.ModeReplay, eng.Mode())

	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 99})
	_, ok, err := eng.ReplayInput1(wire.CallsiteCPULoop, true)
	require.NoError(t, err)
	require.False(t, ok)

	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 100})
	v, ok, err := eng.ReplayInput1(wire.CallsiteCPULoop, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0x42, v)

	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 200})
	iv, ok, err := eng.ReplayInterruptRequest(wire.CallsiteCPULoop, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0x1, iv)

	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 500})
	entries, err := eng.ReplaySkippedCalls(wire.CallsiteCPULoop)
	require.NoError(t, err)
	require.Empty(t, entries) // CPU_MEM_RW is applied directly, not returned
	require.Equal(t, 1, fake.MemWriteCount())

	require.True(t, eng.ReplayFinished())

	reason, err := eng.EndReplay()
	require.NoError(t, err)
	require.Equal(t, lifecycle.EndReplayExhausted, reason)
	require.Equal(t, lifecycle.ModeOff, eng.Mode())
}

func TestEngineRecordOutsideRecordMode(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)

	err := eng.RecordInput1(1, wire.CallsiteCPULoop)
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeWrongMode))
}

func TestEngineReplayOutsideReplayMode(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)

	_, _, err := eng.ReplayInput4(wire.CallsiteCPULoop, true)
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeWrongMode))
}

func TestEngineDivergence(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)

	require.NoError(t, eng.BeginRecord())
	fake.AdvanceInstructions(100)
	require.NoError(t, eng.RecordInput1(0x1, wire.CallsiteCPULoop))
	require.NoError(t, eng.EndRecord())

	require.NoError(t, eng.BeginReplay())
	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 200})

	_, _, err := eng.ReplayInput1(wire.CallsiteCPULoop, true)
	require.Error(t, err)

	var de *DivergenceError
	require.ErrorAs(t, err, &de)
	require.EqualValues(t, 100, de.Expected.GuestInstrCount)
	require.EqualValues(t, 200, de.Actual.GuestInstrCount)
}

func TestEngineLogAndSnapshotPaths(t *testing.T) {
	fake := NewFakeEmulator()
	dir := t.TempDir()
	eng := NewEngine(EngineOptions{Points: fake, Comparator: fake, Dir: dir, Name: "vm1"})

	require.Contains(t, eng.LogPath(), "vm1-rr-nondet.log")
	require.Contains(t, eng.SnapshotPath(), "vm1-rr-snp")
}
