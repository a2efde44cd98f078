package ndlog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// Scenario from the interrupt-compression property: three transitions
// recorded from a four-call sequence, each observed at a later program
// point during replay.
func TestReplayInterruptRequestCompression(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)

	require.NoError(t, eng.BeginRecord())
	fake.AdvanceInstructions(200)
	require.NoError(t, eng.RecordInterruptRequest(0x1, wire.CallsiteCPULoop))
	fake.AdvanceInstructions(201)
	require.NoError(t, eng.RecordInterruptRequest(0x1, wire.CallsiteCPULoop)) // elided, same value
	fake.AdvanceInstructions(210)
	require.NoError(t, eng.RecordInterruptRequest(0x3, wire.CallsiteCPULoop))
	fake.AdvanceInstructions(300)
	require.NoError(t, eng.RecordInterruptRequest(0x0, wire.CallsiteCPULoop))
	require.NoError(t, eng.EndRecord())

	require.NoError(t, eng.BeginReplay())

	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 205})
	v, ok, err := eng.ReplayInterruptRequest(wire.CallsiteCPULoop, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0x1, v)

	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 220})
	v, ok, err = eng.ReplayInterruptRequest(wire.CallsiteCPULoop, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0x3, v)

	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 310})
	v, ok, err = eng.ReplayInterruptRequest(wire.CallsiteCPULoop, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0x0, v)
}

func TestReplayExitRequestZeroElision(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)

	require.NoError(t, eng.BeginRecord())
	fake.AdvanceInstructions(10)
	require.NoError(t, eng.RecordExitRequest(0, wire.CallsiteCPULoop)) // elided
	require.NoError(t, eng.EndRecord())

	require.NoError(t, eng.BeginReplay())
	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 10})

	code, err := eng.ReplayExitRequest(wire.CallsiteCPULoop, true)
	require.NoError(t, err)
	require.EqualValues(t, 0, code)
	require.Equal(t, 0, fake.QuitCalls())
}

func TestReplaySkippedCallsReturnsTransfersAndPackets(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)

	require.NoError(t, eng.BeginRecord())
	fake.AdvanceInstructions(700)
	require.NoError(t, eng.RecordHandlePacket(0, []byte("packetdata"), wire.CallsiteCPULoop))
	require.NoError(t, eng.RecordHDTransfer(1, 0x10, 0x20, 512, wire.CallsiteCPULoop))
	require.NoError(t, eng.EndRecord())

	require.NoError(t, eng.BeginReplay())
	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 700})

	entries, err := eng.ReplaySkippedCalls(wire.CallsiteCPULoop)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, wire.SkippedHandlePacket, entries[0].SkippedKind)
	require.Equal(t, []byte("packetdata"), entries[0].Buf)

	require.Equal(t, wire.SkippedHDTransfer, entries[1].SkippedKind)
	tr, ok := entries[1].Variant.(wire.Transfer)
	require.True(t, ok)
	require.EqualValues(t, 512, tr.Bytes)
}

func TestReplayDebugDrainsOnlyPastEntries(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)

	require.NoError(t, eng.BeginRecord())
	fake.AdvanceInstructions(50)
	require.NoError(t, eng.RecordDebug(wire.CallsiteCPULoop))
	fake.AdvanceInstructions(100)
	require.NoError(t, eng.RecordDebug(wire.CallsiteCPULoop))
	require.NoError(t, eng.EndRecord())

	require.NoError(t, eng.BeginReplay())
	fake.SetProgramPoint(wire.ProgramPoint{GuestInstrCount: 60})

	require.NoError(t, eng.ReplayDebug())

	q := eng.ctrl.Queue()
	require.False(t, q.Empty())
	require.EqualValues(t, 100, q.Peek().Point().GuestInstrCount)
}

func TestReplayFinishedOnEmptyLog(t *testing.T) {
	fake := NewFakeEmulator()
	eng := newTestEngine(t, fake)

	require.NoError(t, eng.BeginRecord())
	require.NoError(t, eng.EndRecord())

	require.NoError(t, eng.BeginReplay())
	require.True(t, eng.ReplayFinished())
}
