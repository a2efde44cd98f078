package lifecycle

import (
	"path/filepath"
	"testing"

	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

type fakePointSource struct {
	point wire.ProgramPoint
}

func (f *fakePointSource) CurrentProgramPoint() wire.ProgramPoint { return f.point }

func newTestController(t *testing.T) (*Controller, *fakePointSource) {
	t.Helper()
	points := &fakePointSource{}
	c := New(Options{
		Points: points,
		Dir:    t.TempDir(),
		Name:   "session",
	})
	return c, points
}

func TestBeginEndRecord(t *testing.T) {
	c, points := newTestController(t)
	if c.Mode() != ModeOff {
		t.Fatalf("initial mode = %s, want OFF", c.Mode())
	}

	if err := c.BeginRecord(); err != nil {
		t.Fatalf("BeginRecord() error = %v", err)
	}
	if c.Mode() != ModeRecord {
		t.Fatalf("mode after BeginRecord = %s, want RECORD", c.Mode())
	}

	points.point = wire.ProgramPoint{GuestInstrCount: 10}
	if err := c.Writer().RecordExitRequest(1, wire.CallsiteCPULoop); err != nil {
		t.Fatalf("RecordExitRequest() error = %v", err)
	}

	if err := c.EndRecord(); err != nil {
		t.Fatalf("EndRecord() error = %v", err)
	}
	if c.Mode() != ModeOff {
		t.Fatalf("mode after EndRecord = %s, want OFF", c.Mode())
	}

	wantPath := filepath.Join(c.opts.Dir, "session-rr-nondet.log")
	if c.LogPath() != wantPath {
		t.Fatalf("LogPath() = %s, want %s", c.LogPath(), wantPath)
	}
}

func TestBeginRecordTwiceErrors(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.BeginRecord(); err != nil {
		t.Fatalf("BeginRecord() error = %v", err)
	}
	if err := c.BeginRecord(); err == nil {
		t.Fatal("second BeginRecord() = nil error, want an error (already RECORD)")
	}
}

func TestEndRecordWithoutBeginErrors(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.EndRecord(); err == nil {
		t.Fatal("EndRecord() without BeginRecord: want an error")
	}
}

func TestRecordThenReplayRoundTrip(t *testing.T) {
	c, points := newTestController(t)

	if err := c.BeginRecord(); err != nil {
		t.Fatalf("BeginRecord() error = %v", err)
	}
	points.point = wire.ProgramPoint{GuestInstrCount: 1}
	if err := c.Writer().RecordInput4(0xCAFEBABE, wire.CallsiteCPULoop); err != nil {
		t.Fatalf("RecordInput4() error = %v", err)
	}
	points.point = wire.ProgramPoint{GuestInstrCount: 2}
	if err := c.Writer().RecordExitRequest(7, wire.CallsiteCPULoop); err != nil {
		t.Fatalf("RecordExitRequest() error = %v", err)
	}
	if err := c.EndRecord(); err != nil {
		t.Fatalf("EndRecord() error = %v", err)
	}

	if err := c.BeginReplay(); err != nil {
		t.Fatalf("BeginReplay() error = %v", err)
	}
	if c.Mode() != ModeReplay {
		t.Fatalf("mode after BeginReplay = %s, want REPLAY", c.Mode())
	}
	if c.LogHeader().LastProgPoint.GuestInstrCount != 2 {
		t.Fatalf("LogHeader().LastProgPoint.GuestInstrCount = %d, want 2", c.LogHeader().LastProgPoint.GuestInstrCount)
	}
	if c.Queue().Len() == 0 {
		t.Fatal("Queue().Len() = 0 after BeginReplay, want primed with entries")
	}

	reason, err := c.EndReplay()
	if err != nil {
		t.Fatalf("EndReplay() error = %v", err)
	}
	if reason != EndReplayExhausted {
		t.Fatalf("EndReplay() reason = %v, want EndReplayExhausted", reason)
	}
	if c.Mode() != ModeOff {
		t.Fatalf("mode after EndReplay = %s, want OFF", c.Mode())
	}
}

func TestRequestFlagsDriveEndOnPollSafePoint(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.BeginRecord(); err != nil {
		t.Fatalf("BeginRecord() error = %v", err)
	}
	c.RequestEndRecord()
	if err := c.PollSafePoint(); err != nil {
		t.Fatalf("PollSafePoint() error = %v", err)
	}
	if c.Mode() != ModeOff {
		t.Fatalf("mode after PollSafePoint honoring RequestEndRecord = %s, want OFF", c.Mode())
	}
}
