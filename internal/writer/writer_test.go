package writer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

type fakePoints struct{ p wire.ProgramPoint }

func (f *fakePoints) CurrentProgramPoint() wire.ProgramPoint { return f.p }

type recordingObserver struct {
	appends []wire.Kind
	bytes   int
}

func (o *recordingObserver) ObserveAppend(kind wire.Kind, n int) {
	o.appends = append(o.appends, kind)
	o.bytes += n
}
func (o *recordingObserver) ObserveConsume(wire.Kind)                                {}
func (o *recordingObserver) ObserveFillQueue(int)                                    {}
func (o *recordingObserver) ObserveDivergence(wire.ProgramPoint, wire.ProgramPoint, wire.Kind) {}

func openTempFile(t *testing.T) int {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0o644)
	require.NoError(t, err)
	return fd
}

func TestWriterObserverReceivesAppends(t *testing.T) {
	fd := openTempFile(t)
	points := &fakePoints{}
	obs := &recordingObserver{}

	w, err := New(fd, points, nil, obs)
	require.NoError(t, err)

	require.NoError(t, w.RecordInput1(0x42, wire.CallsiteCPULoop))
	require.NoError(t, w.RecordInput4(0xdeadbeef, wire.CallsiteCPULoop))

	require.Equal(t, []wire.Kind{wire.KindInput1, wire.KindInput4}, obs.appends)
	require.Greater(t, obs.bytes, 0)

	require.NoError(t, w.Close())
}

func TestWriterNilObserverDoesNotPanic(t *testing.T) {
	fd := openTempFile(t)
	w, err := New(fd, &fakePoints{}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.RecordInput1(1, wire.CallsiteCPULoop))
	require.NoError(t, w.Close())
}

func TestWriterInterruptRequestElidesDuplicates(t *testing.T) {
	fd := openTempFile(t)
	obs := &recordingObserver{}
	w, err := New(fd, &fakePoints{}, nil, obs)
	require.NoError(t, err)

	require.NoError(t, w.RecordInterruptRequest(0x1, wire.CallsiteCPULoop))
	require.NoError(t, w.RecordInterruptRequest(0x1, wire.CallsiteCPULoop)) // no-op, same value
	require.NoError(t, w.RecordInterruptRequest(0x3, wire.CallsiteCPULoop))

	require.Equal(t, []wire.Kind{wire.KindInterruptRequest, wire.KindInterruptRequest}, obs.appends)
	require.NoError(t, w.Close())
}

func TestWriterExitRequestElidesZero(t *testing.T) {
	fd := openTempFile(t)
	obs := &recordingObserver{}
	w, err := New(fd, &fakePoints{}, nil, obs)
	require.NoError(t, err)

	require.NoError(t, w.RecordExitRequest(0, wire.CallsiteCPULoop))
	require.NoError(t, w.RecordExitRequest(7, wire.CallsiteCPULoop))

	require.Equal(t, []wire.Kind{wire.KindExitRequest}, obs.appends)
	require.NoError(t, w.Close())
}

func TestWriterHeaderTracksLastProgPoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0o644)
	require.NoError(t, err)

	points := &fakePoints{p: wire.ProgramPoint{GuestInstrCount: 1}}
	w, err := New(fd, points, nil, nil)
	require.NoError(t, err)

	points.p = wire.ProgramPoint{GuestInstrCount: 42}
	require.NoError(t, w.RecordInput1(1, wire.CallsiteCPULoop))

	// The clock advances again before close; the LAST entry it produces
	// must not become the header's last_prog_point.
	points.p = wire.ProgramPoint{GuestInstrCount: 99}
	require.NoError(t, w.CloseSession(wire.CallsiteMonitor))

	rfd, err := unix.Open(path, unix.O_RDONLY, 0)
	require.NoError(t, err)
	defer unix.Close(rfd)
	hdrBuf := make([]byte, wire.HeaderSize)
	_, err = unix.Pread(rfd, hdrBuf, 0)
	require.NoError(t, err)
	hdr := wire.UnmarshalHeader(hdrBuf)
	require.EqualValues(t, 42, hdr.LastProgPoint.GuestInstrCount)
}
