package ndlog

import (
	"errors"
	"syscall"
	"testing"

	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

func TestStructuredError(t *testing.T) {
	err := NewError("BeginRecord", ErrCodeInvalidOptions, "empty Dir")

	if err.Op != "BeginRecord" {
		t.Errorf("Op = %s, want BeginRecord", err.Op)
	}
	if err.Code != ErrCodeInvalidOptions {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeInvalidOptions)
	}

	want := "ndlog: empty Dir (op=BeginRecord)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapError(t *testing.T) {
	err := WrapError("BeginReplay", syscall.EPERM)

	if err.Code != ErrCodePermissionDenied {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodePermissionDenied)
	}
	if err.Errno != syscall.EPERM {
		t.Errorf("Errno = %v, want EPERM", err.Errno)
	}
	if !errors.Is(err, syscall.EPERM) {
		t.Error("errors.Is(err, syscall.EPERM) = false, want true")
	}
}

func TestWrapErrorNilIsNil(t *testing.T) {
	if WrapError("op", nil) != nil {
		t.Error("WrapError(op, nil) != nil")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("RecordInput4", ErrCodeIOError, "short write")

	if !IsCode(err, ErrCodeIOError) {
		t.Error("IsCode() = false, want true for matching code")
	}
	if IsCode(err, ErrCodeWrongMode) {
		t.Error("IsCode() = true, want false for non-matching code")
	}
	if IsCode(nil, ErrCodeIOError) {
		t.Error("IsCode(nil, ...) = true, want false")
	}
}

func TestIsErrno(t *testing.T) {
	err := WrapError("BeginRecord", syscall.ENOENT)

	if !IsErrno(err, syscall.ENOENT) {
		t.Error("IsErrno() = false, want true for matching errno")
	}
	if IsErrno(err, syscall.EPERM) {
		t.Error("IsErrno() = true, want false for non-matching errno")
	}
}

func TestDivergenceError(t *testing.T) {
	err := &DivergenceError{
		Expected: wire.ProgramPoint{GuestInstrCount: 10},
		Actual:   wire.ProgramPoint{GuestInstrCount: 12},
		Kind:     wire.KindInterruptRequest,
	}
	if err.Code() != ErrCodeDivergence {
		t.Errorf("Code() = %s, want %s", err.Code(), ErrCodeDivergence)
	}
	if err.Error() == "" {
		t.Error("Error() returned empty string")
	}
}
