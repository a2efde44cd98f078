package main

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-ndlog/internal/reader"
	"github.com/ehrlich-b/go-ndlog/internal/wire"
)

// openLog opens path read-only and hands back a positioned Reader along
// with the decoded file header. The caller owns closing the Reader.
func openLog(path string) (*reader.Reader, wire.Header, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, wire.Header{}, fmt.Errorf("open %s: %w", path, err)
	}
	r, hdr, err := reader.Open(fd, nil)
	if err != nil {
		unix.Close(fd)
		return nil, wire.Header{}, err
	}
	return r, hdr, nil
}
