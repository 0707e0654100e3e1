package mmap

import (
	"errors"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned when accessing a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for non-positive mapping sizes.
	ErrInvalidSize = errors.New("mmap: invalid size")
)

// Mapping is a block of memory obtained from the OS, either a read-only view
// of a file or an anonymous read-write segment.
type Mapping struct {
	data   []byte
	f      *os.File // nil for anonymous mappings
	closed atomic.Bool
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{data: nil, f: f}, nil
	}

	data, err := mapFile(f, int(size))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Mapping{data: data, f: f}, nil
}

// MapAnon creates an anonymous read-write mapping of the given size.
func MapAnon(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	data, err := mapAnon(size)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}

// Bytes returns the mapped memory. The slice is valid until Close.
func (m *Mapping) Bytes() []byte {
	if m == nil || m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the length of the mapping in bytes.
func (m *Mapping) Size() int {
	if m == nil || m.closed.Load() {
		return 0
	}
	return len(m.data)
}

// Close unmaps the memory and closes the underlying file, if any.
// It is idempotent.
func (m *Mapping) Close() error {
	if m == nil || !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if m.data != nil {
		err = unmap(m.data)
		m.data = nil
	}
	if m.f != nil {
		if cerr := m.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}
