//go:build windows

package mmap

import (
	"io"
	"os"
)

// Windows gets a portable fallback: file contents are read into the heap and
// anonymous segments are plain allocations. The sharing guarantees of true
// mappings are preserved by the cache layer, which hands out the same slice
// to every consumer in the process.

func mapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func mapAnon(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func unmap(data []byte) error {
	return nil
}
