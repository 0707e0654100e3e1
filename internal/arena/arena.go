// Package arena provides a bump allocator scoped to dictionary compilation.
//
// Word and affix text is interned into large anonymous chunks while the
// compiler runs, then the whole arena is dropped with Free once the image has
// been compacted into its final contiguous buffer. There is no per-item
// deallocation. The arena is not safe for concurrent use; a compile runs on a
// single goroutine.
package arena

import (
	"fmt"

	"github.com/lexcraft/spellix/internal/mmap"
)

// DefaultChunkSize is the size of each backing chunk (1 MiB).
const DefaultChunkSize = 1024 * 1024

// Stats tracks arena memory usage.
type Stats struct {
	Chunks        int
	BytesReserved int
	BytesUsed     int
}

// Arena allocates from anonymous mappings, keeping dictionary build data off
// the Go heap so it can be released wholesale after compaction.
type Arena struct {
	chunkSize int
	chunks    []*mmap.Mapping
	cur       []byte // unused tail of the current chunk
	used      int
	freed     bool
}

// New creates an arena with the given chunk size (DefaultChunkSize if <= 0).
func New(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize}
}

// Alloc returns a zeroed byte slice of the given length backed by the arena.
// The slice remains valid until Free.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if a.freed {
		return nil, fmt.Errorf("arena: use after free")
	}
	if n <= 0 {
		return nil, nil
	}
	if n > len(a.cur) {
		size := a.chunkSize
		if n > size {
			size = n
		}
		m, err := mmap.MapAnon(size)
		if err != nil {
			return nil, fmt.Errorf("arena: chunk allocation failed: %w", err)
		}
		a.chunks = append(a.chunks, m)
		a.cur = m.Bytes()
	}
	out := a.cur[:n:n]
	a.cur = a.cur[n:]
	a.used += n
	return out, nil
}

// Copy interns b into the arena and returns the stable copy.
func (a *Arena) Copy(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	dst, err := a.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(dst, b)
	return dst, nil
}

// CopyString interns s and returns the stable copy.
func (a *Arena) CopyString(s string) ([]byte, error) {
	if len(s) == 0 {
		return nil, nil
	}
	dst, err := a.Alloc(len(s))
	if err != nil {
		return nil, err
	}
	copy(dst, s)
	return dst, nil
}

// Stats returns current usage counters.
func (a *Arena) Stats() Stats {
	reserved := 0
	for _, c := range a.chunks {
		reserved += c.Size()
	}
	return Stats{
		Chunks:        len(a.chunks),
		BytesReserved: reserved,
		BytesUsed:     a.used,
	}
}

// Free unmaps all chunks. Every slice returned by Alloc/Copy becomes invalid.
// The arena cannot be reused afterwards.
func (a *Arena) Free() {
	if a.freed {
		return
	}
	a.freed = true
	for _, c := range a.chunks {
		_ = c.Close()
	}
	a.chunks = nil
	a.cur = nil
}
