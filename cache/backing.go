package cache

import (
	"sync"

	"github.com/lexcraft/spellix/internal/mmap"
)

// Segment is an attached dictionary image. Bytes stays valid until Close.
type Segment interface {
	Bytes() []byte
	Size() int64
	Close() error
}

// Backing stores published dictionary images outside the Go heap so that a
// single copy can serve every handle. Implementations must allow concurrent
// calls.
type Backing interface {
	// Attach opens the image published under id. It returns ErrNotCached
	// when nothing is published and ErrVersionMismatch when the stored
	// image has an incompatible format.
	Attach(id ID) (Segment, error)

	// Publish stores data under id and returns an attached segment. It
	// returns ErrExists when the id is already taken; exactly one of any
	// set of concurrent publishers succeeds.
	Publish(id ID, data []byte) (Segment, error)

	// Remove discards the image published under id entirely, freeing its
	// residency. Called for images written by an incompatible format
	// version and, on non-persistent backings, when the last reference to
	// an image goes away.
	Remove(id ID) error

	// Persistent reports whether published images outlive the release of
	// their last in-process reference.
	Persistent() bool

	Close() error
}

// MemoryBacking keeps published images in anonymous mappings. It is
// process-local and ephemeral: an image lives until it is removed or the
// backing closes.
type MemoryBacking struct {
	mu     sync.Mutex
	segs   map[ID]*mmap.Mapping
	closed bool
}

// NewMemoryBacking creates an empty ephemeral backing.
func NewMemoryBacking() *MemoryBacking {
	return &MemoryBacking{segs: make(map[ID]*mmap.Mapping)}
}

func (m *MemoryBacking) Attach(id ID) (Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	seg, ok := m.segs[id]
	if !ok {
		return nil, ErrNotCached
	}
	return borrowedSegment{seg.Bytes()}, nil
}

func (m *MemoryBacking) Publish(id ID, data []byte) (Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if _, ok := m.segs[id]; ok {
		return nil, ErrExists
	}
	seg, err := mmap.MapAnon(len(data))
	if err != nil {
		return nil, err
	}
	copy(seg.Bytes(), data)
	m.segs[id] = seg
	return borrowedSegment{seg.Bytes()}, nil
}

func (m *MemoryBacking) Remove(id ID) error {
	m.mu.Lock()
	seg, ok := m.segs[id]
	delete(m.segs, id)
	m.mu.Unlock()
	if ok {
		return seg.Close()
	}
	return nil
}

func (m *MemoryBacking) Persistent() bool { return false }

func (m *MemoryBacking) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for id, seg := range m.segs {
		seg.Close()
		delete(m.segs, id)
	}
	return nil
}

// borrowedSegment is a view over memory owned by the backing; Close is a
// no-op because the backing controls the mapping's lifetime.
type borrowedSegment struct {
	data []byte
}

func (s borrowedSegment) Bytes() []byte { return s.data }
func (s borrowedSegment) Size() int64   { return int64(len(s.data)) }
func (s borrowedSegment) Close() error  { return nil }
