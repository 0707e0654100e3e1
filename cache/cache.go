// Package cache shares compiled dictionary images between the consumers of a
// process and, with a file backing, between processes. Concurrent requests
// for the same dictionary id share one build; the image stays resident while
// handles reference it and, in memory mode, is freed when the last handle is
// released. A byte budget caps how much memory resident images may occupy;
// once exhausted, further dictionaries are served from private per-handle
// memory instead of failing.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ID identifies one compiled dictionary version. Rule file changes must
// produce a new ID; images are immutable once published. InvalidID disables
// sharing for a handle.
type ID uint64

// InvalidID marks a dictionary that cannot be shared.
const InvalidID ID = 0

// Builder produces the compiled image for a dictionary id. It is invoked by
// whichever Acquire call wins the build, while that call holds exclusive
// ownership of the id's cache slot.
type Builder func(ctx context.Context, id ID) ([]byte, error)

// entry tracks one resident dictionary. An entry is created in building
// state by the Acquire call that wins the slot; done is closed when the
// entry becomes ready, turns into a private result, or is rolled back with
// err set. Private and rolled-back entries are removed from the table
// before done closes, so neither outcome poisons later attempts.
type entry struct {
	done chan struct{}

	refs    int
	data    []byte
	seg     Segment
	private bool
	err     error
}

// Registry is the shared dictionary cache. The zero value is not usable;
// create one with NewRegistry.
type Registry struct {
	opts registryOptions

	budget *semaphore.Weighted // nil when unlimited
	used   atomic.Int64

	mu      sync.Mutex
	entries map[ID]*entry
	charged map[ID]int64
	closed  bool
}

// NewRegistry creates a registry over the configured backing. With no
// options it keeps images in process-local memory under DefaultMaxBytes.
func NewRegistry(opts ...Option) *Registry {
	o := defaultRegistryOptions()
	for _, opt := range opts {
		opt(&o)
	}
	r := &Registry{
		opts:    o,
		entries: make(map[ID]*entry),
		charged: make(map[ID]int64),
	}
	if o.maxBytes > 0 {
		r.budget = semaphore.NewWeighted(o.maxBytes)
	}
	return r
}

// Handle is a reference to a resident dictionary image. Bytes stays valid
// until Release. Handles are not goroutine-safe; the image they expose is.
type Handle struct {
	r        *Registry
	id       ID
	e        *entry
	data     []byte
	shared   bool
	released atomic.Bool
}

// Bytes returns the compiled image.
func (h *Handle) Bytes() []byte { return h.data }

// Shared reports whether the image lives in the shared cache rather than in
// private memory.
func (h *Handle) Shared() bool { return h.shared }

// Release drops the reference. Safe to call more than once.
func (h *Handle) Release() {
	if h == nil || h.released.Swap(true) || !h.shared {
		return
	}
	h.r.release(h.id, h.e)
}

// Acquire returns a handle for the dictionary id, building the image with
// build if no process has published it yet. Requests with InvalidID, or on a
// registry with a zero budget, always build privately. Acquire is safe for
// concurrent use; at most one concurrent caller per id runs build.
func (r *Registry) Acquire(ctx context.Context, id ID, build Builder) (*Handle, error) {
	if id == InvalidID || r.opts.maxBytes == 0 {
		return r.acquirePrivate(ctx, id, build)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := r.entries[id]
	if !ok {
		e = &entry{done: make(chan struct{}), refs: 1}
		r.entries[id] = e
		r.mu.Unlock()
		r.populate(ctx, id, e, build)
		if e.err != nil {
			return nil, e.err
		}
		return &Handle{r: r, id: id, e: e, data: e.data, shared: !e.private}, nil
	}
	e.refs++
	r.mu.Unlock()

	select {
	case <-e.done:
	case <-ctx.Done():
		r.release(id, e)
		return nil, ctx.Err()
	}
	if e.err != nil {
		// rolled back; the builder already removed the entry
		return nil, e.err
	}
	return &Handle{r: r, id: id, e: e, data: e.data, shared: !e.private}, nil
}

func (r *Registry) acquirePrivate(ctx context.Context, id ID, build Builder) (*Handle, error) {
	data, err := build(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Handle{r: r, id: id, data: data, shared: false}, nil
}

// populate fills a freshly created entry: attach the published image if one
// exists, otherwise build and publish it. Runs on the winning Acquire call;
// everything else for this id waits on e.done.
func (r *Registry) populate(ctx context.Context, id ID, e *entry, build Builder) {
	defer close(e.done)

	seg, err := r.opts.backing.Attach(id)
	if errors.Is(err, ErrVersionMismatch) {
		r.opts.logger.Warn("evicting stale dictionary image", "id", uint64(id))
		if rerr := r.opts.backing.Remove(id); rerr != nil {
			r.rollback(id, e, rerr)
			return
		}
		err = ErrNotCached
	}
	if err == nil {
		if r.charge(id, seg.Size()) {
			e.seg, e.data = seg, seg.Bytes()
			return
		}
		// No budget to map the published image; hand out a private copy
		// and leave the file to other processes.
		data := append([]byte(nil), seg.Bytes()...)
		seg.Close()
		r.noticeBudget(id, int64(len(data)))
		r.privateResult(id, e, data)
		return
	}
	if !errors.Is(err, ErrNotCached) {
		r.rollback(id, e, err)
		return
	}

	data, err := build(ctx, id)
	if err != nil {
		r.rollback(id, e, err)
		return
	}

	size := int64(len(data)) + fileHeaderSize
	if !r.charge(id, size) {
		r.noticeBudget(id, size)
		r.privateResult(id, e, data)
		return
	}

	seg, err = r.opts.backing.Publish(id, data)
	if errors.Is(err, ErrExists) {
		// lost a cross-process race; the other publisher's image serves
		seg, err = r.opts.backing.Attach(id)
	}
	if err != nil {
		r.uncharge(id)
		r.rollback(id, e, err)
		return
	}
	e.seg, e.data = seg, seg.Bytes()
}

// noticeBudget reports a budget rejection. Throttled; a steady stream of
// oversized dictionaries should not flood the log.
func (r *Registry) noticeBudget(id ID, size int64) {
	if r.opts.notice == nil || r.opts.notice.Allow() {
		r.opts.logger.Warn("dictionary cache budget exhausted, using private memory",
			"id", uint64(id),
			"size", size,
			"used", r.used.Load(),
			"max", r.opts.maxBytes,
		)
	}
}

// privateResult hands data to this entry's waiters as a private, unshared
// result and discards the entry, so a later Acquire for the id retries the
// shared path against whatever budget is free by then.
func (r *Registry) privateResult(id ID, e *entry, data []byte) {
	e.private = true
	e.data = data
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

func (r *Registry) rollback(id ID, e *entry, err error) {
	e.err = err
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

func (r *Registry) release(id ID, e *entry) {
	r.mu.Lock()
	e.refs--
	done := e.refs == 0 && r.entries[id] == e
	if done {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !done {
		return
	}
	if e.seg != nil {
		e.seg.Close()
	}
	r.uncharge(id)
	if !r.opts.backing.Persistent() {
		// Ephemeral images die with their last reference; the next
		// Acquire rebuilds. Persistent files stay for re-attach.
		r.opts.backing.Remove(id)
	}
}

// charge reserves budget for a resident image. It fails, without blocking,
// when the budget cannot cover size.
func (r *Registry) charge(id ID, size int64) bool {
	if r.budget != nil && !r.budget.TryAcquire(size) {
		return false
	}
	r.used.Add(size)
	r.mu.Lock()
	r.charged[id] = size
	r.mu.Unlock()
	return true
}

// uncharge returns a no-longer-resident image's bytes to the budget.
func (r *Registry) uncharge(id ID) {
	r.mu.Lock()
	size, ok := r.charged[id]
	delete(r.charged, id)
	r.mu.Unlock()
	if ok {
		if r.budget != nil {
			r.budget.Release(size)
		}
		r.used.Add(-size)
	}
}

// Used returns the bytes of budget consumed by images currently resident in
// this registry.
func (r *Registry) Used() int64 { return r.used.Load() }

// Close releases live entries and closes the backing. Outstanding handles
// over file-backed images stay readable until released; memory-backed
// handles must be released before Close.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.entries
	r.entries = make(map[ID]*entry)
	r.charged = make(map[ID]int64)
	r.mu.Unlock()

	for _, e := range entries {
		if e.seg != nil {
			e.seg.Close()
		}
	}
	r.used.Store(0)
	return r.opts.backing.Close()
}
