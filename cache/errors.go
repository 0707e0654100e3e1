package cache

import "errors"

var (
	// ErrNotCached is returned by Backing.Attach when no image has been
	// published under the requested id.
	ErrNotCached = errors.New("cache: dictionary not cached")

	// ErrExists is returned by Backing.Publish when another publisher won
	// the race for the id. The caller should attach instead.
	ErrExists = errors.New("cache: dictionary already published")

	// ErrVersionMismatch is returned by Backing.Attach when a cached file
	// was written by an incompatible image format version.
	ErrVersionMismatch = errors.New("cache: cached image version mismatch")

	// ErrClosed is returned for operations on a closed registry or backing.
	ErrClosed = errors.New("cache: closed")
)
