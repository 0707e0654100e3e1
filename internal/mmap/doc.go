// Package mmap provides memory-mapped access to compiled dictionary images.
//
// Two mapping kinds are used by the dictionary cache:
//
//   - File mappings (Open): read-only views of persisted cache files, so a
//     published image is attached without copying it into the Go heap.
//   - Anonymous mappings (MapAnon): read-write segments backing the ephemeral
//     cache mode and the compile-phase arena.
//
// A Mapping is safe for concurrent read access. Close is idempotent; callers
// must ensure no reader touches Bytes() after Close returns.
package mmap
