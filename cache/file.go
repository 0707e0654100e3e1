package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lexcraft/spellix/dict"
	"github.com/lexcraft/spellix/internal/mmap"
)

// fileHeaderSize is the image format version stamped ahead of the raw image
// in every cache file.
const fileHeaderSize = 4

// FileBacking publishes compiled images as memory-mapped files, one per
// dictionary id, shared between processes by the filesystem. Creation uses
// O_EXCL so that concurrent publishers across processes resolve to exactly
// one file.
type FileBacking struct {
	dir    string
	prefix string
}

// NewFileBacking creates a backing rooted at dir, creating it if needed.
func NewFileBacking(dir, prefix string) (*FileBacking, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	return &FileBacking{dir: dir, prefix: prefix}, nil
}

func (f *FileBacking) path(id ID) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s%d", f.prefix, uint64(id)))
}

func (f *FileBacking) Attach(id ID) (Segment, error) {
	m, err := mmap.Open(f.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotCached
		}
		return nil, fmt.Errorf("cache: attach %q: %w", f.path(id), err)
	}
	data := m.Bytes()
	if len(data) < fileHeaderSize ||
		binary.LittleEndian.Uint32(data) != dict.FormatVersion {
		m.Close()
		return nil, ErrVersionMismatch
	}
	return &fileSegment{m: m}, nil
}

func (f *FileBacking) Publish(id ID, data []byte) (Segment, error) {
	path := f.path(id)
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("cache: create %q: %w", path, err)
	}

	var hdr [fileHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:], dict.FormatVersion)
	_, err = fd.Write(hdr[:])
	if err == nil {
		_, err = fd.Write(data)
	}
	if cerr := fd.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("cache: write %q: %w", path, err)
	}
	return f.Attach(id)
}

func (f *FileBacking) Remove(id ID) error {
	err := os.Remove(f.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Persistent is true: cache files survive releases, restarts, and Close,
// and later registries re-attach instead of rebuilding.
func (f *FileBacking) Persistent() bool { return true }

func (f *FileBacking) Close() error { return nil }

type fileSegment struct {
	m *mmap.Mapping
}

// Bytes returns the raw image, skipping the version header.
func (s *fileSegment) Bytes() []byte { return s.m.Bytes()[fileHeaderSize:] }
func (s *fileSegment) Size() int64   { return int64(len(s.m.Bytes())) }
func (s *fileSegment) Close() error  { return s.m.Close() }
