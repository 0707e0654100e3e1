package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	content := []byte("compiled dictionary bytes")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, content, m.Bytes())
	assert.Equal(t, len(content), m.Size())
	require.NoError(t, m.Close())

	// Idempotent close, no access after close.
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
}

func TestOpen_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Zero(t, m.Size())
	require.NoError(t, m.Close())
}

func TestMapAnon(t *testing.T) {
	m, err := MapAnon(4096)
	require.NoError(t, err)
	defer m.Close()

	b := m.Bytes()
	require.Len(t, b, 4096)
	b[0] = 0xAB
	b[4095] = 0xCD
	assert.Equal(t, byte(0xAB), m.Bytes()[0])
	assert.Equal(t, byte(0xCD), m.Bytes()[4095])
}

func TestMapAnon_InvalidSize(t *testing.T) {
	_, err := MapAnon(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
