package dict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileTestDict(t *testing.T, words, affixes string) []byte {
	t.Helper()
	dir := t.TempDir()
	wp := filepath.Join(dir, "test.dict")
	ap := filepath.Join(dir, "test.affix")
	require.NoError(t, os.WriteFile(wp, []byte(words), 0o600))
	require.NoError(t, os.WriteFile(ap, []byte(affixes), 0o600))
	img, err := Compile(wp, ap)
	require.NoError(t, err)
	return img
}

func openTestDict(t *testing.T, words, affixes string) *Image {
	t.Helper()
	img, err := Open(compileTestDict(t, words, affixes))
	require.NoError(t, err)
	return img
}

const basicAffix = `
SFX S Y 1
SFX S 0 s [^s]
`

func TestCompileAndOpen(t *testing.T) {
	img := openTestDict(t, "cat/S\ndog/S\n", basicAffix)

	st := img.Stats()
	assert.Equal(t, FlagChar, st.FlagMode)
	assert.False(t, st.UsesCompound)
	assert.Equal(t, 1, st.AffixRules)
	assert.Greater(t, st.WordNodes, 0)

	assert.True(t, img.findWord([]byte("cat"), nil, 0))
	assert.True(t, img.findWord([]byte("dog"), []byte("S"), 0))
	assert.False(t, img.findWord([]byte("dog"), []byte("X"), 0))
	assert.False(t, img.findWord([]byte("cow"), nil, 0))
	assert.False(t, img.findWord([]byte("ca"), nil, 0))
	assert.False(t, img.findWord([]byte("cats"), nil, 0))
}

func TestCompileWordFileEdgeCases(t *testing.T) {
	// flag text ends at the first non-printable or multibyte character,
	// words end at the first space, empty lines are dropped
	img := openTestDict(t, "cat/S\xc3\xa9Z\nHOUSE boat\n\nmixed Case\n", basicAffix)

	assert.True(t, img.findWord([]byte("cat"), []byte("S"), 0))
	assert.False(t, img.findWord([]byte("cat"), []byte("Z"), 0))
	assert.True(t, img.findWord([]byte("house"), nil, 0))
	assert.True(t, img.findWord([]byte("mixed"), nil, 0))
	assert.False(t, img.findWord([]byte("boat"), nil, 0))
}

func TestCompileDuplicateWordsMergeFlags(t *testing.T) {
	img := openTestDict(t, "run/S\nrun/U\n", `
SFX S Y 1
SFX S 0 s .
PFX U Y 1
PFX U 0 un .
`)

	assert.True(t, img.findWord([]byte("run"), []byte("S"), 0))
	assert.True(t, img.findWord([]byte("run"), []byte("U"), 0))
}

func TestCompileAliases(t *testing.T) {
	img := openTestDict(t, "cat/1\ndog/2\n", `
AF 2
AF S
AF SZ
COMPOUNDFLAG Z

SFX S Y 1
SFX S 0 s .
`)

	assert.True(t, img.findWord([]byte("cat"), []byte("S"), 0))
	assert.False(t, img.findWord([]byte("cat"), []byte("Z"), 0))
	assert.True(t, img.findWord([]byte("dog"), []byte("Z"), cfAny))
}

func TestCompileInvalidAlias(t *testing.T) {
	dir := t.TempDir()
	wp := filepath.Join(dir, "w.dict")
	ap := filepath.Join(dir, "a.affix")
	require.NoError(t, os.WriteFile(wp, []byte("cat/7\n"), 0o600))
	require.NoError(t, os.WriteFile(ap, []byte("AF 1\nAF S\nSFX S Y 1\nSFX S 0 s .\n"), 0o600))

	_, err := Compile(wp, ap)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestCompileFlagNum(t *testing.T) {
	img := openTestDict(t, "cat/200,5\n", `
FLAG num
SFX 200 Y 1
SFX 200 0 s .
`)
	assert.Equal(t, FlagNum, img.FlagMode())
	assert.True(t, img.findWord([]byte("cat"), []byte("200"), 0))
	assert.True(t, img.findWord([]byte("cat"), []byte("5"), 0))
	assert.False(t, img.findWord([]byte("cat"), []byte("20"), 0))
}

func TestCompileMissingFiles(t *testing.T) {
	dir := t.TempDir()
	ap := filepath.Join(dir, "a.affix")
	require.NoError(t, os.WriteFile(ap, []byte(basicAffix), 0o600))

	_, err := Compile(filepath.Join(dir, "missing.dict"), ap)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)

	_, err = Compile(ap, filepath.Join(dir, "missing.affix"))
	require.ErrorAs(t, err, &ioErr)
}

func TestOpenRejectsCorruptImages(t *testing.T) {
	img := compileTestDict(t, "cat/S\n", basicAffix)

	t.Run("truncated", func(t *testing.T) {
		_, err := Open(img[:8])
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), img...)
		bad[0] ^= 0xFF
		_, err := Open(bad)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("bad version", func(t *testing.T) {
		bad := append([]byte(nil), img...)
		bad[4] ^= 0xFF
		_, err := Open(bad)
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("section out of bounds", func(t *testing.T) {
		bad := append([]byte(nil), img...)
		// grow the first section's length past the buffer
		bad[dirOffset+4] = 0xFF
		bad[dirOffset+5] = 0xFF
		bad[dirOffset+6] = 0xFF
		_, err := Open(bad)
		var invErr *InvariantError
		assert.ErrorAs(t, err, &invErr)
	})
}

func TestImageIsRelocatable(t *testing.T) {
	img := compileTestDict(t, "cat/S\nsun/Z\nlight/Z\n", basicAffix+"COMPOUNDFLAG Z\n")

	// a byte-identical copy at a different address behaves identically
	cp := append([]byte(nil), img...)
	a, err := Open(img)
	require.NoError(t, err)
	b, err := Open(cp)
	require.NoError(t, err)

	assert.Equal(t, a.Normalize("cats"), b.Normalize("cats"))
	assert.Equal(t, a.Normalize("sunlight"), b.Normalize("sunlight"))
	assert.Equal(t, a.Stats(), b.Stats())
}

func TestCompileDeterministic(t *testing.T) {
	dir := t.TempDir()
	wp := filepath.Join(dir, "w.dict")
	ap := filepath.Join(dir, "a.affix")
	require.NoError(t, os.WriteFile(wp, []byte("zebra/S\ncat/S\napple\n"), 0o600))
	require.NoError(t, os.WriteFile(ap, []byte(basicAffix), 0o600))

	first, err := Compile(wp, ap)
	require.NoError(t, err)
	second, err := Compile(wp, ap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
