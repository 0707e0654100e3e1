package dict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseLegacyEntry(t *testing.T) {
	tests := []struct {
		in        string
		mask      string
		strip     string
		add       string
		ok        bool
		wantErr   bool
		skipEmpty bool
	}{
		{in: "[^s] > -y,ies", mask: "[^s]", strip: "y", add: "ies", ok: true},
		{in: "   . > s", mask: ".", strip: "", add: "s", ok: true},
		{in: ". > -e", mask: ".", strip: "e", add: "", ok: true},
		{in: "e y > ily", mask: "ey", strip: "", add: "ily", ok: true},
		{in: ". > s # plural", mask: ".", strip: "", add: "s", ok: true},
		{in: "# comment only", ok: false},
		{in: ". > 1", wantErr: true},
		{in: ". > -y;x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			mask, strip, add, ok, err := parseLegacyEntry(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.mask, mask)
			assert.Equal(t, tt.strip, strip)
			assert.Equal(t, tt.add, add)
		})
	}
}

func TestImportLegacyAffixes(t *testing.T) {
	path := writeTempFile(t, "legacy.affix", `
compoundwords controlled z
prefixes
flag *U:
    .        >      un
suffixes
flag *S:
    [^s]     >      s
flag ~O:
    . > -e,ing
`)

	b := newBuilder(nil)
	require.NoError(t, b.importAffixes(path))

	assert.True(t, b.usesCompound)
	assert.Equal(t, FlagChar, b.flagMode)
	require.Len(t, b.rules, 3)

	un := b.rules[0]
	assert.Equal(t, byte(kindPrefix), un.kind)
	assert.Equal(t, "un", string(un.add))
	assert.Equal(t, "U", string(un.flag))
	assert.True(t, un.isSimple)
	assert.Equal(t, byte(cfCross), un.flagflags)

	s := b.rules[1]
	assert.Equal(t, byte(kindSuffix), s.kind)
	assert.Equal(t, "s", string(s.add))
	assert.Equal(t, "[^s]", string(s.cond))

	ing := b.rules[2]
	assert.Equal(t, "ing", string(ing.add))
	assert.Equal(t, "e", string(ing.strip))
	// compound-only implies participation at every compound position
	assert.Equal(t, byte(cfOnly|cfAny), ing.flagflags)
}

func TestImportAffixesMixedFormat(t *testing.T) {
	path := writeTempFile(t, "mixed.affix", `
suffixes
flag *S:
    . > s
SFX S Y 1
SFX S 0 s .
`)

	b := newBuilder(nil)
	err := b.importAffixes(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Msg, "old-style and new-style")
}

func TestImportExtendedAffixes(t *testing.T) {
	path := writeTempFile(t, "ext.affix", `
COMPOUNDFLAG Z
ONLYINCOMPOUND O
COMPOUNDFORBIDFLAG X

SFX S Y 1
SFX S 0 s [^s]

PFX U Y 1
PFX U 0 un .
`)

	b := newBuilder(nil)
	require.NoError(t, b.importAffixes(path))

	assert.True(t, b.usesCompound)
	require.Len(t, b.rules, 2)
	assert.Equal(t, byte(kindSuffix), b.rules[0].kind)
	assert.Equal(t, byte(cfCross), b.rules[0].flagflags)
	assert.Equal(t, byte(kindPrefix), b.rules[1].kind)

	v, ok := b.lookupCompoundFlag([]byte("Z"))
	require.True(t, ok)
	assert.Equal(t, byte(cfAny), v)
	v, ok = b.lookupCompoundFlag([]byte("X"))
	require.True(t, ok)
	assert.Equal(t, byte(cfForbid), v)
	_, ok = b.lookupCompoundFlag([]byte("Q"))
	assert.False(t, ok)
}

func TestImportExtendedFlagModes(t *testing.T) {
	t.Run("long", func(t *testing.T) {
		path := writeTempFile(t, "long.affix", `
FLAG long
SFX AB Y 1
SFX AB 0 s .
`)
		b := newBuilder(nil)
		require.NoError(t, b.importAffixes(path))
		assert.Equal(t, FlagLong, b.flagMode)
		require.Len(t, b.rules, 1)
		assert.Equal(t, "AB", string(b.rules[0].flag))
	})

	t.Run("num", func(t *testing.T) {
		path := writeTempFile(t, "num.affix", `
FLAG num
COMPOUNDFLAG 3
SFX 200 Y 1
SFX 200 0 s .
`)
		b := newBuilder(nil)
		require.NoError(t, b.importAffixes(path))
		assert.Equal(t, FlagNum, b.flagMode)
		require.Len(t, b.rules, 1)
		assert.Equal(t, "200", string(b.rules[0].flag))
		v, ok := b.lookupCompoundFlag([]byte("3"))
		require.True(t, ok)
		assert.Equal(t, byte(cfAny), v)
	})

	t.Run("unsupported", func(t *testing.T) {
		path := writeTempFile(t, "utf.affix", `
FLAG UTF-8
SFX S Y 1
SFX S 0 s .
`)
		b := newBuilder(nil)
		err := b.importAffixes(path)
		require.Error(t, err)
	})

	t.Run("flag too wide for mode skipped", func(t *testing.T) {
		path := writeTempFile(t, "wide.affix", `
SFX AB Y 1
SFX AB 0 s .
SFX C Y 1
SFX C 0 ed .
`)
		b := newBuilder(nil)
		require.NoError(t, b.importAffixes(path))
		// the two-char flag cannot exist in default mode
		require.Len(t, b.rules, 1)
		assert.Equal(t, "C", string(b.rules[0].flag))
	})
}

func TestImportAliasTable(t *testing.T) {
	path := writeTempFile(t, "af.affix", `
AF 2
AF S
AF SZ
COMPOUNDFLAG Z

SFX S Y 1
SFX S 0 s .
`)

	b := newBuilder(nil)
	require.NoError(t, b.importAffixes(path))
	require.True(t, b.usesAliases)
	// index 0 is the reserved empty set
	require.Len(t, b.sets.sets, 3)
	assert.Equal(t, "", string(b.sets.get(0)))
	assert.Equal(t, "S", string(b.sets.get(1)))
	assert.Equal(t, "SZ", string(b.sets.get(2)))
}

func TestImportAliasTableInvalidCount(t *testing.T) {
	path := writeTempFile(t, "af.affix", "AF x\nAF S\nSFX S Y 1\nSFX S 0 s .\n")
	b := newBuilder(nil)
	err := b.importAffixes(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag vector aliases")
}

func TestImportAffixesMissingFile(t *testing.T) {
	b := newBuilder(nil)
	err := b.importAffixes(filepath.Join(t.TempDir(), "nope.affix"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
}
