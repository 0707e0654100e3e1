package dict

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexTexts(lexemes []Lexeme) []string {
	out := make([]string, 0, len(lexemes))
	for _, lx := range lexemes {
		out = append(out, lx.Text)
	}
	return out
}

func TestNormalizeSuffix(t *testing.T) {
	img := openTestDict(t, "cat/S\ndog/S\nbus\n", basicAffix)

	assert.Equal(t, []string{"cat"}, lexTexts(img.Normalize("cat")))
	assert.Equal(t, []string{"cat"}, lexTexts(img.Normalize("cats")))
	assert.Equal(t, []string{"dog"}, lexTexts(img.Normalize("dogs")))

	// bus carries no S flag, so "buss" does not reduce
	assert.Empty(t, img.Normalize("buss"))
	// the condition [^s] rejects a double plural
	assert.Empty(t, img.Normalize("catss"))
	assert.Empty(t, img.Normalize("unknown"))
	assert.Empty(t, img.Normalize(""))
}

func TestNormalizeStrip(t *testing.T) {
	img := openTestDict(t, "bake/G\n", `
SFX G Y 1
SFX G e ing e
`)

	assert.Equal(t, []string{"bake"}, lexTexts(img.Normalize("baking")))
	assert.Empty(t, img.Normalize("bakinge"))
}

func TestNormalizePrefix(t *testing.T) {
	img := openTestDict(t, "tie/U\n", `
PFX U Y 1
PFX U 0 un .
`)

	assert.Equal(t, []string{"tie"}, lexTexts(img.Normalize("untie")))
	assert.Equal(t, []string{"tie"}, lexTexts(img.Normalize("tie")))
	assert.Empty(t, img.Normalize("retie"))
}

func TestNormalizeCrossProduct(t *testing.T) {
	img := openTestDict(t, "clear/US\n", `
SFX S Y 1
SFX S 0 s [^s]

PFX U Y 1
PFX U 0 un .
`)

	assert.Equal(t, []string{"clear"}, lexTexts(img.Normalize("unclears")))
	assert.Equal(t, []string{"clear"}, lexTexts(img.Normalize("unclear")))
	assert.Equal(t, []string{"clear"}, lexTexts(img.Normalize("clears")))
}

func TestNormalizeCompound(t *testing.T) {
	img := openTestDict(t, "sun/Z\nlight/ZS\n", `
COMPOUNDFLAG Z
SFX S Y 1
SFX S 0 s [^s]
`)

	got := img.Normalize("sunlight")
	require.Equal(t, []string{"sun", "light"}, lexTexts(got))
	// the stems of one split share a variant number
	assert.Equal(t, got[0].Variant, got[1].Variant)

	// the final segment is reduced through the affix rules
	assert.Equal(t, []string{"sun", "light"}, lexTexts(img.Normalize("sunlights")))
	assert.Empty(t, img.Normalize("sunand"))
}

func TestNormalizeCompoundVariants(t *testing.T) {
	img := openTestDict(t, "sunlight\nsun/Z\nlight/Z\n", "COMPOUNDFLAG Z\n")

	got := img.Normalize("sunlight")
	require.Equal(t, []string{"sunlight", "sun", "light"}, lexTexts(got))
	assert.Equal(t, uint16(1), got[0].Variant)
	assert.Equal(t, uint16(2), got[1].Variant)
	assert.Equal(t, uint16(2), got[2].Variant)
}

func TestNormalizeOnlyInCompound(t *testing.T) {
	img := openTestDict(t, "sun/Z\nside/OZ\n", `
COMPOUNDFLAG Z
ONLYINCOMPOUND O
`)

	// side exists only as part of a compound
	assert.Empty(t, img.Normalize("side"))
	assert.Equal(t, []string{"sun", "side"}, lexTexts(img.Normalize("sunside")))
}

func TestNormalizeCompoundForbid(t *testing.T) {
	affix := `
COMPOUNDFLAG Z
COMPOUNDFORBIDFLAG X
SFX S Y 1
SFX S 0 s/X [^s]
`
	img := openTestDict(t, "sun/Z\nlight/ZS\n", affix)

	// the suffix still works on a standalone token
	assert.Equal(t, []string{"light"}, lexTexts(img.Normalize("lights")))
	// but is forbidden on a compound segment
	assert.Empty(t, img.Normalize("sunlights"))
	assert.Equal(t, []string{"sun", "light"}, lexTexts(img.Normalize("sunlight")))
}

func TestNormalizeCompoundInterfix(t *testing.T) {
	img := openTestDict(t, "sun/SZ\nlight/SZ\n", `
COMPOUNDFLAG Z
SFX S Y 2
SFX S 0 0/Z .
SFX S 0 s/Z .
`)

	// only the interfix s marks boundaries; the zero-add rule has no
	// boundary text to look for
	require.Equal(t, 1, img.numCompound())
	assert.Equal(t, "s", string(img.compoundRuleAt(0).add))

	got := img.Normalize("sunslight")
	require.Equal(t, []string{"sun", "light"}, lexTexts(got))
	assert.Equal(t, got[0].Variant, got[1].Variant)

	// plain juxtaposition still splits
	assert.Equal(t, []string{"sun", "light"}, lexTexts(img.Normalize("sunlight")))
}

func TestNormalizeResultCap(t *testing.T) {
	// 1200 suffix rules all reducing "wq" to a different dictionary word
	const n = 1200
	var aff, words strings.Builder
	fmt.Fprintf(&aff, "SFX A Y %d\n", n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&aff, "SFX A %04d q .\n", i)
		fmt.Fprintf(&words, "w%04d/A\n", i)
	}
	img := openTestDict(t, words.String(), aff.String())

	got := img.Normalize("wq")
	require.Len(t, got, maxNorm-1)
	assert.Equal(t, uint16(maxNorm-1), got[len(got)-1].Variant)
}

func TestNormalizeCompoundWorkBudget(t *testing.T) {
	img := openTestDict(t, "a/Z\naa/Z\n", "COMPOUNDFLAG Z\n")
	w := []byte(strings.Repeat("a", 60))

	s := &splitter{img: img, word: w, budget: splitWorkBudget}
	vars := 0
	for v := s.split(invalidIndex, false, nil, 0, -1); v != nil; v = v.next {
		vars++
	}
	// the walk stopped on the budget, not on the search space
	assert.Zero(t, s.budget)
	assert.Positive(t, vars)

	got := img.Normalize(string(w))
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), maxNorm-1)
}

func TestNormalizeTokenTooLong(t *testing.T) {
	img := openTestDict(t, "cat/S\n", basicAffix)
	assert.Nil(t, img.Normalize(strings.Repeat("a", maxNormLen+1)))
}

func TestNormalizeDeterministic(t *testing.T) {
	img := openTestDict(t, "sun/Z\nlight/ZS\nsunlight\n", `
COMPOUNDFLAG Z
SFX S Y 1
SFX S 0 s [^s]
`)

	first := img.Normalize("sunlights")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, img.Normalize("sunlights"))
	}
}

func TestNormalizeAdjacentDuplicatesSuppressed(t *testing.T) {
	// two rules reducing to the same base produce the form once
	img := openTestDict(t, "cat/ST\n", `
SFX S Y 1
SFX S 0 s [^s]
SFX T Y 1
SFX T 0 s .
`)

	assert.Equal(t, []string{"cat"}, lexTexts(img.Normalize("cats")))
}

func TestCheckAffixCompoundGating(t *testing.T) {
	img := openTestDict(t, "light/ZS\n", `
COMPOUNDFLAG Z
SFX S Y 1
SFX S 0 s .
`)

	var sfx ruleView
	found := false
	for i := 0; i < img.numRules(); i++ {
		r := img.ruleAt(uint32(i))
		if r.kind == kindSuffix {
			sfx, found = r, true
		}
	}
	require.True(t, found)

	// a plain suffix applies standalone, at a compound end, and at the
	// middle only when it carries the middle bit
	_, ok := img.checkAffix([]byte("lights"), sfx, 0, nil)
	assert.True(t, ok)
	_, ok = img.checkAffix([]byte("lights"), sfx, cfLast, nil)
	assert.True(t, ok)
	_, ok = img.checkAffix([]byte("lights"), sfx, cfMiddle, nil)
	assert.False(t, ok)
	_, ok = img.checkAffix([]byte("lights"), sfx, cfBegin, nil)
	assert.False(t, ok)
}
