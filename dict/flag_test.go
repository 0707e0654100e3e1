package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFlag(t *testing.T) {
	tests := []struct {
		name     string
		mode     FlagMode
		set      string
		wantFlag string
		wantRest string
		wantErr  bool
	}{
		{name: "char single", mode: FlagChar, set: "A", wantFlag: "A", wantRest: ""},
		{name: "char run", mode: FlagChar, set: "ABC", wantFlag: "A", wantRest: "BC"},
		{name: "char empty", mode: FlagChar, set: "", wantErr: true},
		{name: "long pair", mode: FlagLong, set: "ABCD", wantFlag: "AB", wantRest: "CD"},
		{name: "long truncated", mode: FlagLong, set: "A", wantErr: true},
		{name: "num single", mode: FlagNum, set: "200", wantFlag: "200", wantRest: ""},
		{name: "num comma", mode: FlagNum, set: "200,5", wantFlag: "200", wantRest: "5"},
		{name: "num comma space", mode: FlagNum, set: "200, 5", wantFlag: "200", wantRest: "5"},
		{name: "num max", mode: FlagNum, set: "65536", wantFlag: "65536", wantRest: ""},
		{name: "num out of range", mode: FlagNum, set: "65537", wantErr: true},
		{name: "num missing comma", mode: FlagNum, set: "200 5", wantErr: true},
		{name: "num double comma", mode: FlagNum, set: "200,,5", wantErr: true},
		{name: "num not a digit", mode: FlagNum, set: "x", wantErr: true},
		{name: "num junk separator", mode: FlagNum, set: "200;5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag, rest, err := nextFlag(tt.mode, []byte(tt.set))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlag, string(flag))
			assert.Equal(t, tt.wantRest, string(rest))
		})
	}
}

func TestContainsFlag(t *testing.T) {
	assert.True(t, containsFlag(FlagChar, []byte("XYZ"), []byte("Y")))
	assert.False(t, containsFlag(FlagChar, []byte("XYZ"), []byte("A")))
	assert.True(t, containsFlag(FlagLong, []byte("AABB"), []byte("BB")))
	assert.False(t, containsFlag(FlagLong, []byte("AABB"), []byte("AB")))
	assert.True(t, containsFlag(FlagNum, []byte("12,345,6"), []byte("345")))
	assert.False(t, containsFlag(FlagNum, []byte("12,345,6"), []byte("34")))

	// the empty flag matches any set
	assert.True(t, containsFlag(FlagChar, []byte("XYZ"), nil))
	assert.True(t, containsFlag(FlagChar, nil, nil))

	// a malformed set matches nothing
	assert.False(t, containsFlag(FlagNum, []byte("12;9"), []byte("9")))
}

func TestFlagModeString(t *testing.T) {
	assert.Equal(t, "default", FlagChar.String())
	assert.Equal(t, "long", FlagLong.String())
	assert.Equal(t, "num", FlagNum.String())
}

func TestTruncateFlagText(t *testing.T) {
	assert.Equal(t, "ABC", truncateFlagText("ABC"))
	assert.Equal(t, "AB", truncateFlagText("AB C"))
	assert.Equal(t, "AB", truncateFlagText("AB\xc3\xa9"))
	assert.Equal(t, "", truncateFlagText(" AB"))
}
