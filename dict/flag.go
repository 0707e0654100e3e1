package dict

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// FlagMode is the encoding of affix flags, fixed per dictionary.
type FlagMode uint8

const (
	// FlagChar names each affix rule family by a single character.
	FlagChar FlagMode = iota
	// FlagLong names each family by two characters.
	FlagLong
	// FlagNum names each family by a decimal number below 65536.
	FlagNum
)

func (m FlagMode) String() string {
	switch m {
	case FlagChar:
		return "default"
	case FlagLong:
		return "long"
	case FlagNum:
		return "num"
	}
	return fmt.Sprintf("FlagMode(%d)", uint8(m))
}

const flagNumMax = 1 << 16

// nextFlag extracts the first affix flag from a flag set string and returns
// the remainder of the set. Depending on the mode a set looks like:
//
//	FlagChar: "ABCD"       -> A, B, C, D
//	FlagLong: "ABCDE*"     -> AB, CD, E*
//	FlagNum:  "200,205,50" -> 200, 205, 50
func nextFlag(mode FlagMode, set []byte) (flag, rest []byte, err error) {
	switch mode {
	case FlagChar, FlagLong:
		_, n := utf8.DecodeRune(set)
		if n == 0 {
			return nil, nil, fmt.Errorf("empty affix flag")
		}
		if mode == FlagLong {
			_, n2 := utf8.DecodeRune(set[n:])
			if n2 == 0 {
				return nil, nil, fmt.Errorf("invalid affix flag %q with \"long\" flag value", set)
			}
			n += n2
		}
		return set[:n], set[n:], nil

	case FlagNum:
		i := 0
		for i < len(set) && set[i] >= '0' && set[i] <= '9' {
			i++
		}
		if i == 0 {
			return nil, nil, fmt.Errorf("invalid affix flag %q", set)
		}
		v := 0
		for _, c := range set[:i] {
			v = v*10 + int(c-'0')
			if v > flagNumMax {
				return nil, nil, fmt.Errorf("affix flag %q is out of range", set)
			}
		}
		flag = set[:i]
		rest = set[i:]
		metComma := false
		for len(rest) > 0 {
			switch c := rest[0]; {
			case c >= '0' && c <= '9':
				if !metComma {
					return nil, nil, fmt.Errorf("invalid affix flag %q", set)
				}
				return flag, rest, nil
			case c == ',':
				if metComma {
					return nil, nil, fmt.Errorf("invalid affix flag %q", set)
				}
				metComma = true
			case c == ' ' || c == '\t':
				// skip
			default:
				return nil, nil, fmt.Errorf("invalid character in affix flag %q", set)
			}
			rest = rest[1:]
		}
		return flag, rest, nil
	}
	return nil, nil, fmt.Errorf("unrecognized flag mode: %d", mode)
}

// containsFlag reports whether the flag set contains the given affix flag.
// An empty flag matches unconditionally.
func containsFlag(mode FlagMode, set, flag []byte) bool {
	if len(flag) == 0 {
		return true
	}
	for len(set) > 0 {
		f, rest, err := nextFlag(mode, set)
		if err != nil {
			return false
		}
		if bytes.Equal(f, flag) {
			return true
		}
		set = rest
	}
	return false
}
