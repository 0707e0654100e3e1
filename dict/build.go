package dict

import (
	"bytes"
	"sort"
	"strings"

	"github.com/lexcraft/spellix/internal/arena"
)

// Compound-control bits. The low nibble is stored per word in the trie;
// the full byte is stored per affix rule.
const (
	cfOnly   = 0x01 // usable only inside a compound
	cfBegin  = 0x02
	cfMiddle = 0x04
	cfLast   = 0x08
	cfAny    = cfBegin | cfMiddle | cfLast
	cfMask   = 0x0F

	cfPermit = 0x10 // rule may apply at inner compound boundaries
	cfForbid = 0x20 // rule forbidden inside compounds
	cfCross  = 0x40 // prefix and suffix rules may combine
)

const (
	kindPrefix = 0
	kindSuffix = 1
)

// Hard field limits, enforced on import.
const (
	maxFlagLen  = 5 // len("65536")
	maxStripLen = 255
	maxAddLen   = 255
)

const invalidIndex = ^uint32(0)

// wordEntry is one line of the word file. raw holds the flag text as read;
// set is the resolved AffixFlagSet index, valid only after resolveFlagSets.
type wordEntry struct {
	word []byte
	raw  []byte
	set  uint32
}

// affixRule is the build-time representation of one affix rule.
//
// strip is removed from the base word and add appended when the rule inflects
// a word; normalization reverses that. The affix tries are keyed by add.
type affixRule struct {
	kind      byte
	flagflags byte
	isSimple  bool // condition matches anything
	flag      []byte
	strip     []byte
	add       []byte
	cond      []byte
}

// compoundAffixFlag maps a named compound-control flag from the affix file
// header to its bit value.
type compoundAffixFlag struct {
	flag  []byte
	num   uint32 // parsed value in FlagNum mode
	value byte
}

// flagSetTable interns deduplicated affix flag sets; words reference sets by
// index. Index 0 is reserved for the empty set when aliases are in use.
type flagSetTable struct {
	ar   *arena.Arena
	sets [][]byte
}

func (t *flagSetTable) add(set []byte) (uint32, error) {
	cp, err := t.ar.Copy(set)
	if err != nil {
		return 0, err
	}
	t.sets = append(t.sets, cp)
	return uint32(len(t.sets) - 1), nil
}

func (t *flagSetTable) get(i uint32) []byte {
	if i >= uint32(len(t.sets)) {
		return nil
	}
	return t.sets[i]
}

// builder accumulates the parsed dictionary before trie construction and
// compaction. All variable-length text lives in the arena and is discarded
// wholesale once the image is finalized.
type builder struct {
	ar    *arena.Arena
	lower func(string) string

	flagMode     FlagMode
	usesCompound bool
	usesAliases  bool

	words []wordEntry
	rules []affixRule
	cafs  []compoundAffixFlag
	sets  flagSetTable
}

func newBuilder(lower func(string) string) *builder {
	if lower == nil {
		lower = strings.ToLower
	}
	ar := arena.New(0)
	return &builder{
		ar:    ar,
		lower: lower,
		sets:  flagSetTable{ar: ar},
	}
}

func (b *builder) addWord(word, flag string) error {
	w, err := b.ar.CopyString(word)
	if err != nil {
		return err
	}
	f, err := b.ar.CopyString(flag)
	if err != nil {
		return err
	}
	b.words = append(b.words, wordEntry{word: w, raw: f})
	return nil
}

func (b *builder) addAffix(path string, line int, flag string, flagflags byte,
	mask, strip, add string, kind byte) error {

	if len(flag) > maxFlagLen {
		return configErrf(path, line, "affix flag %q too long", flag)
	}
	if len(strip) > maxStripLen {
		return configErrf(path, line, "affix strip field %q too long", strip)
	}
	if len(add) > maxAddLen {
		return configErrf(path, line, "affix add field %q too long", add)
	}

	// A compound-only or permit rule participates in compounds even when no
	// position bit was named.
	if flagflags&(cfOnly|cfPermit) != 0 && flagflags&cfAny == 0 {
		flagflags |= cfAny
	}

	r := affixRule{
		kind:      kind,
		flagflags: flagflags,
		isSimple:  mask == "." || mask == "",
	}
	var err error
	if r.flag, err = b.ar.CopyString(flag); err != nil {
		return err
	}
	if r.strip, err = b.ar.CopyString(strip); err != nil {
		return err
	}
	if r.add, err = b.ar.CopyString(add); err != nil {
		return err
	}
	if !r.isSimple {
		if r.cond, err = b.ar.CopyString(mask); err != nil {
			return err
		}
	}
	b.rules = append(b.rules, r)
	return nil
}

// addCompoundFlag records a compound-control directive from the affix file
// header. Parsing of numeric flag values is deferred to sortCompoundFlags
// since the FLAG directive may follow the compound directives in the file.
func (b *builder) addCompoundFlag(path string, line int, s string, value byte) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return configErrf(path, line, "syntax error")
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	f, err := b.ar.CopyString(s)
	if err != nil {
		return err
	}
	b.cafs = append(b.cafs, compoundAffixFlag{flag: f, value: value})
	b.usesCompound = true
	return nil
}

// sortCompoundFlags normalizes and orders the compound-control table so flag
// lookups can binary search it.
func (b *builder) sortCompoundFlags(path string) error {
	if b.flagMode == FlagNum {
		for i := range b.cafs {
			n, ok := parseFlagNum(b.cafs[i].flag)
			if !ok {
				return configErrf(path, 0, "invalid affix flag %q", b.cafs[i].flag)
			}
			b.cafs[i].num = n
		}
	}
	sort.SliceStable(b.cafs, func(i, j int) bool {
		if b.flagMode == FlagNum {
			return b.cafs[i].num < b.cafs[j].num
		}
		return bytes.Compare(b.cafs[i].flag, b.cafs[j].flag) < 0
	})
	return nil
}

// compoundFlagValue ORs the bit values of every flag in set that names a
// compound-control directive.
func (b *builder) compoundFlagValue(set []byte) byte {
	if len(b.cafs) == 0 {
		return 0
	}
	var out byte
	for len(set) > 0 {
		f, rest, err := nextFlag(b.flagMode, set)
		if err != nil {
			break
		}
		if v, ok := b.lookupCompoundFlag(f); ok {
			out |= v
		}
		set = rest
	}
	return out
}

func (b *builder) lookupCompoundFlag(flag []byte) (byte, bool) {
	if b.flagMode == FlagNum {
		n, ok := parseFlagNum(flag)
		if !ok {
			return 0, false
		}
		i := sort.Search(len(b.cafs), func(i int) bool { return b.cafs[i].num >= n })
		if i < len(b.cafs) && b.cafs[i].num == n {
			return b.cafs[i].value, true
		}
		return 0, false
	}
	i := sort.Search(len(b.cafs), func(i int) bool {
		return bytes.Compare(b.cafs[i].flag, flag) >= 0
	})
	if i < len(b.cafs) && bytes.Equal(b.cafs[i].flag, flag) {
		return b.cafs[i].value, true
	}
	return 0, false
}

func parseFlagNum(s []byte) (uint32, bool) {
	if len(s) == 0 {
		return 0, false
	}
	v := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
		if v > flagNumMax {
			return 0, false
		}
	}
	return uint32(v), true
}

// isAffixFlagInUse reports whether any interned flag set references flag.
// Rules for flags never used by the word list are skipped when building the
// compound-affix index.
func (b *builder) isAffixFlagInUse(flag []byte) bool {
	for _, set := range b.sets.sets {
		if len(set) > 0 && containsFlag(b.flagMode, set, flag) {
			return true
		}
	}
	return false
}
