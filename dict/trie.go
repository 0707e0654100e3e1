package dict

// Build-time flat trie representations. Nodes and children live in plain
// slices referenced by index, so compaction into the relocatable image is a
// straight record-by-record copy with no pointer fixup.

type wordNode struct {
	childOff   uint32
	childCount uint32
}

type wordChild struct {
	val      byte
	isWord   bool
	compound byte   // cfMask bits
	set      uint32 // flag set index, valid when isWord
	node     uint32 // subtree node index, invalidIndex at leaves
}

type wordTrie struct {
	nodes    []wordNode
	children []wordChild
	root     uint32
}

// buildWordTrie assembles the word trie from the sorted word list. Words must
// be sorted bytewise and have their flag sets resolved.
func (b *builder) buildWordTrie(words []wordEntry) (*wordTrie, error) {
	t := &wordTrie{}
	root, err := t.mk(b, words, 0, len(words), 0)
	if err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}

func (t *wordTrie) mk(b *builder, words []wordEntry, low, high, level int) (uint32, error) {
	var (
		vals  []byte
		spans [][2]int
		last  = -1
	)
	for i := low; i < high; i++ {
		w := words[i].word
		if len(w) <= level {
			continue
		}
		c := w[level]
		if int(c) != last {
			vals = append(vals, c)
			spans = append(spans, [2]int{i, i + 1})
			last = int(c)
		} else {
			spans[len(spans)-1][1] = i + 1
		}
	}
	if len(vals) == 0 {
		return invalidIndex, nil
	}

	node := uint32(len(t.nodes))
	base := len(t.children)
	t.nodes = append(t.nodes, wordNode{
		childOff:   uint32(base),
		childCount: uint32(len(vals)),
	})
	for _, v := range vals {
		t.children = append(t.children, wordChild{val: v, set: invalidIndex, node: invalidIndex})
	}

	for gi, sp := range spans {
		ci := base + gi
		for i := sp[0]; i < sp[1]; i++ {
			if len(words[i].word) != level+1 {
				continue
			}
			set := words[i].set
			compound := b.compoundFlagValue(b.sets.get(set)) & cfMask
			if compound&cfOnly != 0 && compound&cfAny == 0 {
				compound |= cfAny
			}
			ch := t.children[ci]
			if !ch.isWord {
				ch.isWord = true
				ch.set = set
				ch.compound = compound
			} else {
				// Duplicate dictionary word: union the flag sets; the
				// compound-only restriction survives only when every
				// duplicate carries it.
				merged, err := b.mergeFlagSets(ch.set, set)
				if err != nil {
					return invalidIndex, err
				}
				only := ch.compound & compound & cfOnly
				ch.set = merged
				ch.compound = (ch.compound | compound) &^ cfOnly
				ch.compound |= only
			}
			t.children[ci] = ch
		}
		sub, err := t.mk(b, words, sp[0], sp[1], level+1)
		if err != nil {
			return invalidIndex, err
		}
		t.children[ci].node = sub
	}
	return node, nil
}

// mergeFlagSets interns the concatenation of two flag sets. Numeric flags
// need a separator, the fixed-width modes concatenate directly.
func (b *builder) mergeFlagSets(a, c uint32) (uint32, error) {
	sa, sc := b.sets.get(a), b.sets.get(c)
	if len(sa) == 0 {
		return c, nil
	}
	if len(sc) == 0 {
		return a, nil
	}
	merged := make([]byte, 0, len(sa)+len(sc)+1)
	merged = append(merged, sa...)
	if b.flagMode == FlagNum {
		merged = append(merged, ',')
	}
	merged = append(merged, sc...)
	return b.sets.add(merged)
}

type affixNode struct {
	childOff   uint32
	childCount uint32
}

type affixChild struct {
	val       byte
	ruleOff   uint32 // run in ruleIdx of rules ending at this child
	ruleCount uint32
	node      uint32 // subtree node index, invalidIndex at leaves
}

// affixTrie indexes affix rules by their add-string: forward for prefixes,
// backward for suffixes, so lookups walk the trie in the direction the affix
// is peeled off a token. Rules with an empty add-string apply at every node
// and are kept as a separate run.
type affixTrie struct {
	nodes     []affixNode
	children  []affixChild
	ruleIdx   []uint32
	root      uint32
	voidOff   uint32
	voidCount uint32
}

// buildAffixTrie assembles a trie over the rules named by idx, which must be
// sorted by add-string in trie key order (reversed for backward tries).
func buildAffixTrie(rules []affixRule, idx []uint32, backward bool) *affixTrie {
	t := &affixTrie{root: invalidIndex}

	solid := make([]uint32, 0, len(idx))
	for _, ri := range idx {
		if len(rules[ri].add) == 0 {
			t.ruleIdx = append(t.ruleIdx, ri)
		} else {
			solid = append(solid, ri)
		}
	}
	t.voidOff = 0
	t.voidCount = uint32(len(t.ruleIdx))

	t.root = t.mk(rules, solid, 0, len(solid), 0, backward)
	return t
}

func keyByte(add []byte, level int, backward bool) byte {
	if backward {
		return add[len(add)-1-level]
	}
	return add[level]
}

func (t *affixTrie) mk(rules []affixRule, idx []uint32, low, high, level int, backward bool) uint32 {
	var (
		vals  []byte
		spans [][2]int
		last  = -1
	)
	for i := low; i < high; i++ {
		add := rules[idx[i]].add
		if len(add) <= level {
			continue
		}
		c := keyByte(add, level, backward)
		if int(c) != last {
			vals = append(vals, c)
			spans = append(spans, [2]int{i, i + 1})
			last = int(c)
		} else {
			spans[len(spans)-1][1] = i + 1
		}
	}
	if len(vals) == 0 {
		return invalidIndex
	}

	node := uint32(len(t.nodes))
	base := len(t.children)
	t.nodes = append(t.nodes, affixNode{
		childOff:   uint32(base),
		childCount: uint32(len(vals)),
	})
	for _, v := range vals {
		t.children = append(t.children, affixChild{val: v, node: invalidIndex})
	}

	for gi, sp := range spans {
		ci := base + gi
		off := uint32(len(t.ruleIdx))
		for i := sp[0]; i < sp[1]; i++ {
			if len(rules[idx[i]].add) == level+1 {
				t.ruleIdx = append(t.ruleIdx, idx[i])
			}
		}
		if n := uint32(len(t.ruleIdx)) - off; n > 0 {
			t.children[ci].ruleOff = off
			t.children[ci].ruleCount = n
		}
		t.children[ci].node = t.mk(rules, idx, sp[0], sp[1], level+1, backward)
	}
	return node
}
