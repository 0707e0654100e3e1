package dict

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
)

type compileOptions struct {
	lower func(string) string
}

// CompileOption configures dictionary compilation.
type CompileOption func(*compileOptions)

// WithLowercaser overrides the case-folding function applied to dictionary
// words and affix fields. The default is strings.ToLower.
func WithLowercaser(fn func(string) string) CompileOption {
	return func(o *compileOptions) {
		o.lower = fn
	}
}

// Compile reads a word file and an affix file and produces a compiled
// dictionary image: a single contiguous buffer that is position-independent
// and immutable, ready for Open, for persisting, or for placement in shared
// memory. All intermediate allocations are released before Compile returns.
func Compile(wordPath, affixPath string, opts ...CompileOption) ([]byte, error) {
	o := compileOptions{lower: strings.ToLower}
	for _, opt := range opts {
		opt(&o)
	}

	b := newBuilder(o.lower)
	defer b.ar.Free()

	if err := b.importAffixes(affixPath); err != nil {
		return nil, err
	}
	if err := b.importWords(wordPath); err != nil {
		return nil, err
	}
	if err := b.resolveFlagSets(wordPath); err != nil {
		return nil, err
	}

	sort.SliceStable(b.words, func(i, j int) bool {
		return bytes.Compare(b.words[i].word, b.words[j].word) < 0
	})
	wt, err := b.buildWordTrie(b.words)
	if err != nil {
		return nil, err
	}

	prefixes, suffixes := b.sortAffixes()
	pt := buildAffixTrie(b.rules, prefixes, false)
	st := buildAffixTrie(b.rules, suffixes, true)
	compound := b.compoundIndex(prefixes, suffixes)

	return b.serialize(wt, pt, st, compound)
}

// resolveFlagSets turns each word's raw flag text into a flag set index.
// With an AF alias table the text is a 1-based index into it; otherwise
// distinct flag strings are interned directly.
func (b *builder) resolveFlagSets(path string) error {
	if b.usesAliases {
		for i := range b.words {
			raw := b.words[i].raw
			if len(raw) == 0 {
				b.words[i].set = 0
				continue
			}
			idx, err := strconv.Atoi(string(raw))
			if err != nil || idx <= 0 || idx >= len(b.sets.sets) {
				return configErrf(path, 0, "invalid affix alias %q", raw)
			}
			b.words[i].set = uint32(idx)
		}
		return nil
	}

	// Index 0 stays the empty set so unflagged words need no special case.
	if len(b.sets.sets) == 0 {
		if _, err := b.sets.add(nil); err != nil {
			return err
		}
	}
	interned := map[string]uint32{"": 0}
	for i := range b.words {
		key := string(b.words[i].raw)
		idx, ok := interned[key]
		if !ok {
			var err error
			idx, err = b.sets.add(b.words[i].raw)
			if err != nil {
				return err
			}
			interned[key] = idx
		}
		b.words[i].set = idx
	}
	return nil
}

// sortAffixes orders rule indexes by trie key: prefixes by add-string,
// suffixes by reversed add-string. Rule records themselves stay in file
// order so indexes remain stable.
func (b *builder) sortAffixes() (prefixes, suffixes []uint32) {
	for i := range b.rules {
		if b.rules[i].kind == kindPrefix {
			prefixes = append(prefixes, uint32(i))
		} else {
			suffixes = append(suffixes, uint32(i))
		}
	}
	sort.SliceStable(prefixes, func(i, j int) bool {
		return bytes.Compare(b.rules[prefixes[i]].add, b.rules[prefixes[j]].add) < 0
	})
	sort.SliceStable(suffixes, func(i, j int) bool {
		return backwardLess(b.rules[suffixes[i]].add, b.rules[suffixes[j]].add)
	})
	return prefixes, suffixes
}

func backwardLess(a, c []byte) bool {
	i, j := len(a)-1, len(c)-1
	for i >= 0 && j >= 0 {
		if a[i] != c[j] {
			return a[i] < c[j]
		}
		i--
		j--
	}
	return i < j
}

// backwardHasPrefix reports whether p is a trailing segment of s.
func backwardHasPrefix(s, p []byte) bool {
	return len(p) <= len(s) && bytes.Equal(s[len(s)-len(p):], p)
}

// compoundIndex lists the rules that can mark a compound segment boundary.
// Rules with an empty add-string contribute no boundary text and are
// skipped, as are rules whose flag no word references. A rule is dropped
// when the previous kept rule of the same kind has an add-string that is a
// key-order prefix of its own: the shorter rule already matches wherever
// the longer one would.
func (b *builder) compoundIndex(prefixes, suffixes []uint32) []uint32 {
	var out []uint32
	add := func(idx []uint32, backward bool) {
		prev := invalidIndex
		for _, ri := range idx {
			r := &b.rules[ri]
			if len(r.add) == 0 || r.flagflags&cfAny == 0 || !b.isAffixFlagInUse(r.flag) {
				continue
			}
			if prev != invalidIndex {
				pa := b.rules[prev].add
				if backward && backwardHasPrefix(r.add, pa) {
					continue
				}
				if !backward && bytes.HasPrefix(r.add, pa) {
					continue
				}
			}
			out = append(out, ri)
			prev = ri
		}
	}
	add(prefixes, false)
	add(suffixes, true)
	return out
}

// section assembly

type imageWriter struct {
	sections [sectionCount][]byte
}

func putU32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

func putU16(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

func (w *imageWriter) putWordNodes(t *wordTrie) {
	buf := make([]byte, len(t.nodes)*wordNodeSize)
	for i, n := range t.nodes {
		putU32(buf, i*wordNodeSize, n.childOff)
		putU32(buf, i*wordNodeSize+4, n.childCount)
	}
	w.sections[secWordNodes] = buf

	buf = make([]byte, len(t.children)*wordChildSize)
	for i, c := range t.children {
		off := i * wordChildSize
		buf[off] = c.val
		if c.isWord {
			buf[off+1] = 1
		}
		buf[off+2] = c.compound
		putU32(buf, off+4, c.set)
		putU32(buf, off+8, c.node)
	}
	w.sections[secWordChildren] = buf
}

func (w *imageWriter) putFlagSets(t *flagSetTable) {
	offs := make([]byte, (len(t.sets)+1)*4)
	var heap []byte
	for i, set := range t.sets {
		putU32(offs, i*4, uint32(len(heap)))
		heap = append(heap, set...)
	}
	putU32(offs, len(t.sets)*4, uint32(len(heap)))
	w.sections[secSetOffsets] = offs
	w.sections[secSetHeap] = heap
}

func (w *imageWriter) putRules(rules []affixRule) {
	buf := make([]byte, len(rules)*ruleSize)
	var heap []byte
	str := func(s []byte) uint32 {
		off := uint32(len(heap))
		heap = append(heap, s...)
		return off
	}
	for i, r := range rules {
		off := i * ruleSize
		buf[off] = r.kind
		buf[off+1] = r.flagflags
		if r.isSimple {
			buf[off+2] = 1
		}
		buf[off+3] = byte(len(r.flag))
		putU32(buf, off+4, str(r.flag))
		putU32(buf, off+8, str(r.strip))
		putU32(buf, off+12, str(r.add))
		putU32(buf, off+16, str(r.cond))
		putU16(buf, off+20, uint16(len(r.strip)))
		putU16(buf, off+22, uint16(len(r.add)))
		putU16(buf, off+24, uint16(len(r.cond)))
	}
	w.sections[secRules] = buf
	w.sections[secStringHeap] = heap
}

func (w *imageWriter) putAffixTrie(t *affixTrie, nodeSec, childSec int) {
	buf := make([]byte, len(t.nodes)*affixNodeSize)
	for i, n := range t.nodes {
		putU32(buf, i*affixNodeSize, n.childOff)
		putU32(buf, i*affixNodeSize+4, n.childCount)
	}
	w.sections[nodeSec] = buf

	buf = make([]byte, len(t.children)*affixChildSize)
	for i, c := range t.children {
		off := i * affixChildSize
		buf[off] = c.val
		putU32(buf, off+4, c.ruleOff)
		putU32(buf, off+8, c.ruleCount)
		putU32(buf, off+12, c.node)
	}
	w.sections[childSec] = buf
}

func putU32Slice(vals []uint32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		putU32(buf, i*4, v)
	}
	return buf
}

// serialize lays the tries, rules, and flag sets out as one contiguous
// little-endian buffer headed by a section directory.
func (b *builder) serialize(wt *wordTrie, pt, st *affixTrie, compound []uint32) ([]byte, error) {
	var w imageWriter
	w.putWordNodes(wt)
	w.putFlagSets(&b.sets)
	w.putRules(b.rules)
	w.putAffixTrie(pt, secPrefixNodes, secPrefixChildren)
	w.putAffixTrie(st, secSuffixNodes, secSuffixChildren)

	// The two rule-index lists share one section; suffix references are
	// shifted past the prefix ones.
	shift := uint32(len(pt.ruleIdx))
	ruleIdx := make([]uint32, 0, len(pt.ruleIdx)+len(st.ruleIdx))
	ruleIdx = append(ruleIdx, pt.ruleIdx...)
	ruleIdx = append(ruleIdx, st.ruleIdx...)
	w.sections[secRuleLists] = putU32Slice(ruleIdx)
	w.sections[secCompound] = putU32Slice(compound)

	shiftChildren := w.sections[secSuffixChildren]
	for i := 0; i < len(st.children); i++ {
		off := i * affixChildSize
		if st.children[i].ruleCount > 0 {
			putU32(shiftChildren, off+4, st.children[i].ruleOff+shift)
		}
	}

	total := headerSize
	for _, s := range w.sections {
		total += len(s)
	}
	img := make([]byte, headerSize, total)

	putU32(img, 0, imageMagic)
	putU32(img, 4, FormatVersion)
	img[8] = byte(b.flagMode)
	if b.usesCompound {
		img[9] = 1
	}
	if b.usesAliases {
		img[10] = 1
	}
	putU32(img, 12, wt.root)
	putU32(img, 16, pt.root)
	putU32(img, 20, st.root)
	putU32(img, 24, pt.voidOff)
	putU32(img, 28, pt.voidCount)
	putU32(img, 32, st.voidOff+shift)
	putU32(img, 36, st.voidCount)
	putU32(img, 40, sectionCount)

	off := uint32(headerSize)
	for i, s := range w.sections {
		putU32(img, dirOffset+i*8, off)
		putU32(img, dirOffset+i*8+4, uint32(len(s)))
		off += uint32(len(s))
	}
	for _, s := range w.sections {
		img = append(img, s...)
	}
	return img, nil
}
