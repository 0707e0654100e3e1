package dict

import (
	"bytes"

	"github.com/RoaringBitmap/roaring/v2"
)

const (
	// maxNorm bounds the number of output forms per token.
	maxNorm = 1024
	// maxNormLen bounds the token length; longer tokens normalize to
	// nothing.
	maxNormLen = 256

	// splitWorkBudget bounds the total number of split positions examined
	// across one token's compound analysis, recursion included. Pathological
	// tokens degrade to fewer split readings instead of runaway recursion.
	splitWorkBudget = 8192
)

// Lexeme is one normalized form of a token. Forms sharing a Variant belong
// to the same compound reading.
type Lexeme struct {
	Text    string
	Variant uint16
}

// findWord looks word up in the word trie. affixFlag, when non-empty, must
// be present in the word's flag set. compound carries the required compound
// position bits; zero means a standalone lookup, which rejects words usable
// only inside compounds.
func (img *Image) findWord(word []byte, affixFlag []byte, compound byte) bool {
	compound &= cfMask
	node := img.wordRoot
	for i := 0; i < len(word); i++ {
		if node == invalidIndex {
			return false
		}
		c, ok := img.findWordChild(node, word[i])
		if !ok {
			return false
		}
		if i == len(word)-1 && c.isWord {
			if compound == 0 {
				if c.compound&cfOnly != 0 {
					return false
				}
			} else if compound&c.compound == 0 {
				return false
			}
			if len(affixFlag) == 0 {
				return true
			}
			return containsFlag(img.flagMode, img.flagSet(c.set), affixFlag)
		}
		node = c.node
	}
	return false
}

func (img *Image) findWordChild(node uint32, val byte) (wordChildView, bool) {
	off, cnt := img.wordNodeAt(node)
	lo, hi := off, off+cnt
	for lo < hi {
		mid := lo + (hi-lo)/2
		c := img.wordChildAt(mid)
		switch {
		case c.val == val:
			return c, true
		case c.val < val:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return wordChildView{}, false
}

func (img *Image) findAffixChild(kind byte, node uint32, val byte) (affixChildView, bool) {
	off, cnt := img.affixNodeAt(kind, node)
	lo, hi := off, off+cnt
	for lo < hi {
		mid := lo + (hi-lo)/2
		c := img.affixChildAt(kind, mid)
		switch {
		case c.val == val:
			return c, true
		case c.val < val:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return affixChildView{}, false
}

// affixWalk iterates the affix rules applicable to word, cheapest first:
// rules with an empty add-string, then rules whose add-string matches ever
// longer runs of the word. Suffix tries consume the word from the end.
type affixWalk struct {
	img   *Image
	kind  byte
	word  []byte
	node  uint32
	level int

	runOff   uint32
	runCount uint32
	runPos   uint32
}

func (img *Image) walkAffixes(kind byte, word []byte) affixWalk {
	w := affixWalk{img: img, kind: kind, word: word}
	if kind == kindSuffix {
		w.node = img.suffixRoot
		w.runOff, w.runCount = img.suffixVoidOff, img.suffixVoidCount
	} else {
		w.node = img.prefixRoot
		w.runOff, w.runCount = img.prefixVoidOff, img.prefixVoidCount
	}
	return w
}

func (w *affixWalk) next() (ruleView, bool) {
	for {
		if w.runPos < w.runCount {
			ri := w.img.ruleListAt(w.runOff + w.runPos)
			w.runPos++
			return w.img.ruleAt(ri), true
		}
		if w.node == invalidIndex || w.level >= len(w.word) {
			return ruleView{}, false
		}
		val := w.word[w.level]
		if w.kind == kindSuffix {
			val = w.word[len(w.word)-1-w.level]
		}
		child, ok := w.img.findAffixChild(w.kind, w.node, val)
		if !ok {
			return ruleView{}, false
		}
		w.level++
		w.runOff, w.runCount, w.runPos = child.ruleOff, child.ruleCount, 0
		w.node = child.node
	}
}

// checkAffix tries to undo rule r on word. flagflags is the compound context
// of the token: at a compound begin a suffix rule must carry the begin bit,
// at a compound end a prefix rule must carry the last bit, and forbidden
// rules never apply inside compounds. On success the candidate base word is
// returned after passing the rule's condition pattern. baselen, when
// non-nil, communicates the unchanged length from a suffix application to a
// following prefix check so that a word consisting of nothing but affixes is
// rejected.
func (img *Image) checkAffix(word []byte, r ruleView, flagflags byte, baselen *int) ([]byte, bool) {
	if flagflags == 0 {
		if r.flagflags&cfOnly != 0 {
			return nil, false
		}
	} else if flagflags&cfBegin != 0 {
		if r.flagflags&cfForbid != 0 {
			return nil, false
		}
		if r.flagflags&cfBegin == 0 && r.kind == kindSuffix {
			return nil, false
		}
	} else if flagflags&cfMiddle != 0 {
		if r.flagflags&cfMiddle == 0 || r.flagflags&cfForbid != 0 {
			return nil, false
		}
	} else if flagflags&cfLast != 0 {
		if r.flagflags&cfForbid != 0 {
			return nil, false
		}
		if r.flagflags&cfLast == 0 && r.kind == kindPrefix {
			return nil, false
		}
	}

	var cand []byte
	if r.kind == kindSuffix {
		keep := len(word) - len(r.add)
		cand = make([]byte, 0, keep+len(r.strip))
		cand = append(cand, word[:keep]...)
		cand = append(cand, r.strip...)
		if baselen != nil {
			*baselen = keep
		}
	} else {
		// A prefix covering the whole unchanged part means the word is
		// nothing but a prefix and a suffix.
		if baselen != nil && *baselen+len(r.strip) <= len(r.add) {
			return nil, false
		}
		cand = make([]byte, 0, len(r.strip)+len(word)-len(r.add))
		cand = append(cand, r.strip...)
		cand = append(cand, word[len(r.add):]...)
	}

	if !img.patterns.match(r, cand) {
		return nil, false
	}
	return cand, true
}

func addSubResult(forms [][]byte, word []byte) [][]byte {
	if len(forms) >= maxNorm-1 {
		return forms
	}
	if len(forms) > 0 && bytes.Equal(word, forms[len(forms)-1]) {
		return forms
	}
	return append(forms, append([]byte(nil), word...))
}

// normalizeSubWord returns the dictionary base forms of word in the given
// compound context: the word itself if listed, then prefix-stripped forms,
// then suffix-stripped forms with a nested prefix pass over each.
func (img *Image) normalizeSubWord(word []byte, flagflags byte) [][]byte {
	if len(word) > maxNormLen {
		return nil
	}
	var forms [][]byte

	if img.findWord(word, nil, flagflags) {
		forms = addSubResult(forms, word)
	}

	pw := img.walkAffixes(kindPrefix, word)
	for {
		pr, ok := pw.next()
		if !ok {
			break
		}
		if cand, ok := img.checkAffix(word, pr, flagflags, nil); ok {
			if img.findWord(cand, pr.flag, flagflags) {
				forms = addSubResult(forms, cand)
			}
		}
	}

	sw := img.walkAffixes(kindSuffix, word)
	for {
		sr, ok := sw.next()
		if !ok {
			break
		}
		baselen := 0
		cand, ok := img.checkAffix(word, sr, flagflags, &baselen)
		if !ok {
			continue
		}
		if img.findWord(cand, sr.flag, flagflags) {
			forms = addSubResult(forms, cand)
		}

		// Cross-product: the suffix-stripped form may still carry a prefix.
		npw := img.walkAffixes(kindPrefix, cand)
		for {
			pr, ok := npw.next()
			if !ok {
				break
			}
			pcand, ok := img.checkAffix(cand, pr, flagflags, &baselen)
			if !ok {
				continue
			}
			var ff []byte
			if pr.flagflags&sr.flagflags&cfCross == 0 {
				ff = pr.flag
			}
			if img.findWord(pcand, ff, flagflags) {
				forms = addSubResult(forms, pcand)
			}
		}
	}
	return forms
}

// compound splitting

type splitVar struct {
	stems [][]byte
	next  *splitVar
}

func copyVar(s *splitVar) *splitVar {
	v := &splitVar{}
	if s != nil {
		v.stems = append(make([][]byte, 0, len(s.stems)+4), s.stems...)
	}
	return v
}

func (v *splitVar) addStem(stem []byte) {
	v.stems = append(v.stems, stem)
}

type splitter struct {
	img    *Image
	word   []byte
	budget int
}

// nextCompoundAffix scans the compound-affix index from cursor position *pi
// for an affix occurring in rest. With inPlace set the affix must start at
// the beginning of rest; otherwise it may occur anywhere. The returned
// length is where the following segment starts relative to rest: past a
// matched suffix, at the match point for a prefix. ok is false when the
// index is exhausted.
func (s *splitter) nextCompoundAffix(pi *int, rest []byte, inPlace bool) (int, bool) {
	for ; *pi < s.img.numCompound(); *pi++ {
		r := s.img.compoundRuleAt(*pi)
		if len(rest) <= len(r.add) {
			continue
		}
		if inPlace {
			if !bytes.HasPrefix(rest, r.add) {
				continue
			}
			*pi++
			if r.kind == kindSuffix {
				return len(r.add), true
			}
			return 0, true
		}
		at := bytes.Index(rest, r.add)
		if at < 0 {
			continue
		}
		*pi++
		if r.kind == kindSuffix {
			return len(r.add) + at, true
		}
		return 0, true
	}
	return 0, false
}

// split enumerates compound readings of s.word beginning at startpos. snode
// resumes a trie walk mid-word for the longer-word branch; minpos is the
// level below which no new segment may end. Each reading is a splitVar whose
// stems concatenate to the word.
func (s *splitter) split(snode uint32, resume bool, orig *splitVar, startpos, minpos int) *splitVar {
	node := s.img.wordRoot
	level := startpos
	if resume {
		node = snode
		level = minpos
	}
	probed := roaring.New()
	v := copyVar(orig)
	wordlen := len(s.word)

	for level < wordlen {
		if s.budget <= 0 {
			break
		}
		s.budget--

		// A compound-joining affix at this point may end a segment.
		ci := 0
		for level > startpos {
			lenaff, ok := s.nextCompoundAffix(&ci, s.word[level:], node != invalidIndex)
			if !ok {
				break
			}
			lenaff = level - startpos + lenaff
			if probed.Contains(uint32(startpos + lenaff - 1)) {
				continue
			}
			if level+lenaff-1 <= minpos {
				continue
			}
			if lenaff >= maxNormLen {
				continue
			}
			seg := s.word[startpos : startpos+lenaff]

			var compound byte
			switch {
			case level == 0:
				compound = cfBegin
			case level == wordlen-1:
				compound = cfLast
			default:
				compound = cfMiddle
			}
			subres := s.img.normalizeSubWord(seg, compound)
			if len(subres) == 0 {
				continue
			}
			probed.Add(uint32(startpos + lenaff - 1))

			branch := copyVar(v)
			for _, f := range subres {
				branch.addStem(f)
			}
			tail := s.split(invalidIndex, false, branch, startpos+lenaff, startpos+lenaff)
			last := v
			for last.next != nil {
				last = last.next
			}
			last.next = tail
		}

		if node == invalidIndex {
			break
		}
		c, found := s.img.findWordChild(node, s.word[level])
		if found {
			var compound byte
			switch {
			case startpos == 0:
				compound = cfBegin
			case level == wordlen-1:
				compound = cfLast
			default:
				compound = cfMiddle
			}
			if c.isWord && c.compound&compound != 0 && !probed.Contains(uint32(level)) {
				if level > minpos {
					if wordlen == level+1 {
						// the whole remainder is a dictionary word
						v.addStem(s.word[startpos:wordlen])
						return v
					}
					// branch: keep looking for a longer word at this point
					tail := s.split(node, true, v, startpos, level)
					last := v
					for last.next != nil {
						last = last.next
					}
					last.next = tail

					level++
					v.addStem(s.word[startpos:level])
					node = s.img.wordRoot
					startpos = level
					continue
				}
			}
			node = c.node
		} else {
			node = invalidIndex
		}
		level++
	}

	v.addStem(s.word[startpos:wordlen])
	return v
}

// Normalize returns every normalized reading of a token: base forms of the
// token itself, then, for compound-enabled dictionaries, the stems of each
// recognized compound split with the final segment reduced to its base
// forms. Forms of one reading share a variant number. Tokens longer than
// maxNormLen yield nil.
func (img *Image) Normalize(word string) []Lexeme {
	if len(word) > maxNormLen {
		return nil
	}
	w := []byte(word)

	var out []Lexeme
	variant := uint16(1)
	add := func(text []byte, nv uint16) {
		if len(out) < maxNorm-1 {
			out = append(out, Lexeme{Text: string(text), Variant: nv})
		}
	}

	for _, f := range img.normalizeSubWord(w, 0) {
		add(f, variant)
		variant++
	}

	if img.usesCompound {
		s := &splitter{img: img, word: w, budget: splitWorkBudget}
		for v := s.split(invalidIndex, false, nil, 0, -1); v != nil; v = v.next {
			if len(v.stems) <= 1 {
				continue
			}
			last := v.stems[len(v.stems)-1]
			for _, f := range img.normalizeSubWord(last, cfLast) {
				for _, stem := range v.stems[:len(v.stems)-1] {
					add(stem, variant)
				}
				add(f, variant)
				variant++
			}
		}
	}
	return out
}
