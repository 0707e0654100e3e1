package dict

import (
	"regexp"
	"sync/atomic"
)

// patternTable caches compiled affix condition patterns, keyed by rule index.
// It is process-local state beside the shareable image: compiled patterns
// hold pointers and cannot live in the relocatable buffer. Entries are
// compiled on first use; racing goroutines may compile the same pattern
// twice, which is harmless since the results are interchangeable.
type patternTable struct {
	pats []atomic.Pointer[pattern]
}

type pattern struct {
	re *regexp.Regexp // nil means the condition never matches
}

func (t *patternTable) init(n int) {
	t.pats = make([]atomic.Pointer[pattern], n)
}

// match reports whether word satisfies the rule's condition. Suffix
// conditions are anchored at the end of the word, prefix conditions at the
// start. A condition that fails to compile matches nothing.
func (t *patternTable) match(r ruleView, word []byte) bool {
	if r.isSimple {
		return true
	}
	p := t.pats[r.idx].Load()
	if p == nil {
		var expr string
		if r.kind == kindSuffix {
			expr = string(r.cond) + "$"
		} else {
			expr = "^" + string(r.cond)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			re = nil
		}
		p = &pattern{re: re}
		t.pats[r.idx].Store(p)
	}
	if p.re == nil {
		return false
	}
	return p.re.Match(word)
}
