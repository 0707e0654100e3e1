package spellix

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// StopList filters normalized forms that carry no search value. Lookups are
// case-folded with the same lowercaser as the dictionary.
type StopList struct {
	words []string
}

// NewStopList builds a stop list from the given words.
func NewStopList(words []string, lower func(string) string) *StopList {
	if lower == nil {
		lower = strings.ToLower
	}
	s := &StopList{words: make([]string, 0, len(words))}
	for _, w := range words {
		w = strings.TrimSpace(lower(w))
		if w != "" {
			s.words = append(s.words, w)
		}
	}
	sort.Strings(s.words)
	return s
}

// LoadStopList reads a stop list file, one word per line.
func LoadStopList(path string, lower func(string) string) (*StopList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spellix: open stop list: %w", err)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		words = append(words, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("spellix: read stop list: %w", err)
	}
	return NewStopList(words, lower), nil
}

// Contains reports whether word, already lowercased, is a stop word.
func (s *StopList) Contains(word string) bool {
	if s == nil || len(s.words) == 0 {
		return false
	}
	i := sort.SearchStrings(s.words, word)
	return i < len(s.words) && s.words[i] == word
}

// Len returns the number of stop words.
func (s *StopList) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}
