package dict

import (
	"bufio"
	"os"
	"strings"
	"unicode"
)

// readLines loads a rule file as UTF-8 text, one entry per line. A BOM on the
// first line is dropped.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, err: err}
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, &IOError{Op: "read", Path: path, err: err}
	}
	return lines, nil
}

// importWords reads the word file. Each line is "word" or "word/flags"; the
// word is truncated at the first whitespace and lowercased, the flag text at
// the first byte that is not printable single-byte ASCII.
func (b *builder) importWords(path string) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}

	for _, line := range lines {
		word := line
		flag := ""
		if i := strings.IndexByte(line, '/'); i >= 0 {
			word = line[:i]
			flag = truncateFlagText(line[i+1:])
		}
		if i := strings.IndexFunc(word, unicode.IsSpace); i >= 0 {
			word = word[:i]
		}
		if word == "" {
			continue
		}
		if err := b.addWord(b.lower(word), flag); err != nil {
			return err
		}
	}
	return nil
}

// truncateFlagText keeps the leading run of printable single-byte characters.
// Multibyte flags in the word file are not supported; everything from the
// first offending byte on is dropped.
func truncateFlagText(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] >= 0x7F {
			return s[:i]
		}
	}
	return s
}
