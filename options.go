package spellix

import (
	"strings"

	"github.com/lexcraft/spellix/cache"
)

type options struct {
	dictFile  string
	affFile   string
	stopFile  string
	stopWords []string
	lower     func(string) string

	registry *cache.Registry
	id       cache.ID

	logger *Logger
}

// Option configures dictionary construction.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. backing-specific constructor variants).
type Option func(*options)

// WithDictFile sets the word list file. Required.
func WithDictFile(path string) Option {
	return func(o *options) {
		o.dictFile = path
	}
}

// WithAffFile sets the affix rule file. Required.
func WithAffFile(path string) Option {
	return func(o *options) {
		o.affFile = path
	}
}

// WithStopWordsFile loads stop words from a file, one per line.
func WithStopWordsFile(path string) Option {
	return func(o *options) {
		o.stopFile = path
	}
}

// WithStopWords sets stop words directly.
func WithStopWords(words []string) Option {
	return func(o *options) {
		o.stopWords = words
	}
}

// WithLowercaser overrides the case folding applied to rule files, tokens,
// and stop words. The default is strings.ToLower.
func WithLowercaser(fn func(string) string) Option {
	return func(o *options) {
		if fn == nil {
			fn = strings.ToLower
		}
		o.lower = fn
	}
}

// WithRegistry shares the compiled image through a cache registry. id must
// change whenever the rule files change; cache.InvalidID keeps the image
// private.
func WithRegistry(r *cache.Registry, id cache.ID) Option {
	return func(o *options) {
		o.registry = r
		o.id = id
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
