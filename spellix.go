package spellix

import (
	"context"
	"errors"
	"strings"

	"github.com/lexcraft/spellix/cache"
	"github.com/lexcraft/spellix/dict"
)

var (
	// ErrMissingDictFile is returned by New when no word file is configured.
	ErrMissingDictFile = errors.New("spellix: missing DictFile")
	// ErrMissingAffFile is returned by New when no affix file is configured.
	ErrMissingAffFile = errors.New("spellix: missing AffFile")
)

// Dictionary normalizes tokens against a compiled Ispell/Hunspell
// dictionary. It is safe for concurrent use. The underlying image may live
// in a shared cache; Close releases the reference.
type Dictionary struct {
	img    *dict.Image
	handle *cache.Handle
	stop   *StopList
	lower  func(string) string
	logger *Logger
}

// New compiles or attaches the dictionary described by the options. With a
// registry configured, the compiled image is built at most once per
// dictionary id and shared; otherwise it lives in this Dictionary alone.
func New(ctx context.Context, opts ...Option) (*Dictionary, error) {
	o := options{
		lower:  strings.ToLower,
		logger: NoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.affFile == "" {
		return nil, ErrMissingAffFile
	}
	if o.dictFile == "" {
		return nil, ErrMissingDictFile
	}

	stop := NewStopList(o.stopWords, o.lower)
	if o.stopFile != "" {
		var err error
		stop, err = LoadStopList(o.stopFile, o.lower)
		if err != nil {
			return nil, err
		}
	}

	build := func(ctx context.Context, _ cache.ID) ([]byte, error) {
		return dict.Compile(o.dictFile, o.affFile, dict.WithLowercaser(o.lower))
	}

	d := &Dictionary{stop: stop, lower: o.lower, logger: o.logger.WithFiles(o.dictFile, o.affFile)}

	var data []byte
	if o.registry != nil {
		h, err := o.registry.Acquire(ctx, o.id, build)
		if err != nil {
			d.logger.LogBuild(uint64(o.id), 0, false, err)
			return nil, err
		}
		d.handle = h
		data = h.Bytes()
	} else {
		var err error
		data, err = build(ctx, o.id)
		if err != nil {
			d.logger.LogBuild(uint64(o.id), 0, false, err)
			return nil, err
		}
	}

	img, err := dict.Open(data)
	if err != nil {
		d.handle.Release()
		d.logger.LogBuild(uint64(o.id), len(data), false, err)
		return nil, err
	}
	d.img = img
	d.logger.LogBuild(uint64(o.id), img.Size(), d.handle != nil && d.handle.Shared(), nil)
	return d, nil
}

// OpenImage wraps an already compiled image, bypassing rule files and cache.
func OpenImage(data []byte) (*Dictionary, error) {
	img, err := dict.Open(data)
	if err != nil {
		return nil, err
	}
	return &Dictionary{
		img:    img,
		stop:   NewStopList(nil, nil),
		lower:  strings.ToLower,
		logger: NoopLogger(),
	}, nil
}

// Normalize returns the normalized forms of one token, stop words removed.
// An unknown or empty token yields nil.
func (d *Dictionary) Normalize(token string) []dict.Lexeme {
	if len(token) == 0 {
		return nil
	}
	res := d.img.Normalize(d.lower(token))
	out := res[:0]
	for _, lx := range res {
		if !d.stop.Contains(lx.Text) {
			out = append(out, lx)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Image exposes the compiled dictionary for direct use.
func (d *Dictionary) Image() *dict.Image { return d.img }

// Close releases the dictionary's cache reference, if any. The Dictionary
// must not be used afterwards.
func (d *Dictionary) Close() error {
	d.handle.Release()
	d.img = nil
	return nil
}
