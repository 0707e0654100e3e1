package dict

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMagic is returned when a buffer does not start with a
	// compiled dictionary image.
	ErrInvalidMagic = errors.New("dict: invalid image magic")
	// ErrInvalidVersion is returned for images compiled by an
	// incompatible format version.
	ErrInvalidVersion = errors.New("dict: unsupported image version")
)

// ConfigError reports malformed dictionary or affix file content: bad flags,
// oversized fields, conflicting directives. It aborts the build.
type ConfigError struct {
	Path string
	Line int
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("dict: %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("dict: %s: %s", e.Path, e.Msg)
}

func configErrf(path string, line int, format string, args ...any) error {
	return &ConfigError{Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// IOError reports a failure to open or read a rule file.
//
// The underlying error can be accessed via errors.Unwrap.
type IOError struct {
	Op   string
	Path string
	err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("dict: could not %s %q: %v", e.Op, e.Path, e.err)
}

func (e *IOError) Unwrap() error { return e.err }

// InvariantError reports internal trie or offset inconsistency in a compiled
// image. It indicates corruption, not user error.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "dict: image invariant violated: " + e.Msg
}

func invariantf(format string, args ...any) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
