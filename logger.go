package spellix

import (
	"io"
	"log/slog"
	"os"
)

// Logger carries the module's structured diagnostics: dictionary ids, rule
// file paths, build outcomes. It embeds slog.Logger, so every standard
// logging method is available next to the helpers below.
type Logger struct {
	*slog.Logger
}

// NewLogger builds a Logger over handler. A nil handler logs info-level
// text to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger logs JSON records to stderr at the given minimum level.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger logs human-readable records to stderr at the given minimum
// level.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything. It is the default for New.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// WithDictionary adds a dictionary id field to the logger.
func (l *Logger) WithDictionary(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("dictionary", id),
	}
}

// WithFiles adds the rule file paths to the logger.
func (l *Logger) WithFiles(dictFile, affFile string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dict_file", dictFile, "aff_file", affFile),
	}
}

// LogBuild logs a dictionary compilation.
func (l *Logger) LogBuild(id uint64, size int, shared bool, err error) {
	if err != nil {
		l.Error("dictionary build failed",
			"dictionary", id,
			"error", err,
		)
	} else {
		l.Info("dictionary built",
			"dictionary", id,
			"size", size,
			"shared", shared,
		)
	}
}
