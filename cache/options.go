package cache

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMaxBytes is the default budget for published images.
const DefaultMaxBytes int64 = 100 << 20

type registryOptions struct {
	maxBytes int64
	backing  Backing
	logger   *slog.Logger
	notice   *rate.Limiter
}

func defaultRegistryOptions() registryOptions {
	return registryOptions{
		maxBytes: DefaultMaxBytes,
		backing:  NewMemoryBacking(),
		logger:   slog.Default(),
		notice:   rate.NewLimiter(rate.Every(30*time.Second), 1),
	}
}

// Option configures a Registry.
type Option func(*registryOptions)

// WithMaxBytes caps the total size of images the registry may publish.
// Zero disables sharing entirely; every Acquire builds privately.
func WithMaxBytes(n int64) Option {
	return func(o *registryOptions) {
		o.maxBytes = n
	}
}

// WithBacking selects where published images live. The default is an
// ephemeral in-process memory backing; use a FileBacking to share across
// processes and restarts.
func WithBacking(b Backing) Option {
	return func(o *registryOptions) {
		if b != nil {
			o.backing = b
		}
	}
}

// WithLogger sets the structured logger for cache diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *registryOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNoticeInterval throttles the budget-exhausted warning to at most one
// per interval. A non-positive interval logs every occurrence.
func WithNoticeInterval(d time.Duration) Option {
	return func(o *registryOptions) {
		if d <= 0 {
			o.notice = nil
		} else {
			o.notice = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}
