package bitemporal

import (
	"log/slog"
	"time"
)

// DefaultConflictRetries is the number of times a write is retried after
// an optimistic lock conflict.
const DefaultConflictRetries = 3

type options struct {
	clock      func() time.Time
	retries    int
	hardDelete bool
	log        *slog.Logger
}

// Option configures a Repository.
type Option func(*options)

// WithClock sets the source of processing instants. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithConflictRetries sets how many times a write is retried after an
// optimistic lock conflict. Other errors are never retried.
func WithConflictRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithHardDelete enables Delete, which removes every row of a record.
func WithHardDelete() Option {
	return func(o *options) {
		o.hardDelete = true
	}
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func newOptions(opts []Option) options {
	o := options{clock: time.Now, retries: DefaultConflictRetries}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return o
}
