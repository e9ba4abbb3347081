// Package sequence reserves unique surrogate identifiers for identity
// attributes.
//
// Two generators share the Generator contract: Memory, an atomic counter
// per sequence for tests and development, and Store, a counter table
// updated inside database transactions. Both reserve a block of
// identifiers in one atomic step, so concurrent callers never receive
// interleaved or duplicate values.
package sequence

import (
	"context"
	"log/slog"
	"time"

	"github.com/syssam/chrono"
)

// Defaults of a new sequence.
const (
	DefaultStart     int64 = 1000
	DefaultIncrement int64 = 1
	DefaultTable           = "CHRONO_SEQUENCE"
	DefaultRetries         = 10
)

// Generator hands out identifiers from named sequences.
type Generator interface {
	// NextID returns the next value of the sequence and advances it.
	NextID(ctx context.Context, name string) (int64, error)
	// NextIDs reserves count consecutive values of the sequence.
	NextIDs(ctx context.Context, name string, count int) ([]int64, error)
	// Reset sets the next value the sequence returns.
	Reset(ctx context.Context, name string, value int64) error
}

type options struct {
	start     int64
	increment int64
	table     string
	retries   int
	timeout   time.Duration
	log       *slog.Logger
}

// Option configures a generator.
type Option func(*options)

// WithStart sets the first value of sequences that do not exist yet.
func WithStart(v int64) Option {
	return func(o *options) { o.start = v }
}

// WithIncrement sets the step between consecutive values. Non-positive
// steps are ignored.
func WithIncrement(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.increment = n
		}
	}
}

// WithTable sets the counter table of a Store.
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithRetries sets how many times a Store retries a reservation that lost
// a race with another writer or hit a transient database conflict.
func WithRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithTxTimeout bounds each reservation transaction of a Store. Zero
// leaves the context deadline alone.
func WithTxTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func newOptions(opts []Option) options {
	o := options{
		start:     DefaultStart,
		increment: DefaultIncrement,
		table:     DefaultTable,
		retries:   DefaultRetries,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return o
}

func checkCount(count int) error {
	if count <= 0 {
		return chrono.NewInvalidArgumentError("count", count, "must be positive")
	}
	return nil
}

// block returns count values starting at start.
func (o options) block(start int64, count int) []int64 {
	ids := make([]int64, count)
	for i := range ids {
		ids[i] = start + int64(i)*o.increment
	}
	return ids
}
