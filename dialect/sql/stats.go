package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/syssam/chrono/dialect"
)

// DefaultSlowThreshold is the duration above which a statement is
// reported as slow.
const DefaultSlowThreshold = 100 * time.Millisecond

// Stats counts the statements and units of work run over a connection.
// Conflicts are the statements or commits that failed with an error
// IsRetryableError accepts; the caller usually runs the unit of work
// again.
type Stats struct {
	queries   atomic.Int64
	execs     atomic.Int64
	commits   atomic.Int64
	rollbacks atomic.Int64
	conflicts atomic.Int64
	errors    atomic.Int64
	slow      atomic.Int64
	duration  atomic.Int64 // nanoseconds
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:   s.queries.Load(),
		Execs:     s.execs.Load(),
		Commits:   s.commits.Load(),
		Rollbacks: s.rollbacks.Load(),
		Conflicts: s.conflicts.Load(),
		Errors:    s.errors.Load(),
		Slow:      s.slow.Load(),
		Duration:  time.Duration(s.duration.Load()),
	}
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Queries   int64
	Execs     int64
	Commits   int64
	Rollbacks int64
	Conflicts int64
	Errors    int64
	Slow      int64
	Duration  time.Duration
}

// String renders the snapshot as key=value pairs.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d commits=%d rollbacks=%d conflicts=%d errors=%d slow=%d duration=%s",
		s.Queries, s.Execs, s.Commits, s.Rollbacks, s.Conflicts, s.Errors, s.Slow, s.Duration)
}

// StatsDriver wraps a Driver with statistics collection. Slow statements
// are logged at warn level and conflicts at debug level.
type StatsDriver struct {
	*Driver
	stats *Stats
	slow  time.Duration
	log   *slog.Logger
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow statement detection.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) { s.slow = d }
}

// WithStatsLogger sets the logger. A nil logger means slog.Default().
func WithStatsLogger(l *slog.Logger) StatsOption {
	return func(s *StatsDriver) { s.log = l }
}

// NewStatsDriver wraps drv with statistics collection.
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &Stats{}, slow: DefaultSlowThreshold}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Stats returns the counters of the driver.
func (d *StatsDriver) Stats() *Stats { return d.stats }

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, &d.stats.queries, query, start, err)
	return err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, &d.stats.execs, query, start, err)
	return err
}

// Tx starts a transaction that also records statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options that also records
// statistics.
func (d *StatsDriver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.Driver.BeginTx(ctx, opts)
	if err != nil {
		d.fail(ctx, "begin", err)
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d, ctx: ctx}, nil
}

func (d *StatsDriver) record(ctx context.Context, counter *atomic.Int64, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	counter.Add(1)
	d.stats.duration.Add(int64(elapsed))
	if err != nil {
		d.fail(ctx, query, err)
	}
	if elapsed > d.slow {
		d.stats.slow.Add(1)
		d.log.WarnContext(ctx, "slow statement", "duration", elapsed, "sql", query)
	}
}

func (d *StatsDriver) fail(ctx context.Context, op string, err error) {
	d.stats.errors.Add(1)
	if IsRetryableError(err) {
		d.stats.conflicts.Add(1)
		d.log.DebugContext(ctx, "transaction conflict", "sql", op, "error", err)
	}
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
	ctx    context.Context
}

// Query executes a query within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, &tx.driver.stats.queries, query, start, err)
	return err
}

// Exec executes a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, &tx.driver.stats.execs, query, start, err)
	return err
}

// Commit commits the transaction. A failed commit counts as an error,
// and as a conflict when it is retryable.
func (tx *StatsTx) Commit() error {
	if err := tx.Tx.Commit(); err != nil {
		tx.driver.fail(tx.ctx, "commit", err)
		return err
	}
	tx.driver.stats.commits.Add(1)
	return nil
}

// Rollback rolls back the transaction.
func (tx *StatsTx) Rollback() error {
	tx.driver.stats.rollbacks.Add(1)
	return tx.Tx.Rollback()
}

// DebugDriver wraps a Driver and logs every statement at debug level.
type DebugDriver struct {
	*Driver
	logger *slog.Logger
}

// NewDebugDriver wraps a Driver with debug logging. A nil logger means
// slog.Default().
func NewDebugDriver(drv *Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, logger: logger}
}

// Query executes a query and logs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "query", "sql", query, "args", args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec executes a statement and logs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "exec", "sql", query, "args", args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options and debug logging.
func (d *DebugDriver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	if opts != nil {
		d.logger.DebugContext(ctx, "begin transaction", "isolation", opts.Isolation.String(), "read_only", opts.ReadOnly)
	} else {
		d.logger.DebugContext(ctx, "begin transaction")
	}
	tx, err := d.Driver.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, logger: d.logger}, nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	dialect.Tx
	logger *slog.Logger
}

// Query executes a query within the transaction and logs it.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.logger.DebugContext(ctx, "tx query", "sql", query, "args", args)
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec executes a statement within the transaction and logs it.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.logger.DebugContext(ctx, "tx exec", "sql", query, "args", args)
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.logger.Debug("commit transaction")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.logger.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ TxBeginner     = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ TxBeginner     = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
