// Package sqlstore persists bitemporal rows through a dialect.Driver.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syssam/chrono"
	"github.com/syssam/chrono/bitemporal"
	"github.com/syssam/chrono/dialect"
	"github.com/syssam/chrono/dialect/sql"
	"github.com/syssam/chrono/query"
)

// DefaultTxTimeout bounds a unit of work when no timeout is configured.
const DefaultTxTimeout = 120 * time.Second

// Store is a bitemporal.Store backed by a SQL database. Units of work
// run at serializable isolation by default, so that two writers checking
// the same key for overlapping rows cannot both commit. The loser fails
// with a *chrono.OptimisticLockError and is retried by the repository.
type Store struct {
	drv       dialect.Driver
	timeout   time.Duration
	isolation sql.IsolationLevel
	loc       *time.Location
	log       *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTxTimeout bounds every unit of work. Zero disables the bound.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithIsolation sets the isolation level of read-write units of work.
// Levels below serializable let concurrent inserts of one key overlap.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(s *Store) { s.isolation = level }
}

// WithTimeZone sets the database time zone. Instants are converted to it
// before they are sent and the session time zone is set accordingly.
func WithTimeZone(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a store over drv.
func New(drv dialect.Driver, opts ...Option) *Store {
	s := &Store{drv: drv, timeout: DefaultTxTimeout, isolation: sql.LevelSerializable, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Tx implements bitemporal.Store. Serialization failures, deadlocks and
// busy databases are reported as *chrono.OptimisticLockError.
func (s *Store) Tx(ctx context.Context, fn func(bitemporal.StoreTx) error) error {
	opts := &sql.TxOptions{Isolation: s.isolation}
	err := sql.InTxOptions(ctx, s.drv, s.timeout, opts, func(_ context.Context, tx dialect.Tx) error {
		return fn(&txn{s: s, ex: tx})
	})
	if sql.IsRetryableError(err) && !chrono.IsOptimisticLock(err) {
		s.log.DebugContext(ctx, "unit of work conflicted", "error", err)
		return chrono.NewOptimisticLockError("transaction", nil, err)
	}
	return err
}

// View implements bitemporal.Store. Reads run in a read-only
// transaction so that they observe one snapshot.
func (s *Store) View(ctx context.Context, fn func(bitemporal.Reader) error) error {
	opts := &sql.TxOptions{ReadOnly: true}
	return sql.InTxOptions(ctx, s.drv, s.timeout, opts, func(_ context.Context, tx dialect.Tx) error {
		return fn(&txn{s: s, ex: tx})
	})
}

// session sets the database time zone on ctx unless the caller already
// chose one.
func (s *Store) session(ctx context.Context) context.Context {
	if _, ok := sql.VarFromContext(ctx, "TimeZone"); ok {
		return ctx
	}
	if _, ok := sql.VarFromContext(ctx, "time_zone"); ok {
		return ctx
	}
	return sql.WithTimeZone(ctx, s.drv.Dialect(), s.loc)
}

type txn struct {
	s  *Store
	ex dialect.ExecQuerier
}

func (tx *txn) builder() *query.Builder {
	return query.NewBuilder(tx.s.drv.Dialect())
}

// args converts instants to the database time zone.
func (tx *txn) args(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		if t, ok := v.(time.Time); ok {
			v = t.In(tx.s.loc)
		}
		out[i] = v
	}
	return out
}

func (tx *txn) Rows(ctx context.Context, t *bitemporal.Table, key []any) ([]bitemporal.Row, error) {
	return tx.Select(ctx, t, t.KeyPredicate(key))
}

func (tx *txn) Select(ctx context.Context, t *bitemporal.Table, p query.Predicate) ([]bitemporal.Row, error) {
	cols := t.AllColumns()
	b := tx.builder()
	b.WriteString("SELECT ").IdentList(cols).WriteString(" FROM ").Ident(t.Name)
	if p != nil {
		b.WriteString(" WHERE ").Pred(p)
	}
	order := append([]string(nil), t.KeyColumns...)
	if t.Business != nil {
		order = append(order, t.Business.FromColumn)
	}
	if t.Processing != nil {
		order = append(order, t.Processing.FromColumn)
	}
	b.WriteString(" ORDER BY ").IdentList(order)

	rows := &sql.Rows{}
	if err := tx.ex.Query(tx.s.session(ctx), b.String(), tx.args(b.Values()), rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []bitemporal.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning %s: %w", t.Name, err)
		}
		r, err := decode(t, cols, vals)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// decode builds a row from the scanned values of cols.
func decode(t *bitemporal.Table, cols []string, vals []any) (bitemporal.Row, error) {
	all := make(bitemporal.Values, len(cols))
	for i, c := range cols {
		all[c] = vals[i]
	}
	r := bitemporal.Row{
		Values:     make(bitemporal.Values, len(t.Columns)),
		Business:   bitemporal.Universal,
		Processing: bitemporal.Universal,
	}
	for _, c := range t.Columns {
		r.Values[c] = all[c]
	}
	for _, c := range t.KeyColumns {
		r.Key = append(r.Key, all[c])
	}
	var err error
	if t.Business != nil {
		if r.Business, err = interval(all, t.Business); err != nil {
			return r, err
		}
	}
	if t.Processing != nil {
		if r.Processing, err = interval(all, t.Processing); err != nil {
			return r, err
		}
	}
	return r, nil
}

func interval(v bitemporal.Values, a *bitemporal.Axis) (bitemporal.Interval, error) {
	from, err := v.Time(a.FromColumn)
	if err != nil {
		return bitemporal.Interval{}, err
	}
	thru, err := v.Time(a.ToColumn)
	if err != nil {
		return bitemporal.Interval{}, err
	}
	return bitemporal.Interval{From: from, Thru: thru}, nil
}

func (tx *txn) Insert(ctx context.Context, t *bitemporal.Table, r bitemporal.Row) error {
	cols, vals := t.Columns, make([]any, 0, len(t.Columns)+4)
	for _, c := range t.Columns {
		vals = append(vals, r.Values[c])
	}
	cols = append([]string(nil), cols...)
	if a := t.Business; a != nil {
		cols = append(cols, a.FromColumn, a.ToColumn)
		vals = append(vals, r.Business.From, r.Business.Thru)
	}
	if a := t.Processing; a != nil {
		cols = append(cols, a.FromColumn, a.ToColumn)
		vals = append(vals, r.Processing.From, r.Processing.Thru)
	}
	b := tx.builder()
	b.WriteString("INSERT INTO ").Ident(t.Name).
		WriteString(" (").IdentList(cols).
		WriteString(") VALUES (").Args(vals...).WriteString(")")
	if err := tx.ex.Exec(tx.s.session(ctx), b.String(), tx.args(b.Values()), nil); err != nil {
		if sql.IsUniqueConstraintError(err) {
			return chrono.NewDuplicateKeyError(t.Entity, keyOf(r.Key), err)
		}
		return err
	}
	return nil
}

func (tx *txn) Retire(ctx context.Context, t *bitemporal.Table, r bitemporal.Row, at time.Time) error {
	var conds []query.Predicate
	conds = append(conds, t.KeyPredicate(r.Key))
	if a := t.Business; a != nil {
		conds = append(conds, a.Field().Equals(r.Business.From))
	}
	b := tx.builder()
	if a := t.Processing; a != nil {
		conds = append(conds, a.Field().Equals(r.Processing.From), a.Field().Current(a.Inf()))
		b.WriteString("UPDATE ").Ident(t.Name).
			WriteString(" SET ").Ident(a.ToColumn).WriteString(" = ").Arg(at)
	} else {
		b.WriteString("DELETE FROM ").Ident(t.Name)
	}
	b.WriteString(" WHERE ").Pred(query.And(conds...))
	n, err := tx.exec(ctx, b)
	if err != nil {
		return err
	}
	if n == 0 {
		tx.s.log.DebugContext(ctx, "current row changed concurrently", "table", t.Name, "key", keyOf(r.Key))
		return chrono.NewOptimisticLockError(t.Entity, keyOf(r.Key), nil)
	}
	return nil
}

func (tx *txn) Purge(ctx context.Context, t *bitemporal.Table, key []any) (int, error) {
	b := tx.builder()
	b.WriteString("DELETE FROM ").Ident(t.Name).WriteString(" WHERE ").Pred(t.KeyPredicate(key))
	n, err := tx.exec(ctx, b)
	return int(n), err
}

func (tx *txn) exec(ctx context.Context, b *query.Builder) (int64, error) {
	var res sql.Result
	if err := tx.ex.Exec(tx.s.session(ctx), b.String(), tx.args(b.Values()), &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func keyOf(key []any) any {
	if len(key) == 1 {
		return key[0]
	}
	return key
}

var _ bitemporal.Store = (*Store)(nil)
