package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/chrono"
	"github.com/syssam/chrono/dialect"
	"github.com/syssam/chrono/dialect/sql"
	"github.com/syssam/chrono/query"
)

// Columns of the counter table.
const (
	NameColumn  = "SEQUENCE_NAME"
	ValueColumn = "NEXT_VALUE"
)

// errConflict marks a reservation that lost a race and may be retried.
var errConflict = errors.New("sequence: concurrent update")

// Store is a Generator keeping one row per sequence in a counter table.
// Every reservation reads the row, inserts it when missing and advances
// it with a compare-and-set update, all in one transaction.
type Store struct {
	drv  dialect.Driver
	opts options
}

// NewStore returns a generator over drv.
func NewStore(drv dialect.Driver, opts ...Option) *Store {
	return &Store{drv: drv, opts: newOptions(opts)}
}

// CreateTable creates the counter table if it does not exist.
func (s *Store) CreateTable(ctx context.Context) error {
	b := query.NewBuilder(s.drv.Dialect())
	b.WriteString("CREATE TABLE IF NOT EXISTS ").Ident(s.opts.table).WriteString(" (").
		Ident(NameColumn).WriteString(" VARCHAR(128) NOT NULL PRIMARY KEY, ").
		Ident(ValueColumn).WriteString(" BIGINT NOT NULL)")
	return s.drv.Exec(ctx, b.String(), []any{}, nil)
}

// NextID implements Generator.
func (s *Store) NextID(ctx context.Context, name string) (int64, error) {
	ids, err := s.NextIDs(ctx, name, 1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// NextIDs implements Generator.
func (s *Store) NextIDs(ctx context.Context, name string, count int) ([]int64, error) {
	if err := checkCount(count); err != nil {
		return nil, err
	}
	n := int64(count) * s.opts.increment
	var start int64
	err := s.retry(ctx, name, func(ctx context.Context, tx dialect.Tx) error {
		cur, ok, err := s.current(ctx, tx, name)
		if err != nil {
			return err
		}
		if !ok {
			start = s.opts.start
			return s.insert(ctx, tx, name, start+n)
		}
		start = cur
		return s.swap(ctx, tx, name, cur, cur+n)
	})
	if err != nil {
		return nil, err
	}
	return s.opts.block(start, count), nil
}

// Reset implements Generator.
func (s *Store) Reset(ctx context.Context, name string, value int64) error {
	return s.retry(ctx, name, func(ctx context.Context, tx dialect.Tx) error {
		cur, ok, err := s.current(ctx, tx, name)
		if err != nil {
			return err
		}
		switch {
		case !ok:
			return s.insert(ctx, tx, name, value)
		case cur == value:
			return nil
		}
		return s.swap(ctx, tx, name, cur, value)
	})
}

// retry runs fn in a transaction until it commits. Lost compare-and-set
// races and transient database conflicts (deadlocks, serialization
// failures, busy files) start the reservation over after a backoff.
// retry runs fn in its own transaction until it commits. Lost
// compare-and-set races and retryable database errors start over after
// a backoff.
func (s *Store) retry(ctx context.Context, name string, fn func(context.Context, dialect.Tx) error) error {
	var last error
	for attempt := 0; ; attempt++ {
		err := sql.InTx(ctx, s.drv, s.opts.timeout, fn)
		switch {
		case errors.Is(err, errConflict):
		case sql.IsRetryableError(err):
			last = err
		default:
			return err
		}
		s.opts.log.DebugContext(ctx, "sequence reservation conflicted", "sequence", name, "attempt", attempt+1, "error", err)
		if attempt >= s.opts.retries {
			return chrono.NewOptimisticLockError("sequence "+name, name, last)
		}
		if err := chrono.Backoff(ctx, attempt); err != nil {
			return err
		}
	}
}

func (s *Store) current(ctx context.Context, tx dialect.Tx, name string) (int64, bool, error) {
	b := query.NewBuilder(s.drv.Dialect())
	b.WriteString("SELECT ").Ident(ValueColumn).WriteString(" FROM ").Ident(s.opts.table).
		WriteString(" WHERE ").Pred(query.StringField(NameColumn).EQ(name))
	rows := &sql.Rows{}
	if err := tx.Query(ctx, b.String(), b.Values(), rows); err != nil {
		return 0, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, false, rows.Err()
	}
	var v int64
	if err := rows.Scan(&v); err != nil {
		return 0, false, fmt.Errorf("sequence: scanning %s: %w", name, err)
	}
	return v, true, rows.Err()
}

func (s *Store) insert(ctx context.Context, tx dialect.Tx, name string, next int64) error {
	b := query.NewBuilder(s.drv.Dialect())
	b.WriteString("INSERT INTO ").Ident(s.opts.table).
		WriteString(" (").IdentList([]string{NameColumn, ValueColumn}).
		WriteString(") VALUES (").Args(name, next).WriteString(")")
	if err := tx.Exec(ctx, b.String(), b.Values(), nil); err != nil {
		if sql.IsUniqueConstraintError(err) {
			return errConflict
		}
		return err
	}
	return nil
}

// swap moves the counter from old to next unless another writer moved it
// first.
func (s *Store) swap(ctx context.Context, tx dialect.Tx, name string, old, next int64) error {
	where := query.And(
		query.StringField(NameColumn).EQ(name),
		query.NumericField[int64](ValueColumn).EQ(old),
	)
	b := query.NewBuilder(s.drv.Dialect())
	b.WriteString("UPDATE ").Ident(s.opts.table).
		WriteString(" SET ").Ident(ValueColumn).WriteString(" = ").Arg(next).
		WriteString(" WHERE ").Pred(where)
	var res sql.Result
	if err := tx.Exec(ctx, b.String(), b.Values(), &res); err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errConflict
	}
	return nil
}

var _ Generator = (*Store)(nil)
