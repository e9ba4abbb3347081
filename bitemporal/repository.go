package bitemporal

import (
	"context"
	"fmt"
	"time"

	"github.com/syssam/chrono"
	"github.com/syssam/chrono/query"
)

// Version is one physical row of a record, decoded.
type Version[T any] struct {
	Value      *T
	Business   Interval
	Processing Interval
}

// Repository implements the temporal operations of an entity on top of a
// Store. T is the generated wrapper type.
type Repository[T any] struct {
	store   Store
	table   *Table
	fromRow func(Row) (*T, error)
	toRow   func(*T) Row
	options
}

// NewRepository returns a repository for the entity stored in t. fromRow
// and toRow convert between the wrapper and its storage row.
func NewRepository[T any](store Store, t *Table, fromRow func(Row) (*T, error), toRow func(*T) Row, opts ...Option) *Repository[T] {
	return &Repository[T]{
		store:   store,
		table:   t,
		fromRow: fromRow,
		toRow:   toRow,
		options: newOptions(opts),
	}
}

// Table returns the table descriptor of the repository.
func (r *Repository[T]) Table() *Table { return r.table }

// now returns the current processing instant at the precision every
// supported database can store.
func (r *Repository[T]) now() time.Time {
	return r.clock().UTC().Truncate(time.Microsecond)
}

// Insert stores v as a new record. The business interval defaults to
// [now, inf); the processing interval is always [now, inf). Inserting a
// record whose business interval overlaps a current row of the same key
// fails with a *chrono.DuplicateKeyError.
func (r *Repository[T]) Insert(ctx context.Context, v *T) (*T, error) {
	row := r.toRow(v)
	var stored Row
	err := r.write(ctx, "insert", row.Key, func(tx StoreTx, now time.Time) error {
		rows, err := tx.Rows(ctx, r.table, row.Key)
		if err != nil {
			return err
		}
		now = after(now, rows)
		stored = r.fill(row, now)
		for _, x := range r.current(rows) {
			if x.Business.Overlaps(stored.Business) {
				return chrono.NewDuplicateKeyError(r.table.Entity, keyOf(row.Key), nil)
			}
		}
		return tx.Insert(ctx, r.table, stored)
	})
	if err != nil {
		return nil, err
	}
	return r.fromRow(stored)
}

// FindAsOf returns the version of the record covering p. It fails with a
// *chrono.NotFoundError when the key has no rows and with a
// *chrono.AsOfNotFoundError when no row covers p.
func (r *Repository[T]) FindAsOf(ctx context.Context, key []any, p Point) (*T, error) {
	p = r.resolve(p)
	var found []Row
	err := r.store.View(ctx, func(rd Reader) error {
		rows, err := rd.Rows(ctx, r.table, key)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return chrono.NewNotFoundError(r.table.Entity, keyOf(key))
		}
		for _, x := range rows {
			if r.covers(x, p) {
				found = append(found, x)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, r.asOfNotFound(key, p)
	case 1:
		return r.fromRow(found[0])
	default:
		return nil, fmt.Errorf("bitemporal: %d rows of %s (key=%v) cover %s", len(found), r.table.Entity, keyOf(key), r.pointString(p))
	}
}

// FindAllAsOf returns every record whose version at p satisfies all
// predicates, ordered by key.
func (r *Repository[T]) FindAllAsOf(ctx context.Context, p Point, preds ...query.Predicate) ([]*T, error) {
	p = r.resolve(p)
	pred := query.And(append([]query.Predicate{r.table.At(p)}, preds...)...)
	var rows []Row
	err := r.store.View(ctx, func(rd Reader) (err error) {
		rows, err = rd.Select(ctx, r.table, pred)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, x := range rows {
		v, err := r.fromRow(x)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Update replaces the attributes of the record from the effective
// business instant onwards. The current row covering effective is
// retired and replaced by up to two rows: the old values before
// effective and the new values from effective to the end of the retired
// row. A zero effective instant means now. On tables without a business
// axis effective is ignored.
func (r *Repository[T]) Update(ctx context.Context, v *T, effective time.Time) error {
	row := r.toRow(v)
	return r.write(ctx, "update", row.Key, func(tx StoreTx, now time.Time) error {
		rows, err := tx.Rows(ctx, r.table, row.Key)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return chrono.NewNotFoundError(r.table.Entity, keyOf(row.Key))
		}
		now = after(now, rows)
		eff := r.effective(effective, now)
		var old *Row
		for _, x := range r.current(rows) {
			if r.table.Business == nil || x.Business.Contains(eff) {
				old = &x
				break
			}
		}
		if old == nil {
			return r.asOfNotFound(row.Key, Point{Business: eff})
		}
		if err := tx.Retire(ctx, r.table, *old, now); err != nil {
			return err
		}
		processing := r.processing(now)
		if r.table.Business == nil {
			next := row.Clone()
			next.Business, next.Processing = Universal, processing
			return tx.Insert(ctx, r.table, next)
		}
		if old.Business.From.Before(eff) {
			head := old.Clone()
			head.Business.Thru, head.Processing = eff, processing
			if err := tx.Insert(ctx, r.table, head); err != nil {
				return err
			}
		}
		next := row.Clone()
		next.Business = Interval{From: eff, Thru: old.Business.Thru}
		next.Processing = processing
		return tx.Insert(ctx, r.table, next)
	})
}

// Terminate ends the record at the effective business instant. Every
// current row reaching past effective is retired and the part before
// effective is kept, so history stays queryable. On tables without a
// business axis the current row is retired at now.
func (r *Repository[T]) Terminate(ctx context.Context, key []any, effective time.Time) error {
	return r.write(ctx, "terminate", key, func(tx StoreTx, now time.Time) error {
		rows, err := tx.Rows(ctx, r.table, key)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return chrono.NewNotFoundError(r.table.Entity, keyOf(key))
		}
		now = after(now, rows)
		eff := r.effective(effective, now)
		var ended []Row
		for _, x := range r.current(rows) {
			if r.table.Business == nil || x.Business.Thru.After(eff) {
				ended = append(ended, x)
			}
		}
		if len(ended) == 0 {
			return r.asOfNotFound(key, Point{Business: eff})
		}
		for _, x := range ended {
			if err := tx.Retire(ctx, r.table, x, now); err != nil {
				return err
			}
			if r.table.Business == nil || !x.Business.From.Before(eff) {
				continue
			}
			head := x.Clone()
			head.Business.Thru, head.Processing = eff, r.processing(now)
			if err := tx.Insert(ctx, r.table, head); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes every row of the record, historical ones included. It
// is meant for correcting data that was never valid and requires the
// repository to be created with WithHardDelete.
func (r *Repository[T]) Delete(ctx context.Context, key []any) error {
	if !r.hardDelete {
		return chrono.NewInvalidArgumentError("key", keyOf(key), "delete removes history and requires WithHardDelete")
	}
	return r.store.Tx(ctx, func(tx StoreTx) error {
		n, err := tx.Purge(ctx, r.table, key)
		if err != nil {
			return err
		}
		if n == 0 {
			return chrono.NewNotFoundError(r.table.Entity, keyOf(key))
		}
		r.log.InfoContext(ctx, "purged record", "entity", r.table.Entity, "key", keyOf(key), "rows", n)
		return nil
	})
}

// History returns every row of the record ordered by business start and
// then processing start.
func (r *Repository[T]) History(ctx context.Context, key []any) ([]Version[T], error) {
	var rows []Row
	err := r.store.View(ctx, func(rd Reader) (err error) {
		rows, err = rd.Rows(ctx, r.table, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, chrono.NewNotFoundError(r.table.Entity, keyOf(key))
	}
	sortRows(rows)
	out := make([]Version[T], len(rows))
	for i, x := range rows {
		v, err := r.fromRow(x)
		if err != nil {
			return nil, err
		}
		out[i] = Version[T]{Value: v, Business: x.Business, Processing: x.Processing}
	}
	return out, nil
}

// write runs fn in a unit of work, retrying on optimistic lock conflicts.
func (r *Repository[T]) write(ctx context.Context, op string, key []any, fn func(StoreTx, time.Time) error) error {
	for attempt := 0; ; attempt++ {
		err := r.store.Tx(ctx, func(tx StoreTx) error {
			return fn(tx, r.now())
		})
		if err == nil || !chrono.IsOptimisticLock(err) || attempt >= r.retries {
			return err
		}
		r.log.WarnContext(ctx, "retrying after optimistic lock conflict",
			"entity", r.table.Entity, "op", op, "key", keyOf(key), "attempt", attempt+1)
		if err := chrono.Backoff(ctx, attempt); err != nil {
			return err
		}
	}
}

// fill completes the intervals of a row about to be inserted.
func (r *Repository[T]) fill(row Row, now time.Time) Row {
	row = row.Clone()
	if b := r.table.Business; b != nil {
		if row.Business.From.IsZero() {
			row.Business.From = now
		}
		if row.Business.Thru.IsZero() {
			row.Business.Thru = b.Inf()
		}
		row.Business.From = row.Business.From.UTC()
		row.Business.Thru = row.Business.Thru.UTC()
	} else {
		row.Business = Universal
	}
	row.Processing = r.processing(now)
	return row
}

func (r *Repository[T]) processing(now time.Time) Interval {
	if p := r.table.Processing; p != nil {
		return Since(now, p.Inf())
	}
	return Universal
}

// current returns the rows of the current processing state.
func (r *Repository[T]) current(rows []Row) []Row {
	if r.table.Processing == nil {
		return rows
	}
	inf := r.table.Processing.Inf()
	var out []Row
	for _, x := range rows {
		if x.Processing.OpenAt(inf) {
			out = append(out, x)
		}
	}
	return out
}

func (r *Repository[T]) effective(eff, now time.Time) time.Time {
	if eff.IsZero() {
		return now
	}
	return eff.UTC()
}

// resolve fills a zero business instant with now. A zero processing
// instant is kept and stands for the current rows.
func (r *Repository[T]) resolve(p Point) Point {
	if p.Business.IsZero() {
		p.Business = r.now()
	}
	p.Business, p.Processing = p.Business.UTC(), p.Processing.UTC()
	return p
}

func (r *Repository[T]) covers(x Row, p Point) bool {
	if r.table.Business != nil && !x.Business.Contains(p.Business) {
		return false
	}
	switch {
	case r.table.Processing == nil:
		return true
	case p.Processing.IsZero():
		return x.Processing.OpenAt(r.table.Processing.Inf())
	default:
		return x.Processing.Contains(p.Processing)
	}
}

func (r *Repository[T]) asOfNotFound(key []any, p Point) error {
	var business, processing string
	if r.table.Business != nil {
		business = p.Business.Format(time.RFC3339Nano)
	}
	if r.table.Processing != nil {
		processing = "current"
		if !p.Processing.IsZero() {
			processing = p.Processing.Format(time.RFC3339Nano)
		}
	}
	return chrono.NewAsOfNotFoundError(r.table.Entity, keyOf(key), business, processing)
}

func (r *Repository[T]) pointString(p Point) string {
	if p.Processing.IsZero() {
		return "business " + p.Business.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("business %s processing %s", p.Business.Format(time.RFC3339Nano), p.Processing.Format(time.RFC3339Nano))
}

// after returns now, moved past the latest processing start of rows so
// that processing instants of a record strictly increase.
func after(now time.Time, rows []Row) time.Time {
	for _, x := range rows {
		if !now.After(x.Processing.From) {
			now = x.Processing.From.Add(time.Microsecond)
		}
	}
	return now
}

// keyOf unwraps single-column keys for error messages.
func keyOf(key []any) any {
	if len(key) == 1 {
		return key[0]
	}
	return key
}
