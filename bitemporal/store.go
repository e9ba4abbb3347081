package bitemporal

import (
	"context"
	"time"

	"github.com/syssam/chrono/query"
)

// Store is the storage runtime a Repository runs against. It supplies
// atomic units of work and consistent read snapshots; all locking
// belongs to the store.
type Store interface {
	// Tx runs fn in a read-write unit of work. Every change made through
	// the StoreTx is discarded when fn returns an error.
	Tx(ctx context.Context, fn func(StoreTx) error) error
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(Reader) error) error
}

// Reader reads physical rows.
type Reader interface {
	// Rows returns every physical row of a logical record.
	Rows(ctx context.Context, t *Table, key []any) ([]Row, error)
	// Select returns the rows satisfying p, ordered by key, business
	// start and processing start.
	Select(ctx context.Context, t *Table, p query.Predicate) ([]Row, error)
}

// StoreTx reads and writes rows inside a unit of work.
type StoreTx interface {
	Reader
	// Insert adds a physical row. A row with the same key and interval
	// starts fails with a *chrono.DuplicateKeyError.
	Insert(ctx context.Context, t *Table, r Row) error
	// Retire ends the processing visibility of r at the given instant. On
	// tables without a processing axis the row is removed. It fails with a
	// *chrono.OptimisticLockError when r is no longer the stored current
	// version.
	Retire(ctx context.Context, t *Table, r Row, at time.Time) error
	// Purge removes every row of a logical record and returns how many
	// rows were removed.
	Purge(ctx context.Context, t *Table, key []any) (int, error)
}
