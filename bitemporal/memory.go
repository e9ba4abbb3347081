package bitemporal

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/chrono"
	"github.com/syssam/chrono/query"
)

// MemoryStore keeps rows in memory. Units of work are serialized by a
// single lock and readers share a read lock, so a reader never observes
// a partially applied unit of work.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string][]Row
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string][]Row)}
}

// Tx implements Store.
func (s *MemoryStore) Tx(ctx context.Context, fn func(StoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{memReader: memReader{s}, undo: make(map[undoKey]undoEntry)}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// View implements Store.
func (s *MemoryStore) View(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(memReader{s})
}

// Len returns the number of physical rows stored for table.
func (s *MemoryStore) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rows := range s.tables[table] {
		n += len(rows)
	}
	return n
}

type memReader struct{ s *MemoryStore }

func (r memReader) Rows(_ context.Context, t *Table, key []any) ([]Row, error) {
	k, err := encodeKey(key)
	if err != nil {
		return nil, err
	}
	return cloneRows(r.s.tables[t.Name][k]), nil
}

func (r memReader) Select(_ context.Context, t *Table, p query.Predicate) ([]Row, error) {
	records := r.s.tables[t.Name]
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(compareKeys(records[a][0].Key, records[b][0].Key), strings.Compare(a, b))
	})
	var out []Row
	for _, k := range keys {
		for _, row := range records[k] {
			if p == nil || p.Eval(row.Columns(t)) {
				out = append(out, row.Clone())
			}
		}
	}
	return out, nil
}

type (
	undoKey struct {
		table, key string
	}
	undoEntry struct {
		rows    []Row
		existed bool
	}
	memTx struct {
		memReader
		undo map[undoKey]undoEntry
	}
)

// save records the state of a logical record before its first change in
// the unit of work.
func (tx *memTx) save(table, key string) {
	uk := undoKey{table, key}
	if _, ok := tx.undo[uk]; ok {
		return
	}
	rows, ok := tx.s.tables[table][key]
	tx.undo[uk] = undoEntry{rows: slices.Clone(rows), existed: ok}
}

func (tx *memTx) rollback() {
	for uk, e := range tx.undo {
		if !e.existed {
			delete(tx.s.tables[uk.table], uk.key)
			continue
		}
		tx.s.tables[uk.table][uk.key] = e.rows
	}
}

func (tx *memTx) Insert(_ context.Context, t *Table, r Row) error {
	k, err := encodeKey(r.Key)
	if err != nil {
		return err
	}
	records := tx.s.tables[t.Name]
	if records == nil {
		records = make(map[string][]Row)
		tx.s.tables[t.Name] = records
	}
	for _, x := range records[k] {
		if x.Business.From.Equal(r.Business.From) && x.Processing.From.Equal(r.Processing.From) {
			return chrono.NewDuplicateKeyError(t.Entity, r.Key, nil)
		}
	}
	tx.save(t.Name, k)
	rows := append(slices.Clone(records[k]), r.Clone())
	sortRows(rows)
	records[k] = rows
	return nil
}

func (tx *memTx) Retire(_ context.Context, t *Table, r Row, at time.Time) error {
	k, err := encodeKey(r.Key)
	if err != nil {
		return err
	}
	rows := tx.s.tables[t.Name][k]
	i := slices.IndexFunc(rows, func(x Row) bool {
		return x.Business.From.Equal(r.Business.From) &&
			x.Processing.From.Equal(r.Processing.From) &&
			(t.Processing == nil || x.Processing.OpenAt(t.Processing.Inf()))
	})
	if i < 0 {
		return chrono.NewOptimisticLockError(t.Entity, r.Key, nil)
	}
	tx.save(t.Name, k)
	rows = slices.Clone(rows)
	if t.Processing == nil {
		if rows = slices.Delete(rows, i, i+1); len(rows) == 0 {
			delete(tx.s.tables[t.Name], k)
			return nil
		}
	} else {
		rows[i].Processing.Thru = at
	}
	tx.s.tables[t.Name][k] = rows
	return nil
}

func (tx *memTx) Purge(_ context.Context, t *Table, key []any) (int, error) {
	k, err := encodeKey(key)
	if err != nil {
		return 0, err
	}
	rows, ok := tx.s.tables[t.Name][k]
	if !ok {
		return 0, nil
	}
	tx.save(t.Name, k)
	delete(tx.s.tables[t.Name], k)
	return len(rows), nil
}

// encodeKey returns a stable map key for a composite key. Values are
// normalised first so that, for example, int32(7) and int64(7) name the
// same record.
func encodeKey(key []any) (string, error) {
	norm := make([]any, len(key))
	for i, v := range key {
		norm[i] = normalizeKey(v)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(norm); err != nil {
		return "", fmt.Errorf("bitemporal: encoding key %v: %w", key, err)
	}
	return buf.String(), nil
}

func normalizeKey(v any) any {
	switch v := v.(type) {
	case nil, string, bool:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC()
	case decimal.Decimal:
		return v.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= 1<<63-1 {
			return int64(u)
		}
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprint(v)
}

// compareKeys orders keys column by column. Values of different kinds
// compare equal.
func compareKeys(a, b []any) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		var c int
		switch x := normalizeKey(a[i]).(type) {
		case int64:
			if y, ok := normalizeKey(b[i]).(int64); ok {
				c = cmp.Compare(x, y)
			}
		case float64:
			if y, ok := normalizeKey(b[i]).(float64); ok {
				c = cmp.Compare(x, y)
			}
		case string:
			if y, ok := normalizeKey(b[i]).(string); ok {
				c = strings.Compare(x, y)
			}
		case time.Time:
			if y, ok := normalizeKey(b[i]).(time.Time); ok {
				c = x.Compare(y)
			}
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func sortRows(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Or(
			a.Business.From.Compare(b.Business.From),
			a.Processing.From.Compare(b.Processing.From),
		)
	})
}

func cloneRows(rows []Row) []Row {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
