package bitemporal

import (
	"fmt"
	"maps"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one physical row: a version of a logical record covering a
// business interval during a processing interval.
type Row struct {
	// Key holds the key column values, in Table.KeyColumns order.
	Key []any
	// Values holds every non-temporal column, key columns included.
	Values Values
	// Business and Processing are Universal on tables without the axis.
	Business   Interval
	Processing Interval
}

// Clone returns a deep copy of the key and values.
func (r Row) Clone() Row {
	r.Key = append([]any(nil), r.Key...)
	r.Values = maps.Clone(r.Values)
	return r
}

// Columns returns the row as a column map including the axis columns of t.
func (r Row) Columns(t *Table) map[string]any {
	m := make(map[string]any, len(r.Values)+4)
	maps.Copy(m, r.Values)
	if t.Business != nil {
		m[t.Business.FromColumn] = r.Business.From
		m[t.Business.ToColumn] = r.Business.Thru
	}
	if t.Processing != nil {
		m[t.Processing.FromColumn] = r.Processing.From
		m[t.Processing.ToColumn] = r.Processing.Thru
	}
	return m
}

// Values maps column names to values. Getters convert the
// representations returned by SQL drivers to the attribute types.
type Values map[string]any

func (v Values) get(col string) (any, error) {
	x, ok := v[col]
	if !ok {
		return nil, fmt.Errorf("bitemporal: column %q missing", col)
	}
	if x == nil {
		return nil, fmt.Errorf("bitemporal: column %q is NULL", col)
	}
	return x, nil
}

func convErr(col string, x any, to string) error {
	return fmt.Errorf("bitemporal: column %q: cannot convert %T to %s", col, x, to)
}

// Int64 returns the column as an int64.
func (v Values) Int64(col string) (int64, error) {
	x, err := v.get(col)
	if err != nil {
		return 0, err
	}
	switch x := x.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, convErr(col, x, "int64")
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, convErr(col, x, "int64")
		}
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, convErr(col, x, "int64")
}

// Int32 returns the column as an int32.
func (v Values) Int32(col string) (int32, error) {
	n, err := v.Int64(col)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("bitemporal: column %q: %d overflows int32", col, n)
	}
	return int32(n), nil
}

// Float64 returns the column as a float64.
func (v Values) Float64(col string) (float64, error) {
	x, err := v.get(col)
	if err != nil {
		return 0, err
	}
	switch x := x.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return 0, convErr(col, x, "float64")
}

// Float32 returns the column as a float32.
func (v Values) Float32(col string) (float32, error) {
	f, err := v.Float64(col)
	return float32(f), err
}

// String returns the column as a string.
func (v Values) String(col string) (string, error) {
	x, err := v.get(col)
	if err != nil {
		return "", err
	}
	switch x := x.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return "", convErr(col, x, "string")
}

// Bool returns the column as a bool.
func (v Values) Bool(col string) (bool, error) {
	x, err := v.get(col)
	if err != nil {
		return false, err
	}
	switch x := x.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case []byte:
		return strconv.ParseBool(string(x))
	case string:
		return strconv.ParseBool(x)
	}
	return false, convErr(col, x, "bool")
}

// Decimal returns the column as a decimal.
func (v Values) Decimal(col string) (decimal.Decimal, error) {
	x, err := v.get(col)
	if err != nil {
		return decimal.Decimal{}, err
	}
	switch x := x.(type) {
	case decimal.Decimal:
		return x, nil
	case []byte:
		return decimal.NewFromString(string(x))
	case string:
		return decimal.NewFromString(x)
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	}
	return decimal.Decimal{}, convErr(col, x, "decimal")
}

// Time returns the column as a time in UTC.
func (v Values) Time(col string) (time.Time, error) {
	x, err := v.get(col)
	if err != nil {
		return time.Time{}, err
	}
	switch x := x.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseTime(col, x)
	case []byte:
		return parseTime(col, string(x))
	}
	return time.Time{}, convErr(col, x, "time")
}

// Any returns the raw column value, which may be nil.
func (v Values) Any(col string) (any, error) {
	x, ok := v[col]
	if !ok {
		return nil, fmt.Errorf("bitemporal: column %q missing", col)
	}
	return x, nil
}

// timeLayouts are the textual instant formats SQL drivers return.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(col, s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bitemporal: column %q: invalid time %q", col, s)
}

// Nullable reads a nullable column with get, returning nil for NULL.
//
//	amount, err := bitemporal.Nullable(r.Values, "AMOUNT", bitemporal.Values.Decimal)
func Nullable[T any](v Values, col string, get func(Values, string) (T, error)) (*T, error) {
	if x, ok := v[col]; ok && x == nil {
		return nil, nil
	}
	t, err := get(v, col)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Value returns the value p points to, or an untyped nil.
func Value[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
