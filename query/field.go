package query

import (
	"time"

	"github.com/shopspring/decimal"
)

// Number is the constraint of numeric attribute types.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

func anys[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// NumericField is an integer or floating-point column.
//
//	var Quantity = query.NumericField[int32]("QUANTITY")
//	Quantity.Between(1, 10)
type NumericField[T Number] string

// Column returns the column name.
func (f NumericField[T]) Column() string { return string(f) }

// EQ returns a predicate that checks if the column equals v.
func (f NumericField[T]) EQ(v T) Predicate { return cmp{string(f), "=", v} }

// NEQ returns a predicate that checks if the column does not equal v.
func (f NumericField[T]) NEQ(v T) Predicate { return cmp{string(f), "<>", v} }

// GT returns a predicate that checks if the column is greater than v.
func (f NumericField[T]) GT(v T) Predicate { return cmp{string(f), ">", v} }

// GTE returns a predicate that checks if the column is greater than or equal to v.
func (f NumericField[T]) GTE(v T) Predicate { return cmp{string(f), ">=", v} }

// LT returns a predicate that checks if the column is less than v.
func (f NumericField[T]) LT(v T) Predicate { return cmp{string(f), "<", v} }

// LTE returns a predicate that checks if the column is less than or equal to v.
func (f NumericField[T]) LTE(v T) Predicate { return cmp{string(f), "<=", v} }

// Between returns a predicate that checks if lo <= column <= hi.
func (f NumericField[T]) Between(lo, hi T) Predicate { return between{string(f), lo, hi} }

// In returns a predicate that checks if the column is one of vs.
func (f NumericField[T]) In(vs ...T) Predicate { return in{col: string(f), vs: anys(vs)} }

// NotIn returns a predicate that checks if the column is none of vs.
func (f NumericField[T]) NotIn(vs ...T) Predicate { return in{col: string(f), vs: anys(vs), not: true} }

// IsNull returns a predicate that checks if the column is NULL.
func (f NumericField[T]) IsNull() Predicate { return null{col: string(f)} }

// NotNull returns a predicate that checks if the column is not NULL.
func (f NumericField[T]) NotNull() Predicate { return null{col: string(f), not: true} }

// StringField is a string column.
type StringField string

// Column returns the column name.
func (f StringField) Column() string { return string(f) }

// EQ returns a predicate that checks if the column equals v.
func (f StringField) EQ(v string) Predicate { return cmp{string(f), "=", v} }

// NEQ returns a predicate that checks if the column does not equal v.
func (f StringField) NEQ(v string) Predicate { return cmp{string(f), "<>", v} }

// In returns a predicate that checks if the column is one of vs.
func (f StringField) In(vs ...string) Predicate { return in{col: string(f), vs: anys(vs)} }

// NotIn returns a predicate that checks if the column is none of vs.
func (f StringField) NotIn(vs ...string) Predicate {
	return in{col: string(f), vs: anys(vs), not: true}
}

// Contains returns a predicate that checks if the column contains v.
func (f StringField) Contains(v string) Predicate { return like{col: string(f), s: v} }

// ContainsFold is like Contains but ignores case.
func (f StringField) ContainsFold(v string) Predicate {
	return like{col: string(f), s: v, fold: true}
}

// HasPrefix returns a predicate that checks if the column starts with v.
func (f StringField) HasPrefix(v string) Predicate {
	return like{col: string(f), s: v, kind: likePrefix}
}

// HasSuffix returns a predicate that checks if the column ends with v.
func (f StringField) HasSuffix(v string) Predicate {
	return like{col: string(f), s: v, kind: likeSuffix}
}

// EqualFold returns a predicate that checks if the column equals v ignoring case.
func (f StringField) EqualFold(v string) Predicate {
	return like{col: string(f), s: v, kind: likeEqual, fold: true}
}

// IsNull returns a predicate that checks if the column is NULL.
func (f StringField) IsNull() Predicate { return null{col: string(f)} }

// NotNull returns a predicate that checks if the column is not NULL.
func (f StringField) NotNull() Predicate { return null{col: string(f), not: true} }

// DecimalField is a fixed-point column.
type DecimalField string

// Column returns the column name.
func (f DecimalField) Column() string { return string(f) }

// EQ returns a predicate that checks if the column equals v.
func (f DecimalField) EQ(v decimal.Decimal) Predicate { return cmp{string(f), "=", v} }

// NEQ returns a predicate that checks if the column does not equal v.
func (f DecimalField) NEQ(v decimal.Decimal) Predicate { return cmp{string(f), "<>", v} }

// GT returns a predicate that checks if the column is greater than v.
func (f DecimalField) GT(v decimal.Decimal) Predicate { return cmp{string(f), ">", v} }

// GTE returns a predicate that checks if the column is greater than or equal to v.
func (f DecimalField) GTE(v decimal.Decimal) Predicate { return cmp{string(f), ">=", v} }

// LT returns a predicate that checks if the column is less than v.
func (f DecimalField) LT(v decimal.Decimal) Predicate { return cmp{string(f), "<", v} }

// LTE returns a predicate that checks if the column is less than or equal to v.
func (f DecimalField) LTE(v decimal.Decimal) Predicate { return cmp{string(f), "<=", v} }

// Between returns a predicate that checks if lo <= column <= hi.
func (f DecimalField) Between(lo, hi decimal.Decimal) Predicate {
	return between{string(f), lo, hi}
}

// IsNull returns a predicate that checks if the column is NULL.
func (f DecimalField) IsNull() Predicate { return null{col: string(f)} }

// NotNull returns a predicate that checks if the column is not NULL.
func (f DecimalField) NotNull() Predicate { return null{col: string(f), not: true} }

// TimeField is an instant column that is not an as-of axis.
type TimeField string

// Column returns the column name.
func (f TimeField) Column() string { return string(f) }

// EQ returns a predicate that checks if the column equals t.
func (f TimeField) EQ(t time.Time) Predicate { return cmp{string(f), "=", t} }

// NEQ returns a predicate that checks if the column does not equal t.
func (f TimeField) NEQ(t time.Time) Predicate { return cmp{string(f), "<>", t} }

// GT returns a predicate that checks if the column is after t.
func (f TimeField) GT(t time.Time) Predicate { return cmp{string(f), ">", t} }

// LT returns a predicate that checks if the column is before t.
func (f TimeField) LT(t time.Time) Predicate { return cmp{string(f), "<", t} }

// Between returns a predicate that checks if lo <= column <= hi.
func (f TimeField) Between(lo, hi time.Time) Predicate { return between{string(f), lo, hi} }

// IsNull returns a predicate that checks if the column is NULL.
func (f TimeField) IsNull() Predicate { return null{col: string(f)} }

// NotNull returns a predicate that checks if the column is not NULL.
func (f TimeField) NotNull() Predicate { return null{col: string(f), not: true} }

// BoolField is a boolean column.
type BoolField string

// Column returns the column name.
func (f BoolField) Column() string { return string(f) }

// EQ returns a predicate that checks if the column equals v.
func (f BoolField) EQ(v bool) Predicate { return cmp{string(f), "=", v} }

// IsNull returns a predicate that checks if the column is NULL.
func (f BoolField) IsNull() Predicate { return null{col: string(f)} }

// NotNull returns a predicate that checks if the column is not NULL.
func (f BoolField) NotNull() Predicate { return null{col: string(f), not: true} }

// OpaqueField is a column whose type is unknown to the generator. Only
// equality and NULL checks are offered.
type OpaqueField string

// Column returns the column name.
func (f OpaqueField) Column() string { return string(f) }

// EQ returns a predicate that checks if the column equals v.
func (f OpaqueField) EQ(v any) Predicate { return cmp{string(f), "=", v} }

// IsNull returns a predicate that checks if the column is NULL.
func (f OpaqueField) IsNull() Predicate { return null{col: string(f)} }

// NotNull returns a predicate that checks if the column is not NULL.
func (f OpaqueField) NotNull() Predicate { return null{col: string(f), not: true} }

// AsOfField is one temporal axis, stored as a [From, Thru) column pair.
type AsOfField struct {
	Name string
	From string
	Thru string
}

// AsOf returns a predicate that holds for rows whose interval contains t.
func (f AsOfField) AsOf(t time.Time) Predicate {
	return asOf{from: f.From, thru: f.Thru, t: t}
}

// Equals returns a predicate that holds for rows whose interval starts
// exactly at t.
func (f AsOfField) Equals(t time.Time) Predicate { return cmp{f.From, "=", t} }

// EdgePoint returns a predicate that places no restriction on this axis,
// selecting every milestone of it. Repositories use it to read history.
func (f AsOfField) EdgePoint() Predicate { return All() }

// Current returns a predicate that holds for rows still open on this axis.
func (f AsOfField) Current(infinity time.Time) Predicate { return cmp{f.Thru, "=", infinity} }
