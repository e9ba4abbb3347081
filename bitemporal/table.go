package bitemporal

import (
	"time"

	"github.com/syssam/chrono/query"
)

// Axis describes one temporal axis of a table.
type Axis struct {
	// Name is the as-of attribute name.
	Name string
	// FromColumn and ToColumn store the interval bounds.
	FromColumn string
	ToColumn   string
	// Infinity is the open upper bound; zero means the package Infinity.
	Infinity time.Time
}

// Inf returns the open upper bound of the axis.
func (a *Axis) Inf() time.Time {
	if a == nil || a.Infinity.IsZero() {
		return Infinity
	}
	return a.Infinity
}

// Field returns the query accessor of the axis.
func (a *Axis) Field() query.AsOfField {
	return query.AsOfField{Name: a.Name, From: a.FromColumn, Thru: a.ToColumn}
}

// Table describes how an entity is stored. Tables are created by
// generated code and must not be modified afterwards.
type Table struct {
	// Name is the storage table.
	Name string
	// Entity labels errors, e.g. "Order".
	Entity string
	// KeyColumns identify the logical record, in order.
	KeyColumns []string
	// Columns holds every non-temporal column, key columns included.
	Columns []string
	// Business and Processing are nil when the entity has no such axis.
	Business   *Axis
	Processing *Axis
}

// Bitemporal reports whether the table has both axes.
func (t *Table) Bitemporal() bool {
	return t.Business != nil && t.Processing != nil
}

// AllColumns returns the value columns followed by the axis columns.
func (t *Table) AllColumns() []string {
	cols := append([]string(nil), t.Columns...)
	for _, a := range t.axes() {
		cols = append(cols, a.FromColumn, a.ToColumn)
	}
	return cols
}

func (t *Table) axes() []*Axis {
	var axes []*Axis
	if t.Business != nil {
		axes = append(axes, t.Business)
	}
	if t.Processing != nil {
		axes = append(axes, t.Processing)
	}
	return axes
}

// At returns the predicate selecting rows that cover p on every axis of
// the table. p.Business must be set; a zero p.Processing selects the
// current rows.
func (t *Table) At(p Point) query.Predicate {
	var ps []query.Predicate
	if t.Business != nil {
		ps = append(ps, t.Business.Field().AsOf(p.Business))
	}
	switch {
	case t.Processing == nil:
	case p.Processing.IsZero():
		ps = append(ps, t.Processing.Field().Current(t.Processing.Inf()))
	default:
		ps = append(ps, t.Processing.Field().AsOf(p.Processing))
	}
	return query.And(ps...)
}

// KeyPredicate returns the predicate selecting every row of a logical
// record.
func (t *Table) KeyPredicate(key []any) query.Predicate {
	ps := make([]query.Predicate, len(t.KeyColumns))
	for i, c := range t.KeyColumns {
		ps[i] = query.OpaqueField(c).EQ(key[i])
	}
	return query.And(ps...)
}
