// Package query provides typed predicates over entity columns. A
// Predicate renders itself as a SQL condition for a given dialect and
// evaluates itself against an in-memory row, so the same condition works
// with every bitemporal store.
//
//	p := query.And(
//	    OrderQuery.CustomerID.EQ(42),
//	    OrderQuery.Description.HasPrefix("rush"),
//	)
//	b := query.NewBuilder(dialect.Postgres)
//	b.Pred(p)
//	b.String() // "CUSTOMER_ID" = $1 AND "DESCRIPTION" LIKE $2
package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/syssam/chrono/dialect"
)

// Predicate is a condition on the columns of one row.
type Predicate interface {
	// SQL writes the condition to b.
	SQL(b *Builder)
	// Eval reports whether the row satisfies the condition. A NULL operand
	// never satisfies a comparison.
	Eval(row map[string]any) bool
}

// Builder accumulates a SQL fragment and its arguments.
type Builder struct {
	dialect string
	buf     strings.Builder
	args    []any
}

// NewBuilder returns a builder for the given dialect.
func NewBuilder(d string) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// WriteString appends s verbatim.
func (b *Builder) WriteString(s string) *Builder {
	b.buf.WriteString(s)
	return b
}

// Ident appends a quoted identifier.
func (b *Builder) Ident(s string) *Builder {
	switch b.dialect {
	case dialect.MySQL:
		b.buf.WriteByte('`')
		b.buf.WriteString(strings.ReplaceAll(s, "`", "``"))
		b.buf.WriteByte('`')
	default:
		b.buf.WriteByte('"')
		b.buf.WriteString(strings.ReplaceAll(s, `"`, `""`))
		b.buf.WriteByte('"')
	}
	return b
}

// IdentList appends a comma-separated list of quoted identifiers.
func (b *Builder) IdentList(cols []string) *Builder {
	for i, c := range cols {
		if i > 0 {
			b.buf.WriteString(", ")
		}
		b.Ident(c)
	}
	return b
}

// Arg appends a placeholder for v.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.buf.WriteByte('$')
		b.buf.WriteString(strconv.Itoa(len(b.args)))
		return b
	}
	b.buf.WriteByte('?')
	return b
}

// Args appends a comma-separated placeholder list.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.buf.WriteString(", ")
		}
		b.Arg(v)
	}
	return b
}

// Pred appends the condition p.
func (b *Builder) Pred(p Predicate) *Builder {
	p.SQL(b)
	return b
}

// String returns the accumulated SQL.
func (b *Builder) String() string { return b.buf.String() }

// Values returns the accumulated arguments.
func (b *Builder) Values() []any { return b.args }

// Render returns the SQL and arguments of p for dialect d.
func Render(d string, p Predicate) (string, []any) {
	b := NewBuilder(d)
	b.Pred(p)
	return b.String(), b.Values()
}

// And returns a predicate that holds when all ps hold. And of nothing is
// always true.
func And(ps ...Predicate) Predicate {
	ps = compact(ps)
	if len(ps) == 1 {
		return ps[0]
	}
	return junction{op: "AND", ps: ps}
}

// Or returns a predicate that holds when any of ps holds. Or of nothing
// is always false.
func Or(ps ...Predicate) Predicate {
	ps = compact(ps)
	if len(ps) == 1 {
		return ps[0]
	}
	return junction{op: "OR", ps: ps}
}

// Not negates p.
func Not(p Predicate) Predicate { return not{p} }

// All returns a predicate that holds for every row.
func All() Predicate { return constant(true) }

func compact(ps []Predicate) []Predicate {
	out := ps[:0:0]
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

type junction struct {
	op string
	ps []Predicate
}

func (j junction) SQL(b *Builder) {
	if len(j.ps) == 0 {
		constant(j.op == "AND").SQL(b)
		return
	}
	for i, p := range j.ps {
		if i > 0 {
			b.WriteString(" " + j.op + " ")
		}
		_, nested := p.(junction)
		if nested {
			b.WriteString("(")
		}
		p.SQL(b)
		if nested {
			b.WriteString(")")
		}
	}
}

func (j junction) Eval(row map[string]any) bool {
	and := j.op == "AND"
	for _, p := range j.ps {
		if p.Eval(row) != and {
			return !and
		}
	}
	return and
}

type not struct{ p Predicate }

func (n not) SQL(b *Builder) {
	b.WriteString("NOT (")
	n.p.SQL(b)
	b.WriteString(")")
}

func (n not) Eval(row map[string]any) bool { return !n.p.Eval(row) }

type constant bool

func (c constant) SQL(b *Builder) {
	if c {
		b.WriteString("1 = 1")
		return
	}
	b.WriteString("1 = 0")
}

func (c constant) Eval(map[string]any) bool { return bool(c) }

// cmp compares a column with a value.
type cmp struct {
	col string
	op  string
	v   any
}

func (c cmp) SQL(b *Builder) {
	b.Ident(c.col).WriteString(" " + c.op + " ").Arg(c.v)
}

func (c cmp) Eval(row map[string]any) bool {
	n, ok := compare(row[c.col], c.v)
	if !ok {
		return false
	}
	switch c.op {
	case "=":
		return n == 0
	case "<>":
		return n != 0
	case ">":
		return n > 0
	case ">=":
		return n >= 0
	case "<":
		return n < 0
	case "<=":
		return n <= 0
	}
	return false
}

// between holds when lo <= col <= hi.
type between struct {
	col    string
	lo, hi any
}

func (p between) SQL(b *Builder) {
	b.Ident(p.col).WriteString(" BETWEEN ").Arg(p.lo).WriteString(" AND ").Arg(p.hi)
}

func (p between) Eval(row map[string]any) bool {
	lo, ok1 := compare(row[p.col], p.lo)
	hi, ok2 := compare(row[p.col], p.hi)
	return ok1 && ok2 && lo >= 0 && hi <= 0
}

type in struct {
	col string
	vs  []any
	not bool
}

func (p in) SQL(b *Builder) {
	if len(p.vs) == 0 {
		constant(p.not).SQL(b)
		return
	}
	b.Ident(p.col)
	if p.not {
		b.WriteString(" NOT")
	}
	b.WriteString(" IN (").Args(p.vs...).WriteString(")")
}

func (p in) Eval(row map[string]any) bool {
	v := row[p.col]
	if v == nil {
		return false
	}
	for _, x := range p.vs {
		if n, ok := compare(v, x); ok && n == 0 {
			return !p.not
		}
	}
	return p.not
}

type null struct {
	col string
	not bool
}

func (p null) SQL(b *Builder) {
	b.Ident(p.col)
	if p.not {
		b.WriteString(" IS NOT NULL")
		return
	}
	b.WriteString(" IS NULL")
}

func (p null) Eval(row map[string]any) bool {
	return (row[p.col] == nil) != p.not
}

// Pattern kinds of like.
const (
	likeContains = iota
	likePrefix
	likeSuffix
	likeEqual
)

// like matches a string column against a pattern, optionally ignoring case.
type like struct {
	col  string
	s    string
	kind int
	fold bool
}

func (p like) SQL(b *Builder) {
	s := p.s
	if p.fold {
		b.WriteString("LOWER(").Ident(p.col).WriteString(")")
		s = strings.ToLower(s)
	} else {
		b.Ident(p.col)
	}
	if p.kind == likeEqual {
		b.WriteString(" = ").Arg(s)
		return
	}
	s = escapeLike(s)
	switch p.kind {
	case likeContains:
		s = "%" + s + "%"
	case likePrefix:
		s += "%"
	case likeSuffix:
		s = "%" + s
	}
	b.WriteString(" LIKE ").Arg(s)
	if b.dialect == dialect.SQLite {
		b.WriteString(` ESCAPE '\'`)
	}
}

func (p like) Eval(row map[string]any) bool {
	v, ok := asString(row[p.col])
	if !ok {
		return false
	}
	s := p.s
	if p.fold {
		v, s = strings.ToLower(v), strings.ToLower(s)
	}
	switch p.kind {
	case likePrefix:
		return strings.HasPrefix(v, s)
	case likeSuffix:
		return strings.HasSuffix(v, s)
	case likeEqual:
		return v == s
	default:
		return strings.Contains(v, s)
	}
}

func escapeLike(s string) string {
	if !strings.ContainsAny(s, `%_\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// asOf holds when from <= t < thru.
type asOf struct {
	from, thru string
	t          time.Time
}

func (p asOf) SQL(b *Builder) {
	b.Ident(p.from).WriteString(" <= ").Arg(p.t).
		WriteString(" AND ").
		Ident(p.thru).WriteString(" > ").Arg(p.t)
}

func (p asOf) Eval(row map[string]any) bool {
	from, ok1 := compare(row[p.from], p.t)
	thru, ok2 := compare(row[p.thru], p.t)
	return ok1 && ok2 && from <= 0 && thru > 0
}
