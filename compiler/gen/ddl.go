package gen

import (
	"bytes"
	"context"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/chrono/dialect"
	"github.com/syssam/chrono/schema"
)

// defaultVarchar is the length of bounded string columns without a
// declared max length on dialects that require one.
const defaultVarchar = 255

// columnTypes lists the database type of each kind per dialect.
var columnTypes = map[string]map[schema.Kind]string{
	dialect.Postgres: {
		schema.KindBoolean: "boolean",
		schema.KindInteger: "integer",
		schema.KindLong:    "bigint",
		schema.KindFloat:   "real",
		schema.KindDouble:  "double precision",
		schema.KindString:  "varchar",
		schema.KindDecimal: "numeric",
		schema.KindInstant: "timestamptz",
	},
	dialect.MySQL: {
		schema.KindBoolean: "bool",
		schema.KindInteger: "int",
		schema.KindLong:    "bigint",
		schema.KindFloat:   "float",
		schema.KindDouble:  "double",
		schema.KindString:  "varchar",
		schema.KindDecimal: "decimal",
		schema.KindInstant: "datetime",
	},
	dialect.SQLite: {
		schema.KindBoolean: "bool",
		schema.KindInteger: "integer",
		schema.KindLong:    "integer",
		schema.KindFloat:   "real",
		schema.KindDouble:  "real",
		schema.KindString:  "text",
		schema.KindDecimal: "decimal",
		schema.KindInstant: "datetime",
	},
}

func planner(d string) (migrate.PlanApplier, error) {
	switch d {
	case dialect.Postgres:
		return postgres.DefaultPlan, nil
	case dialect.MySQL:
		return mysql.DefaultPlan, nil
	case dialect.SQLite:
		return sqlite.DefaultPlan, nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", d)
}

// genDDL renders the CREATE TABLE statement of an entity. The primary
// key of a temporal table extends the declared key with the start of
// every axis, so that each version of a record is its own row.
func genDDL(cfg *Config, v *view) ([]byte, error) {
	types := columnTypes[cfg.DDL]
	t := atlas.NewTable(v.Entity.Table)
	var pk []*atlas.Column
	for _, m := range v.Entity.Members() {
		switch m := m.(type) {
		case *schema.Attribute:
			c, err := column(cfg.DDL, types, m)
			if err != nil {
				return nil, err
			}
			t.AddColumns(c)
			if m.PrimaryKey {
				pk = append(pk, c)
			}
		case *schema.AsOfAttribute:
			from := atlas.NewTimeColumn(m.FromColumn, types[schema.KindInstant], timeOpts(cfg.DDL)...)
			thru := atlas.NewTimeColumn(m.ToColumn, types[schema.KindInstant], timeOpts(cfg.DDL)...)
			t.AddColumns(from, thru)
			pk = append(pk, from)
		case *schema.Relationship:
			// Joins are resolved by the related table's key.
		}
	}
	t.SetPrimaryKey(atlas.NewPrimaryKey(pk...))

	p, err := planner(cfg.DDL)
	if err != nil {
		return nil, err
	}
	plan, err := p.PlanChanges(context.Background(), "create_"+snake(v.Entity.Name), []atlas.Change{&atlas.AddTable{T: t}})
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "-- %s\n-- Entity: %s\n\n", cfg.Header, v.Entity.QualifiedName())
	for _, c := range plan.Changes {
		b.WriteString(c.Cmd)
		b.WriteString(";\n")
	}
	return b.Bytes(), nil
}

func column(d string, types map[schema.Kind]string, a *schema.Attribute) (*atlas.Column, error) {
	if a.Type.Opaque() {
		return nil, schema.NewTypeMappingError(a.Type.Name, "column "+a.Column)
	}
	typ := types[a.Type.Kind]
	var c *atlas.Column
	switch a.Type.Kind {
	case schema.KindBoolean:
		c = atlas.NewBoolColumn(a.Column, typ)
	case schema.KindInteger, schema.KindLong:
		c = atlas.NewIntColumn(a.Column, typ)
	case schema.KindFloat, schema.KindDouble:
		c = atlas.NewFloatColumn(a.Column, typ)
	case schema.KindString:
		switch {
		case a.MaxLength > 0 && d != dialect.SQLite:
			c = atlas.NewStringColumn(a.Column, typ, atlas.StringSize(a.MaxLength))
		case d == dialect.MySQL:
			c = atlas.NewStringColumn(a.Column, typ, atlas.StringSize(defaultVarchar))
		case d == dialect.Postgres:
			c = atlas.NewStringColumn(a.Column, "text")
		default:
			c = atlas.NewStringColumn(a.Column, typ)
		}
	case schema.KindDecimal:
		c = atlas.NewDecimalColumn(a.Column, typ, atlas.DecimalPrecision(38), atlas.DecimalScale(10))
	case schema.KindInstant:
		c = atlas.NewTimeColumn(a.Column, typ, timeOpts(d)...)
	}
	return c.SetNull(a.Nullable), nil
}

func timeOpts(d string) []atlas.TimeOption {
	if d == dialect.MySQL {
		return []atlas.TimeOption{atlas.TimePrecision(6)}
	}
	return nil
}
