package gen

import (
	"fmt"
	"time"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/chrono/schema"
)

// Import paths referenced by generated code.
const (
	bitemporalPkg = "github.com/syssam/chrono/bitemporal"
	queryPkg      = "github.com/syssam/chrono/query"
	sequencePkg   = "github.com/syssam/chrono/sequence"
	decimalPkg    = "github.com/shopspring/decimal"
)

// field is the Go view of a simple attribute.
type field struct {
	*schema.Attribute
	// Name is the struct field name and Param the parameter name.
	Name  string
	Param string
}

// GoType returns the Go type of the field as source text.
func (f field) GoType() string {
	t := baseType(f.Type.Kind)
	if f.Nullable && f.Type.Kind != schema.KindOpaque {
		return "*" + t
	}
	return t
}

// Getter returns the bitemporal.Values method reading the field.
func (f field) Getter() string {
	return getters[f.Type.Kind]
}

// QueryType returns the query accessor type as source text.
func (f field) QueryType() string {
	switch k := f.Type.Kind; k {
	case schema.KindInteger, schema.KindLong, schema.KindFloat, schema.KindDouble:
		return "query.NumericField[" + baseType(k) + "]"
	default:
		return "query." + queryFields[k]
	}
}

// axis is the Go view of an as-of attribute.
type axis struct {
	*schema.AsOfAttribute
	Name  string
	Param string
	// Row is the bitemporal.Row interval holding the axis: Business or
	// Processing.
	Row string
}

// CustomInfinity reports whether the axis overrides the default
// infinity date.
func (a axis) CustomInfinity() bool {
	return !a.Infinity.IsZero() && !a.Infinity.Equal(schema.DefaultInfinity)
}

// InfinityLiteral renders the infinity date as a time.Date call.
func (a axis) InfinityLiteral() string {
	t := a.Infinity.UTC()
	return fmt.Sprintf("time.Date(%d, time.%s, %d, %d, %d, %d, %d, time.UTC)",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
}

// relation is the Go view of a relationship.
type relation struct {
	*schema.Relationship
	Name string
	// Keys are the field names of the join parameters, in order.
	Keys []string
}

// view is the naming and typing of an entity shared by all generators.
type view struct {
	*schema.Entity
	Type     string
	Plural   string
	Recv     string
	Fields   []field
	Keys     []field
	Identity *field
	Axes     []axis
	Business *axis
	Process  *axis
	Rels     []relation
}

// newView builds the view of e. Every member kind is handled; the
// default branch guards against a member kind added to the schema
// package without a generator counterpart.
func newView(e *schema.Entity) (*view, error) {
	v := &view{
		Entity: e,
		Type:   pascal(e.Name),
		Plural: plural(e.Name),
		Recv:   receiver(e.Name),
	}
	names := make(map[string]string)
	for _, m := range e.Members() {
		switch m := m.(type) {
		case *schema.Attribute:
			f := field{Attribute: m, Name: pascal(m.Name), Param: param(m.Name)}
			v.Fields = append(v.Fields, f)
			if m.PrimaryKey {
				v.Keys = append(v.Keys, f)
			}
			if m.Identity {
				id := f
				v.Identity = &id
			}
			names[m.Name] = f.Name
		case *schema.AsOfAttribute:
			a := axis{AsOfAttribute: m, Name: pascal(m.Name), Param: param(m.Name), Row: "Business"}
			if m.Kind == schema.ProcessingDate {
				a.Row = "Processing"
			}
			v.Axes = append(v.Axes, a)
		case *schema.Relationship:
			v.Rels = append(v.Rels, relation{Relationship: m, Name: pascal(m.Name)})
		default:
			return nil, fmt.Errorf("unsupported member %T", m)
		}
	}
	for i := range v.Axes {
		if v.Axes[i].Row == "Business" {
			v.Business = &v.Axes[i]
		} else {
			v.Process = &v.Axes[i]
		}
	}
	for i, r := range v.Rels {
		for _, p := range r.Parameters {
			v.Rels[i].Keys = append(v.Rels[i].Keys, names[p.From])
		}
	}
	return v, nil
}

// param returns a parameter name that does not shadow the identifiers
// used in generated method bodies.
func param(name string) string {
	p := camel(name)
	switch p {
	case "ctx", "err", "r", "v", "c", "next", "seq", "repo", "store", "opts", "preds", "effective",
		"type", "func", "range", "map", "var", "go", "select", "default", "package", "interface", "chan":
		return p + "Arg"
	}
	return p
}

var goTypes = map[schema.Kind]string{
	schema.KindOpaque:  "any",
	schema.KindBoolean: "bool",
	schema.KindInteger: "int32",
	schema.KindLong:    "int64",
	schema.KindFloat:   "float32",
	schema.KindDouble:  "float64",
	schema.KindString:  "string",
	schema.KindDecimal: "decimal.Decimal",
	schema.KindInstant: "time.Time",
}

var getters = map[schema.Kind]string{
	schema.KindOpaque:  "Any",
	schema.KindBoolean: "Bool",
	schema.KindInteger: "Int32",
	schema.KindLong:    "Int64",
	schema.KindFloat:   "Float32",
	schema.KindDouble:  "Float64",
	schema.KindString:  "String",
	schema.KindDecimal: "Decimal",
	schema.KindInstant: "Time",
}

var queryFields = map[schema.Kind]string{
	schema.KindOpaque:  "OpaqueField",
	schema.KindBoolean: "BoolField",
	schema.KindString:  "StringField",
	schema.KindDecimal: "DecimalField",
	schema.KindInstant: "TimeField",
}

func baseType(k schema.Kind) string {
	if t, ok := goTypes[k]; ok {
		return t
	}
	return "any"
}

// jenType returns the jennifer code of the Go type of a kind.
func jenType(k schema.Kind) *jen.Statement {
	switch k {
	case schema.KindBoolean:
		return jen.Bool()
	case schema.KindInteger:
		return jen.Int32()
	case schema.KindLong:
		return jen.Int64()
	case schema.KindFloat:
		return jen.Float32()
	case schema.KindDouble:
		return jen.Float64()
	case schema.KindString:
		return jen.String()
	case schema.KindDecimal:
		return jen.Qual(decimalPkg, "Decimal")
	case schema.KindInstant:
		return jen.Qual("time", "Time")
	default:
		return jen.Any()
	}
}

// jenFieldType returns the struct field type of f.
func jenFieldType(f field) *jen.Statement {
	if f.Nullable && f.Type.Kind != schema.KindOpaque {
		return jen.Op("*").Add(jenType(f.Type.Kind))
	}
	return jenType(f.Type.Kind)
}

// jenQueryType returns the query accessor type of f.
func jenQueryType(f field) *jen.Statement {
	switch k := f.Type.Kind; k {
	case schema.KindInteger, schema.KindLong, schema.KindFloat, schema.KindDouble:
		return jen.Qual(queryPkg, "NumericField").Types(jenType(k))
	default:
		return jen.Qual(queryPkg, queryFields[k])
	}
}

// jenTime renders t as a time.Date call.
func jenTime(t time.Time) *jen.Statement {
	t = t.UTC()
	return jen.Qual("time", "Date").Call(
		jen.Lit(t.Year()), jen.Qual("time", t.Month().String()), jen.Lit(t.Day()),
		jen.Lit(t.Hour()), jen.Lit(t.Minute()), jen.Lit(t.Second()), jen.Lit(t.Nanosecond()),
		jen.Qual("time", "UTC"),
	)
}

// newFile starts a generated Go file in package pkg.
func newFile(cfg *Config, pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(cfg.Header)
	f.ImportName(bitemporalPkg, "bitemporal")
	f.ImportName(queryPkg, "query")
	f.ImportName(sequencePkg, "sequence")
	f.ImportName(decimalPkg, "decimal")
	if !cfg.SamePackage() && pkg != cfg.WrapperPackage {
		f.ImportName(cfg.WrapperImport, cfg.WrapperPackage)
	}
	return f
}
