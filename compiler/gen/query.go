package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/chrono/schema"
)

// genQuery emits the query helper of a temporal entity: one typed
// accessor per attribute and one as-of accessor per axis.
func genQuery(cfg *Config, v *view) *jen.File {
	f := newFile(cfg, cfg.Package)
	name := v.Type + "Query"
	var (
		types  []jen.Code
		values = jen.Dict{}
	)
	for _, m := range v.Entity.Members() {
		switch m := m.(type) {
		case *schema.Attribute:
			fd := fieldOf(v, m.Name)
			types = append(types, jen.Id(fd.Name).Add(jenQueryType(fd)))
			values[jen.Id(fd.Name)] = jenQueryType(fd).Call(jen.Lit(fd.Column))
		case *schema.AsOfAttribute:
			a := axisOf(v, m.Name)
			types = append(types, jen.Id(a.Name).Qual(queryPkg, "AsOfField"))
			values[jen.Id(a.Name)] = jen.Qual(queryPkg, "AsOfField").Values(jen.Dict{
				jen.Id("Name"): jen.Lit(m.Name),
				jen.Id("From"): jen.Lit(m.FromColumn),
				jen.Id("Thru"): jen.Lit(m.ToColumn),
			})
		case *schema.Relationship:
			// Related attributes are queried through the related helper.
		}
	}
	f.Commentf("%s holds the typed predicates over the attributes of %s.", name, v.Type)
	f.Var().Id(name).Op("=").Struct(types...).Values(values)
	return f
}
