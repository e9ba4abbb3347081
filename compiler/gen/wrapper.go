package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/chrono/schema"
)

// genWrapper emits the value type of an entity: the struct, the table
// descriptor and the row conversions.
func genWrapper(cfg *Config, v *view) *jen.File {
	f := newFile(cfg, cfg.WrapperPackage)
	e := v.Entity

	f.Commentf("%s is the value type of %s, stored in %s.", v.Type, e.QualifiedName(), e.Table)
	f.Type().Id(v.Type).StructFunc(func(g *jen.Group) {
		for _, m := range e.Members() {
			switch m := m.(type) {
			case *schema.Attribute:
				fd := fieldOf(v, m.Name)
				g.Id(fd.Name).Add(jenFieldType(fd))
			case *schema.AsOfAttribute:
				a := axisOf(v, m.Name)
				g.Commentf("%s is the start of the %s interval of the row.", a.Name, m.Kind)
				g.Id(a.Name).Qual("time", "Time")
			case *schema.Relationship:
				// Navigations are resolved through the join key methods.
			}
		}
	})

	f.Commentf("%sTable describes the storage of %s.", v.Type, v.Type)
	f.Var().Id(v.Type+"Table").Op("=").Op("&").Qual(bitemporalPkg, "Table").Values(jen.DictFunc(func(d jen.Dict) {
		d[jen.Id("Name")] = jen.Lit(e.Table)
		d[jen.Id("Entity")] = jen.Lit(e.Name)
		d[jen.Id("KeyColumns")] = jen.Index().String().ValuesFunc(func(g *jen.Group) {
			for _, k := range v.Keys {
				g.Lit(k.Column)
			}
		})
		d[jen.Id("Columns")] = jen.Index().String().ValuesFunc(func(g *jen.Group) {
			for _, fd := range v.Fields {
				g.Lit(fd.Column)
			}
		})
		for _, a := range v.Axes {
			d[jen.Id(a.Row)] = jenAxis(a)
		}
	}))

	genFromRow(f, v)
	genToRow(f, v)
	for _, r := range v.Rels {
		if len(r.Keys) == 0 {
			continue
		}
		f.Commentf("%sKey returns the values joining %s to %s.", r.Name, v.Recv, r.Related)
		f.Func().Params(jen.Id(v.Recv).Op("*").Id(v.Type)).Id(r.Name + "Key").Params().Index().Any().Block(
			jen.Return(jen.Index().Any().ValuesFunc(func(g *jen.Group) {
				for _, k := range r.Keys {
					g.Id(v.Recv).Dot(k)
				}
			})),
		)
	}
	return f
}

func jenAxis(a axis) *jen.Statement {
	return jen.Op("&").Qual(bitemporalPkg, "Axis").Values(jen.DictFunc(func(d jen.Dict) {
		d[jen.Id("Name")] = jen.Lit(a.AsOfAttribute.Name)
		d[jen.Id("FromColumn")] = jen.Lit(a.FromColumn)
		d[jen.Id("ToColumn")] = jen.Lit(a.ToColumn)
		if a.CustomInfinity() {
			d[jen.Id("Infinity")] = jenTime(a.Infinity)
		}
	}))
}

func genFromRow(f *jen.File, v *view) {
	name := v.Type + "FromRow"
	f.Commentf("%s builds %s %s from its storage row.", name, article(v.Type), v.Type)
	f.Func().Id(name).Params(jen.Id("r").Qual(bitemporalPkg, "Row")).Params(jen.Op("*").Id(v.Type), jen.Error()).BlockFunc(func(g *jen.Group) {
		g.Var().Defs(
			jen.Id("v").Id(v.Type),
			jen.Err().Error(),
		)
		for _, fd := range v.Fields {
			var read *jen.Statement
			if fd.Nullable && fd.Type.Kind != schema.KindOpaque {
				read = jen.Qual(bitemporalPkg, "Nullable").Call(
					jen.Id("r").Dot("Values"), jen.Lit(fd.Column), jen.Qual(bitemporalPkg, "Values").Dot(fd.Getter()),
				)
			} else {
				read = jen.Id("r").Dot("Values").Dot(fd.Getter()).Call(jen.Lit(fd.Column))
			}
			g.If(
				jen.List(jen.Id("v").Dot(fd.Name), jen.Err()).Op("=").Add(read),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Nil(), jen.Err()))
			if fd.Trim && fd.Type.Kind == schema.KindString {
				if fd.Nullable {
					g.If(jen.Id("v").Dot(fd.Name).Op("!=").Nil()).Block(
						jen.Op("*").Id("v").Dot(fd.Name).Op("=").Qual("strings", "TrimRight").Call(jen.Op("*").Id("v").Dot(fd.Name), jen.Lit(" ")),
					)
				} else {
					g.Id("v").Dot(fd.Name).Op("=").Qual("strings", "TrimRight").Call(jen.Id("v").Dot(fd.Name), jen.Lit(" "))
				}
			}
		}
		for _, a := range v.Axes {
			g.Id("v").Dot(a.Name).Op("=").Id("r").Dot(a.Row).Dot("From")
		}
		g.Return(jen.Op("&").Id("v"), jen.Nil())
	})
}

func genToRow(f *jen.File, v *view) {
	f.Commentf("Row returns the storage row of %s.", v.Recv)
	f.Func().Params(jen.Id(v.Recv).Op("*").Id(v.Type)).Id("Row").Params().Qual(bitemporalPkg, "Row").Block(
		jen.Return(jen.Qual(bitemporalPkg, "Row").Values(jen.DictFunc(func(d jen.Dict) {
			d[jen.Id("Key")] = jen.Index().Any().ValuesFunc(func(g *jen.Group) {
				for _, k := range v.Keys {
					g.Id(v.Recv).Dot(k.Name)
				}
			})
			d[jen.Id("Values")] = jen.Qual(bitemporalPkg, "Values").Values(jen.DictFunc(func(vd jen.Dict) {
				for _, fd := range v.Fields {
					val := jen.Id(v.Recv).Dot(fd.Name)
					if fd.Nullable && fd.Type.Kind != schema.KindOpaque {
						val = jen.Qual(bitemporalPkg, "Value").Call(jen.Id(v.Recv).Dot(fd.Name))
					}
					vd[jen.Lit(fd.Column)] = val
				}
			}))
			if v.Business != nil {
				d[jen.Id("Business")] = jen.Qual(bitemporalPkg, "Interval").Values(jen.Dict{
					jen.Id("From"): jen.Id(v.Recv).Dot(v.Business.Name),
				})
			}
		}))),
	)
}

func fieldOf(v *view, name string) field {
	for _, f := range v.Fields {
		if f.Attribute.Name == name {
			return f
		}
	}
	return field{}
}

func axisOf(v *view, name string) axis {
	for _, a := range v.Axes {
		if a.AsOfAttribute.Name == name {
			return a
		}
	}
	return axis{}
}
