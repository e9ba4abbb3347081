package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/chrono/schema"
)

// genRepository emits the repository of a temporal entity. Read-only
// entities get the read operations only.
func genRepository(cfg *Config, v *view) *jen.File {
	f := newFile(cfg, cfg.Package)
	name := v.Type + "Repository"
	wrapped := func() *jen.Statement { return wrapperIdent(cfg, v.Type) }

	f.Commentf("%s reads and writes %s records as of business and processing time.", name, v.Type)
	f.Type().Id(name).StructFunc(func(g *jen.Group) {
		g.Id("repo").Op("*").Qual(bitemporalPkg, "Repository").Types(wrapped())
		if v.Identity != nil && !v.ReadOnly {
			g.Id("seq").Qual(sequencePkg, "Generator")
		}
	})

	f.Commentf("New%s returns %s %s over store.", name, article(name), name)
	f.Func().Id("New"+name).Params(
		jen.Id("store").Qual(bitemporalPkg, "Store"),
		jen.Id("opts").Op("...").Qual(bitemporalPkg, "Option"),
	).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(jen.Dict{
			jen.Id("repo"): jen.Qual(bitemporalPkg, "NewRepository").Call(
				jen.Id("store"),
				wrapperIdent(cfg, v.Type+"Table"),
				wrapperIdent(cfg, v.Type+"FromRow"),
				jen.Parens(jen.Op("*").Add(wrapped())).Dot("Row"),
				jen.Id("opts").Op("..."),
			),
		})),
	)

	recv := func() *jen.Statement { return jen.Id("r").Op("*").Id(name) }
	keyParams := func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		for _, k := range v.Keys {
			g.Id(k.Param).Add(jenType(k.Type.Kind))
		}
	}
	key := func() *jen.Statement {
		return jen.Index().Any().ValuesFunc(func(g *jen.Group) {
			for _, k := range v.Keys {
				g.Id(k.Param)
			}
		})
	}
	axisParams := func(g *jen.Group) {
		for _, a := range v.Axes {
			g.Id(a.Param).Qual("time", "Time")
		}
	}
	point := func() *jen.Statement {
		return jen.Qual(bitemporalPkg, "Point").Values(jen.DictFunc(func(d jen.Dict) {
			for _, a := range v.Axes {
				d[jen.Id(a.Row)] = jen.Id(a.Param)
			}
		}))
	}

	if v.Identity != nil && !v.ReadOnly {
		f.Commentf("WithSequence draws %s values from seq when a saved %s has none.", v.Identity.Name, v.Type)
		f.Func().Params(recv()).Id("WithSequence").Params(jen.Id("seq").Qual(sequencePkg, "Generator")).Op("*").Id(name).Block(
			jen.Id("r").Dot("seq").Op("=").Id("seq"),
			jen.Return(jen.Id("r")),
		)
	}

	if !v.ReadOnly {
		f.Commentf("Save inserts v as a new %s and returns the stored value.", v.Type)
		f.Func().Params(recv()).Id("Save").Params(
			jen.Id("ctx").Qual("context", "Context"),
			jen.Id("v").Op("*").Add(wrapped()),
		).Params(jen.Op("*").Add(wrapped()), jen.Error()).BlockFunc(func(g *jen.Group) {
			if id := v.Identity; id != nil {
				g.If(jen.Id("v").Dot(id.Name).Op("==").Lit(0).Op("&&").Id("r").Dot("seq").Op("!=").Nil()).Block(
					jen.List(jen.Id("next"), jen.Err()).Op(":=").Id("r").Dot("seq").Dot("NextID").Call(jen.Id("ctx"), jen.Lit(v.Entity.Name)),
					jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
					jen.Id("c").Op(":=").Op("*").Id("v"),
					jen.Id("c").Dot(id.Name).Op("=").Add(nextID(id.Type.Kind)),
					jen.Id("v").Op("=").Op("&").Id("c"),
				)
			}
			g.Return(jen.Id("r").Dot("repo").Dot("Insert").Call(jen.Id("ctx"), jen.Id("v")))
		})
	}

	f.Commentf("FindByIDAsOf returns the %s covering the given point. A zero processing instant selects the current state.", v.Type)
	f.Func().Params(recv()).Id("FindByIDAsOf").ParamsFunc(func(g *jen.Group) {
		keyParams(g)
		axisParams(g)
	}).Params(jen.Op("*").Add(wrapped()), jen.Error()).Block(
		jen.Return(jen.Id("r").Dot("repo").Dot("FindAsOf").Call(jen.Id("ctx"), key(), point())),
	)

	findAll := "FindAll" + v.Plural + "AsOf"
	f.Commentf("%s returns every %s covering the given point and matching preds.", findAll, v.Type)
	f.Func().Params(recv()).Id(findAll).ParamsFunc(func(g *jen.Group) {
		g.Id("ctx").Qual("context", "Context")
		axisParams(g)
		g.Id("preds").Op("...").Qual(queryPkg, "Predicate")
	}).Params(jen.Index().Op("*").Add(wrapped()), jen.Error()).Block(
		jen.Return(jen.Id("r").Dot("repo").Dot("FindAllAsOf").Call(jen.Id("ctx"), point(), jen.Id("preds").Op("..."))),
	)

	if !v.ReadOnly {
		effective := jen.Qual("time", "Time").Values()
		if v.Business != nil {
			effective = jen.Id("effective")
		}
		f.Comment("Update replaces the current values of the record of v")
		if v.Business != nil {
			f.Comment("from the effective business instant onwards.")
		} else {
			f.Comment("and keeps the replaced row in the processing history.")
		}
		f.Func().Params(recv()).Id("Update").ParamsFunc(func(g *jen.Group) {
			g.Id("ctx").Qual("context", "Context")
			g.Id("v").Op("*").Add(wrapped())
			if v.Business != nil {
				g.Id("effective").Qual("time", "Time")
			}
		}).Error().Block(
			jen.Return(jen.Id("r").Dot("repo").Dot("Update").Call(jen.Id("ctx"), jen.Id("v"), effective.Clone())),
		)

		f.Commentf("Terminate ends the %s record while keeping its history.", v.Type)
		f.Func().Params(recv()).Id("Terminate").ParamsFunc(func(g *jen.Group) {
			keyParams(g)
			if v.Business != nil {
				g.Id("effective").Qual("time", "Time")
			}
		}).Error().Block(
			jen.Return(jen.Id("r").Dot("repo").Dot("Terminate").Call(jen.Id("ctx"), key(), effective.Clone())),
		)

		f.Commentf("Delete removes every row of the %s record. The repository must be created with bitemporal.WithHardDelete.", v.Type)
		f.Func().Params(recv()).Id("Delete").ParamsFunc(keyParams).Error().Block(
			jen.Return(jen.Id("r").Dot("repo").Dot("Delete").Call(jen.Id("ctx"), key())),
		)
	}

	f.Commentf("History returns every stored version of the %s record.", v.Type)
	f.Func().Params(recv()).Id("History").ParamsFunc(keyParams).Params(
		jen.Index().Qual(bitemporalPkg, "Version").Types(wrapped()), jen.Error(),
	).Block(
		jen.Return(jen.Id("r").Dot("repo").Dot("History").Call(jen.Id("ctx"), key())),
	)
	return f
}

// wrapperIdent references a wrapper package identifier from the
// repository package.
func wrapperIdent(cfg *Config, name string) *jen.Statement {
	if cfg.SamePackage() {
		return jen.Id(name)
	}
	return jen.Qual(cfg.WrapperImport, name)
}

// nextID converts the int64 a sequence hands out to the identity type.
func nextID(k schema.Kind) *jen.Statement {
	if k == schema.KindLong {
		return jen.Id("next")
	}
	return jenType(k).Call(jen.Id("next"))
}
