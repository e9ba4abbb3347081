package gen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/chrono/schema"
)

var graphqlScalars = map[schema.Kind]string{
	schema.KindBoolean: "Boolean",
	schema.KindInteger: "Int",
	schema.KindLong:    "Int",
	schema.KindFloat:   "Float",
	schema.KindDouble:  "Float",
	schema.KindString:  "String",
	schema.KindDecimal: "String",
	schema.KindInstant: "String",
	schema.KindOpaque:  "String",
}

// genGraphQL renders the GraphQL object type of an entity and checks
// that it loads as a schema.
func genGraphQL(cfg *Config, v *view) ([]byte, error) {
	def := &ast.Definition{
		Kind:        ast.Object,
		Name:        v.Type,
		Description: fmt.Sprintf("%s is stored in %s.", v.Entity.QualifiedName(), v.Entity.Table),
	}
	related := make(map[string]bool)
	for _, m := range v.Entity.Members() {
		switch m := m.(type) {
		case *schema.Attribute:
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name: camel(m.Name),
				Type: graphqlType(v, m),
			})
		case *schema.AsOfAttribute:
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:        camel(m.Name),
				Description: fmt.Sprintf("Start of the %s interval.", m.Kind),
				Type:        ast.NonNullNamedType("String", nil),
			})
		case *schema.Relationship:
			typ := relatedType(m.Related)
			if typ != v.Type {
				related[typ] = true
			}
			t := ast.NamedType(typ, nil)
			if m.Cardinality.Many() {
				t = ast.NonNullListType(ast.NonNullNamedType(typ, nil), nil)
			}
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: camel(m.Name), Type: t})
		}
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("type %s has no fields", v.Type)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", cfg.Header)
	formatter.NewFormatter(&b, formatter.WithIndent("  ")).FormatSchemaDocument(&ast.SchemaDocument{
		Definitions: ast.DefinitionList{def},
	})
	if err := checkGraphQL(v.Type, b.String(), related); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// graphqlType maps an attribute to its GraphQL type. A single primary
// key is exposed as ID.
func graphqlType(v *view, a *schema.Attribute) *ast.Type {
	name := graphqlScalars[a.Type.Kind]
	if a.PrimaryKey && len(v.Keys) == 1 {
		name = "ID"
	}
	if a.Nullable {
		return ast.NamedType(name, nil)
	}
	return ast.NonNullNamedType(name, nil)
}

// relatedType returns the type name of a possibly qualified related
// object name.
func relatedType(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return pascal(name)
}

// checkGraphQL loads the rendered document with placeholder
// definitions of the related types, which live in their own files.
func checkGraphQL(name, doc string, related map[string]bool) error {
	names := make([]string, 0, len(related))
	for n := range related {
		names = append(names, n)
	}
	sort.Strings(names)
	var stub strings.Builder
	for _, n := range names {
		fmt.Fprintf(&stub, "type %s { id: ID }\n", n)
	}
	sources := []*ast.Source{{Name: name + ".graphql", Input: doc}}
	if stub.Len() > 0 {
		sources = append(sources, &ast.Source{Name: "related.graphql", Input: stub.String()})
	}
	if _, err := gqlparser.LoadSchema(sources...); err != nil {
		return fmt.Errorf("invalid graphql type: %w", err)
	}
	return nil
}
