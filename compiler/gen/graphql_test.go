package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/chrono/schema"
)

func graphqlOf(t *testing.T, raw *schema.RawEntity) string {
	t.Helper()
	v, err := newView(mustEntity(t, raw))
	require.NoError(t, err)
	b, err := genGraphQL(sameDirConfig(t), v)
	require.NoError(t, err)
	return string(b)
}

func TestGraphQL_Order(t *testing.T) {
	doc := graphqlOf(t, orderRaw())
	assert.True(t, strings.HasPrefix(doc, "# "+DefaultHeader+"\n\n"))

	s, err := gqlparser.LoadSchema(
		&ast.Source{Name: "order.graphql", Input: doc},
		&ast.Source{Name: "item.graphql", Input: "type OrderItem { id: ID }"},
	)
	require.NoError(t, err)
	def := s.Types["Order"]
	require.NotNil(t, def)
	assert.Equal(t, ast.Object, def.Kind)
	assert.Contains(t, def.Description, "ORDERS")

	tests := map[string]string{
		"orderID":        "ID!",
		"customerID":     "Int!",
		"amount":         "String",
		"description":    "String",
		"businessDate":   "String!",
		"processingDate": "String!",
		"items":          "[OrderItem!]!",
	}
	for name, typ := range tests {
		f := def.Fields.ForName(name)
		if assert.NotNil(t, f, name) {
			assert.Equal(t, typ, f.Type.String(), name)
		}
	}
}

func TestGraphQL_CompositeKey(t *testing.T) {
	raw := countryRaw()
	raw.Attributes[1].PrimaryKey = true
	doc := graphqlOf(t, raw)
	assert.Contains(t, doc, "code: String!")
	assert.NotContains(t, doc, "ID")
}

func TestGraphQL_SelfReference(t *testing.T) {
	raw := countryRaw()
	raw.Relationships = []schema.RawRelationship{
		{Name: "parent", Related: "com.example.ref.Country", Cardinality: schema.ManyToOne},
	}
	doc := graphqlOf(t, raw)
	assert.Contains(t, doc, "parent: Country")
}

func TestRelatedType(t *testing.T) {
	assert.Equal(t, "OrderItem", relatedType("com.example.OrderItem"))
	assert.Equal(t, "OrderItem", relatedType("orderItem"))
}
