package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/chrono/schema"
)

func intPtr(n int) *int { return &n }

// orderRaw is a bitemporal entity with an identity key and a
// relationship.
func orderRaw() *schema.RawEntity {
	return &schema.RawEntity{
		File:    "Order.xml",
		Package: "com.example.trade",
		Name:    "Order",
		Table:   "ORDERS",
		Attributes: []schema.RawAttribute{
			{Name: "orderId", Type: "long", Column: "ORDER_ID", PrimaryKey: true, Identity: true},
			{Name: "customerId", Type: "int", Column: "CUSTOMER_ID"},
			{Name: "amount", Type: "BigDecimal", Column: "AMOUNT", Nullable: true},
			{Name: "description", Type: "String", Column: "DESCRIPTION", Nullable: true, Trim: true, MaxLength: intPtr(200)},
		},
		AsOf: []schema.RawAsOfAttribute{
			{Name: "businessDate", FromColumn: "BUSINESS_FROM", ToColumn: "BUSINESS_THRU"},
			{Name: "processingDate", FromColumn: "PROCESSING_FROM", ToColumn: "PROCESSING_THRU", Processing: true},
		},
		Relationships: []schema.RawRelationship{
			{Name: "items", Related: "OrderItem", Cardinality: schema.OneToMany, Reverse: "order",
				Parameters: []schema.JoinParameter{{From: "orderId", To: "orderId"}}},
		},
	}
}

// countryRaw is a plain transactional entity.
func countryRaw() *schema.RawEntity {
	return &schema.RawEntity{
		File:    "Country.xml",
		Package: "com.example.ref",
		Name:    "Country",
		Table:   "COUNTRY",
		Attributes: []schema.RawAttribute{
			{Name: "code", Type: "String", Column: "CODE", PrimaryKey: true, MaxLength: intPtr(2)},
			{Name: "name", Type: "String", Column: "NAME"},
		},
	}
}

// rateRaw is a read-only entity dated on business time only.
func rateRaw() *schema.RawEntity {
	return &schema.RawEntity{
		File:     "Rate.xml",
		Package:  "com.example.fx",
		Name:     "Rate",
		Table:    "FX_RATE",
		ReadOnly: true,
		Attributes: []schema.RawAttribute{
			{Name: "currency", Type: "String", Column: "CCY", PrimaryKey: true},
			{Name: "value", Type: "double", Column: "VALUE"},
		},
		AsOf: []schema.RawAsOfAttribute{
			{Name: "businessDate", FromColumn: "FROM_Z", ToColumn: "THRU_Z"},
		},
	}
}

func mustEntity(t *testing.T, raw *schema.RawEntity) *schema.Entity {
	t.Helper()
	e, err := schema.Validate(raw)
	require.NoError(t, err)
	return e
}

func sameDirConfig(t *testing.T, opts ...Option) *Config {
	t.Helper()
	cfg, err := NewConfig(append([]Option{WithTarget("out/model")}, opts...)...)
	require.NoError(t, err)
	return cfg
}

func artifactOf(t *testing.T, arts []*Artifact, k ArtifactKind) *Artifact {
	t.Helper()
	for _, a := range arts {
		if a.Kind == k {
			return a
		}
	}
	t.Fatalf("no %s artifact", k)
	return nil
}
