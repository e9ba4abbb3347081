package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/chrono/schema"
)

func TestMapType(t *testing.T) {
	tests := []struct {
		in   string
		want schema.Kind
	}{
		{"boolean", schema.KindBoolean},
		{"byte", schema.KindInteger},
		{"short", schema.KindInteger},
		{"int", schema.KindInteger},
		{"long", schema.KindLong},
		{"float", schema.KindFloat},
		{"double", schema.KindDouble},
		{"String", schema.KindString},
		{"Date", schema.KindInstant},
		{"Timestamp", schema.KindInstant},
		{"java.sql.Timestamp", schema.KindInstant},
		{"BigDecimal", schema.KindDecimal},
		{"java.math.BigDecimal", schema.KindDecimal},
		{" Integer ", schema.KindInteger},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := schema.MapType(tt.in)
			assert.Equal(t, tt.want, got.Kind)
			assert.False(t, got.Opaque())
		})
	}
}

func TestMapType_Passthrough(t *testing.T) {
	for _, in := range []string{"", "byte[]", "com.example.Money", "List<String>", "\x00", "日本"} {
		got := schema.MapType(in)
		assert.True(t, got.Opaque(), "input %q", in)
		assert.Equal(t, schema.KindOpaque, got.Kind)
	}
	got := schema.MapType("com.example.Money")
	assert.Equal(t, "com.example.Money", got.Name)
	assert.Equal(t, "opaque(com.example.Money)", got.String())
}

func TestKind(t *testing.T) {
	assert.True(t, schema.KindLong.Integral())
	assert.True(t, schema.KindInteger.Integral())
	assert.False(t, schema.KindDecimal.Integral())
	assert.True(t, schema.KindDecimal.Numeric())
	assert.False(t, schema.KindString.Numeric())
	assert.Equal(t, "instant", schema.KindInstant.String())
	assert.Equal(t, "invalid", schema.Kind(200).String())
}

func TestDeriveCategory(t *testing.T) {
	assert.Equal(t, schema.Transactional, schema.DeriveCategory(0, false))
	assert.Equal(t, schema.ReadOnly, schema.DeriveCategory(0, true))
	assert.Equal(t, schema.DatedTransactional, schema.DeriveCategory(1, false))
	assert.Equal(t, schema.DatedTransactional, schema.DeriveCategory(1, true))
	assert.Equal(t, schema.Bitemporal, schema.DeriveCategory(2, false))
	assert.Equal(t, schema.ReadOnly, schema.DeriveCategory(2, true))
}

func TestParseInfinity(t *testing.T) {
	got, err := schema.ParseInfinity("")
	assert.NoError(t, err)
	assert.Equal(t, schema.DefaultInfinity, got)

	got, err = schema.ParseInfinity("9999-12-31 23:59:59")
	assert.NoError(t, err)
	assert.Equal(t, 9999, got.Year())

	_, err = schema.ParseInfinity("forever")
	assert.Error(t, err)
}

func TestParseCardinality(t *testing.T) {
	c, err := schema.ParseCardinality("Many-To-Many")
	assert.NoError(t, err)
	assert.Equal(t, schema.ManyToMany, c)
	assert.True(t, c.Many())

	_, err = schema.ParseCardinality("some-to-some")
	assert.Error(t, err)
}
