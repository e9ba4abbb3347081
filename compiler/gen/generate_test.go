package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/chrono/schema"
)

func TestEnhanced_Bitemporal(t *testing.T) {
	g := NewEnhanced(sameDirConfig(t))
	assert.Equal(t, "enhanced", g.Name())

	arts, err := g.Generate(mustEntity(t, orderRaw()))
	require.NoError(t, err)
	require.Len(t, arts, 3)

	names := make([]string, len(arts))
	for i, a := range arts {
		names[i] = a.Path()
		assert.Equal(t, "Order", a.Entity)
		assert.True(t, strings.HasPrefix(string(a.Content), "// "+DefaultHeader), a.Name)
	}
	assert.Equal(t, []string{"out/model/order.go", "out/model/order_repository.go", "out/model/order_query.go"}, names)

	wrapper := string(artifactOf(t, arts, KindWrapper).Content)
	assert.Contains(t, wrapper, "package model")
	assert.Contains(t, wrapper, "type Order struct")
	assert.Regexp(t, `OrderID\s+int64`, wrapper)
	assert.Regexp(t, `CustomerID\s+int32`, wrapper)
	assert.Regexp(t, `Amount\s+\*decimal\.Decimal`, wrapper)
	assert.Regexp(t, `BusinessDate\s+time\.Time`, wrapper)
	assert.Contains(t, wrapper, "var OrderTable = &bitemporal.Table{")
	assert.Contains(t, wrapper, "func OrderFromRow(r bitemporal.Row) (*Order, error)")
	assert.Contains(t, wrapper, "strings.TrimRight(*v.Description")
	assert.Contains(t, wrapper, "func (o *Order) Row() bitemporal.Row")
	assert.Contains(t, wrapper, "func (o *Order) ItemsKey() []any")
	assert.NotContains(t, wrapper, "Infinity:")
	assert.Contains(t, wrapper, "// OrderFromRow builds an Order from its storage row.")

	repo := string(artifactOf(t, arts, KindRepository).Content)
	assert.Contains(t, repo, "type OrderRepository struct")
	assert.Contains(t, repo, "func NewOrderRepository(store bitemporal.Store, opts ...bitemporal.Option) *OrderRepository")
	assert.Contains(t, repo, "func (r *OrderRepository) WithSequence(seq sequence.Generator) *OrderRepository")
	assert.Contains(t, repo, "func (r *OrderRepository) Save(ctx context.Context, v *Order) (*Order, error)")
	assert.Contains(t, repo, `r.seq.NextID(ctx, "Order")`)
	assert.Contains(t, repo, "// NewOrderRepository returns an OrderRepository over store.")
	assert.Contains(t, repo, "c.OrderID = next\n")
	assert.NotContains(t, repo, "int64(next)")
	assert.Contains(t, repo, "func (r *OrderRepository) FindByIDAsOf(ctx context.Context, orderID int64, businessDate time.Time, processingDate time.Time) (*Order, error)")
	assert.Contains(t, repo, "func (r *OrderRepository) FindAllOrdersAsOf(ctx context.Context, businessDate time.Time, processingDate time.Time, preds ...query.Predicate) ([]*Order, error)")
	assert.Contains(t, repo, "func (r *OrderRepository) Update(ctx context.Context, v *Order, effective time.Time) error")
	assert.Contains(t, repo, "func (r *OrderRepository) Terminate(ctx context.Context, orderID int64, effective time.Time) error")
	assert.Contains(t, repo, "func (r *OrderRepository) Delete(ctx context.Context, orderID int64) error")
	assert.Contains(t, repo, "func (r *OrderRepository) History(ctx context.Context, orderID int64) ([]bitemporal.Version[Order], error)")

	q := string(artifactOf(t, arts, KindQuery).Content)
	assert.Contains(t, q, "var OrderQuery = struct")
	assert.Regexp(t, `OrderID\s+query\.NumericField\[int64\]`, q)
	assert.Regexp(t, `Description\s+query\.StringField`, q)
	assert.Regexp(t, `Amount\s+query\.DecimalField`, q)
	assert.Contains(t, q, `query.AsOfField{`)
	assert.Contains(t, q, `"PROCESSING_THRU"`)
	assert.NotContains(t, q, "Items")
}

func TestEnhanced_ImportGroups(t *testing.T) {
	arts, err := NewEnhanced(sameDirConfig(t)).Generate(mustEntity(t, orderRaw()))
	require.NoError(t, err)
	for _, k := range []ArtifactKind{KindWrapper, KindRepository} {
		a := artifactOf(t, arts, k)
		t.Run(a.Name, func(t *testing.T) {
			content := string(a.Content)
			require.Regexp(t, `import \(\n(\t"[^".]+"\n)+\n\t"github\.com/`, content)
			std := content[:strings.Index(content, "\n\n\t\"github.com/")]
			assert.NotContains(t, std, "github.com")
		})
	}
}

func TestEnhanced_Deterministic(t *testing.T) {
	g := NewEnhanced(sameDirConfig(t, WithDDL("postgres"), WithGraphQL(true)))
	first, err := g.Generate(mustEntity(t, orderRaw()))
	require.NoError(t, err)
	second, err := g.Generate(mustEntity(t, orderRaw()))
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Path(), second[i].Path())
		assert.Equal(t, string(first[i].Content), string(second[i].Content), first[i].Name)
	}
}

func TestEnhanced_Transactional(t *testing.T) {
	arts, err := NewEnhanced(sameDirConfig(t)).Generate(mustEntity(t, countryRaw()))
	require.NoError(t, err)
	require.Len(t, arts, 1)
	wrapper := string(arts[0].Content)
	assert.Equal(t, KindWrapper, arts[0].Kind)
	assert.Contains(t, wrapper, "type Country struct")
	assert.NotContains(t, wrapper, "Business:")
	assert.NotContains(t, wrapper, "decimal")
}

func TestEnhanced_ReadOnly(t *testing.T) {
	arts, err := NewEnhanced(sameDirConfig(t)).Generate(mustEntity(t, rateRaw()))
	require.NoError(t, err)
	require.Len(t, arts, 3)

	repo := string(artifactOf(t, arts, KindRepository).Content)
	assert.Contains(t, repo, "func (r *RateRepository) FindByIDAsOf(ctx context.Context, currency string, businessDate time.Time) (*Rate, error)")
	assert.Contains(t, repo, "func (r *RateRepository) History(")
	for _, m := range []string{"Save(", "Update(", "Terminate(", "Delete(", "WithSequence("} {
		assert.NotContains(t, repo, m)
	}
}

func TestEnhanced_SeparatePackages(t *testing.T) {
	cfg, err := NewConfig(
		WithTarget("out/repo"),
		WithWrapperTarget("out/model"),
		WithWrapperImport("example.com/app/out/model"),
	)
	require.NoError(t, err)

	arts, err := NewEnhanced(cfg).Generate(mustEntity(t, orderRaw()))
	require.NoError(t, err)

	wrapper := artifactOf(t, arts, KindWrapper)
	assert.Equal(t, "out/model", wrapper.Dir)
	assert.Contains(t, string(wrapper.Content), "package model")

	repo := artifactOf(t, arts, KindRepository)
	assert.Equal(t, "out/repo", repo.Dir)
	content := string(repo.Content)
	assert.Contains(t, content, "package repo")
	assert.Contains(t, content, `"example.com/app/out/model"`)
	assert.Contains(t, content, "Save(ctx context.Context, v *model.Order) (*model.Order, error)")
	assert.Contains(t, content, "model.OrderTable, model.OrderFromRow")
}

func TestEnhanced_SchemaArtifacts(t *testing.T) {
	g := NewEnhanced(sameDirConfig(t, WithDDL("postgres"), WithGraphQL(true)))
	arts, err := g.Generate(mustEntity(t, orderRaw()))
	require.NoError(t, err)
	require.Len(t, arts, 5)
	assert.Equal(t, "order.sql", artifactOf(t, arts, KindDDL).Name)
	assert.Equal(t, "order.graphql", artifactOf(t, arts, KindGraphQL).Name)
}

func TestEnhanced_OpaqueColumn(t *testing.T) {
	raw := countryRaw()
	raw.Attributes = append(raw.Attributes, schema.RawAttribute{Name: "flag", Type: "com.example.Flag", Column: "FLAG"})
	e := mustEntity(t, raw)

	arts, err := NewEnhanced(sameDirConfig(t)).Generate(e)
	require.NoError(t, err, "opaque attributes are carried as any without DDL")
	assert.Regexp(t, `Flag\s+any`, string(arts[0].Content))

	arts, err = NewEnhanced(sameDirConfig(t, WithDDL("mysql"))).Generate(e)
	require.Error(t, err)
	assert.Nil(t, arts)
	var gerr *CodeGenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindDDL, gerr.Kind)
	assert.Equal(t, "Country", gerr.Entity)
	assert.ErrorIs(t, err, schema.ErrTypeMapping)
}

func TestView_ParamShadowing(t *testing.T) {
	raw := countryRaw()
	raw.Attributes[0].Name = "type"
	v, err := newView(mustEntity(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "typeArg", v.Keys[0].Param)
	assert.Equal(t, "Type", v.Keys[0].Name)
}

func TestEnhanced_IntIdentity(t *testing.T) {
	raw := orderRaw()
	raw.Name = "Customer"
	raw.Attributes[0].Type = "int"
	raw.Relationships = nil
	e := mustEntity(t, raw)

	for _, g := range []Generator{NewEnhanced(sameDirConfig(t)), NewLegacy(sameDirConfig(t))} {
		t.Run(g.Name(), func(t *testing.T) {
			arts, err := g.Generate(e)
			require.NoError(t, err)
			repo := string(artifactOf(t, arts, KindRepository).Content)
			assert.Contains(t, repo, "// NewCustomerRepository returns a CustomerRepository over store.")
			assert.Contains(t, repo, "c.OrderID = int32(next)")
		})
	}
}
