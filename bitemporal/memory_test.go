package bitemporal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKey(t *testing.T) {
	enc := func(key ...any) string {
		s, err := encodeKey(key)
		require.NoError(t, err)
		return s
	}
	assert.Equal(t, enc(int64(7)), enc(int32(7)))
	assert.Equal(t, enc(int64(7)), enc(uint8(7)))
	assert.Equal(t, enc("a", int64(1)), enc([]byte("a"), 1))
	assert.Equal(t, enc(decimal.RequireFromString("1.50")), enc("1.5"))
	paris := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, enc(ts), enc(ts.In(paris)))
	assert.NotEqual(t, enc(int64(1), int64(2)), enc(int64(2), int64(1)))
}

func TestCompareKeys(t *testing.T) {
	assert.Negative(t, compareKeys([]any{int64(5)}, []any{int64(200)}))
	assert.Negative(t, compareKeys([]any{int64(-1)}, []any{int32(3)}))
	assert.Positive(t, compareKeys([]any{"b", 1}, []any{"a", 9}))
	assert.Zero(t, compareKeys([]any{"a", 1}, []any{"a", int64(1)}))
}
