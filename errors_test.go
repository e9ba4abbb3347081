package chrono_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/chrono"
)

func TestDuplicateKeyError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := chrono.NewDuplicateKeyError("Order", int64(1), nil)
		assert.Equal(t, "chrono: duplicate key for Order (key=1)", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("UNIQUE constraint failed")
		err := chrono.NewDuplicateKeyError("Order", int64(1), underlying)
		assert.True(t, errors.Is(err, underlying))
		assert.Contains(t, err.Error(), "UNIQUE constraint failed")
	})

	t.Run("IsDuplicateKey", func(t *testing.T) {
		err := chrono.NewDuplicateKeyError("Order", int64(1), nil)
		assert.True(t, chrono.IsDuplicateKey(err))
		assert.True(t, chrono.IsDuplicateKey(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, chrono.IsDuplicateKey(chrono.ErrDuplicateKey))
		assert.False(t, chrono.IsDuplicateKey(errors.New("other error")))
		assert.False(t, chrono.IsDuplicateKey(nil))
	})
}

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := chrono.NewNotFoundError("Customer", nil)
		assert.Equal(t, "chrono: Customer not found", err.Error())

		err = chrono.NewNotFoundError("Customer", "C-1")
		assert.Equal(t, "chrono: Customer not found (key=C-1)", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := chrono.NewNotFoundError("Customer", "C-1")
		assert.True(t, errors.Is(err, chrono.ErrNotFound))
		assert.False(t, errors.Is(err, chrono.ErrAsOfNotFound))
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := chrono.NewNotFoundError("Customer", "C-1")
		assert.True(t, chrono.IsNotFound(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, chrono.IsNotFound(errors.New("other error")))
		assert.False(t, chrono.IsNotFound(nil))
	})
}

func TestAsOfNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := chrono.NewAsOfNotFoundError("Order", int64(7), "2024-03-01T00:00:00Z", "")
		assert.Equal(t, "chrono: Order (key=7) has no row as of business 2024-03-01T00:00:00Z", err.Error())
	})

	t.Run("IsAsOfNotFound", func(t *testing.T) {
		err := chrono.NewAsOfNotFoundError("Order", int64(7), "", "2024-03-01T00:00:00Z")
		assert.True(t, chrono.IsAsOfNotFound(err))
		assert.True(t, errors.Is(err, chrono.ErrAsOfNotFound))
		assert.False(t, chrono.IsNotFound(err))
	})
}

func TestOptimisticLockError(t *testing.T) {
	err := chrono.NewOptimisticLockError("Order", int64(3), nil)
	assert.Equal(t, "chrono: optimistic lock conflict on Order (key=3)", err.Error())
	assert.True(t, chrono.IsOptimisticLock(fmt.Errorf("retry: %w", err)))
	assert.Equal(t, "Order", err.Label())
	assert.Equal(t, int64(3), err.Key())
	assert.Nil(t, err.Unwrap())

	cause := errors.New("could not serialize access")
	err = chrono.NewOptimisticLockError("Order", int64(3), cause)
	assert.Equal(t, "chrono: optimistic lock conflict on Order (key=3): could not serialize access", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, chrono.ErrOptimisticLock)
}

func TestBackoff(t *testing.T) {
	start := time.Now()
	require.NoError(t, chrono.Backoff(context.Background(), 0))
	require.NoError(t, chrono.Backoff(context.Background(), 3))
	assert.GreaterOrEqual(t, time.Since(start), 4*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, chrono.Backoff(ctx, 40), context.Canceled)
}

func TestInvalidArgumentError(t *testing.T) {
	err := chrono.NewInvalidArgumentError("count", 0, "must be positive")
	assert.Equal(t, "chrono: invalid argument count=0: must be positive", err.Error())
	assert.True(t, chrono.IsInvalidArgument(err))
	assert.True(t, errors.Is(err, chrono.ErrInvalidArgument))
	assert.False(t, chrono.IsInvalidArgument(nil))
}

func BenchmarkErrors(b *testing.B) {
	b.Run("NewNotFoundError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = chrono.NewNotFoundError("Order", i)
		}
	})

	b.Run("IsAsOfNotFound", func(b *testing.B) {
		err := chrono.NewAsOfNotFoundError("Order", 1, "", "")
		for i := 0; i < b.N; i++ {
			_ = chrono.IsAsOfNotFound(err)
		}
	})
}
