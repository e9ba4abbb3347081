package sequence_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/chrono"
	"github.com/syssam/chrono/sequence"
)

// assertContiguous checks that the blocks are each contiguous and that
// together they cover [start, start+total) exactly once.
func assertContiguous(t *testing.T, blocks [][]int64, start int64, total int) {
	t.Helper()
	var all []int64
	for _, b := range blocks {
		for i := 1; i < len(b); i++ {
			require.Equal(t, b[i-1]+1, b[i], "block %v is not contiguous", b)
		}
		all = append(all, b...)
	}
	require.Len(t, all, total)
	slices.Sort(all)
	for i, v := range all {
		require.Equal(t, start+int64(i), v)
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		g := sequence.NewMemory()
		id, err := g.NextID(ctx, "order")
		require.NoError(t, err)
		assert.Equal(t, sequence.DefaultStart, id)
		ids, err := g.NextIDs(ctx, "order", 3)
		require.NoError(t, err)
		assert.Equal(t, []int64{1001, 1002, 1003}, ids)
		other, err := g.NextID(ctx, "customer")
		require.NoError(t, err)
		assert.Equal(t, sequence.DefaultStart, other)
	})
	t.Run("Options", func(t *testing.T) {
		g := sequence.NewMemory(sequence.WithStart(1), sequence.WithIncrement(10))
		ids, err := g.NextIDs(ctx, "s", 3)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 11, 21}, ids)
		id, err := g.NextID(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, int64(31), id)
	})
	t.Run("Reset", func(t *testing.T) {
		g := sequence.NewMemory()
		require.NoError(t, g.Reset(ctx, "s", 42))
		id, err := g.NextID(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})
	t.Run("InvalidCount", func(t *testing.T) {
		g := sequence.NewMemory()
		for _, n := range []int{0, -1} {
			_, err := g.NextIDs(ctx, "s", n)
			require.Error(t, err)
			assert.True(t, chrono.IsInvalidArgument(err))
		}
		id, err := g.NextID(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, sequence.DefaultStart, id, "failed calls must not consume values")
	})
	t.Run("Canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := sequence.NewMemory().NextID(cctx, "s")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemory_Concurrent(t *testing.T) {
	const (
		callers = 32
		k       = 25
	)
	g := sequence.NewMemory()
	blocks := make([][]int64, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := g.NextIDs(context.Background(), "order", k)
			if err != nil {
				t.Error(err)
				return
			}
			blocks[i] = ids
		}()
	}
	wg.Wait()
	assertContiguous(t, blocks, sequence.DefaultStart, callers*k)
}
