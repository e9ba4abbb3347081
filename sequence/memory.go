package sequence

import (
	"context"
	"sync"
	"sync/atomic"
)

// Memory is a Generator holding its counters in memory. Values are lost
// when the process exits.
type Memory struct {
	opts     options
	counters sync.Map // name -> *atomic.Int64 holding the next value
}

// NewMemory returns an in-memory generator.
func NewMemory(opts ...Option) *Memory {
	return &Memory{opts: newOptions(opts)}
}

func (m *Memory) counter(name string) *atomic.Int64 {
	if c, ok := m.counters.Load(name); ok {
		return c.(*atomic.Int64)
	}
	c := new(atomic.Int64)
	c.Store(m.opts.start)
	actual, _ := m.counters.LoadOrStore(name, c)
	return actual.(*atomic.Int64)
}

// NextID implements Generator.
func (m *Memory) NextID(ctx context.Context, name string) (int64, error) {
	ids, err := m.NextIDs(ctx, name, 1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// NextIDs implements Generator.
func (m *Memory) NextIDs(ctx context.Context, name string, count int) ([]int64, error) {
	if err := checkCount(count); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := int64(count) * m.opts.increment
	start := m.counter(name).Add(n) - n
	return m.opts.block(start, count), nil
}

// Reset implements Generator.
func (m *Memory) Reset(ctx context.Context, name string, value int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.counter(name).Store(value)
	return nil
}

var _ Generator = (*Memory)(nil)
