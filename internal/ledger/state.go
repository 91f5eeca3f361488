package ledger

import (
	"context"

	"provenance/pkg/platform/tx"
)

// record appends undo to the call's journal. Writes outside a call (constructor seeding)
// are not journaled.
func record(ctx context.Context, undo func()) {
	if j, ok := tx.JournalFrom(ctx); ok {
		j.Append(undo)
	}
}

// Map is a journaled key/value table. Reads are unsynchronized; callers hold the
// ledger lock through Execute or View.
type Map[K comparable, V any] struct {
	m map[K]V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

func (m *Map[K, V]) Get(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// Has reports whether k is present.
func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.m[k]
	return ok
}

func (m *Map[K, V]) Set(ctx context.Context, k K, v V) {
	prev, existed := m.m[k]
	m.m[k] = v
	record(ctx, func() {
		if existed {
			m.m[k] = prev
		} else {
			delete(m.m, k)
		}
	})
}

func (m *Map[K, V]) Delete(ctx context.Context, k K) {
	prev, existed := m.m[k]
	if !existed {
		return
	}
	delete(m.m, k)
	record(ctx, func() { m.m[k] = prev })
}

func (m *Map[K, V]) Len() int {
	return len(m.m)
}

// Range calls fn for every entry in unspecified order until fn returns false.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for k, v := range m.m {
		if !fn(k, v) {
			return
		}
	}
}

// Counter is a journaled monotonic sequence.
type Counter struct {
	n uint64
}

func (c *Counter) Current() uint64 {
	return c.n
}

// Next pre-increments the counter and returns the new value, so the first id is 1.
func (c *Counter) Next(ctx context.Context) uint64 {
	prev := c.n
	c.n++
	record(ctx, func() { c.n = prev })
	return c.n
}

// Set overwrites the counter (used by migrations).
func (c *Counter) Set(ctx context.Context, n uint64) {
	prev := c.n
	c.n = n
	record(ctx, func() { c.n = prev })
}

// Cell is a journaled single value.
type Cell[T any] struct {
	v T
}

func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{v: v}
}

func (c *Cell[T]) Get() T {
	return c.v
}

func (c *Cell[T]) Set(ctx context.Context, v T) {
	prev := c.v
	c.v = v
	record(ctx, func() { c.v = prev })
}
