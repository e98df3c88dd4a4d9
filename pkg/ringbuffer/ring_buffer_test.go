package ringbuffer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, count int) []float32 {
	r := make([]float32, count)
	for i := range r {
		r[i] = float32(from + i)
	}
	return r
}

func TestRingBuffer(t *testing.T) {
	t.Run("PushGetPop", func(t *testing.T) {
		b := New(8)
		b.Push(seq(0, 5))
		require.Equal(t, int64(0), b.Head())
		require.Equal(t, int64(5), b.Tail())
		require.Equal(t, 5, b.Size())
		require.Equal(t, seq(1, 3), b.Get(1, 3))

		b.Pop(4)
		require.Equal(t, int64(4), b.Head())
		require.Equal(t, 1, b.Size())

		// wraps around the storage
		b.Push(seq(5, 7))
		require.Equal(t, 8, b.Size())
		require.Equal(t, int64(12), b.Tail())
		require.Equal(t, seq(4, 8), b.Get(4, 8))
		require.Equal(t, seq(9, 3), b.Get(9, 3))
	})

	t.Run("EmptyGetAtBounds", func(t *testing.T) {
		b := New(4)
		b.Push(seq(0, 4))
		b.Pop(4)
		assert.Empty(t, b.Get(b.Tail(), 0))
		assert.Equal(t, 4, b.Free())
	})

	t.Run("Overflow", func(t *testing.T) {
		b := New(4)
		b.Push(seq(0, 3))
		require.Panics(t, func() { b.Push(seq(3, 2)) })
	})

	t.Run("OutOfRange", func(t *testing.T) {
		b := New(4)
		b.Push(seq(0, 4))
		b.Pop(2)
		require.Panics(t, func() { b.Get(1, 1) })
		require.Panics(t, func() { b.Get(2, 3) })
		require.Panics(t, func() { b.Get(2, -1) })
		require.Panics(t, func() { b.Pop(3) })
		require.NotPanics(t, func() { b.Get(2, 2) })
	})

	t.Run("Reset", func(t *testing.T) {
		b := New(4)
		b.Push(seq(0, 3))
		b.Pop(1)
		b.Reset()
		require.Equal(t, int64(0), b.Head())
		require.Equal(t, int64(0), b.Tail())
		b.Push(seq(10, 4))
		require.Equal(t, seq(10, 4), b.Get(0, 4))
	})
}

func TestRingBufferRandomized(t *testing.T) {
	const capacity = 37
	r := rand.New(rand.NewSource(0))
	b := New(capacity)
	var next int
	for i := 0; i < 10000; i++ {
		if push := r.Intn(b.Free() + 1); push > 0 {
			b.Push(seq(next, push))
			next += push
		}
		require.LessOrEqual(t, b.Size(), capacity)
		require.Equal(t, int64(next), b.Tail())

		if b.Size() > 0 {
			start := b.Head() + int64(r.Intn(b.Size()))
			length := r.Intn(int(b.Tail()-start) + 1)
			require.Equal(t, seq(int(start), length), b.Get(start, length))
		}

		b.Pop(r.Intn(b.Size() + 1))
	}
}
