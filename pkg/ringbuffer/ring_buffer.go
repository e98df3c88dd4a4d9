// Package ringbuffer implements a fixed-capacity circular storage of audio
// samples addressed by absolute sample indices.
//
// An absolute index of a sample never changes while the sample is stored,
// so a caller may remember a position (for example the beginning of a speech
// segment) across any amount of Push and Pop calls.
package ringbuffer

import (
	"fmt"
)

type RingBuffer struct {
	storage []float32

	// head is the absolute index of the oldest stored sample.
	head int64
	// tail is the absolute index right after the newest stored sample.
	tail int64
}

func New(capacity int) *RingBuffer {
	if capacity <= 0 {
		panic(fmt.Errorf("the capacity must be positive, but it is %d", capacity))
	}
	return &RingBuffer{
		storage: make([]float32, capacity),
	}
}

func (b *RingBuffer) Capacity() int {
	return len(b.storage)
}

func (b *RingBuffer) Head() int64 {
	return b.head
}

func (b *RingBuffer) Tail() int64 {
	return b.tail
}

func (b *RingBuffer) Size() int {
	return int(b.tail - b.head)
}

// Free returns how many samples could be pushed before the buffer is full.
func (b *RingBuffer) Free() int {
	return b.Capacity() - b.Size()
}

// Push appends samples to the tail.
//
// The buffer never evicts stored samples: pushing more than Free() samples
// is a bug of the caller and panics.
func (b *RingBuffer) Push(samples []float32) {
	if len(samples) > b.Free() {
		panic(fmt.Errorf("buffer overflow: pushing %d samples, while only %d of %d are free", len(samples), b.Free(), b.Capacity()))
	}

	for len(samples) > 0 {
		pos := b.slot(b.tail)
		n := copy(b.storage[pos:], samples)
		samples = samples[n:]
		b.tail += int64(n)
	}
}

// Pop discards the oldest count samples.
func (b *RingBuffer) Pop(count int) {
	if count < 0 || count > b.Size() {
		panic(fmt.Errorf("unable to pop %d samples, the buffer contains %d", count, b.Size()))
	}
	b.head += int64(count)
}

// Get returns a copy of the samples [start, start+length).
//
// The requested range must be within [Head(), Tail()], otherwise it panics.
func (b *RingBuffer) Get(start int64, length int) []float32 {
	if start < b.head || length < 0 || start+int64(length) > b.tail {
		panic(fmt.Errorf("out of range access: [%d, %d) is not within [%d, %d)", start, start+int64(length), b.head, b.tail))
	}

	result := make([]float32, length)
	out := result
	for len(out) > 0 {
		pos := b.slot(start)
		end := min(len(b.storage), pos+len(out))
		n := copy(out, b.storage[pos:end])
		out = out[n:]
		start += int64(n)
	}
	return result
}

// Reset empties the buffer and rebases the indices to zero.
func (b *RingBuffer) Reset() {
	b.head = 0
	b.tail = 0
}

func (b *RingBuffer) slot(idx int64) int {
	return int(idx % int64(len(b.storage)))
}
