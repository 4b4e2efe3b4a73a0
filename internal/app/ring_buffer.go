package app

// ringBuffer is a bounded FIFO that evicts its oldest value once full.
// Storage grows on demand up to max, so a large bound costs nothing until
// it is used. It is not safe for concurrent use.
type ringBuffer[T any] struct {
	buf  []T
	head int // index of the oldest value
	len  int // count of actual values
	max  int
}

func newRingBuffer[T any](max int) *ringBuffer[T] {
	return &ringBuffer[T]{max: max}
}

// add appends v, evicting the oldest value when the buffer is at max.
// Returns true if a value was evicted.
func (rb *ringBuffer[T]) add(v T) bool {
	if rb.max <= 0 {
		return false
	}

	if rb.len == rb.max {
		rb.buf[rb.head] = v
		rb.head = (rb.head + 1) % len(rb.buf)
		return true
	}

	if rb.len == len(rb.buf) {
		rb.grow()
	}
	rb.buf[(rb.head+rb.len)%len(rb.buf)] = v
	rb.len++
	return false
}

// grow doubles the backing storage, capped at max, and unwraps it so the
// oldest value sits at index zero.
func (rb *ringBuffer[T]) grow() {
	n := len(rb.buf) * 2
	if n == 0 {
		n = 16
	}
	if n > rb.max {
		n = rb.max
	}
	buf := make([]T, n)
	for i := 0; i < rb.len; i++ {
		buf[i] = rb.buf[(rb.head+i)%len(rb.buf)]
	}
	rb.buf = buf
	rb.head = 0
}

// size returns the number of buffered values.
func (rb *ringBuffer[T]) size() int {
	return rb.len
}

// detach returns the buffered values oldest first and leaves the buffer empty.
func (rb *ringBuffer[T]) detach() []T {
	out := make([]T, rb.len)
	for i := 0; i < rb.len; i++ {
		out[i] = rb.buf[(rb.head+i)%len(rb.buf)]
	}
	rb.buf = nil
	rb.head = 0
	rb.len = 0
	return out
}
