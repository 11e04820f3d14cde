package leg

import (
	"io"
	"sync"
)

// buffer is a bounded, single-producer/single-consumer FIFO byte queue.
// Unlike a buffered channel it queues variable-length []byte chunks
// without forcing them through a fixed-size ring, and reports capacity
// pressure as a level (current occupancy vs. capacity) rather than a
// blocking send — spec §3 requires that an overflowing write still be
// accepted, with the boolean result only a signal.
type buffer struct {
	mu        sync.Mutex
	cond      *sync.Cond
	chunks    [][]byte
	occupancy int64
	capacity  int64
	closed    bool
	err       error
	onDrain   func()
}

func newBuffer(capacity int64, onDrain func()) *buffer {
	b := &buffer{capacity: capacity, onDrain: onDrain}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// write enqueues chunk and reports whether post-write occupancy is still
// within capacity. On an open buffer the chunk is always queued; a false
// return means the caller should treat this Leg as Stalled, not that the
// chunk was dropped. A closed or destroyed buffer discards chunk and
// returns true.
func (b *buffer) write(chunk []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.err != nil {
		return true
	}

	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	b.chunks = append(b.chunks, cp)
	b.occupancy += int64(len(cp))
	b.cond.Signal()
	return b.occupancy <= b.capacity
}

// Read implements io.Reader, draining queued chunks in FIFO order. It
// blocks until data is available, returns io.EOF once a closed buffer has
// fully drained, or returns the destruction error once one has been set.
func (b *buffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	for len(b.chunks) == 0 && !b.closed && b.err == nil {
		b.cond.Wait()
	}

	if b.err != nil {
		err := b.err
		b.mu.Unlock()
		return 0, err
	}
	if len(b.chunks) == 0 {
		b.mu.Unlock()
		return 0, io.EOF
	}

	chunk := b.chunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		b.chunks[0] = chunk[n:]
	} else {
		b.chunks = b.chunks[1:]
	}
	b.occupancy -= int64(n)
	drained := b.occupancy == 0 && len(b.chunks) == 0
	onDrain := b.onDrain
	b.mu.Unlock()

	if drained && onDrain != nil {
		onDrain()
	}
	return n, nil
}

// closeStream marks clean end-of-stream: once queued chunks are drained,
// Read returns io.EOF.
func (b *buffer) closeStream() {
	b.mu.Lock()
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// destroy discards any queued bytes and makes every blocked and future
// Read return err immediately. The first destruction error wins.
func (b *buffer) destroy(err error) {
	b.mu.Lock()
	if b.err == nil {
		b.err = err
	}
	b.chunks = nil
	b.occupancy = 0
	b.cond.Broadcast()
	b.mu.Unlock()
}
