package sim

import (
	"context"
	"sync"

	"github.com/ardnew/softuvc/pkg"
	"github.com/ardnew/softuvc/stream/hal"
)

// Queue is an in-memory buffer queue implementing [hal.BufferQueue].
// Buffers carry descriptors only; no frame memory is simulated.
type Queue struct {
	mu        sync.Mutex
	bufs      []hal.Buffer
	pending   []int // indices of buffers handed to the device, FIFO
	ready     chan hal.Buffer
	streaming bool
	still     bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Allocate creates count buffers of bufferSize bytes. A zero count
// releases the existing allocation.
func (q *Queue) Allocate(count int, bufferSize uint32) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.streaming {
		return 0, pkg.ErrBusy
	}

	if count == 0 {
		q.release()
		return 0, nil
	}

	q.release()
	q.bufs = make([]hal.Buffer, count)
	for i := range q.bufs {
		q.bufs[i] = hal.Buffer{Index: i, Length: bufferSize}
	}
	q.ready = make(chan hal.Buffer, count)
	return count, nil
}

// Free releases all buffers. Fails while the queue is streaming.
func (q *Queue) Free() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.streaming {
		return pkg.ErrBusy
	}
	q.release()
	return nil
}

func (q *Queue) release() {
	q.bufs = nil
	q.pending = nil
	q.ready = nil
	q.still = false
}

// Enqueue hands a buffer to the simulated device for filling.
func (q *Queue) Enqueue(buf hal.Buffer) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if buf.Index < 0 || buf.Index >= len(q.bufs) {
		return pkg.ErrInvalidBuffer
	}
	for _, pending := range q.pending {
		if pending == buf.Index {
			return pkg.ErrInvalidBuffer
		}
	}
	q.pending = append(q.pending, buf.Index)
	return nil
}

// Dequeue returns the next filled buffer.
func (q *Queue) Dequeue(ctx context.Context, mode hal.DequeueMode) (hal.Buffer, error) {
	q.mu.Lock()
	ready := q.ready
	q.mu.Unlock()

	if ready == nil {
		return hal.Buffer{}, pkg.ErrQueueEmpty
	}

	if mode == hal.DequeueNonBlocking {
		select {
		case buf := <-ready:
			return buf, nil
		default:
			return hal.Buffer{}, pkg.ErrWouldBlock
		}
	}

	select {
	case buf := <-ready:
		return buf, nil
	case <-ctx.Done():
		return hal.Buffer{}, ctx.Err()
	}
}

// Query returns the descriptor of the buffer at index.
func (q *Queue) Query(index int) (hal.Buffer, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.bufs) {
		return hal.Buffer{}, pkg.ErrInvalidBuffer
	}
	return q.bufs[index], nil
}

// Enable starts or stops queue streaming.
func (q *Queue) Enable(streaming bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if streaming {
		if len(q.bufs) == 0 {
			return pkg.ErrQueueEmpty
		}
		if q.streaming {
			return pkg.ErrBusy
		}
	}
	q.streaming = streaming
	return nil
}

// MarkStill tags all allocated buffers as still-pipeline buffers.
func (q *Queue) MarkStill() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.still = true
	for i := range q.bufs {
		q.bufs[i].Still = true
	}
}

// Allocated reports whether the queue has buffers.
func (q *Queue) Allocated() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.bufs) > 0
}

// Streaming reports whether the queue is streaming.
func (q *Queue) Streaming() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.streaming
}

// Complete simulates the device filling the oldest pending buffer with
// bytesUsed bytes of payload. It reports whether a buffer was pending.
func (q *Queue) Complete(bytesUsed uint32) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 || q.ready == nil {
		return false
	}

	index := q.pending[0]
	q.pending = q.pending[1:]

	buf := q.bufs[index]
	buf.BytesUsed = bytesUsed
	buf.Still = q.still

	// Pending indices are unique and capacity equals the allocation
	// size, so this never blocks.
	q.ready <- buf
	return true
}
