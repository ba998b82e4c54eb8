package ui

import (
	"context"
	"fmt"
	"io"
)

const defaultQueueSize = 64

// Queue hands events from the pipeline to a renderer goroutine. Emit never
// blocks; when the buffer is full the event is dropped.
type Queue struct {
	ch chan Event
}

// NewQueue returns a Queue buffering size events (64 when size <= 0).
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{ch: make(chan Event, size)}
}

// Emit enqueues e and reports whether it was accepted.
func (q *Queue) Emit(e Event) bool {
	select {
	case q.ch <- e:
		return true
	default:
		return false
	}
}

// Subscribe returns the receiving side of the queue.
func (q *Queue) Subscribe() <-chan Event {
	return q.ch
}

// Close closes the queue. Emit must not be called afterwards.
func (q *Queue) Close() {
	close(q.ch)
}

// Run writes every queued event to w until the queue is closed or ctx is
// done.
func (q *Queue) Run(ctx context.Context, w io.Writer) error {
	for {
		select {
		case e, ok := <-q.ch:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintln(w, Render(e)); err != nil {
				return fmt.Errorf("render: %w", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
