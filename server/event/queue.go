// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-a2a/taskflow"
)

// DefaultMaxQueueSize is the default bound for event queues.
const DefaultMaxQueueSize = 1024

// EventQueue is a bounded queue of task events with support for taps: child
// queues that receive copies of all subsequently enqueued events. The queue
// has one logical producer; closing it signals end-of-stream to consumers,
// who observe the close only after draining buffered events.
type EventQueue struct {
	events  chan taskflow.Event
	maxSize int

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
	children  []*EventQueue

	logger *slog.Logger
}

// NewEventQueue creates an event queue bounded to maxSize events. A maxSize
// of zero selects DefaultMaxQueueSize.
func NewEventQueue(maxSize int) (*EventQueue, error) {
	if maxSize < 0 {
		return nil, ErrInvalidQueueSize
	}
	if maxSize == 0 {
		maxSize = DefaultMaxQueueSize
	}

	return &EventQueue{
		events:  make(chan taskflow.Event, maxSize),
		maxSize: maxSize,
		done:    make(chan struct{}),
		logger:  slog.Default(),
	}, nil
}

// Enqueue adds an event to the queue and propagates it to all taps. The
// producer never blocks on a slow tap: a tap whose buffer is full drops the
// event, which is recovered later by the tap owner's snapshot-first
// subscription contract. Returns ErrQueueClosed after Close and ErrQueueFull
// when the main buffer is exhausted.
func (q *EventQueue) Enqueue(ctx context.Context, event taskflow.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.events <- event:
	default:
		return ErrQueueFull
	}

	for _, child := range q.children {
		child.offer(event)
	}
	return nil
}

// offer delivers an event to a tap without blocking the producer.
func (q *EventQueue) offer(event taskflow.Event) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return
	}

	select {
	case q.events <- event:
	default:
		q.logger.Warn("dropping event for slow tap",
			"task_id", event.GetTaskID(),
			"kind", event.GetEventKind())
	}
}

// Dequeue retrieves the next event. With noWait set it returns ErrQueueEmpty
// immediately when nothing is buffered; otherwise it blocks until an event
// arrives, the context is canceled, or the queue is closed and drained, in
// which case it returns ErrQueueClosed.
func (q *EventQueue) Dequeue(ctx context.Context, noWait bool) (taskflow.Event, error) {
	if noWait {
		select {
		case event := <-q.events:
			return event, nil
		default:
			if q.IsClosed() {
				return nil, ErrQueueClosed
			}
			return nil, ErrQueueEmpty
		}
	}

	select {
	case event := <-q.events:
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		// Closed mid-wait; drain anything already buffered.
		select {
		case event := <-q.events:
			return event, nil
		default:
			return nil, ErrQueueClosed
		}
	}
}

// Tap creates a child queue that receives a copy of every event enqueued
// after this call. The tap shares the parent's bound and is closed when the
// parent closes.
func (q *EventQueue) Tap() (*EventQueue, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	child, err := NewEventQueue(q.maxSize)
	if err != nil {
		return nil, err
	}
	q.children = append(q.children, child)
	return child, nil
}

// Close marks the queue closed for future enqueues and propagates the close
// to all taps. Buffered events remain dequeueable; consumers observe
// ErrQueueClosed only once drained, so a final event and the close are
// always distinguishable. Close is idempotent.
func (q *EventQueue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		children := q.children
		q.mu.Unlock()

		close(q.done)
		for _, child := range children {
			_ = child.Close()
		}
	})
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *EventQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Len returns the number of buffered events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Cap returns the queue bound.
func (q *EventQueue) Cap() int {
	return q.maxSize
}
