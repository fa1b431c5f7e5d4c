// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-a2a/taskflow"
)

// FoldResult pairs a fold's output snapshot with the event that produced
// it. Subscribers always receive the snapshot and the event together, so an
// observer never sees an event without the store state that firmed it up.
type FoldResult struct {
	// Task is the snapshot after the fold was persisted.
	Task *taskflow.Task

	// Event is the event that was folded. For a subscriber's synthetic
	// first delivery it is the snapshot itself.
	Event taskflow.Event
}

// ResultAggregator consumes one task's event stream, folds each event
// through a TaskManager, and fans the (snapshot, event) pairs out to the
// delivery adapters: the blocking caller, any number of streaming
// subscribers, and the webhook push sender. Exactly one consumption method
// drives the stream; subscribers attach and detach freely while it runs.
type ResultAggregator struct {
	manager    *TaskManager
	pushSender PushSender
	bufferSize int
	logger     *slog.Logger

	mu      sync.Mutex
	subs    map[int]chan FoldResult
	nextSub int
	ended   bool
}

// ResultAggregatorConfig holds configuration for creating a
// ResultAggregator.
type ResultAggregatorConfig struct {
	Manager *TaskManager

	// PushSender, when set, receives every fold's snapshot for best-effort
	// webhook delivery. Sends never block the fold path.
	PushSender PushSender

	// BufferSize is the per-subscriber channel buffer. Zero selects a
	// default of 256.
	BufferSize int

	Logger *slog.Logger
}

// NewResultAggregator creates a ResultAggregator with the given
// configuration.
func NewResultAggregator(config ResultAggregatorConfig) (*ResultAggregator, error) {
	if config.Manager == nil {
		return nil, fmt.Errorf("task manager cannot be nil")
	}
	bufferSize := config.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ResultAggregator{
		manager:    config.Manager,
		pushSender: config.PushSender,
		bufferSize: bufferSize,
		logger:     logger,
		subs:       make(map[int]chan FoldResult),
	}, nil
}

// Manager returns the underlying task manager.
func (r *ResultAggregator) Manager() *TaskManager { return r.manager }

// Subscribe attaches a streaming consumer. Its first delivery is the
// current snapshot (never a diff), satisfying the snapshot-first contract
// that makes resubscription correct; subsequent deliveries are live folds in
// fold order. The channel closes when the stream ends or cancel is called.
// If the stream has already ended, the returned channel delivers the final
// snapshot and closes.
func (r *ResultAggregator) Subscribe(ctx context.Context) (<-chan FoldResult, func()) {
	ch := make(chan FoldResult, r.bufferSize+1)

	r.mu.Lock()
	defer r.mu.Unlock()

	if snapshot, err := r.manager.GetTask(ctx); err == nil {
		ch <- FoldResult{Task: snapshot, Event: snapshot}
	}

	if r.ended {
		close(ch)
		return ch, func() {}
	}

	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// ConsumeAll drives the stream to its end and returns the final snapshot.
// It returns when a final event is folded or the queue closes. If the
// context is canceled first, the remainder of the stream is drained in the
// background and the context error is returned. This is the blocking
// delivery adapter's run-to-terminal mode.
func (r *ResultAggregator) ConsumeAll(ctx context.Context, queue EventSource) (*taskflow.Task, error) {
	for {
		event, err := queue.Dequeue(ctx, false)
		if err != nil {
			if ctx.Err() != nil {
				// The caller went away mid-stream but the producer may still
				// be publishing. Hand the queue to a detached drain so every
				// remaining fold persists and the task reaches its boundary.
				r.ContinueConsuming(context.WithoutCancel(ctx), queue)
				return nil, ctx.Err()
			}
			// Queue closed; the stream is over.
			r.finish()
			task, taskErr := r.manager.GetTask(ctx)
			if taskErr != nil {
				return nil, err
			}
			return task, nil
		}

		task, done, err := r.processOne(ctx, event)
		if err != nil {
			r.finish()
			return nil, err
		}
		if done {
			r.finish()
			return task, nil
		}
	}
}

// ConsumeAndBreakOnInterrupt drives the stream until the task pauses at a
// terminal or input-required boundary and returns the snapshot there. When
// interrupted mid-stream (the boundary was input-required but the producer
// keeps running, or the caller wants the remainder drained for push
// delivery), the caller hands the queue to ContinueConsuming.
func (r *ResultAggregator) ConsumeAndBreakOnInterrupt(ctx context.Context, queue EventSource) (*taskflow.Task, bool, error) {
	for {
		event, err := queue.Dequeue(ctx, false)
		if err != nil {
			if ctx.Err() != nil {
				r.ContinueConsuming(context.WithoutCancel(ctx), queue)
				return nil, false, ctx.Err()
			}
			r.finish()
			task, taskErr := r.manager.GetTask(ctx)
			if taskErr != nil {
				return nil, false, err
			}
			return task, false, nil
		}

		task, done, err := r.processOne(ctx, event)
		if err != nil {
			r.finish()
			return nil, false, err
		}
		if done {
			r.finish()
			return task, false, nil
		}
		if task != nil && task.Status.State.Interrupted() {
			return task, true, nil
		}
	}
}

// ContinueConsuming drains the remainder of an interrupted stream in the
// background so that folds keep persisting and push deliveries keep flowing
// after the blocking caller has returned.
func (r *ResultAggregator) ContinueConsuming(ctx context.Context, queue EventSource) {
	go func() {
		for {
			event, err := queue.Dequeue(ctx, false)
			if err != nil {
				r.finish()
				return
			}
			_, done, err := r.processOne(ctx, event)
			if err != nil {
				r.logger.Error("background fold failed",
					"task_id", r.manager.TaskID(),
					"error", err)
				r.finish()
				return
			}
			if done {
				r.finish()
				return
			}
		}
	}()
}

// ConsumeAndEmit drives the stream and emits every fold on the returned
// channel in fold order. The channel closes when the stream ends, or when
// the consumer's context is canceled, in which case the remaining folds
// persist in the background. This is the streaming delivery adapter's
// primary mode; unlike Subscribe taps, the primary channel applies
// backpressure to the fold loop rather than dropping.
func (r *ResultAggregator) ConsumeAndEmit(ctx context.Context, queue EventSource) <-chan FoldResult {
	out := make(chan FoldResult, r.bufferSize)

	go func() {
		defer close(out)
		for {
			event, err := queue.Dequeue(ctx, false)
			if err != nil {
				if ctx.Err() != nil {
					// A dropped stream must not stall the state machine;
					// keep folding detached until the producer is done.
					r.ContinueConsuming(context.WithoutCancel(ctx), queue)
					return
				}
				r.finish()
				return
			}

			task, done, err := r.processOne(ctx, event)
			if err != nil {
				r.logger.Error("fold failed",
					"task_id", r.manager.TaskID(),
					"error", err)
				r.finish()
				return
			}

			select {
			case out <- FoldResult{Task: task, Event: event}:
			case <-ctx.Done():
				if done {
					r.finish()
					return
				}
				r.ContinueConsuming(context.WithoutCancel(ctx), queue)
				return
			}

			if done {
				r.finish()
				return
			}
		}
	}()
	return out
}

// processOne folds one event, dispatches push delivery, and broadcasts the
// fold to subscribers. done reports whether the event ended the stream.
func (r *ResultAggregator) processOne(ctx context.Context, event taskflow.Event) (*taskflow.Task, bool, error) {
	task, err := r.manager.Process(ctx, event)
	if err != nil {
		return nil, false, err
	}

	if r.pushSender != nil && task != nil {
		// Fire-and-forget relative to the fold; the sender logs its own
		// delivery faults.
		snapshot := task
		go func() {
			if err := r.pushSender.SendTaskUpdate(context.WithoutCancel(ctx), snapshot); err != nil {
				r.logger.Warn("push delivery failed",
					"task_id", snapshot.ID,
					"error", err)
			}
		}()
	}

	r.broadcast(FoldResult{Task: task, Event: event})
	return task, taskflow.IsFinalEvent(event), nil
}

// broadcast forwards a fold to every subscriber without blocking; a
// subscriber that cannot keep up loses the event and recovers on its next
// snapshot-first attach.
func (r *ResultAggregator) broadcast(result FoldResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sub := range r.subs {
		select {
		case sub <- result:
		default:
			r.logger.Warn("dropping fold for slow subscriber",
				"task_id", r.manager.TaskID(),
				"subscriber", id)
		}
	}
}

// finish marks the stream ended and closes all subscriber channels.
func (r *ResultAggregator) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ended {
		return
	}
	r.ended = true
	for id, sub := range r.subs {
		delete(r.subs, id)
		close(sub)
	}
}

// Ended reports whether the aggregator's stream has ended.
func (r *ResultAggregator) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// EventSource is the dequeue side of an event queue, satisfied by
// *event.EventQueue. It is an interface here so the aggregator can be
// driven from tests without a real queue.
type EventSource interface {
	Dequeue(ctx context.Context, noWait bool) (taskflow.Event, error)
}
