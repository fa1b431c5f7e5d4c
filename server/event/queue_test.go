// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/taskflow"
)

func statusEvent(taskID string, state taskflow.TaskState, final bool) *taskflow.TaskStatusUpdateEvent {
	return &taskflow.TaskStatusUpdateEvent{
		Kind:   taskflow.KindStatusUpdate,
		TaskID: taskID,
		Status: taskflow.TaskStatus{State: state},
		Final:  final,
	}
}

func TestNewEventQueue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		maxSize int
		wantCap int
		wantErr error
	}{
		"default size":  {maxSize: 0, wantCap: DefaultMaxQueueSize},
		"custom size":   {maxSize: 16, wantCap: 16},
		"negative size": {maxSize: -1, wantErr: ErrInvalidQueueSize},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			queue, err := NewEventQueue(tt.maxSize)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewEventQueue() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if queue.Cap() != tt.wantCap {
				t.Errorf("Cap() = %d, want %d", queue.Cap(), tt.wantCap)
			}
		})
	}
}

func TestEventQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue, err := NewEventQueue(8)
	if err != nil {
		t.Fatal(err)
	}

	want := statusEvent("task-1", taskflow.TaskStateWorking, false)
	if err := queue.Enqueue(ctx, want); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	got, err := queue.Dequeue(ctx, false)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Dequeue() mismatch (-want +got):\n%s", diff)
	}
}

func TestEventQueueOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue, err := NewEventQueue(8)
	if err != nil {
		t.Fatal(err)
	}

	states := []taskflow.TaskState{
		taskflow.TaskStateSubmitted,
		taskflow.TaskStateWorking,
		taskflow.TaskStateCompleted,
	}
	for _, state := range states {
		if err := queue.Enqueue(ctx, statusEvent("task-1", state, false)); err != nil {
			t.Fatal(err)
		}
	}

	for i, want := range states {
		event, err := queue.Dequeue(ctx, true)
		if err != nil {
			t.Fatalf("Dequeue() #%d error = %v", i, err)
		}
		got := event.(*taskflow.TaskStatusUpdateEvent).Status.State
		if got != want {
			t.Errorf("Dequeue() #%d state = %q, want %q", i, got, want)
		}
	}
}

func TestEventQueueNoWait(t *testing.T) {
	t.Parallel()

	queue, err := NewEventQueue(4)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := queue.Dequeue(context.Background(), true); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Dequeue(noWait) on empty queue error = %v, want %v", err, ErrQueueEmpty)
	}
}

func TestEventQueueFull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue, err := NewEventQueue(1)
	if err != nil {
		t.Fatal(err)
	}

	if err := queue.Enqueue(ctx, statusEvent("t", taskflow.TaskStateWorking, false)); err != nil {
		t.Fatal(err)
	}
	if err := queue.Enqueue(ctx, statusEvent("t", taskflow.TaskStateWorking, false)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue() on full queue error = %v, want %v", err, ErrQueueFull)
	}
}

func TestEventQueueCloseDrains(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue, err := NewEventQueue(4)
	if err != nil {
		t.Fatal(err)
	}

	final := statusEvent("task-1", taskflow.TaskStateCompleted, true)
	if err := queue.Enqueue(ctx, final); err != nil {
		t.Fatal(err)
	}
	if err := queue.Close(); err != nil {
		t.Fatal(err)
	}

	// The buffered final event must still be deliverable after close.
	event, err := queue.Dequeue(ctx, false)
	if err != nil {
		t.Fatalf("Dequeue() after close error = %v", err)
	}
	if !taskflow.IsFinalEvent(event) {
		t.Error("Dequeue() after close did not return the final event")
	}

	// Only the drained queue reports closed to consumers.
	if _, err := queue.Dequeue(ctx, false); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Dequeue() on drained closed queue error = %v, want %v", err, ErrQueueClosed)
	}

	if err := queue.Enqueue(ctx, final); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue() after close error = %v, want %v", err, ErrQueueClosed)
	}
}

func TestEventQueueCloseUnblocksWaiters(t *testing.T) {
	t.Parallel()

	queue, err := NewEventQueue(4)
	if err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := queue.Dequeue(context.Background(), false)
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := queue.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("blocked Dequeue() error after close = %v, want %v", err, ErrQueueClosed)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue() still blocked after Close()")
	}
}

func TestEventQueueTap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue, err := NewEventQueue(8)
	if err != nil {
		t.Fatal(err)
	}

	// Events enqueued before the tap are not replayed into it.
	early := statusEvent("task-1", taskflow.TaskStateSubmitted, false)
	if err := queue.Enqueue(ctx, early); err != nil {
		t.Fatal(err)
	}

	tap, err := queue.Tap()
	if err != nil {
		t.Fatalf("Tap() error = %v", err)
	}

	late := statusEvent("task-1", taskflow.TaskStateWorking, false)
	if err := queue.Enqueue(ctx, late); err != nil {
		t.Fatal(err)
	}

	got, err := tap.Dequeue(ctx, true)
	if err != nil {
		t.Fatalf("tap Dequeue() error = %v", err)
	}
	if diff := cmp.Diff(late, got); diff != "" {
		t.Errorf("tap received wrong event (-want +got):\n%s", diff)
	}
	if _, err := tap.Dequeue(ctx, true); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("tap received pre-tap event, want empty queue (err = %v)", err)
	}

	// Close propagates to taps.
	if err := queue.Close(); err != nil {
		t.Fatal(err)
	}
	if !tap.IsClosed() {
		t.Error("tap not closed after parent Close()")
	}

	if _, err := queue.Tap(); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Tap() on closed queue error = %v, want %v", err, ErrQueueClosed)
	}
}

func TestEventQueueSlowTapDoesNotBlockProducer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue, err := NewEventQueue(8)
	if err != nil {
		t.Fatal(err)
	}

	tap, err := queue.Tap()
	if err != nil {
		t.Fatal(err)
	}
	_ = tap // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 8 {
			event, err := queue.Dequeue(ctx, false)
			if err != nil {
				t.Errorf("Dequeue() error = %v", err)
				return
			}
			_ = event
		}
	}()

	// More events than the tap buffer holds; the producer must not block.
	for range 8 {
		if err := queue.Enqueue(ctx, statusEvent("t", taskflow.TaskStateWorking, false)); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer/consumer blocked by undrained tap")
	}
}
