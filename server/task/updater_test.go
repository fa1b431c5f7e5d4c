// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"testing"

	"github.com/go-a2a/taskflow"
	"github.com/go-a2a/taskflow/server/event"
)

func newTestUpdater(t *testing.T) (TaskUpdater, *event.EventQueue) {
	t.Helper()

	queue, err := event.NewEventQueue(event.DefaultMaxQueueSize)
	if err != nil {
		t.Fatalf("NewEventQueue() error = %v", err)
	}
	t.Cleanup(func() { queue.Close() })

	updater, err := NewTaskUpdater(TaskUpdaterConfig{
		TaskID:    "task-1",
		ContextID: "ctx-1",
		Queue:     queue,
	})
	if err != nil {
		t.Fatalf("NewTaskUpdater() error = %v", err)
	}
	return updater, queue
}

func dequeueStatus(t *testing.T, queue *event.EventQueue) *taskflow.TaskStatusUpdateEvent {
	t.Helper()

	ev, err := queue.Dequeue(context.Background(), true)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	statusEv, ok := ev.(*taskflow.TaskStatusUpdateEvent)
	if !ok {
		t.Fatalf("dequeued %T, want *taskflow.TaskStatusUpdateEvent", ev)
	}
	return statusEv
}

func TestTaskUpdater_StartWork(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	updater, queue := newTestUpdater(t)

	if err := updater.StartWork(ctx, updater.NewAgentMessage("on it")); err != nil {
		t.Fatalf("StartWork() error = %v", err)
	}

	got := dequeueStatus(t, queue)
	if got.TaskID != "task-1" || got.ContextID != "ctx-1" {
		t.Errorf("event ids = %s/%s, want task-1/ctx-1", got.TaskID, got.ContextID)
	}
	if got.Status.State != taskflow.TaskStateWorking {
		t.Errorf("state = %q, want %q", got.Status.State, taskflow.TaskStateWorking)
	}
	if got.Final {
		t.Error("StartWork() must not end the stream")
	}
	if got.Status.Timestamp == "" {
		t.Error("status timestamp not stamped")
	}
	if got.Status.Message.TaskID != "task-1" {
		t.Errorf("status message task id = %q, want task-1", got.Status.Message.TaskID)
	}
	if updater.IsFinal() {
		t.Error("IsFinal() = true after a non-final update")
	}
}

func TestTaskUpdater_FinalTransitions(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		publish   func(ctx context.Context, u TaskUpdater) error
		wantState taskflow.TaskState
	}{
		"complete": {
			publish:   func(ctx context.Context, u TaskUpdater) error { return u.Complete(ctx, nil) },
			wantState: taskflow.TaskStateCompleted,
		},
		"failed": {
			publish:   func(ctx context.Context, u TaskUpdater) error { return u.Failed(ctx, nil) },
			wantState: taskflow.TaskStateFailed,
		},
		"reject": {
			publish:   func(ctx context.Context, u TaskUpdater) error { return u.Reject(ctx, nil) },
			wantState: taskflow.TaskStateRejected,
		},
		"cancel": {
			publish:   func(ctx context.Context, u TaskUpdater) error { return u.Cancel(ctx, nil) },
			wantState: taskflow.TaskStateCanceled,
		},
		"requires input": {
			publish:   func(ctx context.Context, u TaskUpdater) error { return u.RequiresInput(ctx, nil) },
			wantState: taskflow.TaskStateInputRequired,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			updater, queue := newTestUpdater(t)

			if err := tt.publish(ctx, updater); err != nil {
				t.Fatalf("publish error = %v", err)
			}

			got := dequeueStatus(t, queue)
			if got.Status.State != tt.wantState {
				t.Errorf("state = %q, want %q", got.Status.State, tt.wantState)
			}
			if !got.Final {
				t.Error("event should end the stream")
			}
			if !updater.IsFinal() {
				t.Error("IsFinal() = false after a final update")
			}

			// No further updates once the stream ended.
			if err := updater.StartWork(ctx, nil); err == nil {
				t.Error("StartWork() after a final event should fail")
			}
			if err := updater.AddArtifact(ctx, taskflow.NewTextArtifact("late", "x"), false, false); err == nil {
				t.Error("AddArtifact() after a final event should fail")
			}
		})
	}
}

func TestTaskUpdater_AddArtifact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	updater, queue := newTestUpdater(t)

	artifact := taskflow.NewTextArtifact("report", "chunk one")
	if err := updater.AddArtifact(ctx, artifact, false, false); err != nil {
		t.Fatalf("AddArtifact() error = %v", err)
	}
	if err := updater.AddArtifact(ctx, artifact, true, true); err != nil {
		t.Fatalf("AddArtifact(append) error = %v", err)
	}

	ev, err := queue.Dequeue(ctx, true)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	first, ok := ev.(*taskflow.TaskArtifactUpdateEvent)
	if !ok {
		t.Fatalf("dequeued %T, want *taskflow.TaskArtifactUpdateEvent", ev)
	}
	if first.TaskID != "task-1" || first.Append || first.LastChunk {
		t.Errorf("first chunk flags = append:%v last:%v, want neither", first.Append, first.LastChunk)
	}

	// Published artifacts are copies; the caller's artifact stays theirs.
	first.Artifact.Parts[0].Text = "mutated"
	if artifact.Parts[0].Text != "chunk one" {
		t.Error("published artifact aliases the caller's artifact")
	}

	ev, err = queue.Dequeue(ctx, true)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	second := ev.(*taskflow.TaskArtifactUpdateEvent)
	if !second.Append || !second.LastChunk {
		t.Errorf("second chunk flags = append:%v last:%v, want both", second.Append, second.LastChunk)
	}
}

func TestTaskUpdater_InvalidInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	updater, _ := newTestUpdater(t)

	if err := updater.UpdateStatus(ctx, "bogus", nil, false); err == nil {
		t.Error("UpdateStatus() accepted an invalid state")
	}
	if err := updater.AddArtifact(ctx, nil, false, false); err == nil {
		t.Error("AddArtifact() accepted a nil artifact")
	}
}

func TestNewTaskUpdater_Validation(t *testing.T) {
	t.Parallel()

	queue, err := event.NewEventQueue(event.DefaultMaxQueueSize)
	if err != nil {
		t.Fatalf("NewEventQueue() error = %v", err)
	}
	t.Cleanup(func() { queue.Close() })

	tests := map[string]TaskUpdaterConfig{
		"missing task id":    {ContextID: "ctx-1", Queue: queue},
		"missing context id": {TaskID: "task-1", Queue: queue},
		"missing queue":      {TaskID: "task-1", ContextID: "ctx-1"},
	}

	for name, config := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewTaskUpdater(config); err == nil {
				t.Error("NewTaskUpdater() accepted an invalid config")
			}
		})
	}
}
