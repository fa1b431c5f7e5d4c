// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"errors"
	"testing"
)

func TestTaskStateTerminal(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		state TaskState
		want  bool
	}{
		"submitted":      {TaskStateSubmitted, false},
		"working":        {TaskStateWorking, false},
		"input-required": {TaskStateInputRequired, false},
		"completed":      {TaskStateCompleted, true},
		"failed":         {TaskStateFailed, true},
		"rejected":       {TaskStateRejected, true},
		"canceled":       {TaskStateCanceled, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tt.state.Terminal(); got != tt.want {
				t.Errorf("TaskState(%q).Terminal() = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}

func TestTaskStateCanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		from TaskState
		to   TaskState
		want bool
	}{
		"submitted to working":          {TaskStateSubmitted, TaskStateWorking, true},
		"submitted to rejected":         {TaskStateSubmitted, TaskStateRejected, true},
		"working to working":            {TaskStateWorking, TaskStateWorking, true},
		"working to input-required":     {TaskStateWorking, TaskStateInputRequired, true},
		"working to completed":          {TaskStateWorking, TaskStateCompleted, true},
		"working to submitted":          {TaskStateWorking, TaskStateSubmitted, false},
		"input-required to working":     {TaskStateInputRequired, TaskStateWorking, true},
		"input-required to canceled":    {TaskStateInputRequired, TaskStateCanceled, true},
		"completed to working":          {TaskStateCompleted, TaskStateWorking, false},
		"canceled to canceled":          {TaskStateCanceled, TaskStateCanceled, false},
		"failed to completed":           {TaskStateFailed, TaskStateCompleted, false},
		"working to unknown state":      {TaskStateWorking, TaskState("paused"), false},
		"submitted to input-required":   {TaskStateSubmitted, TaskStateInputRequired, true},
		"input-required to submitted":   {TaskStateInputRequired, TaskStateSubmitted, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("generates ids", func(t *testing.T) {
		t.Parallel()

		msg := NewUserMessage("hello")
		task, err := NewTask(msg)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}

		if task.ID == "" {
			t.Error("NewTask() did not assign a task id")
		}
		if task.ContextID == "" {
			t.Error("NewTask() did not assign a context id")
		}
		if task.Status.State != TaskStateSubmitted {
			t.Errorf("NewTask() state = %q, want %q", task.Status.State, TaskStateSubmitted)
		}
		if len(task.History) != 1 {
			t.Fatalf("NewTask() history length = %d, want 1", len(task.History))
		}
		if task.History[0].TaskID != task.ID {
			t.Error("NewTask() did not bind the message to the task")
		}
	})

	t.Run("keeps supplied ids", func(t *testing.T) {
		t.Parallel()

		msg := NewUserMessage("hello")
		msg.TaskID = "task-1"
		msg.ContextID = "ctx-1"

		task, err := NewTask(msg)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		if task.ID != "task-1" || task.ContextID != "ctx-1" {
			t.Errorf("NewTask() ids = (%q, %q), want (task-1, ctx-1)", task.ID, task.ContextID)
		}
	})

	t.Run("rejects empty message", func(t *testing.T) {
		t.Parallel()

		if _, err := NewTask(&Message{}); err == nil {
			t.Error("NewTask() with invalid message expected error, got nil")
		}
	})
}

func TestTaskClone(t *testing.T) {
	t.Parallel()

	task := &Task{
		ID:        "task-1",
		ContextID: "ctx-1",
		Kind:      KindTask,
		Status:    TaskStatus{State: TaskStateWorking},
		History:   []*Message{NewUserMessage("hi")},
		Artifacts: []*Artifact{NewTextArtifact("out.txt", "payload")},
		Metadata:  map[string]any{"k": "v"},
	}

	clone := task.Clone()

	clone.History[0].Parts[0].Text = "mutated"
	clone.Artifacts[0].Parts = append(clone.Artifacts[0].Parts, NewTextPart("extra"))
	clone.Metadata["k"] = "mutated"

	if task.History[0].Parts[0].Text != "hi" {
		t.Error("Clone() aliases history parts")
	}
	if len(task.Artifacts[0].Parts) != 1 {
		t.Error("Clone() aliases artifact parts")
	}
	if task.Metadata["k"] != "v" {
		t.Error("Clone() aliases metadata")
	}
}

func TestTaskWithHistoryLength(t *testing.T) {
	t.Parallel()

	task := &Task{
		ID:        "task-1",
		ContextID: "ctx-1",
		Kind:      KindTask,
		Status:    TaskStatus{State: TaskStateWorking},
		History: []*Message{
			NewUserMessage("one"),
			NewUserMessage("two"),
			NewUserMessage("three"),
		},
	}

	tests := map[string]struct {
		length  int
		wantLen int
		first   string
	}{
		"unlimited":        {0, 3, "one"},
		"last two":         {2, 2, "two"},
		"longer than have": {10, 3, "one"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := task.WithHistoryLength(tt.length)
			if len(got.History) != tt.wantLen {
				t.Fatalf("WithHistoryLength(%d) length = %d, want %d", tt.length, len(got.History), tt.wantLen)
			}
			if got.History[0].Text() != tt.first {
				t.Errorf("WithHistoryLength(%d) first = %q, want %q", tt.length, got.History[0].Text(), tt.first)
			}
		})
	}

	// The stored history must never shrink from a truncation view.
	if len(task.History) != 3 {
		t.Errorf("stored history length = %d after truncation views, want 3", len(task.History))
	}
}

func TestIsFinalEvent(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		event Event
		want  bool
	}{
		"working status": {
			event: &TaskStatusUpdateEvent{TaskID: "t", Status: TaskStatus{State: TaskStateWorking}},
			want:  false,
		},
		"final status": {
			event: &TaskStatusUpdateEvent{TaskID: "t", Status: TaskStatus{State: TaskStateCompleted}, Final: true},
			want:  true,
		},
		"message": {
			event: NewUserMessage("hi"),
			want:  true,
		},
		"working snapshot": {
			event: &Task{ID: "t", ContextID: "c", Status: TaskStatus{State: TaskStateWorking}},
			want:  false,
		},
		"terminal snapshot": {
			event: &Task{ID: "t", ContextID: "c", Status: TaskStatus{State: TaskStateFailed}},
			want:  true,
		},
		"input-required snapshot": {
			event: &Task{ID: "t", ContextID: "c", Status: TaskStatus{State: TaskStateInputRequired}},
			want:  true,
		},
		"artifact update": {
			event: &TaskArtifactUpdateEvent{TaskID: "t", Artifact: NewTextArtifact("a", "x")},
			want:  false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := IsFinalEvent(tt.event); got != tt.want {
				t.Errorf("IsFinalEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageText(t *testing.T) {
	t.Parallel()

	msg := &Message{
		Kind:      KindMessage,
		MessageID: "m1",
		Role:      RoleAgent,
		Parts: []Part{
			NewTextPart("first"),
			NewDataPart(map[string]any{"x": 1}),
			NewTextPart("second"),
		},
	}

	if got, want := msg.Text(), "first\nsecond"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestExecutionErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("model backend unavailable")
	err := ExecutionError{TaskID: "task-1", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("ExecutionError does not unwrap to its cause")
	}
	if got, want := err.Error(), "execution failed for task task-1: model backend unavailable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Code() != ErrorCodeInternalError {
		t.Errorf("Code() = %d, want %d", err.Code(), ErrorCodeInternalError)
	}
}
