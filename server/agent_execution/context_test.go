// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"testing"

	"github.com/go-a2a/taskflow"
)

func TestNewRequestContext_IDResolution(t *testing.T) {
	t.Parallel()

	boundMessage := taskflow.NewUserMessage("hi")
	boundMessage.TaskID = "task-from-message"
	boundMessage.ContextID = "ctx-from-message"

	currentTask := &taskflow.Task{
		ID:        "task-existing",
		ContextID: "ctx-existing",
		Kind:      taskflow.KindTask,
		Status:    taskflow.TaskStatus{State: taskflow.TaskStateInputRequired},
	}

	tests := map[string]struct {
		config        RequestContextConfig
		wantTaskID    string
		wantContextID string
		wantErr       bool
	}{
		"explicit ids win": {
			config: RequestContextConfig{
				Message:   boundMessage,
				TaskID:    "task-explicit",
				ContextID: "ctx-explicit",
			},
			wantTaskID:    "task-explicit",
			wantContextID: "ctx-explicit",
		},
		"message ids used when config empty": {
			config:        RequestContextConfig{Message: boundMessage},
			wantTaskID:    "task-from-message",
			wantContextID: "ctx-from-message",
		},
		"current task fills ids": {
			config:        RequestContextConfig{CurrentTask: currentTask},
			wantTaskID:    "task-existing",
			wantContextID: "ctx-existing",
		},
		"mismatched current task rejected": {
			config: RequestContextConfig{
				TaskID:      "task-other",
				CurrentTask: currentTask,
			},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rc, err := NewRequestContext(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewRequestContext() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRequestContext() error = %v", err)
			}
			if rc.TaskID() != tt.wantTaskID {
				t.Errorf("TaskID() = %q, want %q", rc.TaskID(), tt.wantTaskID)
			}
			if rc.ContextID() != tt.wantContextID {
				t.Errorf("ContextID() = %q, want %q", rc.ContextID(), tt.wantContextID)
			}
		})
	}
}

func TestNewRequestContext_GeneratesIDs(t *testing.T) {
	t.Parallel()

	rc, err := NewRequestContext(RequestContextConfig{Message: taskflow.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("NewRequestContext() error = %v", err)
	}
	if rc.TaskID() == "" {
		t.Error("TaskID() is empty, want generated id")
	}
	if rc.ContextID() == "" {
		t.Error("ContextID() is empty, want generated id")
	}
}

func TestRequestContext_UserInput(t *testing.T) {
	t.Parallel()

	message := &taskflow.Message{
		Kind:      taskflow.KindMessage,
		MessageID: "msg-1",
		Role:      taskflow.RoleUser,
		Parts: []taskflow.Part{
			taskflow.NewTextPart("first"),
			taskflow.NewDataPart(map[string]any{"skip": true}),
			taskflow.NewTextPart("second"),
		},
	}

	rc, err := NewRequestContext(RequestContextConfig{Message: message})
	if err != nil {
		t.Fatalf("NewRequestContext() error = %v", err)
	}

	if got := rc.UserInput(""); got != "first\nsecond" {
		t.Errorf("UserInput(\"\") = %q, want %q", got, "first\nsecond")
	}
	if got := rc.UserInput(" | "); got != "first | second" {
		t.Errorf("UserInput(\" | \") = %q, want %q", got, "first | second")
	}
}

func TestRequestContext_Cancel(t *testing.T) {
	t.Parallel()

	rc, err := NewRequestContext(RequestContextConfig{TaskID: "task-1", ContextID: "ctx-1"})
	if err != nil {
		t.Fatalf("NewRequestContext() error = %v", err)
	}

	if rc.IsCanceled() {
		t.Error("IsCanceled() = true before signal")
	}

	rc.SignalCancel()
	rc.SignalCancel() // repeat signals are no-ops

	if !rc.IsCanceled() {
		t.Error("IsCanceled() = false after signal")
	}

	select {
	case <-rc.Canceled():
	default:
		t.Error("Canceled() channel not closed after signal")
	}
}

func TestPhaseStore(t *testing.T) {
	t.Parallel()

	store := NewPhaseStore()

	if got := store.Get("task-1"); got != "" {
		t.Errorf("Get() = %q, want empty for unknown task", got)
	}

	store.Set("task-1", "awaiting-confirmation")
	if got := store.Get("task-1"); got != "awaiting-confirmation" {
		t.Errorf("Get() = %q, want %q", got, "awaiting-confirmation")
	}

	store.Delete("task-1")
	if got := store.Get("task-1"); got != "" {
		t.Errorf("Get() after delete = %q, want empty", got)
	}
}
