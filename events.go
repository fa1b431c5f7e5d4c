// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"fmt"
)

// Event is anything an executor can emit into a task's event stream: a full
// Task snapshot, a status update, an artifact update, or a bare message.
// Events are the only mutation channel into a Task.
type Event interface {
	// GetEventKind returns the wire kind discriminator for the event.
	GetEventKind() string

	// GetTaskID returns the task id the event belongs to, or "" for
	// messages not bound to a task.
	GetTaskID() string
}

var (
	_ Event = (*Task)(nil)
	_ Event = (*Message)(nil)
	_ Event = (*TaskStatusUpdateEvent)(nil)
	_ Event = (*TaskArtifactUpdateEvent)(nil)
)

// GetEventKind returns "task".
func (t *Task) GetEventKind() string { return KindTask }

// GetTaskID returns the task id.
func (t *Task) GetTaskID() string { return t.ID }

// GetEventKind returns "message".
func (m *Message) GetEventKind() string { return KindMessage }

// GetTaskID returns the task id the message is bound to.
func (m *Message) GetTaskID() string { return m.TaskID }

// TaskStatusUpdateEvent reports a task status change.
type TaskStatusUpdateEvent struct {
	// Kind is always "status-update".
	Kind string `json:"kind"`

	// TaskID is the task the status belongs to.
	TaskID string `json:"taskId"`

	// ContextID is the context the task belongs to.
	ContextID string `json:"contextId"`

	// Status is the new task status.
	Status TaskStatus `json:"status"`

	// Final marks the end of the event stream for this logical turn.
	Final bool `json:"final"`

	// Metadata holds optional event-level metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// GetEventKind returns "status-update".
func (e *TaskStatusUpdateEvent) GetEventKind() string { return KindStatusUpdate }

// GetTaskID returns the task id.
func (e *TaskStatusUpdateEvent) GetTaskID() string { return e.TaskID }

// Validate ensures the event identifies its task and carries a valid state.
func (e *TaskStatusUpdateEvent) Validate() error {
	if e == nil {
		return fmt.Errorf("status update event cannot be nil")
	}
	if e.TaskID == "" {
		return fmt.Errorf("status update event task id cannot be empty")
	}
	if !e.Status.State.Valid() {
		return fmt.Errorf("invalid task state: %q", e.Status.State)
	}
	return nil
}

// TaskArtifactUpdateEvent reports a new artifact or a chunk of one.
type TaskArtifactUpdateEvent struct {
	// Kind is always "artifact-update".
	Kind string `json:"kind"`

	// TaskID is the task the artifact belongs to.
	TaskID string `json:"taskId"`

	// ContextID is the context the task belongs to.
	ContextID string `json:"contextId"`

	// Artifact is the artifact payload or chunk.
	Artifact *Artifact `json:"artifact"`

	// Append concatenates this event's parts onto the artifact with the
	// same id instead of replacing it.
	Append bool `json:"append,omitzero"`

	// LastChunk advises chunk consumers that the artifact is complete.
	LastChunk bool `json:"lastChunk,omitzero"`

	// Metadata holds optional event-level metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// GetEventKind returns "artifact-update".
func (e *TaskArtifactUpdateEvent) GetEventKind() string { return KindArtifactUpdate }

// GetTaskID returns the task id.
func (e *TaskArtifactUpdateEvent) GetTaskID() string { return e.TaskID }

// Validate ensures the event identifies its task and carries an artifact.
func (e *TaskArtifactUpdateEvent) Validate() error {
	if e == nil {
		return fmt.Errorf("artifact update event cannot be nil")
	}
	if e.TaskID == "" {
		return fmt.Errorf("artifact update event task id cannot be empty")
	}
	return e.Artifact.Validate()
}

// IsFinalEvent reports whether the event ends its stream: a status update
// marked final, a bare message, or a task snapshot already in a terminal or
// input-required state.
func IsFinalEvent(event Event) bool {
	switch e := event.(type) {
	case *TaskStatusUpdateEvent:
		return e.Final
	case *Message:
		return true
	case *Task:
		return e.Status.State.Terminal() || e.Status.State.Interrupted()
	}
	return false
}
