// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-a2a/taskflow"
	"github.com/go-a2a/taskflow/server/event"
)

// TaskUpdater provides the interface for agent executors to publish
// task-related events. It stamps each event with the task and context IDs,
// refuses updates once a final event has been published, and is safe for
// concurrent use.
type TaskUpdater interface {
	// UpdateStatus publishes a status update event. If final is true, or the
	// state is terminal, the stream ends and no further updates are allowed.
	UpdateStatus(ctx context.Context, state taskflow.TaskState, message *taskflow.Message, final bool) error

	// AddArtifact publishes an artifact update event. When append is true
	// the parts extend an artifact previously published under the same
	// artifact ID; lastChunk marks the end of a chunked artifact.
	AddArtifact(ctx context.Context, artifact *taskflow.Artifact, append, lastChunk bool) error

	// Convenience methods for common lifecycle transitions.
	StartWork(ctx context.Context, message *taskflow.Message) error
	RequiresInput(ctx context.Context, message *taskflow.Message) error
	Complete(ctx context.Context, message *taskflow.Message) error
	Failed(ctx context.Context, message *taskflow.Message) error
	Reject(ctx context.Context, message *taskflow.Message) error
	Cancel(ctx context.Context, message *taskflow.Message) error

	// NewAgentMessage builds an agent message bound to this updater's task
	// and context, for use as a status message.
	NewAgentMessage(text string) *taskflow.Message

	// GetTaskID returns the task ID this updater is associated with.
	GetTaskID() string

	// GetContextID returns the context ID this updater is associated with.
	GetContextID() string

	// IsFinal reports whether a final event has been published.
	IsFinal() bool
}

// TaskUpdaterConfig holds configuration for creating a TaskUpdater.
type TaskUpdaterConfig struct {
	TaskID    string
	ContextID string
	Queue     *event.EventQueue
}

// defaultTaskUpdater is the default implementation of TaskUpdater.
type defaultTaskUpdater struct {
	taskID    string
	contextID string
	queue     *event.EventQueue

	mu    sync.Mutex
	final bool
}

var _ TaskUpdater = (*defaultTaskUpdater)(nil)

// NewTaskUpdater creates a new TaskUpdater with the given configuration.
func NewTaskUpdater(config TaskUpdaterConfig) (TaskUpdater, error) {
	if config.TaskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if config.ContextID == "" {
		return nil, fmt.Errorf("context ID cannot be empty")
	}
	if config.Queue == nil {
		return nil, fmt.Errorf("event queue cannot be nil")
	}

	return &defaultTaskUpdater{
		taskID:    config.TaskID,
		contextID: config.ContextID,
		queue:     config.Queue,
	}, nil
}

// UpdateStatus publishes a status update event.
func (u *defaultTaskUpdater) UpdateStatus(ctx context.Context, state taskflow.TaskState, message *taskflow.Message, final bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.final {
		return fmt.Errorf("cannot update task %s: a final event was already published", u.taskID)
	}
	if !state.Valid() {
		return fmt.Errorf("invalid task state: %q", state)
	}

	isFinal := final || state.Terminal()

	if message != nil {
		message = message.Clone()
		message.TaskID = u.taskID
		message.ContextID = u.contextID
	}

	statusEvent := &taskflow.TaskStatusUpdateEvent{
		Kind:      taskflow.KindStatusUpdate,
		TaskID:    u.taskID,
		ContextID: u.contextID,
		Status: taskflow.TaskStatus{
			State:     state,
			Message:   message,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Final: isFinal,
	}

	if err := u.queue.Enqueue(ctx, statusEvent); err != nil {
		return fmt.Errorf("failed to publish status update event: %w", err)
	}

	// Flip only after a successful publish so a full queue does not strand
	// the updater in a final state it never reached.
	u.final = isFinal
	return nil
}

// AddArtifact publishes an artifact update event.
func (u *defaultTaskUpdater) AddArtifact(ctx context.Context, artifact *taskflow.Artifact, append, lastChunk bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.final {
		return fmt.Errorf("cannot add artifact to task %s: a final event was already published", u.taskID)
	}
	if artifact == nil {
		return fmt.Errorf("artifact cannot be nil")
	}
	if err := artifact.Validate(); err != nil {
		return fmt.Errorf("artifact validation failed: %w", err)
	}

	artifactEvent := &taskflow.TaskArtifactUpdateEvent{
		Kind:      taskflow.KindArtifactUpdate,
		TaskID:    u.taskID,
		ContextID: u.contextID,
		Artifact:  artifact.Clone(),
		Append:    append,
		LastChunk: lastChunk,
	}

	if err := u.queue.Enqueue(ctx, artifactEvent); err != nil {
		return fmt.Errorf("failed to publish artifact update event: %w", err)
	}
	return nil
}

// StartWork marks the task as working.
func (u *defaultTaskUpdater) StartWork(ctx context.Context, message *taskflow.Message) error {
	return u.UpdateStatus(ctx, taskflow.TaskStateWorking, message, false)
}

// RequiresInput pauses the task pending further client input.
func (u *defaultTaskUpdater) RequiresInput(ctx context.Context, message *taskflow.Message) error {
	return u.UpdateStatus(ctx, taskflow.TaskStateInputRequired, message, true)
}

// Complete marks the task as completed.
func (u *defaultTaskUpdater) Complete(ctx context.Context, message *taskflow.Message) error {
	return u.UpdateStatus(ctx, taskflow.TaskStateCompleted, message, true)
}

// Failed marks the task as failed.
func (u *defaultTaskUpdater) Failed(ctx context.Context, message *taskflow.Message) error {
	return u.UpdateStatus(ctx, taskflow.TaskStateFailed, message, true)
}

// Reject marks the task as rejected.
func (u *defaultTaskUpdater) Reject(ctx context.Context, message *taskflow.Message) error {
	return u.UpdateStatus(ctx, taskflow.TaskStateRejected, message, true)
}

// Cancel marks the task as canceled.
func (u *defaultTaskUpdater) Cancel(ctx context.Context, message *taskflow.Message) error {
	return u.UpdateStatus(ctx, taskflow.TaskStateCanceled, message, true)
}

// NewAgentMessage builds an agent text message bound to this updater's task
// and context.
func (u *defaultTaskUpdater) NewAgentMessage(text string) *taskflow.Message {
	return taskflow.NewAgentTextMessage(u.taskID, u.contextID, text)
}

// GetTaskID returns the task ID this updater is associated with.
func (u *defaultTaskUpdater) GetTaskID() string {
	return u.taskID
}

// GetContextID returns the context ID this updater is associated with.
func (u *defaultTaskUpdater) GetContextID() string {
	return u.contextID
}

// IsFinal reports whether a final event has been published.
func (u *defaultTaskUpdater) IsFinal() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.final
}
