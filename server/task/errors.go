// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"

	"github.com/go-a2a/taskflow"
)

// TaskNotUpdatableError indicates an event fold was attempted against a task
// already in a terminal state, or a transition the state machine forbids.
type TaskNotUpdatableError struct {
	TaskID string
	From   taskflow.TaskState
	To     taskflow.TaskState
}

// Error returns the error message.
func (e TaskNotUpdatableError) Error() string {
	return fmt.Sprintf("task %s cannot transition from %q to %q", e.TaskID, e.From, e.To)
}

// TaskStoreError represents a failed task store operation.
type TaskStoreError struct {
	Operation string
	TaskID    string
	Err       error
}

// Error returns the error message.
func (e TaskStoreError) Error() string {
	return fmt.Sprintf("task store %s failed for task %s: %v", e.Operation, e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e TaskStoreError) Unwrap() error { return e.Err }

// EventMismatchError indicates an event was routed to a manager for a
// different task id.
type EventMismatchError struct {
	ManagerTaskID string
	EventTaskID   string
}

// Error returns the error message.
func (e EventMismatchError) Error() string {
	return fmt.Sprintf("event for task %s routed to manager for task %s", e.EventTaskID, e.ManagerTaskID)
}

// PushConfigNotFoundError indicates no webhook registration matched.
type PushConfigNotFoundError struct {
	TaskID   string
	ConfigID string
}

// Error returns the error message.
func (e PushConfigNotFoundError) Error() string {
	return fmt.Sprintf("push notification config %s not found for task %s", e.ConfigID, e.TaskID)
}
