// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueClosed is returned when operating on a closed queue.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrQueueEmpty is returned by non-blocking dequeues on an empty queue.
	ErrQueueEmpty = errors.New("event queue is empty")

	// ErrQueueFull is returned when an enqueue would exceed the queue bound.
	ErrQueueFull = errors.New("event queue is full")

	// ErrInvalidQueueSize is returned for a negative queue size.
	ErrInvalidQueueSize = errors.New("queue size cannot be negative")
)

// TaskQueueExistsError indicates a queue is already registered for a task id.
type TaskQueueExistsError struct {
	TaskID string
}

// Error returns the error message.
func (e TaskQueueExistsError) Error() string {
	return fmt.Sprintf("event queue already exists for task %s", e.TaskID)
}

// NoTaskQueueError indicates no queue is registered for a task id.
type NoTaskQueueError struct {
	TaskID string
}

// Error returns the error message.
func (e NoTaskQueueError) Error() string {
	return fmt.Sprintf("no event queue exists for task %s", e.TaskID)
}
