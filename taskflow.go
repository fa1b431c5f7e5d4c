// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskflow provides the task lifecycle core of the Agent-to-Agent
// (A2A) protocol: the Task data model, the lifecycle state machine, and the
// event types that carry status and artifact updates from a running agent to
// its consumers. The server-side engine that drives these types lives under
// the server packages; clients that mirror the lifecycle live under client.
package taskflow

// Version is the protocol version implemented by this module.
const Version = "0.3.0"

// TaskState represents the lifecycle state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been received but work has
	// not started yet.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the agent is actively working on the task.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the agent paused and is waiting for a
	// further user message bound to the same task id.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateCompleted indicates the task finished successfully.
	TaskStateCompleted TaskState = "completed"

	// TaskStateFailed indicates the task finished with an error.
	TaskStateFailed TaskState = "failed"

	// TaskStateRejected indicates the agent refused the task.
	TaskStateRejected TaskState = "rejected"

	// TaskStateCanceled indicates the task was canceled before finishing.
	TaskStateCanceled TaskState = "canceled"
)

// Terminal reports whether the state permits no further transitions.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateRejected, TaskStateCanceled:
		return true
	}
	return false
}

// Interrupted reports whether the state is a turn boundary: the task is
// paused waiting for more input but has not reached a terminal state.
func (s TaskState) Interrupted() bool {
	return s == TaskStateInputRequired
}

// Valid reports whether the state is one of the defined lifecycle states.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateFailed, TaskStateRejected, TaskStateCanceled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next. Non-terminal states may repeat (progress updates re-emit "working"),
// may move forward to any terminal state, and input-required round-trips
// with working across turns. Terminal states permit nothing.
func (s TaskState) CanTransitionTo(next TaskState) bool {
	if s.Terminal() {
		return false
	}
	if !next.Valid() {
		return false
	}
	switch s {
	case TaskStateSubmitted:
		return true
	case TaskStateWorking:
		return next != TaskStateSubmitted
	case TaskStateInputRequired:
		return next != TaskStateSubmitted
	}
	return false
}
