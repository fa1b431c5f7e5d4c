// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"fmt"
)

// Protocol error codes, aligned with the JSON-RPC binding of the protocol.
const (
	ErrorCodeTaskNotFound      = -32001
	ErrorCodeTaskNotCancelable = -32002
	ErrorCodeInvalidParams     = -32602
	ErrorCodeInternalError     = -32603
)

// ProtocolError is an error that maps to a structured protocol response.
type ProtocolError interface {
	error

	// Code returns the protocol error code.
	Code() int
}

// TaskNotFoundError indicates the requested task id is unknown to the store.
type TaskNotFoundError struct {
	TaskID string
}

// Error returns the error message.
func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// Code returns ErrorCodeTaskNotFound.
func (e TaskNotFoundError) Code() int { return ErrorCodeTaskNotFound }

// TaskNotCancelableError indicates cancel was requested against a task
// already in a terminal state. This is a domain-expected condition that
// callers branch on, distinct from invalid parameters.
type TaskNotCancelableError struct {
	TaskID string
	State  TaskState
}

// Error returns the error message.
func (e TaskNotCancelableError) Error() string {
	return fmt.Sprintf("task %s cannot be canceled in state %q", e.TaskID, e.State)
}

// Code returns ErrorCodeTaskNotCancelable.
func (e TaskNotCancelableError) Code() int { return ErrorCodeTaskNotCancelable }

// InvalidParamsError indicates malformed or missing required fields in an
// inbound message or configuration.
type InvalidParamsError struct {
	Reason string
}

// Error returns the error message.
func (e InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid params: %s", e.Reason)
}

// Code returns ErrorCodeInvalidParams.
func (e InvalidParamsError) Code() int { return ErrorCodeInvalidParams }

// ExecutionError indicates the executor failed mid-run. The execution
// engine recovers it by forcing a terminal failed status before propagating
// the error upward for logging.
type ExecutionError struct {
	TaskID string
	Err    error
}

// Error returns the error message.
func (e ExecutionError) Error() string {
	return fmt.Sprintf("execution failed for task %s: %v", e.TaskID, e.Err)
}

// Unwrap returns the underlying error.
func (e ExecutionError) Unwrap() error { return e.Err }

// Code returns ErrorCodeInternalError.
func (e ExecutionError) Code() int { return ErrorCodeInternalError }
