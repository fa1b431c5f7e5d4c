// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"

	"github.com/go-a2a/taskflow"
)

// PollTimeoutError reports that a task did not reach a turn boundary
// within the configured polling window.
type PollTimeoutError struct {
	TaskID    string
	LastState taskflow.TaskState
}

func (e PollTimeoutError) Error() string {
	return fmt.Sprintf("polling task %q timed out in state %q", e.TaskID, e.LastState)
}

// StreamClosedError reports that a fold stream closed before delivering
// any snapshot.
type StreamClosedError struct {
	TaskID string
}

func (e StreamClosedError) Error() string {
	if e.TaskID == "" {
		return "stream closed before the first event"
	}
	return fmt.Sprintf("stream for task %q closed before the first event", e.TaskID)
}
