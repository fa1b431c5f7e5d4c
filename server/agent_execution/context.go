// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/go-a2a/taskflow"
)

// RequestContext carries everything an executor needs about the request it
// is serving: the inbound message, the task and context identifiers, the
// current task snapshot when the request continues an existing task, and
// the cooperative cancellation signal. It is safe for concurrent use.
type RequestContext struct {
	mu          sync.RWMutex
	message     *taskflow.Message
	taskID      string
	contextID   string
	currentTask *taskflow.Task

	cancelOnce sync.Once
	canceled   chan struct{}
}

// RequestContextConfig holds configuration for creating a RequestContext.
type RequestContextConfig struct {
	// Message is the inbound message that triggered this execution.
	Message *taskflow.Message

	// TaskID identifies the task. Empty generates a new id, unless the
	// message carries one.
	TaskID string

	// ContextID identifies the conversation context. Empty generates a new
	// id, unless the message carries one.
	ContextID string

	// CurrentTask is the existing task snapshot when the request continues
	// a known task.
	CurrentTask *taskflow.Task
}

// NewRequestContext creates a RequestContext, resolving task and context
// ids from the config, the message, or fresh UUIDs, in that order.
func NewRequestContext(config RequestContextConfig) (*RequestContext, error) {
	taskID := config.TaskID
	contextID := config.ContextID

	if config.Message != nil {
		if taskID == "" {
			taskID = config.Message.TaskID
		}
		if contextID == "" {
			contextID = config.Message.ContextID
		}
	}
	if config.CurrentTask != nil {
		if taskID == "" {
			taskID = config.CurrentTask.ID
		} else if taskID != config.CurrentTask.ID {
			return nil, fmt.Errorf("task id %q does not match current task %q", taskID, config.CurrentTask.ID)
		}
		if contextID == "" {
			contextID = config.CurrentTask.ContextID
		}
	}
	if taskID == "" {
		taskID = uuid.New().String()
	}
	if contextID == "" {
		contextID = uuid.New().String()
	}

	return &RequestContext{
		message:     config.Message,
		taskID:      taskID,
		contextID:   contextID,
		currentTask: config.CurrentTask,
		canceled:    make(chan struct{}),
	}, nil
}

// Message returns the inbound message that triggered this execution.
func (rc *RequestContext) Message() *taskflow.Message {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.message
}

// TaskID returns the id of the task being executed.
func (rc *RequestContext) TaskID() string {
	return rc.taskID
}

// ContextID returns the id of the conversation context.
func (rc *RequestContext) ContextID() string {
	return rc.contextID
}

// CurrentTask returns the task snapshot the request started from, or nil
// for a new task.
func (rc *RequestContext) CurrentTask() *taskflow.Task {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.currentTask
}

// SetCurrentTask replaces the task snapshot, typically after the server
// folds the inbound message into the stored task.
func (rc *RequestContext) SetCurrentTask(task *taskflow.Task) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.currentTask = task
}

// UserInput extracts the text content of the inbound message, joined by
// the given delimiter. An empty delimiter selects newline.
func (rc *RequestContext) UserInput(delimiter string) string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	if rc.message == nil {
		return ""
	}
	if delimiter == "" || delimiter == "\n" {
		return rc.message.Text()
	}

	var texts []string
	for _, part := range rc.message.Parts {
		if part.Kind == taskflow.PartKindText {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, delimiter)
}

// SignalCancel fires the cancellation signal. Safe to call more than once;
// later calls are no-ops.
func (rc *RequestContext) SignalCancel() {
	rc.cancelOnce.Do(func() {
		close(rc.canceled)
	})
}

// Canceled returns a channel closed when cancellation has been requested.
// Executors select on it alongside their work.
func (rc *RequestContext) Canceled() <-chan struct{} {
	return rc.canceled
}

// IsCanceled reports whether cancellation has been requested.
func (rc *RequestContext) IsCanceled() bool {
	select {
	case <-rc.canceled:
		return true
	default:
		return false
	}
}
