// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"errors"
	"time"

	"github.com/go-a2a/taskflow"
	"github.com/go-a2a/taskflow/server/event"
)

// AgentExecutor contains the agent's business logic. The server calls
// Execute with a RequestContext and an event queue; the executor publishes
// Task, Message, TaskStatusUpdateEvent, and TaskArtifactUpdateEvent values
// into the queue until the turn ends with a final event.
type AgentExecutor interface {
	// Execute runs the agent's main logic for one turn. Implementations
	// should watch requestContext.Canceled() and wind down with a canceled
	// status event when it fires. A returned error makes the server force
	// the task into the failed state.
	Execute(ctx context.Context, requestContext *RequestContext, queue *event.EventQueue) error

	// Cancel asks the agent to stop an ongoing task. The agent should halt
	// work and publish a final canceled status event to the queue.
	Cancel(ctx context.Context, requestContext *RequestContext, queue *event.EventQueue) error
}

// ExecutorFunc adapts a function to the AgentExecutor interface. Cancel
// fires the context's cancellation signal and leaves the canceled status
// event to the running Execute.
type ExecutorFunc func(ctx context.Context, requestContext *RequestContext, queue *event.EventQueue) error

var _ AgentExecutor = (ExecutorFunc)(nil)

// Execute calls the function.
func (f ExecutorFunc) Execute(ctx context.Context, requestContext *RequestContext, queue *event.EventQueue) error {
	return f(ctx, requestContext, queue)
}

// Cancel signals cancellation through the request context.
func (f ExecutorFunc) Cancel(ctx context.Context, requestContext *RequestContext, queue *event.EventQueue) error {
	if requestContext == nil {
		return errors.New("request context cannot be nil")
	}
	requestContext.SignalCancel()
	return nil
}

// EchoAgentExecutor is a trivial executor for tests and examples: it starts
// work, echoes the user input back as a text artifact, and completes.
type EchoAgentExecutor struct {
	// WorkDelay simulates processing time between starting and completing.
	WorkDelay time.Duration
}

var _ AgentExecutor = (*EchoAgentExecutor)(nil)

// Execute publishes a working status, the echoed artifact, and a final
// completed status.
func (e *EchoAgentExecutor) Execute(ctx context.Context, requestContext *RequestContext, queue *event.EventQueue) error {
	if requestContext == nil {
		return errors.New("request context cannot be nil")
	}
	if queue == nil {
		return errors.New("event queue cannot be nil")
	}

	working := &taskflow.TaskStatusUpdateEvent{
		Kind:      taskflow.KindStatusUpdate,
		TaskID:    requestContext.TaskID(),
		ContextID: requestContext.ContextID(),
		Status:    taskflow.TaskStatus{State: taskflow.TaskStateWorking},
	}
	if err := queue.Enqueue(ctx, working); err != nil {
		return err
	}

	if e.WorkDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-requestContext.Canceled():
			return e.publishCanceled(ctx, requestContext, queue)
		case <-time.After(e.WorkDelay):
		}
	}

	echo := &taskflow.TaskArtifactUpdateEvent{
		Kind:      taskflow.KindArtifactUpdate,
		TaskID:    requestContext.TaskID(),
		ContextID: requestContext.ContextID(),
		Artifact:  taskflow.NewTextArtifact("echo", requestContext.UserInput("\n")),
		LastChunk: true,
	}
	if err := queue.Enqueue(ctx, echo); err != nil {
		return err
	}

	completed := &taskflow.TaskStatusUpdateEvent{
		Kind:      taskflow.KindStatusUpdate,
		TaskID:    requestContext.TaskID(),
		ContextID: requestContext.ContextID(),
		Status:    taskflow.TaskStatus{State: taskflow.TaskStateCompleted},
		Final:     true,
	}
	return queue.Enqueue(ctx, completed)
}

// Cancel publishes a final canceled status.
func (e *EchoAgentExecutor) Cancel(ctx context.Context, requestContext *RequestContext, queue *event.EventQueue) error {
	if requestContext == nil {
		return errors.New("request context cannot be nil")
	}
	if queue == nil {
		return errors.New("event queue cannot be nil")
	}
	requestContext.SignalCancel()
	return e.publishCanceled(ctx, requestContext, queue)
}

func (e *EchoAgentExecutor) publishCanceled(ctx context.Context, requestContext *RequestContext, queue *event.EventQueue) error {
	canceled := &taskflow.TaskStatusUpdateEvent{
		Kind:      taskflow.KindStatusUpdate,
		TaskID:    requestContext.TaskID(),
		ContextID: requestContext.ContextID(),
		Status:    taskflow.TaskStatus{State: taskflow.TaskStateCanceled},
		Final:     true,
	}
	return queue.Enqueue(ctx, canceled)
}
