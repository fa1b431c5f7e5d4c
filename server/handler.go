// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"

	"github.com/go-a2a/taskflow"
	"github.com/go-a2a/taskflow/server/task"
)

// MessageSendParams is the request payload for SendMessage and
// SendMessageStream.
type MessageSendParams struct {
	// Message is the inbound message. A message whose TaskID names an
	// existing task continues that task; otherwise a new task is created.
	Message *taskflow.Message `json:"message"`

	// Configuration carries the caller's delivery preferences.
	Configuration *taskflow.SendConfiguration `json:"configuration,omitzero"`

	// Metadata holds optional request-level metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// TaskQueryParams identifies a task and the read-side history bound for
// its returned snapshot.
type TaskQueryParams struct {
	// ID is the task id.
	ID string `json:"id"`

	// HistoryLength truncates the returned history to the last N messages.
	// Nil or zero returns the full history; negative values are invalid.
	HistoryLength *int `json:"historyLength,omitzero"`
}

// RequestHandler is the transport-agnostic request surface of the engine.
// All methods return typed errors from the taskflow package; transports map
// them to their wire representation.
type RequestHandler interface {
	// SendMessage accepts a message and runs the agent until the task pauses
	// at a terminal or input-required boundary, returning the snapshot
	// there. With Configuration.Blocking false it returns as soon as the
	// first event is folded, leaving the rest to background consumption.
	SendMessage(ctx context.Context, params MessageSendParams) (*taskflow.Task, error)

	// SendMessageStream accepts a message and returns the live stream of
	// folds in event order. The channel closes when the stream ends.
	SendMessageStream(ctx context.Context, params MessageSendParams) (<-chan task.FoldResult, error)

	// Resubscribe reattaches to a task's stream. The first delivery is
	// always the current snapshot; live folds follow if the producer is
	// still running. Events between the snapshot and the reattach are
	// represented by the snapshot, not replayed.
	Resubscribe(ctx context.Context, taskID string) (<-chan task.FoldResult, func(), error)

	// GetTask returns the task snapshot, history truncated per the params.
	GetTask(ctx context.Context, params TaskQueryParams) (*taskflow.Task, error)

	// ListTasks returns one page of task projections in stable creation
	// order. History is always stripped; artifacts are included only when
	// requested.
	ListTasks(ctx context.Context, params taskflow.ListTasksParams) (*taskflow.ListTasksResult, error)

	// CancelTask requests cooperative cancellation and returns the
	// resulting snapshot. Terminal tasks, including already canceled ones,
	// fail with TaskNotCancelableError.
	CancelTask(ctx context.Context, taskID string) (*taskflow.Task, error)

	// SetTaskPushConfig registers a webhook for a task.
	SetTaskPushConfig(ctx context.Context, config taskflow.TaskPushConfig) (*taskflow.TaskPushConfig, error)

	// GetTaskPushConfig retrieves one webhook registration. An empty
	// configID selects the sole registration when exactly one exists.
	GetTaskPushConfig(ctx context.Context, taskID, configID string) (*taskflow.TaskPushConfig, error)

	// ListTaskPushConfigs retrieves all webhook registrations for a task.
	ListTaskPushConfigs(ctx context.Context, taskID string) ([]*taskflow.TaskPushConfig, error)

	// DeleteTaskPushConfig removes a webhook registration.
	DeleteTaskPushConfig(ctx context.Context, taskID, configID string) error
}
