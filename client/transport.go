// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/go-a2a/taskflow"
	"github.com/go-a2a/taskflow/server"
	"github.com/go-a2a/taskflow/server/task"
)

// Transport is the subset of the server request surface the client
// helpers need. [server.RequestHandler] satisfies it directly, so an
// in-process handler doubles as a transport in tests and embedded use.
type Transport interface {
	// SendMessage delivers a message and returns a task snapshot per the
	// send configuration's delivery mode.
	SendMessage(ctx context.Context, params server.MessageSendParams) (*taskflow.Task, error)

	// SendMessageStream delivers a message and emits every fold of the
	// resulting turn. The channel closes when the turn ends.
	SendMessageStream(ctx context.Context, params server.MessageSendParams) (<-chan task.FoldResult, error)

	// Resubscribe reattaches to a task's fold stream. The returned stop
	// function releases the subscription.
	Resubscribe(ctx context.Context, taskID string) (<-chan task.FoldResult, func(), error)

	// GetTask reads a task snapshot.
	GetTask(ctx context.Context, params server.TaskQueryParams) (*taskflow.Task, error)

	// CancelTask requests cancellation and returns the resulting snapshot.
	CancelTask(ctx context.Context, taskID string) (*taskflow.Task, error)
}

var _ Transport = (server.RequestHandler)(nil)
