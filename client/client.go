// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-a2a/taskflow"
	"github.com/go-a2a/taskflow/server"
	"github.com/go-a2a/taskflow/server/task"
)

const (
	// DefaultPollInterval is the delay between snapshot reads while
	// waiting for a turn to end.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultPollTimeout bounds how long [Client.WaitForTurn] polls
	// before giving up.
	DefaultPollTimeout = 5 * time.Minute
)

// Client wraps a [Transport] with lifecycle-aware helpers.
type Client struct {
	transport    Transport
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *slog.Logger
}

// ClientConfig configures a [Client].
type ClientConfig struct {
	// Transport carries requests to the engine. Required.
	Transport Transport

	// PollInterval is the delay between polls. Defaults to
	// [DefaultPollInterval].
	PollInterval time.Duration

	// PollTimeout bounds a polling wait. Defaults to
	// [DefaultPollTimeout]. Negative disables the bound.
	PollTimeout time.Duration

	// Logger receives client diagnostics. Defaults to [slog.Default].
	Logger *slog.Logger
}

// NewClient creates a [Client] from the config.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Transport == nil {
		return nil, fmt.Errorf("client: transport is required")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.PollTimeout == 0 {
		config.PollTimeout = DefaultPollTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		transport:    config.Transport,
		pollInterval: config.PollInterval,
		pollTimeout:  config.PollTimeout,
		logger:       config.Logger,
	}, nil
}

// SendMessage delivers a message through the transport unchanged.
func (c *Client) SendMessage(ctx context.Context, params server.MessageSendParams) (*taskflow.Task, error) {
	return c.transport.SendMessage(ctx, params)
}

// GetTask reads a task snapshot through the transport unchanged.
func (c *Client) GetTask(ctx context.Context, params server.TaskQueryParams) (*taskflow.Task, error) {
	return c.transport.GetTask(ctx, params)
}

// CancelTask requests cancellation through the transport unchanged.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*taskflow.Task, error) {
	return c.transport.CancelTask(ctx, taskID)
}

// SendAndPoll sends a message without blocking on the turn, then polls
// the resulting task until its turn ends. Callers that want the engine
// to hold the request open use [Client.SendMessage] with a blocking
// send configuration instead.
func (c *Client) SendAndPoll(ctx context.Context, params server.MessageSendParams) (*taskflow.Task, error) {
	if params.Configuration == nil {
		params.Configuration = &taskflow.SendConfiguration{}
	}
	params.Configuration.Blocking = false

	snapshot, err := c.transport.SendMessage(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.WaitForTurn(ctx, snapshot.ID)
}

// WaitForTurn polls the task until it reaches a terminal state or pauses
// for input, returning the snapshot at the turn boundary. It returns a
// [PollTimeoutError] when the configured timeout elapses first.
func (c *Client) WaitForTurn(ctx context.Context, taskID string) (*taskflow.Task, error) {
	var deadline <-chan time.Time
	if c.pollTimeout > 0 {
		timer := time.NewTimer(c.pollTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var last taskflow.TaskState
	for {
		snapshot, err := c.transport.GetTask(ctx, server.TaskQueryParams{ID: taskID})
		if err != nil {
			return nil, err
		}
		state := snapshot.Status.State
		if state.Terminal() || state.Interrupted() {
			return snapshot, nil
		}
		if state != last {
			c.logger.Debug("task still running", "task_id", taskID, "state", state)
			last = state
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, PollTimeoutError{TaskID: taskID, LastState: state}
		case <-ticker.C:
		}
	}
}

// Stream sends a message over the streaming adapter and drains the fold
// stream, invoking fn for every fold when fn is non-nil. It returns the
// last snapshot once the turn ends. A non-nil error from fn stops
// consumption and is returned.
func (c *Client) Stream(ctx context.Context, params server.MessageSendParams, fn func(task.FoldResult) error) (*taskflow.Task, error) {
	stream, err := c.transport.SendMessageStream(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.drain(ctx, stream, fn, "")
}

// Resubscribe reattaches to a running task and drains its remaining
// folds, invoking fn for each when fn is non-nil. The first delivery is
// the task's current snapshot.
func (c *Client) Resubscribe(ctx context.Context, taskID string, fn func(task.FoldResult) error) (*taskflow.Task, error) {
	stream, stop, err := c.transport.Resubscribe(ctx, taskID)
	if err != nil {
		return nil, err
	}
	defer stop()
	return c.drain(ctx, stream, fn, taskID)
}

func (c *Client) drain(ctx context.Context, stream <-chan task.FoldResult, fn func(task.FoldResult) error, taskID string) (*taskflow.Task, error) {
	var snapshot *taskflow.Task
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result, ok := <-stream:
			if !ok {
				if snapshot == nil {
					return nil, StreamClosedError{TaskID: taskID}
				}
				return snapshot, nil
			}
			snapshot = result.Task
			if fn != nil {
				if err := fn(result); err != nil {
					return nil, err
				}
			}
		}
	}
}
