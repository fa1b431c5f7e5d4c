// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-a2a/taskflow"
	"github.com/go-a2a/taskflow/server/agent_execution"
	"github.com/go-a2a/taskflow/server/event"
	"github.com/go-a2a/taskflow/server/task"
)

// DefaultMaxPageSize caps ListTasks page sizes.
const DefaultMaxPageSize = 200

// DefaultRequestHandler is the standard RequestHandler implementation. It
// owns one execution per running task: the event queue the executor
// publishes into, the aggregator that folds and persists, and the request
// context carrying the cooperative cancel signal.
type DefaultRequestHandler struct {
	executor     agent_execution.AgentExecutor
	taskStore    task.TaskStore
	pushStore    task.PushConfigStore
	pushSender   task.PushSender
	queueManager *event.QueueManager
	maxPageSize  int
	logger       *slog.Logger

	mu         sync.Mutex
	executions map[string]*execution
}

// execution is the per-task state of a running turn.
type execution struct {
	queue          *event.EventQueue
	aggregator     *task.ResultAggregator
	requestContext *agent_execution.RequestContext
}

var _ RequestHandler = (*DefaultRequestHandler)(nil)

// DefaultRequestHandlerConfig holds configuration for creating a
// DefaultRequestHandler.
type DefaultRequestHandlerConfig struct {
	// Executor runs the agent logic. Required.
	Executor agent_execution.AgentExecutor

	// TaskStore persists task snapshots. Required.
	TaskStore task.TaskStore

	// PushConfigStore holds webhook registrations. Nil selects an in-memory
	// store.
	PushConfigStore task.PushConfigStore

	// PushSender delivers snapshots to registered webhooks. Nil selects an
	// HTTP sender over the push config store.
	PushSender task.PushSender

	// QueueSize bounds each task's event queue. Zero selects the event
	// package default.
	QueueSize int

	// MaxPageSize caps ListTasks page sizes. Zero selects
	// DefaultMaxPageSize.
	MaxPageSize int

	Logger *slog.Logger
}

// NewDefaultRequestHandler creates a DefaultRequestHandler with the given
// configuration.
func NewDefaultRequestHandler(config DefaultRequestHandlerConfig) (*DefaultRequestHandler, error) {
	if config.Executor == nil {
		return nil, fmt.Errorf("agent executor cannot be nil")
	}
	if config.TaskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}

	pushStore := config.PushConfigStore
	if pushStore == nil {
		pushStore = task.NewInMemoryPushConfigStore()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pushSender := config.PushSender
	if pushSender == nil {
		sender, err := task.NewHTTPPushSender(task.HTTPPushSenderConfig{
			ConfigStore: pushStore,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		pushSender = sender
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = event.DefaultMaxQueueSize
	}
	maxPageSize := config.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}

	return &DefaultRequestHandler{
		executor:     config.Executor,
		taskStore:    config.TaskStore,
		pushStore:    pushStore,
		pushSender:   pushSender,
		queueManager: event.NewQueueManager(queueSize),
		maxPageSize:  maxPageSize,
		logger:       logger,
		executions:   make(map[string]*execution),
	}, nil
}

// SendMessage accepts a message and returns the task snapshot once the
// stream pauses, or immediately when the configuration is non-blocking.
func (h *DefaultRequestHandler) SendMessage(ctx context.Context, params MessageSendParams) (*taskflow.Task, error) {
	exec, err := h.setupExecution(ctx, params)
	if err != nil {
		return nil, err
	}

	blocking := params.Configuration == nil || params.Configuration.Blocking
	if !blocking {
		// The caller gets the snapshot as it stands; folds continue in the
		// background and reach them through push or a later GetTask.
		snapshot, err := exec.aggregator.Manager().GetTask(ctx)
		if err != nil {
			return nil, err
		}
		exec.aggregator.ContinueConsuming(context.WithoutCancel(ctx), exec.queue)
		return h.truncated(snapshot, params.Configuration), nil
	}

	snapshot, interrupted, err := exec.aggregator.ConsumeAndBreakOnInterrupt(ctx, exec.queue)
	if err != nil {
		return nil, err
	}
	if interrupted {
		// The producer is still running past the pause; keep folding so
		// push delivery and the stored snapshot stay current.
		exec.aggregator.ContinueConsuming(context.WithoutCancel(ctx), exec.queue)
	}
	return h.truncated(snapshot, params.Configuration), nil
}

// SendMessageStream accepts a message and returns the live fold stream.
func (h *DefaultRequestHandler) SendMessageStream(ctx context.Context, params MessageSendParams) (<-chan task.FoldResult, error) {
	exec, err := h.setupExecution(ctx, params)
	if err != nil {
		return nil, err
	}
	return exec.aggregator.ConsumeAndEmit(ctx, exec.queue), nil
}

// Resubscribe reattaches to a task's stream, snapshot first.
func (h *DefaultRequestHandler) Resubscribe(ctx context.Context, taskID string) (<-chan task.FoldResult, func(), error) {
	if taskID == "" {
		return nil, nil, taskflow.InvalidParamsError{Reason: "task id cannot be empty"}
	}

	stored, err := h.taskStore.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	h.mu.Lock()
	exec := h.executions[taskID]
	h.mu.Unlock()

	if exec != nil && !exec.aggregator.Ended() {
		ch, cancel := exec.aggregator.Subscribe(ctx)
		return ch, cancel, nil
	}

	// No live producer: the snapshot stands in for everything missed, and
	// the stream is already over.
	ch := make(chan task.FoldResult, 1)
	ch <- task.FoldResult{Task: stored, Event: stored}
	close(ch)
	return ch, func() {}, nil
}

// GetTask returns a task snapshot with read-side history truncation.
func (h *DefaultRequestHandler) GetTask(ctx context.Context, params TaskQueryParams) (*taskflow.Task, error) {
	if params.ID == "" {
		return nil, taskflow.InvalidParamsError{Reason: "task id cannot be empty"}
	}
	if params.HistoryLength != nil && *params.HistoryLength < 0 {
		return nil, taskflow.InvalidParamsError{Reason: fmt.Sprintf("history length cannot be negative: %d", *params.HistoryLength)}
	}

	stored, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if params.HistoryLength != nil {
		stored = stored.WithHistoryLength(*params.HistoryLength)
	}
	return stored, nil
}

// ListTasks returns one page of task projections.
func (h *DefaultRequestHandler) ListTasks(ctx context.Context, params taskflow.ListTasksParams) (*taskflow.ListTasksResult, error) {
	if params.PageSize < 0 {
		return nil, taskflow.InvalidParamsError{Reason: fmt.Sprintf("page size cannot be negative: %d", params.PageSize)}
	}
	if params.PageSize > h.maxPageSize {
		params.PageSize = h.maxPageSize
	}
	if params.Status != "" {
		normalized := taskflow.TaskState(strings.ToLower(strings.TrimSpace(string(params.Status))))
		if !normalized.Valid() {
			return nil, taskflow.InvalidParamsError{Reason: fmt.Sprintf("unknown status filter %q", params.Status)}
		}
		params.Status = normalized
	}

	tasks, nextToken, err := h.taskStore.List(ctx, params)
	if err != nil {
		return nil, err
	}

	// List results are projections: history never rides along, artifacts
	// only when asked for.
	for _, t := range tasks {
		t.History = nil
		if !params.IncludeArtifacts {
			t.Artifacts = nil
		}
	}

	return &taskflow.ListTasksResult{Tasks: tasks, NextPageToken: nextToken}, nil
}

// CancelTask requests cooperative cancellation of a task.
func (h *DefaultRequestHandler) CancelTask(ctx context.Context, taskID string) (*taskflow.Task, error) {
	if taskID == "" {
		return nil, taskflow.InvalidParamsError{Reason: "task id cannot be empty"}
	}

	stored, err := h.taskStore.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if stored.Terminal() {
		return nil, taskflow.TaskNotCancelableError{TaskID: taskID, State: stored.Status.State}
	}

	h.mu.Lock()
	exec := h.executions[taskID]
	h.mu.Unlock()

	if exec == nil || exec.aggregator.Ended() {
		// The task is paused with no live producer; fold the canceled
		// status directly.
		return h.cancelPaused(ctx, stored)
	}

	sub, cancelSub := exec.aggregator.Subscribe(ctx)
	defer cancelSub()

	exec.requestContext.SignalCancel()
	if err := h.executor.Cancel(ctx, exec.requestContext, exec.queue); err != nil {
		h.logger.Warn("executor cancel failed",
			"task_id", taskID,
			"error", err)
	}

	// Cancellation is cooperative: an executor may take a while to honor
	// the signal, or never honor it. The caller's context bounds the wait.
waiting:
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result, ok := <-sub:
			if !ok {
				break waiting
			}
			if result.Task != nil && result.Task.Status.State == taskflow.TaskStateCanceled {
				return result.Task, nil
			}
		}
	}

	// The stream ended without a canceled fold; report what actually
	// happened.
	final, err := h.taskStore.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if final.Status.State != taskflow.TaskStateCanceled {
		return nil, taskflow.TaskNotCancelableError{TaskID: taskID, State: final.Status.State}
	}
	return final, nil
}

// cancelPaused folds a canceled status into a task with no live producer.
func (h *DefaultRequestHandler) cancelPaused(ctx context.Context, stored *taskflow.Task) (*taskflow.Task, error) {
	manager, err := task.NewTaskManager(task.TaskManagerConfig{
		TaskID:      stored.ID,
		ContextID:   stored.ContextID,
		Store:       h.taskStore,
		InitialTask: stored,
	})
	if err != nil {
		return nil, err
	}

	canceled := &taskflow.TaskStatusUpdateEvent{
		Kind:      taskflow.KindStatusUpdate,
		TaskID:    stored.ID,
		ContextID: stored.ContextID,
		Status: taskflow.TaskStatus{
			State:     taskflow.TaskStateCanceled,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		Final: true,
	}

	snapshot, err := manager.Process(ctx, canceled)
	if err != nil {
		var notUpdatable task.TaskNotUpdatableError
		if errors.As(err, &notUpdatable) {
			return nil, taskflow.TaskNotCancelableError{TaskID: stored.ID, State: notUpdatable.From}
		}
		return nil, err
	}
	return snapshot, nil
}

// SetTaskPushConfig registers a webhook for a task.
func (h *DefaultRequestHandler) SetTaskPushConfig(ctx context.Context, config taskflow.TaskPushConfig) (*taskflow.TaskPushConfig, error) {
	if config.TaskID == "" {
		return nil, taskflow.InvalidParamsError{Reason: "task id cannot be empty"}
	}
	if err := config.Config.Validate(); err != nil {
		return nil, taskflow.InvalidParamsError{Reason: err.Error()}
	}
	if _, err := h.taskStore.Get(ctx, config.TaskID); err != nil {
		return nil, err
	}
	return h.pushStore.Save(ctx, config.TaskID, &config.Config)
}

// GetTaskPushConfig retrieves one webhook registration.
func (h *DefaultRequestHandler) GetTaskPushConfig(ctx context.Context, taskID, configID string) (*taskflow.TaskPushConfig, error) {
	if taskID == "" {
		return nil, taskflow.InvalidParamsError{Reason: "task id cannot be empty"}
	}
	if _, err := h.taskStore.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return h.pushStore.Get(ctx, taskID, configID)
}

// ListTaskPushConfigs retrieves all webhook registrations for a task.
func (h *DefaultRequestHandler) ListTaskPushConfigs(ctx context.Context, taskID string) ([]*taskflow.TaskPushConfig, error) {
	if taskID == "" {
		return nil, taskflow.InvalidParamsError{Reason: "task id cannot be empty"}
	}
	if _, err := h.taskStore.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return h.pushStore.List(ctx, taskID)
}

// DeleteTaskPushConfig removes a webhook registration.
func (h *DefaultRequestHandler) DeleteTaskPushConfig(ctx context.Context, taskID, configID string) error {
	if taskID == "" {
		return taskflow.InvalidParamsError{Reason: "task id cannot be empty"}
	}
	if _, err := h.taskStore.Get(ctx, taskID); err != nil {
		return err
	}
	return h.pushStore.Delete(ctx, taskID, configID)
}

// Close shuts the handler down, closing every live queue.
func (h *DefaultRequestHandler) Close() error {
	return h.queueManager.CloseAll()
}

// setupExecution validates the send, resolves or creates the task, wires
// the queue and aggregator, and starts the executor.
func (h *DefaultRequestHandler) setupExecution(ctx context.Context, params MessageSendParams) (*execution, error) {
	message := params.Message
	if message == nil {
		return nil, taskflow.InvalidParamsError{Reason: "message cannot be nil"}
	}
	if err := message.Validate(); err != nil {
		return nil, taskflow.InvalidParamsError{Reason: err.Error()}
	}
	if params.Configuration != nil && params.Configuration.HistoryLength != nil && *params.Configuration.HistoryLength < 0 {
		return nil, taskflow.InvalidParamsError{Reason: fmt.Sprintf("history length cannot be negative: %d", *params.Configuration.HistoryLength)}
	}

	// A message naming a task continues that task; it must exist.
	var current *taskflow.Task
	if message.TaskID != "" {
		stored, err := h.taskStore.Get(ctx, message.TaskID)
		if err != nil {
			return nil, err
		}
		current = stored
	}

	requestContext, err := agent_execution.NewRequestContext(agent_execution.RequestContextConfig{
		Message:     message,
		CurrentTask: current,
	})
	if err != nil {
		return nil, taskflow.InvalidParamsError{Reason: err.Error()}
	}
	taskID := requestContext.TaskID()

	manager, err := task.NewTaskManager(task.TaskManagerConfig{
		TaskID:      taskID,
		ContextID:   requestContext.ContextID(),
		Store:       h.taskStore,
		InitialTask: current,
	})
	if err != nil {
		return nil, err
	}

	aggregator, err := task.NewResultAggregator(task.ResultAggregatorConfig{
		Manager:    manager,
		PushSender: h.pushSender,
		Logger:     h.logger,
	})
	if err != nil {
		return nil, err
	}

	// Reserve the task before touching the store; a send against a task
	// with a live turn must be rejected without leaving a partially
	// persisted message behind.
	h.mu.Lock()
	if existing, exists := h.executions[taskID]; exists && !existing.aggregator.Ended() {
		h.mu.Unlock()
		return nil, taskflow.InvalidParamsError{Reason: fmt.Sprintf("task %s is already being processed", taskID)}
	}
	queue, err := h.queueManager.CreateOrTap(taskID)
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}
	exec := &execution{
		queue:          queue,
		aggregator:     aggregator,
		requestContext: requestContext,
	}
	h.executions[taskID] = exec
	h.mu.Unlock()

	if err := h.persistInbound(ctx, params, exec); err != nil {
		h.releaseExecution(exec)
		return nil, err
	}

	go h.runExecutor(ctx, exec)
	return exec, nil
}

// persistInbound stores the inbound message before the executor runs:
// continuing tasks append it to history, new tasks start as a submitted
// snapshot carrying it. The push config, when supplied, registers alongside.
func (h *DefaultRequestHandler) persistInbound(ctx context.Context, params MessageSendParams, exec *execution) error {
	message := params.Message
	requestContext := exec.requestContext
	manager := exec.aggregator.Manager()
	taskID := requestContext.TaskID()

	if params.Configuration != nil && params.Configuration.PushConfig != nil {
		if _, err := h.pushStore.Save(ctx, taskID, params.Configuration.PushConfig); err != nil {
			return err
		}
	}

	if requestContext.CurrentTask() != nil {
		updated, err := manager.UpdateWithMessage(ctx, message)
		if err != nil {
			return err
		}
		requestContext.SetCurrentTask(updated)
		return nil
	}

	seed := message.Clone()
	seed.TaskID = taskID
	seed.ContextID = requestContext.ContextID()
	initial := &taskflow.Task{
		ID:        taskID,
		ContextID: requestContext.ContextID(),
		Kind:      taskflow.KindTask,
		Status: taskflow.TaskStatus{
			State:     taskflow.TaskStateSubmitted,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		History: []*taskflow.Message{seed},
	}
	snapshot, err := manager.Process(ctx, initial)
	if err != nil {
		return err
	}
	requestContext.SetCurrentTask(snapshot)
	return nil
}

// releaseExecution closes a turn's queue and unregisters its entries. Only
// entries this turn registered are removed; a follow-up turn may already
// have replaced them.
func (h *DefaultRequestHandler) releaseExecution(exec *execution) {
	taskID := exec.requestContext.TaskID()
	exec.queue.Close()
	if h.queueManager.Get(taskID) == exec.queue {
		if err := h.queueManager.Close(taskID); err != nil {
			var noQueue event.NoTaskQueueError
			if !errors.As(err, &noQueue) {
				h.logger.Warn("failed to close task queue", "task_id", taskID, "error", err)
			}
		}
	}
	h.mu.Lock()
	if h.executions[taskID] == exec {
		delete(h.executions, taskID)
	}
	h.mu.Unlock()
}

// runExecutor drives one executor turn and closes the queue when it ends.
// An executor error forces the task into the failed state through the
// normal fold path.
func (h *DefaultRequestHandler) runExecutor(ctx context.Context, exec *execution) {
	taskID := exec.requestContext.TaskID()
	defer h.releaseExecution(exec)

	// The execution outlives the request that started it.
	execCtx := context.WithoutCancel(ctx)

	if err := h.executor.Execute(execCtx, exec.requestContext, exec.queue); err != nil {
		h.logger.Error("agent execution failed",
			"task_id", taskID,
			"error", taskflow.ExecutionError{TaskID: taskID, Err: err})

		failed := &taskflow.TaskStatusUpdateEvent{
			Kind:      taskflow.KindStatusUpdate,
			TaskID:    taskID,
			ContextID: exec.requestContext.ContextID(),
			Status: taskflow.TaskStatus{
				State:   taskflow.TaskStateFailed,
				Message: taskflow.NewAgentTextMessage(taskID, exec.requestContext.ContextID(), err.Error()),
			},
			Final: true,
		}
		if enqErr := exec.queue.Enqueue(execCtx, failed); enqErr != nil {
			h.logger.Error("failed to publish failure status",
				"task_id", taskID,
				"error", enqErr)
		}
	}
}

// truncated applies the send configuration's history bound to a snapshot.
func (h *DefaultRequestHandler) truncated(snapshot *taskflow.Task, config *taskflow.SendConfiguration) *taskflow.Task {
	if snapshot == nil || config == nil || config.HistoryLength == nil {
		return snapshot
	}
	return snapshot.WithHistoryLength(*config.HistoryLength)
}
