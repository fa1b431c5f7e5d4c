// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-a2a/taskflow"
)

// TaskManager folds lifecycle events for a single task id into persisted
// snapshots. It is the sole writer of the task's store entry: every fold
// persists the new snapshot before the caller may forward the event, so a
// concurrent reader never observes a forwarded event without the matching
// store update. Folds are serialized by an internal mutex.
type TaskManager struct {
	taskID    string
	contextID string
	store     TaskStore

	mu   sync.Mutex
	task *taskflow.Task
}

// TaskManagerConfig holds configuration for creating a TaskManager.
type TaskManagerConfig struct {
	TaskID    string
	ContextID string
	Store     TaskStore

	// InitialTask seeds the in-memory snapshot, avoiding a store round trip
	// when the caller already resolved the task.
	InitialTask *taskflow.Task
}

// NewTaskManager creates a TaskManager with the given configuration.
func NewTaskManager(config TaskManagerConfig) (*TaskManager, error) {
	if config.TaskID == "" {
		return nil, fmt.Errorf("task id cannot be empty")
	}
	if config.ContextID == "" {
		return nil, fmt.Errorf("context id cannot be empty")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}

	return &TaskManager{
		taskID:    config.TaskID,
		contextID: config.ContextID,
		store:     config.Store,
		task:      config.InitialTask,
	}, nil
}

// TaskID returns the task id this manager folds for.
func (m *TaskManager) TaskID() string { return m.taskID }

// ContextID returns the context id this manager folds for.
func (m *TaskManager) ContextID() string { return m.contextID }

// GetTask returns the current snapshot, loading it from the store on first
// access. Returns taskflow.TaskNotFoundError if no snapshot exists yet.
func (m *TaskManager) GetTask(ctx context.Context) (*taskflow.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked(ctx)
}

func (m *TaskManager) currentLocked(ctx context.Context) (*taskflow.Task, error) {
	if m.task != nil {
		return m.task, nil
	}
	task, err := m.store.Get(ctx, m.taskID)
	if err != nil {
		return nil, err
	}
	m.task = task
	return task, nil
}

// Process folds one event into the snapshot and persists the result,
// returning the new snapshot. A fold against a terminal snapshot, or one
// whose transition the state machine forbids, fails with
// TaskNotUpdatableError and persists nothing. Bare message events do not
// touch the snapshot and return it unchanged.
func (m *TaskManager) Process(ctx context.Context, event taskflow.Event) (*taskflow.Task, error) {
	if event == nil {
		return nil, fmt.Errorf("event cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, err := m.currentLocked(ctx)
	if err != nil {
		var notFound taskflow.TaskNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// First event for a task the store has not seen yet.
		prev = nil
	}

	var next *taskflow.Task
	switch e := event.(type) {
	case *taskflow.Task:
		next, err = m.foldSnapshot(prev, e)
	case *taskflow.TaskStatusUpdateEvent:
		next, err = m.foldStatus(prev, e)
	case *taskflow.TaskArtifactUpdateEvent:
		next, err = m.foldArtifact(prev, e)
	case *taskflow.Message:
		// Bare messages are stream output, not task mutations.
		return prev, nil
	default:
		return nil, fmt.Errorf("unknown event type %T", event)
	}
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, next); err != nil {
		return nil, err
	}
	m.task = next
	return next, nil
}

// UpdateWithMessage appends an inbound user message to the task history and
// persists immediately. Used when a follow-up message continues an existing
// task before the executor produces any event.
func (m *TaskManager) UpdateWithMessage(ctx context.Context, message *taskflow.Message) (*taskflow.Task, error) {
	if err := message.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, err := m.currentLocked(ctx)
	if err != nil {
		return nil, err
	}
	if prev.Terminal() {
		return nil, TaskNotUpdatableError{TaskID: m.taskID, From: prev.Status.State, To: prev.Status.State}
	}

	next := prev.Clone()
	// A prior pause's status message becomes part of the durable record
	// before the new turn begins.
	if next.Status.Message != nil {
		next.History = append(next.History, next.Status.Message)
		next.Status.Message = nil
	}
	next.History = append(next.History, message.Clone())

	if err := m.store.Save(ctx, next); err != nil {
		return nil, err
	}
	m.task = next
	return next, nil
}

func (m *TaskManager) foldSnapshot(prev, event *taskflow.Task) (*taskflow.Task, error) {
	if event.ID != m.taskID {
		return nil, EventMismatchError{ManagerTaskID: m.taskID, EventTaskID: event.ID}
	}
	if prev != nil {
		if prev.Terminal() {
			return nil, TaskNotUpdatableError{TaskID: m.taskID, From: prev.Status.State, To: event.Status.State}
		}
		if event.ContextID != prev.ContextID {
			return nil, fmt.Errorf("task %s context id cannot change from %q to %q", m.taskID, prev.ContextID, event.ContextID)
		}
	}
	next := event.Clone()
	if next.Kind == "" {
		next.Kind = taskflow.KindTask
	}
	return next, nil
}

func (m *TaskManager) foldStatus(prev *taskflow.Task, event *taskflow.TaskStatusUpdateEvent) (*taskflow.Task, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if event.TaskID != m.taskID {
		return nil, EventMismatchError{ManagerTaskID: m.taskID, EventTaskID: event.TaskID}
	}

	next := m.ensureTask(prev)
	if !next.Status.State.CanTransitionTo(event.Status.State) {
		return nil, TaskNotUpdatableError{TaskID: m.taskID, From: next.Status.State, To: event.Status.State}
	}

	// The superseded status message joins the history; the new status
	// message arrives with the new status.
	if next.Status.Message != nil {
		next.History = append(next.History, next.Status.Message)
	}
	next.Status = event.Status
	if next.Status.Timestamp == "" {
		next.Status.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return next, nil
}

func (m *TaskManager) foldArtifact(prev *taskflow.Task, event *taskflow.TaskArtifactUpdateEvent) (*taskflow.Task, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if event.TaskID != m.taskID {
		return nil, EventMismatchError{ManagerTaskID: m.taskID, EventTaskID: event.TaskID}
	}

	next := m.ensureTask(prev)
	if next.Terminal() {
		return nil, TaskNotUpdatableError{TaskID: m.taskID, From: next.Status.State, To: next.Status.State}
	}

	incoming := event.Artifact.Clone()
	existing := -1
	for i, artifact := range next.Artifacts {
		if artifact.ArtifactID == incoming.ArtifactID {
			existing = i
			break
		}
	}

	switch {
	case existing < 0:
		next.Artifacts = append(next.Artifacts, incoming)
	case event.Append:
		next.Artifacts[existing].Parts = append(next.Artifacts[existing].Parts, incoming.Parts...)
	default:
		next.Artifacts[existing] = incoming
	}
	return next, nil
}

// ensureTask returns a mutable copy of prev, or a fresh submitted task when
// the first event for the id is not a full snapshot.
func (m *TaskManager) ensureTask(prev *taskflow.Task) *taskflow.Task {
	if prev != nil {
		return prev.Clone()
	}
	return &taskflow.Task{
		ID:        m.taskID,
		ContextID: m.contextID,
		Kind:      taskflow.KindTask,
		Status: taskflow.TaskStatus{
			State:     taskflow.TaskStateSubmitted,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
