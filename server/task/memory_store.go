// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-a2a/taskflow"
)

// InMemoryTaskStore is an in-memory TaskStore. Task data is lost when the
// process stops. All operations are safe for concurrent use; reads and
// writes for different task ids do not serialize against each other beyond
// the map lock.
type InMemoryTaskStore struct {
	mu           sync.RWMutex
	tasks        map[string]*taskflow.Task
	createdOrder []string
}

var _ TaskStore = (*InMemoryTaskStore)(nil)

// NewInMemoryTaskStore creates an empty InMemoryTaskStore.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*taskflow.Task),
	}
}

// Save persists a task snapshot. First-time saves record the task's position
// in the creation order used by List.
func (s *InMemoryTaskStore) Save(ctx context.Context, task *taskflow.Task) error {
	if err := task.Validate(); err != nil {
		return TaskStoreError{Operation: "save", TaskID: taskID(task), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		s.createdOrder = append(s.createdOrder, task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get retrieves a copy of a task snapshot by id.
func (s *InMemoryTaskStore) Get(ctx context.Context, taskID string) (*taskflow.Task, error) {
	if taskID == "" {
		return nil, TaskStoreError{Operation: "get", TaskID: taskID, Err: fmt.Errorf("task id cannot be empty")}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, taskflow.TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// Delete removes a task. The creation-order slot is kept; List skips ids
// with no stored task.
func (s *InMemoryTaskStore) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return taskflow.TaskNotFoundError{TaskID: taskID}
	}
	delete(s.tasks, taskID)
	return nil
}

// List returns one page of matching tasks in creation order. The page token
// is a decimal offset into the filtered sequence.
func (s *InMemoryTaskStore) List(ctx context.Context, params taskflow.ListTasksParams) ([]*taskflow.Task, string, error) {
	offset := 0
	if params.PageToken != "" {
		parsed, err := strconv.Atoi(params.PageToken)
		if err != nil || parsed < 0 {
			return nil, "", taskflow.InvalidParamsError{Reason: fmt.Sprintf("malformed page token %q", params.PageToken)}
		}
		offset = parsed
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	statusFilter := taskflow.TaskState(strings.ToLower(strings.TrimSpace(string(params.Status))))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []*taskflow.Task
	for _, id := range s.createdOrder {
		task, exists := s.tasks[id]
		if !exists {
			continue
		}
		if params.ContextID != "" && task.ContextID != params.ContextID {
			continue
		}
		if statusFilter != "" && task.Status.State != statusFilter {
			continue
		}
		filtered = append(filtered, task)
	}

	if offset >= len(filtered) {
		return nil, "", nil
	}

	end := min(offset+pageSize, len(filtered))
	page := make([]*taskflow.Task, 0, end-offset)
	for _, task := range filtered[offset:end] {
		page = append(page, task.Clone())
	}

	nextToken := ""
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	}
	return page, nextToken, nil
}

// Size returns the number of stored tasks. Useful for tests and monitoring.
func (s *InMemoryTaskStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func taskID(task *taskflow.Task) string {
	if task == nil {
		return ""
	}
	return task.ID
}
