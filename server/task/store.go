// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"

	"github.com/go-a2a/taskflow"
)

// TaskStore defines the persistence contract for task snapshots. The
// TaskManager is the sole writer during a task's life; delivery adapters and
// the query service read concurrently, so implementations must hand out
// copies that never alias the stored snapshot.
type TaskStore interface {
	// Save persists a task snapshot, last-writer-wins per task id.
	Save(ctx context.Context, task *taskflow.Task) error

	// Get retrieves a task snapshot by id. Returns
	// taskflow.TaskNotFoundError if the id is unknown.
	Get(ctx context.Context, taskID string) (*taskflow.Task, error)

	// Delete removes a task. Returns taskflow.TaskNotFoundError if the id
	// is unknown.
	Delete(ctx context.Context, taskID string) error

	// List returns one page of tasks in stable creation order, applying the
	// params' context and status filters. PageToken is an opaque
	// continuation token from a previous call; the returned token is empty
	// on the last page. List does not apply response projections; callers
	// strip history and artifacts as their transport requires.
	List(ctx context.Context, params taskflow.ListTasksParams) ([]*taskflow.Task, string, error)
}
