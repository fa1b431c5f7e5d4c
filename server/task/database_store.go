// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"gorm.io/gorm"

	"github.com/go-a2a/taskflow"
)

// TaskModel is the GORM row backing DatabaseTaskStore. The full snapshot is
// stored as a JSON column; the filterable fields are denormalized alongside
// it so List can push filters into the database.
type TaskModel struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    string `gorm:"uniqueIndex;size:64"`
	ContextID string `gorm:"index;size:64"`
	State     string `gorm:"index;size:32"`
	Snapshot  []byte `gorm:"type:jsonb"`
}

// TableName returns the default table name for task rows.
func (TaskModel) TableName() string { return "tasks" }

// NewTaskModel converts a task snapshot into its database row.
func NewTaskModel(task *taskflow.Task) (*TaskModel, error) {
	snapshot, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task snapshot: %w", err)
	}
	return &TaskModel{
		TaskID:    task.ID,
		ContextID: task.ContextID,
		State:     string(task.Status.State),
		Snapshot:  snapshot,
	}, nil
}

// ToTask converts the row back into a task snapshot.
func (m *TaskModel) ToTask() (*taskflow.Task, error) {
	var task taskflow.Task
	if err := json.Unmarshal(m.Snapshot, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task snapshot: %w", err)
	}
	return &task, nil
}

// DatabaseTaskStore is a TaskStore backed by a GORM-managed database. The
// caller supplies the connected *gorm.DB with its driver of choice.
type DatabaseTaskStore struct {
	db *gorm.DB
}

var _ TaskStore = (*DatabaseTaskStore)(nil)

// DatabaseTaskStoreConfig holds configuration for DatabaseTaskStore.
type DatabaseTaskStoreConfig struct {
	DB *gorm.DB

	// Migrate creates or updates the tasks table on construction.
	Migrate bool
}

// NewDatabaseTaskStore creates a DatabaseTaskStore.
func NewDatabaseTaskStore(config DatabaseTaskStoreConfig) (*DatabaseTaskStore, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	if config.Migrate {
		if err := config.DB.AutoMigrate(&TaskModel{}); err != nil {
			return nil, fmt.Errorf("failed to migrate tasks table: %w", err)
		}
	}
	return &DatabaseTaskStore{db: config.DB}, nil
}

// Save persists a task snapshot, updating the existing row when one exists.
func (s *DatabaseTaskStore) Save(ctx context.Context, task *taskflow.Task) error {
	if err := task.Validate(); err != nil {
		return TaskStoreError{Operation: "save", TaskID: taskID(task), Err: err}
	}

	model, err := NewTaskModel(task)
	if err != nil {
		return TaskStoreError{Operation: "save", TaskID: task.ID, Err: err}
	}

	db := s.db.WithContext(ctx)

	var existing TaskModel
	err = db.Where("task_id = ?", task.ID).First(&existing).Error
	switch {
	case err == nil:
		model.Seq = existing.Seq
		if err := db.Save(model).Error; err != nil {
			return TaskStoreError{Operation: "save", TaskID: task.ID, Err: err}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(model).Error; err != nil {
			return TaskStoreError{Operation: "save", TaskID: task.ID, Err: err}
		}
	default:
		return TaskStoreError{Operation: "save", TaskID: task.ID, Err: err}
	}
	return nil
}

// Get retrieves a task snapshot by id.
func (s *DatabaseTaskStore) Get(ctx context.Context, taskID string) (*taskflow.Task, error) {
	if taskID == "" {
		return nil, TaskStoreError{Operation: "get", TaskID: taskID, Err: fmt.Errorf("task id cannot be empty")}
	}

	var model TaskModel
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taskflow.TaskNotFoundError{TaskID: taskID}
		}
		return nil, TaskStoreError{Operation: "get", TaskID: taskID, Err: err}
	}

	task, err := model.ToTask()
	if err != nil {
		return nil, TaskStoreError{Operation: "get", TaskID: taskID, Err: err}
	}
	return task, nil
}

// Delete removes a task row.
func (s *DatabaseTaskStore) Delete(ctx context.Context, taskID string) error {
	result := s.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&TaskModel{})
	if result.Error != nil {
		return TaskStoreError{Operation: "delete", TaskID: taskID, Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return taskflow.TaskNotFoundError{TaskID: taskID}
	}
	return nil
}

// List returns one page of matching tasks ordered by insertion sequence.
func (s *DatabaseTaskStore) List(ctx context.Context, params taskflow.ListTasksParams) ([]*taskflow.Task, string, error) {
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

	query := s.db.WithContext(ctx).Model(&TaskModel{}).Order("seq")
	if params.ContextID != "" {
		query = query.Where("context_id = ?", params.ContextID)
	}
	if params.Status != "" {
		status := strings.ToLower(strings.TrimSpace(string(params.Status)))
		query = query.Where("state = ?", status)
	}

	// Fetch one extra row to learn whether another page exists.
	var models []TaskModel
	if err := query.Offset(offset).Limit(pageSize + 1).Find(&models).Error; err != nil {
		return nil, "", TaskStoreError{Operation: "list", Err: err}
	}

	nextToken := ""
	if len(models) > pageSize {
		models = models[:pageSize]
		nextToken = strconv.Itoa(offset + pageSize)
	}

	tasks := make([]*taskflow.Task, 0, len(models))
	for _, model := range models {
		task, err := model.ToTask()
		if err != nil {
			return nil, "", TaskStoreError{Operation: "list", TaskID: model.TaskID, Err: err}
		}
		tasks = append(tasks, task)
	}
	return tasks, nextToken, nil
}
