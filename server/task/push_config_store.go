// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-a2a/taskflow"
)

// PushConfigStore defines the interface for storing and retrieving webhook
// registrations. A task may carry any number of registrations, keyed by
// config ID; a registration whose ID is empty is keyed by its URL.
type PushConfigStore interface {
	// Save stores a webhook registration for a task, replacing any existing
	// registration with the same config ID.
	Save(ctx context.Context, taskID string, config *taskflow.PushNotificationConfig) (*taskflow.TaskPushConfig, error)

	// Get retrieves one registration. An empty configID selects the sole
	// registration when exactly one exists.
	Get(ctx context.Context, taskID, configID string) (*taskflow.TaskPushConfig, error)

	// List retrieves all registrations for a task, in insertion order.
	// Returns an empty slice when the task has none.
	List(ctx context.Context, taskID string) ([]*taskflow.TaskPushConfig, error)

	// Delete removes a registration. Returns PushConfigNotFoundError if it
	// does not exist.
	Delete(ctx context.Context, taskID, configID string) error
}

// InMemoryPushConfigStore is an in-memory implementation of PushConfigStore.
// Registrations are lost when the server process stops. All operations are
// safe for concurrent use.
type InMemoryPushConfigStore struct {
	mu      sync.RWMutex
	configs map[string]map[string]*taskflow.PushNotificationConfig
	order   map[string][]string
}

var _ PushConfigStore = (*InMemoryPushConfigStore)(nil)

// NewInMemoryPushConfigStore creates a new in-memory push config store.
func NewInMemoryPushConfigStore() *InMemoryPushConfigStore {
	return &InMemoryPushConfigStore{
		configs: make(map[string]map[string]*taskflow.PushNotificationConfig),
		order:   make(map[string][]string),
	}
}

// Save stores a webhook registration for a task.
func (s *InMemoryPushConfigStore) Save(ctx context.Context, taskID string, config *taskflow.PushNotificationConfig) (*taskflow.TaskPushConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stored := *config
	if stored.ID == "" {
		stored.ID = stored.URL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.configs[taskID]
	if !ok {
		byID = make(map[string]*taskflow.PushNotificationConfig)
		s.configs[taskID] = byID
	}
	if _, exists := byID[stored.ID]; !exists {
		s.order[taskID] = append(s.order[taskID], stored.ID)
	}
	byID[stored.ID] = &stored

	return &taskflow.TaskPushConfig{TaskID: taskID, Config: stored}, nil
}

// Get retrieves one registration.
func (s *InMemoryPushConfigStore) Get(ctx context.Context, taskID, configID string) (*taskflow.TaskPushConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.configs[taskID]
	if configID == "" && len(byID) == 1 {
		for id := range byID {
			configID = id
		}
	}
	config, ok := byID[configID]
	if !ok {
		return nil, PushConfigNotFoundError{TaskID: taskID, ConfigID: configID}
	}

	stored := *config
	return &taskflow.TaskPushConfig{TaskID: taskID, Config: stored}, nil
}

// List retrieves all registrations for a task, in insertion order.
func (s *InMemoryPushConfigStore) List(ctx context.Context, taskID string) ([]*taskflow.TaskPushConfig, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.configs[taskID]
	result := make([]*taskflow.TaskPushConfig, 0, len(byID))
	for _, id := range s.order[taskID] {
		config := *byID[id]
		result = append(result, &taskflow.TaskPushConfig{TaskID: taskID, Config: config})
	}
	return result, nil
}

// Delete removes a registration.
func (s *InMemoryPushConfigStore) Delete(ctx context.Context, taskID, configID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.configs[taskID]
	if _, ok := byID[configID]; !ok {
		return PushConfigNotFoundError{TaskID: taskID, ConfigID: configID}
	}
	delete(byID, configID)

	ids := s.order[taskID]
	for i, id := range ids {
		if id == configID {
			s.order[taskID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(byID) == 0 {
		delete(s.configs, taskID)
		delete(s.order, taskID)
	}
	return nil
}
