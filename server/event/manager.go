// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"sync"
)

// QueueManager tracks the live event queue for each task id. The execution
// engine registers a queue when an invocation starts and closes it when the
// invocation ends; resubscribers tap the registered queue to attach to the
// live stream.
type QueueManager struct {
	mu           sync.RWMutex
	queues       map[string]*EventQueue
	maxQueueSize int
}

// NewQueueManager creates a queue manager. maxQueueSize bounds queues
// created through CreateOrTap; zero selects DefaultMaxQueueSize.
func NewQueueManager(maxQueueSize int) *QueueManager {
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	}
	return &QueueManager{
		queues:       make(map[string]*EventQueue),
		maxQueueSize: maxQueueSize,
	}
}

// Add registers a queue for a task id. Returns TaskQueueExistsError if one
// is already registered.
func (m *QueueManager) Add(taskID string, queue *EventQueue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.queues[taskID]; exists {
		return TaskQueueExistsError{TaskID: taskID}
	}
	m.queues[taskID] = queue
	return nil
}

// Get returns the queue registered for a task id, or nil.
func (m *QueueManager) Get(taskID string) *EventQueue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queues[taskID]
}

// Tap creates a child queue of the task's registered queue. Returns
// NoTaskQueueError if no queue is registered.
func (m *QueueManager) Tap(taskID string) (*EventQueue, error) {
	m.mu.RLock()
	queue := m.queues[taskID]
	m.mu.RUnlock()

	if queue == nil {
		return nil, NoTaskQueueError{TaskID: taskID}
	}
	return queue.Tap()
}

// CreateOrTap returns a new registered queue for the task id, or a tap of
// the existing one. A closed leftover queue is replaced, so a new turn for
// the same task always gets a live queue.
func (m *QueueManager) CreateOrTap(taskID string) (*EventQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if queue, exists := m.queues[taskID]; exists && !queue.IsClosed() {
		return queue.Tap()
	}

	queue, err := NewEventQueue(m.maxQueueSize)
	if err != nil {
		return nil, err
	}
	m.queues[taskID] = queue
	return queue, nil
}

// Close closes and unregisters the queue for a task id. Returns
// NoTaskQueueError if no queue is registered.
func (m *QueueManager) Close(taskID string) error {
	m.mu.Lock()
	queue := m.queues[taskID]
	delete(m.queues, taskID)
	m.mu.Unlock()

	if queue == nil {
		return NoTaskQueueError{TaskID: taskID}
	}
	return queue.Close()
}

// Exists reports whether a queue is registered for a task id.
func (m *QueueManager) Exists(taskID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.queues[taskID]
	return exists
}

// Count returns the number of registered queues.
func (m *QueueManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queues)
}

// CloseAll closes and unregisters every queue.
func (m *QueueManager) CloseAll() error {
	m.mu.Lock()
	queues := m.queues
	m.queues = make(map[string]*EventQueue)
	m.mu.Unlock()

	for _, queue := range queues {
		_ = queue.Close()
	}
	return nil
}
