// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"sync"
)

// PhaseStore tracks where a multi-turn conversation stands per task, so an
// executor paused at input-required can resume at the right step when the
// follow-up message arrives. Phases live outside the task snapshot: they
// are executor bookkeeping, not protocol state.
type PhaseStore struct {
	mu     sync.RWMutex
	phases map[string]string
}

// NewPhaseStore creates an empty PhaseStore.
func NewPhaseStore() *PhaseStore {
	return &PhaseStore{
		phases: make(map[string]string),
	}
}

// Get returns the recorded phase for a task, or "" when none is recorded.
func (s *PhaseStore) Get(taskID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phases[taskID]
}

// Set records the phase for a task.
func (s *PhaseStore) Set(taskID, phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phases[taskID] = phase
}

// Delete clears the recorded phase for a task, typically once the task
// reaches a terminal state.
func (s *PhaseStore) Delete(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.phases, taskID)
}
