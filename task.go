// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// NewTask creates a new submitted Task from the first inbound message.
// Missing task and context ids are generated; the message is bound to both
// and recorded as the first history entry.
func NewTask(message *Message) (*Task, error) {
	if err := message.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	taskID := message.TaskID
	if taskID == "" {
		taskID = uuid.New().String()
	}
	contextID := message.ContextID
	if contextID == "" {
		contextID = uuid.New().String()
	}

	message.TaskID = taskID
	message.ContextID = contextID

	return &Task{
		ID:        taskID,
		ContextID: contextID,
		Kind:      KindTask,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		History: []*Message{message},
	}, nil
}

// Clone returns a deep copy of the task. Stores hand out clones so that
// concurrent readers never alias the persisted snapshot.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	clone := &Task{
		ID:        t.ID,
		ContextID: t.ContextID,
		Kind:      t.Kind,
		Status:    t.Status,
		Metadata:  cloneMetadata(t.Metadata),
	}
	if t.Status.Message != nil {
		clone.Status.Message = t.Status.Message.Clone()
	}
	if t.History != nil {
		clone.History = make([]*Message, len(t.History))
		for i, m := range t.History {
			clone.History[i] = m.Clone()
		}
	}
	if t.Artifacts != nil {
		clone.Artifacts = make([]*Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			clone.Artifacts[i] = a.Clone()
		}
	}
	return clone
}

// WithHistoryLength returns a copy of the task with history truncated to the
// last n messages. n == 0 keeps the full history. The stored task is never
// mutated; truncation is a read-side projection only.
func (t *Task) WithHistoryLength(n int) *Task {
	clone := t.Clone()
	if n <= 0 || len(clone.History) <= n {
		return clone
	}
	clone.History = clone.History[len(clone.History)-n:]
	return clone
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Parts = cloneParts(m.Parts)
	clone.Metadata = cloneMetadata(m.Metadata)
	return &clone
}

// Clone returns a deep copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Parts = cloneParts(a.Parts)
	clone.Metadata = cloneMetadata(a.Metadata)
	return &clone
}

func cloneParts(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	out := make([]Part, len(parts))
	for i, p := range parts {
		out[i] = p
		if p.File != nil {
			file := *p.File
			out[i].File = &file
		}
		out[i].Data = cloneMetadata(p.Data)
		out[i].Metadata = cloneMetadata(p.Metadata)
	}
	return out
}

func cloneMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	out := make(map[string]any, len(metadata))
	maps.Copy(out, metadata)
	return out
}
