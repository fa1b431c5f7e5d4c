// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"strings"

	"github.com/google/uuid"
)

// NewUserMessage creates a user-authored text message with a generated id.
func NewUserMessage(text string) *Message {
	return &Message{
		Kind:      KindMessage,
		MessageID: uuid.New().String(),
		Role:      RoleUser,
		Parts:     []Part{NewTextPart(text)},
	}
}

// NewAgentMessage creates an agent-authored message bound to a task.
func NewAgentMessage(taskID, contextID string, parts ...Part) *Message {
	return &Message{
		Kind:      KindMessage,
		MessageID: uuid.New().String(),
		Role:      RoleAgent,
		Parts:     parts,
		TaskID:    taskID,
		ContextID: contextID,
	}
}

// NewAgentTextMessage creates an agent-authored text message bound to a task.
func NewAgentTextMessage(taskID, contextID, text string) *Message {
	return NewAgentMessage(taskID, contextID, NewTextPart(text))
}

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewDataPart creates a structured data part.
func NewDataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

// NewFilePart creates a file part.
func NewFilePart(file *FileContent) Part {
	return Part{Kind: PartKindFile, File: file}
}

// Text concatenates the message's text parts, joined by newlines.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	var texts []string
	for _, part := range m.Parts {
		if part.Kind == PartKindText {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}
