// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"fmt"
)

// Kind discriminator values used on the wire for polymorphic payloads.
const (
	KindTask           = "task"
	KindMessage        = "message"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

// Role identifies the author of a Message.
type Role string

const (
	// RoleUser marks a message authored by the calling client.
	RoleUser Role = "user"

	// RoleAgent marks a message authored by the agent.
	RoleAgent Role = "agent"
)

// PartKind identifies the payload carried by a Part.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// FileContent holds file payload for a file part. Exactly one of Bytes
// (base64-encoded content) or URI should be set.
type FileContent struct {
	// Name is the file name.
	Name string `json:"name,omitzero"`

	// MIMEType is the media type of the file content.
	MIMEType string `json:"mimeType,omitzero"`

	// Bytes is the base64-encoded file content.
	Bytes string `json:"bytes,omitzero"`

	// URI is a reference to externally hosted file content.
	URI string `json:"uri,omitzero"`
}

// Part is one segment of a message or artifact payload, discriminated by
// Kind into text, file, or structured data.
type Part struct {
	// Kind discriminates the part payload.
	Kind PartKind `json:"kind"`

	// Text is the text content for text parts.
	Text string `json:"text,omitzero"`

	// File is the file content for file parts.
	File *FileContent `json:"file,omitzero"`

	// Data is the structured content for data parts.
	Data map[string]any `json:"data,omitzero"`

	// Metadata holds optional part-level metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the part carries the payload its kind promises.
func (p Part) Validate() error {
	switch p.Kind {
	case PartKindText:
		if p.Text == "" {
			return fmt.Errorf("text part must have text content")
		}
	case PartKindFile:
		if p.File == nil {
			return fmt.Errorf("file part must have file content")
		}
		if p.File.Bytes == "" && p.File.URI == "" {
			return fmt.Errorf("file part must have bytes or uri")
		}
	case PartKindData:
		if p.Data == nil {
			return fmt.Errorf("data part must have data content")
		}
	default:
		return fmt.Errorf("unknown part kind: %q", p.Kind)
	}
	return nil
}

// Message represents one turn of dialogue between a user and an agent.
type Message struct {
	// Kind is always "message".
	Kind string `json:"kind"`

	// MessageID uniquely identifies the message.
	MessageID string `json:"messageId"`

	// Role identifies the message author.
	Role Role `json:"role"`

	// Parts is the ordered message payload.
	Parts []Part `json:"parts"`

	// TaskID binds the message to a task, when known.
	TaskID string `json:"taskId,omitzero"`

	// ContextID binds the message to a conversation context, when known.
	ContextID string `json:"contextId,omitzero"`

	// Metadata holds optional message-level metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the message has an author, an id, and at least one part.
func (m *Message) Validate() error {
	if m == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if m.MessageID == "" {
		return fmt.Errorf("message id cannot be empty")
	}
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must have at least one part")
	}
	for i, part := range m.Parts {
		if err := part.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}

// TaskStatus is the current state of a task with an optional status message.
type TaskStatus struct {
	// State is the lifecycle state.
	State TaskState `json:"state"`

	// Message optionally describes the status for a human reader.
	Message *Message `json:"message,omitzero"`

	// Timestamp is an ISO 8601 datetime string recording when the status
	// was set.
	Timestamp string `json:"timestamp,omitzero"`
}

// Artifact is a named, possibly chunked, output payload attached to a task.
type Artifact struct {
	// ArtifactID uniquely identifies the artifact within its task.
	ArtifactID string `json:"artifactId"`

	// Name is an optional human-readable artifact name.
	Name string `json:"name,omitzero"`

	// Description optionally describes the artifact.
	Description string `json:"description,omitzero"`

	// Parts is the ordered artifact payload. Chunked artifacts grow this
	// slice across multiple artifact-update events.
	Parts []Part `json:"parts"`

	// Metadata holds optional artifact-level metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the artifact has an id and a payload.
func (a *Artifact) Validate() error {
	if a == nil {
		return fmt.Errorf("artifact cannot be nil")
	}
	if a.ArtifactID == "" {
		return fmt.Errorf("artifact id cannot be empty")
	}
	if len(a.Parts) == 0 {
		return fmt.Errorf("artifact must have at least one part")
	}
	for i, part := range a.Parts {
		if err := part.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}

// Task is the server-side record of one unit of agent work and its
// accumulated history and artifacts. ID and ContextID never change after
// first persistence; Status moves only forward along the state machine.
type Task struct {
	// ID uniquely identifies the task. Immutable.
	ID string `json:"id"`

	// ContextID groups the task into a conversation context. Immutable.
	ContextID string `json:"contextId"`

	// Kind is always "task".
	Kind string `json:"kind"`

	// Status is the current lifecycle status.
	Status TaskStatus `json:"status"`

	// History is the ordered, append-only sequence of message turns.
	History []*Message `json:"history,omitzero"`

	// Artifacts is the ordered sequence of outputs produced so far.
	Artifacts []*Artifact `json:"artifacts,omitzero"`

	// Metadata holds optional producer-defined metadata.
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the task has its identifying fields and a valid state.
func (t *Task) Validate() error {
	if t == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if t.ID == "" {
		return fmt.Errorf("task id cannot be empty")
	}
	if t.ContextID == "" {
		return fmt.Errorf("task context id cannot be empty")
	}
	if !t.Status.State.Valid() {
		return fmt.Errorf("invalid task state: %q", t.Status.State)
	}
	return nil
}

// Terminal reports whether the task reached a terminal state.
func (t *Task) Terminal() bool {
	return t.Status.State.Terminal()
}

// PushNotificationConfig is a registered webhook target for task snapshots.
type PushNotificationConfig struct {
	// ID distinguishes multiple configs registered for one task. Defaults
	// to the webhook URL when unset.
	ID string `json:"id,omitzero"`

	// URL is the webhook endpoint that receives Task JSON via POST.
	URL string `json:"url"`

	// Token is an opaque client-supplied value echoed back in the
	// X-A2A-Notification-Token header so the receiver can correlate and
	// authenticate deliveries.
	Token string `json:"token,omitzero"`
}

// Validate ensures the config has a delivery URL.
func (c *PushNotificationConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("push notification config cannot be nil")
	}
	if c.URL == "" {
		return fmt.Errorf("push notification config url cannot be empty")
	}
	return nil
}

// TaskPushConfig binds a PushNotificationConfig to a task.
type TaskPushConfig struct {
	// TaskID is the task the webhook is registered for.
	TaskID string `json:"taskId"`

	// Config is the webhook registration.
	Config PushNotificationConfig `json:"pushNotificationConfig"`
}

// SendConfiguration carries the caller's delivery preferences for one send.
type SendConfiguration struct {
	// Blocking selects the blocking adapter: the call returns when the task
	// reaches a terminal or input-required state. When false the caller
	// receives a live event stream instead.
	Blocking bool `json:"blocking,omitzero"`

	// HistoryLength controls read-side history truncation of returned
	// snapshots: nil means server default, 0 means unlimited, N>0 keeps the
	// last N messages.
	HistoryLength *int `json:"historyLength,omitzero"`

	// PushConfig optionally registers a webhook for the task as part of the
	// send.
	PushConfig *PushNotificationConfig `json:"pushNotificationConfig,omitzero"`
}

// ListTasksParams are the filters and pagination controls for listing tasks.
type ListTasksParams struct {
	// ContextID filters by exact conversation context id.
	ContextID string `json:"contextId,omitzero"`

	// Status filters by exact state token.
	Status TaskState `json:"status,omitzero"`

	// IncludeArtifacts includes artifact payloads in the projection.
	// History is always stripped from list results.
	IncludeArtifacts bool `json:"includeArtifacts,omitzero"`

	// PageSize bounds the number of tasks per page. Zero selects the
	// server default; values above the server maximum are clamped.
	PageSize int `json:"pageSize,omitzero"`

	// PageToken is the opaque continuation token from a previous page.
	PageToken string `json:"pageToken,omitzero"`
}

// ListTasksResult is one page of tasks in stable creation order.
type ListTasksResult struct {
	// Tasks is the page of task projections.
	Tasks []*Task `json:"tasks"`

	// NextPageToken continues the listing; empty on the last page.
	NextPageToken string `json:"nextPageToken,omitzero"`
}
