// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package taskflow

import (
	"github.com/google/uuid"
)

// NewArtifact creates an artifact with a generated id.
func NewArtifact(name string, parts ...Part) *Artifact {
	return &Artifact{
		ArtifactID: uuid.New().String(),
		Name:       name,
		Parts:      parts,
	}
}

// NewTextArtifact creates a single-part text artifact with a generated id.
func NewTextArtifact(name, text string) *Artifact {
	return NewArtifact(name, NewTextPart(text))
}
