// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the task lifecycle engine's request surface.
// The DefaultRequestHandler accepts inbound messages, runs the configured
// AgentExecutor against a per-task event queue, folds the resulting events
// into persisted snapshots, and serves the three delivery adapters over one
// stream: blocking send, live streaming with resubscription, and
// best-effort webhook push.
//
// The package is transport agnostic. Callers mount the handler behind
// whatever wire protocol they serve; the handler speaks in terms of
// taskflow values and typed errors.
package server
