// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides task persistence and the event fold pipeline: the
// TaskStore implementations, the TaskManager that folds lifecycle events
// into persisted snapshots, the ResultAggregator that drives the blocking,
// streaming, and push delivery modes from one underlying event stream, and
// the webhook push machinery.
package task
