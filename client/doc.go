// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client provides consumption helpers that mirror the task
// lifecycle from the caller's side: polling a task until its turn ends,
// draining a streaming send, and reattaching to a running task.
//
// The helpers speak through the [Transport] interface, which carries the
// same shapes as the server's request surface. Any wire binding (or an
// in-process handler) that satisfies it plugs in unchanged.
package client
