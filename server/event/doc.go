// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides the per-invocation event queues that connect an
// executing agent to its consumers. Each queue has one logical producer (the
// running executor) and supports tapping: a tap is a child queue with its own
// buffer that receives a copy of every subsequent event, so backpressure is
// consumer-local and a slow consumer never blocks the producer.
package event
