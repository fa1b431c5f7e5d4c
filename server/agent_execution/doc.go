// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent_execution defines the contract between the server and the
// agent logic it runs: the AgentExecutor interface, the RequestContext
// handed to each execution, the cooperative cancellation signal, and the
// per-task phase table for multi-turn conversations.
package agent_execution
