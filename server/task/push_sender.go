// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/sync/errgroup"

	"github.com/go-a2a/taskflow"
)

// PushSender defines the interface for delivering task snapshots to
// registered webhooks. Delivery is best effort: a failed push never affects
// the task's stored state or the event stream.
type PushSender interface {
	// SendTaskUpdate pushes the task snapshot to every webhook registered
	// for it. Per-endpoint failures are logged, not returned; the error is
	// reserved for faults before dispatch, such as a config store failure.
	SendTaskUpdate(ctx context.Context, task *taskflow.Task) error
}

// HTTPPushSender implements PushSender by POSTing the task snapshot as JSON
// to each registered webhook URL, concurrently across endpoints.
type HTTPPushSender struct {
	client      *http.Client
	configStore PushConfigStore
	retry       RetryPolicy
	signer      *PayloadSigner
	timeout     time.Duration
	logger      *slog.Logger
}

var _ PushSender = (*HTTPPushSender)(nil)

// HTTPPushSenderConfig holds configuration for creating an HTTPPushSender.
type HTTPPushSenderConfig struct {
	// Client is the HTTP client for deliveries. Nil selects a client with a
	// 30 second timeout.
	Client *http.Client

	// ConfigStore supplies the webhook registrations per task.
	ConfigStore PushConfigStore

	// Retry controls re-delivery of failed pushes. Nil selects NoRetry.
	Retry RetryPolicy

	// Signer, when set, attaches a signed JWT over each payload in the
	// Authorization header so receivers can verify origin and integrity.
	Signer *PayloadSigner

	// Timeout bounds each delivery attempt. Zero selects 30 seconds.
	Timeout time.Duration

	Logger *slog.Logger
}

// NewHTTPPushSender creates a new HTTP-based push sender.
func NewHTTPPushSender(config HTTPPushSenderConfig) (*HTTPPushSender, error) {
	if config.ConfigStore == nil {
		return nil, fmt.Errorf("push config store cannot be nil")
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	retry := config.Retry
	if retry == nil {
		retry = NoRetry{}
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPPushSender{
		client:      client,
		configStore: config.ConfigStore,
		retry:       retry,
		signer:      config.Signer,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// SendTaskUpdate pushes the task snapshot to every registered webhook.
func (s *HTTPPushSender) SendTaskUpdate(ctx context.Context, task *taskflow.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	configs, err := s.configStore.List(ctx, task.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch push configs: %w", err)
	}
	if len(configs) == 0 {
		return nil
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task %s: %w", task.ID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, tpc := range configs {
		config := tpc.Config
		g.Go(func() error {
			// Per-endpoint failures are logged inside deliver; one dead
			// webhook must not cancel deliveries to its siblings.
			s.deliver(gctx, task.ID, &config, payload)
			return nil
		})
	}
	return g.Wait()
}

// deliver posts the payload to one webhook, retrying per the policy.
func (s *HTTPPushSender) deliver(ctx context.Context, taskID string, config *taskflow.PushNotificationConfig, payload []byte) {
	for attempt := 0; ; attempt++ {
		delay, ok := s.retry.Backoff(attempt)
		if !ok {
			s.logger.Warn("push delivery exhausted retries",
				"task_id", taskID,
				"url", config.URL,
				"attempts", attempt)
			return
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return
		}

		if err := s.post(ctx, config, payload); err != nil {
			s.logger.Warn("push delivery attempt failed",
				"task_id", taskID,
				"url", config.URL,
				"attempt", attempt+1,
				"error", err)
			continue
		}

		s.logger.Info("push notification sent",
			"task_id", taskID,
			"url", config.URL)
		return
	}
}

// post performs a single delivery attempt.
func (s *HTTPPushSender) post(ctx context.Context, config *taskflow.PushNotificationConfig, payload []byte) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "taskflow-push-sender")
	if config.Token != "" {
		req.Header.Set("X-A2A-Notification-Token", config.Token)
	}
	if s.signer != nil {
		signed, err := s.signer.Sign(payload)
		if err != nil {
			return fmt.Errorf("failed to sign payload: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+signed)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// NoOpPushSender is a PushSender that discards every update. Useful in
// tests and when push notifications are disabled.
type NoOpPushSender struct{}

var _ PushSender = (*NoOpPushSender)(nil)

// SendTaskUpdate does nothing.
func (NoOpPushSender) SendTaskUpdate(ctx context.Context, task *taskflow.Task) error { return nil }
