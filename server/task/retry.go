// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy controls re-delivery of failed webhook pushes. Backoff
// reports the delay before attempt (1-based); ok is false once the policy
// gives up.
type RetryPolicy interface {
	Backoff(attempt int) (delay time.Duration, ok bool)
}

// NoRetry is a RetryPolicy that permits a single attempt.
type NoRetry struct{}

// Backoff gives up after the first attempt.
func (NoRetry) Backoff(attempt int) (time.Duration, bool) {
	return 0, attempt < 1
}

// ExponentialBackoff retries with exponentially growing delays and 10%
// jitter, capped at MaxDelay.
type ExponentialBackoff struct {
	// MaxAttempts is the total number of delivery attempts.
	MaxAttempts int

	// InitialDelay is the delay before the second attempt. Zero selects
	// 500ms.
	InitialDelay time.Duration

	// MaxDelay caps the delay between attempts. Zero selects 30s.
	MaxDelay time.Duration

	// Multiplier scales the delay after each attempt. Values below 1 select
	// 2.0.
	Multiplier float64
}

// Backoff reports the jittered delay before the given attempt.
func (b ExponentialBackoff) Backoff(attempt int) (time.Duration, bool) {
	if attempt >= b.MaxAttempts {
		return 0, false
	}
	if attempt < 1 {
		return 0, true
	}

	initial := b.InitialDelay
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 2.0
	}

	delay := initial
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}

	jitter := time.Duration(rand.Float64() * float64(delay) * 0.1)
	return delay + jitter, true
}

// sleepCtx waits for the given duration or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
