// Copyright 2025 PedanticGeek
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// Retry policy for rate-limited model calls.
const (
	// EmbeddingMaxAttempts bounds retries of embedding calls.
	EmbeddingMaxAttempts = 15

	// VisionMaxAttempts bounds retries of vision calls.
	VisionMaxAttempts = 30

	// DefaultBackoffBase is the initial backoff delay.
	DefaultBackoffBase = 15 * time.Second

	// DefaultBackoffCap is the maximum backoff delay.
	DefaultBackoffCap = 60 * time.Second
)

// RetryRateLimited runs operation, retrying only rate-limit errors with
// randomized exponential backoff. The n-th retry sleeps a random duration in
// [base, min(cap, base*2^(n-1))]. Any error that is not a rate limit, or a
// rate limit persisting through maxAttempts attempts, is returned to the
// caller.
func RetryRateLimited(ctx context.Context, maxAttempts int, base, cap time.Duration, operation func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after rate-limit retries", "attempt", attempt)
			}
			return nil
		}
		if !IsRateLimit(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		slog.Warn("rate limited, backing off", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		timer := time.NewTimer(backoffDelay(attempt, base, cap))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// backoffDelay picks a random delay in [base, min(cap, base*2^(attempt-1))].
func backoffDelay(attempt int, base, cap time.Duration) time.Duration {
	high := base
	for i := 1; i < attempt && high < cap; i++ {
		high *= 2
	}
	if high > cap {
		high = cap
	}
	if high <= base {
		return base
	}
	return base + time.Duration(rand.Int63n(int64(high-base)))
}
