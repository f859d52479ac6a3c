// Copyright 2025 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with the generative AI
// backend. This file implements the shared retry policy: one reusable object
// parameterized by attempt budget, initial delay, backoff multiplier, jitter
// bound and a retryable-error predicate, used by every collaborator call
// instead of ad hoc retry loops at each call site.
package cloud

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy retries an operation on transient failures with exponential
// backoff and randomized jitter. Non-retryable failures and exhausted budgets
// return the operation's original error untouched.
type RetryPolicy struct {
	MaxAttempts    int              // Total attempts, including the first one.
	InitialDelay   time.Duration    // Delay before the first retry.
	Multiplier     float64          // Exponential growth factor applied between retries.
	JitterFraction float64          // Random extra wait in [0, JitterFraction] × delay.
	Retryable      func(error) bool // Predicate selecting which failures to retry.

	// sleep is injectable so tests can run without real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy builds a policy from configuration, retrying rate-limit-class
// failures only.
func NewRetryPolicy(settings RetrySettings) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    settings.MaxAttempts,
		InitialDelay:   time.Duration(settings.InitialDelayMs) * time.Millisecond,
		Multiplier:     settings.Multiplier,
		JitterFraction: settings.JitterFraction,
		Retryable:      IsRateLimit,
	}
}

// Do runs op, retrying per the policy. The context is honored while waiting
// between attempts, so a canceled export or request stops retrying promptly.
//
// Inputs:
//   - ctx: Context governing the waits between attempts.
//   - op: The operation to run. Its error decides whether a retry happens.
//
// Outputs:
//   - error: nil on success, the original failure after budget exhaustion, or
//     immediately for non-retryable failures.
func (p *RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := p.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt >= p.MaxAttempts {
			return err
		}

		wait := delay
		if p.JitterFraction > 0 {
			wait += time.Duration(rand.Float64() * p.JitterFraction * float64(delay))
		}
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
}

// DoValue is a convenience wrapper for operations that produce a value.
func DoValue[T any](ctx context.Context, p *RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		var opErr error
		out, opErr = op(ctx)
		return opErr
	})
	return out, err
}

// sleepContext waits for d or until the context is done, whichever is first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
