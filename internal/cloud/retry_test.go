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

package cloud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func rateLimited() error {
	return &googleapi.Error{Code: 429, Message: "quota exceeded"}
}

func newTestPolicy(maxAttempts int) (*RetryPolicy, *[]time.Duration) {
	waits := &[]time.Duration{}
	p := &RetryPolicy{
		MaxAttempts:  maxAttempts,
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2.0,
		Retryable:    IsRateLimit,
		sleep: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
	return p, waits
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	p, waits := newTestPolicy(4)

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls <= 2 {
			return rateLimited()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// Backoff doubles between attempts.
	require.Len(t, *waits, 2)
	assert.Equal(t, 100*time.Millisecond, (*waits)[0])
	assert.Equal(t, 200*time.Millisecond, (*waits)[1])
}

func TestRetryExhaustionReturnsOriginalError(t *testing.T) {
	p, _ := newTestPolicy(3)

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return rateLimited()
	})

	assert.Equal(t, 3, calls)
	var gErr *googleapi.Error
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, 429, gErr.Code)
}

func TestRetryDoesNotRetryNonRetryable(t *testing.T) {
	p, waits := newTestPolicy(5)

	boom := errors.New("boom")
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
		Retryable:    IsRateLimit,
		sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	err := p.Do(ctx, func(context.Context) error { return rateLimited() })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryJitterStaysWithinBound(t *testing.T) {
	p, waits := newTestPolicy(2)
	p.JitterFraction = 0.5

	_ = p.Do(context.Background(), func(context.Context) error { return rateLimited() })

	require.Len(t, *waits, 1)
	wait := (*waits)[0]
	assert.GreaterOrEqual(t, wait, 100*time.Millisecond)
	assert.LessOrEqual(t, wait, 150*time.Millisecond)
}

func TestDoValueReturnsValue(t *testing.T) {
	p, _ := newTestPolicy(3)

	calls := 0
	out, err := DoValue(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", rateLimited()
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", out)
}
