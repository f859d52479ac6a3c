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

package workpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := New(3, 0)

	var count atomic.Int32
	tasks := make([]func(context.Context) error, 10)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			count.Add(1)
			return nil
		}
	}

	results, err := pool.Run(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, int32(10), count.Load())
	for _, r := range results {
		assert.NoError(t, r)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 2
	pool := New(workers, 0)

	var mu sync.Mutex
	active, peak := 0, 0

	tasks := make([]func(context.Context) error, 8)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		}
	}

	_, err := pool.Run(context.Background(), tasks)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, workers)
	assert.Greater(t, peak, 0)
}

func TestPoolIsolatesFailures(t *testing.T) {
	pool := New(2, 0)
	boom := errors.New("boom")

	var ran atomic.Int32
	tasks := []func(context.Context) error{
		func(context.Context) error { ran.Add(1); return nil },
		func(context.Context) error { ran.Add(1); return boom },
		func(context.Context) error { ran.Add(1); return nil },
		func(context.Context) error { ran.Add(1); return boom },
	}

	results, err := pool.Run(context.Background(), tasks)
	require.NoError(t, err)
	// Every task ran despite two of them failing.
	assert.Equal(t, int32(4), ran.Load())
	assert.NoError(t, results[0])
	assert.ErrorIs(t, results[1], boom)
	assert.NoError(t, results[2])
	assert.ErrorIs(t, results[3], boom)
}

func TestPoolStopsDispatchingOnCancel(t *testing.T) {
	pool := New(1, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Int32
	tasks := []func(context.Context) error{
		func(context.Context) error {
			ran.Add(1)
			cancel()
			return nil
		},
		func(context.Context) error { ran.Add(1); return nil },
	}

	_, err := pool.Run(ctx, tasks)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), ran.Load())
}
