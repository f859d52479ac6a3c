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

// Package workpool implements the bounded worker pool used for bulk asset
// generation. At most Workers tasks run simultaneously, a mandatory pacing
// delay separates dispatches so a burst of scenes does not trip the remote
// rate limit, and one task's failure never prevents the remaining tasks from
// running — failures are collected per task index instead.
package workpool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pool runs batches of tasks with a fixed concurrency limit and pacing.
type Pool struct {
	Workers int           // Maximum tasks simultaneously in flight.
	Pacing  time.Duration // Mandatory delay between dispatched tasks.
}

// New constructs a pool. Worker counts below one are raised to one.
func New(workers int, pacing time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{Workers: workers, Pacing: pacing}
}

// Run dispatches each task and waits for all of them. The returned slice has
// one entry per task: nil for success, the task's error otherwise. Run itself
// only returns an error when the context is canceled before all tasks were
// dispatched.
func (p *Pool) Run(ctx context.Context, tasks []func(context.Context) error) ([]error, error) {
	results := make([]error, len(tasks))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.Workers)

	for i, task := range tasks {
		if i > 0 && p.Pacing > 0 {
			timer := time.NewTimer(p.Pacing)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}

		i, task := i, task
		group.Go(func() error {
			if err := task(groupCtx); err != nil {
				mu.Lock()
				results[i] = err
				mu.Unlock()
			}
			// Task errors are recorded, not returned: returning one would
			// cancel groupCtx and starve the remaining tasks.
			return nil
		})
	}

	_ = group.Wait()
	return results, nil
}
