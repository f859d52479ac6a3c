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

// Package workflow_test contains tests for the core application workflows.
// This file provides the shared setup: a root context, structured logging,
// and a package logger. The workflows under test here run entirely against
// in-memory state with scripted generation functions, so no service clients
// are created.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/jaycherian/gcp-go-story-studio/internal/telemetry"
)

const tName = "cloud.google.com/story-studio/tests/workflow"

var (
	ctx    context.Context
	logger = otelslog.NewLogger(tName)
)

// TestMain initializes shared state before any test in the package runs.
func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	telemetry.SetupLogging()
	logger.Info("completed test setup")

	os.Exit(m.Run())
}
