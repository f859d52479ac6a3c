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

// Package cor (Chain of Responsibility) provides the building blocks for
// workflows: atomic commands, chains that sequence them, and a shared context
// that carries data and errors between them. The story-generation and bulk
// asset pipelines are built on these interfaces.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe the primary data flow through a
// chain: a command's CtxOut becomes the next command's CtxIn.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands.
// It acts as a property bag for one workflow execution, carrying data,
// errors, and temp-file bookkeeping between commands.
type Context interface {
	// SetContext sets the standard Go context, used for cancellation and
	// OpenTelemetry span propagation.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for fluent chaining.
	Add(key string, value interface{}) Context

	// AddError records an error, keyed by the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all errors collected during the workflow.
	GetErrors() map[string]error

	// Get retrieves a value by key, or nil.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile tracks a temporary file for cleanup at Close.
	AddTempFile(file string)

	// GetTempFiles returns all tracked temporary file paths.
	GetTempFiles() []string

	// Close removes tracked temporary files. Defer it at workflow start.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	// Execute reads inputs from the context and writes outputs back to it.
	Execute(context Context)
}

// Command is an atomic, testable unit of work inside a workflow.
type Command interface {
	Executable

	// GetName returns the command's unique name for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key holding this command's input.
	GetInputParam() string

	// GetOutputParam returns the context key receiving this command's output.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for this command.
	GetMeter() metric.Meter

	// GetSuccessCounter counts successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter counts failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command, so chains
// nest (composite pattern).
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after a
	// command records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
