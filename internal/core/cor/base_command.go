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
// workflows. This file defines BaseCommand, the embeddable default
// implementation of Command: a name, OpenTelemetry tracer/meter wiring,
// success/error counters, and the default input/output parameter keys that
// make chain piping work.
package cor

import (
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// meterNamespace scopes the command counters under one meter.
const meterNamespace = "github.com/jaycherian/gcp-go-story-studio"

// BaseCommand is the default implementation of the Command interface.
// Concrete commands embed it and override Execute.
type BaseCommand struct {
	Name            string              // Unique name, used for tracing and metrics.
	InputParamName  string              // Context key for the primary input; CtxIn when empty.
	OutputParamName string              // Context key for the primary output; CtxOut when empty.
	Tracer          trace.Tracer        // Tracer for creating spans.
	Meter           metric.Meter        // Meter for creating metrics.
	SuccessCounter  metric.Int64Counter // Incremented on successful execution.
	ErrorCounter    metric.Int64Counter // Incremented when an error occurs.
}

// NewBaseCommand initializes a command with a name and its OpenTelemetry
// instrumentation.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter(meterNamespace)

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		log.Printf("error creating success counter for command '%s': %v\n", name, err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		log.Printf("error creating error counter for command '%s': %v\n", name, err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// GetName returns the name of the command.
func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable checks that the context is valid and the expected input is
// present before Execute runs.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.Get(c.GetInputParam()) != nil && context.GetContext() != nil
}

// GetInputParam returns the key for the command's primary input, defaulting
// to CtxIn so chain piping works without configuration.
func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

// GetOutputParam returns the key for the command's primary output, defaulting
// to CtxOut.
func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

// GetTracer returns the OpenTelemetry Tracer for this command.
func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

// GetMeter returns the OpenTelemetry Meter for this command.
func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

// GetSuccessCounter returns the success metric counter for this command.
func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

// GetErrorCounter returns the error metric counter for this command.
func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}
