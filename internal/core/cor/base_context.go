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
// workflows. This file defines BaseContext, the default Context: a data map,
// an error map keyed by command name, temp-file tracking, and the embedded
// Go context used for cancellation and span propagation.
package cor

import (
	"context"
	"log"
	"os"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{} // Arbitrary key-value data shared between commands.
	errors    map[string]error       // Errors keyed by the command name that produced them.
	tempFiles []string               // Temporary files to remove at Close.
	context   context.Context        // Standard Go context for cancellation and spans.
}

// NewBaseContext returns a new, empty context object.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

// SetContext sets the underlying standard Go context.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying standard Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes any temporary files tracked during the workflow.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		err := os.Remove(file)
		if err != nil {
			log.Printf("failed to remove temporary file '%s': %v\n", file, err)
		}
	}
}

// Add stores a key-value pair and returns the context for fluent chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile tracks a file path for cleanup at Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns all tracked temporary file paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records an error, keyed by the command name.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the map of all errors collected during the workflow.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value by key, or nil when absent.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any command recorded an error.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
