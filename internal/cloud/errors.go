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
// backend. This file defines the typed failure classification used across the
// generation paths. Classifying failures explicitly (instead of blanket
// exception interception) is what lets the retry policy act only on
// rate-limit-class failures and the image service fall back only on
// model-class failures.
package cloud

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// FailureCategory buckets a generation error into the classes the application
// reacts to differently.
type FailureCategory int

const (
	// FailureCategoryUnknown covers errors with no recognizable API shape
	// (network faults, local errors). Never retried, never triggers fallback.
	FailureCategoryUnknown FailureCategory = iota
	// FailureCategoryRateLimit marks server-imposed throttling. Retried with
	// backoff by the retry policy.
	FailureCategoryRateLimit
	// FailureCategoryModel marks a model-side refusal or server error. For the
	// image path this selects the fallback model.
	FailureCategoryModel
	// FailureCategoryInvalidInput marks a request the backend rejected as
	// malformed. Surfaced immediately.
	FailureCategoryInvalidInput
)

// ClassifyError maps an error from a genai call onto a FailureCategory by
// inspecting the HTTP status carried by the API error types.
func ClassifyError(err error) FailureCategory {
	code := 0

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		code = gErr.Code
	}
	var aErr genai.APIError
	if errors.As(err, &aErr) {
		code = aErr.Code
	}

	switch {
	case code == http.StatusTooManyRequests:
		return FailureCategoryRateLimit
	case code == http.StatusBadRequest:
		return FailureCategoryInvalidInput
	case code >= http.StatusInternalServerError:
		return FailureCategoryModel
	default:
		return FailureCategoryUnknown
	}
}

// IsRateLimit reports whether the error is a throttling failure. This is the
// default retryable predicate for the retry policy.
func IsRateLimit(err error) bool {
	return ClassifyError(err) == FailureCategoryRateLimit
}
