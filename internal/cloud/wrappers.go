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
// backend. This file implements a decorator around the genai Models handle
// that adds quota awareness: a token-bucket rate limiter in front of every
// request plus the shared retry policy behind it. Call sites get a single
// GenerateContent method and never deal with throttling themselves.
package cloud

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// QuotaAwareGenerativeAIModel wraps a configured genai model with a rate
// limiter and the shared retry policy. The zero value is not usable; construct
// with NewQuotaAwareModel.
type QuotaAwareGenerativeAIModel struct {
	GenerateConfig *genai.GenerateContentConfig // The generation parameters applied to every call.
	ModelName      string                       // The model identifier sent with each request.
	Models         *genai.Models                // The underlying genai Models handle.

	limiter *rate.Limiter
	retry   *RetryPolicy
}

// NewQuotaAwareModel constructs the decorator.
//
// Inputs:
//   - config: generation parameters (temperature, system instructions, ...).
//   - name: the model identifier.
//   - models: the genai Models handle from the shared client.
//   - requestsPerSecond: sustained request budget against this model.
//   - retry: the shared retry policy for rate-limit failures.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, models *genai.Models, requestsPerSecond int, retry *RetryPolicy) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerateConfig: config,
		ModelName:      name,
		Models:         models,
		limiter:        rate.NewLimiter(rate.Every(time.Second/time.Duration(requestsPerSecond)), requestsPerSecond),
		retry:          retry,
	}
}

// GenerateContent blocks for a limiter token, then issues the request through
// the retry policy. The caller's context bounds both the wait and the call.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	return DoValue(ctx, q.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		if err := q.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return q.Models.GenerateContent(ctx, q.ModelName, contents, q.GenerateConfig)
	})
}
