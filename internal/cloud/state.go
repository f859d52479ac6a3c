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
// backend. This file initializes and holds the client objects the rest of the
// application depends on. It acts as a small dependency injection container:
// `NewCloudServiceClients` is called once at startup and the resulting
// `ServiceClients` struct is passed to the services that need it.
//
// Logic Flow:
//  1. Create the genai client against the Vertex AI backend.
//  2. For each configured agent model, build its generation config and wrap it
//     in the quota-aware decorator.
//  3. Build rate limiters for the image and speech paths, which issue their
//     calls through the Models handle directly.
package cloud

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ServiceClients is the central container for every client that talks to an
// external service. One instance is shared across the application.
type ServiceClients struct {
	GenAIClient   *genai.Client                           // Client for the Vertex AI generative backend.
	AgentModels   map[string]*QuotaAwareGenerativeAIModel // Configured text models, keyed by logical name.
	ImageLimiter  *rate.Limiter                           // Request budget for the image-generation paths.
	SpeechLimiter *rate.Limiter                           // Request budget for the TTS path.
	Retry         *RetryPolicy                            // The shared retry policy for all generation calls.
}

// NewCloudServiceClients initializes all required service clients from the
// provided configuration.
//
// Inputs:
//   - ctx: The root context for the application.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The fully initialized container.
//   - error: An error if the genai client fails to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		slog.Error("failed to create genai client", "error", err)
		return nil, err
	}

	retry := NewRetryPolicy(config.Retry)

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for key, values := range config.AgentModels {
		generateConfig := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
		}
		agentModels[key] = NewQuotaAwareModel(generateConfig, values.Model, gc.Models, values.RateLimit, retry)
	}

	return &ServiceClients{
		GenAIClient:   gc,
		AgentModels:   agentModels,
		ImageLimiter:  newLimiter(config.ImageModel.RateLimit),
		SpeechLimiter: newLimiter(config.SpeechModel.RateLimit),
		Retry:         retry,
	}, nil
}

func newLimiter(requestsPerSecond int) *rate.Limiter {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return rate.NewLimiter(rate.Every(time.Second/time.Duration(requestsPerSecond)), requestsPerSecond)
}
