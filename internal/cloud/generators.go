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
// backend. This file implements the two media generators: the image path with
// its Imagen-primary / Gemini-fallback split, and the text-to-speech path.
// Both share the application's rate limiters and retry policy, so call sites
// get a single Generate/Synthesize method with quota handling built in.
//
// Logic Flow (image path):
//  1. The visual prompt is suffixed with the configured style fragment.
//  2. The primary Imagen model is asked for a single image at the requested
//     aspect ratio.
//  3. When the primary fails for a model-class or rate-limit reason, the
//     Gemini image-output fallback is tried with the same prompt. Input
//     errors are the caller's to fix and are returned without a fallback.
package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Synthesized speech arrives as raw little-endian PCM in this fixed format.
const (
	SpeechSampleRate = 24000
	SpeechChannels   = 1
	SpeechBitDepth   = 16
)

// GeneratedImage is the result of one image generation: the encoded bytes
// plus which path produced them.
type GeneratedImage struct {
	Data         []byte
	MIMEType     string
	UsedFallback bool
}

// ImageGenerator produces scene images, preferring the Imagen-class primary
// model and degrading to a Gemini image-output model when the primary is
// unavailable.
type ImageGenerator struct {
	models  *genai.Models
	config  VertexAiImageModel
	limiter *rate.Limiter
	retry   *RetryPolicy
}

// NewImageGenerator constructs the generator from the shared service clients.
func NewImageGenerator(clients *ServiceClients, config VertexAiImageModel) *ImageGenerator {
	return &ImageGenerator{
		models:  clients.GenAIClient.Models,
		config:  config,
		limiter: clients.ImageLimiter,
		retry:   clients.Retry,
	}
}

// Generate renders one image for the prompt at the given aspect ratio
// (e.g. "16:9"). The configured style fragment is appended to every prompt so
// a story's images stay visually consistent.
func (g *ImageGenerator) Generate(ctx context.Context, prompt string, aspectRatio string) (*GeneratedImage, error) {
	styled := prompt
	if g.config.Style != "" {
		styled = fmt.Sprintf("%s. %s", prompt, g.config.Style)
	}

	img, primaryErr := g.generatePrimary(ctx, styled, aspectRatio)
	if primaryErr == nil {
		return img, nil
	}

	// Only failures the fallback model can plausibly do better on switch
	// paths. A bad prompt fails the same way on both, and an unclassifiable
	// error (network, local) would too.
	switch ClassifyError(primaryErr) {
	case FailureCategoryModel, FailureCategoryRateLimit:
	default:
		return nil, primaryErr
	}

	slog.Warn("primary image model failed, trying fallback",
		slog.String("model", g.config.Primary),
		slog.String("error", primaryErr.Error()))

	img, fallbackErr := g.generateFallback(ctx, styled)
	if fallbackErr != nil {
		// The primary's error is the one worth surfacing.
		return nil, fmt.Errorf("image generation failed (fallback also failed: %v): %w", fallbackErr, primaryErr)
	}
	img.UsedFallback = true
	return img, nil
}

func (g *ImageGenerator) generatePrimary(ctx context.Context, prompt string, aspectRatio string) (*GeneratedImage, error) {
	resp, err := DoValue(ctx, g.retry, func(ctx context.Context) (*genai.GenerateImagesResponse, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return g.models.GenerateImages(ctx, g.config.Primary, prompt, &genai.GenerateImagesConfig{
			NumberOfImages: 1,
			AspectRatio:    aspectRatio,
		})
	})
	if err != nil {
		return nil, err
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("image model %s returned no image", g.config.Primary)
	}
	img := resp.GeneratedImages[0].Image
	return &GeneratedImage{Data: img.ImageBytes, MIMEType: img.MIMEType}, nil
}

func (g *ImageGenerator) generateFallback(ctx context.Context, prompt string) (*GeneratedImage, error) {
	resp, err := DoValue(ctx, g.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return g.models.GenerateContent(ctx, g.config.Fallback, NewTextContent(prompt), &genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			SafetySettings:     DefaultSafetySettings,
		})
	})
	if err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &GeneratedImage{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}, nil
			}
		}
	}
	return nil, fmt.Errorf("image model %s returned no inline image", g.config.Fallback)
}

// SpeechSynthesizer turns narration text into raw PCM using a TTS-capable
// Gemini model.
type SpeechSynthesizer struct {
	models  *genai.Models
	config  VertexAiSpeechModel
	limiter *rate.Limiter
	retry   *RetryPolicy
}

// NewSpeechSynthesizer constructs the synthesizer from the shared service
// clients.
func NewSpeechSynthesizer(clients *ServiceClients, config VertexAiSpeechModel) *SpeechSynthesizer {
	return &SpeechSynthesizer{
		models:  clients.GenAIClient.Models,
		config:  config,
		limiter: clients.SpeechLimiter,
		retry:   clients.Retry,
	}
}

// Synthesize speaks the text in the given prebuilt voice, falling back to the
// configured default voice when voice is empty. The returned bytes are raw
// 24 kHz mono 16-bit PCM; callers wrap them in a container before storing.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text string, voice string) ([]byte, error) {
	if voice == "" {
		voice = s.config.Voice
	}

	resp, err := DoValue(ctx, s.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.models.GenerateContent(ctx, s.config.Model, NewTextContent(text), &genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
				},
			},
		})
	})
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("speech model %s returned no audio", s.config.Model)
}
