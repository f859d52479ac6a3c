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

// Package services contains the application services the HTTP layer calls
// into. This file implements the asset service: generating a single scene's
// image or narration clip, and the bulk fill-everything-in path that runs the
// scene-assets workflow over the worker pool.
//
// Logic Flow (single asset):
//  1. Mark the scene in flight and clear any previous error.
//  2. Call the generator; rate limiting and retries happen inside it.
//  3. On success store the bytes and attach the handle to the scene; on
//     failure record the error on the scene. Either way the in-flight flag
//     clears, so the editing surface always converges.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-story-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/assets"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/workflow"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/workpool"
	"github.com/jaycherian/gcp-go-story-studio/internal/export"
)

// AssetService generates and stores scene media.
type AssetService struct {
	registry *model.DraftRegistry
	store    *assets.Store
	images   *cloud.ImageGenerator
	speech   *cloud.SpeechSynthesizer
	bulk     *workflow.SceneAssetsWorkflow
}

// NewAssetService wires the generators, the worker pool, and the bulk
// workflow.
func NewAssetService(config *cloud.Config, serviceClients *cloud.ServiceClients, registry *model.DraftRegistry, store *assets.Store) *AssetService {
	s := &AssetService{
		registry: registry,
		store:    store,
		images:   cloud.NewImageGenerator(serviceClients, config.ImageModel),
		speech:   cloud.NewSpeechSynthesizer(serviceClients, config.SpeechModel),
	}

	pool := workpool.New(
		config.Application.ThreadPoolSize,
		time.Duration(config.Application.TaskPacingMs)*time.Millisecond)
	s.bulk = workflow.NewSceneAssetsPipeline(registry, pool,
		func(ctx context.Context, draftID string, scene model.Scene) error {
			return s.GenerateImage(ctx, draftID, scene.ID)
		},
		func(ctx context.Context, draftID string, scene model.Scene) error {
			return s.GenerateSpeech(ctx, draftID, scene.ID)
		})

	return s
}

// GenerateImage renders the scene's visual prompt at the draft's aspect
// ratio and attaches the stored image to the scene.
func (s *AssetService) GenerateImage(ctx context.Context, draftID, sceneID string) error {
	draft, err := s.registry.Get(draftID)
	if err != nil {
		return err
	}
	prompt, err := s.beginGeneration(draftID, sceneID, func(scene *model.Scene) string { return scene.VisualPrompt })
	if err != nil {
		return err
	}
	if prompt == "" {
		return s.finishGeneration(draftID, sceneID, fmt.Errorf("scene has no visual prompt"), nil)
	}

	img, genErr := s.images.Generate(ctx, prompt, string(draft.AspectRatio))

	var attach func(*model.Scene)
	if genErr == nil {
		assetID := s.store.Put(img.Data, img.MIMEType)
		attach = func(scene *model.Scene) { scene.ImageAssetID = assetID }
	}
	return s.finishGeneration(draftID, sceneID, genErr, attach)
}

// GenerateSpeech synthesizes the scene's narration in the draft's voice,
// wraps the raw PCM as WAV, and attaches the stored clip to the scene.
func (s *AssetService) GenerateSpeech(ctx context.Context, draftID, sceneID string) error {
	draft, err := s.registry.Get(draftID)
	if err != nil {
		return err
	}
	narration, err := s.beginGeneration(draftID, sceneID, func(scene *model.Scene) string { return scene.Narration })
	if err != nil {
		return err
	}
	if narration == "" {
		return s.finishGeneration(draftID, sceneID, fmt.Errorf("scene has no narration"), nil)
	}

	pcm, genErr := s.speech.Synthesize(ctx, narration, draft.Voice)

	var attach func(*model.Scene)
	if genErr == nil {
		wav := export.WrapPCM(pcm, cloud.SpeechSampleRate, cloud.SpeechChannels, cloud.SpeechBitDepth)
		assetID := s.store.Put(wav, "audio/x-wav")
		attach = func(scene *model.Scene) { scene.AudioAssetID = assetID }
	}
	return s.finishGeneration(draftID, sceneID, genErr, attach)
}

// GenerateAll fills in every missing asset on the draft through the bulk
// workflow. Per-scene failures are recorded on the scenes; GenerateAll only
// fails when the workflow itself cannot run.
func (s *AssetService) GenerateAll(ctx context.Context, draftID string) error {
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(ctx)
	corCtx.Add(cor.CtxIn, draftID)
	defer corCtx.Close()

	s.bulk.Execute(corCtx)
	if corCtx.HasErrors() {
		return firstError(corCtx.GetErrors())
	}
	return nil
}

// beginGeneration flips the scene into its in-flight state and returns the
// source text for the generator.
func (s *AssetService) beginGeneration(draftID, sceneID string, source func(*model.Scene) string) (string, error) {
	var text string
	err := s.registry.UpdateScene(draftID, sceneID, func(scene *model.Scene) {
		scene.InFlight = true
		scene.GenerationErr = ""
		text = source(scene)
	})
	return text, err
}

// finishGeneration clears the in-flight flag, records the outcome on the
// scene, and passes the generation error back to the caller.
func (s *AssetService) finishGeneration(draftID, sceneID string, genErr error, attach func(*model.Scene)) error {
	err := s.registry.UpdateScene(draftID, sceneID, func(scene *model.Scene) {
		scene.InFlight = false
		if genErr != nil {
			scene.GenerationErr = genErr.Error()
			return
		}
		if attach != nil {
			attach(scene)
		}
	})
	if err != nil {
		return err
	}
	return genErr
}

// UploadMusic stores a background track and returns its asset handle.
func (s *AssetService) UploadMusic(data []byte, contentType string) string {
	return s.store.Put(data, contentType)
}
