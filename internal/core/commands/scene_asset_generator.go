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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// bulk fan-out commands for the "generate all assets" workflow: one command
// fills in the missing scene images, the other the missing narration clips.
//
// Logic Flow (both commands):
//  1. The draft ID arrives on the context; the draft is read from the
//     registry.
//  2. Every scene still missing the asset becomes one task on the worker
//     pool. The pool bounds concurrency and paces dispatches; a scene's
//     failure is recorded on that scene, never propagated, so the remaining
//     scenes still generate.
//  3. The draft ID is re-emitted as the command output so the next fan-out
//     command in the chain picks up the same draft.
package commands

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/workpool"
)

// SceneAssetFn generates one asset for one scene and records the result on
// the draft. The services package supplies the real implementations; tests
// supply scripted ones.
type SceneAssetFn func(ctx context.Context, draftID string, scene model.Scene) error

// SceneAssetGenerator fans one asset type out over a draft's scenes.
type SceneAssetGenerator struct {
	cor.BaseCommand
	registry *model.DraftRegistry
	pool     *workpool.Pool
	generate SceneAssetFn
	needs    func(model.Scene) bool // Selects scenes still missing the asset.
}

// NewSceneImageGenerator builds the fan-out command for scene images.
func NewSceneImageGenerator(name string, registry *model.DraftRegistry, pool *workpool.Pool, generate SceneAssetFn) *SceneAssetGenerator {
	return &SceneAssetGenerator{
		BaseCommand: *cor.NewBaseCommand(name),
		registry:    registry,
		pool:        pool,
		generate:    generate,
		needs:       func(s model.Scene) bool { return s.ImageAssetID == "" && s.VisualPrompt != "" },
	}
}

// NewSceneSpeechGenerator builds the fan-out command for narration clips.
func NewSceneSpeechGenerator(name string, registry *model.DraftRegistry, pool *workpool.Pool, generate SceneAssetFn) *SceneAssetGenerator {
	return &SceneAssetGenerator{
		BaseCommand: *cor.NewBaseCommand(name),
		registry:    registry,
		pool:        pool,
		generate:    generate,
		needs:       func(s model.Scene) bool { return s.AudioAssetID == "" && s.Narration != "" },
	}
}

// Execute schedules one pool task per scene that still needs the asset.
func (g *SceneAssetGenerator) Execute(corCtx cor.Context) {
	draftID := corCtx.Get(g.GetInputParam()).(string)

	draft, err := g.registry.Get(draftID)
	if err != nil {
		g.GetErrorCounter().Add(corCtx.GetContext(), 1)
		corCtx.AddError(g.GetName(), err)
		return
	}

	// Work from a snapshot; each task re-resolves its scene through the
	// registry when writing results back.
	scenes := draft.Snapshot()
	tasks := make([]func(context.Context) error, 0, len(scenes))
	for _, scene := range scenes {
		if !g.needs(scene) {
			continue
		}
		scene := scene
		tasks = append(tasks, func(ctx context.Context) error {
			return g.generate(ctx, draftID, scene)
		})
	}

	if len(tasks) > 0 {
		if _, err := g.pool.Run(corCtx.GetContext(), tasks); err != nil {
			g.GetErrorCounter().Add(corCtx.GetContext(), 1)
			corCtx.AddError(g.GetName(), fmt.Errorf("bulk generation interrupted: %w", err))
			return
		}
	}

	g.GetSuccessCounter().Add(corCtx.GetContext(), 1)
	corCtx.Add(g.GetOutputParam(), draftID)
}
