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

// Package workflow defines the high-level business logic orchestrations.
// This file implements the bulk asset workflow: given a draft ID, fill in
// every missing scene image and narration clip. The chain continues on
// failure because a single scene's generation error is recorded on that
// scene and must not block the rest of the draft.
package workflow

import (
	"github.com/jaycherian/gcp-go-story-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/workpool"
)

// SceneAssetsWorkflow fills in missing scene assets for one draft.
type SceneAssetsWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// Execute runs the underlying chain.
func (w *SceneAssetsWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// NewSceneAssetsPipeline builds the bulk generation workflow. The image and
// speech functions come from the asset service so the workflow stays free of
// client wiring.
func NewSceneAssetsPipeline(
	registry *model.DraftRegistry,
	pool *workpool.Pool,
	generateImage commands.SceneAssetFn,
	generateSpeech commands.SceneAssetFn) *SceneAssetsWorkflow {

	out := &SceneAssetsWorkflow{BaseCommand: *cor.NewBaseCommand("scene-assets-pipeline")}

	chain := cor.NewBaseChain(out.GetName()).ContinueOnFailure(true)
	chain.AddCommand(commands.NewSceneImageGenerator("generate-scene-images", registry, pool, generateImage))
	chain.AddCommand(commands.NewSceneSpeechGenerator("generate-scene-speech", registry, pool, generateSpeech))
	out.chain = chain

	return out
}
