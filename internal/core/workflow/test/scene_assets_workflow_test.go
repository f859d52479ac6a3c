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

package workflow_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/workflow"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/workpool"
)

// newTestDraft seeds a registry with one draft of three scenes: one complete,
// one missing its image, one missing both assets.
func newTestDraft(registry *model.DraftRegistry) *model.StoryDraft {
	return registry.Put(&model.StoryDraft{
		Topic: "test story",
		Scenes: []*model.Scene{
			{ID: "s1", Narration: "one", VisualPrompt: "p1", ImageAssetID: "img-1", AudioAssetID: "aud-1"},
			{ID: "s2", Narration: "two", VisualPrompt: "p2", AudioAssetID: "aud-2"},
			{ID: "s3", Narration: "three", VisualPrompt: "p3"},
		},
	})
}

// attachAsset is a scripted generation function that records the asset handle
// on the scene the way the real asset service does.
func attachAsset(registry *model.DraftRegistry, set func(*model.Scene, string)) commands.SceneAssetFn {
	var n atomic.Int32
	return func(_ context.Context, draftID string, scene model.Scene) error {
		id := fmt.Sprintf("generated-%d", n.Add(1))
		return registry.UpdateScene(draftID, scene.ID, func(s *model.Scene) { set(s, id) })
	}
}

func runBulk(w *workflow.SceneAssetsWorkflow, draftID string) cor.Context {
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(ctx)
	corCtx.Add(cor.CtxIn, draftID)
	defer corCtx.Close()

	w.Execute(corCtx)
	return corCtx
}

func TestSceneAssetsPipelineFillsMissingAssets(t *testing.T) {
	registry := model.NewDraftRegistry()
	draft := newTestDraft(registry)
	pool := workpool.New(2, 0)

	bulk := workflow.NewSceneAssetsPipeline(registry, pool,
		attachAsset(registry, func(s *model.Scene, id string) { s.ImageAssetID = id }),
		attachAsset(registry, func(s *model.Scene, id string) { s.AudioAssetID = id }))

	corCtx := runBulk(bulk, draft.ID)
	assert.False(t, corCtx.HasErrors())

	got, err := registry.Get(draft.ID)
	assert.NoError(t, err)

	// The complete scene is untouched.
	assert.Equal(t, "img-1", got.Scenes[0].ImageAssetID)
	assert.Equal(t, "aud-1", got.Scenes[0].AudioAssetID)

	// The gaps are filled.
	assert.Equal(t, "aud-2", got.Scenes[1].AudioAssetID)
	for _, scene := range got.Scenes[1:] {
		assert.True(t, scene.ImageAssetID != "")
		assert.True(t, scene.AudioAssetID != "")
	}

	logger.Info("bulk workflow filled draft", "draft", draft.ID)
}

func TestSceneAssetsPipelineContinuesPastImageFailures(t *testing.T) {
	registry := model.NewDraftRegistry()
	draft := newTestDraft(registry)
	pool := workpool.New(2, 0)

	// Every image fails; speech must still run for every scene missing audio.
	bulk := workflow.NewSceneAssetsPipeline(registry, pool,
		func(context.Context, string, model.Scene) error {
			return fmt.Errorf("image backend unavailable")
		},
		attachAsset(registry, func(s *model.Scene, id string) { s.AudioAssetID = id }))

	runBulk(bulk, draft.ID)

	got, err := registry.Get(draft.ID)
	assert.NoError(t, err)
	assert.Equal(t, "", got.Scenes[1].ImageAssetID)
	assert.True(t, got.Scenes[2].AudioAssetID != "")
}

func TestSceneAssetsPipelineUnknownDraft(t *testing.T) {
	registry := model.NewDraftRegistry()
	pool := workpool.New(1, 0)

	bulk := workflow.NewSceneAssetsPipeline(registry, pool,
		func(context.Context, string, model.Scene) error { return nil },
		func(context.Context, string, model.Scene) error { return nil })

	corCtx := runBulk(bulk, "missing")
	assert.True(t, corCtx.HasErrors())
}
