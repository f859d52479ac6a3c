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

package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	test "github.com/jaycherian/gcp-go-story-studio/internal/testutil"
)

const scenesKey = "__scenes__"

func runParser(t *testing.T, payload string) (cor.Context, *ScriptJsonToScenes) {
	t.Helper()
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(context.Background())
	corCtx.Add(cor.CtxIn, payload)

	cmd := NewScriptJsonToScenes("parse-script", scenesKey)
	require.True(t, cmd.IsExecutable(corCtx))
	cmd.Execute(corCtx)
	return corCtx, cmd
}

func TestScriptJsonToScenesObjectShape(t *testing.T) {
	corCtx, _ := runParser(t, test.GetTestScriptJSON())
	require.False(t, corCtx.HasErrors())

	scenes, ok := corCtx.Get(scenesKey).([]*model.Scene)
	require.True(t, ok)
	require.Len(t, scenes, 3)

	for _, scene := range scenes {
		assert.NotEmpty(t, scene.ID)
		assert.NotEmpty(t, scene.Narration)
		assert.NotEmpty(t, scene.VisualPrompt)
		assert.Empty(t, scene.ImageAssetID)
		assert.Empty(t, scene.AudioAssetID)
	}
	assert.Contains(t, scenes[0].Narration, "lighthouse")

	// Scene identities are unique.
	assert.NotEqual(t, scenes[0].ID, scenes[1].ID)
	assert.NotEqual(t, scenes[1].ID, scenes[2].ID)
}

func TestScriptJsonToScenesFencedPayload(t *testing.T) {
	corCtx, _ := runParser(t, test.GetTestScriptJSONFenced())
	require.False(t, corCtx.HasErrors())

	scenes := corCtx.Get(scenesKey).([]*model.Scene)
	assert.Len(t, scenes, 3)
}

func TestScriptJsonToScenesBareArray(t *testing.T) {
	payload := `[
  {"narration": "  First.  ", "visual_prompt": " A door. "},
  {"narration": "Second.", "visual_prompt": "A window."}
]`
	corCtx, _ := runParser(t, payload)
	require.False(t, corCtx.HasErrors())

	scenes := corCtx.Get(scenesKey).([]*model.Scene)
	require.Len(t, scenes, 2)
	assert.Equal(t, "First.", scenes[0].Narration, "fields are trimmed")
	assert.Equal(t, "A door.", scenes[0].VisualPrompt)
}

func TestScriptJsonToScenesPipesOutput(t *testing.T) {
	corCtx, _ := runParser(t, test.GetTestScriptJSON())
	require.False(t, corCtx.HasErrors())

	// The scenes go out under both the configured key and CtxOut so the
	// chain can pipe them to a downstream command.
	assert.Equal(t, corCtx.Get(scenesKey), corCtx.Get(cor.CtxOut))
}

func TestScriptJsonToScenesInvalidJSON(t *testing.T) {
	corCtx, cmd := runParser(t, "I cannot help with that request.")
	require.True(t, corCtx.HasErrors())
	assert.Error(t, corCtx.GetErrors()[cmd.GetName()])
	assert.Nil(t, corCtx.Get(scenesKey))
}

func TestScriptJsonToScenesEmptySceneList(t *testing.T) {
	corCtx, cmd := runParser(t, `{"title": "Empty", "scenes": []}`)
	require.True(t, corCtx.HasErrors())
	assert.ErrorContains(t, corCtx.GetErrors()[cmd.GetName()], "no scenes")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}
