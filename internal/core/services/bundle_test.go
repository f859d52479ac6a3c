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

package services

import (
	"archive/zip"
	"bytes"
	"image/color"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/assets"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/export"
	test "github.com/jaycherian/gcp-go-story-studio/internal/testutil"
)

func unzipAll(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := make(map[string][]byte)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = content
	}
	return out
}

func TestBundleContainsAssetsAndTranscript(t *testing.T) {
	registry := model.NewDraftRegistry()
	store := assets.NewStore()

	imageData := test.MakeTestPNG(8, 8, color.RGBA{B: 255, A: 255})
	imageID := store.Put(imageData, "")
	audioData := export.WrapPCM(make([]byte, 4800), 24000, 1, 16)
	audioID := store.Put(audioData, "")

	draft := registry.Put(&model.StoryDraft{
		Topic: "The Lighthouse Keeper",
		Scenes: []*model.Scene{
			{ID: "s1", Narration: "First line.", ImageAssetID: imageID, AudioAssetID: audioID},
			{ID: "s2", Narration: "Second line."},
		},
	})

	name, data, err := NewBundleService(registry, store).Bundle(draft.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^story_bundle_\d+\.zip$`, name)

	files := unzipAll(t, data)
	assert.Equal(t, imageData, files["scene_01_image.png"])
	assert.Equal(t, audioData, files["scene_01_narration.wav"])

	transcript := string(files["transcript.txt"])
	assert.Contains(t, transcript, "The Lighthouse Keeper")
	assert.Contains(t, transcript, "Scene 1: First line.")
	assert.Contains(t, transcript, "Scene 2: Second line.")

	// Scene 2 has no media, so only three entries exist.
	assert.Len(t, files, 3)
}

func TestBundleSkipsDeletedAssets(t *testing.T) {
	registry := model.NewDraftRegistry()
	store := assets.NewStore()

	draft := registry.Put(&model.StoryDraft{
		Scenes: []*model.Scene{
			{ID: "s1", Narration: "Only words.", ImageAssetID: "gone", AudioAssetID: "also-gone"},
		},
	})

	_, data, err := NewBundleService(registry, store).Bundle(draft.ID)
	require.NoError(t, err)

	files := unzipAll(t, data)
	require.Len(t, files, 1)
	assert.Contains(t, string(files["transcript.txt"]), "Scene 1: Only words.")
}

func TestBundleUnknownDraft(t *testing.T) {
	svc := NewBundleService(model.NewDraftRegistry(), assets.NewStore())
	_, _, err := svc.Bundle("missing")
	assert.Error(t, err)
}
