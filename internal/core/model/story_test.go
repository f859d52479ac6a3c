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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneCountFor(t *testing.T) {
	tests := []struct {
		minutes float64
		want    int
	}{
		{0, 3},
		{0.25, 3}, // Floor of three scenes.
		{0.5, 3},
		{1, 6},
		{1.1, 7}, // Partial scenes round up.
		{2.5, 15},
		{10, 60},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SceneCountFor(tc.minutes), "minutes=%v", tc.minutes)
	}
}

func TestAspectRatioDimensions(t *testing.T) {
	w, h := AspectLandscape.Dimensions()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	w, h = AspectPortrait.Dimensions()
	assert.Equal(t, 1080, w)
	assert.Equal(t, 1920, h)

	// Unknown shapes fall back to landscape.
	w, h = AspectRatio("4:3").Dimensions()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	draft := &StoryDraft{
		ID:     "d1",
		Topic:  "volcanoes",
		Scenes: []*Scene{{ID: "s1", Narration: "before"}},
	}

	snap := draft.Snapshot()
	require.Len(t, snap, 1)

	draft.Scenes[0].Narration = "after"
	draft.Scenes[0].ImageAssetID = "img-1"

	assert.Equal(t, "before", snap[0].Narration, "snapshot must not see later edits")
	assert.Empty(t, snap[0].ImageAssetID)
}

func TestDraftRegistryPutAssignsID(t *testing.T) {
	registry := NewDraftRegistry()

	draft := registry.Put(&StoryDraft{Topic: "rivers"})
	require.NotEmpty(t, draft.ID)

	got, err := registry.Get(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "rivers", got.Topic)
	assert.Equal(t, 1, registry.Count())
}

func TestDraftRegistryGetUnknown(t *testing.T) {
	registry := NewDraftRegistry()
	_, err := registry.Get("nope")
	assert.Error(t, err)
}

func TestDraftRegistryUpdateScene(t *testing.T) {
	registry := NewDraftRegistry()
	draft := registry.Put(&StoryDraft{
		Scenes: []*Scene{{ID: "s1"}, {ID: "s2"}},
	})

	err := registry.UpdateScene(draft.ID, "s2", func(s *Scene) {
		s.Narration = "updated"
		s.InFlight = true
	})
	require.NoError(t, err)

	got, err := registry.Get(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Scenes[1].Narration)
	assert.True(t, got.Scenes[1].InFlight)
	assert.Empty(t, got.Scenes[0].Narration, "only the named scene changes")

	assert.Error(t, registry.UpdateScene(draft.ID, "missing", func(*Scene) {}))
	assert.Error(t, registry.UpdateScene("missing", "s1", func(*Scene) {}))
}
