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

// Package model defines the core data structures for the application: scenes,
// story drafts, and the export configuration value object. Everything here is
// held in memory only; nothing survives a server restart by design.
package model

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
)

// AspectRatio is the fixed enumeration of supported output shapes.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9" // 1920x1080
	AspectPortrait  AspectRatio = "9:16" // 1080x1920
)

// Dimensions returns the output pixel size for the aspect ratio. Unknown
// values fall back to landscape.
func (a AspectRatio) Dimensions() (width, height int) {
	if a == AspectPortrait {
		return 1080, 1920
	}
	return 1920, 1080
}

// SubtitleStyle selects a subtitle rendering preset.
type SubtitleStyle string

const (
	SubtitleModern  SubtitleStyle = "modern"  // Boxed white text.
	SubtitleKaraoke SubtitleStyle = "karaoke" // Boxed, highlight color.
	SubtitleClassic SubtitleStyle = "classic" // Gold text, no box.
	SubtitleMinimal SubtitleStyle = "minimal" // Boxed, lighter weight.
)

// Scene is one narrated segment of the output video. During editing the asset
// fields fill in as generation completes; the export pipeline consumes an
// immutable snapshot.
type Scene struct {
	ID            string `json:"id"`
	Narration     string `json:"narration"`                  // Text spoken and subtitled for this scene.
	VisualPrompt  string `json:"visual_prompt"`              // Image description used by the generation path only.
	ImageAssetID  string `json:"image_asset_id,omitempty"`   // Handle into the asset store; empty while pending.
	AudioAssetID  string `json:"audio_asset_id,omitempty"`   // Handle to the narration clip; empty while pending.
	GenerationErr string `json:"generation_error,omitempty"` // Editing-time error state; ignored by export.
	InFlight      bool   `json:"in_flight"`                  // Editing-time UI state; ignored by export.
}

// ExportConfig is the value object captured once per export run.
type ExportConfig struct {
	AspectRatio   AspectRatio   `json:"aspect_ratio"`
	MusicVolume   float64       `json:"music_volume"` // Normalized gain in [0,1].
	SubtitleStyle SubtitleStyle `json:"subtitle_style"`
	ShowSubtitles bool          `json:"show_subtitles"`
	MusicAssetID  string        `json:"music_asset_id,omitempty"` // Loopable background track; empty means silence.
}

// SceneCountFor derives the scene count for a generated script:
// max(3, ceil(minutes × 6)).
func SceneCountFor(durationMinutes float64) int {
	n := int(math.Ceil(durationMinutes * 6))
	if n < 3 {
		n = 3
	}
	return n
}

// StoryDraft is the mutable editing state for one story, owned by the draft
// registry. The export pipeline never sees a draft, only a scene snapshot.
type StoryDraft struct {
	ID              string      `json:"id"`
	Topic           string      `json:"topic"`
	DurationMinutes float64     `json:"duration_minutes,omitempty"`
	Voice           string      `json:"voice,omitempty"`
	AspectRatio     AspectRatio `json:"aspect_ratio,omitempty"` // Shape used when generating scene images.
	Scenes          []*Scene    `json:"scenes"`
}

// Snapshot returns a deep copy of the draft's scenes for an export run, so
// concurrent edits cannot mutate an export in progress.
func (d *StoryDraft) Snapshot() []Scene {
	out := make([]Scene, len(d.Scenes))
	for i, s := range d.Scenes {
		out[i] = *s
	}
	return out
}

// DraftRegistry is the in-memory holder for all drafts, replacing the
// original application's ambient root-component state with explicit update
// functions behind a lock.
type DraftRegistry struct {
	mu     sync.RWMutex
	drafts map[string]*StoryDraft
}

// NewDraftRegistry returns an empty registry.
func NewDraftRegistry() *DraftRegistry {
	return &DraftRegistry{drafts: make(map[string]*StoryDraft)}
}

// Put stores a draft, assigning an ID when it has none, and returns it.
func (r *DraftRegistry) Put(draft *StoryDraft) *StoryDraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	r.drafts[draft.ID] = draft
	return draft
}

// Get returns the draft for id.
func (r *DraftRegistry) Get(id string) (*StoryDraft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	draft, ok := r.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s not found", id)
	}
	return draft, nil
}

// Count returns the number of registered drafts.
func (r *DraftRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts)
}

// UpdateScene applies fn to the identified scene under the registry lock.
func (r *DraftRegistry) UpdateScene(draftID, sceneID string, fn func(*Scene)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft, ok := r.drafts[draftID]
	if !ok {
		return fmt.Errorf("draft %s not found", draftID)
	}
	for _, scene := range draft.Scenes {
		if scene.ID == sceneID {
			fn(scene)
			return nil
		}
	}
	return fmt.Errorf("scene %s not found in draft %s", sceneID, draftID)
}
