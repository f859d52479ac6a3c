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
// into. This file implements the bundle service: a zip download of a draft's
// generated media plus a plain-text transcript, for users who want the raw
// pieces instead of (or alongside) the rendered video.
package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/assets"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
)

// BundleService packages a draft's assets for download.
type BundleService struct {
	registry *model.DraftRegistry
	store    *assets.Store
}

// NewBundleService constructs the service.
func NewBundleService(registry *model.DraftRegistry, store *assets.Store) *BundleService {
	return &BundleService{registry: registry, store: store}
}

// Bundle builds the zip: scene_NN_image.* and scene_NN_narration.* for every
// scene with stored media, plus transcript.txt with the numbered narration.
// Scenes without assets simply contribute nothing but their transcript line.
func (s *BundleService) Bundle(draftID string) (string, []byte, error) {
	draft, err := s.registry.Get(draftID)
	if err != nil {
		return "", nil, err
	}
	scenes := draft.Snapshot()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	var transcript bytes.Buffer
	if draft.Topic != "" {
		fmt.Fprintf(&transcript, "%s\n\n", draft.Topic)
	}

	for i, scene := range scenes {
		fmt.Fprintf(&transcript, "Scene %d: %s\n", i+1, scene.Narration)

		if scene.ImageAssetID != "" {
			if err := s.addAsset(w, scene.ImageAssetID, fmt.Sprintf("scene_%02d_image", i+1)); err != nil {
				return "", nil, err
			}
		}
		if scene.AudioAssetID != "" {
			if err := s.addAsset(w, scene.AudioAssetID, fmt.Sprintf("scene_%02d_narration", i+1)); err != nil {
				return "", nil, err
			}
		}
	}

	entry, err := w.Create("transcript.txt")
	if err != nil {
		return "", nil, err
	}
	if _, err := entry.Write(transcript.Bytes()); err != nil {
		return "", nil, err
	}

	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("story_bundle_%d.zip", time.Now().Unix()), buf.Bytes(), nil
}

func (s *BundleService) addAsset(w *zip.Writer, assetID, baseName string) error {
	asset, err := s.store.Get(assetID)
	if err != nil {
		// A deleted asset should not sink the whole bundle.
		return nil
	}
	entry, err := w.Create(fmt.Sprintf("%s.%s", baseName, asset.Extension))
	if err != nil {
		return err
	}
	_, err = entry.Write(asset.Data)
	return err
}
