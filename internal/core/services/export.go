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
// into. This file implements the export service: a thin guard around the
// export pipeline that serializes runs, since a render occupies an ffmpeg
// process and a full worker's worth of CPU.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-story-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/assets"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/export"
)

// ErrExportInProgress is returned when an export is requested while another
// run is still active. The HTTP layer maps it to 409 Conflict.
var ErrExportInProgress = errors.New("an export is already in progress")

// ExportService runs the video export pipeline, one render at a time.
type ExportService struct {
	registry *model.DraftRegistry
	pipeline *export.Pipeline

	mu   sync.Mutex
	busy bool
}

// NewExportService builds the service with pipeline options from the export
// section of the configuration.
func NewExportService(config *cloud.Config, registry *model.DraftRegistry, store *assets.Store) *ExportService {
	pipeline := export.NewPipeline(store, export.Options{
		FrameRate:            config.Export.FrameRate,
		DefaultSceneDuration: time.Duration(config.Export.DefaultSceneMs) * time.Millisecond,
		SceneGrace:           time.Duration(config.Export.SceneGraceMs) * time.Millisecond,
		VideoBitrate:         config.Export.VideoBitrate,
		FFmpegPath:           config.Export.FFmpegPath,
	})
	return &ExportService{registry: registry, pipeline: pipeline}
}

// Export renders the draft with the given settings and returns the download
// filename and the MP4 bytes. Only one export runs at a time; concurrent
// calls fail fast with ErrExportInProgress.
func (s *ExportService) Export(ctx context.Context, draftID string, cfg model.ExportConfig) (string, []byte, error) {
	if err := s.acquire(); err != nil {
		return "", nil, err
	}
	defer s.release()

	draft, err := s.registry.Get(draftID)
	if err != nil {
		return "", nil, err
	}

	data, err := s.pipeline.Export(ctx, draft.Snapshot(), cfg)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("story_%d.mp4", time.Now().Unix()), data, nil
}

func (s *ExportService) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrExportInProgress
	}
	s.busy = true
	return nil
}

func (s *ExportService) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}
