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

package export

import (
	"context"
	"errors"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/assets"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
)

const tracerName = "github.com/jaycherian/gcp-go-story-studio/internal/export"

// ErrNoScenes is returned for an export request against an empty draft.
var ErrNoScenes = errors.New("draft has no scenes to export")

// AssetSource resolves asset handles to stored bytes. *assets.Store satisfies
// it; tests substitute fixtures.
type AssetSource interface {
	Get(id string) (*assets.Asset, error)
}

// Options are the operator-tunable knobs for the pipeline, normally populated
// from the export section of the TOML config.
type Options struct {
	FrameRate            int           // Output frames per second.
	DefaultSceneDuration time.Duration // Slot length for scenes without narration audio.
	SceneGrace           time.Duration // Breathing room appended to every scene.
	VideoBitrate         string        // ffmpeg bitrate spec, e.g. "8M".
	FFmpegPath           string        // Encoder binary; empty means $PATH lookup.
}

func (o Options) withDefaults() Options {
	if o.FrameRate <= 0 {
		o.FrameRate = 30
	}
	if o.DefaultSceneDuration <= 0 {
		o.DefaultSceneDuration = 3 * time.Second
	}
	if o.SceneGrace <= 0 {
		o.SceneGrace = 500 * time.Millisecond
	}
	if o.VideoBitrate == "" {
		o.VideoBitrate = "8M"
	}
	return o
}

// exportConfig bundles the per-run request with the resolved pipeline knobs.
type exportConfig struct {
	config               model.ExportConfig
	frameRate            int
	defaultSceneDuration time.Duration
	sceneGrace           time.Duration
}

// Pipeline turns a scene snapshot into MP4 bytes. It holds no per-run state;
// every Export call builds a fresh driver, so a Pipeline is safe for
// concurrent use (serialization of runs is the export service's job).
type Pipeline struct {
	store AssetSource
	opts  Options

	// Seams for tests: audio decode and encoder construction.
	decodeTrack func(workDir string, data []byte) (*Track, error)
	newSink     func(workDir, audioPath string, width, height int) Sink

	tracer trace.Tracer
}

// NewPipeline builds a pipeline with the real ffmpeg decoder and encoder.
func NewPipeline(store AssetSource, opts Options) *Pipeline {
	opts = opts.withDefaults()
	p := &Pipeline{
		store:       store,
		opts:        opts,
		decodeTrack: DecodeTrack,
		tracer:      otel.Tracer(tracerName),
	}
	p.newSink = func(workDir, audioPath string, width, height int) Sink {
		return NewFFmpegSink(opts.FFmpegPath, width, height, opts.FrameRate, opts.VideoBitrate, audioPath, workDir)
	}
	return p
}

// Export renders the scenes into a finished MP4. The scene slice is a
// snapshot; editing-time fields (in-flight flags, generation errors) are
// ignored. Cancel the context to abort a run; partial output is discarded.
func (p *Pipeline) Export(ctx context.Context, scenes []model.Scene, cfg model.ExportConfig) ([]byte, error) {
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}

	ctx, span := p.tracer.Start(ctx, "export.run")
	defer span.End()

	workDir, err := os.MkdirTemp("", "story-export-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	d := &driver{
		pipeline: p,
		scenes:   scenes,
		workDir:  workDir,
		cfg: exportConfig{
			config:               cfg,
			frameRate:            p.opts.FrameRate,
			defaultSceneDuration: p.opts.DefaultSceneDuration,
			sceneGrace:           p.opts.SceneGrace,
		},
		state: StateIdle,
	}
	return d.run(ctx)
}
