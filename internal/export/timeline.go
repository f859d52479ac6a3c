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
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	// Registered decoders for stored scene images.
	_ "image/jpeg"
	_ "image/png"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
)

// State is the export run's lifecycle position. Transitions are strictly
// forward: Idle -> Initializing -> Rendering -> Finalizing -> Complete, with
// Aborted reachable from any active state on failure or cancellation.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateRendering
	StateFinalizing
	StateComplete
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateRendering:
		return "rendering"
	case StateFinalizing:
		return "finalizing"
	case StateComplete:
		return "complete"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// scenePlan is one scene after initialization: decoded media plus its
// resolved slot on the timeline.
type scenePlan struct {
	narration string
	image     image.Image   // nil renders the black base.
	audio     *Track        // nil for scenes without a clip.
	start     time.Duration // Offset from the start of the video.
	duration  time.Duration // Clip (or default) length plus the grace pad.
}

// driver owns one export run from snapshot to container bytes.
type driver struct {
	pipeline *Pipeline
	scenes   []model.Scene
	cfg      exportConfig
	workDir  string

	state    State
	plans    []*scenePlan
	total    time.Duration
	renderer *Renderer
	sink     Sink
}

func (d *driver) transition(next State) {
	slog.Debug("export state transition",
		slog.String("from", d.state.String()),
		slog.String("to", next.String()))
	d.state = next
}

// run executes the state machine. Any failure or context cancellation lands
// in Aborted with partial output discarded.
func (d *driver) run(ctx context.Context) ([]byte, error) {
	d.transition(StateInitializing)
	if err := d.initialize(ctx); err != nil {
		return d.abort(err)
	}

	d.transition(StateRendering)
	if err := d.renderAll(ctx); err != nil {
		return d.abort(err)
	}

	d.transition(StateFinalizing)
	out, err := d.sink.Finalize()
	if err != nil {
		return d.abort(fmt.Errorf("failed to finalize export: %w", err))
	}

	d.transition(StateComplete)
	return out, nil
}

func (d *driver) abort(err error) ([]byte, error) {
	if d.sink != nil {
		d.sink.Abort()
	}
	d.transition(StateAborted)
	return nil, err
}

// initialize resolves every scene's duration, renders the soundtrack, and
// starts the encoder. Per-scene media failures degrade that scene (silent,
// black, or default-length) rather than failing the run; only infrastructure
// failures are fatal.
func (d *driver) initialize(ctx context.Context) error {
	ctx, span := d.pipeline.tracer.Start(ctx, "export.initialize")
	defer span.End()

	var cursor time.Duration
	for i, scene := range d.scenes {
		if err := ctx.Err(); err != nil {
			return err
		}

		plan := &scenePlan{narration: scene.Narration, start: cursor}

		if scene.AudioAssetID != "" {
			track, err := d.decodeAudioAsset(scene.AudioAssetID)
			if err != nil {
				slog.Warn("scene narration clip unusable, using default duration",
					slog.Int("scene", i), slog.String("error", err.Error()))
			} else {
				plan.audio = track
			}
		}
		clip := plan.audio.Duration()
		if clip == 0 {
			clip = d.cfg.defaultSceneDuration
		}
		plan.duration = clip + d.cfg.sceneGrace

		if scene.ImageAssetID != "" {
			img, err := d.decodeImageAsset(scene.ImageAssetID)
			if err != nil {
				slog.Warn("scene image unusable, rendering black",
					slog.Int("scene", i), slog.String("error", err.Error()))
			} else {
				plan.image = img
			}
		}

		cursor += plan.duration
		d.plans = append(d.plans, plan)
	}
	d.total = cursor
	span.SetAttributes(
		attribute.Int("scenes", len(d.plans)),
		attribute.Int64("total_ms", d.total.Milliseconds()))

	audioPath, err := d.renderSoundtrack()
	if err != nil {
		return err
	}

	renderer, err := NewRenderer(d.cfg.config)
	if err != nil {
		return err
	}
	d.renderer = renderer

	width, height := d.cfg.config.AspectRatio.Dimensions()
	d.sink = d.pipeline.newSink(d.workDir, audioPath, width, height)
	if err := d.sink.Start(ctx); err != nil {
		return err
	}
	return nil
}

// renderSoundtrack mixes the bed and narration clips into one WAV covering
// the full video and writes it for the encoder.
func (d *driver) renderSoundtrack() (string, error) {
	mixer := NewMixer(d.total)

	if d.cfg.config.MusicAssetID != "" {
		bed, err := d.decodeAudioAsset(d.cfg.config.MusicAssetID)
		if err != nil {
			slog.Warn("background track unusable, exporting without music",
				slog.String("error", err.Error()))
		} else {
			mixer.SetBackground(bed, d.cfg.config.MusicVolume)
		}
	}
	for _, plan := range d.plans {
		mixer.ScheduleNarration(plan.audio, plan.start)
	}

	path, err := writeTrackFile(d.workDir, mixer.Mix())
	if err != nil {
		return "", fmt.Errorf("failed to write soundtrack: %w", err)
	}
	return path, nil
}

// renderAll streams every frame to the sink. Frame counts come from rounded
// cumulative boundaries so rounding error never accumulates across scenes,
// and the zoom fraction is derived from the frame index, not the wall clock.
func (d *driver) renderAll(ctx context.Context) error {
	fps := float64(d.cfg.frameRate)
	prevBoundary := 0

	for i, plan := range d.plans {
		boundary := int(math.Round((plan.start + plan.duration).Seconds() * fps))
		frames := boundary - prevBoundary
		prevBoundary = boundary

		sceneCtx, span := d.pipeline.tracer.Start(ctx, "export.render.scene",
			trace.WithAttributes(
				attribute.Int("scene", i),
				attribute.Int("frames", frames)))
		err := d.renderScene(sceneCtx, plan, frames)
		span.End()
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *driver) renderScene(ctx context.Context, plan *scenePlan, frames int) error {
	for f := 0; f < frames; f++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		elapsed := float64(f) / float64(frames)
		frame := d.renderer.Render(plan.image, plan.narration, elapsed)
		if err := d.sink.WriteFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

func (d *driver) decodeAudioAsset(id string) (*Track, error) {
	asset, err := d.pipeline.store.Get(id)
	if err != nil {
		return nil, err
	}
	return d.pipeline.decodeTrack(d.workDir, asset.Data)
}

func (d *driver) decodeImageAsset(id string) (image.Image, error) {
	asset, err := d.pipeline.store.Get(id)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image asset %s: %w", id, err)
	}
	return img, nil
}
