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
// into. This file implements the story service: creating drafts from a topic
// via the script-generation workflow, and from pasted text via the
// script-format workflow.
package services

import (
	"context"
	"fmt"

	"github.com/jaycherian/gcp-go-story-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/workflow"
)

// ScriptAgentModelName is the logical agent model key in the configuration
// used for both script workflows.
const ScriptAgentModelName = "script-writer"

// StoryService creates and edits story drafts.
type StoryService struct {
	registry         *model.DraftRegistry
	generatePipeline *workflow.ScriptWorkflow
	formatPipeline   *workflow.ScriptWorkflow
}

// NewStoryService wires the script workflows to the draft registry.
func NewStoryService(config *cloud.Config, serviceClients *cloud.ServiceClients, registry *model.DraftRegistry) *StoryService {
	return &StoryService{
		registry:         registry,
		generatePipeline: workflow.NewScriptGenerationPipeline(config, serviceClients, ScriptAgentModelName),
		formatPipeline:   workflow.NewScriptFormatPipeline(config, serviceClients, ScriptAgentModelName),
	}
}

// GenerateScript writes a new script for the topic and registers it as a
// draft. The scene count is derived from the requested duration.
func (s *StoryService) GenerateScript(ctx context.Context, topic string, durationMinutes float64, voice string, aspect model.AspectRatio) (*model.StoryDraft, error) {
	scenes, err := s.runScript(ctx, s.generatePipeline, &model.ScriptRequest{
		Topic:           topic,
		DurationMinutes: durationMinutes,
	})
	if err != nil {
		return nil, err
	}
	return s.registry.Put(&model.StoryDraft{
		Topic:           topic,
		DurationMinutes: durationMinutes,
		Voice:           voice,
		AspectRatio:     aspect,
		Scenes:          scenes,
	}), nil
}

// FormatScript splits user-pasted text into scenes and registers the draft.
// The model keeps the author's words; it only adds structure and visual
// prompts.
func (s *StoryService) FormatScript(ctx context.Context, rawScript string, voice string, aspect model.AspectRatio) (*model.StoryDraft, error) {
	scenes, err := s.runScript(ctx, s.formatPipeline, &model.ScriptRequest{RawScript: rawScript})
	if err != nil {
		return nil, err
	}
	return s.registry.Put(&model.StoryDraft{
		Voice:       voice,
		AspectRatio: aspect,
		Scenes:      scenes,
	}), nil
}

func (s *StoryService) runScript(ctx context.Context, pipeline *workflow.ScriptWorkflow, request *model.ScriptRequest) ([]*model.Scene, error) {
	corCtx := cor.NewBaseContext()
	corCtx.SetContext(ctx)
	corCtx.Add(cor.CtxIn, request)
	defer corCtx.Close()

	pipeline.Execute(corCtx)
	if corCtx.HasErrors() {
		return nil, firstError(corCtx.GetErrors())
	}

	scenes, ok := corCtx.Get(workflow.ScenesOutputParam).([]*model.Scene)
	if !ok || len(scenes) == 0 {
		return nil, fmt.Errorf("script workflow produced no scenes")
	}
	return scenes, nil
}

// firstError collapses a workflow's error map into the one error worth
// returning to a caller. Chains stop at the first failure, so the map
// normally holds a single entry.
func firstError(errs map[string]error) error {
	for name, err := range errs {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
