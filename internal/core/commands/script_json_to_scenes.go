// Copyright 2025 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines a data
// transformation step: it takes the raw JSON text from the script model and
// turns it into scenes with assigned identities.
//
// Logic Flow:
//  1. It receives the raw JSON string from the context (output of the
//     `ScriptWriter` command).
//  2. It strips a Markdown code fence if the model wrapped its answer in one,
//     then parses the scene-array contract with `json.Unmarshal`. Both the
//     bare-array and `{"scenes": [...]}` shapes are accepted.
//  3. Each parsed entry becomes a `model.Scene` with a fresh UUID and empty
//     asset handles, ready for the editing surface.
//  4. The scene slice is placed into the context under the configured output
//     key for the calling service to attach to a draft.
package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
)

// ScriptJsonToScenes is a command that parses script JSON into scenes.
type ScriptJsonToScenes struct {
	cor.BaseCommand
}

// NewScriptJsonToScenes is the constructor for the ScriptJsonToScenes command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key where the scene slice will be stored.
func NewScriptJsonToScenes(name string, outputParamName string) *ScriptJsonToScenes {
	out := ScriptJsonToScenes{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return &out
}

// Execute parses the model output and assigns scene identities.
func (s *ScriptJsonToScenes) Execute(context cor.Context) {
	in := context.Get(s.GetInputParam()).(string)

	doc, err := parseScriptDocument(in)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), err)
		return
	}
	if len(doc.Scenes) == 0 {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("script model returned no scenes"))
		return
	}

	scenes := make([]*model.Scene, len(doc.Scenes))
	for i, entry := range doc.Scenes {
		scenes[i] = &model.Scene{
			ID:           uuid.NewString(),
			Narration:    strings.TrimSpace(entry.Narration),
			VisualPrompt: strings.TrimSpace(entry.VisualPrompt),
		}
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(s.GetOutputParam(), scenes)
	context.Add(cor.CtxOut, scenes)
}

// parseScriptDocument accepts either the documented object shape or a bare
// scene array, with or without a Markdown fence around it.
func parseScriptDocument(raw string) (*model.ScriptDocument, error) {
	cleaned := stripCodeFence(raw)

	doc := &model.ScriptDocument{}
	if err := json.Unmarshal([]byte(cleaned), doc); err == nil {
		return doc, nil
	}

	var scenes []model.ScriptScene
	if err := json.Unmarshal([]byte(cleaned), &scenes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal script JSON: %w", err)
	}
	return &model.ScriptDocument{Scenes: scenes}, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence when present.
// Models occasionally add one even with a JSON response MIME type.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
