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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that asks the script model to write (or restructure) a narrated
// story script.
//
// Logic Flow:
//  1. It receives a `model.ScriptRequest` from the context: either a topic
//     with a target duration, or a raw script the user pasted in.
//  2. It renders the prompt from a Go template, injecting the topic, the
//     derived scene count, and the raw script when present. The templates
//     instruct the model to answer with the scene-array JSON contract.
//  3. It sends the prompt to the rate-limited script model.
//  4. It places the model's raw JSON text into the context for the
//     `ScriptJsonToScenes` command to parse.
package commands

import (
	"bytes"
	"fmt"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-story-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
)

// ScriptWriter is a command that uses a generative model to produce the
// scene-by-scene script JSON for a story.
type ScriptWriter struct {
	cor.BaseCommand
	generativeAIModel  *cloud.QuotaAwareGenerativeAIModel // The rate-limited script model client.
	template           *template.Template                 // The Go template for building the prompt.
	inputTokenCounter  metric.Int64Counter                // OTel counter for input tokens.
	outputTokenCounter metric.Int64Counter                // OTel counter for output tokens.
}

// NewScriptWriter is the constructor for the ScriptWriter command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - generativeAIModel: The rate-limited wrapper for the script model.
//   - template: A parsed Go template for the prompt.
//
// Outputs:
//   - *ScriptWriter: The instantiated command with telemetry counters ready.
func NewScriptWriter(
	name string,
	generativeAIModel *cloud.QuotaAwareGenerativeAIModel,
	template *template.Template) *ScriptWriter {

	out := &ScriptWriter{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		template:          template}

	out.inputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.outputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))

	return out
}

// GenerateParams creates the map of dynamic data injected into the prompt
// template. The scene count is derived here, not by the model, so the
// contract stays deterministic.
func (t *ScriptWriter) GenerateParams(request *model.ScriptRequest) map[string]interface{} {
	params := make(map[string]interface{})
	params["TOPIC"] = request.Topic
	params["DURATION_MINUTES"] = request.DurationMinutes
	params["SCENE_COUNT"] = model.SceneCountFor(request.DurationMinutes)
	params["RAW_SCRIPT"] = request.RawScript
	return params
}

// Execute renders the prompt and calls the script model.
func (t *ScriptWriter) Execute(context cor.Context) {
	request := context.Get(t.GetInputParam()).(*model.ScriptRequest)

	var buffer bytes.Buffer
	err := t.template.Execute(&buffer, t.GenerateParams(request))
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	resp, err := t.generativeAIModel.GenerateContent(context.GetContext(), cloud.NewTextContent(buffer.String()))
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("script model request failed: %w", err))
		return
	}
	if usage := resp.UsageMetadata; usage != nil {
		t.inputTokenCounter.Add(context.GetContext(), int64(usage.PromptTokenCount))
		t.outputTokenCounter.Add(context.GetContext(), int64(usage.CandidatesTokenCount))
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), resp.Text())
}
