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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the two
// script workflows: generating a script from a topic, and restructuring a
// script the user pasted in. Both produce the same scene contract; only the
// prompt template differs.
package workflow

import (
	"text/template"

	"github.com/jaycherian/gcp-go-story-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/commands"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/cor"
)

// ScenesOutputParam is the context key under which a script workflow leaves
// its parsed scene slice for the calling service.
const ScenesOutputParam = "__scenes_output__"

// ScriptWorkflow turns a ScriptRequest on the context into a scene slice.
type ScriptWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// Execute runs the underlying chain.
func (w *ScriptWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// NewScriptGenerationPipeline builds the topic-to-script workflow.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: The initialized generative AI clients.
//   - agentModelName: The logical agent model to write scripts with.
func NewScriptGenerationPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) *ScriptWorkflow {
	return newScriptWorkflow(
		"script-generation-pipeline",
		config.PromptTemplates.ScriptPrompt,
		serviceClients.AgentModels[agentModelName])
}

// NewScriptFormatPipeline builds the raw-text-to-script workflow. The model
// keeps the user's words and only splits them into narration/visual pairs.
func NewScriptFormatPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) *ScriptWorkflow {
	return newScriptWorkflow(
		"script-format-pipeline",
		config.PromptTemplates.FormatPrompt,
		serviceClients.AgentModels[agentModelName])
}

func newScriptWorkflow(name string, promptSource string, agentModel *cloud.QuotaAwareGenerativeAIModel) *ScriptWorkflow {
	// Templates are validated at startup; a broken one means the app cannot
	// serve its primary endpoint at all.
	promptTemplate, err := template.New(name + "-prompt").Parse(promptSource)
	if err != nil {
		panic(err)
	}

	out := &ScriptWorkflow{BaseCommand: *cor.NewBaseCommand(name)}

	chain := cor.NewBaseChain(name)
	// Step 1: render the prompt and ask the script model for the scene JSON.
	chain.AddCommand(commands.NewScriptWriter("write-script", agentModel, promptTemplate))
	// Step 2: parse the JSON into scenes with fresh identities.
	chain.AddCommand(commands.NewScriptJsonToScenes("parse-script", ScenesOutputParam))
	out.chain = chain

	return out
}
