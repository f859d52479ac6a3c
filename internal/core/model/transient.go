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

// Package model defines the core data structures for the application. This
// file contains the transient shapes used while a workflow is executing:
// the JSON contract the script model must produce, before it is turned into
// scenes with assigned IDs.
package model

// ScriptRequest is the seed for a script workflow run: either a topic with a
// target duration (generation) or a raw pasted script (formatting).
type ScriptRequest struct {
	Topic           string  `json:"topic,omitempty"`
	DurationMinutes float64 `json:"duration_minutes,omitempty"`
	RawScript       string  `json:"raw_script,omitempty"`
}

// ScriptScene is one entry in the JSON array returned by the script model.
type ScriptScene struct {
	Narration    string `json:"narration"`     // The sentence or two spoken over this scene.
	VisualPrompt string `json:"visual_prompt"` // The image description for this scene.
}

// ScriptDocument is the top-level JSON object the script prompts request.
type ScriptDocument struct {
	Title  string        `json:"title,omitempty"`
	Scenes []ScriptScene `json:"scenes"`
}
