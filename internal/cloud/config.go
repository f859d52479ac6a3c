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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, along with the clients used to talk to the
// generative AI backend. This file centralizes all configuration-related
// structs so the application's tunable parameters live in one place.
//
// Structs:
//   - PromptTemplates: text templates for the script-generation prompts.
//   - VertexAiLLMModel: configuration for a Gemini text model.
//   - VertexAiImageModel: configuration for the image-generation paths.
//   - VertexAiSpeechModel: configuration for a text-to-speech model.
//   - RetrySettings: the shared retry/backoff policy parameters.
//   - ExportSettings: fixed encoding targets for the video export pipeline.
//   - Config: the top-level aggregate loaded at startup.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings defines the default content safety thresholds for
// GenAI models. The inputs are user-authored story topics, so the thresholds
// are left non-restrictive and moderation is delegated to the UI layer.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// PromptTemplates holds the text/template sources for the prompts sent to the
// script model. Both templates must produce the same JSON scene contract.
type PromptTemplates struct {
	ScriptPrompt string `toml:"script"` // Template for generating a script from a topic + duration.
	FormatPrompt string `toml:"format"` // Template for structuring a user-pasted raw script.
}

// VertexAiLLMModel represents the configuration for a Gemini text model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The model name (e.g. "gemini-2.0-flash").
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the model.
	Temperature        float32 `toml:"temperature"`         // Sampling temperature.
	TopP               float32 `toml:"top_p"`               // Nucleus sampling parameter.
	TopK               float32 `toml:"top_k"`               // Top-K sampling parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // Output token cap.
	OutputFormat       string  `toml:"output_format"`       // Response MIME type (e.g. "application/json").
	RateLimit          int     `toml:"rate_limit"`          // Requests per second allowed against this model.
}

// VertexAiImageModel represents the configuration for the image-generation
// paths. Primary is an Imagen-class model; Fallback is a Gemini model with
// image output, used only when the primary fails for a model-class reason.
type VertexAiImageModel struct {
	Primary   string `toml:"primary"`    // Imagen model name for the primary path.
	Fallback  string `toml:"fallback"`   // Gemini image model name for the fallback path.
	Style     string `toml:"style"`      // Style suffix appended to every visual prompt.
	RateLimit int    `toml:"rate_limit"` // Requests per second across both paths.
}

// VertexAiSpeechModel represents the configuration for the TTS model.
type VertexAiSpeechModel struct {
	Model     string `toml:"model"`      // TTS-capable Gemini model name.
	Voice     string `toml:"voice"`      // Default prebuilt voice name.
	RateLimit int    `toml:"rate_limit"` // Requests per second.
}

// RetrySettings parameterizes the shared retry policy applied to every
// generative call. Only rate-limit-class failures are retried.
type RetrySettings struct {
	MaxAttempts    int     `toml:"max_attempts"`     // Total attempts before the original error is returned.
	InitialDelayMs int     `toml:"initial_delay_ms"` // Delay before the first retry.
	Multiplier     float64 `toml:"multiplier"`       // Exponential growth factor between retries.
	JitterFraction float64 `toml:"jitter_fraction"`  // Random fraction of the delay added to each wait.
}

// ExportSettings holds the fixed encoding targets for the export pipeline.
// These are deliberately constants-with-a-config-file rather than per-title
// tuning knobs.
type ExportSettings struct {
	FrameRate      int    `toml:"frame_rate"`       // Target frames per second.
	VideoBitrate   string `toml:"video_bitrate"`    // Encoder bitrate (e.g. "8M").
	DefaultSceneMs int    `toml:"default_scene_ms"` // Visual duration when a scene has no narration audio.
	SceneGraceMs   int    `toml:"scene_grace_ms"`   // Grace added per scene so trailing narration is not cut.
	FFmpegPath     string `toml:"ffmpeg_path"`      // Path to the ffmpeg binary.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
		ThreadPoolSize  int    `toml:"thread_pool_size"`  // Worker count for bulk asset generation.
		TaskPacingMs    int    `toml:"task_pacing_ms"`    // Mandatory delay between dispatched bulk tasks.
	} `toml:"application"`
	PromptTemplates PromptTemplates             `toml:"prompt_templates"` // Prompt templates configuration.
	AgentModels     map[string]VertexAiLLMModel `toml:"agent_models"`     // Text models, keyed by logical name (e.g. "script-writer").
	ImageModel      VertexAiImageModel          `toml:"image_model"`      // Image generation configuration.
	SpeechModel     VertexAiSpeechModel         `toml:"speech_model"`     // Text-to-speech configuration.
	Retry           RetrySettings               `toml:"retry"`            // Shared retry policy parameters.
	Export          ExportSettings              `toml:"export"`           // Export pipeline encoding targets.
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. The maps must be initialized before the TOML loader populates them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		AgentModels: make(map[string]VertexAiLLMModel),
	}
}
