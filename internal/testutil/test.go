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

// Package test provides utility functions and mock data to support the
// application's test suite: test-specific configuration loading, a sample
// script-model response, and tiny media fixtures for the export pipeline
// tests.
package test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-story-studio/internal/cloud"
)

// StateManager caches the test configuration so it loads once per run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to reduce
// boilerplate in tests that set up fixtures.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestScriptJSON returns a response in the shape the script model is
// prompted to produce.
func GetTestScriptJSON() string {
	return `{
  "title": "The Lighthouse Keeper",
  "scenes": [
    {
      "narration": "On a cliff above the grey Atlantic, a lighthouse has burned for two hundred years.",
      "visual_prompt": "A weathered stone lighthouse on a cliff edge at dusk, waves crashing below"
    },
    {
      "narration": "Its keeper, Maren, climbs the same one hundred and twelve steps every evening.",
      "visual_prompt": "An older woman climbing a spiral iron staircase inside a lighthouse, warm lantern light"
    },
    {
      "narration": "Tonight, for the first time, the light refuses to turn.",
      "visual_prompt": "A huge fresnel lens standing dark inside a lamp room, storm clouds through the glass"
    }
  ]
}`
}

// GetTestScriptJSONFenced returns the same payload wrapped in a Markdown
// code fence, which models occasionally emit despite the JSON MIME type.
func GetTestScriptJSONFenced() string {
	return "```json\n" + GetTestScriptJSON() + "\n```"
}

// MakeTestPNG encodes a solid-color image for exercising the export
// pipeline's image decode path.
func MakeTestPNG(width, height int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SetupOS points the configuration loader at the test configuration files
// (configs/.env.toml overlaid with configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
