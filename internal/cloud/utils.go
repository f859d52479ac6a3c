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

// Package cloud provides components for interacting with the generative AI
// backend. This file contains general-purpose helpers supporting the package:
// hierarchical configuration loading and factory functions for genai prompt
// parts.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Hierarchical configuration loader. It first reads a base
//     configuration file and then overwrites values with an environment-specific
//     file (e.g. .env.local.toml, .env.test.toml). The environment is chosen
//     through an environment variable.
//   - NewTextPart, NewTextContent: Factories for genai prompt objects.
package cloud

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

// Cloud constants define key strings used for configuration loading.
const (
	ConfigFileBaseName  = ".env"                 // The base name for configuration files (e.g. ".env.toml").
	ConfigFileExtension = ".toml"                // The file extension for configuration files.
	ConfigSeparator     = "."                    // The separator used in config file names (e.g. ".env.local.toml").
	EnvConfigFilePrefix = "STUDIO_CONFIG_PREFIX" // Environment variable naming the config directory.
	EnvConfigRuntime    = "STUDIO_RUNTIME"       // Environment variable naming the runtime context (e.g. "local", "test").
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first
// loads a base configuration file and then overwrites its values with an
// environment-specific configuration file. The config directory and runtime
// name are read from environment variables.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct populated from
//     the TOML files.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	environmentName := os.Getenv(EnvConfigRuntime)

	baseConfigFile := fmt.Sprintf("%s%c%s%s",
		configurationFilePrefix, os.PathSeparator, ConfigFileBaseName, ConfigFileExtension)

	if fileExists(baseConfigFile) {
		if _, err := toml.DecodeFile(baseConfigFile, baseConfig); err != nil {
			log.Printf("failed to decode base config file %s: %v\n", baseConfigFile, err)
		}
	}

	// Overlay the environment-specific file when a runtime is declared.
	if len(strings.TrimSpace(environmentName)) > 0 {
		envConfigFile := fmt.Sprintf("%s%c%s%s%s%s",
			configurationFilePrefix, os.PathSeparator, ConfigFileBaseName,
			ConfigSeparator, environmentName, ConfigFileExtension)
		if fileExists(envConfigFile) {
			if _, err := toml.DecodeFile(envConfigFile, baseConfig); err != nil {
				log.Printf("failed to decode environment config file %s: %v\n", envConfigFile, err)
			}
		}
	}
}

// NewTextPart creates a genai text part from a string. A small readability
// helper for building multi-part prompts.
func NewTextPart(text string) *genai.Part {
	return &genai.Part{Text: text}
}

// NewTextContent wraps a single text part in a content list, the shape the
// Models API expects for a plain text prompt.
func NewTextContent(text string) []*genai.Content {
	return []*genai.Content{{Parts: []*genai.Part{NewTextPart(text)}, Role: genai.RoleUser}}
}
