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

package main

import (
	"context"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-story-studio/internal/cloud"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/assets"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/services"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	registry      *model.DraftRegistry
	store         *assets.Store
	storyService  *services.StoryService
	assetService  *services.AssetService
	exportService *services.ExportService
	bundleService *services.BundleService
}

var state = &StateManager{}

// SetupOS points the config loader at the local configs directory unless the
// environment already says otherwise.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the application configuration once.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state and dependencies.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.registry = model.NewDraftRegistry()
	state.store = assets.NewStore()

	state.storyService = services.NewStoryService(config, cloudClients, state.registry)
	state.assetService = services.NewAssetService(config, cloudClients, state.registry, state.store)
	state.exportService = services.NewExportService(config, state.registry, state.store)
	state.bundleService = services.NewBundleService(state.registry, state.store)
}
