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

// Package main contains the API route definitions for the server: the draft
// lifecycle (create, edit, generate, export, bundle), raw asset serving, and
// a small stats endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-story-studio/internal/core/services"
)

type createDraftRequest struct {
	Topic           string            `json:"topic" binding:"required"`
	DurationMinutes float64           `json:"duration_minutes" binding:"required,gt=0"`
	Voice           string            `json:"voice"`
	AspectRatio     model.AspectRatio `json:"aspect_ratio"`
}

type formatDraftRequest struct {
	RawText     string            `json:"raw_text" binding:"required"`
	Voice       string            `json:"voice"`
	AspectRatio model.AspectRatio `json:"aspect_ratio"`
}

type patchSceneRequest struct {
	Narration    *string `json:"narration"`
	VisualPrompt *string `json:"visual_prompt"`
}

// DraftRouter sets up the routes for the story draft lifecycle.
func DraftRouter(r *gin.RouterGroup) {
	drafts := r.Group("/drafts")
	{
		drafts.POST("", func(c *gin.Context) {
			var req createDraftRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			draft, err := state.storyService.GenerateScript(c.Request.Context(),
				req.Topic, req.DurationMinutes, req.Voice, req.AspectRatio)
			if err != nil {
				log.Printf("Error generating script: %v\n", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "script generation failed"})
				return
			}
			c.JSON(http.StatusCreated, draft)
		})

		drafts.POST("/format", func(c *gin.Context) {
			var req formatDraftRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			draft, err := state.storyService.FormatScript(c.Request.Context(),
				req.RawText, req.Voice, req.AspectRatio)
			if err != nil {
				log.Printf("Error formatting script: %v\n", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "script formatting failed"})
				return
			}
			c.JSON(http.StatusCreated, draft)
		})

		drafts.GET("/:id", func(c *gin.Context) {
			draft, err := state.registry.Get(c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, draft)
		})

		drafts.PATCH("/:id/scenes/:scene_id", func(c *gin.Context) {
			var req patchSceneRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			err := state.registry.UpdateScene(c.Param("id"), c.Param("scene_id"), func(scene *model.Scene) {
				if req.Narration != nil {
					scene.Narration = *req.Narration
					// Edited narration invalidates the old clip.
					scene.AudioAssetID = ""
				}
				if req.VisualPrompt != nil {
					scene.VisualPrompt = *req.VisualPrompt
					scene.ImageAssetID = ""
				}
			})
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			draft, _ := state.registry.Get(c.Param("id"))
			c.JSON(http.StatusOK, draft)
		})

		drafts.POST("/:id/scenes/:scene_id/image", func(c *gin.Context) {
			sceneGenerate(c, state.assetService.GenerateImage)
		})

		drafts.POST("/:id/scenes/:scene_id/speech", func(c *gin.Context) {
			sceneGenerate(c, state.assetService.GenerateSpeech)
		})

		drafts.POST("/:id/generate", func(c *gin.Context) {
			if err := state.assetService.GenerateAll(c.Request.Context(), c.Param("id")); err != nil {
				log.Printf("Error in bulk generation: %v\n", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "bulk generation failed"})
				return
			}
			draft, err := state.registry.Get(c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, draft)
		})

		drafts.POST("/:id/music", func(c *gin.Context) {
			if _, err := state.registry.Get(c.Param("id")); err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			file, err := c.FormFile("file")
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			src, err := file.Open()
			if err != nil {
				c.Status(http.StatusInternalServerError)
				return
			}
			defer src.Close()
			data, err := io.ReadAll(src)
			if err != nil {
				c.Status(http.StatusInternalServerError)
				return
			}
			assetID := state.assetService.UploadMusic(data, file.Header.Get("Content-Type"))
			c.JSON(http.StatusCreated, gin.H{"asset_id": assetID})
		})

		drafts.POST("/:id/export", func(c *gin.Context) {
			var cfg model.ExportConfig
			if err := c.ShouldBindJSON(&cfg); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			name, data, err := state.exportService.Export(c.Request.Context(), c.Param("id"), cfg)
			if err != nil {
				if errors.Is(err, services.ErrExportInProgress) {
					c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error exporting draft %s: %v\n", c.Param("id"), err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
			c.Data(http.StatusOK, "video/mp4", data)
		})

		drafts.GET("/:id/bundle", func(c *gin.Context) {
			name, data, err := state.bundleService.Bundle(c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
			c.Data(http.StatusOK, "application/zip", data)
		})
	}
}

// sceneGenerate runs a single-asset generation and returns the updated
// draft. A generation failure is already recorded on the scene, so the
// response is still the draft; only unknown drafts and scenes are an error.
func sceneGenerate(c *gin.Context, generate func(ctx context.Context, draftID, sceneID string) error) {
	draftID, sceneID := c.Param("id"), c.Param("scene_id")
	genErr := generate(c.Request.Context(), draftID, sceneID)

	draft, err := state.registry.Get(draftID)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	if genErr != nil {
		if !draftHasScene(draft, sceneID) {
			c.Status(http.StatusNotFound)
			return
		}
		log.Printf("Error generating asset for scene %s: %v\n", sceneID, genErr)
	}
	c.JSON(http.StatusOK, draft)
}

func draftHasScene(draft *model.StoryDraft, sceneID string) bool {
	for _, scene := range draft.Scenes {
		if scene.ID == sceneID {
			return true
		}
	}
	return false
}

// AssetRouter sets up the route serving stored asset bytes.
func AssetRouter(r *gin.RouterGroup) {
	group := r.Group("/assets")
	{
		group.GET("/:id", func(c *gin.Context) {
			asset, err := state.store.Get(c.Param("id"))
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.Data(http.StatusOK, asset.ContentType, asset.Data)
		})
	}
}

// Dashboard configures the routes for runtime statistics.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"drafts": state.registry.Count(),
				"assets": state.store.Count(),
			})
		})
	}
}
