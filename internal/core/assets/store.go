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

// Package assets implements the in-memory store for generated bytes: scene
// images, narration clips, and uploaded background music. Assets are opaque
// handles (UUIDs) and live only as long as the process, matching the
// application's everything-is-ephemeral model. Content types are sniffed at
// Put time so handlers and the bundle writer can name files correctly.
package assets

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// Asset is one stored blob with its sniffed content type.
type Asset struct {
	ID          string
	ContentType string // e.g. "image/png", "audio/x-wav"; "application/octet-stream" when unknown.
	Extension   string // File extension without dot, for bundle filenames.
	Data        []byte
}

// Store is a concurrency-safe in-memory asset table.
type Store struct {
	mu     sync.RWMutex
	assets map[string]*Asset
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{assets: make(map[string]*Asset)}
}

// Put stores data under a fresh handle and returns the handle. The content
// type is sniffed from the bytes; callers that already know the type (e.g.
// the WAV wrapper) can pass it to skip sniffing.
func (s *Store) Put(data []byte, contentType string) string {
	ext := ""
	if contentType == "" {
		if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
			contentType = kind.MIME.Value
			ext = kind.Extension
		} else {
			contentType = "application/octet-stream"
		}
	}
	if ext == "" {
		if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
			ext = kind.Extension
		} else {
			ext = "bin"
		}
	}

	asset := &Asset{
		ID:          uuid.NewString(),
		ContentType: contentType,
		Extension:   ext,
		Data:        data,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset.ID] = asset
	return asset.ID
}

// Get returns the asset for a handle.
func (s *Store) Get(id string) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s not found", id)
	}
	return asset, nil
}

// Count returns the number of stored assets.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

// Delete drops an asset. Missing handles are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, id)
}
