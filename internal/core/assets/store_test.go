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

package assets

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	test "github.com/jaycherian/gcp-go-story-studio/internal/testutil"
)

func TestPutSniffsContentType(t *testing.T) {
	store := NewStore()

	id := store.Put(test.MakeTestPNG(4, 4, color.RGBA{R: 255, A: 255}), "")
	asset, err := store.Get(id)
	require.NoError(t, err)

	assert.Equal(t, "image/png", asset.ContentType)
	assert.Equal(t, "png", asset.Extension)
}

func TestPutKeepsCallerContentType(t *testing.T) {
	store := NewStore()

	// The WAV wrapper knows its own type; sniffing is skipped for the MIME
	// but the extension still comes from the bytes.
	id := store.Put([]byte("RIFF....WAVE"), "audio/x-wav")
	asset, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "audio/x-wav", asset.ContentType)
}

func TestPutUnknownBytes(t *testing.T) {
	store := NewStore()

	id := store.Put([]byte{0x00, 0x01, 0x02}, "")
	asset, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", asset.ContentType)
	assert.Equal(t, "bin", asset.Extension)
}

func TestGetUnknownHandle(t *testing.T) {
	store := NewStore()
	_, err := store.Get("missing")
	assert.Error(t, err)
}

func TestDeleteAndCount(t *testing.T) {
	store := NewStore()
	assert.Equal(t, 0, store.Count())

	a := store.Put([]byte("one"), "text/plain")
	b := store.Put([]byte("two"), "text/plain")
	assert.Equal(t, 2, store.Count())

	store.Delete(a)
	assert.Equal(t, 1, store.Count())
	_, err := store.Get(a)
	assert.Error(t, err)
	_, err = store.Get(b)
	assert.NoError(t, err)

	// Deleting a missing handle is a no-op.
	store.Delete("missing")
	assert.Equal(t, 1, store.Count())
}
