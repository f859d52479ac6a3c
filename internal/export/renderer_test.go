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

package export

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
)

func newTestRenderer(t *testing.T, cfg model.ExportConfig) *Renderer {
	t.Helper()
	r, err := NewRenderer(cfg)
	require.NoError(t, err)
	return r
}

func TestPushInScaleCurve(t *testing.T) {
	assert.InDelta(t, 1.0, pushInScale(0), 1e-9)
	assert.InDelta(t, 1.15, pushInScale(1), 1e-9)
	assert.InDelta(t, 1.075, pushInScale(0.5), 1e-9)

	// Strictly increasing over the scene.
	prev := pushInScale(0)
	for f := 0.01; f <= 1.0; f += 0.01 {
		cur := pushInScale(f)
		require.Greater(t, cur, prev)
		prev = cur
	}
}

func TestAspectRatioDimensions(t *testing.T) {
	r := newTestRenderer(t, model.ExportConfig{AspectRatio: model.AspectLandscape})
	assert.Equal(t, image.Rect(0, 0, 1920, 1080), r.frame.Bounds())

	r = newTestRenderer(t, model.ExportConfig{AspectRatio: model.AspectPortrait})
	assert.Equal(t, image.Rect(0, 0, 1080, 1920), r.frame.Bounds())
}

func TestRenderMissingImageIsBlack(t *testing.T) {
	r := newTestRenderer(t, model.ExportConfig{AspectRatio: model.AspectLandscape})

	frame := r.Render(nil, "", 0)
	for p := 0; p+2 < len(frame.Pix); p += 4 * 997 { // Sparse pixel scan.
		require.Zero(t, frame.Pix[p], "red at %d", p)
		require.Zero(t, frame.Pix[p+1], "green at %d", p)
		require.Zero(t, frame.Pix[p+2], "blue at %d", p)
	}
}

func TestRenderSubtitlesToggle(t *testing.T) {
	const narration = "Hello world"

	withSubs := newTestRenderer(t, model.ExportConfig{
		AspectRatio:   model.AspectLandscape,
		ShowSubtitles: true,
		SubtitleStyle: model.SubtitleModern,
	})
	frame := withSubs.Render(nil, narration, 0)
	assert.True(t, hasInkNearBottom(frame), "subtitles should draw near the bottom edge")

	without := newTestRenderer(t, model.ExportConfig{
		AspectRatio:   model.AspectLandscape,
		ShowSubtitles: false,
		SubtitleStyle: model.SubtitleModern,
	})
	frame = without.Render(nil, narration, 0)
	assert.False(t, hasInkNearBottom(frame), "subtitles disabled must leave the frame black")
}

// hasInkNearBottom scans the subtitle band for any non-black pixel.
func hasInkNearBottom(frame *image.RGBA) bool {
	b := frame.Bounds()
	for y := b.Max.Y - 220; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, _ := frame.At(x, y).RGBA()
			if cr != 0 || cg != 0 || cb != 0 {
				return true
			}
		}
	}
	return false
}

func TestRenderImageCoversFrame(t *testing.T) {
	r := newTestRenderer(t, model.ExportConfig{AspectRatio: model.AspectLandscape})

	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := range src.Pix {
		src.Pix[i] = 255 // Solid white.
	}

	frame := r.Render(src, "", 0)
	for _, pt := range []image.Point{
		{0, 0}, {1919, 0}, {0, 1079}, {1919, 1079}, {960, 540},
	} {
		cr, _, _, _ := frame.At(pt.X, pt.Y).RGBA()
		require.NotZero(t, cr, "cover placement must fill %v", pt)
	}
}

func TestWrapTextGreedyBounds(t *testing.T) {
	r := newTestRenderer(t, model.ExportConfig{AspectRatio: model.AspectLandscape})
	maxWidth := int(float64(1920) * subtitleMaxWidthFrac)

	text := "The quick brown fox jumps over the lazy dog and keeps on running far beyond the fence into the hills"
	lines := wrapText(r.face, text, maxWidth)
	require.NotEmpty(t, lines)

	for i, line := range lines {
		width := font.MeasureString(r.face, line).Ceil()
		assert.LessOrEqual(t, width, maxWidth, "line %d exceeds wrap width", i)
	}

	// Greedy: a line plus the first word of the next line would not fit.
	for i := 0; i < len(lines)-1; i++ {
		next := strings.Fields(lines[i+1])[0]
		candidate := lines[i] + " " + next
		width := font.MeasureString(r.face, candidate).Ceil()
		assert.Greater(t, width, maxWidth, "line %d is not greedy", i)
	}

	// No words lost or reordered.
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
}

func TestWrapTextOverwideSingleWord(t *testing.T) {
	r := newTestRenderer(t, model.ExportConfig{AspectRatio: model.AspectLandscape})

	word := strings.Repeat("W", 200)
	lines := wrapText(r.face, "short "+word+" tail", 400)

	require.Contains(t, lines, word, "an overwide word is emitted on its own line, not split")
}

func TestWrapTextEmpty(t *testing.T) {
	r := newTestRenderer(t, model.ExportConfig{AspectRatio: model.AspectLandscape})
	assert.Empty(t, wrapText(r.face, "", 400))
	assert.Empty(t, wrapText(r.face, "   ", 400))
}

func TestSubtitleLooksCoverAllStyles(t *testing.T) {
	for _, style := range []model.SubtitleStyle{
		model.SubtitleModern, model.SubtitleKaraoke, model.SubtitleClassic, model.SubtitleMinimal,
	} {
		look, ok := subtitleLooks[style]
		require.True(t, ok, "style %s", style)
		assert.NotEqual(t, color.RGBA{}, look.text)
	}
	// Classic has no box; the boxed styles do.
	assert.Zero(t, subtitleLooks[model.SubtitleClassic].box.A)
	assert.NotZero(t, subtitleLooks[model.SubtitleModern].box.A)
}

// Every style draws the drop shadow, so even over a pure white scene the
// subtitle band contains near-black pixels. The translucent boxes alone never
// get that dark: black at alpha 153 over white blends to ~102 per channel.
func TestSubtitleShadowOnAllStyles(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := range src.Pix {
		src.Pix[i] = 255 // Solid white.
	}

	for _, style := range []model.SubtitleStyle{
		model.SubtitleModern, model.SubtitleKaraoke, model.SubtitleClassic, model.SubtitleMinimal,
	} {
		r := newTestRenderer(t, model.ExportConfig{
			AspectRatio:   model.AspectLandscape,
			ShowSubtitles: true,
			SubtitleStyle: style,
		})
		frame := r.Render(src, "Hello world", 0)
		assert.True(t, hasDarkInkNearBottom(frame), "style %s must draw a shadow over a bright scene", style)
	}
}

// hasDarkInkNearBottom scans the subtitle band for a pixel darker than any
// box-over-white blend, i.e. one only the shadow pass produces.
func hasDarkInkNearBottom(frame *image.RGBA) bool {
	b := frame.Bounds()
	for y := b.Max.Y - 220; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, _ := frame.At(x, y).RGBA()
			if cr>>8 < 90 && cg>>8 < 90 && cb>>8 < 90 {
				return true
			}
		}
	}
	return false
}
