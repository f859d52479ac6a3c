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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/jaycherian/gcp-go-story-studio/internal/core/model"
)

const (
	// Geometry of the subtitle block, in output pixels.
	subtitleLineHeight   = 60
	subtitleBaselineRise = 100  // Baseline of the bottom line sits this far above the frame bottom.
	subtitleMaxWidthFrac = 0.80 // Wrap lines at this fraction of the frame width.
	subtitleFontSize     = 46

	// The slow push-in: scale grows linearly from 1.0 to 1.15 over the scene.
	zoomStart = 1.0
	zoomRange = 0.15

	boxPadX      = 24
	boxPadY      = 10
	boxCornerRad = 12
)

// subtitleLook is the per-style rendering recipe. The drop shadow is not part
// of the look: every style carries it.
type subtitleLook struct {
	text    color.RGBA
	box     color.RGBA // Zero alpha means no box.
	regular bool       // Use the regular weight instead of bold.
}

var subtitleLooks = map[model.SubtitleStyle]subtitleLook{
	model.SubtitleModern:  {text: color.RGBA{255, 255, 255, 255}, box: color.RGBA{0, 0, 0, 153}},
	model.SubtitleKaraoke: {text: color.RGBA{255, 214, 0, 255}, box: color.RGBA{0, 0, 0, 153}},
	model.SubtitleClassic: {text: color.RGBA{255, 200, 60, 255}},
	model.SubtitleMinimal: {text: color.RGBA{255, 255, 255, 255}, box: color.RGBA{0, 0, 0, 90}, regular: true},
}

// Renderer composites one output frame at a time: black base, the scene image
// scaled to cover the frame with a slow push-in, and optionally the narration
// as wrapped subtitles near the bottom edge.
type Renderer struct {
	width  int
	height int
	face   font.Face
	look   subtitleLook
	show   bool
	frame  *image.RGBA // Reused across frames; the sink copies bytes out synchronously.
}

// NewRenderer builds a renderer for one export run.
func NewRenderer(cfg model.ExportConfig) (*Renderer, error) {
	width, height := cfg.AspectRatio.Dimensions()

	look, ok := subtitleLooks[cfg.SubtitleStyle]
	if !ok {
		look = subtitleLooks[model.SubtitleModern]
	}

	ttf := gobold.TTF
	if look.regular {
		ttf = goregular.TTF
	}
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subtitle font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    subtitleFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build subtitle face: %w", err)
	}

	return &Renderer{
		width:  width,
		height: height,
		face:   face,
		look:   look,
		show:   cfg.ShowSubtitles,
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Render draws one frame. elapsed is the scene-relative progress in [0,1) and
// drives only the zoom; a nil scene image leaves the black base visible so a
// scene with a failed image still occupies its time slot.
func (r *Renderer) Render(img image.Image, narration string, elapsed float64) *image.RGBA {
	draw.Draw(r.frame, r.frame.Bounds(), image.Black, image.Point{}, draw.Src)

	if img != nil {
		r.drawCover(img, elapsed)
	}
	if r.show && narration != "" {
		r.drawSubtitles(narration)
	}
	return r.frame
}

// drawCover scales the image so it fully covers the frame, then applies the
// push-in about the frame center. Overflow is cropped by the frame bounds.
func (r *Renderer) drawCover(img image.Image, elapsed float64) {
	sb := img.Bounds()
	iw, ih := sb.Dx(), sb.Dy()
	if iw == 0 || ih == 0 {
		return
	}

	cover := float64(r.width) / float64(iw)
	if alt := float64(r.height) / float64(ih); alt > cover {
		cover = alt
	}
	scale := cover * pushInScale(elapsed)

	dw := int(float64(iw) * scale)
	dh := int(float64(ih) * scale)
	x0 := (r.width - dw) / 2
	y0 := (r.height - dh) / 2
	dst := image.Rect(x0, y0, x0+dw, y0+dh)

	xdraw.ApproxBiLinear.Scale(r.frame, dst, img, sb, xdraw.Over, nil)
}

// pushInScale is the zoom factor applied on top of the cover scale at the
// given scene progress.
func pushInScale(elapsed float64) float64 {
	return zoomStart + zoomRange*elapsed
}

// drawSubtitles wraps the narration and stacks the lines upward from a fixed
// baseline near the bottom of the frame, so the last wrapped line always sits
// at the same height regardless of line count.
func (r *Renderer) drawSubtitles(narration string) {
	maxWidth := int(float64(r.width) * subtitleMaxWidthFrac)
	lines := wrapText(r.face, narration, maxWidth)

	bottomBaseline := r.height - subtitleBaselineRise
	for i, line := range lines {
		baseline := bottomBaseline - (len(lines)-1-i)*subtitleLineHeight
		r.drawLine(line, baseline)
	}
}

func (r *Renderer) drawLine(line string, baseline int) {
	width := font.MeasureString(r.face, line).Ceil()
	x := (r.width - width) / 2

	if r.look.box.A > 0 {
		metrics := r.face.Metrics()
		ascent := metrics.Ascent.Ceil()
		descent := metrics.Descent.Ceil()
		box := image.Rect(
			x-boxPadX,
			baseline-ascent-boxPadY,
			x+width+boxPadX,
			baseline+descent+boxPadY,
		)
		fillRoundedRect(r.frame, box, boxCornerRad, r.look.box)
	}

	// Every style gets a soft drop shadow, approximated with a translucent
	// offset pass, so text stays readable over bright scenes.
	r.drawString(line, x+3, baseline+3, color.RGBA{0, 0, 0, 170})
	r.drawString(line, x, baseline, r.look.text)
}

func (r *Renderer) drawString(s string, x, baseline int, c color.RGBA) {
	d := font.Drawer{
		Dst:  r.frame,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// wrapText greedily packs words into lines no wider than maxWidth. A single
// word wider than maxWidth gets its own line rather than being split, which
// matches how browser canvas wrapping behaves for unbroken strings.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// fillRoundedRect fills rect with c using source-over blending, skipping the
// pixels outside the quarter-circle corners.
func fillRoundedRect(dst *image.RGBA, rect image.Rectangle, radius int, c color.RGBA) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	src := image.NewUniform(c)
	rad2 := radius * radius

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			// Distance from the nearest corner arc center, zero inside the
			// straight sections.
			dx, dy := 0, 0
			if x < rect.Min.X+radius {
				dx = rect.Min.X + radius - x
			} else if x >= rect.Max.X-radius {
				dx = x - (rect.Max.X - radius - 1)
			}
			if y < rect.Min.Y+radius {
				dy = rect.Min.Y + radius - y
			} else if y >= rect.Max.Y-radius {
				dy = y - (rect.Max.Y - radius - 1)
			}
			if dx > 0 && dy > 0 && dx*dx+dy*dy > rad2 {
				continue
			}
			draw.Draw(dst, image.Rect(x, y, x+1, y+1), src, image.Point{}, draw.Over)
		}
	}
}
