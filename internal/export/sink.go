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
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Sink consumes rendered frames and the mixed soundtrack and produces the
// final container bytes. It is an interface so the timeline driver can be
// exercised without an ffmpeg binary.
type Sink interface {
	// Start launches the encoder. Must be called before the first WriteFrame.
	Start(ctx context.Context) error
	// WriteFrame submits one RGBA frame. Frames must arrive in presentation
	// order at the configured rate's cadence.
	WriteFrame(frame *image.RGBA) error
	// Finalize flushes the stream and returns the finished container bytes.
	Finalize() ([]byte, error)
	// Abort tears the encoder down without producing output. Safe to call
	// after a failed Start or Finalize.
	Abort()
}

// FFmpegSink muxes raw RGBA frames from stdin with a WAV soundtrack file into
// an H.264/AAC MP4. One ffmpeg process per export run.
type FFmpegSink struct {
	ffmpegPath string
	width      int
	height     int
	frameRate  int
	bitrate    string
	audioPath  string
	outPath    string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
}

// NewFFmpegSink builds a sink writing its output into workDir. audioPath
// points at the pre-mixed WAV soundtrack.
func NewFFmpegSink(ffmpegPath string, width, height, frameRate int, bitrate, audioPath, workDir string) *FFmpegSink {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegSink{
		ffmpegPath: ffmpegPath,
		width:      width,
		height:     height,
		frameRate:  frameRate,
		bitrate:    bitrate,
		audioPath:  audioPath,
		outPath:    filepath.Join(workDir, "out.mp4"),
	}
}

func (s *FFmpegSink) Start(ctx context.Context) error {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", s.width, s.height),
		"-framerate", strconv.Itoa(s.frameRate),
		"-i", "-",
		"-i", s.audioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "libx264",
		"-b:v", s.bitrate,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		s.outPath,
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open encoder stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start encoder: %w", err)
	}
	s.cmd = cmd
	s.stdin = stdin
	return nil
}

func (s *FFmpegSink) WriteFrame(frame *image.RGBA) error {
	b := frame.Bounds()
	if b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("frame is %dx%d, encoder expects %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}

	rowBytes := s.width * 4
	if frame.Stride == rowBytes {
		if _, err := s.stdin.Write(frame.Pix); err != nil {
			return s.writeError(err)
		}
		return nil
	}
	// Padded stride: write row by row.
	for y := 0; y < s.height; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+rowBytes]
		if _, err := s.stdin.Write(row); err != nil {
			return s.writeError(err)
		}
	}
	return nil
}

// writeError folds the encoder's stderr into a pipe write failure, since a
// broken pipe on stdin almost always means ffmpeg already exited with a
// diagnostic.
func (s *FFmpegSink) writeError(err error) error {
	if msg := s.stderr.String(); msg != "" {
		return fmt.Errorf("encoder rejected frame: %w: %s", err, tail(msg, 512))
	}
	return fmt.Errorf("encoder rejected frame: %w", err)
}

func (s *FFmpegSink) Finalize() ([]byte, error) {
	if err := s.stdin.Close(); err != nil {
		return nil, fmt.Errorf("failed to close encoder stdin: %w", err)
	}
	if err := s.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("encoder failed: %w: %s", err, tail(s.stderr.String(), 512))
	}
	data, err := os.ReadFile(s.outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded output: %w", err)
	}
	return data, nil
}

func (s *FFmpegSink) Abort() {
	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	os.Remove(s.outPath)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
