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

// Package export implements the client-facing video export pipeline. This
// file holds the audio plumbing: the canonical PCM track representation every
// clip is normalized to, the WAV container writer, and the ffmpeg-backed
// decoder that converts arbitrary stored audio (MP3 uploads, WAV narration)
// into canonical PCM.
package export

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Canonical PCM format for all mixing: interleaved signed 16-bit stereo.
const (
	SampleRate     = 44100
	Channels       = 2
	BytesPerSample = 2
)

// Track is a decoded audio clip in canonical format. Samples are interleaved
// (L, R, L, R, ...).
type Track struct {
	Samples []int16
}

// Duration returns the play time of the track at the canonical rate.
func (t *Track) Duration() time.Duration {
	if t == nil || len(t.Samples) == 0 {
		return 0
	}
	frames := len(t.Samples) / Channels
	return time.Duration(frames) * time.Second / SampleRate
}

// samplesFor converts a duration to an interleaved sample count, always a
// whole number of frames.
func samplesFor(d time.Duration) int {
	frames := int(d * SampleRate / time.Second)
	return frames * Channels
}

// DecodeTrack normalizes stored audio bytes to a canonical Track. The bytes
// are staged to a scratch file because ffmpeg needs a seekable input for
// several container formats. A probe runs first so a non-audio blob fails
// with a useful error instead of an ffmpeg exit code.
func DecodeTrack(workDir string, data []byte) (*Track, error) {
	in, err := os.CreateTemp(workDir, "clip-*")
	if err != nil {
		return nil, fmt.Errorf("failed to stage audio clip: %w", err)
	}
	defer os.Remove(in.Name())
	if _, err := in.Write(data); err != nil {
		in.Close()
		return nil, fmt.Errorf("failed to stage audio clip: %w", err)
	}
	in.Close()

	if err := probeHasAudio(in.Name()); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = ffmpeg.Input(in.Name()).
		Output("pipe:", ffmpeg.KwArgs{
			"f":      "s16le",
			"acodec": "pcm_s16le",
			"ar":     SampleRate,
			"ac":     Channels,
		}).
		WithOutput(&buf, io.Discard).
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio clip: %w", err)
	}

	raw := buf.Bytes()
	samples := make([]int16, len(raw)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*BytesPerSample:]))
	}
	return &Track{Samples: samples}, nil
}

// probeHasAudio confirms the file contains at least one audio stream.
func probeHasAudio(path string) error {
	probe, err := ffmpeg.Probe(path)
	if err != nil {
		return fmt.Errorf("failed to probe audio clip: %w", err)
	}
	var doc struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(probe), &doc); err != nil {
		return fmt.Errorf("failed to parse probe output: %w", err)
	}
	for _, s := range doc.Streams {
		if s.CodecType == "audio" {
			return nil
		}
	}
	return fmt.Errorf("no audio stream in clip")
}

// WriteWAV writes samples as a PCM WAV file. Used for the mixed export track
// handed to the mux sink.
func WriteWAV(w io.Writer, samples []int16, sampleRate, channels int) error {
	pcm := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*BytesPerSample:], uint16(s))
	}
	return writeWAVHeaderAndData(w, pcm, sampleRate, channels, 16)
}

// WrapPCM wraps raw little-endian PCM bytes in a WAV container. The speech
// service uses this to turn the model's raw synthesized samples into a
// playable clip before storing them.
func WrapPCM(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	var buf bytes.Buffer
	_ = writeWAVHeaderAndData(&buf, pcm, sampleRate, channels, bitsPerSample)
	return buf.Bytes()
}

func writeWAVHeaderAndData(w io.Writer, pcm []byte, sampleRate, channels, bitsPerSample int) error {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var header bytes.Buffer
	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, uint32(36+len(pcm)))
	header.WriteString("WAVE")
	header.WriteString("fmt ")
	binary.Write(&header, binary.LittleEndian, uint32(16))
	binary.Write(&header, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&header, binary.LittleEndian, uint16(channels))
	binary.Write(&header, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&header, binary.LittleEndian, uint32(byteRate))
	binary.Write(&header, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&header, binary.LittleEndian, uint16(bitsPerSample))
	header.WriteString("data")
	binary.Write(&header, binary.LittleEndian, uint32(len(pcm)))

	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}

// writeTrackFile writes a track as WAV into workDir and returns the path.
func writeTrackFile(workDir string, track *Track) (string, error) {
	path := filepath.Join(workDir, "mix.wav")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteWAV(f, track.Samples, SampleRate, Channels); err != nil {
		return "", err
	}
	return path, nil
}
