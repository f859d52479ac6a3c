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

import "time"

// Mixer renders the complete export soundtrack offline: an optional
// background bed looped gaplessly for the full duration at a configured gain,
// with narration clips summed in at their scene start offsets. Sample math is
// int32 with saturation so simultaneous peaks clip instead of wrapping.
type Mixer struct {
	total      int // Interleaved sample count of the output.
	bed        *Track
	bedGain    float64
	narrations []scheduledClip
}

type scheduledClip struct {
	track  *Track
	offset int // Interleaved sample offset, frame aligned.
}

// NewMixer creates a mixer for a soundtrack of the given total duration.
func NewMixer(total time.Duration) *Mixer {
	return &Mixer{total: samplesFor(total)}
}

// SetBackground installs the looping bed. gain is the normalized music volume
// in [0,1]; a nil track or zero gain leaves the bed silent.
func (m *Mixer) SetBackground(track *Track, gain float64) {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	m.bed = track
	m.bedGain = gain
}

// ScheduleNarration places a clip at an absolute offset from the start of the
// soundtrack. Clips may run past their scene; anything past the soundtrack
// end is dropped.
func (m *Mixer) ScheduleNarration(track *Track, at time.Duration) {
	if track == nil || len(track.Samples) == 0 {
		return
	}
	m.narrations = append(m.narrations, scheduledClip{track: track, offset: samplesFor(at)})
}

// Mix renders the soundtrack.
func (m *Mixer) Mix() *Track {
	out := make([]int16, m.total)

	if m.bed != nil && len(m.bed.Samples) > 0 && m.bedGain > 0 {
		bed := m.bed.Samples
		for i := range out {
			out[i] = int16(float64(bed[i%len(bed)]) * m.bedGain)
		}
	}

	for _, clip := range m.narrations {
		for i, s := range clip.track.Samples {
			pos := clip.offset + i
			if pos >= m.total {
				break
			}
			out[pos] = saturate(int32(out[pos]) + int32(s))
		}
	}

	return &Track{Samples: out}
}

func saturate(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
