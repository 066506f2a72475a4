//  Copyright 2019 Marius Ackerman
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package common

import "math"

const (
	// SampleRate is the rate in Hz to which all audio is resampled before
	// the onset strength envelope is computed
	SampleRate = 8000
	// HopSize is the number of samples at SampleRate between envelope frames
	HopSize = 32
	// FFTSize is the STFT window length in samples at SampleRate
	FFTSize = 512
	// FrameRate is the number of envelope frames per second
	FrameRate = float64(SampleRate) / float64(HopSize)
)

// FrameToSeconds returns the time of envelope frame i
func FrameToSeconds(i int) float64 {
	return float64(i*HopSize) / SampleRate
}

// FramesToSeconds converts a sequence of frame indices to seconds
func FramesToSeconds(frames []int) []float64 {
	secs := make([]float64, len(frames))
	for i, f := range frames {
		secs[i] = FrameToSeconds(f)
	}
	return secs
}

// SecondsToFrame returns the envelope frame nearest to t seconds
func SecondsToFrame(t float64) int {
	return int(math.Round(t * FrameRate))
}

// FrameToMs returns the millisecond offset of envelope frame i
func FrameToMs(i int) int {
	return i * HopSize * 1000 / SampleRate
}

// FrameToSampleOffset returns the offset of envelope frame i in samples at fs
func FrameToSampleOffset(i, fs int) int {
	return int(math.Round(FrameToSeconds(i) * float64(fs)))
}
