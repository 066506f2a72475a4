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

// Package audio loads WAV files into mono waveforms.
package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/goccmack/beatsearch/pkg/common"
)

// Waveform is a mono signal at SampleRate Hz. Samples are in [-1,1].
type Waveform struct {
	Samples     []float64
	SampleRate  int
	NumChannels int // channels in the source before down-mixing
}

// Duration returns the length of w in seconds
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// ReadWavFile decodes the WAV file fname
func ReadWavFile(fname string) (*Waveform, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := ReadWav(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return w, nil
}

// ReadWav decodes a WAV stream and averages its channels
func ReadWav(r io.ReadSeeker) (*Waveform, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, common.InvalidInput("audio.ReadWav", "not a valid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, common.NewError(common.CodeInvalidInput, "audio.ReadWav", "cannot decode PCM data", err)
	}
	numChans := buf.Format.NumChannels
	if numChans <= 0 {
		return nil, common.InvalidInput("audio.ReadWav", "no channels")
	}
	if len(buf.Data) < numChans {
		return nil, common.InvalidInput("audio.ReadWav", "no samples")
	}

	// Full scale of a signed integer sample of the source bit depth
	scale := float64(int64(1) << (uint(d.BitDepth) - 1))
	if d.BitDepth == 8 {
		// 8 bit WAV is unsigned
		scale = 128
	}

	numFrames := len(buf.Data) / numChans
	samples := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		sum := 0.0
		for c := 0; c < numChans; c++ {
			v := float64(buf.Data[i*numChans+c])
			if d.BitDepth == 8 {
				v -= 128
			}
			sum += v
		}
		samples[i] = sum / float64(numChans) / scale
	}

	return &Waveform{
		Samples:     samples,
		SampleRate:  buf.Format.SampleRate,
		NumChannels: numChans,
	}, nil
}
