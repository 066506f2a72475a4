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

package output

import (
	"github.com/goccmack/beatsearch/pkg/common"
)

// OnsetRecord lists the onsets of one file
type OnsetRecord struct {
	FileName       string `json:"fileName" yaml:"fileName"`             // Input file
	SampleRate     int    `json:"sampleRate" yaml:"sampleRate"`         // Fs in Hz
	NumChannels    int    `json:"numChannels" yaml:"numChannels"`       // Number of channels in wav file
	PeakSeparation int    `json:"peakSeparation" yaml:"peakSeparation"` // Minimum distance between peaks in milliseconds
	Peaks          []Peak `json:"peaks" yaml:"peaks"`                   // List of detected peaks
}

// Peak is one onset
type Peak struct {
	Frame    int `json:"frame" yaml:"frame"`       // Envelope frame
	Offset   int `json:"offset" yaml:"offset"`     // Number of samples from start of channel at Fs
	MsOffset int `json:"msOffset" yaml:"msOffset"` // Number of milliseconds from start of channel
}

// NewOnsetRecord assembles the onset record of a file from envelope peaks
// at least sepFrames apart
func NewOnsetRecord(fileName string, sampleRate, numChannels, sepFrames int, pks []int) *OnsetRecord {
	or := &OnsetRecord{
		FileName:       fileName,
		SampleRate:     sampleRate,
		NumChannels:    numChannels,
		PeakSeparation: common.FrameToMs(sepFrames),
		Peaks:          make([]Peak, len(pks)),
	}
	for i, pk := range pks {
		or.Peaks[i] = Peak{
			Frame:    pk,
			Offset:   common.FrameToSampleOffset(pk, sampleRate),
			MsOffset: common.FrameToMs(pk),
		}
	}
	return or
}
