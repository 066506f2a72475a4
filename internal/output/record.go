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

// Package output writes analysis results and plot data
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/goccmack/godsp"
	"github.com/goccmack/goutil/ioutil"
	"gopkg.in/yaml.v3"

	"github.com/goccmack/beatsearch/pkg/common"
	"github.com/goccmack/beatsearch/pkg/evaluate"
	"github.com/goccmack/beatsearch/pkg/tempo"
	"github.com/goccmack/beatsearch/pkg/tracker"
)

// Record is the result of tracking one file
type Record struct {
	FileName    string `json:"fileName" yaml:"fileName"`       // Input file
	SampleRate  int    `json:"sampleRate" yaml:"sampleRate"`   // Fs in Hz
	NumChannels int    `json:"numChannels" yaml:"numChannels"` // Number of channels in wav file
	Tracker     string `json:"tracker" yaml:"tracker"`
	Tempo       Tempo  `json:"tempo" yaml:"tempo"`
	Recoveries  int    `json:"recoveries" yaml:"recoveries"` // Gap recoveries of the state space tracker
	Beats       []Beat `json:"beats" yaml:"beats"`

	Evaluation *evaluate.Report `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
}

// Tempo is the tempo estimate of a file
type Tempo struct {
	BPM       float64 `json:"bpm" yaml:"bpm"`
	TactusSec float64 `json:"tactusSec" yaml:"tactusSec"`
	Period    int     `json:"period" yaml:"period"` // Envelope frames
	Duple     bool    `json:"duple" yaml:"duple"`
	Candidate string  `json:"candidate" yaml:"candidate"`
	BiasBPM   float64 `json:"biasBpm" yaml:"biasBpm"`
}

// Beat is one tracked beat
type Beat struct {
	Frame    int  `json:"frame" yaml:"frame"`       // Envelope frame
	Offset   int  `json:"offset" yaml:"offset"`     // Number of samples from start of channel at Fs
	MsOffset int  `json:"msOffset" yaml:"msOffset"` // Number of milliseconds from start of channel
	Number   int  `json:"number,omitempty" yaml:"number,omitempty"`
	Downbeat bool `json:"downbeat,omitempty" yaml:"downbeat,omitempty"`
}

// NewTempo converts a tempo estimate made with bias
func NewTempo(est tempo.Estimate, bias tempo.Bias) Tempo {
	return Tempo{
		BPM:       est.BPM(),
		TactusSec: est.TactusSec,
		Period:    est.Period,
		Duple:     est.Duple,
		Candidate: est.Candidate.String(),
		BiasBPM:   bias.BPM,
	}
}

// TempoRecord is the tempo estimate of one file
type TempoRecord struct {
	FileName string `json:"fileName" yaml:"fileName"`
	Tempo    Tempo  `json:"tempo" yaml:"tempo"`
}

// NewRecord assembles the record of one analysis
func NewRecord(fileName string, sampleRate, numChannels int, trackerName string,
	est tempo.Estimate, bias tempo.Bias, res *tracker.Result) *Record {

	r := &Record{
		FileName:    fileName,
		SampleRate:  sampleRate,
		NumChannels: numChannels,
		Tracker:     trackerName,
		Tempo:       NewTempo(est, bias),
		Recoveries:  len(res.Recoveries),
		Beats:       make([]Beat, len(res.Beats)),
	}

	down := make(map[int]bool, len(res.Downbeats))
	for _, d := range res.Downbeats {
		down[d] = true
	}
	for i, b := range res.Beats {
		r.Beats[i] = Beat{
			Frame:    b,
			Offset:   common.FrameToSampleOffset(b, sampleRate),
			MsOffset: common.FrameToMs(b),
			Downbeat: down[b],
		}
		if res.Numbers != nil {
			r.Beats[i].Number = res.Numbers[i]
		}
	}
	return r
}

// Encode returns r in format, "json" or "yaml"
func Encode(r any, format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(r, "", "  ")
	case "yaml":
		return yaml.Marshal(r)
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// Write writes r to fname in format
func Write(r any, fname, format string) error {
	buf, err := Encode(r, format)
	if err != nil {
		return err
	}
	if dir := path.Dir(fname); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := ioutil.WriteFile(fname, buf); err != nil {
		return fmt.Errorf("write %s: %w", fname, err)
	}
	return nil
}

// FileName returns the record file of the input inFileName: the input name
// with its extension replaced by .beat.<format>, in outDir when outDir is
// not empty
func FileName(inFileName, outDir, format string) string {
	return fileName(inFileName, outDir, "beat", format)
}

// OnsetsFileName returns the onset record file of the input inFileName,
// named like FileName with .onsets.<format>
func OnsetsFileName(inFileName, outDir, format string) string {
	return fileName(inFileName, outDir, "onsets", format)
}

func fileName(inFileName, outDir, kind, format string) string {
	dir, fname := path.Split(inFileName)
	fnames := strings.Split(fname, ".")
	if len(fnames) > 1 {
		fnames = fnames[:len(fnames)-1]
	}
	fnames = append(fnames, kind, format)
	if outDir != "" {
		dir = outDir
	}
	return path.Join(dir, strings.Join(fnames, "."))
}

// WritePlotData writes the envelope and a beat marker signal of the same
// length to plotDir for plotting
func WritePlotData(plotDir, name string, ose []float64, res *tracker.Result) error {
	if err := os.MkdirAll(plotDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", plotDir, err)
	}
	godsp.WriteDataFile(ose, path.Join(plotDir, name+".ose"))
	godsp.WriteDataFile(markers(res.Beats, len(ose), godsp.Max(ose)), path.Join(plotDir, name+".beats"))
	if len(res.Downbeats) > 0 {
		godsp.WriteDataFile(markers(res.Downbeats, len(ose), godsp.Max(ose)), path.Join(plotDir, name+".downbeats"))
	}
	return nil
}

// markers returns a signal of length n that is value at each index in idx
// and zero elsewhere
func markers(idx []int, n int, value float64) []float64 {
	x := make([]float64, n)
	for _, i := range idx {
		if i >= 0 && i < n {
			x[i] = value
		}
	}
	return x
}
