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

// Package evaluate scores tracked beats against annotated beats
package evaluate

import (
	"math"
	"sort"

	"github.com/goccmack/beatsearch/pkg/annotation"
)

// DefaultWindow is the tolerance in seconds on either side of a reference
// beat (70 ms in total)
const DefaultWindow = 0.035

// Score is the detection accuracy of one beat sequence
type Score struct {
	TruePositives  int     `json:"truePositives" yaml:"truePositives"`
	FalsePositives int     `json:"falsePositives" yaml:"falsePositives"`
	FalseNegatives int     `json:"falseNegatives" yaml:"falseNegatives"`
	Precision      float64 `json:"precision" yaml:"precision"`
	Recall         float64 `json:"recall" yaml:"recall"`
	FMeasure       float64 `json:"fMeasure" yaml:"fMeasure"`
}

// Report scores beats and downbeats of one file
type Report struct {
	Beats     Score `json:"beats" yaml:"beats"`
	Downbeats Score `json:"downbeats" yaml:"downbeats"`
}

// Compare scores estimated beat and downbeat times against ref
func Compare(ref *annotation.Annotation, beats, downbeats []float64, window float64) Report {
	return Report{
		Beats:     FMeasure(ref.Times(), beats, window),
		Downbeats: FMeasure(ref.DownbeatTimes(), downbeats, window),
	}
}

// FMeasure matches estimated to reference times one to one within window
// seconds and returns the resulting precision, recall and F-measure
func FMeasure(reference, estimated []float64, window float64) Score {
	ref := sortedCopy(reference)
	est := sortedCopy(estimated)

	tp := 0
	for i, j := 0, 0; i < len(ref) && j < len(est); {
		switch d := est[j] - ref[i]; {
		case math.Abs(d) <= window:
			tp++
			i++
			j++
		case d < 0:
			j++
		default:
			i++
		}
	}

	s := Score{
		TruePositives:  tp,
		FalsePositives: len(est) - tp,
		FalseNegatives: len(ref) - tp,
	}
	if len(est) > 0 {
		s.Precision = float64(tp) / float64(len(est))
	}
	if len(ref) > 0 {
		s.Recall = float64(tp) / float64(len(ref))
	}
	if s.Precision+s.Recall > 0 {
		s.FMeasure = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

func sortedCopy(x []float64) []float64 {
	y := append([]float64(nil), x...)
	sort.Float64s(y)
	return y
}
