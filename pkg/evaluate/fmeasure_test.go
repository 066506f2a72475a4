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

package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goccmack/beatsearch/pkg/annotation"
)

func TestFMeasure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ref, est   []float64
		tp, fp, fn int
		f          float64
	}{
		{"perfect", []float64{0.5, 1, 1.5}, []float64{0.5, 1, 1.5}, 3, 0, 0, 1},
		{"within window", []float64{0.5, 1, 1.5}, []float64{0.53, 0.97, 1.5}, 3, 0, 0, 1},
		{"outside window", []float64{0.5, 1}, []float64{0.6, 1}, 1, 1, 1, 0.5},
		{"one to one", []float64{1}, []float64{0.99, 1.01}, 1, 1, 0, 2.0 / 3},
		{"unsorted", []float64{1.5, 0.5, 1}, []float64{1, 1.5, 0.5}, 3, 0, 0, 1},
		{"extra estimates", []float64{1, 2}, []float64{0.5, 1, 1.5, 2}, 2, 2, 0, 2.0 / 3},
		{"nothing estimated", []float64{1, 2}, nil, 0, 0, 2, 0},
		{"empty", nil, nil, 0, 0, 0, 0},
	}
	for _, tc := range tests {
		s := FMeasure(tc.ref, tc.est, DefaultWindow)
		assert.Equal(t, tc.tp, s.TruePositives, tc.name)
		assert.Equal(t, tc.fp, s.FalsePositives, tc.name)
		assert.Equal(t, tc.fn, s.FalseNegatives, tc.name)
		assert.InDelta(t, tc.f, s.FMeasure, 1e-12, tc.name)
	}
}

func TestFMeasureDoesNotReorderInput(t *testing.T) {
	t.Parallel()

	est := []float64{2, 1}
	FMeasure([]float64{1, 2}, est, DefaultWindow)
	assert.Equal(t, []float64{2, 1}, est)
}

func TestCompare(t *testing.T) {
	t.Parallel()

	ref := &annotation.Annotation{Beats: []annotation.Beat{
		{Time: 0.5, Number: 1}, {Time: 1.0, Number: 2}, {Time: 1.5, Number: 1}, {Time: 2.0, Number: 2},
	}}
	r := Compare(ref, []float64{0.5, 1.0, 1.5, 2.0}, []float64{0.5}, DefaultWindow)
	assert.InDelta(t, 1, r.Beats.FMeasure, 1e-12)
	assert.Equal(t, 1, r.Downbeats.TruePositives)
	assert.Equal(t, 1, r.Downbeats.FalseNegatives)
	assert.InDelta(t, 1, r.Downbeats.Precision, 1e-12)
	assert.InDelta(t, 0.5, r.Downbeats.Recall, 1e-12)
}
