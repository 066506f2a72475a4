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

package onset

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above
const (
	melLinearStep = 200.0 / 3
	melLogMinHz   = 1000.0
	melLogMin     = melLogMinHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(f float64) float64 {
	if f < melLogMinHz {
		return f / melLinearStep
	}
	return melLogMin + math.Log(f/melLogMinHz)/melLogStep
}

func melToHz(m float64) float64 {
	if m < melLogMin {
		return m * melLinearStep
	}
	return melLogMinHz * math.Exp(melLogStep*(m-melLogMin))
}

// melFilterBank returns numBands triangular filters over the fftSize/2+1
// bins of a spectrum sampled at sampleRate. Filter edges are equally spaced
// on the mel scale between 0 Hz and Nyquist and each filter is area
// normalised.
func melFilterBank(numBands, fftSize, sampleRate int) [][]float64 {
	numBins := fftSize/2 + 1
	binHz := make([]float64, numBins)
	for k := range binHz {
		binHz[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}

	edges := floats.Span(make([]float64, numBands+2), hzToMel(0), hzToMel(float64(sampleRate)/2))
	for i, m := range edges {
		edges[i] = melToHz(m)
	}

	bank := make([][]float64, numBands)
	for b := range bank {
		lo, mid, hi := edges[b], edges[b+1], edges[b+2]
		norm := 2 / (hi - lo)
		bank[b] = make([]float64, numBins)
		for k, f := range binHz {
			up := (f - lo) / (mid - lo)
			down := (hi - f) / (hi - mid)
			bank[b][k] = math.Max(0, math.Min(up, down)) * norm
		}
	}
	return bank
}

// applyBank writes the band energies of power into dst
func applyBank(dst []float64, bank [][]float64, power []float64) {
	for b, filter := range bank {
		dst[b] = floats.Dot(filter, power)
	}
}
