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

// gaussianKernel returns a symmetric Gaussian window of m points whose
// standard deviation is ceil(m/12) points, normalised to unit mass
func gaussianKernel(m int) []float64 {
	m = max(m, 1)
	std := math.Ceil(float64(m) / 12)
	centre := float64(m-1) / 2
	w := make([]float64, m)
	for i := range w {
		d := (float64(i) - centre) / std
		w[i] = math.Exp(-0.5 * d * d)
	}
	floats.Scale(1/floats.Sum(w), w)
	return w
}

// convolveSame returns the central len(x) samples of the full convolution
// of x with kernel
func convolveSame(x, kernel []float64) []float64 {
	y := make([]float64, len(x))
	offs := (len(kernel) - 1) / 2
	for i := range y {
		j := i + offs
		sum := 0.0
		for k, w := range kernel {
			if n := j - k; n >= 0 && n < len(x) {
				sum += x[n] * w
			}
		}
		y[i] = sum
	}
	return y
}
