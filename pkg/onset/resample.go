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
)

const (
	// resampleZeros is the number of sinc zero crossings on each side of
	// the interpolation kernel
	resampleZeros = 16
	// resampleRolloff scales the anti-aliasing cutoff below Nyquist
	resampleRolloff = 0.95
)

// Resample converts x from sample rate `from` to sample rate `to` with a
// Hann windowed sinc interpolator. When downsampling the kernel doubles as
// the anti-aliasing low-pass filter.
func Resample(x []float64, from, to int) []float64 {
	if from == to || len(x) == 0 {
		y := make([]float64, len(x))
		copy(y, x)
		return y
	}

	ratio := float64(to) / float64(from)
	cutoff := 1.0
	if ratio < 1 {
		cutoff = ratio * resampleRolloff
	}
	// half width of the kernel in input samples
	half := resampleZeros / cutoff

	n := int(math.Ceil(float64(len(x)) * ratio))
	y := make([]float64, n)
	for i := range y {
		t := float64(i) / ratio
		lo := max(int(math.Ceil(t-half)), 0)
		hi := min(int(math.Floor(t+half)), len(x)-1)
		sum := 0.0
		for k := lo; k <= hi; k++ {
			d := t - float64(k)
			sum += x[k] * cutoff * sinc(cutoff*d) * hannTaper(d/half)
		}
		y[i] = sum
	}
	return y
}

func sinc(z float64) float64 {
	if z == 0 {
		return 1
	}
	pz := math.Pi * z
	return math.Sin(pz) / pz
}

// hannTaper is the continuous Hann window on [-1,1]
func hannTaper(u float64) float64 {
	if u <= -1 || u >= 1 {
		return 0
	}
	return 0.5 * (1 + math.Cos(math.Pi*u))
}
