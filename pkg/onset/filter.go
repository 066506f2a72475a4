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

// biquad holds normalised second order IIR coefficients (a[0] == 1)
type biquad struct {
	b [3]float64
	a [3]float64
}

// butterworthHighpass designs a second order Butterworth high-pass filter
// with the bilinear transform. cutoff and fs are in Hz.
func butterworthHighpass(cutoff, fs float64) biquad {
	k := math.Tan(math.Pi * cutoff / fs)
	norm := 1 / (1 + math.Sqrt2*k + k*k)
	return biquad{
		b: [3]float64{norm, -2 * norm, norm},
		a: [3]float64{1, 2 * (k*k - 1) * norm, (1 - math.Sqrt2*k + k*k) * norm},
	}
}

// steadyState returns the transposed direct form II state of f after a unit
// step input has settled
func (f biquad) steadyState() [2]float64 {
	y := (f.b[0] + f.b[1] + f.b[2]) / (f.a[0] + f.a[1] + f.a[2])
	z2 := f.b[2] - f.a[2]*y
	z1 := f.b[1] - f.a[1]*y + z2
	return [2]float64{z1, z2}
}

// filter runs x through f starting from state z
func (f biquad) filter(x []float64, z [2]float64) []float64 {
	y := make([]float64, len(x))
	z1, z2 := z[0], z[1]
	for i, xi := range x {
		yi := f.b[0]*xi + z1
		z1 = f.b[1]*xi - f.a[1]*yi + z2
		z2 = f.b[2]*xi - f.a[2]*yi
		y[i] = yi
	}
	return y
}

// filtfilt applies f forwards and backwards for zero phase distortion.
// The signal is extended at both ends by odd reflection and each pass starts
// from the steady state scaled to its first sample.
func (f biquad) filtfilt(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	padlen := min(3*len(f.b), len(x)-1)
	n := len(x)

	ext := make([]float64, n+2*padlen)
	for i := 0; i < padlen; i++ {
		ext[i] = 2*x[0] - x[padlen-i]
		ext[padlen+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[padlen:], x)

	zi := f.steadyState()
	scaled := func(v float64) [2]float64 { return [2]float64{zi[0] * v, zi[1] * v} }

	y := f.filter(ext, scaled(ext[0]))
	reverse(y)
	y = f.filter(y, scaled(y[0]))
	reverse(y)

	return y[padlen : padlen+n]
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
