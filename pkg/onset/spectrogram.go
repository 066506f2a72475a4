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
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// periodicHann returns an n point periodic Hann window, the first n points
// of an n+1 point symmetric window
func periodicHann(n int) []float64 {
	return window.Hann(n + 1)[:n]
}

// reflectPad pads x by pad samples on each side, mirroring about the end
// samples without repeating them. Short signals are zero padded.
func reflectPad(x []float64, pad int) []float64 {
	y := make([]float64, len(x)+2*pad)
	copy(y[pad:], x)
	if len(x) <= pad {
		return y
	}
	for i := 1; i <= pad; i++ {
		y[pad-i] = x[i]
		y[pad+len(x)-1+i] = x[len(x)-1-i]
	}
	return y
}

// numFrames returns the number of centred STFT frames of a signal of n samples
func numFrames(n, hop int) int {
	return 1 + n/hop
}

// powerFrames calls fn with the power spectrum of every centred STFT frame
// of x in order. The slice passed to fn is reused between calls.
func powerFrames(x []float64, fftSize, hop int, win []float64, fn func(t int, power []float64)) {
	padded := reflectPad(x, fftSize/2)
	fft := fourier.NewFFT(fftSize)
	frame := make([]float64, fftSize)
	coeffs := make([]complex128, fftSize/2+1)
	power := make([]float64, fftSize/2+1)

	for t := 0; t < numFrames(len(x), hop); t++ {
		start := t * hop
		for i := range frame {
			frame[i] = padded[start+i] * win[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] = re*re + im*im
		}
		fn(t, power)
	}
}
