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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func sine(freq, fs float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / fs)
	}
	return x
}

func rms(x []float64) float64 {
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

func TestResampleKeepsPitch(t *testing.T) {
	t.Parallel()

	y := Resample(sine(440, 22050, 22050), 22050, 8000)
	require.Len(t, y, 8000)

	mid := y[1000:7000]
	crossings := 0
	for i := 1; i < len(mid); i++ {
		if mid[i-1] < 0 && mid[i] >= 0 {
			crossings++
		}
	}
	// 0.75 s of 440 Hz
	assert.InDelta(t, 330, crossings, 2)
	assert.InDelta(t, 1/math.Sqrt2, rms(mid), 0.02)
}

func TestResampleRemovesAliases(t *testing.T) {
	t.Parallel()

	y := Resample(sine(6000, 22050, 22050), 22050, 8000)
	assert.Less(t, rms(y[1000:7000]), 0.05)
}

func TestResampleIdentity(t *testing.T) {
	t.Parallel()

	x := []float64{1, 2, 3}
	y := Resample(x, 8000, 8000)
	assert.Equal(t, x, y)
	y[0] = 9
	assert.Equal(t, 1.0, x[0])
}

func TestHighpassRemovesOffset(t *testing.T) {
	t.Parallel()

	f := butterworthHighpass(0.4, 250)
	x := make([]float64, 1000)
	for i := range x {
		x[i] = 3
	}
	for _, v := range f.filtfilt(x) {
		require.InDelta(t, 0, v, 1e-9)
	}
}

func TestHighpassPassesBeatRateWithoutPhaseShift(t *testing.T) {
	t.Parallel()

	f := butterworthHighpass(0.4, 250)
	x := sine(10, 250, 1000)
	y := f.filtfilt(x)
	require.Len(t, y, len(x))
	for i := 200; i < 800; i++ {
		require.InDelta(t, x[i], y[i], 0.01, "sample %d", i)
	}
}

func TestFiltfiltShortInput(t *testing.T) {
	t.Parallel()

	f := butterworthHighpass(0.4, 250)
	assert.Nil(t, f.filtfilt(nil))
	assert.Len(t, f.filtfilt([]float64{1}), 1)
	assert.Len(t, f.filtfilt([]float64{1, 2, 3}), 3)
}

func TestGaussianKernel(t *testing.T) {
	t.Parallel()

	w := gaussianKernel(5)
	require.Len(t, w, 5)
	assert.InDelta(t, 1, floats.Sum(w), 1e-12)
	assert.Equal(t, 2, floats.MaxIdx(w))
	assert.InDelta(t, w[0], w[4], 1e-15)
	assert.InDelta(t, w[1], w[3], 1e-15)

	assert.Equal(t, []float64{1}, gaussianKernel(0))
}

func TestConvolveSameCentresKernel(t *testing.T) {
	t.Parallel()

	w := gaussianKernel(5)
	x := make([]float64, 11)
	x[5] = 1
	y := convolveSame(x, w)
	require.Len(t, y, 11)
	for k := range w {
		assert.InDelta(t, w[k], y[3+k], 1e-15)
	}
	assert.InDelta(t, 1, floats.Sum(y), 1e-12)
}

func TestMelFilterBank(t *testing.T) {
	t.Parallel()

	bank := melFilterBank(40, 512, 8000)
	require.Len(t, bank, 40)
	prevCentre := -1
	for b, filter := range bank {
		require.Len(t, filter, 257)
		assert.GreaterOrEqual(t, floats.Min(filter), 0.0)
		assert.Greater(t, floats.Max(filter), 0.0, "band %d is empty", b)
		centre := floats.MaxIdx(filter)
		assert.GreaterOrEqual(t, centre, prevCentre)
		prevCentre = centre
	}
}

func TestMelScaleRoundTrip(t *testing.T) {
	t.Parallel()

	for _, f := range []float64{0, 100, 999, 1000, 2500, 4000} {
		assert.InDelta(t, f, melToHz(hzToMel(f)), 1e-9)
	}
}

func TestReflectPad(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{3, 2, 1, 2, 3, 4, 3, 2}, reflectPad([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{0, 0, 1, 0, 0}, reflectPad([]float64{1}, 2))
}
