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

package tracker

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goccmack/beatsearch/pkg/common"
	"github.com/goccmack/beatsearch/pkg/peaks"
	"github.com/goccmack/beatsearch/pkg/tempo"
)

// train sets unit impulses at first, first+spacing, ... up to and
// including last
func train(x []float64, first, last, spacing int) []int {
	var pos []int
	for i := first; i <= last; i += spacing {
		x[i] = 1
		pos = append(pos, i)
	}
	return pos
}

func randomEnvelope(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.Float64()
	}
	return x
}

func assertStrictlyIncreasing(t *testing.T, beats []int) {
	t.Helper()
	for i := 1; i < len(beats); i++ {
		require.Less(t, beats[i-1], beats[i], "beats %d and %d", i-1, i)
	}
}

func TestImpulseTrainBothTrackers(t *testing.T) {
	t.Parallel()

	ose := make([]float64, 400)
	want := train(ose, 20, 380, 20)
	est := tempo.Estimate{Period: 20, Duple: true}

	// the DP sequence always starts at frame 0, which is too early to snap
	dp, err := NewDynamic(30, 24, nil).Track(ose, est)
	require.NoError(t, err)
	assert.Equal(t, append([]int{0}, want...), dp.Beats)
	assert.Empty(t, dp.Downbeats)
	assert.Nil(t, dp.Numbers)

	ss, err := NewStateSpace(24, nil).Track(ose, est)
	require.NoError(t, err)
	assert.Equal(t, want, ss.Beats)
	for i, num := range ss.Numbers {
		assert.Equal(t, i%4+1, num, "beat %d", i)
	}
	assert.Equal(t, []int{20, 100, 180, 260, 340}, ss.Downbeats)
	assert.Empty(t, ss.Recoveries)
}

func TestStateSpaceTripleMetre(t *testing.T) {
	t.Parallel()

	ose := make([]float64, 400)
	want := train(ose, 20, 380, 20)

	res, err := NewStateSpace(24, nil).Run(ose, 20, false)
	require.NoError(t, err)
	assert.Equal(t, want, res.Beats)
	for i, num := range res.Numbers {
		assert.Equal(t, i%3+1, num, "beat %d", i)
	}
	assert.Equal(t, []int{20, 80, 140, 200, 260, 320, 380}, res.Downbeats)
}

func TestStateSpaceGapRecovery(t *testing.T) {
	t.Parallel()

	// 200 silent frames (201..400) between two trains
	ose := make([]float64, 601)
	first := train(ose, 20, 200, 20)
	second := train(ose, 401, 581, 20)

	res, err := NewStateSpace(24, nil).Run(ose, 20, true)
	require.NoError(t, err)

	assert.Equal(t, append(append([]int{}, first...), second...), res.Beats)
	assert.Equal(t, []int{401}, res.Recoveries)

	numbers := []int{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 1, 2, 3, 4, 1, 2, 3, 4, 1, 2}
	assert.Equal(t, numbers, res.Numbers)
	assert.Equal(t, []int{20, 100, 180, 401, 481, 561}, res.Downbeats)
}

func TestStateSpaceAdaptsPeriod(t *testing.T) {
	t.Parallel()

	// true period 22, seeded with 20
	ose := make([]float64, 500)
	want := train(ose, 5, 490, 22)

	res, err := NewStateSpace(24, nil).Run(ose, 20, true)
	require.NoError(t, err)
	assert.Equal(t, want, res.Beats)
}

func TestStateSpaceTakesEarliestPeakInWindow(t *testing.T) {
	t.Parallel()

	// beat 10 expects 30; both 20 and 32 are in [11,54) and 32 is closer
	ose := make([]float64, 60)
	for _, i := range []int{10, 20, 32} {
		ose[i] = 1
	}

	res, err := NewStateSpace(24, nil).Run(ose, 20, true)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Beats), 2)
	assert.Equal(t, []int{10, 20}, res.Beats[:2])
}

func TestStateSpaceFirstBeatIsInteriorPeak(t *testing.T) {
	t.Parallel()

	// the boundary samples 0 and 6 exceed their only neighbour
	res, err := NewStateSpace(24, nil).Run([]float64{5, 1, 0, 2, 0, 1, 3}, 20, true)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, res.Beats)
}

func TestStateSpaceStopsWhenNothingFollows(t *testing.T) {
	t.Parallel()

	ose := make([]float64, 300)
	ose[10] = 1

	res, err := NewStateSpace(24, nil).Run(ose, 20, true)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, res.Beats)
	assert.Equal(t, []int{10}, res.Downbeats)
	assert.Empty(t, res.Recoveries)
}

func TestStateSpaceNumberingWrapsAtBar(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 5; seed++ {
		ose := randomEnvelope(seed, 2000)
		// silence part of it to force recoveries
		for i := 700; i < 1100; i++ {
			ose[i] = 0
		}
		for _, duple := range []bool{true, false} {
			res, err := NewStateSpace(24, nil).Run(ose, 60, duple)
			require.NoError(t, err)

			metre := 3
			if duple {
				metre = 4
			}
			assertStrictlyIncreasing(t, res.Beats)
			require.Len(t, res.Numbers, len(res.Beats))
			recovered := map[int]bool{}
			for _, r := range res.Recoveries {
				recovered[r] = true
			}
			for i, num := range res.Numbers {
				require.GreaterOrEqual(t, num, 1)
				require.LessOrEqual(t, num, metre)
				if recovered[res.Beats[i]] {
					require.Equal(t, 1, num)
				}
			}
			require.NotEmpty(t, res.Recoveries, "seed %d", seed)
		}
	}
}

func TestDynamicProperties(t *testing.T) {
	t.Parallel()

	d := NewDynamic(30, 24, nil)
	for seed := int64(1); seed <= 5; seed++ {
		for _, period := range []int{1, 7, 37, 125, 900} {
			ose := randomEnvelope(seed, 1000)

			raw, err := d.Search(ose, period)
			require.NoError(t, err)
			require.NotEmpty(t, raw)
			assertStrictlyIncreasing(t, raw)
			assert.Equal(t, 0, raw[0])
			assert.GreaterOrEqual(t, raw[len(raw)-1], len(ose)-period)

			pk := peaks.NewSet(ose)
			snapped := d.Snap(raw, pk)
			assertStrictlyIncreasing(t, snapped)
			assert.Equal(t, snapped, d.Snap(snapped, pk), "seed %d period %d", seed, period)
		}
	}
}

func TestDynamicDegenerateInput(t *testing.T) {
	t.Parallel()

	d := NewDynamic(30, 24, nil)

	beats, err := d.Search(make([]float64, 100), 20)
	require.NoError(t, err)
	assertStrictlyIncreasing(t, beats)

	beats, err = d.Search([]float64{0.5}, 20)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, beats)
}

func TestEmptyInput(t *testing.T) {
	t.Parallel()

	est := tempo.Estimate{Period: 20, Duple: true}
	for _, tr := range []Tracker{NewDynamic(30, 24, nil), NewStateSpace(24, nil)} {
		_, err := tr.Track(nil, est)
		assert.True(t, errors.Is(err, common.ErrInvalidInput), tr.Name())

		_, err = tr.Track([]float64{1, 0}, tempo.Estimate{})
		assert.True(t, errors.Is(err, common.ErrInvalidInput), tr.Name())
	}

	_, err := NewStateSpace(24, nil).Run(make([]float64, 50), 20, true)
	assert.True(t, errors.Is(err, common.ErrInsufficientData))
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{KindDP, KindHeuristic} {
		tr, err := New(kind, DefaultConfig(), nil)
		require.NoError(t, err)
		assert.Equal(t, kind, tr.Name())
	}
	_, err := New("viterbi", DefaultConfig(), nil)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestResultTimes(t *testing.T) {
	t.Parallel()

	r := &Result{Beats: []int{0, 125, 250}, Downbeats: []int{250}}
	assert.Equal(t, []float64{0, 0.5, 1}, r.BeatTimes())
	assert.Equal(t, []float64{1}, r.DownbeatTimes())
}
