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
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/goccmack/beatsearch/pkg/peaks"
	"github.com/goccmack/beatsearch/pkg/tempo"
)

// Dynamic is the dynamic programming beat tracker.
// It does not number beats and returns no downbeats.
type Dynamic struct {
	alpha    float64
	lookback int
	logger   logrus.FieldLogger
}

// NewDynamic returns a Dynamic tracker. alpha weighs tempo consistency
// against onset strength and lookback is the peak snapping window in frames.
func NewDynamic(alpha float64, lookback int, logger logrus.FieldLogger) *Dynamic {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dynamic{
		alpha:    alpha,
		lookback: lookback,
		logger:   logger.WithField("component", "dp_tracker"),
	}
}

func (d *Dynamic) Name() string { return KindDP }

// Track returns the snapped beat sequence of ose for the estimated period
func (d *Dynamic) Track(ose []float64, est tempo.Estimate) (*Result, error) {
	beats, err := d.Search(ose, est.Period)
	if err != nil {
		return nil, err
	}
	return &Result{
		Beats:     d.Snap(beats, peaks.NewSet(ose)),
		Downbeats: []int{},
	}, nil
}

// Search returns the best beat sequence of ose for period before peak
// snapping. The sequence starts at frame 0 and its last beat lies in the
// final period frames of the envelope.
func (d *Dynamic) Search(ose []float64, period int) ([]int, error) {
	if err := checkInput("tracker.Dynamic.Search", ose, period); err != nil {
		return nil, err
	}
	n := len(ose)
	tau := period

	// penalty[Δ] for Δ in [1,2τ]
	penalty := make([]float64, 2*tau+1)
	for delta := 1; delta < len(penalty); delta++ {
		r := math.Log10(float64(delta) / float64(tau))
		penalty[delta] = -d.alpha * r * r
	}

	score := make([]float64, n)
	back := make([]int, n)
	score[0] = ose[0]
	back[0] = -1
	fallbacks := 0
	for t := 1; t < n; t++ {
		lo := max(t-2*tau, 0)
		hi := min(t-tau/2, t-1)
		if hi < lo {
			lo, hi = t-1, t-1
			fallbacks++
		}
		best, arg := math.Inf(-1), hi
		for j := lo; j <= hi; j++ {
			if s := penalty[t-j] + score[j]; s > best {
				best, arg = s, j
			}
		}
		score[t] = ose[t] + best
		back[t] = arg
	}

	start := max(n-tau, 0)
	b := start + floats.MaxIdx(score[start:])

	beats := []int{b}
	for steps := 0; b > 0 && steps < n; steps++ {
		p := back[b]
		if p < 0 || p >= b {
			break
		}
		b = p
		beats = append(beats, b)
	}
	for i, j := 0, len(beats)-1; i < j; i, j = i+1, j-1 {
		beats[i], beats[j] = beats[j], beats[i]
	}

	d.logger.WithFields(logrus.Fields{
		"frames":    n,
		"period":    tau,
		"beats":     len(beats),
		"fallbacks": fallbacks,
	}).Debug("DP search complete")
	return beats, nil
}

// Snap moves each beat b at or beyond the lookback to the nearest peak in
// [b-lookback, b]. A peak that is not after the previous snapped beat is
// ignored, so the result stays strictly increasing. Snap is idempotent.
func (d *Dynamic) Snap(beats []int, pk *peaks.Set) []int {
	out := make([]int, 0, len(beats))
	for _, b := range beats {
		s := b
		if b >= d.lookback {
			if p, ok := pk.Nearest(b, b-d.lookback, b+1); ok && (len(out) == 0 || p > out[len(out)-1]) {
				s = p
			}
		}
		out = append(out, s)
	}
	return out
}
