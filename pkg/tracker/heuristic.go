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
	"github.com/sirupsen/logrus"

	"github.com/goccmack/beatsearch/pkg/common"
	"github.com/goccmack/beatsearch/pkg/peaks"
	"github.com/goccmack/beatsearch/pkg/tempo"
)

// StateSpace is the greedy peak-following beat tracker
type StateSpace struct {
	window int
	logger logrus.FieldLogger
}

// NewStateSpace returns a StateSpace tracker that looks for the next beat
// within window frames of its expected position
func NewStateSpace(window int, logger logrus.FieldLogger) *StateSpace {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StateSpace{
		window: max(window, 1),
		logger: logger.WithField("component", "state_space_tracker"),
	}
}

func (h *StateSpace) Name() string { return KindHeuristic }

// Track runs the tracker with the estimated period and metre
func (h *StateSpace) Track(ose []float64, est tempo.Estimate) (*Result, error) {
	return h.Run(ose, est.Period, est.Duple)
}

// Run tracks beats from the first peak of ose. Bars have 4 beats when duple
// is true and 3 otherwise. The next beat is the earliest peak after the
// current one within window frames of its expected position.
//
// When no peak lies near the expected beat the search widens ahead of it
// one window at a time. The first beat found that way is taken as a
// downbeat. This is a heuristic: nothing checks that the music resumes on
// the bar line.
func (h *StateSpace) Run(ose []float64, period int, duple bool) (*Result, error) {
	if err := checkInput("tracker.StateSpace.Run", ose, period); err != nil {
		return nil, err
	}
	pk := peaks.NewSet(ose)
	pos, ok := pk.First()
	if !ok {
		return nil, common.InsufficientData("tracker.StateSpace.Run", "onset envelope has no peaks")
	}

	n := len(ose)
	metre := 3
	if duple {
		metre = 4
	}

	res := &Result{}
	counter := 1
	add := func(beat int) {
		res.Beats = append(res.Beats, beat)
		res.Numbers = append(res.Numbers, counter)
		if counter == 1 {
			res.Downbeats = append(res.Downbeats, beat)
		}
	}
	add(pos)

	tau := period
	for pos+tau < n {
		expected := pos + tau
		if p, ok := pk.FirstIn(max(expected-h.window, pos+1), expected+h.window); ok {
			diff := expected - p
			tau = max(1, (2*tau-diff)/2)
			pos = p
			counter++
			if counter > metre {
				counter = 1
			}
			add(pos)
			continue
		}

		p, ok := h.recover(pk, expected, n)
		if !ok {
			break
		}
		h.logger.WithFields(logrus.Fields{
			"expected": expected,
			"found":    p,
		}).Debug("Recovered from gap")
		pos = p
		counter = 1
		add(pos)
		res.Recoveries = append(res.Recoveries, pos)
	}

	h.logger.WithFields(logrus.Fields{
		"frames":     n,
		"beats":      len(res.Beats),
		"downbeats":  len(res.Downbeats),
		"recoveries": len(res.Recoveries),
		"period":     tau,
	}).Debug("State space search complete")
	return res, nil
}

// recover returns the first peak at or after expected, widening the search
// by one window per step until it reaches the end of the envelope
func (h *StateSpace) recover(pk *peaks.Set, expected, n int) (int, bool) {
	for m := 1; ; m++ {
		hi := min(expected+h.window*m, n)
		if p, ok := pk.FirstIn(expected, hi); ok {
			return p, true
		}
		if hi >= n {
			return 0, false
		}
	}
}
