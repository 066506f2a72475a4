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

/*
Package tracker finds beat sequences in an onset strength envelope.

Two trackers are provided. Dynamic finds the globally best beat sequence for
a single tempo by dynamic programming. StateSpace walks from peak to peak,
adapting its period and numbering beats within the bar.
*/
package tracker

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/goccmack/beatsearch/pkg/common"
	"github.com/goccmack/beatsearch/pkg/tempo"
)

// Tracker kinds
const (
	KindDP        = "dp"
	KindHeuristic = "heuristic"
)

// Config holds the parameters of both trackers
type Config struct {
	// Alpha weighs tempo consistency against onset strength (Dynamic)
	Alpha float64
	// Lookback is the peak snapping window in frames (Dynamic)
	Lookback int
	// Window is the half width of the next-beat search in frames (StateSpace)
	Window int
}

// DefaultConfig returns the standard tracker parameters
func DefaultConfig() Config {
	return Config{
		Alpha:    30,
		Lookback: 24,
		Window:   24,
	}
}

// Result is the output of a tracker. All indices are envelope frames.
type Result struct {
	// Beats is strictly increasing
	Beats []int
	// Downbeats is the subsequence of Beats numbered 1
	Downbeats []int
	// Numbers holds the position in the bar of each beat. It is nil when
	// the tracker does not number beats.
	Numbers []int
	// Recoveries holds the beats found by gap recovery
	Recoveries []int
}

// BeatTimes returns the beats in seconds
func (r *Result) BeatTimes() []float64 { return common.FramesToSeconds(r.Beats) }

// DownbeatTimes returns the downbeats in seconds
func (r *Result) DownbeatTimes() []float64 { return common.FramesToSeconds(r.Downbeats) }

// Tracker finds beats in an onset strength envelope seeded by a tempo estimate
type Tracker interface {
	Name() string
	Track(ose []float64, est tempo.Estimate) (*Result, error)
}

// New returns the tracker of the given kind
func New(kind string, cfg Config, logger logrus.FieldLogger) (Tracker, error) {
	switch kind {
	case KindDP:
		return NewDynamic(cfg.Alpha, cfg.Lookback, logger), nil
	case KindHeuristic:
		return NewStateSpace(cfg.Window, logger), nil
	}
	return nil, common.InvalidInput("tracker.New", fmt.Sprintf("unknown tracker %q", kind))
}

func checkInput(op string, ose []float64, period int) error {
	if len(ose) == 0 {
		return common.InvalidInput(op, "empty onset envelope")
	}
	if period < 1 {
		return common.InvalidInput(op, fmt.Sprintf("period must be at least one frame, got %d", period))
	}
	return nil
}
