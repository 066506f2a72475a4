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
Package tempo estimates the beat period of an onset strength envelope.

The autocorrelation of the envelope is weighted by a log-Gaussian prior
centred on the tempo period bias. The strongest weighted lag competes with
the best double-time and triple-time combinations of lags, and the winner
decides both the period and the metre.
*/
package tempo

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/goccmack/beatsearch/pkg/common"
)

// minStrength is the smallest period strength accepted as real periodicity
const minStrength = 1e-12

// Candidate identifies which period hypothesis won
type Candidate int

const (
	// Normal is the single strongest weighted lag
	Normal Candidate = iota
	// DoubleTime is a lag reinforced by its second multiple
	DoubleTime
	// TripleTime is a lag reinforced by its third multiple
	TripleTime
)

func (c Candidate) String() string {
	switch c {
	case Normal:
		return "normal"
	case DoubleTime:
		return "double"
	case TripleTime:
		return "triple"
	}
	return fmt.Sprintf("Candidate(%d)", int(c))
}

// Config holds the estimator parameters
type Config struct {
	// Sigma is the width of the tempo prior in octaves
	Sigma float64
	// SearchSec bounds the lags considered for the double and triple
	// time candidates
	SearchSec float64
}

// DefaultConfig returns the standard estimator parameters
func DefaultConfig() Config {
	return Config{
		Sigma:     0.9,
		SearchSec: 8,
	}
}

// Estimate is the result of tempo estimation
type Estimate struct {
	// TactusSec is the beat period in seconds
	TactusSec float64
	// Period is the winning lag in envelope frames. It seeds the trackers.
	Period int
	// Duple is false when the metre is triple
	Duple bool
	// Candidate is the hypothesis that won
	Candidate Candidate
	// Strength is the combined period strength of the winner
	Strength float64
}

// BPM returns the tactus in beats per minute
func (e Estimate) BPM() float64 {
	if e.TactusSec <= 0 {
		return 0
	}
	return 60 / e.TactusSec
}

// MetreLength returns the number of beats per bar implied by the metre flag
func (e Estimate) MetreLength() int {
	if e.Duple {
		return 4
	}
	return 3
}

// Estimator estimates tempo. It is safe for concurrent use.
type Estimator struct {
	cfg    Config
	logger logrus.FieldLogger
}

// NewEstimator returns an Estimator for cfg. A nil logger uses the standard
// logrus logger.
func NewEstimator(cfg Config, logger logrus.FieldLogger) (*Estimator, error) {
	if cfg.Sigma <= 0 {
		return nil, common.InvalidInput("tempo.NewEstimator", fmt.Sprintf("sigma must be positive, got %g", cfg.Sigma))
	}
	if cfg.SearchSec <= 0 {
		return nil, common.InvalidInput("tempo.NewEstimator", fmt.Sprintf("search range must be positive, got %g s", cfg.SearchSec))
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Estimator{
		cfg:    cfg,
		logger: logger.WithField("component", "tempo_estimator"),
	}, nil
}

// Estimate returns the tempo of ose given the tempo period bias
func (e *Estimator) Estimate(ose []float64, bias Bias) (Estimate, error) {
	tps, err := e.Strengths(ose, bias)
	if err != nil {
		return Estimate{}, err
	}
	n := len(tps)

	tau := floats.MaxIdx(tps)
	best := Estimate{
		TactusSec: common.FrameToSeconds(tau),
		Period:    tau,
		Duple:     true,
		Candidate: Normal,
		Strength:  tps[tau],
	}

	search := e.maxLag()

	// TPS2 needs 2τ+1 < n
	if tau2, s2, ok := bestCombination(tps, min(search, (n-2)/2), 2, [3]float64{0.5, 0.25, 0.25}); ok && s2 > best.Strength {
		best = Estimate{
			TactusSec: 0.5 * common.FrameToSeconds(tau2),
			Period:    tau2,
			Duple:     true,
			Candidate: DoubleTime,
			Strength:  s2,
		}
	}
	// TPS3 needs 3τ+1 < n
	if tau3, s3, ok := bestCombination(tps, min(search, (n-2)/3), 3, [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}); ok && s3 > best.Strength {
		best = Estimate{
			TactusSec: common.FrameToSeconds(tau3) / 3,
			Period:    tau3,
			Duple:     false,
			Candidate: TripleTime,
			Strength:  s3,
		}
	}

	if !(best.Strength > minStrength) || math.IsInf(best.Strength, 0) {
		return Estimate{}, common.DegenerateEstimate("tempo.Estimate",
			fmt.Sprintf("no reliable periodicity (strength %g)", best.Strength))
	}

	e.logger.WithFields(logrus.Fields{
		"period":    best.Period,
		"bpm":       best.BPM(),
		"duple":     best.Duple,
		"candidate": best.Candidate.String(),
		"bias_bpm":  bias.BPM,
	}).Debug("Tempo estimated")

	return best, nil
}

// Strengths returns the tempo period strength of every lag of ose. The
// value at lag 0 is -Inf so that it never wins an argmax.
func (e *Estimator) Strengths(ose []float64, bias Bias) ([]float64, error) {
	if len(ose) == 0 {
		return nil, common.InvalidInput("tempo.Strengths", "empty onset envelope")
	}
	if len(ose) < 2 {
		return nil, common.InsufficientData("tempo.Strengths", fmt.Sprintf("need at least 2 frames, got %d", len(ose)))
	}
	tau0 := bias.Period()
	if !(tau0 > 0) || math.IsInf(tau0, 0) {
		return nil, common.InvalidInput("tempo.Strengths", fmt.Sprintf("invalid tempo bias %g BPM", bias.BPM))
	}

	ac := autocorrelate(ose)
	tps := make([]float64, len(ac))
	tps[0] = math.Inf(-1)
	for tau := 1; tau < len(ac); tau++ {
		tps[tau] = e.weight(float64(tau), tau0) * ac[tau]
	}
	return tps, nil
}

// maxLag returns the largest lag searched for the double and triple time
// candidates. The search range is exclusive of SearchSec itself.
func (e *Estimator) maxLag() int {
	return int(math.Round(e.cfg.SearchSec*common.FrameRate)) - 1
}

// weight is the log-Gaussian tempo prior
func (e *Estimator) weight(tau, tau0 float64) float64 {
	d := math.Log2(tau/tau0) / e.cfg.Sigma
	return math.Exp(-0.5 * d * d)
}

// bestCombination returns the lag τ in [1,maxTau] maximising
// tps[τ] + w[0]·tps[kτ] + w[1]·tps[kτ-1] + w[2]·tps[kτ+1].
// ok is false when the range is empty.
func bestCombination(tps []float64, maxTau, k int, w [3]float64) (tau int, strength float64, ok bool) {
	strength = math.Inf(-1)
	for t := 1; t <= maxTau; t++ {
		s := tps[t] + w[0]*tps[k*t] + w[1]*tps[k*t-1] + w[2]*tps[k*t+1]
		if s > strength {
			tau, strength, ok = t, s, true
		}
	}
	return
}

// autocorrelate returns the unnormalised autocorrelation of x at lags
// 0..len(x)-1
func autocorrelate(x []float64) []float64 {
	n := len(x)
	size := 1
	for size < 2*n {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, x)

	spec := fft.FFTReal(padded)
	for i, c := range spec {
		spec[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	r := fft.IFFT(spec)

	ac := make([]float64, n)
	for i := range ac {
		ac[i] = real(r[i])
	}
	return ac
}
