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
Package onset computes the onset strength envelope (OSE) of a waveform.

The envelope has one value per HopSize samples at SampleRate (see package
common). Its peaks mark likely note and percussive onsets:

	resample -> power STFT -> mel bands -> rectified time difference
	         -> band sum -> high-pass -> Gaussian smoothing -> unit std
*/
package onset

import (
	"fmt"
	"math"

	"github.com/goccmack/godsp"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/goccmack/beatsearch/pkg/audio"
	"github.com/goccmack/beatsearch/pkg/common"
)

// Config holds the tunable parameters of the envelope
type Config struct {
	// MelBands is the number of mel frequency bands
	MelBands int
	// CutoffHz is the cutoff of the high-pass filter applied to the envelope
	CutoffHz float64
	// SmoothingSec is the width of the Gaussian smoothing kernel in seconds
	SmoothingSec float64
}

// DefaultConfig returns the standard envelope parameters
func DefaultConfig() Config {
	return Config{
		MelBands:     40,
		CutoffHz:     0.4,
		SmoothingSec: 0.020,
	}
}

// Extractor computes onset strength envelopes. It holds no per-call state
// and may be shared between goroutines.
type Extractor struct {
	cfg      Config
	window   []float64
	melBank  [][]float64
	highpass biquad
	kernel   []float64
	logger   logrus.FieldLogger
}

// NewExtractor returns an Extractor for cfg. A nil logger uses the standard
// logrus logger.
func NewExtractor(cfg Config, logger logrus.FieldLogger) (*Extractor, error) {
	if cfg.MelBands <= 0 {
		return nil, common.InvalidInput("onset.NewExtractor", fmt.Sprintf("mel bands must be positive, got %d", cfg.MelBands))
	}
	if cfg.CutoffHz <= 0 || cfg.CutoffHz >= common.FrameRate/2 {
		return nil, common.InvalidInput("onset.NewExtractor", fmt.Sprintf("high-pass cutoff %g Hz out of range", cfg.CutoffHz))
	}
	if cfg.SmoothingSec < 0 {
		return nil, common.InvalidInput("onset.NewExtractor", "negative smoothing width")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Extractor{
		cfg:      cfg,
		window:   periodicHann(common.FFTSize),
		melBank:  melFilterBank(cfg.MelBands, common.FFTSize, common.SampleRate),
		highpass: butterworthHighpass(cfg.CutoffHz, common.FrameRate),
		kernel:   gaussianKernel(int(math.Round(cfg.SmoothingSec * common.FrameRate))),
		logger:   logger.WithField("component", "onset_extractor"),
	}, nil
}

// Extract returns the onset strength envelope of w
func (e *Extractor) Extract(w *audio.Waveform) ([]float64, error) {
	if w == nil || len(w.Samples) == 0 {
		return nil, common.InvalidInput("onset.Extract", "empty waveform")
	}
	if w.SampleRate <= 0 {
		return nil, common.InvalidInput("onset.Extract", fmt.Sprintf("sample rate must be positive, got %d", w.SampleRate))
	}

	logger := e.logger.WithFields(logrus.Fields{
		"samples":     len(w.Samples),
		"sample_rate": w.SampleRate,
	})

	x := Resample(w.Samples, w.SampleRate, common.SampleRate)
	if numFrames(len(x), common.HopSize) < 2 {
		return nil, common.InsufficientData("onset.Extract", "waveform shorter than one envelope hop")
	}

	flux := e.spectralFlux(x)
	ose := e.highpass.filtfilt(flux)
	ose = convolveSame(ose, e.kernel)

	std := stat.PopStdDev(ose, nil)
	if std > 0 && !math.IsInf(std, 0) && !math.IsNaN(std) {
		ose = godsp.DivS(ose, std)
	} else {
		logger.Warn("Onset envelope has no variance, leaving it unnormalised")
	}

	logger.WithField("frames", len(ose)).Debug("Onset envelope extracted")
	return ose, nil
}

// spectralFlux returns the half-wave rectified first difference of the mel
// spectrogram of x summed over bands. It has one value fewer than the
// number of STFT frames.
func (e *Extractor) spectralFlux(x []float64) []float64 {
	n := numFrames(len(x), common.HopSize)
	flux := make([]float64, n-1)
	prev := make([]float64, len(e.melBank))
	cur := make([]float64, len(e.melBank))

	powerFrames(x, common.FFTSize, common.HopSize, e.window, func(t int, power []float64) {
		applyBank(cur, e.melBank, power)
		if t > 0 {
			sum := 0.0
			for b := range cur {
				if d := cur[b] - prev[b]; d > 0 {
					sum += d
				}
			}
			flux[t-1] = sum
		}
		prev, cur = cur, prev
	})
	return flux
}
