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
Package pipeline runs the beat tracking stages over audio files:

	WAV -> onset envelope -> tempo estimate -> tracker -> record

Files are independent. AnalyzeFiles runs them on a bounded number of
goroutines; the tempo bias is resolved once and shared.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/goccmack/godsp/peaks"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/goccmack/beatsearch/configs"
	"github.com/goccmack/beatsearch/internal/output"
	"github.com/goccmack/beatsearch/pkg/annotation"
	"github.com/goccmack/beatsearch/pkg/audio"
	"github.com/goccmack/beatsearch/pkg/common"
	"github.com/goccmack/beatsearch/pkg/evaluate"
	"github.com/goccmack/beatsearch/pkg/onset"
	"github.com/goccmack/beatsearch/pkg/tempo"
	"github.com/goccmack/beatsearch/pkg/tracker"
)

// Analysis is the result of analysing one file
type Analysis struct {
	FileName    string
	SampleRate  int
	NumChannels int
	OSE         []float64
	Bias        tempo.Bias
	Tempo       tempo.Estimate
	Tracker     string
	Result      *tracker.Result
}

// Record returns the output record of a
func (a *Analysis) Record() *output.Record {
	return output.NewRecord(a.FileName, a.SampleRate, a.NumChannels, a.Tracker, a.Tempo, a.Bias, a.Result)
}

// Analyzer runs the pipeline. It is safe for concurrent use.
type Analyzer struct {
	cfg       *configs.Config
	fs        afero.Fs
	extractor *onset.Extractor
	estimator *tempo.Estimator
	tracker   tracker.Tracker
	bias      *tempo.BiasStore
	logger    logrus.FieldLogger
}

// New returns an Analyzer reading audio, annotations and the bias file from
// fsys
func New(cfg *configs.Config, fsys afero.Fs, logger logrus.FieldLogger) (*Analyzer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	extractor, err := onset.NewExtractor(cfg.OnsetConfig(), logger)
	if err != nil {
		return nil, err
	}
	estimator, err := tempo.NewEstimator(cfg.TempoConfig(), logger)
	if err != nil {
		return nil, err
	}
	trk, err := tracker.New(cfg.Tracker, cfg.TrackerConfig(), logger)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:       cfg,
		fs:        fsys,
		extractor: extractor,
		estimator: estimator,
		tracker:   trk,
		logger:    logger.WithField("component", "pipeline"),
	}
	if cfg.Bias.File != "" {
		a.bias = tempo.NewBiasStore(fsys, cfg.Bias.File, logger)
	}
	return a, nil
}

// Bias returns the tempo period bias. It is read from the bias file,
// computed from the annotation corpus and persisted when the file is
// missing, or taken from the fallback tempo when there is no corpus.
func (a *Analyzer) Bias() (tempo.Bias, error) {
	var compute func() (tempo.Bias, error)
	if dir := a.cfg.Bias.Annotations; dir != "" {
		compute = func() (tempo.Bias, error) {
			bpm, n, err := annotation.MeanTempo(a.fs, dir)
			if err != nil {
				return tempo.Bias{}, err
			}
			a.logger.WithFields(logrus.Fields{
				"annotations": dir,
				"files":       n,
				"bpm":         bpm,
			}).Info("Computed mean annotated tempo")
			return tempo.BiasFromBPM(bpm), nil
		}
	}

	if a.bias == nil {
		if compute != nil {
			return compute()
		}
		return tempo.BiasFromBPM(a.cfg.Bias.FallbackBPM), nil
	}

	b, err := a.bias.Get(compute)
	if err != nil && compute == nil && errors.Is(err, fs.ErrNotExist) {
		a.logger.WithField("bpm", a.cfg.Bias.FallbackBPM).Debug("No tempo bias file, using fallback")
		return tempo.BiasFromBPM(a.cfg.Bias.FallbackBPM), nil
	}
	return b, err
}

// ReadWav decodes the WAV file at path
func (a *Analyzer) ReadWav(path string) (*audio.Waveform, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := audio.ReadWav(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// AnalyzeFile runs the whole pipeline on the WAV file at path
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	bias, err := a.Bias()
	if err != nil {
		return nil, err
	}
	return a.analyzeFile(ctx, path, bias)
}

func (a *Analyzer) analyzeFile(ctx context.Context, path string, bias tempo.Bias) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, err := a.ReadWav(path)
	if err != nil {
		return nil, err
	}
	an, err := a.AnalyzeWaveform(ctx, path, w, bias)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return an, nil
}

// AnalyzeWaveform runs the pipeline on a decoded waveform
func (a *Analyzer) AnalyzeWaveform(ctx context.Context, name string, w *audio.Waveform, bias tempo.Bias) (*Analysis, error) {
	start := time.Now()
	logger := a.logger.WithField("file", name)

	ose, err := a.extractor.Extract(w)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	est, err := a.estimator.Estimate(ose, bias)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := a.tracker.Track(ose, est)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"bpm":       est.BPM(),
		"period":    est.Period,
		"duple":     est.Duple,
		"tracker":   a.tracker.Name(),
		"beats":     len(res.Beats),
		"downbeats": len(res.Downbeats),
		"elapsed":   time.Since(start),
	}).Info("Analysis complete")

	return &Analysis{
		FileName:    name,
		SampleRate:  w.SampleRate,
		NumChannels: w.NumChannels,
		OSE:         ose,
		Bias:        bias,
		Tempo:       est,
		Tracker:     a.tracker.Name(),
		Result:      res,
	}, nil
}

// AnalyzeFiles analyses paths concurrently on at most the configured number
// of workers. The analyses are returned in the order of paths. The first
// error cancels the remaining files.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string) ([]*Analysis, error) {
	bias, err := a.Bias()
	if err != nil {
		return nil, err
	}

	results := make([]*Analysis, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.cfg.Workers, 1))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			an, err := a.analyzeFile(ctx, path, bias)
			if err != nil {
				return err
			}
			results[i] = an
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EstimateTempo returns the tempo estimate of the WAV file at path without
// tracking its beats
func (a *Analyzer) EstimateTempo(ctx context.Context, path string) (*output.TempoRecord, error) {
	bias, err := a.Bias()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := a.ReadWav(path)
	if err != nil {
		return nil, err
	}
	ose, err := a.extractor.Extract(w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	est, err := a.estimator.Estimate(ose, bias)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &output.TempoRecord{FileName: path, Tempo: output.NewTempo(est, bias)}, nil
}

// BiasFile returns the path of the persisted bias, empty when there is none
func (a *Analyzer) BiasFile() string {
	if a.bias == nil {
		return ""
	}
	return a.bias.Path()
}

// Evaluate scores an analysis against the annotation at annPath
func (a *Analyzer) Evaluate(an *Analysis, annPath string) (*evaluate.Report, error) {
	ref, err := annotation.LoadFile(a.fs, annPath)
	if err != nil {
		return nil, err
	}
	r := evaluate.Compare(ref, an.Result.BeatTimes(), an.Result.DownbeatTimes(), a.cfg.Eval.Window)
	a.logger.WithFields(logrus.Fields{
		"file":       an.FileName,
		"annotation": annPath,
		"beats_f":    r.Beats.FMeasure,
		"downbeat_f": r.Downbeats.FMeasure,
	}).Info("Evaluation complete")
	return &r, nil
}

// Onsets returns the envelope peaks of the WAV file at path that are at
// least sepMs milliseconds apart
func (a *Analyzer) Onsets(ctx context.Context, path string, sepMs int) (*output.OnsetRecord, error) {
	sepFrames := int(float64(sepMs) * common.FrameRate / 1000)
	if sepFrames <= 0 {
		return nil, common.InvalidInput("pipeline.Onsets",
			fmt.Sprintf("sep is too small. Minimum is %d ms", common.FrameToMs(1)))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := a.ReadWav(path)
	if err != nil {
		return nil, err
	}
	ose, err := a.extractor.Extract(w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pks := peaks.Get(ose, sepFrames)

	a.logger.WithFields(logrus.Fields{
		"file":   path,
		"onsets": len(pks),
	}).Debug("Onsets picked")
	return output.NewOnsetRecord(path, w.SampleRate, w.NumChannels, sepFrames, pks), nil
}

// PlotDir returns the directory for plot data, empty when plotting is off
func (a *Analyzer) PlotDir() string {
	if !a.cfg.Plot {
		return ""
	}
	return a.cfg.PlotDir
}
