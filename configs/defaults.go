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

package configs

import (
	"runtime"

	"github.com/spf13/viper"

	"github.com/goccmack/beatsearch/pkg/evaluate"
	"github.com/goccmack/beatsearch/pkg/onset"
	"github.com/goccmack/beatsearch/pkg/tempo"
	"github.com/goccmack/beatsearch/pkg/tracker"
)

// DefaultFallbackBPM is the tempo bias used without a corpus
const DefaultFallbackBPM = 120

// SetDefaults registers the default value of every setting with v
func SetDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("plot", d.Plot)
	v.SetDefault("plot_dir", d.PlotDir)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("tracker", d.Tracker)

	v.SetDefault("envelope.mel_bands", d.Envelope.MelBands)
	v.SetDefault("envelope.cutoff_hz", d.Envelope.CutoffHz)
	v.SetDefault("envelope.smoothing_sec", d.Envelope.SmoothingSec)

	v.SetDefault("tempo.sigma", d.Tempo.Sigma)
	v.SetDefault("tempo.search_sec", d.Tempo.SearchSec)

	v.SetDefault("dp.alpha", d.DP.Alpha)
	v.SetDefault("dp.lookback", d.DP.Lookback)

	v.SetDefault("heuristic.window", d.Heuristic.Window)

	v.SetDefault("bias.file", d.Bias.File)
	v.SetDefault("bias.annotations", d.Bias.Annotations)
	v.SetDefault("bias.fallback_bpm", d.Bias.FallbackBPM)

	v.SetDefault("eval.window", d.Eval.Window)
	v.SetDefault("eval.annotations", d.Eval.Annotations)
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	env := onset.DefaultConfig()
	tmp := tempo.DefaultConfig()
	trk := tracker.DefaultConfig()

	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		OutputFormat: OutputJSON,
		PlotDir:      "out",
		Workers:      runtime.NumCPU(),
		Tracker:      tracker.KindHeuristic,
		Envelope: EnvelopeConfig{
			MelBands:     env.MelBands,
			CutoffHz:     env.CutoffHz,
			SmoothingSec: env.SmoothingSec,
		},
		Tempo: TempoConfig{
			Sigma:     tmp.Sigma,
			SearchSec: tmp.SearchSec,
		},
		DP: DPConfig{
			Alpha:    trk.Alpha,
			Lookback: trk.Lookback,
		},
		Heuristic: HeuristicConfig{
			Window: trk.Window,
		},
		Bias: BiasConfig{
			File:        tempo.DefaultBiasFile,
			FallbackBPM: DefaultFallbackBPM,
		},
		Eval: EvalConfig{
			Window: evaluate.DefaultWindow,
		},
	}
}
