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
	"fmt"

	"github.com/spf13/viper"

	"github.com/goccmack/beatsearch/pkg/onset"
	"github.com/goccmack/beatsearch/pkg/tempo"
	"github.com/goccmack/beatsearch/pkg/tracker"
)

// Output formats
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config represents the application configuration
type Config struct {
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	OutputFormat string `mapstructure:"output_format"`
	// OutputDir receives result records. Empty means next to the input.
	OutputDir string `mapstructure:"output_dir"`
	// Plot enables the plot data files
	Plot    bool   `mapstructure:"plot"`
	PlotDir string `mapstructure:"plot_dir"`
	Workers int    `mapstructure:"workers"`
	Tracker string `mapstructure:"tracker"`

	Envelope  EnvelopeConfig  `mapstructure:"envelope"`
	Tempo     TempoConfig     `mapstructure:"tempo"`
	DP        DPConfig        `mapstructure:"dp"`
	Heuristic HeuristicConfig `mapstructure:"heuristic"`
	Bias      BiasConfig      `mapstructure:"bias"`
	Eval      EvalConfig      `mapstructure:"eval"`
}

// EnvelopeConfig contains onset envelope settings
type EnvelopeConfig struct {
	MelBands     int     `mapstructure:"mel_bands"`
	CutoffHz     float64 `mapstructure:"cutoff_hz"`
	SmoothingSec float64 `mapstructure:"smoothing_sec"`
}

// TempoConfig contains tempo estimation settings
type TempoConfig struct {
	Sigma     float64 `mapstructure:"sigma"`
	SearchSec float64 `mapstructure:"search_sec"`
}

// DPConfig contains dynamic programming tracker settings
type DPConfig struct {
	Alpha    float64 `mapstructure:"alpha"`
	Lookback int     `mapstructure:"lookback"`
}

// HeuristicConfig contains state space tracker settings
type HeuristicConfig struct {
	Window int `mapstructure:"window"`
}

// BiasConfig locates the tempo period bias
type BiasConfig struct {
	// File is the persisted bias
	File string `mapstructure:"file"`
	// Annotations is the directory of .beats files the bias is computed
	// from when File does not exist
	Annotations string `mapstructure:"annotations"`
	// FallbackBPM is used when neither File nor Annotations is available
	FallbackBPM float64 `mapstructure:"fallback_bpm"`
}

// EvalConfig contains evaluation settings
type EvalConfig struct {
	// Window is the tolerance in seconds either side of a reference beat
	Window float64 `mapstructure:"window"`
	// Annotations is searched for <name>.beats. Empty means next to the audio.
	Annotations string `mapstructure:"annotations"`
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	config := &Config{}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	switch config.OutputFormat {
	case OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q", config.OutputFormat)
	}

	switch config.Tracker {
	case tracker.KindDP, tracker.KindHeuristic:
	default:
		return fmt.Errorf("unknown tracker %q", config.Tracker)
	}

	if config.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}

	if config.Envelope.MelBands <= 0 {
		return fmt.Errorf("mel bands must be positive")
	}

	if config.Envelope.CutoffHz <= 0 {
		return fmt.Errorf("high-pass cutoff must be positive")
	}

	if config.Tempo.Sigma <= 0 {
		return fmt.Errorf("tempo sigma must be positive")
	}

	if config.Tempo.SearchSec <= 0 {
		return fmt.Errorf("tempo search range must be positive")
	}

	if config.DP.Lookback < 0 {
		return fmt.Errorf("dp lookback cannot be negative")
	}

	if config.Heuristic.Window <= 0 {
		return fmt.Errorf("heuristic window must be positive")
	}

	if config.Bias.FallbackBPM <= 0 {
		return fmt.Errorf("fallback BPM must be positive")
	}

	if config.Eval.Window <= 0 {
		return fmt.Errorf("evaluation window must be positive")
	}

	return nil
}

// OnsetConfig returns the envelope parameters
func (c *Config) OnsetConfig() onset.Config {
	return onset.Config{
		MelBands:     c.Envelope.MelBands,
		CutoffHz:     c.Envelope.CutoffHz,
		SmoothingSec: c.Envelope.SmoothingSec,
	}
}

// TempoConfig returns the tempo estimator parameters
func (c *Config) TempoConfig() tempo.Config {
	return tempo.Config{
		Sigma:     c.Tempo.Sigma,
		SearchSec: c.Tempo.SearchSec,
	}
}

// TrackerConfig returns the tracker parameters
func (c *Config) TrackerConfig() tracker.Config {
	return tracker.Config{
		Alpha:    c.DP.Alpha,
		Lookback: c.DP.Lookback,
		Window:   c.Heuristic.Window,
	}
}
