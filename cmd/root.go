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

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goccmack/beatsearch/configs"
	"github.com/goccmack/beatsearch/internal/logging"
	"github.com/goccmack/beatsearch/internal/pipeline"
)

const (
	appName   = "beatsearch"
	envPrefix = "BEATSEARCH"
)

var configFile string

// flagKeys maps flag names to configuration keys where the two differ
var flagKeys = map[string]string{
	"output":           "output_format",
	"out-dir":          "output_dir",
	"bias-file":        "bias.file",
	"bias-annotations": "bias.annotations",
	"fallback-bpm":     "bias.fallback_bpm",
	"annotations":      "eval.annotations",
	"window":           "eval.window",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Beat tracker for WAV files",
	Long: `beatsearch estimates the tempo of music in WAV files and tracks its beats.

The audio is reduced to an onset strength envelope at 250 frames/s. The tempo
is the autocorrelation period that best matches a bias tempo, and the beats
are found either by dynamic programming or by a state space tracker that also
labels the position of each beat in the bar.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, viper.GetViper())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/beatsearch/beatsearch.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text",
		"log format (text, json)")
	rootCmd.PersistentFlags().StringP("output", "o", configs.OutputJSON,
		"output format (json, yaml)")
	rootCmd.PersistentFlags().IntP("workers", "j", 0,
		"number of files analysed concurrently (default is the number of CPUs)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", appName))
		}
		viper.AddConfigPath(filepath.Join("/etc", appName))
		viper.AddConfigPath("./configs")
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configs.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if configFile != "" {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// bindFlags binds each flag of cmd to its configuration key so that a flag
// set on the command line overrides the config file and environment
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" {
			return
		}
		if err := v.BindPFlag(flagKey(f.Name), f); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// setup loads the configuration and returns it with the process logger and
// an analyzer on the OS filesystem
func setup() (*configs.Config, *logrus.Logger, *pipeline.Analyzer, error) {
	cfg, err := configs.Load(viper.GetViper())
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := pipeline.New(cfg, afero.NewOsFs(), logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, a, nil
}
