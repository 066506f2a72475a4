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
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goccmack/beatsearch/configs"
	"github.com/goccmack/beatsearch/internal/output"
	"github.com/goccmack/beatsearch/internal/pipeline"
	"github.com/goccmack/beatsearch/pkg/tracker"
)

// trackCmd represents the track command
var trackCmd = &cobra.Command{
	Use:   "track [flags] <WAV file>...",
	Short: "Track the beats of WAV files",
	Long: `Track the beats of one or more WAV files.

A record is written for every input: <name>.beat.json (or .yaml) next to the
input, or in --out-dir.

Examples:
  # Track with the state space tracker, which also labels downbeats
  beatsearch track song.wav

  # Track several files with the dynamic programming tracker
  beatsearch track --tracker dp --out-dir results *.wav

  # Write the envelope and beat markers for plotting
  beatsearch track --plot --plot-dir out song.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	addTrackerFlags(trackCmd)
	addBiasFlags(trackCmd)
	trackCmd.Flags().String("out-dir", "", "directory of the result records (default is next to the input)")
	trackCmd.Flags().Bool("plot", false, "write plot data files")
	trackCmd.Flags().String("plot-dir", "out", "directory of the plot data files")
}

func addTrackerFlags(cmd *cobra.Command) {
	cmd.Flags().String("tracker", tracker.KindHeuristic,
		fmt.Sprintf("beat tracker (%s, %s)", tracker.KindHeuristic, tracker.KindDP))
}

func addBiasFlags(cmd *cobra.Command) {
	cmd.Flags().String("bias-file", "", "tempo bias file (default is "+configs.GetDefaultConfig().Bias.File+")")
	cmd.Flags().String("bias-annotations", "", "directory of .beats files the tempo bias is computed from")
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, logger, a, err := setup()
	if err != nil {
		return err
	}

	ans, err := a.AnalyzeFiles(cmd.Context(), args)
	if err != nil {
		return err
	}

	for _, an := range ans {
		if err := writeAnalysis(cfg, a, an, an.Record(), logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %.1f BPM, %d beats\n", an.FileName, an.Tempo.BPM(), len(an.Result.Beats))
	}
	return nil
}

// writeAnalysis writes the record rec of an and its plot data when plotting
// is enabled
func writeAnalysis(cfg *configs.Config, a *pipeline.Analyzer, an *pipeline.Analysis, rec *output.Record,
	logger logrus.FieldLogger) error {

	fname := output.FileName(an.FileName, cfg.OutputDir, cfg.OutputFormat)
	if err := output.Write(rec, fname, cfg.OutputFormat); err != nil {
		return err
	}
	logger.WithField("file", fname).Debug("Record written")

	if dir := a.PlotDir(); dir != "" {
		base := strings.TrimSuffix(filepath.Base(an.FileName), filepath.Ext(an.FileName))
		if err := output.WritePlotData(dir, base, an.OSE, an.Result); err != nil {
			return err
		}
		logger.WithField("dir", dir).Debug("Plot data written")
	}
	return nil
}
