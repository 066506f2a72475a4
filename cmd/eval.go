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

	"github.com/spf13/cobra"

	"github.com/goccmack/beatsearch/pkg/annotation"
	"github.com/goccmack/beatsearch/pkg/evaluate"
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval [flags] <WAV file>...",
	Short: "Track WAV files and score them against annotations",
	Long: `Track the beats of WAV files and score them against their annotations.

The annotation of song.wav is song.beats, next to the audio or in
--annotations. Each line holds a beat time in seconds and the position of
the beat in the bar, 1 being the downbeat. The record written for each
input includes the precision, recall and F-measure of beats and downbeats.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	addTrackerFlags(evalCmd)
	addBiasFlags(evalCmd)
	evalCmd.Flags().String("annotations", "", "directory of the .beats files (default is next to the input)")
	evalCmd.Flags().Float64("window", evaluate.DefaultWindow, "tolerance in seconds either side of an annotated beat")
	evalCmd.Flags().String("out-dir", "", "directory of the result records (default is next to the input)")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, logger, a, err := setup()
	if err != nil {
		return err
	}

	ans, err := a.AnalyzeFiles(cmd.Context(), args)
	if err != nil {
		return err
	}

	for _, an := range ans {
		r, err := a.Evaluate(an, annotation.PathFor(an.FileName, cfg.Eval.Annotations))
		if err != nil {
			return err
		}
		rec := an.Record()
		rec.Evaluation = r
		if err := writeAnalysis(cfg, a, an, rec, logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: beats F %.3f (P %.3f R %.3f), downbeats F %.3f\n",
			an.FileName, r.Beats.FMeasure, r.Beats.Precision, r.Beats.Recall, r.Downbeats.FMeasure)
	}
	return nil
}
