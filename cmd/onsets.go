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

	"github.com/goccmack/beatsearch/internal/output"
)

// DefaultPeakSepMs is the default minimum onset separation
const DefaultPeakSepMs = 250

var onsetSepMs int

// onsetsCmd represents the onsets command
var onsetsCmd = &cobra.Command{
	Use:   "onsets [flags] <WAV file>",
	Short: "List the onsets of a WAV file",
	Long: `List the peaks of the onset strength envelope of a WAV file that are at
least --sep milliseconds apart.

The record is written to <name>.onsets.json (or .yaml) next to the input, or
in --out-dir.`,
	Args: cobra.ExactArgs(1),
	RunE: runOnsets,
}

func init() {
	rootCmd.AddCommand(onsetsCmd)

	onsetsCmd.Flags().IntVar(&onsetSepMs, "sep", DefaultPeakSepMs, "minimum number of milliseconds between adjacent onsets")
	onsetsCmd.Flags().String("out-dir", "", "directory of the onset record (default is next to the input)")
}

func runOnsets(cmd *cobra.Command, args []string) error {
	cfg, logger, a, err := setup()
	if err != nil {
		return err
	}

	or, err := a.Onsets(cmd.Context(), args[0], onsetSepMs)
	if err != nil {
		return err
	}

	fname := output.OnsetsFileName(args[0], cfg.OutputDir, cfg.OutputFormat)
	if err := output.Write(or, fname, cfg.OutputFormat); err != nil {
		return err
	}
	logger.WithField("file", fname).Debug("Onset record written")
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d onsets\n", args[0], len(or.Peaks))
	return nil
}
