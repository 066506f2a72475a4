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
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goccmack/beatsearch/internal/output"
)

// tempoCmd represents the tempo command
var tempoCmd = &cobra.Command{
	Use:   "tempo [flags] <WAV file>...",
	Short: "Estimate the tempo of WAV files",
	Long: `Estimate the tempo of one or more WAV files without tracking beats.

The estimates are printed to stdout in the output format.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTempo,
}

func init() {
	rootCmd.AddCommand(tempoCmd)

	addBiasFlags(tempoCmd)
}

func runTempo(cmd *cobra.Command, args []string) error {
	cfg, _, a, err := setup()
	if err != nil {
		return err
	}

	recs := make([]*output.TempoRecord, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.Workers)
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			r, err := a.EstimateTempo(ctx, path)
			if err != nil {
				return err
			}
			recs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	buf, err := output.Encode(recs, cfg.OutputFormat)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(buf, '\n'))
	return err
}
