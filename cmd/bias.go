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
)

// biasCmd represents the bias command
var biasCmd = &cobra.Command{
	Use:   "bias",
	Short: "Show the tempo bias",
	Long: `Show the tempo bias used by the tempo estimator.

The bias is read from the bias file. When the file does not exist it is
computed as the mean tempo of the .beats files under --bias-annotations and
written to the bias file. Without annotations the fallback tempo is used.`,
	Args: cobra.NoArgs,
	RunE: runBias,
}

func init() {
	rootCmd.AddCommand(biasCmd)

	addBiasFlags(biasCmd)
	biasCmd.Flags().Float64("fallback-bpm", 0, "tempo bias when there is neither a bias file nor annotations")
}

func runBias(cmd *cobra.Command, args []string) error {
	_, _, a, err := setup()
	if err != nil {
		return err
	}

	b, err := a.Bias()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "bias: %g BPM, %g frames\n", b.BPM, b.Period())
	if f := a.BiasFile(); f != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "file: %s\n", f)
	}
	return nil
}
