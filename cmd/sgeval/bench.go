// Copyright 2025 go-subspace Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBenchCmd(a *app) *cobra.Command {
	var reps int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time Evaluate and EvaluateTranspose on random rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reps < 1 {
				return fmt.Errorf("--reps must be positive, got %d", reps)
			}
			k, store, err := a.kernel()
			if err != nil {
				return err
			}
			defer k.Close()
			printStats(cmd, k.Stats())

			rng := a.rng()
			ds, err := randomDataset(rng, a.settings.Rows, a.settings.Dim)
			if err != nil {
				return err
			}
			alpha := randomVector(rng, store.Size())
			source := randomVector(rng, ds.Rows())

			var fwd, adj time.Duration
			for range reps {
				start := time.Now()
				if _, err := k.Evaluate(ds, alpha); err != nil {
					return err
				}
				fwd += time.Since(start)

				start = time.Now()
				if _, err := k.EvaluateTranspose(ds, source); err != nil {
					return err
				}
				adj += time.Since(start)
			}

			out := cmd.OutOrStdout()
			report := func(name string, total time.Duration) {
				per := total / time.Duration(reps)
				rate := float64(ds.Rows()) / per.Seconds()
				fmt.Fprintf(out, "%-18s %12v/op  %14.0f rows/s\n", name, per, rate)
			}
			report("Evaluate", fwd)
			report("EvaluateTranspose", adj)
			return nil
		},
	}
	cmd.Flags().IntVar(&reps, "reps", 5, "repetitions per direction")
	return cmd
}
