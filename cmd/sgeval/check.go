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
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

var errAdjoint = errors.New("adjoint identity violated")

func newCheckCmd(a *app) *cobra.Command {
	var tol float64
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify <Evaluate(a), w> == <a, EvaluateTranspose(w)> on random vectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			w := randomVector(rng, ds.Rows())

			fwd, err := k.Evaluate(ds, alpha)
			if err != nil {
				return err
			}
			adj, err := k.EvaluateTranspose(ds, w)
			if err != nil {
				return err
			}
			lhs, rhs := floats.Dot(fwd, w), floats.Dot(adj, alpha)
			rel := math.Abs(lhs-rhs) / math.Max(1, math.Abs(lhs))
			fmt.Fprintf(cmd.OutOrStdout(), "<Ba, w> = %.17g\n<a, Bᵀw> = %.17g\nrelative difference %.3g\n", lhs, rhs, rel)
			if !(rel <= tol) {
				return fmt.Errorf("%w: relative difference %.3g > %.3g", errAdjoint, rel, tol)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&tol, "tol", 1e-10, "largest accepted relative difference")
	return cmd
}
