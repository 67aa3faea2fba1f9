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
	"math"

	"github.com/spf13/cobra"

	"github.com/sgkernel/go-subspace/regression"
	"github.com/sgkernel/go-subspace/subspace"
)

// target is the synthetic function fit draws samples from.
func target(x []float64) float64 {
	v := 1.0
	for _, xd := range x {
		v *= math.Sin(math.Pi * xd)
	}
	return v
}

func newFitCmd(a *app) *cobra.Command {
	var (
		lambda  float64
		tol     float64
		maxIter int
		noise   float64
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Least-squares fit of a synthetic function with conjugate gradients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _, err := a.kernel()
			if err != nil {
				return err
			}
			defer k.Close()
			printStats(cmd, k.Stats())

			rng := a.rng()
			sample := func(rows int) (subspace.Dataset, []float64, error) {
				ds, err := randomDataset(rng, rows, a.settings.Dim)
				if err != nil {
					return ds, nil, err
				}
				y := make([]float64, rows)
				for r := range y {
					y[r] = target(ds.Row(r)) + noise*rng.NormFloat64()
				}
				return ds, y, nil
			}
			train, y, err := sample(a.settings.Rows)
			if err != nil {
				return err
			}
			test, yTest, err := sample(max(1, a.settings.Rows/4))
			if err != nil {
				return err
			}

			res, err := regression.Fit(k, train, y,
				regression.WithLambda(lambda),
				regression.WithTolerance(tol),
				regression.WithMaxIterations(maxIter),
				regression.WithLogger(a.log))
			if err != nil {
				return err
			}
			trainMSE, err := regression.MSE(k, train, res.Alpha, y)
			if err != nil {
				return err
			}
			testMSE, err := regression.MSE(k, test, res.Alpha, yTest)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "iterations %d, converged %v, residual %.3g\n",
				res.Iterations, res.Converged, res.Residuals[len(res.Residuals)-1])
			fmt.Fprintf(out, "train MSE %.4g, test MSE %.4g\n", trainMSE, testMSE)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lambda, "lambda", 1e-6, "ridge weight")
	f.Float64Var(&tol, "tol", 1e-8, "relative residual tolerance")
	f.IntVar(&maxIter, "max-iter", 500, "iteration budget")
	f.Float64Var(&noise, "noise", 0, "standard deviation of added Gaussian noise")
	return cmd
}
