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

// Package regression fits sparse grid coefficients to scattered data.
//
// Fit solves the regularised normal equations
//
//	(BᵀB + λI) α = Bᵀy
//
// with conjugate gradients, where B is the basis matrix of a dataset. B is
// never formed: every product goes through a kernel's Evaluate and
// EvaluateTranspose.
package regression

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/sgkernel/go-subspace/hwy/contrib/vec"
	"github.com/sgkernel/go-subspace/subspace"
)

// ErrInvalidOptions is returned for a non-positive tolerance or iteration
// budget, or a negative λ.
var ErrInvalidOptions = errors.New("regression: invalid options")

// Operator applies a basis matrix and its transpose.
// *subspace.Kernel satisfies it.
type Operator interface {
	Evaluate(ds subspace.Dataset, alpha []float64) ([]float64, error)
	EvaluateTranspose(ds subspace.Dataset, source []float64) ([]float64, error)
	Stats() subspace.Stats
}

type options struct {
	lambda  float64
	tol     float64
	maxIter int
	logger  *slog.Logger
}

// Option configures Fit.
type Option func(*options)

// WithLambda sets the ridge weight λ. Default 0.
func WithLambda(lambda float64) Option { return func(o *options) { o.lambda = lambda } }

// WithTolerance stops when ‖r‖ <= tol·‖Bᵀy‖. Default 1e-10.
func WithTolerance(tol float64) Option { return func(o *options) { o.tol = tol } }

// WithMaxIterations caps the number of CG steps. Default 1000.
func WithMaxIterations(n int) Option { return func(o *options) { o.maxIter = n } }

// WithLogger receives the solver summary at Debug. Default slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Result is the outcome of Fit.
type Result struct {
	Alpha      []float64
	Residuals  []float64 // ‖r‖ after each iteration, starting with ‖Bᵀy‖
	Iterations int
	Converged  bool
}

// Fit computes the coefficients that minimise ‖Bα - y‖² + λ‖α‖² for the
// grid op was prepared with. Not converging within the iteration budget is
// not an error; check Result.Converged.
func Fit(op Operator, ds subspace.Dataset, y []float64, opts ...Option) (*Result, error) {
	o := options{tol: 1e-10, maxIter: 1000}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.tol > 0) || o.maxIter < 1 || !(o.lambda >= 0) {
		return nil, fmt.Errorf("%w: tol=%v maxIter=%d lambda=%v", ErrInvalidOptions, o.tol, o.maxIter, o.lambda)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if len(y) != ds.Rows() {
		return nil, fmt.Errorf("%w: %d targets for %d rows", subspace.ErrDimensionMismatch, len(y), ds.Rows())
	}

	n := op.Stats().Points
	b, err := op.EvaluateTranspose(ds, y)
	if err != nil {
		return nil, fmt.Errorf("right-hand side: %w", err)
	}

	alpha := make([]float64, n)
	r := append([]float64(nil), b...)
	p := append([]float64(nil), b...)
	rs := vec.Dot(r, r)
	bNorm := math.Sqrt(rs)
	res := &Result{Alpha: alpha, Residuals: []float64{bNorm}}
	if bNorm == 0 {
		res.Converged = true
		return res, nil
	}

	ap := make([]float64, n)
	for res.Iterations < o.maxIter {
		if err := normal(op, ds, p, o.lambda, ap); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", res.Iterations, err)
		}
		curv := vec.Dot(p, ap)
		if curv <= 0 {
			// p is in the null space of BᵀB; nothing left to reduce.
			break
		}
		step := rs / curv
		vec.MulConstAddTo(alpha, step, p)
		vec.MulConstAddTo(r, -step, ap)
		res.Iterations++

		next := vec.Dot(r, r)
		res.Residuals = append(res.Residuals, math.Sqrt(next))
		if math.Sqrt(next) <= o.tol*bNorm {
			res.Converged = true
			break
		}
		vec.ScaleTo(p, next/rs, p)
		vec.AddTo(p, r, p)
		rs = next
	}

	o.logger.Debug("conjugate gradient finished",
		"points", n,
		"rows", ds.Rows(),
		"iterations", res.Iterations,
		"residual", res.Residuals[len(res.Residuals)-1],
		"converged", res.Converged)
	return res, nil
}

// normal writes (BᵀB + λI)·p into dst.
func normal(op Operator, ds subspace.Dataset, p []float64, lambda float64, dst []float64) error {
	bp, err := op.Evaluate(ds, p)
	if err != nil {
		return err
	}
	btbp, err := op.EvaluateTranspose(ds, bp)
	if err != nil {
		return err
	}
	vec.ScaleTo(dst, lambda, p)
	vec.AddTo(dst, dst, btbp)
	return nil
}

// MSE is the mean squared error of the fitted surface on ds.
func MSE(op Operator, ds subspace.Dataset, alpha, y []float64) (float64, error) {
	if len(y) != ds.Rows() {
		return 0, fmt.Errorf("%w: %d targets for %d rows", subspace.ErrDimensionMismatch, len(y), ds.Rows())
	}
	if len(y) == 0 {
		return 0, nil
	}
	pred, err := op.Evaluate(ds, alpha)
	if err != nil {
		return 0, err
	}
	d := floats.Distance(pred, y, 2)
	return d * d / float64(len(y)), nil
}
