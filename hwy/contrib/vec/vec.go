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


// Package vec provides slice algebra on top of the hwy lane operations.
//
// Every function processes full vectors of hwy.MaxLanes lanes and finishes
// the tail with scalar code. Slices of different lengths are processed up to
// the shortest one.
package vec

import "github.com/sgkernel/go-subspace/hwy"

// Dot computes the dot product Σ a[i]*b[i].
// Returns 0 if either slice is empty.
//
// Example:
//
//	a := []float64{1, 2, 3}
//	b := []float64{4, 5, 6}
//	result := Dot(a, b) // 1*4 + 2*5 + 3*6 = 32
func Dot[T hwy.Floats](a, b []T) T {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	n := min(len(a), len(b))
	sum := hwy.Zero[T]()
	lanes := sum.NumLanes()

	// Process full vectors
	var i int
	for i = 0; i+lanes <= n; i += lanes {
		va := hwy.Load(a[i:])
		vb := hwy.Load(b[i:])
		sum = hwy.Add(sum, hwy.Mul(va, vb))
	}

	// Reduce vector sum to scalar
	result := hwy.ReduceSum(sum)

	// Handle tail elements with scalar code
	for ; i < n; i++ {
		result += a[i] * b[i]
	}
	return result
}

// AddTo performs element-wise addition into dst: dst[i] = a[i] + b[i].
// dst may alias a or b.
func AddTo[T hwy.Floats](dst, a, b []T) {
	n := min(len(dst), len(a), len(b))
	lanes := hwy.MaxLanes[T]()

	var i int
	for i = 0; i+lanes <= n; i += lanes {
		hwy.Store(hwy.Add(hwy.Load(a[i:]), hwy.Load(b[i:])), dst[i:])
	}
	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}

// ScaleTo multiplies by a constant into dst: dst[i] = c * s[i].
// dst may alias s.
func ScaleTo[T hwy.Floats](dst []T, c T, s []T) {
	n := min(len(dst), len(s))
	vc := hwy.Set(c)
	lanes := vc.NumLanes()

	var i int
	for i = 0; i+lanes <= n; i += lanes {
		hwy.Store(hwy.Mul(vc, hwy.Load(s[i:])), dst[i:])
	}
	for ; i < n; i++ {
		dst[i] = c * s[i]
	}
}

// MulConstAddTo accumulates a scaled vector: dst[i] += a * x[i].
// This is the AXPY operation of BLAS level 1.
func MulConstAddTo[T hwy.Floats](dst []T, a T, x []T) {
	n := min(len(dst), len(x))
	va := hwy.Set(a)
	lanes := va.NumLanes()

	// MulAdd computes va*vx + vd
	var i int
	for i = 0; i+lanes <= n; i += lanes {
		hwy.Store(hwy.MulAdd(va, hwy.Load(x[i:]), hwy.Load(dst[i:])), dst[i:])
	}
	for ; i < n; i++ {
		dst[i] += a * x[i]
	}
}
