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

// Package basis defines one-dimensional hierarchical basis functions.
//
// Kernels only need Evaluator. A basis that can also evaluate a batch of
// lanes at once implements LaneEvaluator, and kernels use it when present.
package basis

import "github.com/sgkernel/go-subspace/hwy"

// Evaluator evaluates a 1-D basis function of the given level and index at
// coordinate x. Coordinates outside [0, 1] are passed through unchecked.
type Evaluator interface {
	Value(level, index uint32, x float64) float64
}

// LaneEvaluator evaluates one basis level for a batch of lanes, each lane
// carrying its own index and coordinate.
type LaneEvaluator interface {
	Evaluator
	Lanes(level uint32, index, x hwy.Vec[float64]) hwy.Vec[float64]
}

// Func adapts a plain function to Evaluator.
type Func func(level, index uint32, x float64) float64

// Value calls f.
func (f Func) Value(level, index uint32, x float64) float64 {
	return f(level, index, x)
}
