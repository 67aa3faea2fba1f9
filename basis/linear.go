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

package basis

import (
	"math"

	"github.com/sgkernel/go-subspace/hwy"
)

// Linear is the standard piecewise-linear hat:
//
//	phi(l, i, x) = max(0, 1 - |2^l * x - i|)
//
// It is 1 at the point i*2^-l and falls to 0 at the neighbouring points of
// the same level. Outside [0, 1] the formula is applied as is.
type Linear struct{}

var _ LaneEvaluator = Linear{}

// Value evaluates the hat of level and index at x.
func (Linear) Value(level, index uint32, x float64) float64 {
	h := float64(uint64(1) << level)
	return math.Max(0, 1-math.Abs(h*x-float64(index)))
}

// Lanes evaluates the hat of one level for a batch of indices and coordinates.
func (Linear) Lanes(level uint32, index, x hwy.Vec[float64]) hwy.Vec[float64] {
	n := x.NumLanes()
	h := hwy.SetN(float64(uint64(1)<<level), n)
	one := hwy.SetN(1.0, n)
	dist := hwy.Abs(hwy.Sub(hwy.Mul(x, h), index))
	return hwy.Max(hwy.Sub(one, dist), hwy.ZeroN[float64](n))
}
