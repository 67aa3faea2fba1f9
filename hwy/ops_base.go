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

package hwy

import "math"

// This file provides the pure Go implementations of all lane operations.
// Every operation works on the active lanes of its operands; binary
// operations take the lane count of their first argument.

func clampLanes(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxLaneCount {
		return MaxLaneCount
	}
	return n
}

// LoadN creates a vector of n lanes by loading data from a slice.
// Lanes beyond len(src) are zero.
func LoadN[T Lanes](src []T, n int) Vec[T] {
	var v Vec[T]
	v.n = clampLanes(n)
	copy(v.data[:v.n], src)
	return v
}

// Load creates a vector of MaxLanes lanes by loading data from a slice.
func Load[T Lanes](src []T) Vec[T] {
	return LoadN(src, MaxLanes[T]())
}

// Store writes a vector's data to a slice.
func Store[T Lanes](v Vec[T], dst []T) {
	n := min(len(dst), v.n)
	copy(dst[:n], v.data[:n])
}

// SetN creates a vector of n lanes with every lane set to value.
func SetN[T Lanes](value T, n int) Vec[T] {
	var v Vec[T]
	v.n = clampLanes(n)
	for i := range v.n {
		v.data[i] = value
	}
	return v
}

// Set creates a vector of MaxLanes lanes with every lane set to value.
func Set[T Lanes](value T) Vec[T] {
	return SetN(value, MaxLanes[T]())
}

// ZeroN creates a vector of n lanes with all lanes set to zero.
func ZeroN[T Lanes](n int) Vec[T] {
	return Vec[T]{n: clampLanes(n)}
}

// Zero creates a vector of MaxLanes lanes with all lanes set to zero.
func Zero[T Lanes]() Vec[T] {
	return ZeroN[T](MaxLanes[T]())
}

// Add performs element-wise addition.
func Add[T Lanes](a, b Vec[T]) Vec[T] {
	for i := range a.n {
		a.data[i] += b.data[i]
	}
	return a
}

// Sub performs element-wise subtraction.
func Sub[T Lanes](a, b Vec[T]) Vec[T] {
	for i := range a.n {
		a.data[i] -= b.data[i]
	}
	return a
}

// Mul performs element-wise multiplication.
func Mul[T Lanes](a, b Vec[T]) Vec[T] {
	for i := range a.n {
		a.data[i] *= b.data[i]
	}
	return a
}

// Abs computes the absolute value of each lane.
func Abs[T Lanes](v Vec[T]) Vec[T] {
	for i := range v.n {
		if v.data[i] < 0 {
			v.data[i] = -v.data[i]
		}
	}
	return v
}

// Min returns the element-wise minimum. NaN lanes in a propagate.
func Min[T Lanes](a, b Vec[T]) Vec[T] {
	for i := range a.n {
		if b.data[i] < a.data[i] {
			a.data[i] = b.data[i]
		}
	}
	return a
}

// Max returns the element-wise maximum. NaN lanes in a propagate.
func Max[T Lanes](a, b Vec[T]) Vec[T] {
	for i := range a.n {
		if b.data[i] > a.data[i] {
			a.data[i] = b.data[i]
		}
	}
	return a
}

// MulAdd computes a*b + c for each lane.
func MulAdd[T Floats](a, b, c Vec[T]) Vec[T] {
	for i := range a.n {
		a.data[i] = a.data[i]*b.data[i] + c.data[i]
	}
	return a
}

// Floor rounds each lane toward negative infinity.
func Floor[T Floats](v Vec[T]) Vec[T] {
	for i := range v.n {
		v.data[i] = T(math.Floor(float64(v.data[i])))
	}
	return v
}

// ReduceSum returns the sum of all active lanes.
func ReduceSum[T Lanes](v Vec[T]) T {
	var sum T
	for i := range v.n {
		sum += v.data[i]
	}
	return sum
}

// FirstN returns a mask of n lanes with the first count lanes active.
func FirstN[T Lanes](count, n int) Mask[T] {
	n = clampLanes(n)
	count = max(0, min(count, n))
	return Mask[T]{bits: (uint32(1) << count) - 1, n: n}
}

// IfThenElseZero selects a where mask is set and zero elsewhere.
func IfThenElseZero[T Lanes](mask Mask[T], a Vec[T]) Vec[T] {
	for i := range a.n {
		if mask.bits&(1<<i) == 0 {
			a.data[i] = 0
		}
	}
	return a
}
