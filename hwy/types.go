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

// Package hwy provides portable short-vector (lane) operations with a
// runtime-selected lane width.
//
// Vectors are fixed-capacity value types: a Vec never allocates, so kernels
// can batch rows through tight loops without touching the heap. The active
// lane count is chosen per vector (at most MaxLaneCount) which lets callers
// pick the width at runtime instead of at build time. MaxLanes reports the
// width the detected CPU prefers.
//
// Basic usage:
//
//	import "github.com/sgkernel/go-subspace/hwy"
//
//	n := hwy.MaxLanes[float64]()
//	a := hwy.LoadN(xs, n)
//	b := hwy.SetN(2.0, n)
//	hwy.Store(hwy.Mul(a, b), out)
package hwy

// MaxLaneCount is the largest number of lanes a Vec can hold.
const MaxLaneCount = 16

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Lanes is a constraint for all types that can be stored in lanes.
type Lanes interface {
	Floats | Integers
}

// Vec is a portable vector of up to MaxLaneCount lanes.
//
// Vec instances should not be created directly; use LoadN, SetN or ZeroN.
type Vec[T Lanes] struct {
	data [MaxLaneCount]T
	n    int
}

// NumLanes returns the number of active lanes in this vector.
func (v Vec[T]) NumLanes() int {
	return v.n
}

// Lane returns the value of lane i.
func (v Vec[T]) Lane(i int) T {
	return v.data[i]
}

// WithLane returns a copy of v with lane i replaced by x.
func (v Vec[T]) WithLane(i int, x T) Vec[T] {
	v.data[i] = x
	return v
}

// Mask selects lanes. Build one with FirstN and SetBit and apply it with
// IfThenElseZero.
type Mask[T Lanes] struct {
	bits uint32
	n    int
}

// AnyTrue returns true if at least one lane in the mask is active.
func (m Mask[T]) AnyTrue() bool {
	return m.bits != 0
}

// GetBit returns whether lane i is active.
func (m Mask[T]) GetBit(i int) bool {
	if i < 0 || i >= m.n {
		return false
	}
	return m.bits&(1<<i) != 0
}

// SetBit returns a copy of m with lane i set to on.
func (m Mask[T]) SetBit(i int, on bool) Mask[T] {
	if i < 0 || i >= m.n {
		return m
	}
	if on {
		m.bits |= 1 << i
	} else {
		m.bits &^= 1 << i
	}
	return m
}
