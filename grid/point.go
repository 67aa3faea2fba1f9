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

// Package grid holds hierarchical grid points on the unit hypercube.
//
// A point at level l and (odd) index i sits at coordinate i * 2^-l in its
// dimension. Levels start at 1, so level 1 holds the single point 0.5.
// The Store interface is what evaluation kernels consume; Storage is a simple
// in-memory implementation used by tools and tests.
package grid

import "errors"

// ErrInvalidPoint is returned when a level/index pair is not a valid
// hierarchical point, or the point does not fit the store's dimension.
var ErrInvalidPoint = errors.New("grid: invalid point")

// ErrDuplicatePoint is returned when a point is added twice.
var ErrDuplicatePoint = errors.New("grid: duplicate point")

// Point is one grid point: a (level, index) pair per dimension plus a flag
// telling whether it has no hierarchical children in any dimension.
type Point struct {
	Level []uint32
	Index []uint32
	Leaf  bool
}

// Coordinate returns the position of p in dimension d.
func (p Point) Coordinate(d int) float64 {
	return float64(p.Index[d]) / float64(uint64(1)<<p.Level[d])
}

// Store is read-only access to an ordered set of grid points.
// Implementations must return the same point for the same ordinal until the
// store is mutated.
type Store interface {
	// Dim returns the number of dimensions.
	Dim() int
	// Size returns the number of points.
	Size() int
	// Point returns the point with ordinal i.
	Point(i int) Point
}

// ValidLevelIndex reports whether (level, index) is a valid 1-D hierarchical
// point: level >= 1, index odd and below 2^level.
func ValidLevelIndex(level, index uint32) bool {
	return level >= 1 && level < 64 && index%2 == 1 && uint64(index) < uint64(1)<<level
}
