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

package grid

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// Storage is an in-memory Store. Points keep their insertion order.
type Storage struct {
	dim    int
	points []Point
	lookup map[string]int
}

var _ Store = (*Storage)(nil)

// NewStorage creates an empty store for dim dimensions.
func NewStorage(dim int) *Storage {
	return &Storage{dim: dim, lookup: make(map[string]int)}
}

// Dim returns the number of dimensions.
func (s *Storage) Dim() int { return s.dim }

// Size returns the number of points.
func (s *Storage) Size() int { return len(s.points) }

// Point returns the point with ordinal i.
func (s *Storage) Point(i int) Point { return s.points[i] }

// Add appends a point and returns its ordinal. The leaf flag of the new point
// is left false; call UpdateLeaves once all points are in.
func (s *Storage) Add(level, index []uint32) (int, error) {
	if len(level) != s.dim || len(index) != s.dim {
		return 0, fmt.Errorf("%w: got %d levels and %d indices for %d dimensions",
			ErrInvalidPoint, len(level), len(index), s.dim)
	}
	for d := range level {
		if !ValidLevelIndex(level[d], index[d]) {
			return 0, fmt.Errorf("%w: dimension %d has level %d index %d",
				ErrInvalidPoint, d, level[d], index[d])
		}
	}
	k := key(level, index)
	if _, ok := s.lookup[k]; ok {
		return 0, fmt.Errorf("%w: level %v index %v", ErrDuplicatePoint, level, index)
	}
	s.points = append(s.points, Point{
		Level: slices.Clone(level),
		Index: slices.Clone(index),
	})
	s.lookup[k] = len(s.points) - 1
	return len(s.points) - 1, nil
}

// Find returns the ordinal of the point with the given level and index.
func (s *Storage) Find(level, index []uint32) (int, bool) {
	i, ok := s.lookup[key(level, index)]
	return i, ok
}

// SetLeaf overrides the leaf flag of point i.
func (s *Storage) SetLeaf(i int, leaf bool) {
	s.points[i].Leaf = leaf
}

// UpdateLeaves recomputes every leaf flag: a point is a leaf when none of its
// hierarchical children (level+1, 2*index±1) exists in any dimension.
func (s *Storage) UpdateLeaves() {
	level := make([]uint32, s.dim)
	index := make([]uint32, s.dim)
	for i := range s.points {
		p := &s.points[i]
		leaf := true
		for d := 0; d < s.dim && leaf; d++ {
			copy(level, p.Level)
			copy(index, p.Index)
			level[d]++
			for _, child := range [2]uint32{2*p.Index[d] - 1, 2*p.Index[d] + 1} {
				index[d] = child
				if _, ok := s.lookup[key(level, index)]; ok {
					leaf = false
					break
				}
			}
		}
		p.Leaf = leaf
	}
}

func key(level, index []uint32) string {
	buf := make([]byte, 0, 8*len(level))
	for d := range level {
		buf = binary.LittleEndian.AppendUint32(buf, level[d])
		buf = binary.LittleEndian.AppendUint32(buf, index[d])
	}
	return string(buf)
}
