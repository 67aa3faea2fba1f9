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

import "fmt"

// Regular builds the regular sparse grid of the given level: every point whose
// level vector satisfies |l|_1 <= level + dim - 1. Leaf flags are set.
func Regular(dim, level int) (*Storage, error) {
	if dim < 1 || level < 1 {
		return nil, fmt.Errorf("%w: regular grid needs dim >= 1 and level >= 1, got %d and %d",
			ErrInvalidPoint, dim, level)
	}
	s := NewStorage(dim)
	levels := make([]uint32, dim)
	var err error
	forEachLevel(levels, 0, level+dim-1, func(l []uint32) {
		if err == nil {
			err = s.addSubspace(l)
		}
	})
	if err != nil {
		return nil, err
	}
	s.UpdateLeaves()
	return s, nil
}

// Full builds the full grid with every level vector bounded by level in each
// dimension. Leaf flags are set.
func Full(dim, level int) (*Storage, error) {
	if dim < 1 || level < 1 {
		return nil, fmt.Errorf("%w: full grid needs dim >= 1 and level >= 1, got %d and %d",
			ErrInvalidPoint, dim, level)
	}
	s := NewStorage(dim)
	levels := make([]uint32, dim)
	var err error
	forEachLevel(levels, 0, level*dim, func(l []uint32) {
		for _, x := range l {
			if int(x) > level {
				return
			}
		}
		if err == nil {
			err = s.addSubspace(l)
		}
	})
	if err != nil {
		return nil, err
	}
	s.UpdateLeaves()
	return s, nil
}

// forEachLevel enumerates level vectors with entries >= 1 and sum <= budget.
func forEachLevel(levels []uint32, d, budget int, fn func([]uint32)) {
	rest := len(levels) - d - 1 // each later dimension needs at least level 1
	for l := 1; l <= budget-rest; l++ {
		levels[d] = uint32(l)
		if d == len(levels)-1 {
			fn(levels)
			continue
		}
		forEachLevel(levels, d+1, budget-l, fn)
	}
}

// addSubspace adds every point of the subspace with level vector l.
func (s *Storage) addSubspace(l []uint32) error {
	index := make([]uint32, len(l))
	for d := range index {
		index[d] = 1
	}
	for {
		if _, err := s.Add(l, index); err != nil {
			return err
		}
		d := 0
		for ; d < len(l); d++ {
			index[d] += 2
			if uint64(index[d]) < uint64(1)<<l[d] {
				break
			}
			index[d] = 1
		}
		if d == len(l) {
			return nil
		}
	}
}
