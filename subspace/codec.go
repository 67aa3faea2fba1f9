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

package subspace

import (
	"fmt"
	"math/bits"
	"slices"
)

// FlattenLevel encodes a level vector as a mixed-radix number with base
// maxLevel+1, dimension 0 most significant. Equal level vectors always map
// to the same key.
func FlattenLevel(level []uint32, maxLevel uint32) (uint64, error) {
	base := uint64(maxLevel) + 1
	var key uint64
	for d, l := range level {
		if l > maxLevel {
			return 0, fmt.Errorf("%w: level %d in dimension %d exceeds max level %d",
				ErrInvalidIndex, l, d, maxLevel)
		}
		hi, lo := bits.Mul64(key, base)
		sum, carry := bits.Add64(lo, uint64(l), 0)
		if hi != 0 || carry != 0 {
			return 0, &CapacityError{Level: slices.Clone(level), Reason: "level key overflows 64 bits"}
		}
		key = sum
	}
	return key, nil
}

// Capacity returns the number of points a subspace with this level vector
// can hold: the product of 2^(level-1) over all dimensions.
func Capacity(level []uint32) (uint64, error) {
	var shift uint32
	for d, l := range level {
		if l < 1 || l >= 64 {
			return 0, fmt.Errorf("%w: level %d in dimension %d", ErrInvalidIndex, l, d)
		}
		shift += l - 1
	}
	if shift >= 64 {
		return 0, &CapacityError{Level: slices.Clone(level), Reason: "capacity overflows 64 bits"}
	}
	return uint64(1) << shift, nil
}

// FlattenIndex encodes the index vector of a point in the subspace with the
// given level vector. Each dimension contributes the digit index>>1 with base
// 2^level>>1, dimension 0 most significant. The result is the ordinal of the
// point's record within the subspace, in [0, Capacity(level)).
func FlattenIndex(level, index []uint32) (uint64, error) {
	if len(level) != len(index) {
		return 0, fmt.Errorf("%w: %d levels but %d indices", ErrInvalidIndex, len(level), len(index))
	}
	var flat uint64
	for d := range level {
		l, i := level[d], index[d]
		if l < 1 || l >= 64 || i%2 == 0 || uint64(i) >= uint64(1)<<l {
			return 0, fmt.Errorf("%w: level %d index %d in dimension %d", ErrInvalidIndex, l, i, d)
		}
		hi, lo := bits.Mul64(flat, uint64(1)<<(l-1))
		sum, carry := bits.Add64(lo, uint64(i>>1), 0)
		if hi != 0 || carry != 0 {
			return 0, &CapacityError{Level: slices.Clone(level), Reason: "flat index overflows 64 bits"}
		}
		flat = sum
	}
	return flat, nil
}

// UnflattenIndex is the inverse of FlattenIndex. It writes the index vector
// into dst, which must have len(level) entries.
func UnflattenIndex(level []uint32, flat uint64, dst []uint32) error {
	if len(dst) != len(level) {
		return fmt.Errorf("%w: %d levels but room for %d indices", ErrInvalidIndex, len(level), len(dst))
	}
	capacity, err := Capacity(level)
	if err != nil {
		return err
	}
	if flat >= capacity {
		return fmt.Errorf("%w: flat index %d outside capacity %d of level %v",
			ErrInvalidIndex, flat, capacity, level)
	}
	for d := len(level) - 1; d >= 0; d-- {
		half := uint64(1) << (level[d] - 1)
		dst[d] = uint32(2*(flat%half) + 1)
		flat /= half
	}
	return nil
}
