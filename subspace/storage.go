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
	"math"
	"sync"
	"sync/atomic"
)

// cell is one record of an Array subspace.
type cell struct {
	value   float64
	leaf    bool
	present bool
}

// listEntry is one record of a List subspace. The value is updated with
// atomic adds so concurrent chunks never need the subspace lock.
type listEntry struct {
	flat uint64
	bits atomic.Uint64
	leaf bool
}

func (e *listEntry) load() float64 {
	return math.Float64frombits(e.bits.Load())
}

func (e *listEntry) store(v float64) {
	e.bits.Store(math.Float64bits(v))
}

func (e *listEntry) add(delta float64) {
	for {
		old := e.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if e.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// pointRef maps a grid point ordinal to its record: the flat index for Array
// subspaces, the entry position for List subspaces.
type pointRef struct {
	ordinal int
	slot    int
}

// space is one subspace: every grid point with the same level vector.
type space struct {
	level    []uint32
	hInverse []uint64
	key      uint64
	capacity uint64
	repr     Representation

	cells   []cell
	entries []listEntry
	points  []pointRef

	// mu guards cells while a chunk accumulates into them.
	mu sync.Mutex

	node Node
}

// find returns the slot holding flat, or -1 when no point exists there.
func (s *space) find(flat uint64) int {
	if s.repr == Array {
		if flat < uint64(len(s.cells)) && s.cells[flat].present {
			return int(flat)
		}
		return -1
	}
	lo, hi := 0, len(s.entries)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if s.entries[mid].flat < flat {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.entries) && s.entries[lo].flat == flat {
		return lo
	}
	return -1
}

// record returns the value and leaf flag at a slot returned by find.
func (s *space) record(slot int) (float64, bool) {
	if s.repr == Array {
		c := &s.cells[slot]
		return c.value, c.leaf
	}
	e := &s.entries[slot]
	return e.load(), e.leaf
}

func (s *space) setValue(slot int, v float64) {
	if s.repr == Array {
		s.cells[slot].value = v
		return
	}
	s.entries[slot].store(v)
}

func (s *space) value(slot int) float64 {
	if s.repr == Array {
		return s.cells[slot].value
	}
	return s.entries[slot].load()
}

// load copies alpha into the subspace records of its points.
func (s *space) load(alpha []float64) {
	for _, p := range s.points {
		s.setValue(p.slot, alpha[p.ordinal])
	}
}

// drain copies the subspace records back into dst by point ordinal.
func (s *space) drain(dst []float64) {
	for _, p := range s.points {
		dst[p.ordinal] = s.value(p.slot)
	}
}

// reset zeroes every value, keeping the structure flags.
func (s *space) reset() {
	if s.repr == Array {
		for i := range s.cells {
			s.cells[i].value = 0
		}
		return
	}
	for i := range s.entries {
		s.entries[i].store(0)
	}
}
