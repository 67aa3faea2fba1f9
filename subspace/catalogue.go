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
	"unsafe"

	"github.com/sgkernel/go-subspace/grid"
)

const cellBytes = uint64(unsafe.Sizeof(cell{}))

// catalogue is the prepared, immutable structure of a grid: its subspaces in
// lexicographic level order, their layouts and traversal links.
type catalogue struct {
	dim            int
	maxLevel       uint32
	spaces         []*space
	byKey          map[uint64]int
	locs           []pointLoc
	maxCapacity    uint64
	maxListEntries int
}

// pointLoc is where the point with a given store ordinal lives.
type pointLoc struct {
	space int
	slot  int
}

type stagedPoint struct {
	ordinal int
	flat    uint64
	leaf    bool
}

// buildCatalogue groups the points of store into subspaces. It does not touch
// any existing catalogue, so a failure leaves the caller's state as it was.
func buildCatalogue(store grid.Store, cfg Config) (*catalogue, error) {
	dim, n := store.Dim(), store.Size()

	var maxLevel uint32
	for i := range n {
		p := store.Point(i)
		if len(p.Level) != dim || len(p.Index) != dim {
			return nil, fmt.Errorf("%w: point %d has %d levels and %d indices, grid has %d dimensions",
				ErrDimensionMismatch, i, len(p.Level), len(p.Index), dim)
		}
		for _, l := range p.Level {
			maxLevel = max(maxLevel, l)
		}
	}

	c := &catalogue{
		dim:      dim,
		maxLevel: maxLevel,
		byKey:    make(map[uint64]int),
		locs:     make([]pointLoc, n),
	}
	staged := make(map[*space][]stagedPoint)
	for i := range n {
		p := store.Point(i)
		key, err := FlattenLevel(p.Level, maxLevel)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		idx, ok := c.byKey[key]
		if !ok {
			sp, err := newSpace(p.Level, key)
			if err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			idx = len(c.spaces)
			c.spaces = append(c.spaces, sp)
			c.byKey[key] = idx
			c.maxCapacity = max(c.maxCapacity, sp.capacity)
		}
		sp := c.spaces[idx]
		flat, err := FlattenIndex(p.Level, p.Index)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		staged[sp] = append(staged[sp], stagedPoint{ordinal: i, flat: flat, leaf: p.Leaf})
	}

	slices.SortStableFunc(c.spaces, func(a, b *space) int {
		return slices.Compare(a.level, b.level)
	})

	// Check every budget before allocating anything.
	t := cfg.thresholds()
	for _, sp := range c.spaces {
		sp.repr = ChooseRepresentation(uint64(len(staged[sp])), sp.capacity, t)
		if sp.repr != Array {
			continue
		}
		hi, size := bits.Mul64(sp.capacity, cellBytes)
		if hi != 0 || size > uint64(cfg.MaxSubspaceBytes) {
			return nil, &CapacityError{Level: slices.Clone(sp.level), Bytes: size, Limit: cfg.MaxSubspaceBytes}
		}
	}

	for si, sp := range c.spaces {
		c.byKey[sp.key] = si
		if err := sp.fill(staged[sp]); err != nil {
			return nil, err
		}
		for _, p := range sp.points {
			c.locs[p.ordinal] = pointLoc{space: si, slot: p.slot}
		}
		if sp.repr == List {
			c.maxListEntries = max(c.maxListEntries, len(sp.entries))
		}
	}

	linkSpaces(c.spaces)
	return c, nil
}

func newSpace(level []uint32, key uint64) (*space, error) {
	capacity, err := Capacity(level)
	if err != nil {
		return nil, err
	}
	sp := &space{
		level:    slices.Clone(level),
		hInverse: make([]uint64, len(level)),
		key:      key,
		capacity: capacity,
	}
	for d, l := range level {
		sp.hInverse[d] = uint64(1) << l
	}
	return sp, nil
}

// fill allocates the storage chosen by buildCatalogue and registers points.
func (sp *space) fill(points []stagedPoint) error {
	sp.points = make([]pointRef, 0, len(points))
	if sp.repr == Array {
		sp.cells = make([]cell, sp.capacity)
		for _, p := range points {
			c := &sp.cells[p.flat]
			if c.present {
				return fmt.Errorf("%w: point %d duplicates level %v flat index %d",
					ErrInconsistentGrid, p.ordinal, sp.level, p.flat)
			}
			*c = cell{leaf: p.leaf, present: true}
			sp.points = append(sp.points, pointRef{ordinal: p.ordinal, slot: int(p.flat)})
		}
		return nil
	}

	sorted := slices.Clone(points)
	slices.SortFunc(sorted, func(a, b stagedPoint) int {
		switch {
		case a.flat < b.flat:
			return -1
		case a.flat > b.flat:
			return 1
		}
		return 0
	})
	sp.entries = make([]listEntry, len(sorted))
	for i, p := range sorted {
		if i > 0 && sorted[i-1].flat == p.flat {
			return fmt.Errorf("%w: point %d duplicates level %v flat index %d",
				ErrInconsistentGrid, p.ordinal, sp.level, p.flat)
		}
		sp.entries[i].flat = p.flat
		sp.entries[i].leaf = p.leaf
		sp.points = append(sp.points, pointRef{ordinal: p.ordinal, slot: i})
	}
	return nil
}

// locate returns the subspace and slot of the point (level, index).
func (c *catalogue) locate(level, index []uint32) (int, int, error) {
	key, err := FlattenLevel(level, c.maxLevel)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInconsistentGrid, err)
	}
	si, ok := c.byKey[key]
	if !ok || !slices.Equal(c.spaces[si].level, level) {
		return 0, 0, fmt.Errorf("%w: no subspace registered for level %v", ErrInconsistentGrid, level)
	}
	flat, err := FlattenIndex(level, index)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInconsistentGrid, err)
	}
	slot := c.spaces[si].find(flat)
	if slot < 0 {
		return 0, 0, fmt.Errorf("%w: level %v has no point at flat index %d", ErrInconsistentGrid, level, flat)
	}
	return si, slot, nil
}

// verify checks that store still holds exactly the points c was built from.
func (c *catalogue) verify(store grid.Store) error {
	if store.Dim() != c.dim || store.Size() != len(c.locs) {
		return fmt.Errorf("%w: store has %d points in %d dimensions, prepared %d in %d",
			ErrInconsistentGrid, store.Size(), store.Dim(), len(c.locs), c.dim)
	}
	for i := range c.locs {
		p := store.Point(i)
		if len(p.Level) != c.dim || len(p.Index) != c.dim {
			return fmt.Errorf("%w: point %d changed dimension", ErrInconsistentGrid, i)
		}
		si, slot, err := c.locate(p.Level, p.Index)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		if (pointLoc{space: si, slot: slot}) != c.locs[i] {
			return fmt.Errorf("%w: point %d moved since Prepare", ErrInconsistentGrid, i)
		}
	}
	return nil
}

// Stats summarises a prepared catalogue.
type Stats struct {
	Dim            int
	Points         int
	Subspaces      int
	ArraySubspaces int
	ListSubspaces  int
	MaxLevel       uint32
	MaxCapacity    uint64
	ArrayBytes     uint64
}

func (c *catalogue) stats() Stats {
	s := Stats{
		Dim:         c.dim,
		Points:      len(c.locs),
		Subspaces:   len(c.spaces),
		MaxLevel:    c.maxLevel,
		MaxCapacity: c.maxCapacity,
	}
	for _, sp := range c.spaces {
		if sp.repr == Array {
			s.ArraySubspaces++
			s.ArrayBytes += sp.capacity * cellBytes
		} else {
			s.ListSubspaces++
		}
	}
	return s
}

// Info is a read-only view of one prepared subspace.
type Info struct {
	Level          []uint32
	Existing       int
	Capacity       uint64
	Representation Representation
	Node
}

func (c *catalogue) infos() []Info {
	out := make([]Info, len(c.spaces))
	for i, sp := range c.spaces {
		out[i] = Info{
			Level:          slices.Clone(sp.level),
			Existing:       len(sp.points),
			Capacity:       sp.capacity,
			Representation: sp.repr,
			Node:           sp.node,
		}
	}
	return out
}
