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

// Node holds the traversal links of one subspace. Subspace indices refer to
// the lexicographic order; len(subspaces) is the terminal sentinel.
type Node struct {
	// NextDiff is the first dimension whose partial product must be
	// recomputed when stepping to the next subspace.
	NextDiff int
	// JumpTarget is the next subspace worth visiting when this subspace's
	// point is absent or a leaf.
	JumpTarget int
	// JumpDiff is the first dimension to recompute after the jump.
	JumpDiff int
}

// BuildGraph computes the traversal links for level vectors that are sorted
// lexicographically and pairwise distinct.
//
// Let c(i) be the first dimension where subspace i differs from i-1. Subspace
// i is the first one with its levels in dimensions 0..c(i), so in a grid
// closed under hierarchical ancestors its remaining levels are all 1. Every
// subspace between i and the next j with c(j) < c(i) keeps i's levels before
// c(i), has a level at least as high in c(i) and in every later dimension:
// it only holds descendants of i's point. That j is the jump target. One
// backward pass keeps, per dimension d, the nearest subspace seen so far
// with c < d.
func BuildGraph(levels [][]uint32) []Node {
	n := len(levels)
	nodes := make([]Node, n)
	if n == 0 {
		return nodes
	}
	dim := len(levels[0])

	recompute := func(i int) int {
		if i <= 0 || i >= n {
			return 0
		}
		prev, cur := levels[i-1], levels[i]
		for d := range dim {
			if prev[d] != cur[d] {
				return d
			}
		}
		return 0
	}

	last := make([]int, dim)
	for d := range last {
		last[d] = n
	}
	for i := n - 1; i >= 0; i-- {
		c := recompute(i)
		target := last[c]
		nodes[i] = Node{
			NextDiff:   recompute(i + 1),
			JumpTarget: target,
			JumpDiff:   recompute(target),
		}
		for d := c + 1; d < dim; d++ {
			last[d] = i
		}
	}

	// The first subspace starts from scratch, and when its point is missing
	// nothing else can be reached.
	nodes[0] = Node{NextDiff: 0, JumpDiff: 0, JumpTarget: n}
	return nodes
}

func linkSpaces(spaces []*space) {
	levels := make([][]uint32, len(spaces))
	for i, sp := range spaces {
		levels[i] = sp.level
	}
	for i, node := range BuildGraph(levels) {
		spaces[i].node = node
	}
}
