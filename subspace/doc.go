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

// Package subspace evaluates sparse grid interpolants at batches of points.
//
// Grid points that share a level vector form a subspace. Inside one subspace
// the hat functions have disjoint supports, so a query coordinate touches at
// most one point per subspace and that point's offset can be computed
// directly from the coordinate. The Kernel groups the points of a grid.Store
// into subspaces, stores each one either as a dense array or as a sorted list
// depending on how full it is, and links the subspaces into a traversal graph
// that lets a row skip every subspace below a missing or leaf point.
//
// Evaluation walks that graph for chunks of rows on a persistent worker pool.
// Each row keeps its per-dimension partial products, so moving to the next
// subspace only recomputes the dimensions where the level vector changed.
// Rows are evaluated in lane batches through package hwy.
//
// Two operators are provided:
//
//	Evaluate:          out[row]   = sum_p alpha[p]    * phi_p(row)
//	EvaluateTranspose: out[point] = sum_r source[r]   * phi_point(r)
//
// They are adjoint: dot(Evaluate(D, a), w) == dot(EvaluateTranspose(D, w), a)
// up to rounding.
//
// The traversal relies on the grid containing every hierarchical ancestor of
// each of its points, which holds for regular and for refined sparse grids.
//
// Basic usage:
//
//	store, _ := grid.Regular(3, 5)
//	k, err := subspace.New(store, basis.Linear{}, subspace.DefaultConfig())
//	if err != nil { ... }
//	defer k.Close()
//	if err := k.Prepare(); err != nil { ... }
//	values, err := k.Evaluate(dataset, alpha)
package subspace
