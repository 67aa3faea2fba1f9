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

import "github.com/bits-and-blooms/bitset"

// VisitTrace records, per dataset row, which subspaces the traversal reached.
// Attach it with Kernel.SetTracer; rows beyond its size are not recorded.
// Each row is written only by the worker that owns its chunk.
type VisitTrace struct {
	rows []bitset.BitSet
}

// NewVisitTrace creates a trace for the first rows dataset rows.
func NewVisitTrace(rows int) *VisitTrace {
	return &VisitTrace{rows: make([]bitset.BitSet, rows)}
}

func (t *VisitTrace) record(row, space int) {
	if row < len(t.rows) {
		t.rows[row].Set(uint(space))
	}
}

// Rows returns the number of rows the trace covers.
func (t *VisitTrace) Rows() int { return len(t.rows) }

// Visited reports whether row reached subspace space.
func (t *VisitTrace) Visited(row, space int) bool {
	return t.rows[row].Test(uint(space))
}

// Count returns the number of subspaces row reached.
func (t *VisitTrace) Count(row int) int {
	return int(t.rows[row].Count())
}

// Subspaces lists the subspaces row reached in ascending order.
func (t *VisitTrace) Subspaces(row int) []int {
	out := make([]int, 0, t.rows[row].Count())
	for i, ok := t.rows[row].NextSet(0); ok; i, ok = t.rows[row].NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// Reset clears all rows.
func (t *VisitTrace) Reset() {
	for i := range t.rows {
		t.rows[i].ClearAll()
	}
}
