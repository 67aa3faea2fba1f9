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

// arena is the scratch state of one worker for one Evaluate or
// EvaluateTranspose call. Slot w (chunk width) is the neutral row used to
// pad lane batches; it always recomputes every dimension.
type arena struct {
	cursor []int
	marker []int
	rowOf  []int
	prod   []float64
	flat   []uint64
	acc    []float64
	weight []float64
	active []int

	// List accumulation, indexed by entry position.
	scratch []float64
	mark    []bool
	touched []int
}

func newArenas(workers, width, dim, lanes, listEntries int) []arena {
	arenas := make([]arena, workers)
	slots := width + 1
	for i := range arenas {
		arenas[i] = arena{
			cursor:  make([]int, slots),
			marker:  make([]int, slots),
			rowOf:   make([]int, slots),
			prod:    make([]float64, slots*dim),
			flat:    make([]uint64, slots*dim),
			acc:     make([]float64, slots),
			weight:  make([]float64, slots),
			active:  make([]int, 0, width+lanes),
			scratch: make([]float64, listEntries),
			mark:    make([]bool, listEntries),
			touched: make([]int, 0, min(listEntries, width)),
		}
	}
	return arenas
}

// start resets the per-row state for a chunk of width rows starting at row.
func (a *arena) start(row, width int) {
	for r := 0; r <= width; r++ {
		a.cursor[r] = 0
		a.marker[r] = 0
		a.acc[r] = 0
		a.weight[r] = 0
		a.rowOf[r] = row + r
	}
	a.rowOf[width] = row
}

// accumulate adds v to the List scratch slot pos.
func (a *arena) accumulate(pos int, v float64) {
	if !a.mark[pos] {
		a.mark[pos] = true
		a.touched = append(a.touched, pos)
	}
	a.scratch[pos] += v
}

// flush moves the List scratch into sp with atomic adds and clears it.
func (a *arena) flush(sp *space) {
	for _, pos := range a.touched {
		sp.entries[pos].add(a.scratch[pos])
		a.scratch[pos] = 0
		a.mark[pos] = false
	}
	a.touched = a.touched[:0]
}
