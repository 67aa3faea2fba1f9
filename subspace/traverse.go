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
	"github.com/sgkernel/go-subspace/basis"
	"github.com/sgkernel/go-subspace/hwy"
)

type pass uint8

const (
	forwardPass pass = iota
	transposePass
)

// chunkJob is everything one traversal pass shares across workers. It is
// read-only during the pass; all mutable state lives in the arenas and, for
// the transpose pass, in the subspace records.
type chunkJob struct {
	cat      *catalogue
	eval     basis.Evaluator
	laneEval basis.LaneEvaluator
	lanes    int
	dim      int
	data     []float64 // padded rows
	rows     int       // rows before padding
	mode     pass
	source   []float64 // transpose weights, one per row
	out      []float64 // forward results, one per row
	trace    *VisitTrace
}

// run traverses the subspaces for rows [start, end).
func (j *chunkJob) run(a *arena, start, end int) {
	n := len(j.cat.spaces)
	width := end - start
	neutral := width

	a.start(start, width)
	if j.mode == transposePass {
		for r := range width {
			if row := start + r; row < j.rows {
				a.weight[r] = j.source[row]
			}
		}
	}

	for s := 0; s < n; {
		next := n
		a.active = a.active[:0]
		for r := range width {
			switch c := a.cursor[r]; {
			case c == s:
				a.active = append(a.active, r)
			case c < next:
				next = c
			}
		}
		for len(a.active)%j.lanes != 0 {
			a.active = append(a.active, neutral)
		}

		j.visit(a, s, neutral)

		for _, r := range a.active {
			if r != neutral && a.cursor[r] < next {
				next = a.cursor[r]
			}
		}
		s = next
	}

	if j.mode == forwardPass {
		for r := range width {
			if row := start + r; row < j.rows {
				j.out[row] = a.acc[r]
			}
		}
	}
}

// visit processes every active row of the chunk against subspace s.
func (j *chunkJob) visit(a *arena, s, neutral int) {
	sp := j.cat.spaces[s]
	locked := j.mode == transposePass && sp.repr == Array
	if locked {
		sp.mu.Lock()
	}
	for b := 0; b < len(a.active); b += j.lanes {
		j.batch(a, sp, s, a.active[b:b+j.lanes], neutral)
	}
	if locked {
		sp.mu.Unlock()
	}
	if j.mode == transposePass && sp.repr == List {
		a.flush(sp)
	}
}

// batch evaluates one lane batch of rows against subspace sp.
func (j *chunkJob) batch(a *arena, sp *space, s int, slots []int, neutral int) {
	dim, lanes := j.dim, len(slots)

	valid := hwy.FirstN[float64](0, lanes)
	first := dim
	for l, slot := range slots {
		if slot != neutral {
			valid = valid.SetBit(l, true)
			first = min(first, a.marker[slot])
		}
	}

	one := hwy.SetN(1.0, lanes)
	zero := hwy.ZeroN[float64](lanes)
	for d := first; d < dim; d++ {
		var xs, prev [hwy.MaxLaneCount]float64
		for l, slot := range slots {
			base := slot*dim + d
			xs[l] = j.data[a.rowOf[slot]*dim+d]
			if d > 0 {
				prev[l] = a.prod[base-1]
			} else {
				prev[l] = 1
			}
		}
		half := sp.hInverse[d] >> 1
		x := hwy.LoadN(xs[:], lanes)

		// Odd index of the level's hat whose support holds x: 2k+1 with
		// k = floor(x * 2^(level-1)) clamped to the level's range.
		k := hwy.Floor(hwy.Mul(x, hwy.SetN(float64(half), lanes)))
		k = hwy.Max(hwy.Min(k, hwy.SetN(float64(half-1), lanes)), zero)
		index := hwy.Add(hwy.Add(k, k), one)

		phi := j.phi(sp.level[d], index, x)
		prod := hwy.Mul(hwy.LoadN(prev[:], lanes), phi)

		for l, slot := range slots {
			if d < a.marker[slot] {
				continue
			}
			base := slot*dim + d
			var digit, prefix uint64
			if kl := k.Lane(l); kl > 0 {
				digit = uint64(kl)
			}
			if d > 0 {
				prefix = a.flat[base-1]
			}
			a.prod[base] = prod.Lane(l)
			a.flat[base] = prefix*half + digit
		}
	}

	var prods, values [hwy.MaxLaneCount]float64
	var pos [hwy.MaxLaneCount]int
	found := valid
	node := sp.node
	for l, slot := range slots {
		if !valid.GetBit(l) {
			continue
		}
		last := slot*dim + dim - 1
		prods[l] = a.prod[last]
		p := sp.find(a.flat[last])
		pos[l] = p

		if j.trace != nil && a.rowOf[slot] < j.rows {
			j.trace.record(a.rowOf[slot], s)
		}

		leaf := true
		if p < 0 {
			found = found.SetBit(l, false)
		} else {
			values[l], leaf = sp.record(p)
		}
		if leaf {
			a.cursor[slot], a.marker[slot] = node.JumpTarget, node.JumpDiff
		} else {
			a.cursor[slot], a.marker[slot] = s+1, node.NextDiff
		}
	}
	if !found.AnyTrue() {
		return
	}

	prod := hwy.LoadN(prods[:], lanes)
	if j.mode == forwardPass {
		contrib := hwy.IfThenElseZero(found, hwy.Mul(prod, hwy.LoadN(values[:], lanes)))
		for l, slot := range slots {
			if found.GetBit(l) {
				a.acc[slot] += contrib.Lane(l)
			}
		}
		return
	}

	var weights [hwy.MaxLaneCount]float64
	for l, slot := range slots {
		weights[l] = a.weight[slot]
	}
	contrib := hwy.IfThenElseZero(found, hwy.Mul(prod, hwy.LoadN(weights[:], lanes)))
	for l := range slots {
		if !found.GetBit(l) {
			continue
		}
		if sp.repr == Array {
			sp.cells[pos[l]].value += contrib.Lane(l)
		} else {
			a.accumulate(pos[l], contrib.Lane(l))
		}
	}
}

// phi evaluates the basis of one level for a lane batch.
func (j *chunkJob) phi(level uint32, index, x hwy.Vec[float64]) hwy.Vec[float64] {
	if j.laneEval != nil {
		return j.laneEval.Lanes(level, index, x)
	}
	out := hwy.ZeroN[float64](x.NumLanes())
	for l := range x.NumLanes() {
		out = out.WithLane(l, j.eval.Value(level, uint32(index.Lane(l)), x.Lane(l)))
	}
	return out
}
