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
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sgkernel/go-subspace/basis"
	"github.com/sgkernel/go-subspace/grid"
	"github.com/sgkernel/go-subspace/hwy/contrib/workerpool"
)

// Kernel evaluates a sparse grid function and its adjoint at batches of
// points. Calls on one Kernel are serialised; Prepare must be called before
// the first evaluation and again whenever the grid store changes.
type Kernel struct {
	mu       sync.Mutex
	store    grid.Store
	eval     basis.Evaluator
	laneEval basis.LaneEvaluator
	cfg      Config
	log      *slog.Logger
	pool     *workerpool.Pool
	cat      *catalogue
	trace    *VisitTrace
}

// New creates a Kernel over store using the 1-D basis eval. If eval also
// implements basis.LaneEvaluator, lane batches are evaluated through it.
func New(store grid.Store, eval basis.Evaluator, cfg Config) (*Kernel, error) {
	if store == nil || eval == nil {
		return nil, errors.New("subspace: nil store or basis")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store.Dim() < 1 {
		return nil, fmt.Errorf("%w: grid has %d dimensions", ErrDimensionMismatch, store.Dim())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	k := &Kernel{
		store: store,
		eval:  eval,
		cfg:   cfg,
		log:   logger,
		pool:  workerpool.New(cfg.Workers),
	}
	k.laneEval, _ = eval.(basis.LaneEvaluator)
	return k, nil
}

// Close stops the worker pool. The Kernel must not be used afterwards.
func (k *Kernel) Close() {
	k.pool.Close()
}

// Config returns the configuration the Kernel was created with.
func (k *Kernel) Config() Config {
	return k.cfg
}

// Prepare (re)builds the subspace catalogue and traversal graph from the
// grid store. On error the previous catalogue stays in place.
func (k *Kernel) Prepare() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	start := time.Now()
	cat, err := buildCatalogue(k.store, k.cfg)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	k.cat = cat

	st := cat.stats()
	k.log.Debug("prepared subspace catalogue",
		"points", st.Points,
		"subspaces", st.Subspaces,
		"array", st.ArraySubspaces,
		"list", st.ListSubspaces,
		"maxLevel", st.MaxLevel,
		"arrayBytes", st.ArrayBytes,
		"elapsed", time.Since(start))
	for _, sp := range cat.spaces {
		// Lists this long are scanned by binary search on every lookup.
		if sp.repr == List && 2*len(sp.entries) > k.cfg.ListSize {
			k.log.Warn("large list subspace",
				"level", sp.level,
				"entries", len(sp.entries),
				"capacity", sp.capacity)
		}
	}
	return nil
}

// SetTracer attaches a visit trace to subsequent evaluations; nil detaches.
func (k *Kernel) SetTracer(t *VisitTrace) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.trace = t
}

// SetCoefficients loads alpha, indexed by grid point ordinal, into the
// subspace records.
func (k *Kernel) SetCoefficients(alpha []float64) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	cat, err := k.prepared()
	if err != nil {
		return err
	}
	return k.load(cat, alpha)
}

// GetResult copies the subspace records into dst, indexed by grid point
// ordinal.
func (k *Kernel) GetResult(dst []float64) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	cat, err := k.prepared()
	if err != nil {
		return err
	}
	if len(dst) != len(cat.locs) {
		return fmt.Errorf("%w: result has %d entries for %d points", ErrInconsistentGrid, len(dst), len(cat.locs))
	}
	return k.forEachSpace(cat, func(sp *space) error {
		sp.drain(dst)
		return nil
	})
}

// Evaluate returns, for every row of ds, the sum over grid points of
// alpha[point] times the point's basis function at the row.
func (k *Kernel) Evaluate(ds Dataset, alpha []float64) ([]float64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cat, err := k.prepared()
	if err != nil {
		return nil, err
	}
	if ds.Rows() > 0 && ds.Dim() != cat.dim {
		return nil, fmt.Errorf("%w: dataset has %d columns, grid has %d dimensions",
			ErrDimensionMismatch, ds.Dim(), cat.dim)
	}
	if err := k.load(cat, alpha); err != nil {
		return nil, err
	}

	out := make([]float64, ds.Rows())
	k.traverse(cat, ds, forwardPass, nil, out)
	return out, nil
}

// EvaluateTranspose returns, for every grid point, the sum over rows of
// source[row] times the point's basis function at the row. The result is
// indexed by grid point ordinal.
func (k *Kernel) EvaluateTranspose(ds Dataset, source []float64) ([]float64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cat, err := k.prepared()
	if err != nil {
		return nil, err
	}
	if ds.Rows() > 0 && ds.Dim() != cat.dim {
		return nil, fmt.Errorf("%w: dataset has %d columns, grid has %d dimensions",
			ErrDimensionMismatch, ds.Dim(), cat.dim)
	}
	if len(source) != ds.Rows() {
		return nil, fmt.Errorf("%w: source has %d entries for %d rows",
			ErrDimensionMismatch, len(source), ds.Rows())
	}
	if err := cat.verify(k.store); err != nil {
		return nil, err
	}
	if err := k.forEachSpace(cat, func(sp *space) error {
		sp.reset()
		return nil
	}); err != nil {
		return nil, err
	}

	k.traverse(cat, ds, transposePass, source, nil)

	out := make([]float64, len(cat.locs))
	if err := k.forEachSpace(cat, func(sp *space) error {
		sp.drain(out)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// Graph returns the traversal links of the prepared subspaces, in
// lexicographic level order.
func (k *Kernel) Graph() []Node {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cat == nil {
		return nil
	}
	nodes := make([]Node, len(k.cat.spaces))
	for i, sp := range k.cat.spaces {
		nodes[i] = sp.node
	}
	return nodes
}

// Subspaces describes the prepared subspaces in lexicographic level order.
func (k *Kernel) Subspaces() []Info {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cat == nil {
		return nil
	}
	return k.cat.infos()
}

// Stats summarises the prepared catalogue.
func (k *Kernel) Stats() Stats {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cat == nil {
		return Stats{}
	}
	return k.cat.stats()
}

// Locate returns the position of the point (level, index) in the prepared
// subspace order, or ErrInconsistentGrid if no such point was prepared.
func (k *Kernel) Locate(level, index []uint32) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	cat, err := k.prepared()
	if err != nil {
		return 0, err
	}
	si, _, err := cat.locate(level, index)
	return si, err
}

func (k *Kernel) prepared() (*catalogue, error) {
	if k.cat == nil {
		return nil, fmt.Errorf("%w: Prepare has not been called", ErrInconsistentGrid)
	}
	return k.cat, nil
}

// load verifies the store against cat and copies alpha into the records.
func (k *Kernel) load(cat *catalogue, alpha []float64) error {
	if len(alpha) != len(cat.locs) {
		return fmt.Errorf("%w: %d coefficients for %d points", ErrInconsistentGrid, len(alpha), len(cat.locs))
	}
	if err := cat.verify(k.store); err != nil {
		return err
	}
	return k.forEachSpace(cat, func(sp *space) error {
		sp.load(alpha)
		return nil
	})
}

// forEachSpace runs fn on every subspace, at most one goroutine per worker.
// Subspaces own disjoint records and disjoint point ordinals, so fn needs no
// locking.
func (k *Kernel) forEachSpace(cat *catalogue, fn func(sp *space) error) error {
	var g errgroup.Group
	g.SetLimit(k.pool.NumWorkers())
	for _, sp := range cat.spaces {
		g.Go(func() error { return fn(sp) })
	}
	return g.Wait()
}

// traverse runs one pass over ds on the worker pool.
func (k *Kernel) traverse(cat *catalogue, ds Dataset, mode pass, source, out []float64) {
	rows := ds.Rows()
	if rows == 0 || len(cat.spaces) == 0 {
		return
	}
	width := k.cfg.ChunkWidth
	padded := ds.Padded(width)
	job := &chunkJob{
		cat:      cat,
		eval:     k.eval,
		laneEval: k.laneEval,
		lanes:    k.cfg.LaneWidth,
		dim:      cat.dim,
		data:     padded.data,
		rows:     rows,
		mode:     mode,
		source:   source,
		out:      out,
		trace:    k.trace,
	}
	arenas := newArenas(k.pool.NumWorkers(), width, cat.dim, job.lanes, cat.maxListEntries)
	k.pool.ParallelForChunks(padded.Rows(), width, func(worker, start, end int) {
		job.run(&arenas[worker], start, end)
	})
}
