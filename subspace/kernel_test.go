package subspace_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sgkernel/go-subspace/basis"
	"github.com/sgkernel/go-subspace/grid"
	"github.com/sgkernel/go-subspace/subspace"
)

func twoLevelGrid(t *testing.T) *grid.Storage {
	t.Helper()
	s := grid.NewStorage(2)
	_, err := s.Add([]uint32{1, 1}, []uint32{1, 1})
	require.NoError(t, err)
	_, err = s.Add([]uint32{2, 1}, []uint32{1, 1})
	require.NoError(t, err)
	s.UpdateLeaves()
	return s
}

func TestEvaluateTwoLevels(t *testing.T) {
	for name, opts := range layouts {
		t.Run(name, func(t *testing.T) {
			k := newKernel(t, twoLevelGrid(t), opts...)
			ds, err := subspace.DatasetFromRows([][]float64{
				{0.5, 0.5},
				{0.2, 0.5},
				{0.25, 0.75},
				{0.75, 0.5},
			})
			require.NoError(t, err)

			got, err := k.Evaluate(ds, []float64{1.0, 0.5})
			require.NoError(t, err)
			// At the centre the level-2 hat of (0.25) vanishes; at 0.2 it is 0.8.
			requireClose(t, []float64{1.0, 0.4 + 0.5*0.8, 0.25 + 0.5*0.5, 0.5}, got, 1e-14)
		})
	}
}

func TestEvaluateMatchesBasisMatrix(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for name, opts := range layouts {
		for dim := 1; dim <= 4; dim++ {
			store := randomGrid(t, rng, dim, 6, 120)
			opts := append([]subspace.Option{subspace.WithChunkWidth(16), subspace.WithWorkers(4)}, opts...)
			k := newKernel(t, store, opts...)

			ds := randomDataset(t, rng, 97, dim)
			alpha := randomVector(rng, store.Size())

			got, err := k.Evaluate(ds, alpha)
			require.NoError(t, err)

			want := mat.NewVecDense(ds.Rows(), nil)
			want.MulVec(basisMatrix(store, ds), mat.NewVecDense(len(alpha), alpha))
			requireClose(t, want.RawVector().Data, got, 1e-9)
			t.Logf("%s dim=%d points=%d stats=%+v", name, dim, store.Size(), k.Stats())
		}
	}
}

func TestEvaluateTransposeMatchesBasisMatrix(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for name, opts := range layouts {
		t.Run(name, func(t *testing.T) {
			for dim := 1; dim <= 4; dim++ {
				store := randomGrid(t, rng, dim, 6, 120)
				opts := append([]subspace.Option{subspace.WithChunkWidth(8), subspace.WithWorkers(4)}, opts...)
				k := newKernel(t, store, opts...)

				ds := randomDataset(t, rng, 133, dim)
				source := randomVector(rng, ds.Rows())

				got, err := k.EvaluateTranspose(ds, source)
				require.NoError(t, err)

				want := mat.NewVecDense(store.Size(), nil)
				want.MulVec(basisMatrix(store, ds).T(), mat.NewVecDense(len(source), source))
				requireClose(t, want.RawVector().Data, got, 1e-9)
			}
		})
	}
}

func TestRegularGridsMatchBasisMatrix(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for _, tt := range []struct{ dim, level int }{{1, 6}, {2, 5}, {3, 4}, {4, 3}} {
		store, err := grid.Regular(tt.dim, tt.level)
		require.NoError(t, err)
		k := newKernel(t, store, subspace.WithChunkWidth(32))

		ds := randomDataset(t, rng, 50, tt.dim)
		alpha := randomVector(rng, store.Size())
		got, err := k.Evaluate(ds, alpha)
		require.NoError(t, err)

		want := mat.NewVecDense(ds.Rows(), nil)
		want.MulVec(basisMatrix(store, ds), mat.NewVecDense(len(alpha), alpha))
		requireClose(t, want.RawVector().Data, got, 1e-9)
	}
}

func TestAdjointIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	for name, opts := range layouts {
		t.Run(name, func(t *testing.T) {
			store := randomGrid(t, rng, 3, 7, 300)
			k := newKernel(t, store, append(opts, subspace.WithWorkers(3), subspace.WithChunkWidth(16))...)

			ds := randomDataset(t, rng, 500, 3)
			alpha := randomVector(rng, store.Size())
			w := randomVector(rng, ds.Rows())

			fwd, err := k.Evaluate(ds, alpha)
			require.NoError(t, err)
			adj, err := k.EvaluateTranspose(ds, w)
			require.NoError(t, err)

			lhs, rhs := floats.Dot(fwd, w), floats.Dot(adj, alpha)
			require.InDelta(t, lhs, rhs, 1e-10*max(1, math.Abs(lhs)))
		})
	}
}

func TestVisitedSubspacesCoverCandidates(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	for name, opts := range layouts {
		t.Run(name, func(t *testing.T) {
			const dim = 3
			store := randomGrid(t, rng, dim, 5, 150)
			k := newKernel(t, store, append(opts, subspace.WithChunkWidth(16), subspace.WithWorkers(2))...)

			ds := randomDataset(t, rng, 100, dim)
			trace := subspace.NewVisitTrace(ds.Rows())
			k.SetTracer(trace)
			_, err := k.Evaluate(ds, make([]float64, store.Size()))
			require.NoError(t, err)

			infos := k.Subspaces()
			index := make([]uint32, dim)
			visits := 0
			for r := range ds.Rows() {
				x := ds.Row(r)
				for s, info := range infos {
					for d := range dim {
						index[d] = candidate(info.Level[d], x[d])
					}
					if _, ok := store.Find(info.Level, index); ok {
						require.True(t, trace.Visited(r, s), "row %d skipped level %v index %v", r, info.Level, index)
					}
				}
				visits += trace.Count(r)
			}
			// Jumps must skip something on an adaptive grid.
			assert.Less(t, visits, ds.Rows()*len(infos))
		})
	}
}

func TestPaddingInvariance(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	store := randomGrid(t, rng, 2, 6, 80)
	k := newKernel(t, store, subspace.WithChunkWidth(8))
	alpha := randomVector(rng, store.Size())

	for _, rows := range []int{1, 7, 8, 9, 23} {
		ds := randomDataset(t, rng, rows, 2)
		got, err := k.Evaluate(ds, alpha)
		require.NoError(t, err)
		require.Len(t, got, rows)

		padded := ds.Padded(8)
		require.Zero(t, padded.Rows()%8)
		all, err := k.Evaluate(padded, alpha)
		require.NoError(t, err)
		require.Equal(t, got, all[:rows])
		for r := rows; r < padded.Rows(); r++ {
			require.Equal(t, got[rows-1], all[r])
		}
	}
}

func TestLaneWidthsAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	store := randomGrid(t, rng, 3, 5, 150)
	ds := randomDataset(t, rng, 77, 3)
	alpha := randomVector(rng, store.Size())
	source := randomVector(rng, ds.Rows())

	var wantFwd, wantAdj []float64
	for _, lanes := range []int{1, 2, 3, 4, 8, 16} {
		k := newKernel(t, store, subspace.WithLaneWidth(lanes), subspace.WithChunkWidth(16))
		fwd, err := k.Evaluate(ds, alpha)
		require.NoError(t, err)
		adj, err := k.EvaluateTranspose(ds, source)
		require.NoError(t, err)
		if wantFwd == nil {
			wantFwd, wantAdj = fwd, adj
			continue
		}
		requireClose(t, wantFwd, fwd, 1e-12)
		requireClose(t, wantAdj, adj, 1e-12)
	}
}

func TestScalarBasisMatchesLaneBasis(t *testing.T) {
	rng := rand.New(rand.NewPCG(15, 16))
	store := randomGrid(t, rng, 2, 6, 90)
	ds := randomDataset(t, rng, 40, 2)
	alpha := randomVector(rng, store.Size())

	lane := newKernel(t, store)
	want, err := lane.Evaluate(ds, alpha)
	require.NoError(t, err)

	var hat basis.Linear
	scalar, err := subspace.New(store, basis.Func(hat.Value), subspace.DefaultConfig())
	require.NoError(t, err)
	defer scalar.Close()
	require.NoError(t, scalar.Prepare())
	got, err := scalar.Evaluate(ds, alpha)
	require.NoError(t, err)
	requireClose(t, want, got, 1e-12)
}

// A padded lane batch recomputes only the dimensions its real rows need,
// so with one row per chunk the pad lane doubles the basis calls and no more.
func TestPaddedLanesReusePrefix(t *testing.T) {
	store, err := grid.Regular(3, 4)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(41, 42))
	ds := randomDataset(t, rng, 9, 3)
	alpha := randomVector(rng, store.Size())

	var hat basis.Linear
	run := func(lanes int) ([]float64, int64) {
		var calls atomic.Int64
		counted := basis.Func(func(level, index uint32, x float64) float64 {
			calls.Add(1)
			return hat.Value(level, index, x)
		})
		k, err := subspace.New(store, counted, subspace.DefaultConfig(
			subspace.WithLaneWidth(lanes), subspace.WithChunkWidth(1), subspace.WithWorkers(1)))
		require.NoError(t, err)
		defer k.Close()
		require.NoError(t, k.Prepare())
		before := calls.Load()
		got, err := k.Evaluate(ds, alpha)
		require.NoError(t, err)
		return got, calls.Load() - before
	}

	want, scalarCalls := run(1)
	got, paddedCalls := run(2)
	requireClose(t, want, got, 1e-12)
	require.Positive(t, scalarCalls)
	require.Equal(t, 2*scalarCalls, paddedCalls)
}

func TestSetCoefficientsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 18))
	for name, opts := range layouts {
		t.Run(name, func(t *testing.T) {
			store := randomGrid(t, rng, 3, 5, 100)
			k := newKernel(t, store, opts...)

			alpha := randomVector(rng, store.Size())
			require.NoError(t, k.SetCoefficients(alpha))
			got := make([]float64, store.Size())
			require.NoError(t, k.GetResult(got))
			require.Equal(t, alpha, got)
		})
	}
}

func TestLayoutSelection(t *testing.T) {
	rng := rand.New(rand.NewPCG(19, 20))
	store := randomGrid(t, rng, 3, 6, 150)

	array := newKernel(t, store, layouts["array"]...).Stats()
	require.Zero(t, array.ListSubspaces)
	require.Equal(t, store.Size(), array.Points)

	list := newKernel(t, store, layouts["list"]...).Stats()
	require.Positive(t, list.ListSubspaces)
	require.Less(t, list.ArrayBytes, array.ArrayBytes)
	require.Equal(t, array.Subspaces, list.Subspaces)
}

func TestNaNCoefficientPropagates(t *testing.T) {
	k := newKernel(t, twoLevelGrid(t))
	ds, err := subspace.DatasetFromRows([][]float64{{0.5, 0.5}, {0.9, 0.1}})
	require.NoError(t, err)

	got, err := k.Evaluate(ds, []float64{math.NaN(), 0})
	require.NoError(t, err)
	require.True(t, math.IsNaN(got[0]))
	require.True(t, math.IsNaN(got[1]))

	// An absent point is not a NaN value.
	got, err = k.Evaluate(ds, []float64{0, math.NaN()})
	require.NoError(t, err)
	require.False(t, math.IsNaN(got[1]), "row 1 never reaches the level-2 point")
}

func TestPrepareIdempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 22))
	store := randomGrid(t, rng, 3, 5, 120)
	k := newKernel(t, store)

	graph, infos := k.Graph(), k.Subspaces()
	require.NotEmpty(t, graph)
	require.NoError(t, k.Prepare())
	require.Equal(t, graph, k.Graph())
	require.Equal(t, infos, k.Subspaces())

	levels := make([][]uint32, len(infos))
	for i, info := range infos {
		levels[i] = info.Level
		require.Equal(t, graph[i], info.Node)
	}
	require.Equal(t, graph, subspace.BuildGraph(levels))
}

func TestPrepareCapacityErrorKeepsCatalogue(t *testing.T) {
	store, err := grid.Regular(2, 2)
	require.NoError(t, err)
	k := newKernel(t, store, subspace.WithListThresholds(0, 0), subspace.WithMaxSubspaceBytes(64))
	before := k.Stats()

	_, err = store.Add([]uint32{4, 1}, []uint32{1, 1})
	require.NoError(t, err)

	err = k.Prepare()
	require.ErrorIs(t, err, subspace.ErrCapacity)
	var ce *subspace.CapacityError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, []uint32{4, 1}, ce.Level)
	require.Equal(t, int64(64), ce.Limit)
	require.Greater(t, ce.Bytes, uint64(64))

	require.Equal(t, before, k.Stats())
	_, err = k.Evaluate(subspace.Dataset{}, make([]float64, store.Size()))
	require.ErrorIs(t, err, subspace.ErrInconsistentGrid)
}

func TestInconsistentGrid(t *testing.T) {
	store := twoLevelGrid(t)
	k, err := subspace.New(store, basis.Linear{}, subspace.DefaultConfig())
	require.NoError(t, err)
	defer k.Close()

	ds, err := subspace.DatasetFromRows([][]float64{{0.5, 0.5}})
	require.NoError(t, err)

	_, err = k.Evaluate(ds, []float64{1, 1})
	require.ErrorIs(t, err, subspace.ErrInconsistentGrid, "before Prepare")

	require.NoError(t, k.Prepare())
	_, err = k.Evaluate(ds, []float64{1})
	require.ErrorIs(t, err, subspace.ErrInconsistentGrid, "short alpha")
	require.ErrorIs(t, k.GetResult(make([]float64, 3)), subspace.ErrInconsistentGrid)

	_, err = store.Add([]uint32{1, 2}, []uint32{1, 3})
	require.NoError(t, err)
	_, err = k.Evaluate(ds, []float64{1, 1, 1})
	require.ErrorIs(t, err, subspace.ErrInconsistentGrid, "store grew")
	_, err = k.EvaluateTranspose(ds, []float64{1})
	require.ErrorIs(t, err, subspace.ErrInconsistentGrid)

	require.NoError(t, k.Prepare())
	got, err := k.Evaluate(ds, []float64{1, 1, 1})
	require.NoError(t, err)
	require.InDelta(t, 1.0, got[0], 1e-15)
}

func TestPrepareRejectsBadPoints(t *testing.T) {
	dup := &sliceStore{dim: 1, points: []grid.Point{
		{Level: []uint32{2}, Index: []uint32{3}},
		{Level: []uint32{1}, Index: []uint32{1}},
		{Level: []uint32{2}, Index: []uint32{3}},
	}}
	for name, opts := range layouts {
		k, err := subspace.New(dup, basis.Linear{}, subspace.DefaultConfig(opts...))
		require.NoError(t, err)
		require.ErrorIs(t, k.Prepare(), subspace.ErrInconsistentGrid, name)
		k.Close()
	}

	even := &sliceStore{dim: 1, points: []grid.Point{{Level: []uint32{2}, Index: []uint32{2}}}}
	k, err := subspace.New(even, basis.Linear{}, subspace.DefaultConfig())
	require.NoError(t, err)
	defer k.Close()
	require.ErrorIs(t, k.Prepare(), subspace.ErrInvalidIndex)

	ragged := &sliceStore{dim: 2, points: []grid.Point{{Level: []uint32{1}, Index: []uint32{1}}}}
	k2, err := subspace.New(ragged, basis.Linear{}, subspace.DefaultConfig())
	require.NoError(t, err)
	defer k2.Close()
	require.ErrorIs(t, k2.Prepare(), subspace.ErrDimensionMismatch)
}

func TestDimensionMismatch(t *testing.T) {
	k := newKernel(t, twoLevelGrid(t))
	ds3, err := subspace.DatasetFromRows([][]float64{{0.1, 0.2, 0.3}})
	require.NoError(t, err)
	_, err = k.Evaluate(ds3, []float64{1, 1})
	require.ErrorIs(t, err, subspace.ErrDimensionMismatch)

	ds2, err := subspace.DatasetFromRows([][]float64{{0.1, 0.2}, {0.3, 0.4}})
	require.NoError(t, err)
	_, err = k.EvaluateTranspose(ds2, []float64{1})
	require.ErrorIs(t, err, subspace.ErrDimensionMismatch)
}

func TestEmptyInputs(t *testing.T) {
	k := newKernel(t, twoLevelGrid(t))
	empty, err := subspace.NewDataset(2, nil)
	require.NoError(t, err)

	got, err := k.Evaluate(empty, []float64{1, 2})
	require.NoError(t, err)
	require.Empty(t, got)

	adj, err := k.EvaluateTranspose(empty, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, adj)

	none := grid.NewStorage(2)
	k2 := newKernel(t, none)
	ds, err := subspace.DatasetFromRows([][]float64{{0.3, 0.3}})
	require.NoError(t, err)
	got, err = k2.Evaluate(ds, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{0}, got)
}

func TestTransposeResetsBetweenCalls(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 24))
	store := randomGrid(t, rng, 2, 5, 60)
	k := newKernel(t, store, layouts["list"]...)
	ds := randomDataset(t, rng, 30, 2)
	source := randomVector(rng, ds.Rows())

	first, err := k.EvaluateTranspose(ds, source)
	require.NoError(t, err)
	second, err := k.EvaluateTranspose(ds, source)
	require.NoError(t, err)
	requireClose(t, first, second, 1e-12)
}

func TestLocate(t *testing.T) {
	store, err := grid.Regular(2, 3)
	require.NoError(t, err)
	k := newKernel(t, store)

	si, err := k.Locate([]uint32{2, 1}, []uint32{3, 1})
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 1}, k.Subspaces()[si].Level)

	_, err = k.Locate([]uint32{3, 3}, []uint32{1, 1})
	require.ErrorIs(t, err, subspace.ErrInconsistentGrid)
	_, err = k.Locate([]uint32{2, 1}, []uint32{2, 1})
	require.ErrorIs(t, err, subspace.ErrInconsistentGrid)
}

func TestNewRejectsBadInput(t *testing.T) {
	store := twoLevelGrid(t)
	_, err := subspace.New(nil, basis.Linear{}, subspace.DefaultConfig())
	require.Error(t, err)
	_, err = subspace.New(store, basis.Linear{}, subspace.DefaultConfig(subspace.WithChunkWidth(0)))
	require.ErrorIs(t, err, subspace.ErrInvalidConfig)
	_, err = subspace.New(grid.NewStorage(0), basis.Linear{}, subspace.DefaultConfig())
	require.ErrorIs(t, err, subspace.ErrDimensionMismatch)
}

func TestPrepareLogs(t *testing.T) {
	s := grid.NewStorage(1)
	for _, p := range [][2]uint32{{1, 1}, {2, 1}, {2, 3}, {3, 1}, {3, 3}, {3, 5}} {
		_, err := s.Add([]uint32{p[0]}, []uint32{p[1]})
		require.NoError(t, err)
	}
	s.UpdateLeaves()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	k := newKernel(t, s, subspace.WithLogger(logger), subspace.WithListThresholds(1, 4))

	require.Equal(t, 1, k.Stats().ListSubspaces)
	require.Contains(t, buf.String(), "prepared subspace catalogue")
	require.Contains(t, buf.String(), "large list subspace")
	require.Contains(t, buf.String(), "entries=3")
}
