package subspace_test

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sgkernel/go-subspace/basis"
	"github.com/sgkernel/go-subspace/grid"
	"github.com/sgkernel/go-subspace/subspace"
)

// layouts force each storage layout so both code paths see every test.
var layouts = map[string][]subspace.Option{
	"default": nil,
	"array":   {subspace.WithListThresholds(0, 0)},
	"list":    {subspace.WithListThresholds(1, 1<<30)},
}

func newKernel(t *testing.T, store grid.Store, opts ...subspace.Option) *subspace.Kernel {
	t.Helper()
	k, err := subspace.New(store, basis.Linear{}, subspace.DefaultConfig(opts...))
	require.NoError(t, err)
	t.Cleanup(k.Close)
	require.NoError(t, k.Prepare())
	return k
}

// addClosed adds a point together with all its hierarchical ancestors.
func addClosed(t *testing.T, s *grid.Storage, level, index []uint32) {
	t.Helper()
	if _, ok := s.Find(level, index); ok {
		return
	}
	for d := range level {
		if level[d] == 1 {
			continue
		}
		pl, pi := slices.Clone(level), slices.Clone(index)
		pl[d]--
		pi[d] = index[d] >> 1
		if pi[d]%2 == 0 {
			pi[d]++
		}
		addClosed(t, s, pl, pi)
	}
	_, err := s.Add(level, index)
	require.NoError(t, err)
}

// randomGrid builds an adaptive, ancestor-closed grid of at least target
// points. One dimension per insertion is refined deeply so most subspaces
// end up sparse.
func randomGrid(t *testing.T, rng *rand.Rand, dim, maxLevel, target int) *grid.Storage {
	t.Helper()
	s := grid.NewStorage(dim)
	for s.Size() < target {
		level := make([]uint32, dim)
		index := make([]uint32, dim)
		deep := rng.IntN(dim)
		for d := range dim {
			if d == deep {
				level[d] = uint32(1 + rng.IntN(maxLevel))
			} else {
				level[d] = uint32(1 + rng.IntN(2))
			}
			index[d] = uint32(2*rng.IntN(1<<(level[d]-1)) + 1)
		}
		addClosed(t, s, level, index)
	}
	s.UpdateLeaves()
	return s
}

func randomDataset(t *testing.T, rng *rand.Rand, rows, dim int) subspace.Dataset {
	t.Helper()
	data := make([]float64, rows*dim)
	for i := range data {
		data[i] = rng.Float64()
	}
	ds, err := subspace.NewDataset(dim, data)
	require.NoError(t, err)
	return ds
}

func randomVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 2*rng.Float64() - 1
	}
	return v
}

// basisMatrix is the dense rows x points matrix B[r][p] = phi_p(x_r).
func basisMatrix(store grid.Store, ds subspace.Dataset) *mat.Dense {
	var hat basis.Linear
	b := mat.NewDense(ds.Rows(), store.Size(), nil)
	for r := range ds.Rows() {
		x := ds.Row(r)
		for p := range store.Size() {
			pt := store.Point(p)
			v := 1.0
			for d := range x {
				v *= hat.Value(pt.Level[d], pt.Index[d], x[d])
			}
			b.Set(r, p, v)
		}
	}
	return b
}

func requireClose(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		scale := max(1, math.Abs(want[i]))
		require.InDelta(t, want[i], got[i], tol*scale, "entry %d", i)
	}
}

// candidate is the index of the level's hat whose support holds x.
func candidate(level uint32, x float64) uint32 {
	half := uint32(1) << (level - 1)
	k := int64(x * float64(half))
	k = max(0, min(k, int64(half)-1))
	return uint32(2*k + 1)
}

// sliceStore is a grid.Store without any validation.
type sliceStore struct {
	dim    int
	points []grid.Point
}

func (s *sliceStore) Dim() int               { return s.dim }
func (s *sliceStore) Size() int              { return len(s.points) }
func (s *sliceStore) Point(i int) grid.Point { return s.points[i] }
