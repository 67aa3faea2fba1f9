package subspace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgkernel/go-subspace/grid"
	"github.com/sgkernel/go-subspace/subspace"
)

func TestVisitTrace(t *testing.T) {
	store, err := grid.Regular(1, 3)
	require.NoError(t, err)
	k := newKernel(t, store, subspace.WithChunkWidth(2))

	ds, err := subspace.NewDataset(1, []float64{0.1, 0.6, 0.9})
	require.NoError(t, err)
	trace := subspace.NewVisitTrace(ds.Rows())
	k.SetTracer(trace)

	_, err = k.Evaluate(ds, make([]float64, store.Size()))
	require.NoError(t, err)
	for r := range ds.Rows() {
		// A regular grid holds every candidate, so every subspace is visited.
		require.Equal(t, []int{0, 1, 2}, trace.Subspaces(r))
		require.Equal(t, 3, trace.Count(r))
	}

	trace.Reset()
	require.Zero(t, trace.Count(0))
	require.False(t, trace.Visited(0, 0))

	k.SetTracer(nil)
	_, err = k.Evaluate(ds, make([]float64, store.Size()))
	require.NoError(t, err)
	require.Zero(t, trace.Count(0))
}

func TestVisitTraceStopsAtLeaves(t *testing.T) {
	s := grid.NewStorage(1)
	for _, p := range [][2]uint32{{1, 1}, {2, 1}, {3, 1}, {2, 3}} {
		_, err := s.Add([]uint32{p[0]}, []uint32{p[1]})
		require.NoError(t, err)
	}
	s.UpdateLeaves()
	k := newKernel(t, s)

	ds, err := subspace.NewDataset(1, []float64{0.1, 0.9})
	require.NoError(t, err)
	trace := subspace.NewVisitTrace(ds.Rows())
	k.SetTracer(trace)
	_, err = k.Evaluate(ds, make([]float64, s.Size()))
	require.NoError(t, err)

	require.Equal(t, []int{0, 1, 2}, trace.Subspaces(0))
	// (2,3) is a leaf, so level 3 is never looked at.
	require.Equal(t, []int{0, 1}, trace.Subspaces(1))
}
