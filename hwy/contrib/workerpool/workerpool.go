// Copyright 2025 The go-subspace Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for chunked
// parallel computation. A Pool is created once and reused across many
// evaluations, so no goroutines are spawned per call.
//
// Every callback receives a worker slot in [0, NumWorkers()). Two callbacks
// running at the same time never share a slot, which lets callers hand each
// slot its own scratch arena without locking.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	arenas := make([]scratch, pool.NumWorkers())
//	pool.ParallelForChunks(rows, 64, func(worker, start, end int) {
//	    process(&arenas[worker], start, end)
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool that can be reused across many parallel
// operations. Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem represents one worker slot's share of a parallel operation.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		// Buffer enough for all workers to have pending work
		workC: make(chan workItem, numWorkers*2),
	}

	for range numWorkers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each persistent worker goroutine.
func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelForChunks splits [0, n) into chunks of chunkSize indices and hands
// them out by atomic work stealing, so uneven chunks balance across workers.
// Blocks until all chunks complete.
//
// fn receives the worker slot and the chunk bounds [start, end). Chunks are
// not processed in any particular order.
func (p *Pool) ParallelForChunks(n, chunkSize int, fn func(worker, start, end int)) {
	if n <= 0 {
		return
	}
	if chunkSize <= 0 {
		chunkSize = 1
	}

	numChunks := (n + chunkSize - 1) / chunkSize
	workers := min(p.numWorkers, numChunks)

	if workers == 1 || p.closed.Load() {
		// Sequential on the caller's goroutine, always as slot 0.
		for start := 0; start < n; start += chunkSize {
			fn(0, start, min(start+chunkSize, n))
		}
		return
	}

	var nextChunk atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					chunk := int(nextChunk.Add(1)) - 1
					start := chunk * chunkSize
					if start >= n {
						return
					}
					fn(w, start, min(start+chunkSize, n))
				}
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}
