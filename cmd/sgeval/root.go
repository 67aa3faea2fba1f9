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

package main

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgkernel/go-subspace/basis"
	"github.com/sgkernel/go-subspace/grid"
	"github.com/sgkernel/go-subspace/subspace"
)

// app carries the resolved settings and logger shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	settings   settings
	log        *slog.Logger
	out        io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{settings: defaultSettings(), out: os.Stdout}

	root := &cobra.Command{
		Use:           "sgeval",
		Short:         "Sparse grid subspace evaluation kernel tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML settings file")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.IntVar(&a.settings.Dim, "dim", a.settings.Dim, "grid dimension")
	pf.IntVar(&a.settings.Level, "level", a.settings.Level, "regular sparse grid level")
	pf.IntVar(&a.settings.Rows, "rows", a.settings.Rows, "number of random query rows")
	pf.Uint64Var(&a.settings.Seed, "seed", a.settings.Seed, "random seed")
	pf.IntVar(&a.settings.Kernel.ChunkWidth, "chunk", a.settings.Kernel.ChunkWidth, "rows per chunk")
	pf.IntVar(&a.settings.Kernel.LaneWidth, "lanes", a.settings.Kernel.LaneWidth, "rows per lane batch")
	pf.IntVar(&a.settings.Kernel.Workers, "workers", a.settings.Kernel.Workers, "worker count, 0 for GOMAXPROCS")
	pf.Float64Var(&a.settings.Kernel.ListRatio, "list-ratio", a.settings.Kernel.ListRatio, "occupancy below which a subspace may be a list")
	pf.IntVar(&a.settings.Kernel.ListSize, "list-size", a.settings.Kernel.ListSize, "largest list subspace")
	pf.Int64Var(&a.settings.Kernel.MaxSubspaceBytes, "max-subspace-bytes", a.settings.Kernel.MaxSubspaceBytes, "dense subspace budget")

	root.AddCommand(
		newInfoCmd(a),
		newBenchCmd(a),
		newCheckCmd(a),
		newFitCmd(a),
	)
	return root
}

// init layers file and environment settings under the flags the user set.
func (a *app) init(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	flagged := a.settings
	s := defaultSettings()
	if a.configPath != "" {
		data, err := os.ReadFile(a.configPath)
		if err != nil {
			return err
		}
		if err := s.decode(data); err != nil {
			return fmt.Errorf("%s: %w", a.configPath, err)
		}
	}
	if err := s.applyEnv(os.LookupEnv); err != nil {
		return err
	}
	s.applyFlags(cmd.Flags(), flagged)
	a.log.Debug("settings resolved",
		"dim", s.Dim,
		"level", s.Level,
		"rows", s.Rows,
		"chunk", s.Kernel.ChunkWidth,
		"lanes", s.Kernel.LaneWidth,
		"workers", s.Kernel.Workers)
	a.settings = s
	a.settings.Kernel.Logger = a.log
	return a.settings.validate()
}

// kernel builds the regular grid and a prepared kernel over it.
func (a *app) kernel() (*subspace.Kernel, *grid.Storage, error) {
	store, err := grid.Regular(a.settings.Dim, a.settings.Level)
	if err != nil {
		return nil, nil, err
	}
	k, err := subspace.New(store, basis.Linear{}, a.settings.Kernel)
	if err != nil {
		return nil, nil, err
	}
	if err := k.Prepare(); err != nil {
		k.Close()
		return nil, nil, err
	}
	return k, store, nil
}

func (a *app) rng() *rand.Rand {
	return rand.New(rand.NewPCG(a.settings.Seed, a.settings.Seed^0x9e3779b97f4a7c15))
}

func randomDataset(rng *rand.Rand, rows, dim int) (subspace.Dataset, error) {
	data := make([]float64, rows*dim)
	for i := range data {
		data[i] = rng.Float64()
	}
	return subspace.NewDataset(dim, data)
}

func randomVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 2*rng.Float64() - 1
	}
	return v
}
