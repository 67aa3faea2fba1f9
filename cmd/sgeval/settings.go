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
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sgkernel/go-subspace/subspace"
)

const envPrefix = "SGEVAL_"

type settings struct {
	Dim   int    `yaml:"dim"`
	Level int    `yaml:"level"`
	Rows  int    `yaml:"rows"`
	Seed  uint64 `yaml:"seed"`

	Kernel subspace.Config `yaml:"kernel"`
}

func defaultSettings() settings {
	return settings{
		Dim:    3,
		Level:  5,
		Rows:   10000,
		Seed:   1,
		Kernel: subspace.DefaultConfig(),
	}
}

func (s *settings) decode(data []byte) error {
	return yaml.Unmarshal(data, s)
}

// applyEnv reads SGEVAL_<NAME> for every setting; names follow the YAML keys
// upper-cased, kernel keys without their section.
func (s *settings) applyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"DIM":         &s.Dim,
		"LEVEL":       &s.Level,
		"ROWS":        &s.Rows,
		"CHUNK_WIDTH": &s.Kernel.ChunkWidth,
		"LANE_WIDTH":  &s.Kernel.LaneWidth,
		"LIST_SIZE":   &s.Kernel.ListSize,
		"WORKERS":     &s.Kernel.Workers,
	}
	for name, dst := range ints {
		v, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}
	if v, ok := lookup(envPrefix + "SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", envPrefix, err)
		}
		s.Seed = n
	}
	if v, ok := lookup(envPrefix + "LIST_RATIO"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sLIST_RATIO: %w", envPrefix, err)
		}
		s.Kernel.ListRatio = f
	}
	if v, ok := lookup(envPrefix + "MAX_SUBSPACE_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_SUBSPACE_BYTES: %w", envPrefix, err)
		}
		s.Kernel.MaxSubspaceBytes = n
	}
	return nil
}

// applyFlags copies from flagged every setting whose flag was set on the
// command line.
func (s *settings) applyFlags(fs *pflag.FlagSet, flagged settings) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("dim", func() { s.Dim = flagged.Dim })
	set("level", func() { s.Level = flagged.Level })
	set("rows", func() { s.Rows = flagged.Rows })
	set("seed", func() { s.Seed = flagged.Seed })
	set("chunk", func() { s.Kernel.ChunkWidth = flagged.Kernel.ChunkWidth })
	set("lanes", func() { s.Kernel.LaneWidth = flagged.Kernel.LaneWidth })
	set("workers", func() { s.Kernel.Workers = flagged.Kernel.Workers })
	set("list-ratio", func() { s.Kernel.ListRatio = flagged.Kernel.ListRatio })
	set("list-size", func() { s.Kernel.ListSize = flagged.Kernel.ListSize })
	set("max-subspace-bytes", func() { s.Kernel.MaxSubspaceBytes = flagged.Kernel.MaxSubspaceBytes })
}

func (s settings) validate() error {
	if s.Dim < 1 || s.Level < 1 || s.Rows < 0 {
		return fmt.Errorf("invalid grid settings: dim=%d level=%d rows=%d", s.Dim, s.Level, s.Rows)
	}
	return s.Kernel.Validate()
}
