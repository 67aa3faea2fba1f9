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
	"fmt"
	"log/slog"

	"github.com/sgkernel/go-subspace/hwy"
)

// Defaults for Config. Lane width defaults to what the CPU prefers for
// float64, see hwy.MaxLanes.
const (
	DefaultChunkWidth       = 64
	DefaultListRatio        = 0.2
	DefaultListSize         = 16384
	DefaultMaxSubspaceBytes = 1 << 30
)

// Config holds the runtime parameters of a Kernel.
type Config struct {
	// ChunkWidth is the number of dataset rows one worker traverses at once.
	ChunkWidth int `yaml:"chunk_width"`
	// LaneWidth is the number of rows evaluated per lane batch, in
	// [1, hwy.MaxLaneCount]. 1 is the scalar path.
	LaneWidth int `yaml:"lane_width"`
	// ListRatio and ListSize select the List layout: a subspace is stored as
	// a list when existing/capacity < ListRatio and existing < ListSize.
	ListRatio float64 `yaml:"list_ratio"`
	ListSize  int     `yaml:"list_size"`
	// MaxSubspaceBytes caps the dense buffer of a single Array subspace.
	MaxSubspaceBytes int64 `yaml:"max_subspace_bytes"`
	// Workers is the size of the worker pool; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Logger receives Prepare diagnostics; nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// Option modifies a Config.
type Option func(*Config)

// WithChunkWidth sets the number of rows per chunk.
func WithChunkWidth(n int) Option { return func(c *Config) { c.ChunkWidth = n } }

// WithLaneWidth sets the lane batch width.
func WithLaneWidth(n int) Option { return func(c *Config) { c.LaneWidth = n } }

// WithListThresholds sets the List layout thresholds.
func WithListThresholds(ratio float64, size int) Option {
	return func(c *Config) {
		c.ListRatio = ratio
		c.ListSize = size
	}
}

// WithMaxSubspaceBytes sets the dense buffer budget.
func WithMaxSubspaceBytes(n int64) Option { return func(c *Config) { c.MaxSubspaceBytes = n } }

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option { return func(c *Config) { c.Workers = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Config) { c.Logger = l } }

// DefaultConfig returns the default configuration with opts applied.
func DefaultConfig(opts ...Option) Config {
	c := Config{
		ChunkWidth:       DefaultChunkWidth,
		LaneWidth:        hwy.MaxLanes[float64](),
		ListRatio:        DefaultListRatio,
		ListSize:         DefaultListSize,
		MaxSubspaceBytes: DefaultMaxSubspaceBytes,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.ChunkWidth < 1:
		return fmt.Errorf("%w: chunk width %d < 1", ErrInvalidConfig, c.ChunkWidth)
	case c.LaneWidth < 1 || c.LaneWidth > hwy.MaxLaneCount:
		return fmt.Errorf("%w: lane width %d outside [1, %d]", ErrInvalidConfig, c.LaneWidth, hwy.MaxLaneCount)
	case !(c.ListRatio >= 0 && c.ListRatio <= 1):
		return fmt.Errorf("%w: list ratio %v outside [0, 1]", ErrInvalidConfig, c.ListRatio)
	case c.ListSize < 0:
		return fmt.Errorf("%w: list size %d < 0", ErrInvalidConfig, c.ListSize)
	case c.MaxSubspaceBytes <= 0:
		return fmt.Errorf("%w: max subspace bytes %d <= 0", ErrInvalidConfig, c.MaxSubspaceBytes)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d < 0", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c Config) thresholds() Thresholds {
	return Thresholds{ListRatio: c.ListRatio, ListSize: c.ListSize}
}
