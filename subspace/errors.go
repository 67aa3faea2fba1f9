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
)

var (
	// ErrCapacity is the root of all budget and overflow failures raised by
	// Prepare. Use errors.As with *CapacityError for the details.
	ErrCapacity = errors.New("subspace: capacity exceeded")

	// ErrInconsistentGrid means the grid store and the prepared catalogue
	// disagree: the store changed without Prepare, a vector has the wrong
	// length, or an offset has no registered subspace.
	ErrInconsistentGrid = errors.New("subspace: grid inconsistent with prepared catalogue")

	// ErrInvalidIndex is returned by the index codec for tuples that are not
	// valid hierarchical coordinates.
	ErrInvalidIndex = errors.New("subspace: invalid level/index")

	// ErrDimensionMismatch means a dataset or vector does not match the
	// dimension or row count it is used with.
	ErrDimensionMismatch = errors.New("subspace: dimension mismatch")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("subspace: invalid config")
)

// CapacityError describes a subspace Prepare refused to build.
type CapacityError struct {
	// Level is the level vector of the offending subspace, if any.
	Level []uint32
	// Bytes is the size the dense buffer would need; zero on overflow.
	Bytes uint64
	// Limit is the configured MaxSubspaceBytes.
	Limit int64
	// Reason is set when the failure is an arithmetic overflow.
	Reason string
}

func (e *CapacityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("subspace: capacity exceeded for level %v: %s", e.Level, e.Reason)
	}
	return fmt.Sprintf("subspace: dense buffer for level %v needs %d bytes, budget is %d",
		e.Level, e.Bytes, e.Limit)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }
