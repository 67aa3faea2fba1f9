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

// Representation is the storage layout of one subspace.
type Representation uint8

const (
	// Array stores one record per possible point in a dense buffer.
	Array Representation = iota
	// List stores only the existing points, sorted by flat index.
	List
)

func (r Representation) String() string {
	switch r {
	case Array:
		return "array"
	case List:
		return "list"
	default:
		return "unknown"
	}
}

// Thresholds decide when a subspace is sparse enough for the List layout.
type Thresholds struct {
	ListRatio float64
	ListSize  int
}

// ChooseRepresentation returns List when existing/capacity < ListRatio and
// existing < ListSize, and Array otherwise.
func ChooseRepresentation(existing, capacity uint64, t Thresholds) Representation {
	if capacity == 0 {
		return Array
	}
	if float64(existing)/float64(capacity) < t.ListRatio && existing < uint64(max(t.ListSize, 0)) {
		return List
	}
	return Array
}
