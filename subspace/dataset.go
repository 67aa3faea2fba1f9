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

	"gonum.org/v1/gonum/mat"
)

// Dataset is a row-major batch of query points.
type Dataset struct {
	dim  int
	data []float64
}

// NewDataset wraps row-major data with dim columns. The slice is not copied.
func NewDataset(dim int, data []float64) (Dataset, error) {
	if dim < 1 || len(data)%dim != 0 {
		return Dataset{}, fmt.Errorf("%w: %d values do not form rows of %d columns",
			ErrDimensionMismatch, len(data), dim)
	}
	return Dataset{dim: dim, data: data}, nil
}

// DatasetFromRows copies rows into a new Dataset. All rows must have the
// same length.
func DatasetFromRows(rows [][]float64) (Dataset, error) {
	if len(rows) == 0 {
		return Dataset{}, fmt.Errorf("%w: no rows", ErrDimensionMismatch)
	}
	dim := len(rows[0])
	data := make([]float64, 0, dim*len(rows))
	for i, r := range rows {
		if len(r) != dim {
			return Dataset{}, fmt.Errorf("%w: row %d has %d columns, want %d",
				ErrDimensionMismatch, i, len(r), dim)
		}
		data = append(data, r...)
	}
	return NewDataset(dim, data)
}

// DatasetFromMatrix copies the rows of m into a new Dataset.
func DatasetFromMatrix(m mat.Matrix) (Dataset, error) {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := range r {
		for j := range c {
			data = append(data, m.At(i, j))
		}
	}
	return NewDataset(c, data)
}

// Dim returns the number of columns.
func (d Dataset) Dim() int { return d.dim }

// Rows returns the number of rows.
func (d Dataset) Rows() int {
	if d.dim == 0 {
		return 0
	}
	return len(d.data) / d.dim
}

// Row returns row i. The slice aliases the dataset.
func (d Dataset) Row(i int) []float64 {
	return d.data[i*d.dim : (i+1)*d.dim]
}

// Padded returns a dataset whose row count is a multiple of multiple, filled
// up with copies of the last row. It returns d itself when no padding is
// needed.
func (d Dataset) Padded(multiple int) Dataset {
	rows := d.Rows()
	if multiple <= 1 || rows == 0 || rows%multiple == 0 {
		return d
	}
	extra := multiple - rows%multiple
	data := make([]float64, len(d.data), len(d.data)+extra*d.dim)
	copy(data, d.data)
	last := d.Row(rows - 1)
	for range extra {
		data = append(data, last...)
	}
	return Dataset{dim: d.dim, data: data}
}
