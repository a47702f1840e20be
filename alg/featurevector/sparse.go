package featurevector

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// SparseFeatures is the value of one feature slot: a bag of ids with
// optional weights. A nil Weight means every id has weight 1.
type SparseFeatures struct {
	ID     []uint64
	Weight []float32
}

func Single(id uint64) SparseFeatures {
	return SparseFeatures{ID: []uint64{id}}
}

func (f *SparseFeatures) Add(id uint64, weight float32) {
	if f.Weight == nil && weight != 1 {
		f.Weight = make([]float32, len(f.ID), cap(f.ID)+1)
		for i := range f.Weight {
			f.Weight[i] = 1
		}
	}
	f.ID = append(f.ID, id)
	if f.Weight != nil {
		f.Weight = append(f.Weight, weight)
	}
}

func (f SparseFeatures) WeightOf(i int) float64 {
	if f.Weight == nil {
		return 1
	}
	return float64(f.Weight[i])
}

func (f SparseFeatures) String() string {
	parts := make([]string, len(f.ID))
	for i, id := range f.ID {
		if f.Weight == nil {
			parts[i] = fmt.Sprintf("%d", id)
		} else {
			parts[i] = fmt.Sprintf("%d:%g", id, f.Weight[i])
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Rows is a sparse set of dense parameter rows keyed by feature id.
type Rows map[uint64][]float64

func (r Rows) Copy() Rows {
	copied := make(Rows, len(r))
	for k, row := range r {
		copied[k] = append([]float64(nil), row...)
	}
	return copied
}

// Row returns the row for key, or nil if the key was never updated.
func (r Rows) Row(key uint64) []float64 {
	return r[key]
}

// UpdateAddScaled performs row(key) += alpha * delta, allocating the row
// on first use.
func (r Rows) UpdateAddScaled(key uint64, alpha float64, delta []float64) {
	row, exists := r[key]
	if !exists {
		row = make([]float64, len(delta))
		r[key] = row
	}
	floats.AddScaled(row, alpha, delta)
}
