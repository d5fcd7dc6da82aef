package distance

import (
	"fmt"
	"math"
	"slices"

	gr "github.com/jsdoublel/njtree/internal/graphs"
	pr "github.com/jsdoublel/njtree/internal/prep"
)

// Symmetric matrix of pairwise distances between labeled taxa, with zeros
// on the diagonal. Not modified after construction.
type Matrix struct {
	names []string
	dists [][]float64
}

// Validates and makes a distance matrix. Returns ErrValidation unless dists
// is square with one row per name, symmetric, finite, non-negative, and zero
// on the diagonal, and names are unique, non-empty, and NewickSafe.
func NewMatrix(names []string, dists [][]float64) (*Matrix, error) {
	n := len(names)
	if len(dists) != n {
		return nil, fmt.Errorf("%w, %d labels for %d matrix rows", pr.ErrValidation, n, len(dists))
	}
	seen := make(map[string]bool, n)
	for _, name := range names {
		if name == "" || seen[name] {
			return nil, fmt.Errorf("%w, matrix label %q is empty or repeated", pr.ErrValidation, name)
		}
		if !gr.NewickSafe(name) {
			return nil, fmt.Errorf("%w, matrix label %q contains one of %s", pr.ErrValidation, name, gr.NewickReserved)
		}
		seen[name] = true
	}
	for i := range n {
		if len(dists[i]) != n {
			return nil, fmt.Errorf("%w, matrix row %d has %d columns, expected %d", pr.ErrValidation, i, len(dists[i]), n)
		}
		if dists[i][i] != 0 {
			return nil, fmt.Errorf("%w, distance from %s to itself is %f", pr.ErrValidation, names[i], dists[i][i])
		}
		for j := range i {
			d := dists[i][j]
			switch {
			case math.IsNaN(d) || math.IsInf(d, 0) || d < 0:
				return nil, fmt.Errorf("%w, distance between %s and %s is %f", pr.ErrValidation, names[i], names[j], d)
			case d != dists[j][i]:
				return nil, fmt.Errorf("%w, matrix is not symmetric at %s, %s", pr.ErrValidation, names[i], names[j])
			}
		}
	}
	m := &Matrix{names: slices.Clone(names), dists: make([][]float64, n)}
	for i := range n {
		m.dists[i] = slices.Clone(dists[i])
	}
	return m, nil
}

// Number of taxa
func (dm *Matrix) Len() int {
	return len(dm.names)
}

// Taxon labels in matrix order
func (dm *Matrix) Names() []string {
	return slices.Clone(dm.names)
}

func (dm *Matrix) At(i, j int) float64 {
	return dm.dists[i][j]
}

// Returns a copy of the matrix rows
func (dm *Matrix) Rows() [][]float64 {
	rows := make([][]float64, len(dm.dists))
	for i, r := range dm.dists {
		rows[i] = slices.Clone(r)
	}
	return rows
}
