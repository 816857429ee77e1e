// Package spectral bipartitions pixel graphs with the Fiedler vector of their
// Laplacian.
package spectral

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrSpectralFailure = errors.New("spectral: eigensolver failed")
)

// Operator is a symmetric matrix that can also be applied to a vector without
// materializing it.
type Operator interface {
	mat.Symmetric
	// MulVecTo computes dst = A*x.
	MulVecTo(dst, x []float64)
	// SpectralBound returns an upper bound of the largest eigenvalue magnitude.
	SpectralBound() float64
}

// EigenSolver computes the k eigenpairs of smallest magnitude of a symmetric
// operator.
type EigenSolver interface {
	Smallest(op Operator, k int) (*Eigenpairs, error)
}

// WarmStarter is an EigenSolver that can start from approximate eigenvectors.
type WarmStarter interface {
	EigenSolver
	SmallestFrom(op Operator, k int, guess [][]float64) (*Eigenpairs, error)
}

// NullSpacer is implemented by operators with known orthonormal vectors in
// their kernel.
type NullSpacer interface {
	NullSpace() [][]float64
}

// Eigenpairs holds eigenvalues in ascending magnitude and the matching
// eigenvectors as the columns of Vectors.
type Eigenpairs struct {
	Values  []float64
	Vectors *mat.Dense
}

// Vector returns a copy of the j-th eigenvector.
func (e *Eigenpairs) Vector(j int) []float64 {
	return mat.Col(nil, j, e.Vectors)
}

// byMagnitude returns the indices of values ordered by |value|.
func byMagnitude(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(values[order[a]]) < math.Abs(values[order[b]])
	})
	return order
}

// selectPairs keeps the k pairs of smallest magnitude from values and the
// columns of vectors.
func selectPairs(values []float64, vectors *mat.Dense, k int) *Eigenpairs {
	n, _ := vectors.Dims()
	order := byMagnitude(values)[:k]
	out := &Eigenpairs{
		Values:  make([]float64, k),
		Vectors: mat.NewDense(n, k, nil),
	}
	col := make([]float64, n)
	for j, idx := range order {
		out.Values[j] = values[idx]
		mat.Col(col, idx, vectors)
		out.Vectors.SetCol(j, col)
	}
	return out
}
