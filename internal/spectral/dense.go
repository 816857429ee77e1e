package spectral

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var _ EigenSolver = Dense{}

// Dense copies the operator into a dense symmetric matrix and runs a full
// symmetric eigendecomposition. Memory grows with n², so it only suits small
// graphs.
type Dense struct{}

func (Dense) Smallest(op Operator, k int) (*Eigenpairs, error) {
	n := op.SymmetricDim()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: %d eigenpairs requested from dimension %d", ErrSpectralFailure, k, n)
	}

	a := mat.NewSymDense(n, nil)
	a.CopySym(op)

	var result mat.EigenSym
	if ok := result.Factorize(a, true); !ok {
		return nil, fmt.Errorf("%w: cannot factorize", ErrSpectralFailure)
	}
	var vectors mat.Dense
	result.VectorsTo(&vectors)
	return selectPairs(result.Values(nil), &vectors, k), nil
}
