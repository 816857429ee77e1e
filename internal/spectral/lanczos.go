package spectral

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultLanczosSteps    = 64
	DefaultLanczosRestarts = 300
	DefaultLanczosTol      = 1e-8
)

var (
	_ EigenSolver = Lanczos{}
	_ WarmStarter = Lanczos{}
)

// Lanczos finds the smallest eigenpairs of a positive semidefinite operator
// by running the Lanczos iteration on the shifted operator σI - A, whose
// largest eigenvalues map to the smallest of A.
//
// Vectors the operator reports through NullSpacer are deflated: they are
// returned as they are and the iteration runs in their orthogonal
// complement. The basis is fully reorthogonalized. When it is full, the
// iteration thick-restarts from the best half of its Ritz vectors and goes on
// until every wanted residual ‖Ay - θy‖ is within Tol*σ.
//
// The basis holds up to MaxSteps vectors of the operator's dimension.
type Lanczos struct {
	MaxSteps int
	Restarts int
	Tol      float64
	Seed     uint64
}

// NewLanczos returns a Lanczos solver with the default parameters.
func NewLanczos(seed uint64) Lanczos {
	return Lanczos{
		MaxSteps: DefaultLanczosSteps,
		Restarts: DefaultLanczosRestarts,
		Tol:      DefaultLanczosTol,
		Seed:     seed,
	}
}

func (lz Lanczos) Smallest(op Operator, k int) (*Eigenpairs, error) {
	return lz.SmallestFrom(op, k, nil)
}

// SmallestFrom is Smallest with the iteration seeded by approximate
// eigenvectors. Guesses that are degenerate after deflation are ignored.
func (lz Lanczos) SmallestFrom(op Operator, k int, guess [][]float64) (*Eigenpairs, error) {
	n := op.SymmetricDim()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: %d eigenpairs requested from dimension %d", ErrSpectralFailure, k, n)
	}
	if lz.MaxSteps < k || lz.Restarts < 0 || !(lz.Tol > 0) {
		return nil, fmt.Errorf("%w: invalid lanczos parameters %+v", ErrSpectralFailure, lz)
	}

	var null [][]float64
	if ns, ok := op.(NullSpacer); ok {
		null = ns.NullSpace()
	}
	null = null[:min(len(null), k)]
	wanted := k - len(null)

	values := make([]float64, 0, k)
	vectors := mat.NewDense(n, k, nil)
	ax := make([]float64, n)
	for j, z := range null {
		op.MulVecTo(ax, z)
		values = append(values, floats.Dot(z, ax))
		vectors.SetCol(j, z)
	}
	if wanted == 0 {
		return selectPairs(values, vectors, k), nil
	}

	sigma := op.SpectralBound()
	if !(sigma > 0) {
		// edgeless graph; the operator is zero
		sigma = 1
	}
	// the iteration space is the complement of the null vectors
	dim := n - len(null)
	size := min(lz.MaxSteps, dim)
	if size <= wanted && size < dim {
		return nil, fmt.Errorf("%w: basis of %d vectors cannot hold %d eigenpairs", ErrSpectralFailure, size, wanted)
	}
	keep := min(max(wanted, size/2), size-1)
	if size == dim {
		keep = min(max(wanted, size/2), size)
	}

	kr := &krylov{
		op:      op,
		sigma:   sigma,
		locked:  null,
		basis:   make([][]float64, 0, size),
		columns: make([][]float64, 0, size),
		rd:      rand.New(rand.NewPCG(lz.Seed, lz.Seed)),
	}
	for _, g := range guess[:min(len(guess), size-1)] {
		kr.push(g)
	}
	if len(kr.basis) == 0 {
		kr.pushRandom()
	}

	var worst float64
	for attempt := 0; attempt <= lz.Restarts; attempt++ {
		kr.extend(size)

		theta, ritz, err := kr.ritz(keep)
		if err != nil {
			return nil, err
		}

		worst = 0
		var restart []float64
		var restartNorm float64
		for j := range wanted {
			y := ritz[j]
			op.MulVecTo(ax, y)
			lambda := sigma - theta[j]
			floats.AddScaled(ax, -lambda, y)
			norm := floats.Norm(ax, 2)
			worst = max(worst, norm)
			if norm > restartNorm {
				restart = append(restart[:0], ax...)
				restartNorm = norm
			}
		}
		if worst <= lz.Tol*sigma || len(kr.basis) == dim {
			for j := range wanted {
				values = append(values, sigma-theta[j])
				vectors.SetCol(len(null)+j, ritz[j])
			}
			return selectPairs(values, vectors, k), nil
		}

		// thick restart: keep the Ritz vectors and continue along the
		// worst residual, which is orthogonal to the whole basis
		kr.reset(theta, ritz)
		if !kr.push(restart) {
			kr.pushRandom()
		}
	}
	return nil, fmt.Errorf("%w: lanczos did not converge after %d restarts (residual %.3g)",
		ErrSpectralFailure, lz.Restarts, worst)
}

// krylov is the orthonormal basis V of one Lanczos run together with the
// projection H = Vᵀ(σI - A)V. columns[b][a] holds H[a][b] for a <= b.
type krylov struct {
	op      Operator
	sigma   float64
	locked  [][]float64
	basis   [][]float64
	columns [][]float64
	// w is (σI - A) applied to the last basis vector with the basis removed
	w  []float64
	rd *rand.Rand
}

// push orthonormalizes v against the locked vectors and the basis and
// appends it. It reports false when nothing of v remains.
func (kr *krylov) push(v []float64) bool {
	if len(kr.basis)+len(kr.locked) >= len(v) {
		return false
	}
	q := make([]float64, len(v))
	copy(q, v)
	orthogonalize(q, kr.locked)
	orthogonalize(q, kr.basis)
	norm := floats.Norm(q, 2)
	if !(norm > 1e-10*floats.Norm(v, 2)) || math.IsInf(norm, 0) {
		return false
	}
	floats.Scale(1/norm, q)
	kr.basis = append(kr.basis, q)

	// w = (σI - A) q
	w := make([]float64, len(q))
	kr.op.MulVecTo(w, q)
	floats.Scale(-1, w)
	floats.AddScaled(w, kr.sigma, q)

	column := make([]float64, len(kr.basis))
	for range 2 {
		for a, b := range kr.basis {
			c := floats.Dot(w, b)
			column[a] += c
			floats.AddScaled(w, -c, b)
		}
	}
	orthogonalize(w, kr.locked)
	kr.columns = append(kr.columns, column)
	kr.w = w
	return true
}

// pushRandom appends a random direction. It reports false when the basis
// already spans the whole space.
func (kr *krylov) pushRandom() bool {
	n := kr.op.SymmetricDim()
	v := make([]float64, n)
	for range 8 {
		for i := range v {
			v[i] = kr.rd.NormFloat64()
		}
		if kr.push(v) {
			return true
		}
	}
	return false
}

// extend grows the basis to size vectors with the Lanczos recurrence. An
// invariant subspace continues in a random direction.
func (kr *krylov) extend(size int) {
	breakdown := 1e-12 * kr.sigma
	for len(kr.basis) < size {
		if floats.Norm(kr.w, 2) > breakdown && kr.push(kr.w) {
			continue
		}
		if !kr.pushRandom() {
			return
		}
	}
}

// ritz returns the keep largest Ritz values of σI - A in descending order
// with their Ritz vectors.
func (kr *krylov) ritz(keep int) ([]float64, [][]float64, error) {
	m := len(kr.basis)
	keep = min(keep, m)
	h := mat.NewSymDense(m, nil)
	for b, column := range kr.columns {
		for a, v := range column {
			h.SetSym(a, b, v)
		}
	}
	var es mat.EigenSym
	if ok := es.Factorize(h, true); !ok {
		return nil, nil, fmt.Errorf("%w: cannot factorize projected matrix", ErrSpectralFailure)
	}
	theta := es.Values(nil)
	var s mat.Dense
	es.VectorsTo(&s)

	values := make([]float64, keep)
	vectors := make([][]float64, keep)
	n := kr.op.SymmetricDim()
	for j := range keep {
		idx := m - 1 - j
		values[j] = theta[idx]
		y := make([]float64, n)
		for r, q := range kr.basis {
			floats.AddScaled(y, s.At(r, idx), q)
		}
		if norm := floats.Norm(y, 2); norm > 0 {
			floats.Scale(1/norm, y)
		}
		vectors[j] = y
	}
	return values, vectors, nil
}

// reset replaces the basis by Ritz vectors. Their projection is diagonal.
func (kr *krylov) reset(theta []float64, ritz [][]float64) {
	kr.basis = kr.basis[:0]
	kr.columns = kr.columns[:0]
	for j, y := range ritz {
		kr.basis = append(kr.basis, y)
		column := make([]float64, j+1)
		column[j] = theta[j]
		kr.columns = append(kr.columns, column)
	}
	kr.w = nil
}

// orthogonalize removes the components of w along every basis vector.
// Two passes keep the basis orthogonal in floating point.
func orthogonalize(w []float64, basis [][]float64) {
	for range 2 {
		for _, q := range basis {
			floats.AddScaled(w, -floats.Dot(w, q), q)
		}
	}
}
