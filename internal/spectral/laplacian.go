package spectral

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/yyyoichi/segmentation_zero/internal/graph"
)

var (
	_ Operator   = (*Laplacian)(nil)
	_ NullSpacer = (*Laplacian)(nil)
)

// Laplacian is the sparse unnormalized graph Laplacian L = D - W.
type Laplacian struct {
	g       *graph.Graph
	degrees []float64
}

func NewLaplacian(g *graph.Graph) *Laplacian {
	return &Laplacian{g: g, degrees: g.Degrees()}
}

func (l *Laplacian) Dims() (r, c int) {
	n := l.g.Len()
	return n, n
}

func (l *Laplacian) SymmetricDim() int { return l.g.Len() }

func (l *Laplacian) At(i, j int) float64 {
	if i == j {
		return l.degrees[i]
	}
	return -l.g.Weight(i, j)
}

func (l *Laplacian) T() mat.Matrix { return l }

// Degrees returns the diagonal of L.
func (l *Laplacian) Degrees() []float64 { return l.degrees }

// MulVecTo computes dst = L*x.
func (l *Laplacian) MulVecTo(dst, x []float64) {
	for i := range dst {
		v := l.degrees[i] * x[i]
		nodes, weights := l.g.Neighbors(i)
		for k, j := range nodes {
			v -= weights[k] * x[j]
		}
		dst[i] = v
	}
}

// SpectralBound returns the Gershgorin bound 2*max(degree), which is not
// below the largest eigenvalue of L.
func (l *Laplacian) SpectralBound() float64 {
	var bound float64
	for _, d := range l.degrees {
		bound = max(bound, 2*d)
	}
	return bound
}

// NullSpace returns the normalized constant vector, which L maps to zero.
func (l *Laplacian) NullSpace() [][]float64 {
	n := l.g.Len()
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1 / math.Sqrt(float64(n))
	}
	return [][]float64{ones}
}
