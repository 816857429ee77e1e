package spectral

import (
	"fmt"
	"slices"

	"github.com/yyyoichi/segmentation_zero/internal/graph"
	"github.com/yyyoichi/segmentation_zero/internal/raster"
)

// Partitioner splits a pixel graph into two groups at the median of its
// Fiedler vector.
type Partitioner struct {
	solver EigenSolver
}

// NewPartitioner returns a Partitioner using solver. A nil solver falls back
// to Lanczos with the default parameters.
func NewPartitioner(solver EigenSolver) *Partitioner {
	if solver == nil {
		solver = NewLanczos(0)
	}
	return &Partitioner{solver: solver}
}

// Partition labels every pixel 0 or 1. The result always has exactly two
// groups regardless of how many clusters the caller asked for.
func (p *Partitioner) Partition(g *graph.Graph, rows, cols int) (raster.Labels, error) {
	n := g.Len()
	if rows*cols != n {
		return raster.Labels{}, fmt.Errorf("%w: %dx%d grid for %d nodes", graph.ErrInvalidInput, rows, cols, n)
	}
	fiedler, err := p.Fiedler(g)
	if err != nil {
		return raster.Labels{}, err
	}
	threshold := median(fiedler)

	labels := make([]int, n)
	for i, v := range fiedler {
		if v > threshold {
			labels[i] = 1
		}
	}
	return raster.NewLabels(rows, cols, labels)
}

// coarseNodes is the graph size below which the Fiedler vector is computed
// without a warm start.
const coarseNodes = 1024

// Fiedler returns the eigenvector of the second smallest Laplacian eigenvalue.
//
// With a WarmStarter solver, large graphs are solved coarse to fine: the
// graph is coarsened by 2x2 blocks until it is small, and the Fiedler vector
// of every level, replicated onto the next finer one, seeds its solve.
func (p *Partitioner) Fiedler(g *graph.Graph) ([]float64, error) {
	if g.Len() < 2 {
		return nil, fmt.Errorf("%w: graph with %d nodes has no fiedler vector", ErrSpectralFailure, g.Len())
	}
	ws, ok := p.solver.(WarmStarter)
	if !ok || g.Len() <= coarseNodes {
		return p.fiedler(g)
	}
	coarse, err := g.Coarsen()
	if err != nil {
		return p.fiedler(g)
	}
	guess, err := p.Fiedler(coarse)
	if err != nil {
		// cold start
		return p.fiedler(g)
	}
	fine := make([]float64, g.Len())
	for i := range fine {
		fine[i] = guess[g.Block(i)]
	}
	pairs, err := ws.SmallestFrom(NewLaplacian(g), 2, [][]float64{fine})
	if err != nil {
		return nil, err
	}
	return pairs.Vector(1), nil
}

func (p *Partitioner) fiedler(g *graph.Graph) ([]float64, error) {
	pairs, err := p.solver.Smallest(NewLaplacian(g), 2)
	if err != nil {
		return nil, err
	}
	return pairs.Vector(1), nil
}

// median averages the two middle values for even lengths.
func median(v []float64) float64 {
	sorted := slices.Clone(v)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
