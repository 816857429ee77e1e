// Package graph builds the 4-connected affinity graph of a pixel grid.
package graph

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/yyyoichi/segmentation_zero/internal/raster"
)

var (
	ErrInvalidInput = errors.New("graph: invalid input")
)

// DefaultTemperature is the scale of intensity differences in edge weights.
const DefaultTemperature = 10.0

// Edge is a stored directed entry from a pixel to its up or left neighbor.
type Edge struct {
	From, To int
	Weight   float64
}

// Graph is a sparse undirected weighted graph over the pixels of a grid.
//
// Only the up and left entries of every pixel are stored as edges; the
// neighbor structure is the symmetric closure of those edges in compressed
// row form, so Weight(i, j) == Weight(j, i) holds by construction.
type Graph struct {
	rows, cols int
	edges      []Edge

	// CSR of the symmetrized adjacency. Columns are sorted within a row.
	rowPtr  []int
	colIdx  []int
	weights []float64
}

// Build creates the affinity graph of g. Each pixel (i, j) is linked to
// (i-1, j) and (i, j-1) with weight exp(-|Δintensity|/temperature).
func Build(g raster.Grid, temperature float64) (*Graph, error) {
	if g.Empty() || len(g.Data) != g.Rows*g.Cols {
		return nil, fmt.Errorf("%w: grid shape %dx%d with %d values", ErrInvalidInput, g.Rows, g.Cols, len(g.Data))
	}
	if temperature <= 0 || math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return nil, fmt.Errorf("%w: temperature %v", ErrInvalidInput, temperature)
	}

	rows, cols := g.Rows, g.Cols
	edges := make([]Edge, 0, 2*rows*cols)
	for i := range rows {
		for j := range cols {
			index := i*cols + j
			if i > 0 {
				up := index - cols
				edges = append(edges, Edge{From: index, To: up, Weight: affinity(g.Data[index], g.Data[up], temperature)})
			}
			if j > 0 {
				left := index - 1
				edges = append(edges, Edge{From: index, To: left, Weight: affinity(g.Data[index], g.Data[left], temperature)})
			}
		}
	}
	return FromEdges(rows, cols, edges)
}

func affinity(a, b, temperature float64) float64 {
	return math.Exp(-math.Abs(a-b) / temperature)
}

// FromEdges compresses an edge list over a rows x cols grid into a graph.
// Every edge is stored in both directions; duplicate pairs are summed.
func FromEdges(rows, cols int, edges []Edge) (*Graph, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: grid shape %dx%d", ErrInvalidInput, rows, cols)
	}
	n := rows * cols
	degree := make([]int, n+1)
	for _, e := range edges {
		if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n || e.From == e.To {
			return nil, fmt.Errorf("%w: edge %d->%d outside %d nodes", ErrInvalidInput, e.From, e.To, n)
		}
		degree[e.From+1]++
		degree[e.To+1]++
	}
	rowPtr := degree
	for i := 1; i <= n; i++ {
		rowPtr[i] += rowPtr[i-1]
	}

	colIdx := make([]int, rowPtr[n])
	weights := make([]float64, rowPtr[n])
	next := make([]int, n)
	copy(next, rowPtr[:n])
	put := func(r, c int, w float64) {
		colIdx[next[r]] = c
		weights[next[r]] = w
		next[r]++
	}
	for _, e := range edges {
		put(e.From, e.To, e.Weight)
		put(e.To, e.From, e.Weight)
	}

	gr := &Graph{rows: rows, cols: cols, edges: edges, rowPtr: rowPtr, colIdx: colIdx, weights: weights}
	gr.compact()
	return gr, nil
}

// Coarsen merges every 2x2 block of pixels into one node of a grid of half
// the size, rounded up. The weight between two blocks is the sum of the
// weights between their pixels, so the Laplacian of the result is PᵀLP for
// the piecewise constant prolongation P.
func (g *Graph) Coarsen() (*Graph, error) {
	rows, cols := (g.rows+1)/2, (g.cols+1)/2
	if rows*cols == g.Len() {
		return nil, fmt.Errorf("%w: %dx%d grid cannot be coarsened", ErrInvalidInput, g.rows, g.cols)
	}

	edges := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		from, to := g.Block(e.From), g.Block(e.To)
		if from == to {
			continue
		}
		if from < to {
			from, to = to, from
		}
		edges = append(edges, Edge{From: from, To: to, Weight: e.Weight})
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	merged := edges[:0]
	for _, e := range edges {
		if last := len(merged) - 1; last >= 0 && merged[last].From == e.From && merged[last].To == e.To {
			merged[last].Weight += e.Weight
			continue
		}
		merged = append(merged, e)
	}
	return FromEdges(rows, cols, merged)
}

// Block returns the node of the coarsened graph that contains node i.
func (g *Graph) Block(i int) int {
	r, c := i/g.cols, i%g.cols
	return (r/2)*((g.cols+1)/2) + c/2
}

// compact sorts every row by column and merges duplicate entries.
func (g *Graph) compact() {
	n := g.Len()
	out := 0
	start := 0
	for r := range n {
		end := g.rowPtr[r+1]
		row := byColumn{cols: g.colIdx[start:end], weights: g.weights[start:end]}
		sort.Sort(row)
		rowStart := out
		for k := start; k < end; k++ {
			if out > rowStart && g.colIdx[out-1] == g.colIdx[k] {
				g.weights[out-1] += g.weights[k]
				continue
			}
			g.colIdx[out] = g.colIdx[k]
			g.weights[out] = g.weights[k]
			out++
		}
		start = end
		g.rowPtr[r+1] = out
	}
	g.colIdx = g.colIdx[:out]
	g.weights = g.weights[:out]
}

type byColumn struct {
	cols    []int
	weights []float64
}

func (b byColumn) Len() int           { return len(b.cols) }
func (b byColumn) Less(i, j int) bool { return b.cols[i] < b.cols[j] }
func (b byColumn) Swap(i, j int) {
	b.cols[i], b.cols[j] = b.cols[j], b.cols[i]
	b.weights[i], b.weights[j] = b.weights[j], b.weights[i]
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return g.rows * g.cols }

// Shape returns the grid shape the graph was built for.
func (g *Graph) Shape() (rows, cols int) { return g.rows, g.cols }

// Edges returns the stored directed entries. The slice must not be modified.
func (g *Graph) Edges() []Edge { return g.edges }

// NNZ returns the number of stored entries of the symmetrized adjacency.
func (g *Graph) NNZ() int { return len(g.colIdx) }

// Neighbors returns the adjacent nodes of i and the edge weights.
// The slices alias internal storage and must not be modified.
func (g *Graph) Neighbors(i int) (nodes []int, weights []float64) {
	lo, hi := g.rowPtr[i], g.rowPtr[i+1]
	return g.colIdx[lo:hi], g.weights[lo:hi]
}

// Weight returns the weight between i and j, or 0 if they are not adjacent.
func (g *Graph) Weight(i, j int) float64 {
	nodes, weights := g.Neighbors(i)
	k := sort.SearchInts(nodes, j)
	if k < len(nodes) && nodes[k] == j {
		return weights[k]
	}
	return 0
}

// Degrees returns the sum of incident edge weights of every node.
func (g *Graph) Degrees() []float64 {
	n := g.Len()
	degrees := make([]float64, n)
	for i := range n {
		_, weights := g.Neighbors(i)
		for _, w := range weights {
			degrees[i] += w
		}
	}
	return degrees
}
