// Package kmeans implements Lloyd's k-means over the rows of a dense feature
// matrix.
package kmeans

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidConfig     = errors.New("kmeans: invalid configuration")
	ErrDegenerateCluster = errors.New("kmeans: cluster has no rows")
)

// rtol is the relative tolerance of the centroid closeness test.
const rtol = 1e-5

// Clusterer partitions feature rows into k clusters. A Clusterer holds only
// configuration; every Fit call owns its centroids and random generator.
type Clusterer struct {
	k       int
	maxIter int
	seed    int64
	atol    float64
	policy  Policy
}

// Result is the outcome of a Fit call.
type Result struct {
	// Labels holds one cluster index in [0, k) per feature row.
	Labels []int
	// Centroids is the k x D matrix after the last update step.
	Centroids *mat.Dense
	// Iterations is the number of assignment steps performed.
	Iterations int
	// Converged is false when the run stopped at the iteration limit.
	Converged bool
	// Inertia[t] is the within-cluster sum of squared distances of
	// assignment t, measured against the centroids used for that assignment.
	Inertia []float64
}

// New returns a clusterer for k clusters.
// Defaults: 300 iterations, seed 42, tolerance 1e-4, PolicyError.
func New(k int, opts ...Option) (*Clusterer, error) {
	c := &Clusterer{
		k:       k,
		maxIter: 300,
		seed:    42,
		atol:    1e-4,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.k < 1 {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidConfig, c.k)
	}
	if c.maxIter < 1 {
		return nil, fmt.Errorf("%w: max iterations %d", ErrInvalidConfig, c.maxIter)
	}
	if c.atol < 0 || math.IsNaN(c.atol) {
		return nil, fmt.Errorf("%w: tolerance %v", ErrInvalidConfig, c.atol)
	}
	if c.policy != PolicyError && c.policy != PolicyFarthestPoint {
		return nil, fmt.Errorf("%w: empty cluster policy %d", ErrInvalidConfig, c.policy)
	}
	return c, nil
}

// K returns the number of clusters.
func (c *Clusterer) K() int { return c.k }

// Fit clusters the rows of x.
//
// Process:
//  1. Picks k rows of x as initial centroids using a generator seeded with
//     the configured seed, preferring rows with distinct values.
//  2. Assigns every row to its nearest centroid.
//  3. Moves every centroid to the mean of its rows.
//  4. Stops when no centroid moved beyond the tolerance, or after the
//     iteration limit.
//
// Returns ErrInvalidConfig if k exceeds the number of rows, and
// ErrDegenerateCluster if a cluster empties under PolicyError.
func (c *Clusterer) Fit(x *mat.Dense) (*Result, error) {
	if x == nil || x.IsEmpty() {
		return nil, fmt.Errorf("%w: empty feature matrix", ErrInvalidConfig)
	}
	n, d := x.Dims()
	if c.k > n {
		return nil, fmt.Errorf("%w: k=%d exceeds %d rows", ErrInvalidConfig, c.k, n)
	}

	centroids := c.initialize(x)
	stores := make([]*AverageStore, c.k)
	for i := range stores {
		stores[i] = NewAverageStore(d)
	}

	res := &Result{Inertia: make([]float64, 0, min(c.maxIter, 64))}
	for range c.maxIter {
		res.Labels = Assign(x, centroids)
		res.Inertia = append(res.Inertia, Inertia(x, res.Labels, centroids))
		res.Iterations++

		next, err := c.update(x, res.Labels, centroids, stores)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", res.Iterations, err)
		}
		closeEnough := allClose(centroids, next, c.atol)
		centroids = next
		if closeEnough {
			res.Converged = true
			break
		}
	}
	res.Centroids = centroids
	return res, nil
}

// initialize picks k rows in the order of a seeded permutation. Rows equal to
// an already picked row are passed over while enough distinct rows remain.
func (c *Clusterer) initialize(x *mat.Dense) *mat.Dense {
	n, d := x.Dims()
	rd := rand.New(rand.NewPCG(uint64(c.seed), uint64(c.seed)))
	perm := rd.Perm(n)

	picked := make([]int, 0, c.k)
	var repeated []int
	for _, i := range perm {
		if len(picked) == c.k {
			break
		}
		row := x.RawRowView(i)
		if slices.ContainsFunc(picked, func(p int) bool { return sqDist(row, x.RawRowView(p)) == 0 }) {
			repeated = append(repeated, i)
			continue
		}
		picked = append(picked, i)
	}
	picked = append(picked, repeated[:c.k-len(picked)]...)

	centroids := mat.NewDense(c.k, d, nil)
	for j, i := range picked {
		centroids.SetRow(j, x.RawRowView(i))
	}
	return centroids
}

func (c *Clusterer) update(x *mat.Dense, labels []int, centroids *mat.Dense, stores []*AverageStore) (*mat.Dense, error) {
	_, d := x.Dims()
	for _, s := range stores {
		s.Reset()
	}
	for i, l := range labels {
		stores[l].Add(x.RawRowView(i))
	}

	next := mat.NewDense(c.k, d, nil)
	var empty []int
	for j, s := range stores {
		if s.Count() == 0 {
			empty = append(empty, j)
			continue
		}
		s.AverageTo(next.RawRowView(j))
	}
	if len(empty) == 0 {
		return next, nil
	}
	if c.policy == PolicyError {
		return nil, fmt.Errorf("%w: cluster %d", ErrDegenerateCluster, empty[0])
	}
	reseedFarthest(x, labels, centroids, next, empty)
	return next, nil
}

// reseedFarthest moves every empty centroid onto the row that is farthest from
// its assigned centroid. A row is used for at most one reseed.
func reseedFarthest(x *mat.Dense, labels []int, centroids, next *mat.Dense, empty []int) {
	n, _ := x.Dims()
	dist := make([]float64, n)
	for i, l := range labels {
		dist[i] = sqDist(x.RawRowView(i), centroids.RawRowView(l))
	}
	taken := make(map[int]bool, len(empty))
	for _, j := range empty {
		best := -1
		for i, v := range dist {
			if taken[i] {
				continue
			}
			if best < 0 || v > dist[best] {
				best = i
			}
		}
		taken[best] = true
		next.SetRow(j, x.RawRowView(best))
	}
}

// Assign returns, for every row of x, the index of the nearest centroid.
// Ties go to the lowest centroid index.
func Assign(x, centroids *mat.Dense) []int {
	n, _ := x.Dims()
	k, _ := centroids.Dims()
	labels := make([]int, n)
	for i := range n {
		row := x.RawRowView(i)
		best, bestDist := 0, sqDist(row, centroids.RawRowView(0))
		for j := 1; j < k; j++ {
			if dist := sqDist(row, centroids.RawRowView(j)); dist < bestDist {
				best, bestDist = j, dist
			}
		}
		labels[i] = best
	}
	return labels
}

// Inertia returns the sum of squared distances between every row and the
// centroid it is labeled with.
func Inertia(x *mat.Dense, labels []int, centroids *mat.Dense) float64 {
	var sum float64
	for i, l := range labels {
		sum += sqDist(x.RawRowView(i), centroids.RawRowView(l))
	}
	return sum
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		d := v - b[i]
		sum += d * d
	}
	return sum
}

// allClose reports |a-b| <= atol + rtol*|b| for every element.
func allClose(a, b *mat.Dense, atol float64) bool {
	ra, rb := a.RawMatrix(), b.RawMatrix()
	for i := range ra.Rows {
		rowA := ra.Data[i*ra.Stride : i*ra.Stride+ra.Cols]
		rowB := rb.Data[i*rb.Stride : i*rb.Stride+rb.Cols]
		for j, v := range rowA {
			if math.Abs(v-rowB[j]) > atol+rtol*math.Abs(rowB[j]) {
				return false
			}
		}
	}
	return true
}
