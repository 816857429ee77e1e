// Package quality scores label maps against the features they were
// computed from.
package quality

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrSingleCluster   = errors.New("quality: silhouette needs at least 2 clusters")
	ErrTooManyClusters = errors.New("quality: silhouette needs fewer clusters than samples")
	ErrLabelMismatch   = errors.New("quality: labels do not match samples")
)

// Silhouette returns the mean silhouette coefficient of labels over the rows
// of x using the Euclidean distance. Points in singleton clusters score 0.
func Silhouette(x *mat.Dense, labels []int) (float64, error) {
	n, d := x.Dims()
	if len(labels) != n {
		return 0, fmt.Errorf("%w: %d labels for %d samples", ErrLabelMismatch, len(labels), n)
	}
	ids, k := compact(labels)
	if k < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrSingleCluster, k)
	}
	if k >= n {
		return 0, fmt.Errorf("%w: %d clusters for %d samples", ErrTooManyClusters, k, n)
	}

	if d == 1 {
		return silhouette1D(mat.Col(nil, 0, x), ids, k), nil
	}
	return silhouetteDense(x, ids, k), nil
}

// compact maps arbitrary label values onto 0..k-1.
func compact(labels []int) ([]int, int) {
	index := make(map[int]int)
	ids := make([]int, len(labels))
	for i, l := range labels {
		id, ok := index[l]
		if !ok {
			id = len(index)
			index[l] = id
		}
		ids[i] = id
	}
	return ids, len(index)
}

// coefficient combines the mean intra-cluster distance a and the mean
// nearest-cluster distance b.
func coefficient(a, b float64, size int) float64 {
	if size < 2 {
		return 0
	}
	den := math.Max(a, b)
	if den == 0 {
		return 0
	}
	return (b - a) / den
}

func mean(scores []float64) float64 {
	return floats.Sum(scores) / float64(len(scores))
}

// silhouette1D sums absolute distances with sorted prefix sums per cluster.
func silhouette1D(v []float64, ids []int, k int) float64 {
	members := make([][]float64, k)
	for i, id := range ids {
		members[id] = append(members[id], v[i])
	}
	prefix := make([][]float64, k)
	for c, m := range members {
		sort.Float64s(m)
		p := make([]float64, len(m)+1)
		for i, val := range m {
			p[i+1] = p[i] + val
		}
		prefix[c] = p
	}

	// distSum returns the sum of |x - y| over the members of cluster c.
	distSum := func(x float64, c int) float64 {
		m, p := members[c], prefix[c]
		below := sort.SearchFloat64s(m, x)
		total := p[len(m)]
		return x*float64(below) - p[below] + (total - p[below]) - x*float64(len(m)-below)
	}

	scores := make([]float64, len(v))
	for i, x := range v {
		own := ids[i]
		size := len(members[own])
		if size < 2 {
			continue
		}
		a := distSum(x, own) / float64(size-1)
		b := math.Inf(1)
		for c := range k {
			if c == own {
				continue
			}
			b = math.Min(b, distSum(x, c)/float64(len(members[c])))
		}
		scores[i] = coefficient(a, b, size)
	}
	return mean(scores)
}

// silhouetteDense computes all pairwise distances once per pair.
func silhouetteDense(x *mat.Dense, ids []int, k int) float64 {
	n, _ := x.Dims()
	sizes := make([]int, k)
	for _, id := range ids {
		sizes[id]++
	}
	// sums[i*k+c] is the distance sum from point i to cluster c
	sums := make([]float64, n*k)
	for i := range n {
		ri := x.RawRowView(i)
		for j := i + 1; j < n; j++ {
			dist := floats.Distance(ri, x.RawRowView(j), 2)
			sums[i*k+ids[j]] += dist
			sums[j*k+ids[i]] += dist
		}
	}

	scores := make([]float64, n)
	for i := range n {
		own := ids[i]
		if sizes[own] < 2 {
			continue
		}
		a := sums[i*k+own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := range k {
			if c == own {
				continue
			}
			b = math.Min(b, sums[i*k+c]/float64(sizes[c]))
		}
		scores[i] = coefficient(a, b, sizes[own])
	}
	return mean(scores)
}
