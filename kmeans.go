package colorhull

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Clustering is a partition of a point set into K labeled groups.
type Clustering struct {
	Centroids []clusters.Coordinates // len = K
	Labels    []int                  // len = N, values in [0,K)
}

// K returns the number of centroids, including empty clusters.
func (c *Clustering) K() int { return len(c.Centroids) }

// Sizes returns the member count of every label.
func (c *Clustering) Sizes() []int {
	sizes := make([]int, len(c.Centroids))
	for _, l := range c.Labels {
		sizes[l]++
	}
	return sizes
}

// Empty returns the number of clusters without members.
func (c *Clustering) Empty() int {
	n := 0
	for _, s := range c.Sizes() {
		if s == 0 {
			n++
		}
	}
	return n
}

// Clusterer partitions points into k clusters. Empty clusters are allowed.
type Clusterer interface {
	Partition(points Points, k int) (*Clustering, error)
}

// NewClusterer builds the clusterer selected by opt.Method.
func NewClusterer(opt Options) Clusterer {
	if opt.Method == MethodMuesli {
		return Muesli{}
	}
	seed := opt.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Lloyd{
		MaxIterations: opt.MaxIterations,
		Init:          opt.Init,
		Source:        rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
}

// Lloyd is a seeded k-means that tolerates empty clusters. A cluster that
// loses all members keeps its previous centroid.
type Lloyd struct {
	MaxIterations int
	Init          InitMethod
	Source        rand.Source
}

func (l *Lloyd) Partition(points Points, k int) (*Clustering, error) {
	n := len(points)
	if n == 0 {
		return nil, errors.New("kmeans: empty point set")
	}
	if k <= 0 {
		return nil, fmt.Errorf("kmeans: k must be > 0, got %d", k)
	}
	iters := l.MaxIterations
	if iters <= 0 {
		iters = 10
	}

	var centroids []clusters.Coordinates
	if l.Init == InitPoints {
		centroids = l.seedFromPoints(points, k)
	} else {
		var ok bool
		centroids, ok = l.seedFromNormal(points, k)
		if !ok {
			centroids = l.seedFromPoints(points, k)
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	dims := points.Dims()
	sums := make([]float64, k*dims)
	counts := make([]int, k)

	for range iters {
		changed := false
		for i, p := range points {
			best := nearest(centroids, p)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		clear(sums)
		clear(counts)
		for i, p := range points {
			off := labels[i] * dims
			for j, v := range p {
				sums[off+j] += v
			}
			counts[labels[i]]++
		}
		for c := range k {
			if counts[c] == 0 {
				continue
			}
			cnt := float64(counts[c])
			for j := range dims {
				centroids[c][j] = sums[c*dims+j] / cnt
			}
		}
	}

	// Labels must match the final centroids.
	for i, p := range points {
		labels[i] = nearest(centroids, p)
	}
	return &Clustering{Centroids: centroids, Labels: labels}, nil
}

// nearest returns the lowest index among the closest centroids.
func nearest(centroids []clusters.Coordinates, p clusters.Coordinates) int {
	best := 0
	bestD := math.Inf(1)
	for c, ctr := range centroids {
		if d := p.Distance(ctr); d < bestD {
			bestD = d
			best = c
		}
	}
	return best
}

// seedFromPoints picks k distinct points. When k exceeds the point count every
// point becomes a centroid and the rest are duplicates, which stay empty.
func (l *Lloyd) seedFromPoints(points Points, k int) []clusters.Coordinates {
	n := len(points)
	out := make([]clusters.Coordinates, 0, k)
	if k <= n {
		idx := make([]int, k)
		sampleuv.WithoutReplacement(idx, n, l.Source)
		for _, i := range idx {
			out = append(out, clone(points[i]))
		}
		return out
	}
	for _, p := range points {
		out = append(out, clone(p))
	}
	rnd := rand.New(l.Source)
	for len(out) < k {
		out = append(out, clone(points[rnd.IntN(n)]))
	}
	return out
}

// seedFromNormal samples k centroids from a normal distribution with the mean
// and covariance of the data. It fails when the covariance is singular, for
// example when all points share a channel value.
func (l *Lloyd) seedFromNormal(points Points, k int) ([]clusters.Coordinates, bool) {
	n, dims := len(points), points.Dims()
	if n <= dims {
		return nil, false
	}
	data := mat.NewDense(n, dims, nil)
	for i, p := range points {
		data.SetRow(i, p)
	}
	mu := make([]float64, dims)
	col := make([]float64, n)
	for j := range dims {
		mat.Col(col, j, data)
		mu[j] = stat.Mean(col, nil)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	normal, ok := distmv.NewNormal(mu, &cov, l.Source)
	if !ok {
		return nil, false
	}
	out := make([]clusters.Coordinates, k)
	for c := range out {
		out[c] = normal.Rand(nil)
	}
	return out, true
}

func clone(p clusters.Coordinates) clusters.Coordinates {
	return append(clusters.Coordinates(nil), p...)
}

// Muesli partitions with github.com/muesli/kmeans. Its initialization uses the
// global random source, so results are not reproducible, and it refuses k
// larger than the point count.
type Muesli struct {
	// Delta threshold passed to kmeans.NewWithOptions. 0 uses the library default.
	DeltaThreshold float64
}

func (m Muesli) Partition(points Points, k int) (*Clustering, error) {
	km := kmeans.New()
	if m.DeltaThreshold > 0 {
		var err error
		km, err = kmeans.NewWithOptions(m.DeltaThreshold, nil)
		if err != nil {
			return nil, fmt.Errorf("kmeans: %w", err)
		}
	}
	cc, err := km.Partition(points.Observations(), k)
	if err != nil {
		return nil, fmt.Errorf("kmeans: %w", err)
	}
	out := &Clustering{
		Centroids: make([]clusters.Coordinates, len(cc)),
		Labels:    make([]int, len(points)),
	}
	for i, c := range cc {
		out.Centroids[i] = clone(c.Center)
	}
	for i, p := range points {
		out.Labels[i] = cc.Nearest(p)
	}
	return out, nil
}
