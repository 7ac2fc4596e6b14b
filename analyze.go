package colorhull

import (
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Report is the result of one analysis run.
type Report struct {
	K          int
	Points     Points
	Clustering *Clustering
	*SearchResult
}

// Analyzer runs extract, cluster and leave-one-out search in sequence.
type Analyzer struct {
	Options   Options
	Clusterer Clusterer
}

// NewAnalyzer validates opt and builds the clusterer it selects.
func NewAnalyzer(opt Options) (*Analyzer, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{Options: opt, Clusterer: NewClusterer(opt)}, nil
}

// AnalyzeImage extracts points from img and analyzes them. img is expected to
// be downscaled already when Options.MaxWidth applies.
func (a *Analyzer) AnalyzeImage(img image.Image) (*Report, error) {
	return a.Analyze(ExtractPoints(img, a.Options.WithPosition))
}

// Analyze clusters points and searches for the cluster whose exclusion
// shrinks the color hull the most.
func (a *Analyzer) Analyze(points Points) (*Report, error) {
	if len(points) == 0 {
		return nil, ErrInsufficientPoints
	}
	k := a.Options.ClusterCount(len(points))
	cl, err := a.Clusterer.Partition(points, k)
	if err != nil {
		return nil, fmt.Errorf("clustering %d points into %d: %w", len(points), k, err)
	}
	if empty := cl.Empty(); empty > 0 {
		log.Printf("kmeans warning: %d of %d clusters are empty", empty, cl.K())
	}

	res, err := Search(points.Colors(), cl.Labels)
	if err != nil {
		return nil, err
	}
	for _, c := range res.Candidates {
		if c.Skipped {
			log.Printf("hull warning: excluding label %d (%d points) leaves no hull, skipped", c.Label, c.Members)
		}
	}
	return &Report{K: k, Points: points, Clustering: cl, SearchResult: res}, nil
}

// Excluded returns the points carrying the best label.
func (r *Report) Excluded() Points {
	var out Points
	for i, l := range r.Clustering.Labels {
		if l == r.BestLabel {
			out = append(out, r.Points[i])
		}
	}
	return out
}

// BestCentroid returns the centroid of the excluded cluster as a color.
func (r *Report) BestCentroid() colorful.Color {
	c := r.Clustering.Centroids[r.BestLabel]
	return colorful.Color{R: c[0], G: c[1], B: c[2]}.Clamped()
}

// Summary formats the report the way the command line prints it.
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "points: %d\n", len(r.Points))
	fmt.Fprintf(&sb, "K = %d (%d empty)\n", r.K, r.Clustering.Empty())
	fmt.Fprintf(&sb, "cluster sizes: %v\n", r.Clustering.Sizes())
	fmt.Fprintf(&sb, "baseline volume: %.6f\n", r.BaselineVolume())
	fmt.Fprintf(&sb, "best label: %d, centroid %s\n", r.BestLabel, r.BestCentroid().Hex())
	fmt.Fprintf(&sb, "volume reduced by %.2f%%\n", r.ReductionRatio*100)
	fmt.Fprintf(&sb, "excluded %d points\n", r.ExcludedPoints)
	return sb.String()
}
