package colorhull

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

const ratioTolerance = 1e-12

// Candidate is one leave-one-cluster-out hull.
type Candidate struct {
	Label   int
	Members int // points carrying Label
	Volume  float64
	Hull    *Hull // nil when Skipped
	// Skipped is set when the remaining points cannot form a hull.
	Skipped bool
}

// SearchResult is the outcome of a leave-one-cluster-out search.
type SearchResult struct {
	Baseline *Hull
	Best     *Hull
	// Kept holds the indices, into the searched point set, of the points
	// the best hull was built from.
	Kept       []int
	BestLabel  int
	Candidates []Candidate
	// (baseline - best) / baseline, in [0,1].
	ReductionRatio float64
	// Number of points removed by the best exclusion.
	ExcludedPoints int
}

func (r *SearchResult) BaselineVolume() float64 { return r.Baseline.Volume }
func (r *SearchResult) BestVolume() float64     { return r.Best.Volume }

// Search computes the hull of all points and, for every label present, the
// hull of the points not carrying that label. It selects the label whose
// exclusion gives the smallest volume; ties go to the lowest label. Labels
// whose exclusion leaves a degenerate set are skipped.
func Search(colors []r3.Vec, labels []int) (*SearchResult, error) {
	if len(colors) != len(labels) {
		return nil, fmt.Errorf("colorhull: %d points but %d labels", len(colors), len(labels))
	}
	baseline, err := ConvexHull(colors)
	if err != nil {
		return nil, fmt.Errorf("baseline hull: %w", err)
	}

	members := make(map[int]int)
	for _, l := range labels {
		members[l]++
	}
	present := make([]int, 0, len(members))
	for l := range members {
		present = append(present, l)
	}
	slices.Sort(present)

	res := &SearchResult{Baseline: baseline, BestLabel: -1}
	subset := make([]r3.Vec, 0, len(colors))
	for _, label := range present {
		subset = subset[:0]
		for i, c := range colors {
			if labels[i] != label {
				subset = append(subset, c)
			}
		}
		cand := Candidate{Label: label, Members: members[label]}
		h, err := ConvexHull(slices.Clone(subset))
		switch {
		case errors.Is(err, ErrInsufficientPoints):
			cand.Skipped = true
		case err != nil:
			return nil, fmt.Errorf("hull without label %d: %w", label, err)
		default:
			cand.Hull = h
			cand.Volume = h.Volume
			if res.Best == nil || h.Volume < res.Best.Volume-ratioTolerance*baseline.Volume {
				res.Best = h
				res.BestLabel = label
			}
		}
		res.Candidates = append(res.Candidates, cand)
	}
	if res.Best == nil {
		return nil, ErrNoValidCandidate
	}

	for i, l := range labels {
		if l != res.BestLabel {
			res.Kept = append(res.Kept, i)
		}
	}
	res.ExcludedPoints = len(colors) - len(res.Best.Points)
	if baseline.Volume > 0 {
		ratio := (baseline.Volume - res.Best.Volume) / baseline.Volume
		// Volumes of identical hulls differ in the last bits.
		if ratio < ratioTolerance {
			ratio = 0
		}
		res.ReductionRatio = min(1, ratio)
	}
	return res, nil
}
