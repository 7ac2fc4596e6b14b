// Package colorhull finds the color cluster of an image whose removal
// shrinks the convex hull of the image's colors the most.
//
// Pixels become deduplicated points in the unit RGB cube (optionally with
// normalized x, y appended). The points are split into K clusters with
// k-means, where K = N/(100-λ) for an outlier percentage λ. The hull is then
// computed once per cluster with that cluster left out, and the smallest one
// wins:
//
//	opt := colorhull.DefaultOptions()
//	opt.Seed = 1
//	a, err := colorhull.NewAnalyzer(opt)
//	report, err := a.AnalyzeImage(img)
//	// report.BestLabel is the excluded cluster
//	// report.ReductionRatio is the relative volume lost
//	// report.ExcludedPoints is the number of points removed
//
// Hulls are always built on the three color channels.
package colorhull
