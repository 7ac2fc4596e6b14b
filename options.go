package colorhull

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidOptions is wrapped by every error returned from Options.Validate.
var ErrInvalidOptions = errors.New("colorhull: invalid options")

// ClusterMethod selects the k-means implementation.
type ClusterMethod string

const (
	MethodLloyd  ClusterMethod = "lloyd"
	MethodMuesli ClusterMethod = "muesli"
)

// InitMethod selects how Lloyd places its starting centroids.
type InitMethod string

const (
	// InitRandom draws centroids from a normal distribution fitted to the data.
	InitRandom InitMethod = "random"
	// InitPoints uses randomly chosen input points as centroids.
	InitPoints InitMethod = "points"
)

type Options struct {
	// Outlier percentage λ. Drives the cluster count K = N/(100-λ) when
	// Clusters is zero.
	// Must be in [0,100). Default: 5.
	OutlierPercentage float64 `yaml:"outlier_percentage"`
	// Fixed cluster count. 0 derives K from OutlierPercentage.
	// Values above the number of distinct points leave empty clusters.
	Clusters int `yaml:"clusters"`
	// Append normalized column/row as two extra channels during extraction.
	// The hull is always computed on the color channels.
	WithPosition bool `yaml:"with_position"`
	// Downscale wider images to this width before extraction. 0 keeps the
	// original size. The browser renderer used 450.
	MaxWidth int `yaml:"max_width"`
	// Clustering backend. Only lloyd honors Seed.
	Method ClusterMethod `yaml:"method"`
	// Lloyd centroid initialization.
	Init InitMethod `yaml:"init"`
	// Lloyd iteration cap. Ideal start: 10 (same as scipy kmeans2).
	MaxIterations int `yaml:"max_iterations"`
	// Random seed for Lloyd. 0 seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

func DefaultOptions() Options {
	return Options{
		OutlierPercentage: 5,
		Method:            MethodLloyd,
		Init:              InitRandom,
		MaxIterations:     10,
	}
}

// OptionsFromSize returns defaults with MaxWidth chosen so very large images
// stay within a few hundred thousand pixels.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	const maxPixels = 640 * 480
	if size.X*size.Y > maxPixels {
		scale := float64(maxPixels) / float64(size.X*size.Y)
		opt.MaxWidth = max(1, int(float64(size.X)*math.Sqrt(scale)))
	}
	return opt
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.OutlierPercentage < 0 || o.OutlierPercentage >= 100 {
		return fmt.Errorf("%w: outlier percentage %g not in [0,100)", ErrInvalidOptions, o.OutlierPercentage)
	}
	if o.Clusters < 0 {
		return fmt.Errorf("%w: clusters must be >= 0, got %d", ErrInvalidOptions, o.Clusters)
	}
	if o.MaxWidth < 0 {
		return fmt.Errorf("%w: max width must be >= 0, got %d", ErrInvalidOptions, o.MaxWidth)
	}
	switch o.Method {
	case MethodLloyd, MethodMuesli:
	default:
		return fmt.Errorf("%w: unknown cluster method %q", ErrInvalidOptions, o.Method)
	}
	switch o.Init {
	case InitRandom, InitPoints:
	default:
		return fmt.Errorf("%w: unknown init method %q", ErrInvalidOptions, o.Init)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be >= 1, got %d", ErrInvalidOptions, o.MaxIterations)
	}
	return nil
}

// ClusterCount returns K for a point set of size n.
func (o Options) ClusterCount(n int) int {
	if o.Clusters > 0 {
		return o.Clusters
	}
	k := int(float64(n) / (100 - o.OutlierPercentage))
	return max(1, k)
}
