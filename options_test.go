package colorhull

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptionsValid(t *testing.T) {
	opt := DefaultOptions()
	assert.NoError(t, opt.Validate())
	assert.Equal(t, 5.0, opt.OutlierPercentage)
	assert.Equal(t, MethodLloyd, opt.Method)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"negative outlier", func(o *Options) { o.OutlierPercentage = -1 }},
		{"outlier 100", func(o *Options) { o.OutlierPercentage = 100 }},
		{"negative clusters", func(o *Options) { o.Clusters = -2 }},
		{"negative width", func(o *Options) { o.MaxWidth = -1 }},
		{"unknown method", func(o *Options) { o.Method = "dbscan" }},
		{"unknown init", func(o *Options) { o.Init = "kmeans++" }},
		{"no iterations", func(o *Options) { o.MaxIterations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := DefaultOptions()
			tt.modify(&opt)
			assert.ErrorIs(t, opt.Validate(), ErrInvalidOptions)
		})
	}
}

func TestClusterCount(t *testing.T) {
	opt := DefaultOptions()
	assert.Equal(t, 10, opt.ClusterCount(950))
	assert.Equal(t, 10, opt.ClusterCount(999))
	assert.Equal(t, 1, opt.ClusterCount(50))
	assert.Equal(t, 1, opt.ClusterCount(1))

	opt.OutlierPercentage = 0
	assert.Equal(t, 3, opt.ClusterCount(300))

	opt.Clusters = 12
	assert.Equal(t, 12, opt.ClusterCount(3))
}

func TestOptionsFromSize(t *testing.T) {
	assert.Zero(t, OptionsFromSize(image.Pt(640, 480)).MaxWidth)
	assert.Zero(t, OptionsFromSize(image.Pt(0, 0)).MaxWidth)
	assert.Equal(t, 640, OptionsFromSize(image.Pt(1280, 960)).MaxWidth)
}
