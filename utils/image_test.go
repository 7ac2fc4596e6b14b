package utils

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 40, B: 90, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{R: 20, G: 180, B: 60, A: 255})
			}
		}
	}
	return img
}

func TestDownscale(t *testing.T) {
	img := checker(100, 50)
	small := Downscale(img, 40)
	assert.Equal(t, image.Rect(0, 0, 40, 20), small.Bounds())

	assert.Same(t, img, Downscale(img, 100))
	assert.Same(t, img, Downscale(img, 0))
}

func TestEncodeDecodePNG(t *testing.T) {
	img := checker(6, 4)
	data, err := EncodePNG(img)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	back, err := DecodeImage(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), back.Bounds())
	assert.Equal(t, color.NRGBAModel.Convert(img.At(1, 0)), color.NRGBAModel.Convert(back.At(1, 0)))
}

func TestSaveAndReadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checker.png")
	require.NoError(t, SaveImage(checker(3, 3), path))
	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 3), img.Bounds())

	_, err = ReadImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
