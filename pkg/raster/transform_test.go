package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}

func TestTransformOutputDimensions(t *testing.T) {
	t.Parallel()

	src := solid(500, 500, color.Black)

	for _, scale := range []float64{0.1, 0.5, 1.0, 2.0, 10.0} {
		out := Transform(src, Params{Scale: scale}, 250, 122)
		assert.Equal(t, 250, out.Bounds().Dx(), "scale %v", scale)
		assert.Equal(t, 122, out.Bounds().Dy(), "scale %v", scale)
	}
}

func TestTransformScaleThenCenter(t *testing.T) {
	t.Parallel()

	// A 500x500 black square at scale 0.5 with a 122x122 crop lands centered
	// on the 250x122 canvas: black in the middle band, white margins.
	src := solid(500, 500, color.Black)
	out := Transform(src, Params{Scale: 0.5, CropW: 122, CropH: 122}, 250, 122)

	require.Equal(t, 250, out.Bounds().Dx())
	require.Equal(t, 122, out.Bounds().Dy())

	isBlack := func(x, y int) bool {
		r, g, b, _ := out.At(x, y).RGBA()
		return r == 0 && g == 0 && b == 0
	}
	assert.True(t, isBlack(125, 61), "center should be black")
	assert.False(t, isBlack(10, 61), "left margin should be white")
	assert.False(t, isBlack(240, 61), "right margin should be white")
}

func TestTransformCropClamped(t *testing.T) {
	t.Parallel()

	// Crop extends past the image; must not panic and must still fill the
	// target exactly.
	src := solid(100, 80, color.Black)
	out := Transform(src, Params{CropX: 90, CropY: 70, CropW: 500, CropH: 500}, 250, 122)

	assert.Equal(t, 250, out.Bounds().Dx())
	assert.Equal(t, 122, out.Bounds().Dy())
}

func TestTransformOffsetExpandsCanvas(t *testing.T) {
	t.Parallel()

	src := solid(50, 50, color.Black)
	out := Transform(src, Params{OffsetX: 30, OffsetY: 20, CropW: 250, CropH: 122}, 250, 122)

	assert.Equal(t, 250, out.Bounds().Dx())
	assert.Equal(t, 122, out.Bounds().Dy())
}

func TestClampCrop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		x, y, cw, ch, w, h int
		want               image.Rectangle
	}{
		{name: "inside", x: 10, y: 10, cw: 20, ch: 20, w: 100, h: 100, want: image.Rect(10, 10, 30, 30)},
		{name: "origin past edge", x: 150, y: 150, cw: 20, ch: 20, w: 100, h: 100, want: image.Rect(99, 99, 100, 100)},
		{name: "extent past edge", x: 90, y: 90, cw: 50, ch: 50, w: 100, h: 100, want: image.Rect(90, 90, 100, 100)},
		{name: "full image", x: 0, y: 0, cw: 100, ch: 100, w: 100, h: 100, want: image.Rect(0, 0, 100, 100)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, clampCrop(tt.x, tt.y, tt.cw, tt.ch, tt.w, tt.h))
		})
	}
}

func TestFloorDiv(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, floorDiv(4, 2))
	assert.Equal(t, -2, floorDiv(-3, 2))
	assert.Equal(t, 0, floorDiv(1, 2))
	assert.Equal(t, -1, floorDiv(-1, 2))
}
