package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mark(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	g.SetGray(0, 0, color.Gray{Y: 0x00})
	return g
}

func TestOrientRightAngleDimensions(t *testing.T) {
	t.Parallel()

	src := mark(250, 122)

	tests := []struct {
		rotation float64
		w, h     int
	}{
		{rotation: 0, w: 250, h: 122},
		{rotation: 90, w: 122, h: 250},
		{rotation: 180, w: 250, h: 122},
		{rotation: 270, w: 122, h: 250},
	}

	for _, tt := range tests {
		out := Orient(src, tt.rotation, false, false)
		assert.Equal(t, tt.w, out.Bounds().Dx(), "rotation %v", tt.rotation)
		assert.Equal(t, tt.h, out.Bounds().Dy(), "rotation %v", tt.rotation)
	}
}

func TestOrientFullTurnIsIdentity(t *testing.T) {
	t.Parallel()

	src := mark(60, 40)
	out := Orient(Orient(Orient(Orient(src, 90, false, false), 90, false, false), 90, false, false), 90, false, false)

	require.Equal(t, src.Bounds(), out.Bounds())
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			wr, _, _, _ := src.At(x, y).RGBA()
			gr, _, _, _ := out.At(x, y).RGBA()
			require.Equal(t, wr, gr, "pixel %d,%d", x, y)
		}
	}
}

func TestOrientFlipMovesMarker(t *testing.T) {
	t.Parallel()

	src := mark(60, 40)

	flipped := Orient(src, 0, true, false)
	r, _, _, _ := flipped.At(59, 0).RGBA()
	assert.Zero(t, r, "marker should move to the right edge")

	both := Orient(src, 0, true, true)
	r, _, _, _ = both.At(59, 39).RGBA()
	assert.Zero(t, r, "marker should move to the opposite corner")
}

func TestNormalizeDegrees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want int
	}{
		{in: 0, want: 0},
		{in: 90, want: 90},
		{in: 360, want: 0},
		{in: 450, want: 90},
		{in: -90, want: 270},
		{in: -360, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDegrees(tt.in), "input %d", tt.in)
	}
}
