package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeProducesBinaryOutput(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8((x * 4) % 256)
			src.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 0xff})
		}
	}

	out := Quantize(src)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := out.GrayAt(x, y).Y
			require.True(t, v == 0x00 || v == 0xff, "pixel %d,%d is %#x", x, y, v)
		}
	}
}

func TestQuantizeIdempotentOnBinaryInput(t *testing.T) {
	t.Parallel()

	src := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if (x+y)%2 == 0 {
				src.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}

	out := Quantize(src)
	assert.Equal(t, src.Pix, out.Pix, "already-binary input must pass through unchanged")
}

func TestQuantizeExtremes(t *testing.T) {
	t.Parallel()

	black := Quantize(image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	for _, v := range black.Pix {
		require.Equal(t, uint8(0x00), v)
	}

	whiteSrc := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range whiteSrc.Pix {
		whiteSrc.Pix[i] = 0xff
	}
	white := Quantize(whiteSrc)
	for _, v := range white.Pix {
		require.Equal(t, uint8(0xff), v)
	}
}
