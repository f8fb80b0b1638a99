package raster

import (
	"image"

	"github.com/MaxHalford/halfgone"
)

// Quantize converts a raster to 1-bit using Floyd-Steinberg error diffusion.
// An already-binary input passes through untouched, so re-running Quantize on
// its own output never introduces new dithering artifacts.
func Quantize(img image.Image) *image.Gray {
	gray := halfgone.ImageToGray(img)
	if isBinary(gray) {
		return gray
	}
	return halfgone.FloydSteinbergDitherer{}.Apply(gray)
}

func isBinary(g *image.Gray) bool {
	for _, px := range g.Pix {
		if px != 0x00 && px != 0xff {
			return false
		}
	}
	return true
}
