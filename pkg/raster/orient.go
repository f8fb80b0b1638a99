package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Orient applies the settings-driven rotation and mirror flags to a raster.
// Rotation is counter-clockwise and expands the canvas; multiples of 90 use
// the exact transpose paths so binary rasters stay pixel-identical.
func Orient(img image.Image, rotation float64, flipH, flipV bool) *image.NRGBA {
	out := Rotate(img, rotation)
	if flipH {
		out = imaging.FlipH(out)
	}
	if flipV {
		out = imaging.FlipV(out)
	}
	return out
}

// Rotate rotates counter-clockwise by the given angle, expanding the canvas.
func Rotate(img image.Image, angle float64) *image.NRGBA {
	switch normalizeAngle(angle) {
	case 0:
		return imaging.Clone(img)
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return imaging.Rotate(img, angle, color.White)
	}
}

func normalizeAngle(angle float64) float64 {
	a := angle
	for a < 0 {
		a += 360
	}
	for a >= 360 {
		a -= 360
	}
	return a
}

// NormalizeDegrees maps an arbitrary signed rotation delta into [0, 360).
func NormalizeDegrees(degrees int) int {
	return ((degrees % 360) + 360) % 360
}
