package raster

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Params describes the scale/offset/crop pipeline applied to an uploaded
// image before it is centered on the display canvas.
type Params struct {
	// PreRotate is applied to the source before anything else, expanding the
	// canvas so rotated corners are never clipped.
	PreRotate float64

	// Scale resizes the source uniformly; new dimensions are
	// floor(original * Scale).
	Scale float64

	// OffsetX/OffsetY shift the image on a larger white canvas so a crop can
	// select a region outside the original bounds.
	OffsetX int
	OffsetY int

	// Crop rectangle, clamped to the image bounds before it is applied.
	CropX int
	CropY int
	CropW int
	CropH int
}

// Transform runs the fixed scale -> offset -> crop -> center pipeline and
// returns a full-color raster of exactly targetW x targetH. It is
// deterministic: identical inputs always produce identical output.
func Transform(src image.Image, p Params, targetW, targetH int) *image.NRGBA {
	img := imaging.Clone(src)

	if p.PreRotate != 0 {
		img = imaging.Rotate(img, p.PreRotate, color.White)
	}

	if p.Scale != 0 && p.Scale != 1.0 {
		w := int(float64(img.Bounds().Dx()) * p.Scale)
		h := int(float64(img.Bounds().Dy()) * p.Scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	cropW := p.CropW
	cropH := p.CropH
	if cropW == 0 {
		cropW = targetW
	}
	if cropH == 0 {
		cropH = targetH
	}

	if p.OffsetX != 0 || p.OffsetY != 0 {
		canvas := imaging.New(img.Bounds().Dx()+abs(p.OffsetX), img.Bounds().Dy()+abs(p.OffsetY), color.White)
		img = imaging.Paste(canvas, img, image.Pt(max(0, p.OffsetX), max(0, p.OffsetY)))
	}

	// Skip the crop pass entirely when it is a no-op so rounding fidelity and
	// performance are preserved.
	if p.CropX > 0 || p.CropY > 0 || cropW < img.Bounds().Dx() || cropH < img.Bounds().Dy() {
		rect := clampCrop(p.CropX, p.CropY, cropW, cropH, img.Bounds().Dx(), img.Bounds().Dy())
		img = imaging.Crop(img, rect)
	}

	canvas := imaging.New(targetW, targetH, color.White)
	x := floorDiv(targetW-img.Bounds().Dx(), 2)
	y := floorDiv(targetH-img.Bounds().Dy(), 2)
	return imaging.Paste(canvas, img, image.Pt(x, y))
}

// clampCrop constrains a crop rectangle to the bounds of a w x h image so
// that origin+extent never exceeds the image dimensions.
func clampCrop(x, y, cw, ch, w, h int) image.Rectangle {
	x = max(0, min(x, w-1))
	y = max(0, min(y, h-1))
	cw = min(cw, w-x)
	ch = min(ch, h-y)
	return image.Rect(x, y, x+cw, y+ch)
}

func floorDiv(n, d int) int {
	q := n / d
	if n%d != 0 && (n < 0) != (d < 0) {
		q--
	}
	return q
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
