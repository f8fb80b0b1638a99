package panel

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"epaperdash/pkg/raster"
)

// Display reconciles the logical, settings-driven orientation with the
// panel's fixed native buffer geometry. Physical panels report one buffer
// size regardless of how they are mounted; when the transformed raster does
// not match it, rotated candidates are tried in order so the same rotation
// settings work across mountings without hardcoding what the hardware
// expects.
type Display struct {
	dev    Control
	store  *raster.Store
	logger *zap.Logger
}

func NewDisplay(dev Control, store *raster.Store, logger *zap.Logger) *Display {
	return &Display{dev: dev, store: store, logger: logger}
}

// Show applies the settings rotation and mirror flags to base and writes the
// result to the panel, retrying rotated candidates until one matches the
// device geometry. On success the written raster is persisted as "current"
// and base as "current-base"; if every candidate fails the last device error
// is returned and neither file is touched.
func (d *Display) Show(base image.Image, rotation int, flipH, flipV bool) error {
	transformed := raster.Orient(base, float64(rotation), flipH, flipV)

	w, h, ok := d.dev.Size()
	if !ok {
		if err := d.dev.Draw(transformed); err != nil {
			return err
		}
		d.persist(transformed, base)
		return nil
	}

	if err := d.dev.Startup(); err != nil {
		return errors.Wrap(err, "panel startup failed")
	}

	candidates := []image.Image{transformed}
	if transformed.Bounds().Dx() != w || transformed.Bounds().Dy() != h {
		candidates = append(candidates,
			imaging.Rotate90(transformed),
			imaging.Rotate270(transformed),
		)
	}

	var lastErr error
	for i, candidate := range candidates {
		if candidate.Bounds().Dx() != w || candidate.Bounds().Dy() != h {
			candidate = imaging.Resize(candidate, w, h, imaging.NearestNeighbor)
		}
		if err := d.dev.Draw(candidate); err != nil {
			lastErr = err
			d.logger.With(zap.Int("candidate", i), zap.Error(err)).Info("panel write failed")
			continue
		}
		d.persist(candidate, base)
		return nil
	}

	return errors.Wrap(lastErr, "panel rejected every orientation")
}

// Clear blanks the panel.
func (d *Display) Clear() error {
	if _, _, ok := d.dev.Size(); ok {
		if err := d.dev.Startup(); err != nil {
			return errors.Wrap(err, "panel startup failed")
		}
	}
	return d.dev.Clear()
}

// Shutdown releases the device handle.
func (d *Display) Shutdown() error {
	return d.dev.Shutdown()
}

// Raster file write failures are logged, not fatal: the panel already shows
// the frame.
func (d *Display) persist(current, base image.Image) {
	if err := d.store.SaveCurrent(current); err != nil {
		d.logger.With(zap.Error(err)).Error("current raster save failed")
	}
	if err := d.store.SaveBase(base); err != nil {
		d.logger.With(zap.Error(err)).Error("base raster save failed")
	}
}
