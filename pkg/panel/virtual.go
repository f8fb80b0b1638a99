package panel

import (
	"image"

	"go.uber.org/zap"
)

// Demo is the no-panel variant: every operation that would touch hardware
// just logs and reports success, so the rest of the pipeline works unchanged
// on machines without a display.
func Demo(logger *zap.Logger) Control {
	return &demo{logger}
}

type demo struct {
	l *zap.Logger
}

func (d *demo) Startup() error {
	d.l.Info("startup")
	return nil
}

func (d *demo) Clear() error {
	d.l.Info("clear")
	return nil
}

func (d *demo) Size() (int, int, bool) {
	return 0, 0, false
}

func (d *demo) Draw(img image.Image) error {
	d.l.With(
		zap.Int("w", img.Bounds().Dx()),
		zap.Int("h", img.Bounds().Dy()),
	).Info("draw")
	return nil
}

func (d *demo) Shutdown() error {
	d.l.Info("shutdown")
	return nil
}
