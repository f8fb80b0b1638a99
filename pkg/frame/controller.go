package frame

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"

	"epaperdash/pkg/config"
	"epaperdash/pkg/dashboard"
	"epaperdash/pkg/panel"
	"epaperdash/pkg/raster"
	"epaperdash/pkg/settings"
	"epaperdash/pkg/weather"
)

const (
	minScale = 0.1
	maxScale = 10.0
	maxCrop  = 10000
)

// Controller sequences every display-affecting operation. The panel is an
// exclusive resource, so a single mutex serializes uploads, rotations,
// settings-driven re-renders and auto-loop ticks. Mutations follow the
// persist-then-render pattern: the render always reads the just-persisted
// settings snapshot.
type Controller struct {
	mu       sync.Mutex
	cfg      *config.Config
	settings *settings.Store
	store    *raster.Store
	display  *panel.Display
	weather  *weather.Client
	dash     *dashboard.Renderer
	logger   *zap.Logger
}

func NewController(
	cfg *config.Config,
	st *settings.Store,
	store *raster.Store,
	display *panel.Display,
	wc *weather.Client,
	dash *dashboard.Renderer,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		cfg:      cfg,
		settings: st,
		store:    store,
		display:  display,
		weather:  wc,
		dash:     dash,
		logger:   logger,
	}
}

// Settings returns the current settings snapshot.
func (c *Controller) Settings() settings.Settings {
	return c.settings.Get()
}

// Upload decodes, transforms and displays an image. It returns the rotation
// the image was displayed with.
func (c *Controller) Upload(r io.Reader, p raster.Params) (int, error) {
	img, err := c.decode(r, p)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	processed := c.process(img, p)
	s := c.settings.Get()
	if err := c.display.Show(processed, s.Rotation, s.FlipH, s.FlipV); err != nil {
		return 0, errors.Wrap(err, "display failed")
	}
	return s.Rotation, nil
}

// PreviewResize transforms an image without touching the panel and stores
// the result as the latest resize preview.
func (c *Controller) PreviewResize(r io.Reader, p raster.Params) error {
	img, err := c.decode(r, p)
	if err != nil {
		return err
	}

	processed := raster.Quantize(raster.Transform(img, p, c.cfg.DisplayWidth, c.cfg.DisplayHeight))
	return c.store.SaveResizePreview(processed)
}

// Rotate adds a signed delta to the current rotation, persists it, and
// re-displays whatever is currently shown.
func (c *Controller) Rotate(degrees int) (int, error) {
	if degrees%90 != 0 {
		return 0, invalidf("degrees must be a multiple of 90")
	}

	s, err := c.settings.Update(func(v *settings.Settings) {
		v.Rotation = raster.NormalizeDegrees(v.Rotation + degrees)
	})
	if err != nil {
		return 0, err
	}

	c.redisplay(s)
	return s.Rotation, nil
}

// ApplySettings merges a partial update over the current settings, persists,
// and re-displays.
func (c *Controller) ApplySettings(p settings.Patch) (settings.Settings, error) {
	s, err := c.settings.Apply(p)
	if err != nil {
		return settings.Settings{}, err
	}

	c.redisplay(s)
	return s, nil
}

// RenderDashboard renders the weather dashboard for the current settings and
// writes it to the panel. Upstream failures degrade to an error card, never
// a hang or a hard failure.
func (c *Controller) RenderDashboard(ctx context.Context) error {
	s := c.settings.Get()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderDashboard(ctx, s)
}

// Refresh re-displays the persisted base (or current) raster.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, err := c.store.LoadSource()
	if err != nil {
		return errors.New("no image to refresh")
	}

	s := c.settings.Get()
	return c.display.Show(raster.Quantize(img), s.Rotation, s.FlipH, s.FlipV)
}

// Clear blanks the panel.
func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display.Clear()
}

// Preview returns the bitmap appropriate to the current mode.
func (c *Controller) Preview() ([]byte, error) {
	return c.store.Preview(c.settings.Get().Mode)
}

// ResizePreview returns the latest resize preview, if any.
func (c *Controller) ResizePreview() ([]byte, bool) {
	return c.store.ResizePreview()
}

func (c *Controller) decode(r io.Reader, p raster.Params) (image.Image, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, invalidf("invalid image file")
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > maxCrop || b.Dy() > maxCrop {
		return nil, invalidf("image dimensions out of range")
	}
	return img, nil
}

// process runs the transform pipeline and persists the quantized result as
// the new base raster, the canonical source rotate and flip re-derive from
// without a second dithering pass.
func (c *Controller) process(img image.Image, p raster.Params) *image.Gray {
	q := raster.Quantize(raster.Transform(img, p, c.cfg.DisplayWidth, c.cfg.DisplayHeight))
	if err := c.store.SaveBase(q); err != nil {
		c.logger.With(zap.Error(err)).Error("base raster save failed")
	}
	return q
}

// redisplay re-derives the displayed content from the just-persisted
// settings. Failures are logged, not propagated: the settings mutation
// itself already succeeded.
func (c *Controller) redisplay(s settings.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.Mode == "dashboard" {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.WeatherTimeout+5*time.Second)
		defer cancel()
		if err := c.renderDashboard(ctx, s); err != nil {
			c.logger.With(zap.Error(err)).Warn("re-render after settings change failed")
		}
		return
	}

	img, err := c.store.LoadSource()
	if err != nil {
		c.logger.Info("no stored image to re-display")
		return
	}
	if err := c.display.Show(raster.Quantize(img), s.Rotation, s.FlipH, s.FlipV); err != nil {
		c.logger.With(zap.Error(err)).Warn("re-display after settings change failed")
	}
}

func (c *Controller) renderDashboard(ctx context.Context, s settings.Settings) error {
	city := s.City
	if city == "" {
		city = settings.Default().City
	}

	var frame image.Image
	snap, err := c.weather.GetWeather(ctx, city)
	if err != nil {
		c.logger.With(zap.String("city", city), zap.Error(err)).Warn("weather unavailable, rendering error card")
		frame = c.dash.RenderError(err.Error())
	} else {
		frame = c.dash.Render(snap, s, time.Now())
	}

	if err := c.store.SaveDashboardPreview(frame); err != nil {
		c.logger.With(zap.Error(err)).Error("dashboard preview save failed")
	}
	return c.display.Show(frame, s.Rotation, s.FlipH, s.FlipV)
}

func validateParams(p raster.Params) error {
	if p.Scale != 0 && (p.Scale < minScale || p.Scale > maxScale) {
		return invalidf("scale must be between %v and %v", minScale, maxScale)
	}
	for name, v := range map[string]int{
		"crop_x": p.CropX, "crop_y": p.CropY, "crop_w": p.CropW, "crop_h": p.CropH,
	} {
		if v < 0 || v > maxCrop {
			return invalidf("%s must be between 0 and %d", name, maxCrop)
		}
	}
	for name, v := range map[string]int{"offset_x": p.OffsetX, "offset_y": p.OffsetY} {
		if v < -maxCrop || v > maxCrop {
			return invalidf("%s must be between %d and %d", name, -maxCrop, maxCrop)
		}
	}
	return nil
}
