package frame

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"epaperdash/pkg/config"
	"epaperdash/pkg/dashboard"
	"epaperdash/pkg/panel"
	"epaperdash/pkg/raster"
	"epaperdash/pkg/settings"
	"epaperdash/pkg/weather"
)

type fixture struct {
	ctrl     *Controller
	store    *raster.Store
	settings *settings.Store
	fs       afero.Fs
	cleanup  func()
}

func newFixture(t *testing.T, geocode, forecast http.HandlerFunc) *fixture {
	t.Helper()

	if geocode == nil {
		geocode = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"results":[{"latitude":1,"longitude":2,"name":"Testville","country":"Testland"}]}`))
		}
	}
	if forecast == nil {
		forecast = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"current":{"temperature_2m":20,"relative_humidity_2m":50,"wind_speed_10m":5,"weather_code":0},"daily":{"sunrise":["2026-08-30T06:21"],"sunset":["2026-08-30T19:58"]}}`))
		}
	}

	geo := httptest.NewServer(geocode)
	fc := httptest.NewServer(forecast)

	cfg := config.Default()
	fs := afero.NewMemMapFs()
	logger := zap.NewNop()

	store := raster.NewStore(fs, cfg.CurrentImagePath, cfg.BaseImagePath, cfg.DashboardPreviewPath, cfg.PreviewDir, logger)
	st := settings.NewStore(fs, cfg.SettingsPath, logger)

	wc := weather.NewClient(5*time.Second, cfg.WeatherUserAgent, logger)
	wc.GeocodeURL = geo.URL
	wc.ForecastURL = fc.URL

	fonts := dashboard.NewFontSet(fs, cfg.FontPaths, logger)
	renderer := dashboard.NewRenderer(cfg, fonts, logger)
	display := panel.NewDisplay(panel.Demo(logger), store, logger)

	f := &fixture{
		ctrl:     NewController(cfg, st, store, display, wc, renderer, logger),
		store:    store,
		settings: st,
		fs:       fs,
		cleanup: func() {
			geo.Close()
			fc.Close()
		},
	}
	t.Cleanup(f.cleanup)
	return f
}

func pngReader(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return bytes.NewReader(buf.Bytes())
}

func TestUploadDisplaysAndPersists(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)

	rotation, err := f.ctrl.Upload(pngReader(t, 500, 400), raster.Params{Scale: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 90, rotation, "default rotation is reported back")
	assert.True(t, f.store.HasCurrent())

	img, err := f.store.LoadSource()
	require.NoError(t, err)
	assert.Equal(t, 250, img.Bounds().Dx(), "base raster keeps native landscape orientation")
	assert.Equal(t, 122, img.Bounds().Dy())
}

func TestUploadRejectsBadInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)

	_, err := f.ctrl.Upload(strings.NewReader("not an image"), raster.Params{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "invalid image file", err.Error())

	_, err = f.ctrl.Upload(pngReader(t, 10, 10), raster.Params{Scale: 50})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = f.ctrl.Upload(pngReader(t, 10, 10), raster.Params{CropW: 20000})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRotateAccumulates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)

	rot, err := f.ctrl.Rotate(90)
	require.NoError(t, err)
	assert.Equal(t, 180, rot, "delta applies on top of the default 90")

	rot, err = f.ctrl.Rotate(-270)
	require.NoError(t, err)
	assert.Equal(t, 270, rot)

	_, err = f.ctrl.Rotate(45)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, 270, f.ctrl.Settings().Rotation, "failed rotate leaves settings untouched")
}

func TestRefreshWithoutImage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)

	err := f.ctrl.Refresh()
	require.Error(t, err)
	assert.Equal(t, "no image to refresh", err.Error())
}

func TestRefreshRedrawsStoredImage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)

	_, err := f.ctrl.Upload(pngReader(t, 100, 100), raster.Params{})
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Refresh())
}

func TestApplySettingsPropagatesValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)

	bad := 10
	_, err := f.ctrl.ApplySettings(settings.Patch{Interval: &bad})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRenderDashboard(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)

	require.NoError(t, f.ctrl.RenderDashboard(context.Background()))

	mode := "dashboard"
	_, err := f.ctrl.ApplySettings(settings.Patch{Mode: &mode})
	require.NoError(t, err)

	bs, err := f.ctrl.Preview()
	require.NoError(t, err)
	assert.NotEmpty(t, bs)
}

func TestRenderDashboardWeatherFailureShowsErrorCard(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, nil)

	// The error card still reaches the panel; the operation itself succeeds.
	require.NoError(t, f.ctrl.RenderDashboard(context.Background()))
}

func TestPreviewResizeDoesNotTouchBase(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil)

	require.NoError(t, f.ctrl.PreviewResize(pngReader(t, 300, 300), raster.Params{Scale: 0.5}))

	bs, ok := f.ctrl.ResizePreview()
	require.True(t, ok)
	assert.NotEmpty(t, bs)

	_, err := f.store.LoadSource()
	assert.Error(t, err, "preview must not create a base raster")
}
