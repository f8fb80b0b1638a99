package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(geocode, forecast http.HandlerFunc) (*Client, func()) {
	geo := httptest.NewServer(geocode)
	fc := httptest.NewServer(forecast)

	c := NewClient(5*time.Second, "test-agent", zap.NewNop())
	c.GeocodeURL = geo.URL
	c.ForecastURL = fc.URL

	return c, func() {
		geo.Close()
		fc.Close()
	}
}

func TestGetWeather(t *testing.T) {
	t.Parallel()

	c, done := testClient(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Berlin", r.URL.Query().Get("name"))
			assert.Equal(t, "1", r.URL.Query().Get("count"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[{"latitude":52.52,"longitude":13.41,"name":"Berlin","admin1":"Berlin","country":"Germany"}]}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "52.52", r.URL.Query().Get("latitude"))
			assert.Equal(t, "auto", r.URL.Query().Get("timezone"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"current":{"temperature_2m":21.5,"relative_humidity_2m":60,"wind_speed_10m":12.3,"weather_code":3},
				"daily":{"sunrise":["2026-08-30T06:21"],"sunset":["2026-08-30T19:58"]}
			}`))
		},
	)
	defer done()

	snap, err := c.GetWeather(context.Background(), "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Berlin, Berlin, Germany", snap.CityDisplay)
	require.NotNil(t, snap.Temperature)
	assert.InDelta(t, 21.5, *snap.Temperature, 0.001)
	require.NotNil(t, snap.Humidity)
	assert.InDelta(t, 60, *snap.Humidity, 0.001)
	require.NotNil(t, snap.WeatherCode)
	assert.Equal(t, 3, *snap.WeatherCode)
	assert.Equal(t, "2026-08-30T06:21", snap.Sunrise)
	assert.Equal(t, "2026-08-30T19:58", snap.Sunset)
}

func TestGetWeatherCityNotFound(t *testing.T) {
	t.Parallel()

	c, done := testClient(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[]}`))
		},
		func(w http.ResponseWriter, _ *http.Request) {
			t.Error("forecast must not be called when geocoding fails")
		},
	)
	defer done()

	_, err := c.GetWeather(context.Background(), "Nowhereville")
	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestGetWeatherForecastFailure(t *testing.T) {
	t.Parallel()

	c, done := testClient(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[{"latitude":1,"longitude":2,"name":"X"}]}`))
		},
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	)
	defer done()

	_, err := c.GetWeather(context.Background(), "X")
	assert.Error(t, err)
}

func TestGeocodeDisplaySkipsEmptyParts(t *testing.T) {
	t.Parallel()

	c, done := testClient(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results":[{"latitude":1,"longitude":2,"name":"Lagos","country":"Nigeria"}]}`))
		},
		func(w http.ResponseWriter, _ *http.Request) {},
	)
	defer done()

	_, _, display, err := c.Geocode(context.Background(), "Lagos")
	require.NoError(t, err)
	assert.Equal(t, "Lagos, Nigeria", display)
}

func TestFormatTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "06:21", FormatTime("2026-08-30T06:21"))
	assert.Equal(t, "19:58", FormatTime("2026-08-30T19:58:00Z"))
	assert.Equal(t, "", FormatTime(""))
	assert.Equal(t, "", FormatTime("garbage"))
}

func TestCodeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Clear", CodeText(0))
	assert.Equal(t, "Thunder", CodeText(95))
	assert.Equal(t, "Unknown", CodeText(42))
}
