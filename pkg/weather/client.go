package weather

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// ErrCityNotFound is returned when geocoding yields no results.
var ErrCityNotFound = errors.New("City not found")

// Snapshot is the weather record consumed by the dashboard compositor. It is
// created fresh per render and never persisted. Nil fields mean the upstream
// did not report the reading.
type Snapshot struct {
	CityDisplay string
	Temperature *float64
	Humidity    *float64
	WindSpeed   *float64
	WeatherCode *int
	Sunrise     string
	Sunset      string
}

type Client struct {
	cli    *resty.Client
	logger *zap.Logger

	// Overridable for tests.
	GeocodeURL  string
	ForecastURL string
}

func NewClient(timeout time.Duration, userAgent string, logger *zap.Logger) *Client {
	return &Client{
		cli: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
		logger:      logger,
		GeocodeURL:  defaultGeocodeURL,
		ForecastURL: defaultForecastURL,
	}
}

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature *float64 `json:"temperature_2m"`
		Humidity    *float64 `json:"relative_humidity_2m"`
		WindSpeed   *float64 `json:"wind_speed_10m"`
		WeatherCode *int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

// Geocode resolves a city name to coordinates and a display name using the
// first match.
func (c *Client) Geocode(ctx context.Context, city string) (lat, lon float64, display string, err error) {
	var out geocodeResponse
	resp, err := c.cli.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"name": city, "count": "1"}).
		SetResult(&out).
		Get(c.GeocodeURL)
	if err != nil {
		return 0, 0, "", fmt.Errorf("geocoding request failed: %w", err)
	}
	if resp.IsError() {
		return 0, 0, "", errors.Errorf("geocoding returned %s", resp.Status())
	}
	if len(out.Results) == 0 {
		c.logger.With(zap.String("city", city)).Warn("no geocoding results")
		return 0, 0, "", ErrCityNotFound
	}

	r0 := out.Results[0]
	display = r0.Name
	if display == "" {
		display = city
	}
	for _, part := range []string{r0.Admin1, r0.Country} {
		if part != "" {
			display += ", " + part
		}
	}
	return r0.Latitude, r0.Longitude, display, nil
}

// fetch retrieves the current conditions and today's sunrise/sunset for the
// given coordinates.
func (c *Client) fetch(ctx context.Context, lat, lon float64) (*forecastResponse, error) {
	var out forecastResponse
	resp, err := c.cli.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  strconv.FormatFloat(lat, 'f', -1, 64),
			"longitude": strconv.FormatFloat(lon, 'f', -1, 64),
			"current":   "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code",
			"daily":     "sunrise,sunset",
			"timezone":  "auto",
		}).
		SetResult(&out).
		Get(c.ForecastURL)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	if resp.IsError() {
		return nil, errors.Errorf("forecast returned %s", resp.Status())
	}
	return &out, nil
}

// GetWeather resolves a city and returns a complete snapshot for it.
func (c *Client) GetWeather(ctx context.Context, city string) (*Snapshot, error) {
	lat, lon, display, err := c.Geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	fc, err := c.fetch(ctx, lat, lon)
	if err != nil {
		c.logger.With(zap.String("city", city), zap.Error(err)).Error("weather fetch failed")
		return nil, err
	}

	snap := &Snapshot{
		CityDisplay: display,
		Temperature: fc.Current.Temperature,
		Humidity:    fc.Current.Humidity,
		WindSpeed:   fc.Current.WindSpeed,
		WeatherCode: fc.Current.WeatherCode,
	}
	if len(fc.Daily.Sunrise) > 0 {
		snap.Sunrise = fc.Daily.Sunrise[0]
	}
	if len(fc.Daily.Sunset) > 0 {
		snap.Sunset = fc.Daily.Sunset[0]
	}
	return snap, nil
}

// FormatTime renders an upstream ISO timestamp as HH:MM, or "" when absent
// or malformed.
func FormatTime(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("15:04")
		}
	}
	return ""
}
