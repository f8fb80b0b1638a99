package config

import (
	"path/filepath"
	"time"
)

// Config holds the runtime configuration for the frame daemon. Values are
// populated from flags in cmd/ and passed down through constructors.
type Config struct {
	DisplayWidth  int
	DisplayHeight int

	CurrentImagePath     string
	BaseImagePath        string
	DashboardPreviewPath string
	PreviewDir           string
	SettingsPath         string

	FontPaths     []string
	FontLargeSize float64
	FontMedSize   float64
	FontSmallSize float64

	WeatherTimeout   time.Duration
	WeatherUserAgent string

	MaxUploadBytes int64

	Listen string
}

func Default() *Config {
	return &Config{
		DisplayWidth:         250,
		DisplayHeight:        122,
		CurrentImagePath:     "/tmp/current_epaper.png",
		BaseImagePath:        "/tmp/current_epaper_base.png",
		DashboardPreviewPath: "/tmp/dashboard_preview.png",
		PreviewDir:           "/tmp",
		SettingsPath:         "/tmp/epaper_settings.json",
		FontPaths: []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/freefont/FreeSans.ttf",
		},
		FontLargeSize:    28,
		FontMedSize:      14,
		FontSmallSize:    12,
		WeatherTimeout:   15 * time.Second,
		WeatherUserAgent: "EpaperDashboard/1.0",
		MaxUploadBytes:   10 << 20,
		Listen:           ":5000",
	}
}

// Rebase moves every state file under dir, keeping the file names.
func (c *Config) Rebase(dir string) {
	c.CurrentImagePath = filepath.Join(dir, filepath.Base(c.CurrentImagePath))
	c.BaseImagePath = filepath.Join(dir, filepath.Base(c.BaseImagePath))
	c.DashboardPreviewPath = filepath.Join(dir, filepath.Base(c.DashboardPreviewPath))
	c.SettingsPath = filepath.Join(dir, filepath.Base(c.SettingsPath))
	c.PreviewDir = dir
}
