package dashboard

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"epaperdash/pkg/config"
	"epaperdash/pkg/raster"
	"epaperdash/pkg/settings"
	"epaperdash/pkg/weather"
)

// Layout literals, tuned to the 250x122 panel.
const (
	margin      = 8
	headerY     = 4
	subheaderY  = 40
	dividerY    = 58
	leftX       = 10
	rightMargin = 10
	leftColMaxW = 130
	tempBudget  = 120
	ellipsis    = "…"
)

// Renderer composes the weather dashboard onto a 1-bit canvas of the
// display's native dimensions.
type Renderer struct {
	cfg    *config.Config
	fonts  *FontSet
	logger *zap.Logger
}

func NewRenderer(cfg *config.Config, fonts *FontSet, logger *zap.Logger) *Renderer {
	return &Renderer{cfg: cfg, fonts: fonts, logger: logger}
}

// Render lays out the dashboard for the given snapshot and applies the
// settings rotation and mirror flags after all text is drawn.
func (r *Renderer) Render(snap *weather.Snapshot, s settings.Settings, now time.Time) image.Image {
	w := r.cfg.DisplayWidth
	h := r.cfg.DisplayHeight

	dc := r.newCanvas(w, h)

	timeStr := now.Format("3:04 PM")
	dateStr := now.Format("Mon Jan 02")

	// Header and subheader row.
	dc.SetFontFace(r.fonts.Face(r.cfg.FontLargeSize))
	drawTopLeft(dc, timeStr, margin, headerY)

	dc.SetFontFace(r.fonts.Face(r.cfg.FontMedSize))
	drawTopLeft(dc, dateStr, leftX, subheaderY)

	city := ellipsize(dc, snap.CityDisplay, float64(w-2*margin-70))
	cityW, _ := dc.MeasureString(city)
	drawTopLeft(dc, city, float64(w)-cityW-margin, subheaderY)

	dc.SetLineWidth(1)
	dc.DrawLine(margin, dividerY, float64(w-margin), dividerY)
	dc.Stroke()

	// Left column: temperature, then condition pinned to the bottom.
	tempStr := formatTemperature(snap.Temperature, s.Units)
	dc.SetFontFace(r.tempFace(dc, tempStr))
	drawTopLeft(dc, tempStr, leftX, dividerY+8)

	code := 0
	if snap.WeatherCode != nil {
		code = *snap.WeatherCode
	}
	dc.SetFontFace(r.fonts.Face(r.cfg.FontSmallSize))
	condition := ellipsize(dc, weather.CodeText(code), leftColMaxW)
	drawTopLeft(dc, condition, leftX, float64(h-20))

	r.drawRightColumn(dc, snap, s, w)

	return raster.Orient(raster.Quantize(dc.Image()), float64(s.Rotation), s.FlipH, s.FlipV)
}

// RenderError draws only an error message on an otherwise blank canvas.
func (r *Renderer) RenderError(msg string) image.Image {
	dc := r.newCanvas(r.cfg.DisplayWidth, r.cfg.DisplayHeight)
	dc.SetFontFace(r.fonts.Face(r.cfg.FontMedSize))
	drawTopLeft(dc, msg, margin, margin)
	return raster.Quantize(dc.Image())
}

func (r *Renderer) newCanvas(w, h int) *gg.Context {
	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	return dc
}

func (r *Renderer) drawRightColumn(dc *gg.Context, snap *weather.Snapshot, s settings.Settings, w int) {
	var lines []string

	if s.ShowHumidity && snap.Humidity != nil {
		lines = append(lines, fmt.Sprintf("Hum %.0f%%", *snap.Humidity))
	}
	if s.ShowWind && snap.WindSpeed != nil {
		lines = append(lines, fmt.Sprintf("Wind %.0f km/h", *snap.WindSpeed))
	}
	if s.ShowSun {
		if sunrise := weather.FormatTime(snap.Sunrise); sunrise != "" {
			lines = append(lines, "↑ "+sunrise)
		}
		if sunset := weather.FormatTime(snap.Sunset); sunset != "" {
			lines = append(lines, "↓ "+sunset)
		}
	}

	dc.SetFontFace(r.fonts.Face(r.cfg.FontMedSize))

	avail := float64(w-rightMargin) - float64(leftX+leftColMaxW+6)
	if avail < 10 {
		avail = 10
	}

	y := float64(dividerY + 8)
	xMax := float64(w - rightMargin)
	for _, line := range lines {
		txt := ellipsize(dc, line, avail)
		tw, th := dc.MeasureString(txt)
		drawTopLeft(dc, txt, xMax-tw, y)
		y += th + 2
	}
}

// tempFace tries a descending sequence of sizes and picks the largest whose
// rendering fits the left column budget, so the temperature never collides
// with the right column.
func (r *Renderer) tempFace(dc *gg.Context, text string) font.Face {
	for _, size := range []float64{r.cfg.FontLargeSize, 24, 20, 18} {
		face := r.fonts.Face(size)
		dc.SetFontFace(face)
		if tw, _ := dc.MeasureString(text); tw <= tempBudget {
			return face
		}
	}
	return r.fonts.Face(18)
}

// ellipsize truncates text with a trailing ellipsis so its measured width
// fits maxWidth, choosing the longest prefix that still fits via binary
// search over the prefix length.
func ellipsize(dc *gg.Context, text string, maxWidth float64) string {
	if tw, _ := dc.MeasureString(text); tw <= maxWidth {
		return text
	}

	runes := []rune(text)
	lo, hi := 0, len(runes)
	best := ellipsis
	for lo <= hi {
		mid := (lo + hi) / 2
		candidate := string(runes[:mid]) + ellipsis
		if tw, _ := dc.MeasureString(candidate); tw <= maxWidth {
			best = candidate
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

func formatTemperature(tempC *float64, units string) string {
	if tempC == nil {
		return "--"
	}
	if units == "f" {
		return fmt.Sprintf("%.0f°F", (*tempC)*9/5+32)
	}
	return fmt.Sprintf("%.0f°C", *tempC)
}

// drawTopLeft anchors text by its top-left corner, matching the coordinate
// convention of the layout literals.
func drawTopLeft(dc *gg.Context, s string, x, y float64) {
	dc.DrawStringAnchored(s, x, y, 0, 1)
}
