package weather

// WMO coded-condition scheme, reduced to the short texts the panel can fit.
var codeTexts = map[int]string{
	0:  "Clear",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Rime fog",
	51: "Light drizzle",
	53: "Drizzle",
	55: "Heavy drizzle",
	61: "Light rain",
	63: "Rain",
	65: "Heavy rain",
	71: "Light snow",
	73: "Snow",
	75: "Heavy snow",
	80: "Rain showers",
	95: "Thunder",
}

// CodeText maps a WMO weather code to human-readable text.
func CodeText(code int) string {
	if s, ok := codeTexts[code]; ok {
		return s
	}
	return "Unknown"
}
