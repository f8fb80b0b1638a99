package settings

// Settings is the persisted display configuration. Loaded once at startup
// merged over defaults, mutated only through the Store, persisted after
// every mutation.
type Settings struct {
	Mode         string `json:"mode" validate:"oneof=image dashboard"`
	City         string `json:"city" validate:"max=100"`
	Units        string `json:"units" validate:"oneof=c f"`
	Interval     int    `json:"interval" validate:"min=30,max=86400"`
	ShowHumidity bool   `json:"show_humidity"`
	ShowWind     bool   `json:"show_wind"`
	ShowSun      bool   `json:"show_sun"`
	Rotation     int    `json:"rotation" validate:"oneof=0 90 180 270"`
	FlipH        bool   `json:"flip_h"`
	FlipV        bool   `json:"flip_v"`
}

// Patch is a partial settings update; nil fields keep their current value.
type Patch struct {
	Mode         *string `json:"mode"`
	City         *string `json:"city"`
	Units        *string `json:"units"`
	Interval     *int    `json:"interval"`
	ShowHumidity *bool   `json:"show_humidity"`
	ShowWind     *bool   `json:"show_wind"`
	ShowSun      *bool   `json:"show_sun"`
	Rotation     *int    `json:"rotation"`
	FlipH        *bool   `json:"flip_h"`
	FlipV        *bool   `json:"flip_v"`
}

func Default() Settings {
	return Settings{
		Mode:         "image",
		City:         "San Francisco",
		Units:        "c",
		Interval:     300,
		ShowHumidity: true,
		ShowWind:     true,
		ShowSun:      true,
		Rotation:     90,
		FlipH:        false,
		FlipV:        false,
	}
}

func (p Patch) applyTo(s *Settings) {
	if p.Mode != nil {
		s.Mode = *p.Mode
	}
	if p.City != nil {
		s.City = *p.City
	}
	if p.Units != nil {
		s.Units = *p.Units
	}
	if p.Interval != nil {
		s.Interval = *p.Interval
	}
	if p.ShowHumidity != nil {
		s.ShowHumidity = *p.ShowHumidity
	}
	if p.ShowWind != nil {
		s.ShowWind = *p.ShowWind
	}
	if p.ShowSun != nil {
		s.ShowSun = *p.ShowSun
	}
	if p.Rotation != nil {
		s.Rotation = *p.Rotation
	}
	if p.FlipH != nil {
		s.FlipH = *p.FlipH
	}
	if p.FlipV != nil {
		s.FlipV = *p.FlipV
	}
}
