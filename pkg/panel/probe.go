package panel

import "go.uber.org/zap"

// Probe selects the panel implementation once at startup: the hardware
// driver when the bus and pins are reachable, otherwise the demo variant.
// Hardware init failure degrades instead of aborting the process.
func Probe(logger *zap.Logger) Control {
	dev, err := NewEPD(logger.With(zap.String("via", "epd")))
	if err != nil {
		logger.With(zap.Error(err)).Warn("panel hardware unavailable, running in demo mode")
		return Demo(logger.With(zap.String("via", "demo-panel")))
	}
	return dev
}
