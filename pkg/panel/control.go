package panel

import "image"

// Control is the capability interface over the display hardware. Two
// implementations exist: the SPI-backed e-paper driver and a demo variant
// used when no panel is attached. Downstream code depends only on this
// interface, never on a hardware presence flag.
type Control interface {
	// Startup initializes the panel. It is idempotent: the first call
	// performs a full clear, later calls reuse the live handle.
	Startup() error

	// Clear blanks the panel to white.
	Clear() error

	// Size reports the native buffer dimensions the hardware expects its
	// write buffer to have, independent of logical rotation. ok is false for
	// the demo variant, which has no physical buffer.
	Size() (width, height int, ok bool)

	// Draw converts a raster to a device buffer and writes it. The raster
	// must already match the native buffer dimensions.
	Draw(img image.Image) error

	Shutdown() error
}
