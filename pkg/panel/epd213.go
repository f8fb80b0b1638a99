package panel

import (
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Waveshare 2.13" V4 panel geometry. The controller RAM is addressed
// portrait: 122 pixels wide, 250 high, 16 bytes per row.
const (
	epdWidth     = 122
	epdHeight    = 250
	epdRowBytes  = (epdWidth + 7) / 8
	epdFrameSize = epdRowBytes * epdHeight
)

// BCM pin names used by the stock Waveshare HAT wiring.
const (
	pinRST  = "GPIO17"
	pinDC   = "GPIO25"
	pinBUSY = "GPIO24"
)

const (
	cmdDriverOutput  = 0x01
	cmdDeepSleep     = 0x10
	cmdDataEntry     = 0x11
	cmdSWReset       = 0x12
	cmdTempSensor    = 0x18
	cmdMasterActive  = 0x20
	cmdUpdateControl = 0x21
	cmdUpdateMode    = 0x22
	cmdWriteRAM      = 0x24
	cmdBorder        = 0x3c
	cmdRAMXRange     = 0x44
	cmdRAMYRange     = 0x45
	cmdRAMXCursor    = 0x4e
	cmdRAMYCursor    = 0x4f
)

const (
	busyTimeout = 10 * time.Second
	spiChunk    = 4096
)

// EPD drives the e-paper panel over SPI and GPIO.
type EPD struct {
	mu      sync.Mutex
	logger  *zap.Logger
	port    spi.PortCloser
	conn    spi.Conn
	dc      gpio.PinIO
	rst     gpio.PinIO
	busy    gpio.PinIO
	started bool
}

// NewEPD opens the SPI bus and GPIO pins. It fails when the host has no
// usable hardware, which the probe step turns into demo mode.
func NewEPD(logger *zap.Logger) (*EPD, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init failed")
	}

	port, err := spireg.Open("")
	if err != nil {
		return nil, errors.Wrap(err, "SPI port open failed")
	}

	conn, err := port.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "SPI connect failed")
	}

	e := &EPD{
		logger: logger,
		port:   port,
		conn:   conn,
	}
	for name, dst := range map[string]*gpio.PinIO{pinRST: &e.rst, pinDC: &e.dc, pinBUSY: &e.busy} {
		pin := gpioreg.ByName(name)
		if pin == nil {
			_ = port.Close()
			return nil, errors.Errorf("GPIO pin %s not found", name)
		}
		*dst = pin
	}
	if err := e.busy.In(gpio.Float, gpio.NoEdge); err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "busy pin setup failed")
	}

	return e, nil
}

func (e *EPD) Startup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	if err := e.reset(); err != nil {
		return err
	}
	if err := e.initSequence(); err != nil {
		return err
	}
	if err := e.clearLocked(); err != nil {
		return err
	}

	e.started = true
	e.logger.With(zap.Int("width", epdWidth), zap.Int("height", epdHeight)).Info("panel initialized")
	return nil
}

func (e *EPD) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clearLocked()
}

func (e *EPD) Size() (int, int, bool) {
	return epdWidth, epdHeight, true
}

func (e *EPD) Draw(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != epdWidth || b.Dy() != epdHeight {
		return errors.Errorf("raster is %dx%d, panel buffer is %dx%d", b.Dx(), b.Dy(), epdWidth, epdHeight)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	if err := e.writeFrame(packFrame(img)); err != nil {
		return err
	}
	e.logger.With(zap.String("cost", time.Since(start).String())).Debug("frame written")
	return nil
}

func (e *EPD) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.command(cmdDeepSleep, 0x01); err != nil {
		e.logger.With(zap.Error(err)).Info("deep sleep failed")
	}
	e.started = false
	return e.port.Close()
}

func (e *EPD) clearLocked() error {
	frame := make([]byte, epdFrameSize)
	for i := range frame {
		frame[i] = 0xff
	}
	return e.writeFrame(frame)
}

func (e *EPD) reset() error {
	steps := []struct {
		level gpio.Level
		wait  time.Duration
	}{
		{gpio.High, 20 * time.Millisecond},
		{gpio.Low, 2 * time.Millisecond},
		{gpio.High, 20 * time.Millisecond},
	}
	for _, s := range steps {
		if err := e.rst.Out(s.level); err != nil {
			return errors.Wrap(err, "reset pin write failed")
		}
		time.Sleep(s.wait)
	}
	return nil
}

func (e *EPD) initSequence() error {
	if err := e.waitIdle(); err != nil {
		return err
	}
	if err := e.command(cmdSWReset); err != nil {
		return err
	}
	if err := e.waitIdle(); err != nil {
		return err
	}

	seq := []struct {
		cmd  byte
		args []byte
	}{
		{cmdDriverOutput, []byte{byte(epdHeight - 1), byte((epdHeight - 1) >> 8), 0x00}},
		{cmdDataEntry, []byte{0x03}},
		{cmdRAMXRange, []byte{0x00, byte(epdRowBytes - 1)}},
		{cmdRAMYRange, []byte{0x00, 0x00, byte(epdHeight - 1), byte((epdHeight - 1) >> 8)}},
		{cmdBorder, []byte{0x05}},
		{cmdUpdateControl, []byte{0x00, 0x80}},
		{cmdTempSensor, []byte{0x80}},
	}
	for _, s := range seq {
		if err := e.command(s.cmd, s.args...); err != nil {
			return err
		}
	}
	return e.waitIdle()
}

func (e *EPD) writeFrame(frame []byte) error {
	if err := e.setCursor(); err != nil {
		return err
	}
	if err := e.command(cmdWriteRAM, frame...); err != nil {
		return err
	}
	if err := e.command(cmdUpdateMode, 0xf7); err != nil {
		return err
	}
	if err := e.command(cmdMasterActive); err != nil {
		return err
	}
	return e.waitIdle()
}

func (e *EPD) setCursor() error {
	if err := e.command(cmdRAMXCursor, 0x00); err != nil {
		return err
	}
	return e.command(cmdRAMYCursor, 0x00, 0x00)
}

func (e *EPD) command(cmd byte, args ...byte) error {
	if err := e.dc.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "dc pin write failed")
	}
	if err := e.conn.Tx([]byte{cmd}, nil); err != nil {
		return errors.Wrapf(err, "command %#02x failed", cmd)
	}
	if len(args) == 0 {
		return nil
	}

	if err := e.dc.Out(gpio.High); err != nil {
		return errors.Wrap(err, "dc pin write failed")
	}
	for off := 0; off < len(args); off += spiChunk {
		end := off + spiChunk
		if end > len(args) {
			end = len(args)
		}
		if err := e.conn.Tx(args[off:end], nil); err != nil {
			return errors.Wrapf(err, "data for command %#02x failed", cmd)
		}
	}
	return nil
}

func (e *EPD) waitIdle() error {
	deadline := time.Now().Add(busyTimeout)
	for e.busy.Read() == gpio.High {
		if time.Now().After(deadline) {
			return errors.New("panel busy timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// packFrame converts a raster to the controller's 1bpp buffer: y-major,
// MSB-first, bit set for white.
func packFrame(img image.Image) []byte {
	frame := make([]byte, epdFrameSize)
	for i := range frame {
		frame[i] = 0xff
	}

	b := img.Bounds()
	for y := 0; y < epdHeight; y++ {
		for x := 0; x < epdWidth; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if c.Y < 0x80 {
				frame[y*epdRowBytes+x/8] &^= 0x80 >> uint(x%8)
			}
		}
	}
	return frame
}
