package periph

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"wincbus/core"
)

// I2C is a core.I2CDriver over a periph i2c.Bus.
type I2C struct {
	bus i2c.Bus
	log *zap.SugaredLogger
}

// NewI2C wraps an opened bus.
func NewI2C(bus i2c.Bus, logger *zap.SugaredLogger) *I2C {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &I2C{bus: bus, log: logger.Named("i2c")}
}

// Configure sets the bus clock. Some adapters have a fixed clock and
// refuse; that is logged and ignored.
func (b *I2C) Configure(cfg core.I2CConfig) error {
	if err := b.bus.SetSpeed(physic.Hertz * physic.Frequency(cfg.Frequency)); err != nil {
		b.log.Debugw("bus speed not applied", "bus", b.bus.String(), "error", err)
	}
	return nil
}

// Tx runs a combined write-then-read on addr.
func (b *I2C) Tx(addr core.I2CAddress, w, r []byte, _ time.Duration) error {
	if err := b.bus.Tx(uint16(addr), w, r); err != nil {
		return errors.Wrapf(err, "i2c tx 0x%02x", uint8(addr))
	}
	return nil
}

// Close releases the bus when it owns a file handle.
func (b *I2C) Close() error {
	if c, ok := b.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
