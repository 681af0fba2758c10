// Package periph drives the WiFi module from a Linux host through
// periph.io: spidev or i2c-dev for the bus and sysfs/gpiochip lines for
// chip enable and reset.
package periph

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the periph host drivers once per process.
func Init(logger *zap.SugaredLogger) error {
	initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			initErr = errors.Wrap(err, "periph host init")
			return
		}
		if logger != nil {
			for _, d := range state.Loaded {
				logger.Debugw("periph driver loaded", "driver", d.String())
			}
			for _, f := range state.Failed {
				logger.Debugw("periph driver failed", "driver", f.D.String(), "error", f.Err)
			}
		}
	})
	return initErr
}

// OpenSPI opens a spidev port by name ("" picks the first one, otherwise
// e.g. "SPI0.0" or "/dev/spidev0.0").
func OpenSPI(name string, logger *zap.SugaredLogger) (*SPI, error) {
	if err := Init(logger); err != nil {
		return nil, err
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open spi %q", name)
	}
	return NewSPI(port, logger), nil
}

// OpenI2C opens an i2c-dev bus by name ("" picks the first one).
func OpenI2C(name string, logger *zap.SugaredLogger) (*I2C, error) {
	if err := Init(logger); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c %q", name)
	}
	return NewI2C(bus, logger), nil
}

// OpenPin looks up a GPIO line by name ("GPIO17", "17").
func OpenPin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("gpio %q not found", name)
	}
	return p, nil
}
