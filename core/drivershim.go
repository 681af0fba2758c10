package core

import (
	"time"

	"tinygo.org/x/drivers"
)

// SPIShim adapts an already wired tinygo drivers.SPI (machine.SPI, a PIO SPI,
// a bit-banged SPI) to SPIDriver.
//
// drivers.SPI has no timeout parameter; the timeout passed to Transfer is
// left to the underlying peripheral, which on every supported target
// completes or fails in bounded time.
type SPIShim struct {
	bus       drivers.SPI
	configure func(SPIConfig) error
}

// NewSPIShim wraps bus. configure is called from Configure and may be nil
// when the bus was set up by board code.
func NewSPIShim(bus drivers.SPI, configure func(SPIConfig) error) *SPIShim {
	return &SPIShim{bus: bus, configure: configure}
}

func (s *SPIShim) Configure(cfg SPIConfig) error {
	if s.configure == nil {
		return nil
	}
	return s.configure(cfg)
}

func (s *SPIShim) Transfer(w, r []byte, _ time.Duration) error {
	return s.bus.Tx(w, r)
}

// I2CShim adapts a tinygo drivers.I2C to I2CDriver.
type I2CShim struct {
	bus       drivers.I2C
	configure func(I2CConfig) error
}

func NewI2CShim(bus drivers.I2C, configure func(I2CConfig) error) *I2CShim {
	return &I2CShim{bus: bus, configure: configure}
}

func (s *I2CShim) Configure(cfg I2CConfig) error {
	if s.configure == nil {
		return nil
	}
	return s.configure(cfg)
}

func (s *I2CShim) Tx(addr I2CAddress, w, r []byte, _ time.Duration) error {
	return s.bus.Tx(uint16(addr), w, r)
}
