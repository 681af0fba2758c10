//go:build (rp2040 || rp2350) && pio

package main

import (
	"errors"
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"

	"wincbus/core"
)

// PIO SPI pins. Any GPIOs work; these match the spi0c hardware pin set so
// the same wiring runs either backend.
const (
	pioSCK = machine.GPIO18
	pioSDO = machine.GPIO19
	pioSDI = machine.GPIO16
)

// PIOSPIDriver implements core.SPIDriver with a PIO state machine
type PIOSPIDriver struct {
	spi *piolib.SPI
}

// NewSPIDriver returns the PIO backend. The bus argument is kept for parity
// with the hardware backend and must be 2.
func NewSPIDriver(bus uint8) (core.SPIDriver, error) {
	if bus != 2 {
		return nil, errors.New("PIO SPI is wired as bus 2 only")
	}
	return &PIOSPIDriver{}, nil
}

// Configure claims a state machine on first use. The program is loaded for
// one rate, so later calls only check the mode.
func (d *PIOSPIDriver) Configure(cfg core.SPIConfig) error {
	if cfg.Mode != core.SPIMode0 {
		return errors.New("PIO SPI supports mode 0 only")
	}
	if d.spi != nil {
		return nil
	}

	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		return err
	}
	spi, err := piolib.NewSPI(sm, machine.SPIConfig{
		Frequency: cfg.Frequency,
		SCK:       pioSCK,
		SDO:       pioSDO,
		SDI:       pioSDI,
		LSBFirst:  cfg.BitOrder == core.LSBFirst,
	})
	if err != nil {
		return err
	}
	d.spi = spi
	return nil
}

// Transfer runs a blocking PIO transfer; the FIFO drains in bounded time so
// the timeout is not applied.
func (d *PIOSPIDriver) Transfer(w, r []byte, _ time.Duration) error {
	if d.spi == nil {
		return errors.New("PIO SPI not configured")
	}
	return d.spi.Tx(w, r)
}

// SPIBusName returns the pin set name for diagnostics.
func SPIBusName(uint8) string {
	return "pio0"
}
