//go:build (rp2040 || rp2350) && !pio

package main

import (
	"errors"
	"machine"

	"wincbus/core"
)

// RP2040/RP2350 SPI pin sets. Each entry picks the SPI controller and the
// GPIOs routed to it.
type spiBusConfig struct {
	spi  *machine.SPI // SPI controller (SPI0 or SPI1)
	sck  machine.Pin  // Clock pin
	sdo  machine.Pin  // Master Out Slave In
	sdi  machine.Pin  // Master In Slave Out
	name string
}

var rp2040SPIBuses = map[uint8]spiBusConfig{
	// SPI0 configurations
	0: {spi: machine.SPI0, sck: machine.GPIO2, sdo: machine.GPIO3, sdi: machine.GPIO0, name: "spi0a"},
	1: {spi: machine.SPI0, sck: machine.GPIO6, sdo: machine.GPIO7, sdi: machine.GPIO4, name: "spi0b"},
	2: {spi: machine.SPI0, sck: machine.GPIO18, sdo: machine.GPIO19, sdi: machine.GPIO16, name: "spi0c"},
	3: {spi: machine.SPI0, sck: machine.GPIO22, sdo: machine.GPIO23, sdi: machine.GPIO20, name: "spi0d"},

	// SPI1 configurations
	5: {spi: machine.SPI1, sck: machine.GPIO10, sdo: machine.GPIO11, sdi: machine.GPIO8, name: "spi1a"},
	6: {spi: machine.SPI1, sck: machine.GPIO14, sdo: machine.GPIO15, sdi: machine.GPIO12, name: "spi1b"},
	7: {spi: machine.SPI1, sck: machine.GPIO26, sdo: machine.GPIO27, sdi: machine.GPIO24, name: "spi1c"},
}

// NewSPIDriver returns a core.SPIDriver for one of the hardware SPI pin
// sets. machine.SPI is a drivers.SPI, so the shim does the transfers; only
// the mapping onto machine.SPIConfig lives here.
func NewSPIDriver(bus uint8) (core.SPIDriver, error) {
	pins, ok := rp2040SPIBuses[bus]
	if !ok {
		return nil, errors.New("invalid SPI bus ID")
	}

	return core.NewSPIShim(pins.spi, func(cfg core.SPIConfig) error {
		// TinyGo's SPI mode constants match standard SPI modes
		return pins.spi.Configure(machine.SPIConfig{
			Frequency: cfg.Frequency,
			SCK:       pins.sck,
			SDO:       pins.sdo,
			SDI:       pins.sdi,
			LSBFirst:  cfg.BitOrder == core.LSBFirst,
			Mode:      uint8(cfg.Mode),
		})
	}), nil
}

// SPIBusName returns the pin set name for diagnostics.
func SPIBusName(bus uint8) string {
	return rp2040SPIBuses[bus].name
}
