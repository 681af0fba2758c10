//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"wincbus/core"
)

type i2cBusConfig struct {
	i2c *machine.I2C
	sda machine.Pin
	scl machine.Pin
}

// RP2040/RP2350 have I2C0 and I2C1
var rp2040I2CBuses = map[uint8]i2cBusConfig{
	0: {i2c: machine.I2C0, sda: machine.GPIO4, scl: machine.GPIO5},
	1: {i2c: machine.I2C1, sda: machine.GPIO6, scl: machine.GPIO7},
}

// NewI2CDriver returns a core.I2CDriver for I2C0 or I2C1. machine.I2C is a
// drivers.I2C; a repeated Configure only updates the baud rate.
func NewI2CDriver(bus uint8) (core.I2CDriver, error) {
	pins, ok := rp2040I2CBuses[bus]
	if !ok {
		return nil, errors.New("unsupported I2C bus ID")
	}

	configured := false
	return core.NewI2CShim(pins.i2c, func(cfg core.I2CConfig) error {
		if configured {
			return pins.i2c.SetBaudRate(cfg.Frequency)
		}
		err := pins.i2c.Configure(machine.I2CConfig{
			Frequency: cfg.Frequency,
			SDA:       pins.sda,
			SCL:       pins.scl,
		})
		if err != nil {
			return err
		}
		configured = true
		return nil
	}), nil
}
