//go:build rp2040 || rp2350

package main

// BusSelect determines how the WiFi module is wired
type BusSelect struct {
	// Set to true when the module is strapped for I2C
	// Set to false for SPI (the Xplained Pro default)
	I2C bool

	// Hardware bus number (see rp2040SPIBuses / rp2040I2CBuses)
	Bus uint8
}

// GetBus returns the current wiring.
// This can be modified at compile time
func GetBus() BusSelect {
	return BusSelect{
		I2C: false,
		Bus: 2,
	}
}
