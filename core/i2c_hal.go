package core

import "time"

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// WINCAddress is the WINC1500 I2C slave address.
const WINCAddress I2CAddress = 0x60

// I2CConfig holds the configuration applied to an I2C bus at init.
type I2CConfig struct {
	Address   I2CAddress
	Frequency uint32 // Hz
}

// DefaultI2CConfig targets the WINC slave at 400 kHz.
func DefaultI2CConfig() I2CConfig {
	return I2CConfig{Address: WINCAddress, Frequency: 400_000}
}

func (c I2CConfig) validate() error {
	if c.Address > 0x7F || c.Frequency == 0 {
		return ErrInvalidArgument
	}
	return nil
}

// I2CDriver is the platform's I2C peripheral driver.
type I2CDriver interface {
	// Configure initializes the bus. Called by Controller.Init.
	Configure(cfg I2CConfig) error

	// Tx writes w then reads len(r) bytes from addr in a single bus
	// transaction. Either buffer may be nil. Blocks for at most timeout.
	Tx(addr I2CAddress, w, r []byte, timeout time.Duration) error
}
