package core

import "time"

// SPIMode represents SPI clock polarity and phase (0-3)
// Mode 0: CPOL=0, CPHA=0 (clock idle low, sample on first edge)
// Mode 1: CPOL=0, CPHA=1 (clock idle low, sample on second edge)
// Mode 2: CPOL=1, CPHA=0 (clock idle high, sample on first edge)
// Mode 3: CPOL=1, CPHA=1 (clock idle high, sample on second edge)
type SPIMode uint8

const (
	SPIMode0 SPIMode = iota
	SPIMode1
	SPIMode2
	SPIMode3
)

// Polarity reports whether the clock idles high.
func (m SPIMode) Polarity() bool { return m&0b10 != 0 }

// Phase reports whether data is sampled on the second clock edge.
func (m SPIMode) Phase() bool { return m&0b01 != 0 }

// BitOrder selects which bit of each byte is shifted first.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

// SPIConfig holds the configuration applied to an SPI bus at init.
type SPIConfig struct {
	Mode      SPIMode
	Frequency uint32 // Hz
	DataBits  uint8
	BitOrder  BitOrder
}

// DefaultSPIConfig is the WINC1500 bus setup: mode 0, 8-bit frames, MSB
// first, 48 MHz peripheral clock divided by 32.
func DefaultSPIConfig() SPIConfig {
	return SPIConfig{
		Mode:      SPIMode0,
		Frequency: 48_000_000 / 32,
		DataBits:  8,
		BitOrder:  MSBFirst,
	}
}

// validate rejects settings no backend in this tree can honour.
func (c SPIConfig) validate() error {
	if c.Mode > SPIMode3 {
		return ErrInvalidArgument
	}
	if c.Frequency == 0 {
		return ErrInvalidArgument
	}
	if c.DataBits != 0 && c.DataBits != 8 {
		return ErrInvalidArgument
	}
	return nil
}

// DefaultTimeout bounds every blocking transfer.
const DefaultTimeout = 10 * time.Second

// SPIDriver is the platform's SPI peripheral driver.
type SPIDriver interface {
	// Configure applies bus parameters. It is called by Controller.Init.
	Configure(cfg SPIConfig) error

	// Transfer clocks len(w) bytes out of w while storing the received bytes
	// in r. w and r always have the same length and may alias. The call
	// blocks for at most timeout.
	Transfer(w, r []byte, timeout time.Duration) error
}
