// Package bridge drives the WiFi module's SPI or I2C bus through a bridge
// MCU running the Klipper-style bus commands (spi_transfer, i2c_read ...).
// The drivers implement core.SPIDriver and core.I2CDriver.
package bridge

import (
	"time"

	"wincbus/protocol"
)

// Every transfer rides in one frame next to a command id (up to two
// bytes), the oid and the data length prefix.
const transferOverhead = 4

// MaxTransfer is the largest transfer a single bridge command can carry.
const MaxTransfer = protocol.MessagePayloadMax - transferOverhead

// minTimeout is the response wait used when the bus passes none.
const minTimeout = 100 * time.Millisecond

func responseTimeout(d time.Duration) time.Duration {
	if d < minTimeout {
		return minTimeout
	}
	return d
}

func matchOID(oid uint8) func(*protocol.Args) bool {
	return func(a *protocol.Args) bool {
		return a.Uint() == uint32(oid)
	}
}
