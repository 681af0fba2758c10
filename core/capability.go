package core

// MaxTransactionSize is the largest number of bytes a single bus
// transaction may carry.
const MaxTransactionSize = 4096

// Capabilities describes what the bus can carry in one call. Upper layers
// size their buffers from it.
type Capabilities struct {
	MaxTransactionSize int
}

// BusCapabilities is the static descriptor for every bus built by this
// package.
var BusCapabilities = Capabilities{MaxTransactionSize: MaxTransactionSize}

// TransferLimiter is implemented by drivers that cannot carry a full
// MaxTransactionSize transfer (e.g. a framed serial bridge).
type TransferLimiter interface {
	MaxTransfer() int
}

// capabilitiesFor narrows BusCapabilities to what drv can carry.
func capabilitiesFor(drv any) Capabilities {
	caps := BusCapabilities
	if l, ok := drv.(TransferLimiter); ok {
		if n := l.MaxTransfer(); n > 0 && n < caps.MaxTransactionSize {
			caps.MaxTransactionSize = n
		}
	}
	return caps
}
