// SPI transaction engine
// Runs one chip-selected, interrupt-guarded exchange per call.
package core

import "time"

// Exchanger is implemented by buses that can clock data in and out at the
// same time.
type Exchanger interface {
	Exchange(w, r []byte) error
}

// SPIBus performs full-duplex transactions on an SPIDriver.
type SPIBus struct {
	driver  SPIDriver
	cs      ChipSelect
	guard   Guard
	timeout time.Duration
	caps    Capabilities
}

// NewSPIBus builds an engine over driver. A nil cs means the driver handles
// chip select itself; a nil guard means InterruptGuard.
func NewSPIBus(driver SPIDriver, cs ChipSelect, guard Guard) *SPIBus {
	if cs == nil {
		cs = NoChipSelect
	}
	if guard == nil {
		guard = InterruptGuard
	}
	return &SPIBus{
		driver:  driver,
		cs:      cs,
		guard:   guard,
		timeout: DefaultTimeout,
		caps:    capabilitiesFor(driver),
	}
}

// SetTimeout changes the bound passed to the driver on every transfer.
func (b *SPIBus) SetTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

// Capabilities reports the largest exchange this bus accepts.
func (b *SPIBus) Capabilities() Capabilities {
	return b.caps
}

// Exchange runs one transaction of len(w) or len(r) bytes.
//
// With w nil, r is zero-filled and transmitted in place (read only). With r
// nil, received bytes are written back into w (write only). Requests larger
// than Capabilities().MaxTransactionSize are rejected, not split.
func (b *SPIBus) Exchange(w, r []byte) error {
	n, err := b.check(w, r)
	if err != nil {
		RecordTrace(TraceReject, n, StatusOf(err))
		return err
	}

	switch {
	case w == nil:
		clear(r)
		w = r
	case r == nil:
		r = w
	}

	var txHead string
	if IsDebugEnabled() {
		txHead = hexBytes(w, 8)
	}
	if err := b.transfer(w, r); err != nil {
		RecordTrace(TraceExchange, n, StatusBusFail)
		if IsDebugEnabled() {
			DebugPrintln("[BUS] exchange failed: " + err.Error() + " tx=" + txHead)
		}
		return busFail("spi exchange", err)
	}
	RecordTrace(TraceExchange, n, StatusOK)
	return nil
}

func (b *SPIBus) check(w, r []byte) (int, error) {
	if w == nil && r == nil {
		return 0, ErrInvalidArgument
	}
	n := len(w)
	if w == nil {
		n = len(r)
	} else if r != nil && len(r) != n {
		return n, ErrInvalidArgument
	}
	if n > b.caps.MaxTransactionSize {
		return n, ErrTooLarge
	}
	return n, nil
}

// transfer brackets the driver call. Deferred calls run deassert before
// release so the select line is idle before interrupts come back.
func (b *SPIBus) transfer(w, r []byte) error {
	state := b.guard.Acquire()
	defer b.guard.Release(state)

	b.cs.Assert()
	defer b.cs.Deassert()

	return b.driver.Transfer(w, r, b.timeout)
}
