// I2C transaction engine
// Block reads and writes against a single slave address.
package core

import "time"

// BlockReader is implemented by buses with a plain read transaction.
type BlockReader interface {
	ReadBlock(buf []byte) error
}

// BlockWriter is implemented by buses with a plain write transaction.
type BlockWriter interface {
	WriteBlock(buf []byte) error
}

// SpecialWriter is implemented by buses that can send a header and payload
// as one write transaction.
type SpecialWriter interface {
	WriteSpecial(header, payload []byte) error
}

// I2CBus performs transactions against one I2C slave.
type I2CBus struct {
	driver  I2CDriver
	addr    I2CAddress
	guard   Guard
	timeout time.Duration
	caps    Capabilities

	// scratch holds the joined write-special block; only touched under guard.
	scratch []byte
}

// NewI2CBus builds an engine for the slave at addr. A nil guard means
// InterruptGuard.
func NewI2CBus(driver I2CDriver, addr I2CAddress, guard Guard) *I2CBus {
	if guard == nil {
		guard = InterruptGuard
	}
	return &I2CBus{
		driver:  driver,
		addr:    addr & 0x7F,
		guard:   guard,
		timeout: DefaultTimeout,
		caps:    capabilitiesFor(driver),
	}
}

// SetTimeout changes the bound passed to the driver on every transfer.
func (b *I2CBus) SetTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

// Capabilities reports the largest block this bus accepts.
func (b *I2CBus) Capabilities() Capabilities {
	return b.caps
}

// ReadBlock fills buf from the slave.
func (b *I2CBus) ReadBlock(buf []byte) error {
	if err := b.check(buf); err != nil {
		RecordTrace(TraceReject, len(buf), StatusOf(err))
		return err
	}
	if err := b.tx(nil, buf); err != nil {
		RecordTrace(TraceI2CRead, len(buf), StatusBusFail)
		return busFail("i2c read", err)
	}
	RecordTrace(TraceI2CRead, len(buf), StatusOK)
	return nil
}

// WriteBlock sends buf to the slave.
func (b *I2CBus) WriteBlock(buf []byte) error {
	if err := b.check(buf); err != nil {
		RecordTrace(TraceReject, len(buf), StatusOf(err))
		return err
	}
	if err := b.tx(buf, nil); err != nil {
		RecordTrace(TraceI2CWrite, len(buf), StatusBusFail)
		return busFail("i2c write", err)
	}
	RecordTrace(TraceI2CWrite, len(buf), StatusOK)
	return nil
}

// WriteSpecial sends header followed by payload in a single transaction.
func (b *I2CBus) WriteSpecial(header, payload []byte) error {
	n := len(header) + len(payload)
	if n > b.caps.MaxTransactionSize {
		RecordTrace(TraceReject, n, StatusInvalidArg)
		return ErrTooLarge
	}

	state := b.guard.Acquire()
	if b.scratch == nil {
		b.scratch = make([]byte, b.caps.MaxTransactionSize)
	}
	buf := b.scratch[:n]
	copy(buf, header)
	copy(buf[len(header):], payload)
	err := b.driver.Tx(b.addr, buf, nil, b.timeout)
	b.guard.Release(state)

	if err != nil {
		RecordTrace(TraceI2CWrite, n, StatusBusFail)
		return busFail("i2c write special", err)
	}
	RecordTrace(TraceI2CWrite, n, StatusOK)
	return nil
}

func (b *I2CBus) check(buf []byte) error {
	if buf == nil {
		return ErrInvalidArgument
	}
	if len(buf) > b.caps.MaxTransactionSize {
		return ErrTooLarge
	}
	return nil
}

func (b *I2CBus) tx(w, r []byte) error {
	state := b.guard.Acquire()
	defer b.guard.Release(state)
	return b.driver.Tx(b.addr, w, r, b.timeout)
}
