package core

import "time"

// BusKind names the transport a controller was built for.
type BusKind uint8

const (
	BusSPI BusKind = iota + 1
	BusI2C
)

func (k BusKind) String() string {
	switch k {
	case BusSPI:
		return "spi"
	case BusI2C:
		return "i2c"
	default:
		return "none"
	}
}

// Board is the board-support hook run once the bus is configured.
type Board interface {
	// Reset power-cycles the attached WiFi module.
	Reset() error
}

// Option customises a Controller.
type Option func(*Controller)

// WithGuard replaces InterruptGuard, e.g. with a MutexGuard on a hosted
// system.
func WithGuard(g Guard) Option {
	return func(c *Controller) { c.guard = g }
}

// WithBoard sets the reset hook run during Init.
func WithBoard(b Board) Option {
	return func(c *Controller) { c.board = b }
}

// WithTimeout overrides DefaultTimeout for every transfer.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// Controller owns the single bus handle of one WiFi module: it configures
// the peripheral, resets the module and hands out the handle.
//
// A Controller is not safe for concurrent Init/Deinit.
type Controller struct {
	kind BusKind

	spi    SPIDriver
	spiCfg SPIConfig
	cs     ChipSelect

	i2c    I2CDriver
	i2cCfg I2CConfig

	guard   Guard
	board   Board
	timeout time.Duration

	handle *Handle
}

// NewSPIController builds a controller for a module on SPI. cs may be nil
// when the driver asserts chip select itself.
func NewSPIController(drv SPIDriver, cs ChipSelect, cfg SPIConfig, opts ...Option) *Controller {
	if cs == nil {
		cs = NoChipSelect
	}
	c := &Controller{kind: BusSPI, spi: drv, spiCfg: cfg, cs: cs}
	c.apply(opts)
	return c
}

// NewI2CController builds a controller for a module on I2C.
func NewI2CController(drv I2CDriver, cfg I2CConfig, opts ...Option) *Controller {
	c := &Controller{kind: BusI2C, i2c: drv, i2cCfg: cfg, cs: NoChipSelect}
	c.apply(opts)
	return c
}

func (c *Controller) apply(opts []Option) {
	c.guard = InterruptGuard
	c.timeout = DefaultTimeout
	for _, opt := range opts {
		opt(c)
	}
	if c.guard == nil {
		c.guard = InterruptGuard
	}
}

// Kind reports the transport this controller drives.
func (c *Controller) Kind() BusKind {
	return c.kind
}

// Handle returns the live handle, or nil before Init and after Deinit.
func (c *Controller) Handle() *Handle {
	return c.handle
}

// Init configures the peripheral, resets the module and returns the bus
// handle. Callers should call it once; calling it again re-applies the
// configuration and returns the same handle.
//
// On failure no handle is left active.
func (c *Controller) Init() (*Handle, error) {
	c.cs.Deassert()

	bus, caps, err := c.configure()
	if err != nil {
		c.drop()
		RecordTrace(TraceInit, 0, StatusInitFail)
		return nil, err
	}

	if c.board != nil {
		if err := c.board.Reset(); err != nil {
			c.drop()
			RecordTrace(TraceInit, 0, StatusInitFail)
			return nil, configFail("board reset", err)
		}
	}
	c.cs.Deassert()

	if c.handle == nil {
		c.handle = &Handle{}
	}
	h := c.handle
	h.kind = c.kind
	h.bus = bus
	h.caps = caps
	h.dispatcher = NewDispatcher(bus, h.caps)
	h.open = true

	RecordTrace(TraceInit, 0, StatusOK)
	DebugPrintln("[BUS] " + c.kind.String() + " bus ready, max transaction " + itoa(h.caps.MaxTransactionSize))
	return h, nil
}

func (c *Controller) configure() (any, Capabilities, error) {
	switch c.kind {
	case BusSPI:
		if c.spi == nil {
			return nil, Capabilities{}, configFail("spi configure", ErrInvalidArgument)
		}
		if err := c.spiCfg.validate(); err != nil {
			return nil, Capabilities{}, configFail("spi configure", err)
		}
		if err := c.spi.Configure(c.spiCfg); err != nil {
			return nil, Capabilities{}, configFail("spi configure", err)
		}
		bus := NewSPIBus(c.spi, c.cs, c.guard)
		bus.SetTimeout(c.timeout)
		return bus, bus.Capabilities(), nil
	case BusI2C:
		if c.i2c == nil {
			return nil, Capabilities{}, configFail("i2c configure", ErrInvalidArgument)
		}
		if err := c.i2cCfg.validate(); err != nil {
			return nil, Capabilities{}, configFail("i2c configure", err)
		}
		if err := c.i2c.Configure(c.i2cCfg); err != nil {
			return nil, Capabilities{}, configFail("i2c configure", err)
		}
		bus := NewI2CBus(c.i2c, c.i2cCfg.Address, c.guard)
		bus.SetTimeout(c.timeout)
		return bus, bus.Capabilities(), nil
	default:
		return nil, Capabilities{}, configFail("configure", ErrInvalidArgument)
	}
}

func (c *Controller) drop() {
	if c.handle != nil {
		c.handle.open = false
		c.handle = nil
	}
}

// Deinit retires the handle. There is nothing to release, so it always
// succeeds, including without a prior Init.
func (c *Controller) Deinit() error {
	c.drop()
	return nil
}

// Handle is the configured bus. Every upper-layer transaction goes through
// Handle.Dispatch.
type Handle struct {
	kind       BusKind
	bus        any
	caps       Capabilities
	dispatcher *Dispatcher
	open       bool
}

// Kind reports the bus transport.
func (h *Handle) Kind() BusKind {
	return h.kind
}

// Capabilities returns the bus capability descriptor.
func (h *Handle) Capabilities() Capabilities {
	return h.caps
}

// Supports reports whether cmd is available on this bus.
func (h *Handle) Supports(cmd Command) bool {
	return h != nil && h.open && h.dispatcher.Supports(cmd)
}

// Dispatch runs one bus command. params must be the parameter block type
// named by cmd.
func (h *Handle) Dispatch(cmd Command, params any) error {
	if h == nil || !h.open {
		return ErrNotInitialized
	}
	return h.dispatcher.Dispatch(cmd, params)
}
