package bridge

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"wincbus/core"
	"wincbus/host/mcu"
	"wincbus/protocol"
)

var i2cCommands = []string{"config_i2c", "i2c_set_bus", "i2c_write", "i2c_read"}

// I2C is a core.I2CDriver backed by a bridge MCU.
type I2C struct {
	mcu *mcu.MCU
	bus uint32
	log *zap.SugaredLogger

	oid        uint8
	configured bool
	addr       core.I2CAddress
	rate       uint32
}

// NewI2C returns a driver for I2C bus number bus on the MCU.
func NewI2C(m *mcu.MCU, bus uint32, logger *zap.SugaredLogger) *I2C {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &I2C{mcu: m, bus: bus, log: logger.Named("i2c")}
}

// Configure creates the I2C object on the MCU on first use and binds it to
// cfg.Address.
func (b *I2C) Configure(cfg core.I2CConfig) error {
	if d := b.mcu.Dictionary(); d == nil {
		return mcu.ErrNoDictionary
	} else if err := d.HasCommands(i2cCommands...); err != nil {
		return err
	}

	if !b.configured {
		oid, err := b.mcu.AllocateOID()
		if err != nil {
			return err
		}
		if err := b.mcu.SendCommand("config_i2c", func(c *protocol.Command) {
			c.Uint(uint32(oid))
		}); err != nil {
			return err
		}
		b.oid = oid
		b.configured = true
	}
	b.rate = cfg.Frequency
	return b.setBus(cfg.Address)
}

func (b *I2C) setBus(addr core.I2CAddress) error {
	err := b.mcu.SendCommand("i2c_set_bus", func(c *protocol.Command) {
		c.Uint(uint32(b.oid)).Uint(b.bus).Uint(b.rate).Uint(uint32(addr))
	})
	if err != nil {
		return err
	}
	b.addr = addr
	b.log.Debugw("configured", "oid", b.oid, "bus", b.bus, "rate", b.rate, "address", addr)
	return nil
}

// Tx writes w then reads len(r) bytes. A pure write uses i2c_write; a read
// uses i2c_read with w as the register prefix.
func (b *I2C) Tx(addr core.I2CAddress, w, r []byte, timeout time.Duration) error {
	if !b.configured {
		return errors.New("bridge I2C not configured")
	}
	if len(w) > MaxTransfer || len(r) > MaxTransfer {
		return errors.Errorf("transfer exceeds bridge limit %d", MaxTransfer)
	}
	if addr != b.addr {
		if err := b.setBus(addr); err != nil {
			return err
		}
	}

	if len(r) == 0 {
		return b.mcu.SendCommand("i2c_write", func(c *protocol.Command) {
			c.Uint(uint32(b.oid)).Bytes(w)
		})
	}

	args, err := b.mcu.Request("i2c_read", "i2c_read_response",
		func(c *protocol.Command) { c.Uint(uint32(b.oid)).Bytes(w).Uint(uint32(len(r))) },
		matchOID(b.oid), responseTimeout(timeout))
	if err != nil {
		return err
	}
	resp := args.Bytes()
	if err := args.Err(); err != nil {
		return errors.Wrap(err, "decode i2c_read_response")
	}
	if len(resp) != len(r) {
		return errors.Errorf("i2c_read_response carried %d bytes, want %d", len(resp), len(r))
	}
	copy(r, resp)
	return nil
}

// MaxTransfer limits core.I2CBus blocks to what fits in one frame.
func (b *I2C) MaxTransfer() int {
	return MaxTransfer
}
