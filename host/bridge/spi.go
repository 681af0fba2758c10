package bridge

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"wincbus/core"
	"wincbus/host/mcu"
	"wincbus/protocol"
)

var spiCommands = []string{"config_spi_without_cs", "spi_set_bus", "spi_transfer"}

// SPI is a core.SPIDriver backed by a bridge MCU. Chip select stays with the
// caller (config_spi_without_cs); pair it with a core.ChipSelect or a bus
// whose select line is tied low.
type SPI struct {
	mcu *mcu.MCU
	bus uint32
	log *zap.SugaredLogger

	oid        uint8
	configured bool
}

// NewSPI returns a driver for hardware SPI bus number bus on the MCU.
func NewSPI(m *mcu.MCU, bus uint32, logger *zap.SugaredLogger) *SPI {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SPI{mcu: m, bus: bus, log: logger.Named("spi")}
}

// Configure creates the SPI object on the MCU on first use and applies the
// mode and rate.
func (s *SPI) Configure(cfg core.SPIConfig) error {
	if d := s.mcu.Dictionary(); d == nil {
		return mcu.ErrNoDictionary
	} else if err := d.HasCommands(spiCommands...); err != nil {
		return err
	}
	if cfg.BitOrder != core.MSBFirst {
		return errors.New("bridge SPI supports MSB first only")
	}

	if !s.configured {
		oid, err := s.mcu.AllocateOID()
		if err != nil {
			return err
		}
		if err := s.mcu.SendCommand("config_spi_without_cs", func(c *protocol.Command) {
			c.Uint(uint32(oid))
		}); err != nil {
			return err
		}
		s.oid = oid
		s.configured = true
	}

	err := s.mcu.SendCommand("spi_set_bus", func(c *protocol.Command) {
		c.Uint(uint32(s.oid)).Uint(s.bus).Uint(uint32(cfg.Mode)).Uint(cfg.Frequency)
	})
	if err != nil {
		return err
	}
	s.log.Debugw("configured", "oid", s.oid, "bus", s.bus, "mode", cfg.Mode, "rate", cfg.Frequency)
	return nil
}

// Transfer sends w with spi_transfer and copies the response into r.
func (s *SPI) Transfer(w, r []byte, timeout time.Duration) error {
	if !s.configured {
		return errors.New("bridge SPI not configured")
	}
	if len(w) > MaxTransfer {
		return errors.Errorf("transfer of %d bytes exceeds bridge limit %d", len(w), MaxTransfer)
	}

	args, err := s.mcu.Request("spi_transfer", "spi_transfer_response",
		func(c *protocol.Command) { c.Uint(uint32(s.oid)).Bytes(w) },
		matchOID(s.oid), responseTimeout(timeout))
	if err != nil {
		return err
	}
	resp := args.Bytes()
	if err := args.Err(); err != nil {
		return errors.Wrap(err, "decode spi_transfer_response")
	}
	if len(resp) != len(r) {
		return errors.Errorf("spi_transfer_response carried %d bytes, want %d", len(resp), len(r))
	}
	copy(r, resp)
	return nil
}

// MaxTransfer limits core.SPIBus transactions to what fits in one frame.
func (s *SPI) MaxTransfer() int {
	return MaxTransfer
}
