package periph

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"wincbus/core"
)

// SPI is a core.SPIDriver over a periph spi.Port.
type SPI struct {
	port    spi.Port
	conn    spi.Conn
	applied core.SPIConfig
	log     *zap.SugaredLogger
}

// NewSPI wraps an opened port. The port's own chip select frames each
// transfer unless the bus is built with a separate core.ChipSelect.
func NewSPI(port spi.Port, logger *zap.SugaredLogger) *SPI {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SPI{port: port, log: logger.Named("spi")}
}

// Configure connects the port with the mode and rate of cfg. periph allows
// a single Connect per port: repeating the applied settings is a no-op and
// changing them needs a fresh port.
func (s *SPI) Configure(cfg core.SPIConfig) error {
	if cfg.DataBits == 0 {
		cfg.DataBits = 8
	}
	if s.conn != nil {
		if cfg == s.applied {
			return nil
		}
		return errors.Errorf("spi port already connected with %+v", s.applied)
	}
	mode := spi.Mode(cfg.Mode)
	if cfg.BitOrder == core.LSBFirst {
		mode |= spi.LSBFirst
	}
	bits := int(cfg.DataBits)
	c, err := s.port.Connect(physic.Hertz*physic.Frequency(cfg.Frequency), mode, bits)
	if err != nil {
		return errors.Wrapf(err, "connect %s", s.port)
	}
	s.conn = c
	s.applied = cfg
	s.log.Debugw("connected", "port", s.port.String(), "mode", cfg.Mode, "rate", cfg.Frequency)
	return nil
}

// Transfer runs one full-duplex transaction. spidev calls block until the
// kernel completes them, so timeout is not applied.
func (s *SPI) Transfer(w, r []byte, _ time.Duration) error {
	if s.conn == nil {
		return errors.New("spi port not connected")
	}
	return s.conn.Tx(w, r)
}

// MaxTransfer reports the spidev buffer size when the port exposes it.
func (s *SPI) MaxTransfer() int {
	if l, ok := s.conn.(conn.Limits); ok {
		return l.MaxTxSize()
	}
	return 0
}

// Close releases the port when it owns a file handle.
func (s *SPI) Close() error {
	var err error
	if c, ok := s.port.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	s.conn = nil
	return err
}
