package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"wincbus/core"
	"wincbus/host/bridge"
	"wincbus/host/config"
	"wincbus/host/logging"
	"wincbus/host/mcu"
	"wincbus/host/periph"
	"wincbus/host/serial"
)

// connectBridge opens the serial link of a bridge backend.
var connectBridge = func(m *mcu.MCU, cfg *config.Config) error {
	sc := serial.DefaultConfig(cfg.Serial.Device)
	sc.Baud = cfg.Serial.Baud
	return m.ConnectWithConfig(sc)
}

// session is one configured bus and everything that must be closed with it.
type session struct {
	log    *zap.SugaredLogger
	cfg    *config.Config
	ctrl   *core.Controller
	handle *core.Handle
	mcu    *mcu.MCU

	closers []func() error
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String(flagConfig); path != "" {
		return config.LoadFile(path)
	}
	return config.LoadConfig([]byte(`{}`))
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger("wincbus", c.Bool(flagDebug))
	logging.AttachCore(logger)
	return &session{log: logger, cfg: cfg}, nil
}

// openMCU connects to the bridge and loads its dictionary.
func (s *session) openMCU() error {
	if s.cfg.Backend != config.BackendBridge {
		return errors.Errorf("backend %q has no bridge MCU", s.cfg.Backend)
	}
	m := mcu.NewMCU(s.log.Named("mcu"))
	if err := connectBridge(m, s.cfg); err != nil {
		return err
	}
	s.closers = append(s.closers, m.Close)
	if err := m.RetrieveDictionary(); err != nil {
		return err
	}
	s.mcu = m
	return nil
}

// openBus builds the controller for the configured backend and runs Init.
func (s *session) openBus() error {
	opts := []core.Option{
		core.WithGuard(&core.MutexGuard{}),
		core.WithTimeout(s.cfg.Timeout()),
	}

	switch s.cfg.Backend {
	case config.BackendBridge:
		if err := s.openMCU(); err != nil {
			return err
		}
		if s.cfg.Bus == config.BusSPI {
			s.ctrl = core.NewSPIController(bridge.NewSPI(s.mcu, s.cfg.SPI.Bus, s.log),
				nil, s.cfg.SPIBusConfig(), opts...)
		} else {
			s.ctrl = core.NewI2CController(bridge.NewI2C(s.mcu, s.cfg.I2C.Bus, s.log),
				s.cfg.I2CBusConfig(), opts...)
		}

	case config.BackendPeriph:
		if err := periph.Init(s.log); err != nil {
			return err
		}
		pins := s.cfg.Pins
		if pins.ChipEnable != "" && pins.ResetN != "" {
			board, err := periph.OpenBoard(pins.ChipEnable, pins.ResetN, s.log)
			if err != nil {
				return err
			}
			s.closers = append(s.closers, board.Halt)
			opts = append(opts, core.WithBoard(board))
		}
		if s.cfg.Bus == config.BusSPI {
			drv, err := periph.OpenSPI(s.cfg.SPI.Port, s.log)
			if err != nil {
				return err
			}
			s.closers = append(s.closers, drv.Close)
			var cs core.ChipSelect
			if pins.ChipSelect != "" {
				pin, err := periph.OpenPin(pins.ChipSelect)
				if err != nil {
					return err
				}
				s.closers = append(s.closers, pin.Halt)
				cs = core.NewChipSelect(periph.OutputPin(pin, s.log))
			}
			s.ctrl = core.NewSPIController(drv, cs, s.cfg.SPIBusConfig(), opts...)
		} else {
			drv, err := periph.OpenI2C(s.cfg.I2C.Port, s.log)
			if err != nil {
				return err
			}
			s.closers = append(s.closers, drv.Close)
			s.ctrl = core.NewI2CController(drv, s.cfg.I2CBusConfig(), opts...)
		}
	}

	h, err := s.ctrl.Init()
	if err != nil {
		return errors.Wrapf(err, "init %s bus (status %v)", s.cfg.Bus, core.StatusOf(err))
	}
	s.handle = h
	s.log.Debugw("bus ready", "backend", s.cfg.Backend, "bus", s.cfg.Bus,
		"max_transaction", h.Capabilities().MaxTransactionSize)
	return nil
}

// Close retires the handle and releases every backend resource.
func (s *session) Close() error {
	var err error
	if s.ctrl != nil {
		err = multierr.Append(err, s.ctrl.Deinit())
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i]())
	}
	core.DumpTrace()
	logging.DetachCore()
	s.log.Sync() //nolint:errcheck
	return err
}
