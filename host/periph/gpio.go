package periph

import (
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"wincbus/core"
)

// LevelOut is the part of gpio.PinOut the bus layer drives.
type LevelOut interface {
	Out(l gpio.Level) error
}

// OutputPin adapts a periph line to core.OutputPin. core.OutputPin has no
// error path, so failures are logged.
func OutputPin(p LevelOut, logger *zap.SugaredLogger) core.OutputPin {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return func(high bool) {
		if err := p.Out(gpio.Level(high)); err != nil {
			logger.Warnw("gpio write failed", "pin", p, "level", high, "error", err)
		}
	}
}

// Line is an output line the board drives and halts on close.
// gpio.PinIO satisfies it.
type Line interface {
	LevelOut
	Halt() error
}

// Board holds the module's chip enable and reset lines.
type Board struct {
	ChipEnable Line
	ResetN     Line
	log        *zap.SugaredLogger
}

// OpenBoard looks both lines up by name.
func OpenBoard(chipEnable, resetN string, logger *zap.SugaredLogger) (*Board, error) {
	if err := Init(logger); err != nil {
		return nil, err
	}
	en, err := OpenPin(chipEnable)
	if err != nil {
		return nil, err
	}
	rst, err := OpenPin(resetN)
	if err != nil {
		return nil, err
	}
	return &Board{ChipEnable: en, ResetN: rst, log: logger}, nil
}

// Reset power-cycles the module.
func (b *Board) Reset() error {
	r := &core.PinReset{
		ChipEnable: OutputPin(b.ChipEnable, b.log),
		ResetN:     OutputPin(b.ResetN, b.log),
		Sleep:      time.Sleep,
	}
	return r.Reset()
}

// Halt stops both lines. Both are halted even when the first one fails.
func (b *Board) Halt() error {
	return multierr.Combine(b.ChipEnable.Halt(), b.ResetN.Halt())
}
