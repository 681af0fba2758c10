//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"wincbus/core"
)

// WINC1500 Xplained Pro wiring on the Pico header
const (
	pinCS      = machine.GPIO17
	pinChipEn  = machine.GPIO20
	pinResetN  = machine.GPIO21
	pollPeriod = 2 * time.Second
	pollLength = 8
)

var (
	// Debug counters
	readsOK     uint32
	readsFailed uint32
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	core.SetDebugWriter(USBWriteLine)
	core.SetErrorWriter(USBWriteLine)
	core.SetDebugEnabled(true)

	ctrl, err := newController(GetBus())
	if err != nil {
		halt("bus setup failed: " + err.Error())
	}

	h, err := ctrl.Init()
	if err != nil {
		halt("bus init failed: " + err.Error())
	}

	buf := make([]byte, pollLength)
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					readsFailed++
				}
			}()

			if err := poll(h, buf); err != nil {
				readsFailed++
				core.ErrorPrintln("[BUS] read failed, status " + core.StatusOf(err).String())
				core.DumpTrace()
				core.ClearTrace()
				return
			}
			readsOK++
			core.DebugPrintln("[BUS] read " + hex(buf) + " ok=" + itoa(int(readsOK)) + " failed=" + itoa(int(readsFailed)))
		}()

		time.Sleep(pollPeriod)
	}
}

// newController wires the selected bus, chip select and reset lines.
func newController(sel BusSelect) (*core.Controller, error) {
	pinChipEn.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinResetN.Configure(machine.PinConfig{Mode: machine.PinOutput})
	board := &core.PinReset{
		ChipEnable: pinChipEn.Set,
		ResetN:     pinResetN.Set,
	}

	if sel.I2C {
		drv, err := NewI2CDriver(sel.Bus)
		if err != nil {
			return nil, err
		}
		return core.NewI2CController(drv, core.DefaultI2CConfig(), core.WithBoard(board)), nil
	}

	drv, err := NewSPIDriver(sel.Bus)
	if err != nil {
		return nil, err
	}
	pinCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	core.DebugPrintln("[BUS] spi on " + SPIBusName(sel.Bus))
	return core.NewSPIController(drv, core.NewChipSelect(pinCS.Set), core.DefaultSPIConfig(),
		core.WithBoard(board)), nil
}

// poll issues one zero-filled read with whichever command the bus serves.
func poll(h *core.Handle, buf []byte) error {
	if h.Supports(core.CmdRead) {
		return h.Dispatch(core.CmdRead, core.ReadParams{Buf: buf})
	}
	return h.Dispatch(core.CmdReadWrite, core.ReadWriteParams{Read: buf})
}

// halt reports msg forever so a late USB host still sees it.
func halt(msg string) {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		core.ErrorPrintln("[BUS] " + msg)
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(900 * time.Millisecond)
	}
}

// itoa converts int to string without importing strconv (for embedded)
func itoa(i int) string {
	if i == 0 {
		return "0"
	}

	negative := i < 0
	if negative {
		i = -i
	}

	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}

func hex(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*3)
	for i, v := range b {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, digits[v>>4], digits[v&0x0F])
	}
	return string(out)
}
