package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"wincbus/core"
)

// probeLength is the size of the zero-filled read issued by probe.
const probeLength = 4

func withBus(c *cli.Context, fn func(s *session) error) (err error) {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.Close())
	}()
	if err := s.openBus(); err != nil {
		return err
	}
	return fn(s)
}

// ProbeAction initialises the bus and reads probeLength bytes.
func ProbeAction(c *cli.Context) error {
	return withBus(c, func(s *session) error {
		buf := make([]byte, probeLength)
		if err := read(s.handle, buf); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s bus ok, max transaction %d bytes\n",
			s.handle.Kind(), s.handle.Capabilities().MaxTransactionSize)
		fmt.Fprintf(c.App.Writer, "read: % x\n", buf)
		return nil
	})
}

// XferAction runs a full-duplex SPI exchange and prints what came back.
func XferAction(c *cli.Context) error {
	data, err := hexArg(c)
	if err != nil {
		return err
	}
	return withBus(c, func(s *session) error {
		if !s.handle.Supports(core.CmdReadWrite) {
			return errors.Errorf("xfer needs an SPI bus, have %s", s.handle.Kind())
		}
		rx := make([]byte, len(data))
		if err := s.handle.Dispatch(core.CmdReadWrite, core.ReadWriteParams{Write: data, Read: rx}); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "% x\n", rx)
		return nil
	})
}

// WriteAction writes the argument bytes.
func WriteAction(c *cli.Context) error {
	data, err := hexArg(c)
	if err != nil {
		return err
	}
	return withBus(c, func(s *session) error {
		if s.handle.Supports(core.CmdWrite) {
			return s.handle.Dispatch(core.CmdWrite, core.WriteParams{Buf: data})
		}
		return s.handle.Dispatch(core.CmdReadWrite, core.ReadWriteParams{Write: data})
	})
}

// ReadAction reads the requested number of bytes.
func ReadAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("read takes exactly one byte count")
	}
	n, err := strconv.Atoi(c.Args().First())
	if err != nil || n <= 0 {
		return errors.Errorf("invalid byte count %q", c.Args().First())
	}
	return withBus(c, func(s *session) error {
		buf := make([]byte, n)
		if err := read(s.handle, buf); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "% x\n", buf)
		return nil
	})
}

// DictAction prints the bridge MCU dictionary.
func DictAction(c *cli.Context) (err error) {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.Close())
	}()
	if err := s.openMCU(); err != nil {
		return err
	}
	s.mcu.Dictionary().WriteSummary(c.App.Writer)
	return nil
}

// read fills buf with whichever read command the bus offers.
func read(h *core.Handle, buf []byte) error {
	if h.Supports(core.CmdRead) {
		return h.Dispatch(core.CmdRead, core.ReadParams{Buf: buf})
	}
	return h.Dispatch(core.CmdReadWrite, core.ReadWriteParams{Read: buf})
}

// hexArg decodes the single hex argument. Spaces and colons are ignored.
func hexArg(c *cli.Context) ([]byte, error) {
	if c.Args().Len() == 0 {
		return nil, errors.New("missing hex data")
	}
	s := strings.Join(c.Args().Slice(), "")
	s = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode hex data")
	}
	if len(data) == 0 {
		return nil, errors.New("missing hex data")
	}
	return data, nil
}
