package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestI2CBus() (*I2CBus, *MockI2CDriver) {
	drv := &MockI2CDriver{fill: 0x3C}
	return NewI2CBus(drv, WINCAddress, &countingGuard{}), drv
}

func TestDispatcherCommandSets(t *testing.T) {
	spiBus, _, _, _, _ := newTestSPIBus()
	i2cBus, _ := newTestI2CBus()

	testCases := []struct {
		name string
		bus  any
		want map[Command]bool
	}{
		{"spi", spiBus, map[Command]bool{CmdRead: false, CmdWrite: false, CmdWriteSpecial: false, CmdReadWrite: true}},
		{"i2c", i2cBus, map[Command]bool{CmdRead: true, CmdWrite: true, CmdWriteSpecial: true, CmdReadWrite: false}},
	}

	for _, tc := range testCases {
		d := NewDispatcher(tc.bus, BusCapabilities)
		for cmd, want := range tc.want {
			if got := d.Supports(cmd); got != want {
				t.Errorf("%s: Supports(%v) = %v, want %v", tc.name, cmd, got, want)
			}
		}
		if d.Supports(Command(200)) {
			t.Errorf("%s: out of range command reported as supported", tc.name)
		}
	}
}

func TestDispatchUnsupportedCommand(t *testing.T) {
	var diag []string
	SetErrorWriter(func(s string) { diag = append(diag, s) })
	defer SetErrorWriter(nil)

	bus, drv, cs, _, _ := newTestSPIBus()
	d := NewDispatcher(bus, bus.Capabilities())

	for _, cmd := range []Command{CmdRead, CmdWrite, CmdWriteSpecial, Command(42)} {
		err := d.Dispatch(cmd, ReadParams{Buf: make([]byte, 4)})
		if !errors.Is(err, ErrInvalidCommand) {
			t.Errorf("Dispatch(%v): expected ErrInvalidCommand, got %v", cmd, err)
		}
		if StatusOf(err) != StatusInvalidCommand {
			t.Errorf("Dispatch(%v): expected status %v, got %v", cmd, StatusInvalidCommand, StatusOf(err))
		}
	}

	if drv.calls != 0 || cs.asserts != 0 {
		t.Errorf("unsupported command reached the bus: calls=%d asserts=%d", drv.calls, cs.asserts)
	}
	if len(diag) != 4 {
		t.Fatalf("Expected 4 diagnostics, got %d", len(diag))
	}
	if !strings.Contains(diag[3], "42") {
		t.Errorf("diagnostic should name the command code, got %q", diag[3])
	}
}

func TestDispatchReadWrite(t *testing.T) {
	bus, drv, _, _, _ := newTestSPIBus()
	drv.echo = func(b byte) byte { return ^b }
	d := NewDispatcher(bus, bus.Capabilities())

	r := make([]byte, 3)
	if err := d.Dispatch(CmdReadWrite, ReadWriteParams{Write: []byte{0x00, 0x0F, 0xF0}, Read: r}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if diff := cmp.Diff([]byte{0xFF, 0xF0, 0x0F}, r); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}

	// Pointer parameter blocks are accepted too.
	if err := d.Dispatch(CmdReadWrite, &ReadWriteParams{Read: r}); err != nil {
		t.Fatalf("Dispatch with pointer params failed: %v", err)
	}
	if drv.calls != 2 {
		t.Errorf("Expected 2 transfers, got %d", drv.calls)
	}
}

func TestDispatchWrongParams(t *testing.T) {
	bus, drv, _, _, _ := newTestSPIBus()
	d := NewDispatcher(bus, bus.Capabilities())

	for _, params := range []any{nil, ReadParams{}, (*ReadWriteParams)(nil), []byte{1}} {
		if err := d.Dispatch(CmdReadWrite, params); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("params %T: expected ErrInvalidArgument, got %v", params, err)
		}
	}
	if drv.calls != 0 {
		t.Errorf("Expected no transfers, got %d", drv.calls)
	}
}

func TestDispatchWriteSpecialSingleTransaction(t *testing.T) {
	sizes := []struct{ header, payload int }{
		{0, 4},
		{4, 0},
		{3, 5},
		{8, 1500},
		{MaxTransactionSize - 10, 10},
		{MaxTransactionSize / 2, MaxTransactionSize / 2},
	}

	for _, sz := range sizes {
		bus, drv := newTestI2CBus()
		d := NewDispatcher(bus, bus.Capabilities())

		header := make([]byte, sz.header)
		for i := range header {
			header[i] = byte(i)
		}
		payload := make([]byte, sz.payload)
		for i := range payload {
			payload[i] = byte(0xFF - i)
		}

		err := d.Dispatch(CmdWriteSpecial, WriteSpecialParams{Header: header, Payload: payload})
		if err != nil {
			t.Fatalf("header=%d payload=%d: Dispatch failed: %v", sz.header, sz.payload, err)
		}
		if drv.calls != 1 {
			t.Fatalf("header=%d payload=%d: expected 1 transaction, got %d", sz.header, sz.payload, drv.calls)
		}

		want := append(append([]byte{}, header...), payload...)
		if diff := cmp.Diff(want, drv.written[0]); diff != "" {
			t.Errorf("header=%d payload=%d: written bytes mismatch (-want +got):\n%s", sz.header, sz.payload, diff)
		}
		if drv.addrs[0] != WINCAddress {
			t.Errorf("Expected address 0x%02x, got 0x%02x", WINCAddress, drv.addrs[0])
		}
	}
}

func TestDispatchWriteSpecialTooLarge(t *testing.T) {
	bus, drv := newTestI2CBus()
	d := NewDispatcher(bus, bus.Capabilities())

	err := d.Dispatch(CmdWriteSpecial, &WriteSpecialParams{
		Header:  make([]byte, 8),
		Payload: make([]byte, MaxTransactionSize-7),
	})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
	if drv.calls != 0 {
		t.Errorf("Expected no transaction, got %d", drv.calls)
	}
}

func TestDispatchI2CReadAndWrite(t *testing.T) {
	bus, drv := newTestI2CBus()
	d := NewDispatcher(bus, bus.Capabilities())

	buf := make([]byte, 6)
	if err := d.Dispatch(CmdRead, ReadParams{Buf: buf}); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if diff := cmp.Diff([]byte{0x3C, 0x3C, 0x3C, 0x3C, 0x3C, 0x3C}, buf); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}

	if err := d.Dispatch(CmdWrite, &WriteParams{Buf: []byte{0xCA, 0xFE}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if diff := cmp.Diff([][]byte{{0xCA, 0xFE}}, drv.written); diff != "" {
		t.Errorf("written mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{6, 0}, drv.readLens); diff != "" {
		t.Errorf("read lengths mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchRegisterOverride(t *testing.T) {
	bus, drv, _, _, _ := newTestSPIBus()
	d := NewDispatcher(bus, bus.Capabilities())

	var called bool
	d.Register(CmdRead, func(params any) error {
		called = true
		return nil
	})
	if !d.Supports(CmdRead) {
		t.Fatal("registered command not supported")
	}
	if err := d.Dispatch(CmdRead, nil); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if !called {
		t.Error("Command handler was not called")
	}
	if drv.calls != 0 {
		t.Errorf("Expected no transfers, got %d", drv.calls)
	}

	// Registering beyond the command table is ignored.
	d.Register(Command(99), func(any) error { return nil })
	if d.Supports(Command(99)) {
		t.Error("out of range command accepted")
	}
}

func TestCommandString(t *testing.T) {
	testCases := map[Command]string{
		CmdRead:         "read",
		CmdWrite:        "write",
		CmdWriteSpecial: "write_special",
		CmdReadWrite:    "read_write",
		Command(17):     "cmd(17)",
	}
	for cmd, want := range testCases {
		if got := cmd.String(); got != want {
			t.Errorf("Command(%d).String() = %q, want %q", uint8(cmd), got, want)
		}
	}
}
