package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"tinygo.org/x/drivers"
)

var (
	_ drivers.SPI = (*fakeSPI)(nil)
	_ drivers.I2C = (*fakeI2C)(nil)
)

// fakeSPI loops transmitted bytes back inverted.
type fakeSPI struct {
	txs int
}

func (f *fakeSPI) Tx(w, r []byte) error {
	f.txs++
	if len(w) != len(r) {
		return errors.New("length mismatch")
	}
	for i := range w {
		r[i] = ^w[i]
	}
	return nil
}

func (f *fakeSPI) Transfer(b byte) (byte, error) {
	return ^b, nil
}

type fakeI2C struct {
	addr uint16
	w    []byte
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.addr = addr
	f.w = append([]byte(nil), w...)
	for i := range r {
		r[i] = byte(i)
	}
	return nil
}

func TestSPIShim(t *testing.T) {
	bus := &fakeSPI{}
	var applied SPIConfig
	shim := NewSPIShim(bus, func(cfg SPIConfig) error {
		applied = cfg
		return nil
	})

	ctrl := NewSPIController(shim, nil, DefaultSPIConfig())
	h, err := ctrl.Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if applied != DefaultSPIConfig() {
		t.Errorf("configure hook got %+v", applied)
	}

	// Read-only transfers clock out zeros, so the fake answers 0xFF.
	r := make([]byte, 3)
	if err := h.Dispatch(CmdReadWrite, ReadWriteParams{Read: r}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if diff := cmp.Diff([]byte{0xFF, 0xFF, 0xFF}, r); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}
	if bus.txs != 1 {
		t.Errorf("Expected 1 Tx, got %d", bus.txs)
	}
}

func TestSPIShimNoConfigure(t *testing.T) {
	shim := NewSPIShim(&fakeSPI{}, nil)
	if err := shim.Configure(DefaultSPIConfig()); err != nil {
		t.Errorf("Configure without hook failed: %v", err)
	}
}

func TestI2CShim(t *testing.T) {
	bus := &fakeI2C{}
	shim := NewI2CShim(bus, nil)

	h, err := NewI2CController(shim, DefaultI2CConfig()).Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := h.Dispatch(CmdWrite, WriteParams{Buf: []byte{0x12, 0x34}}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if bus.addr != 0x60 {
		t.Errorf("Expected address 0x60, got 0x%02x", bus.addr)
	}
	if diff := cmp.Diff([]byte{0x12, 0x34}, bus.w); diff != "" {
		t.Errorf("written mismatch (-want +got):\n%s", diff)
	}
}
