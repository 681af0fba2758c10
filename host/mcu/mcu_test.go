package mcu

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"

	"wincbus/protocol"
	"wincbus/protocol/fakemcu"
)

func connect(t *testing.T, setup func(f *fakemcu.MCU)) (*MCU, *fakemcu.MCU) {
	t.Helper()
	conn, fake := fakemcu.New()
	fake.Command("allocate_oids count=%c", nil)
	if setup != nil {
		setup(fake)
	}
	fake.Start()

	m := NewMCU(zaptest.NewLogger(t).Sugar())
	m.Attach(conn)
	t.Cleanup(func() {
		m.Close()
		fake.Close()
	})

	if err := m.RetrieveDictionary(); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	return m, fake
}

func TestRetrieveDictionary(t *testing.T) {
	m, _ := connect(t, func(f *fakemcu.MCU) {
		f.Command("spi_transfer oid=%c data=%*s", nil)
		f.Response("spi_transfer_response oid=%c response=%*s")
	})

	d := m.Dictionary()
	if d.Version != "fakemcu" {
		t.Errorf("Expected version fakemcu, got %q", d.Version)
	}
	if _, ok := d.CommandID("spi_transfer"); !ok {
		t.Error("spi_transfer missing")
	}
	if _, ok := d.ResponseID("spi_transfer_response"); !ok {
		t.Error("spi_transfer_response missing")
	}
	if id, ok := d.CommandID("identify"); !ok || id != protocol.CmdIdentify {
		t.Errorf("identify id = %d, %v", id, ok)
	}
	// The compressed dictionary spans several identify chunks.
	if raw := m.DictionaryRaw(); len(raw) <= identifyChunk || raw[0] != 0x78 {
		t.Errorf("unexpected raw dictionary of %d bytes", len(raw))
	}
}

func TestSendCommandByName(t *testing.T) {
	var got []uint32
	m, fake := connect(t, func(f *fakemcu.MCU) {
		f.Command("spi_set_bus oid=%c spi_bus=%u mode=%u rate=%u", func(a *protocol.Args) []*protocol.Command {
			got = []uint32{a.Uint(), a.Uint(), a.Uint(), a.Uint()}
			return nil
		})
	})

	err := m.SendCommand("spi_set_bus", func(c *protocol.Command) {
		c.Uint(0).Uint(1).Uint(3).Uint(4_000_000)
	})
	if err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}
	if diff := cmp.Diff([]uint32{0, 1, 3, 4_000_000}, got); diff != "" {
		t.Errorf("arguments mismatch (-want +got):\n%s", diff)
	}
	if received := fake.Received(); received[len(received)-1] != "spi_set_bus" {
		t.Errorf("last command %q", received[len(received)-1])
	}

	if err := m.SendCommand("no_such_command", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
}

func TestRequestMatchesResponse(t *testing.T) {
	m, _ := connect(t, func(f *fakemcu.MCU) {
		f.Response("get_value_response oid=%c value=%u")
		f.Command("get_value oid=%c", func(a *protocol.Args) []*protocol.Command {
			oid := a.Uint()
			// A response for another oid arrives first.
			return []*protocol.Command{
				f.NewResponse("get_value_response").Uint(oid + 1).Uint(0),
				f.NewResponse("get_value_response").Uint(oid).Uint(77),
			}
		})
	})

	args, err := m.Request("get_value", "get_value_response",
		func(c *protocol.Command) { c.Uint(4) },
		func(a *protocol.Args) bool { return a.Uint() == 4 },
		time.Second)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if v := args.Uint(); v != 77 {
		t.Errorf("Expected 77, got %d", v)
	}

	_, err = m.Request("get_value", "no_such_response", nil, nil, time.Second)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
}

func TestAllocateOID(t *testing.T) {
	m, fake := connect(t, nil)

	for want := uint8(0); want < oidAllocation; want++ {
		oid, err := m.AllocateOID()
		if err != nil {
			t.Fatalf("AllocateOID failed: %v", err)
		}
		if oid != want {
			t.Errorf("Expected oid %d, got %d", want, oid)
		}
	}
	if _, err := m.AllocateOID(); err == nil {
		t.Error("Expected exhaustion error")
	}

	var allocs int
	for _, name := range fake.Received() {
		if name == "allocate_oids" {
			allocs++
		}
	}
	if allocs != 1 {
		t.Errorf("Expected allocate_oids once, got %d", allocs)
	}
}

func TestNotConnected(t *testing.T) {
	m := NewMCU(nil)
	if err := m.RetrieveDictionary(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if err := m.SendCommand("identify", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close without connection failed: %v", err)
	}
}

func TestParseDictionaryPlainJSON(t *testing.T) {
	raw := []byte(`{"version":"v1","config":{"CLOCK_FREQ":12000000},` +
		`"commands":{"i2c_read oid=%c reg=%*s read_len=%u":20},` +
		`"responses":{"i2c_read_response oid=%c response=%*s":21}}`)

	data, err := decompress(raw)
	if err != nil {
		t.Fatalf("decompress failed: %v", err)
	}
	d, err := ParseDictionary(data)
	if err != nil {
		t.Fatalf("ParseDictionary failed: %v", err)
	}
	if id, _ := d.CommandID("i2c_read"); id != 20 {
		t.Errorf("Expected i2c_read id 20, got %d", id)
	}
	if err := d.HasCommands("i2c_read", "i2c_write"); !errors.Is(err, ErrUnknownCommand) || !strings.Contains(err.Error(), "i2c_write") {
		t.Errorf("Expected missing i2c_write, got %v", err)
	}

	var buf bytes.Buffer
	d.WriteSummary(&buf)
	for _, want := range []string{"Version: v1", "CLOCK_FREQ = 1.2e+07", "[20] i2c_read oid=%c reg=%*s read_len=%u"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}
}
