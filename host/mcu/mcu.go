// Package mcu is the host-side client of a bus bridge MCU: it owns the
// serial transport, retrieves the data dictionary and sends commands by
// name.
package mcu

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"wincbus/host/serial"
	"wincbus/protocol"
)

const (
	identifyChunk  = 40
	identifyLimit  = 1000
	identifyWait   = time.Second
	connectSettle  = 100 * time.Millisecond
	oidAllocation  = 8
	allocateOidCmd = "allocate_oids"
)

var (
	ErrNotConnected   = errors.New("not connected to MCU")
	ErrNoDictionary   = errors.New("dictionary not loaded")
	ErrUnknownCommand = errors.New("unknown command")
)

// MCU represents a connection to a bridge microcontroller
type MCU struct {
	transport *protocol.HostTransport
	log       *zap.SugaredLogger

	dictionary     *Dictionary
	dictionaryData []byte

	mu       sync.Mutex
	nextOID  uint8
	oidsSent bool

	connected bool
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU(logger *zap.SugaredLogger) *MCU {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MCU{log: logger}
}

// Connect connects to an MCU via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to an MCU with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	m.Attach(port)

	// Give MCU time to initialize (if it just powered on)
	time.Sleep(connectSettle)
	m.log.Debugw("connected", "device", cfg.Device, "baud", cfg.Baud)
	return nil
}

// Attach runs the transport over an already open link.
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.transport = protocol.NewHostTransport(port)
	m.connected = true
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	m.connected = false
	if m.transport == nil {
		return nil
	}
	return m.transport.Close()
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// RetrieveDictionary retrieves the complete dictionary from the MCU
func (m *MCU) RetrieveDictionary() error {
	if !m.connected {
		return ErrNotConnected
	}

	var buf bytes.Buffer
	offset := uint32(0)
	for i := 0; i < identifyLimit; i++ {
		chunk, err := m.identify(offset, identifyChunk)
		if err != nil {
			return errors.Wrapf(err, "dictionary chunk at offset %d", offset)
		}
		buf.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < identifyChunk {
			break
		}
	}
	m.dictionaryData = buf.Bytes()
	m.log.Debugw("dictionary retrieved", "bytes", len(m.dictionaryData))

	data, err := decompress(m.dictionaryData)
	if err != nil {
		return err
	}

	dict, err := ParseDictionary(data)
	if err != nil {
		return err
	}
	m.dictionary = dict
	m.log.Debugw("dictionary parsed", "version", dict.Version,
		"commands", len(dict.Commands), "responses", len(dict.Responses))
	return nil
}

// identify fetches count dictionary bytes starting at offset.
func (m *MCU) identify(offset uint32, count uint8) ([]byte, error) {
	cmd := protocol.NewCommand(protocol.CmdIdentify).Uint(offset).Uint(uint32(count))
	args, err := m.transport.Request(cmd, protocol.CmdIdentifyResponse, func(a *protocol.Args) bool {
		return a.Uint() == offset
	}, identifyWait)
	if err != nil {
		return nil, err
	}
	data := args.Bytes()
	if err := args.Err(); err != nil {
		return nil, errors.Wrap(err, "decode identify_response")
	}
	return append([]byte(nil), data...), nil
}

// decompress inflates a zlib dictionary. Plain JSON passes through.
func decompress(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x78 {
		return data, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open compressed dictionary")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "inflate dictionary")
	}
	return out, nil
}

// Dictionary returns the parsed dictionary
func (m *MCU) Dictionary() *Dictionary {
	return m.dictionary
}

// DictionaryRaw returns the dictionary as received, possibly compressed
func (m *MCU) DictionaryRaw() []byte {
	return m.dictionaryData
}

// AllocateOID reserves an object id for a bus device. The first call also
// announces the oid table size when the MCU has allocate_oids.
func (m *MCU) AllocateOID() (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nextOID >= oidAllocation {
		return 0, errors.Errorf("all %d object ids in use", oidAllocation)
	}
	if !m.oidsSent && m.dictionary != nil {
		if _, ok := m.dictionary.CommandID(allocateOidCmd); ok {
			if err := m.send(allocateOidCmd, func(c *protocol.Command) { c.Uint(oidAllocation) }); err != nil {
				return 0, err
			}
		}
		m.oidsSent = true
	}
	oid := m.nextOID
	m.nextOID++
	return oid, nil
}

// SendCommand sends the command called name and waits for its ACK.
func (m *MCU) SendCommand(name string, args func(c *protocol.Command)) error {
	return m.send(name, args)
}

func (m *MCU) send(name string, args func(c *protocol.Command)) error {
	cmd, err := m.command(name, args)
	if err != nil {
		return err
	}
	if err := m.transport.SendCommand(cmd); err != nil {
		return errors.Wrap(err, name)
	}
	return nil
}

// Request sends name and returns the arguments of the first response
// called response that match accepts. match sees the arguments after the
// response id.
func (m *MCU) Request(name, response string, args func(c *protocol.Command),
	match func(a *protocol.Args) bool, timeout time.Duration,
) (*protocol.Args, error) {
	cmd, err := m.command(name, args)
	if err != nil {
		return nil, err
	}
	respID, ok := m.dictionary.ResponseID(response)
	if !ok {
		return nil, errors.Wrap(ErrUnknownCommand, response)
	}
	a, err := m.transport.Request(cmd, respID, match, timeout)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return a, nil
}

func (m *MCU) command(name string, args func(c *protocol.Command)) (*protocol.Command, error) {
	if !m.connected {
		return nil, ErrNotConnected
	}
	if m.dictionary == nil {
		return nil, ErrNoDictionary
	}
	id, ok := m.dictionary.CommandID(name)
	if !ok {
		return nil, errors.Wrap(ErrUnknownCommand, name)
	}
	cmd := protocol.NewCommand(id)
	if args != nil {
		args(cmd)
	}
	return cmd, nil
}

// Dictionary represents the parsed MCU dictionary. Command and response
// keys are full format strings such as "spi_transfer oid=%c data=%*s".
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]any            `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]any `json:"enumerations,omitempty"`

	commandIDs  map[string]uint32
	responseIDs map[string]uint32
}

// ParseDictionary decodes dictionary JSON and indexes it by message name.
func ParseDictionary(data []byte) (*Dictionary, error) {
	d := &Dictionary{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, errors.Wrap(err, "parse dictionary")
	}
	d.commandIDs = index(d.Commands)
	d.responseIDs = index(d.Responses)
	return d, nil
}

func index(formats map[string]int) map[string]uint32 {
	out := make(map[string]uint32, len(formats))
	for format, id := range formats {
		name, _, _ := strings.Cut(format, " ")
		out[name] = uint32(id)
	}
	return out
}

// CommandID looks a command up by name.
func (d *Dictionary) CommandID(name string) (uint32, bool) {
	id, ok := d.commandIDs[name]
	return id, ok
}

// ResponseID looks a response up by name.
func (d *Dictionary) ResponseID(name string) (uint32, bool) {
	id, ok := d.responseIDs[name]
	return id, ok
}

// HasCommands reports whether every named command is present.
func (d *Dictionary) HasCommands(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := d.commandIDs[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return errors.Wrap(ErrUnknownCommand, strings.Join(missing, ", "))
	}
	return nil
}

// WriteSummary prints the dictionary in a stable order.
func (d *Dictionary) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "Version: %s\n", d.Version)
	fmt.Fprintf(w, "Build: %s\n", d.BuildVersions)

	fmt.Fprintln(w, "\nConfig:")
	for _, k := range sortedKeys(d.Config) {
		fmt.Fprintf(w, "  %s = %v\n", k, d.Config[k])
	}

	fmt.Fprintf(w, "\nCommands (%d):\n", len(d.Commands))
	writeFormats(w, d.Commands)

	fmt.Fprintf(w, "\nResponses (%d):\n", len(d.Responses))
	writeFormats(w, d.Responses)
}

func writeFormats(w io.Writer, formats map[string]int) {
	keys := make([]string, 0, len(formats))
	for k := range formats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return formats[keys[i]] < formats[keys[j]] })
	for _, k := range keys {
		fmt.Fprintf(w, "  [%d] %s\n", formats[k], k)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
