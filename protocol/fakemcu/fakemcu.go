// Package fakemcu provides an in-memory bridge MCU for tests. It speaks the
// MCU side of the framing, serves a zlib-compressed dictionary through
// identify and hands decoded commands to registered handlers.
package fakemcu

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"net"
	"strings"
	"sync"

	"wincbus/protocol"
)

// Handler runs one decoded command and returns the responses to send back.
type Handler func(args *protocol.Args) []*protocol.Command

// MCU is a scripted bridge on one end of a net.Pipe.
type MCU struct {
	conn net.Conn
	dec  *protocol.FrameDecoder

	mu        sync.Mutex
	expected  uint8
	nextID    uint32
	commands  map[string]uint32 // format -> id
	responses map[string]uint32
	handlers  map[uint32]Handler
	names     map[uint32]string
	dict      []byte
	received  []string
	nak       int
	silent    int

	done chan struct{}
}

// New returns the host end of a pipe and an MCU serving the other end.
// Register commands, then call Start.
func New() (net.Conn, *MCU) {
	host, dev := net.Pipe()
	m := &MCU{
		conn:      dev,
		dec:       protocol.NewFrameDecoder(1024),
		expected:  protocol.MessageDest,
		nextID:    2,
		commands:  map[string]uint32{},
		responses: map[string]uint32{"identify_response offset=%u data=%*s": protocol.CmdIdentifyResponse},
		handlers:  map[uint32]Handler{},
		names:     map[uint32]string{},
		done:      make(chan struct{}),
	}
	m.commands["identify offset=%u count=%c"] = protocol.CmdIdentify
	m.handlers[protocol.CmdIdentify] = m.identify
	m.names[protocol.CmdIdentify] = "identify"
	return host, m
}

// Command registers a command by its dictionary format, e.g.
// "spi_transfer oid=%c data=%*s". h may be nil for commands that only
// need an ACK.
func (m *MCU) Command(format string, h Handler) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.commands[format] = id
	m.handlers[id] = h
	m.names[id] = nameOf(format)
	return id
}

// Response registers a response format and returns its id.
func (m *MCU) Response(format string) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.responses[format] = id
	return id
}

// NewResponse starts a response payload for the response called name.
func (m *MCU) NewResponse(name string) *protocol.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	for format, id := range m.responses {
		if nameOf(format) == name {
			return protocol.NewCommand(id)
		}
	}
	panic("fakemcu: unknown response " + name)
}

// NakNext makes the MCU reject the next n frames with a NAK.
func (m *MCU) NakNext(n int) {
	m.mu.Lock()
	m.nak = n
	m.mu.Unlock()
}

// IgnoreNext makes the MCU swallow the next n frames without an ACK.
func (m *MCU) IgnoreNext(n int) {
	m.mu.Lock()
	m.silent = n
	m.mu.Unlock()
}

// Received lists the names of the commands processed so far.
func (m *MCU) Received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.received...)
}

// Start builds the dictionary and begins serving.
func (m *MCU) Start() {
	m.mu.Lock()
	dict := map[string]any{
		"version":        "fakemcu",
		"build_versions": "go",
		"config":         map[string]string{"MCU": "fake", "CLOCK_FREQ": "12000000"},
		"commands":       m.commands,
		"responses":      m.responses,
	}
	raw, err := json.Marshal(dict)
	if err != nil {
		panic(err)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(raw)
	zw.Close()
	m.dict = buf.Bytes()
	m.mu.Unlock()

	go m.serve()
}

// Close shuts the MCU end of the pipe.
func (m *MCU) Close() error {
	err := m.conn.Close()
	<-m.done
	return err
}

func (m *MCU) serve() {
	defer close(m.done)
	buf := make([]byte, 256)
	for {
		n, err := m.conn.Read(buf)
		for _, msg := range m.dec.Feed(buf[:n]) {
			m.handleFrame(msg)
		}
		if err != nil {
			return
		}
	}
}

func (m *MCU) handleFrame(msg *protocol.Message) {
	m.mu.Lock()
	if m.silent > 0 {
		m.silent--
		m.mu.Unlock()
		return
	}
	if m.nak > 0 {
		m.nak--
		seq := m.expected
		m.mu.Unlock()
		m.send(seq, nil)
		return
	}

	if msg.Sequence == protocol.MessageDest && m.expected != protocol.MessageDest {
		// Host restarted
		m.expected = protocol.MessageDest
	}
	var replies []*protocol.Command
	process := msg.Sequence == m.expected
	if process {
		m.expected = protocol.NextSequence(m.expected)
	}
	seq := m.expected
	m.mu.Unlock()

	if process {
		replies = m.dispatch(msg.Payload)
	}
	m.send(seq, nil)
	for _, r := range replies {
		m.send(seq, r.Payload())
	}
}

func (m *MCU) dispatch(payload []byte) []*protocol.Command {
	args := protocol.NewArgs(payload)
	var out []*protocol.Command
	for args.Remaining() > 0 {
		id := args.ID()
		if args.Err() != nil {
			return out
		}
		m.mu.Lock()
		h, ok := m.handlers[id]
		m.received = append(m.received, m.names[id])
		m.mu.Unlock()
		if !ok {
			return out
		}
		if h == nil {
			// Arguments are not decoded, so the rest of the frame is lost.
			return out
		}
		out = append(out, h(args)...)
	}
	return out
}

func (m *MCU) identify(args *protocol.Args) []*protocol.Command {
	offset := args.Uint()
	count := args.Uint()
	if args.Err() != nil {
		return nil
	}
	m.mu.Lock()
	dict := m.dict
	m.mu.Unlock()

	var chunk []byte
	if int(offset) < len(dict) {
		end := int(offset) + int(count)
		if end > len(dict) {
			end = len(dict)
		}
		chunk = dict[offset:end]
	}
	resp := protocol.NewCommand(protocol.CmdIdentifyResponse).Uint(offset).Bytes(chunk)
	return []*protocol.Command{resp}
}

func (m *MCU) send(seq uint8, payload []byte) {
	frame, err := protocol.AppendFrame(nil, seq, payload)
	if err != nil {
		panic(err)
	}
	m.conn.Write(frame)
}

func nameOf(format string) string {
	if i := strings.IndexByte(format, ' '); i >= 0 {
		return format[:i]
	}
	return format
}
