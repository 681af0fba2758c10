package protocol

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultAckTimeout bounds the wait for the MCU to acknowledge a frame.
	DefaultAckTimeout = 2 * time.Second

	// retransmits after a NAK before giving up
	maxRetransmit = 2
)

var ErrTransportClosed = errors.New("transport closed")

// ResponseHandler is a function type for handling received responses from MCU
type ResponseHandler func(id uint32, args *Args)

// HostTransport speaks the host side of the framing: it sends one command
// frame at a time, waits for its ACK and queues response frames.
type HostTransport struct {
	port io.ReadWriteCloser

	// sendMu serialises commands; seq is only touched under it.
	sendMu sync.Mutex
	seq    uint8

	decoder *FrameDecoder

	ackChan      chan *Message
	responseChan chan *Message

	handlerMu       sync.Mutex
	responseHandler ResponseHandler

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewHostTransport creates a new host-side transport and starts reading
// from port.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		seq:          MessageDest,
		decoder:      NewFrameDecoder(4 * MessageLengthMax * 2),
		ackChan:      make(chan *Message, 1),
		responseChan: make(chan *Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// Send transmits payload as one frame and waits for the MCU to acknowledge
// it. A NAK (an ACK still expecting this sequence) triggers a retransmit.
func (t *HostTransport) Send(payload []byte, timeout time.Duration) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.sendLocked(payload, timeout)
}

func (t *HostTransport) sendLocked(payload []byte, timeout time.Duration) error {
	frame, err := AppendFrame(nil, t.seq, payload)
	if err != nil {
		return errors.Wrapf(err, "payload of %d bytes", len(payload))
	}
	next := NextSequence(t.seq)

	for attempt := 0; attempt <= maxRetransmit; attempt++ {
		t.drainAcks()
		if err := t.writeFrame(frame); err != nil {
			return err
		}

		ack, err := t.waitForAck(timeout)
		if err != nil {
			return err
		}
		switch ack.Sequence {
		case next:
			t.seq = next
			return nil
		case t.seq:
			continue // NAK
		default:
			return errors.Errorf("sequence mismatch: expected 0x%02x, got 0x%02x", next, ack.Sequence)
		}
	}
	return errors.Errorf("frame 0x%02x not acknowledged after %d retransmits", t.seq, maxRetransmit)
}

// SendCommand sends cmd with DefaultAckTimeout.
func (t *HostTransport) SendCommand(cmd *Command) error {
	return t.Send(cmd.Payload(), DefaultAckTimeout)
}

// Request sends cmd and waits for the first response whose id is
// responseID and which match accepts (match may be nil). Responses queued
// before the request are discarded.
func (t *HostTransport) Request(cmd *Command, responseID uint32, match func(*Args) bool, timeout time.Duration) (*Args, error) {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	t.drainResponses()
	if err := t.sendLocked(cmd.Payload(), DefaultAckTimeout); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	for {
		msg, err := t.ReceiveResponse(time.Until(deadline))
		if err != nil {
			return nil, err
		}
		args := NewArgs(msg.Payload)
		if args.ID() != responseID || args.Err() != nil {
			continue
		}
		if match == nil || match(args) {
			return args, nil
		}
	}
}

func (t *HostTransport) writeFrame(frame []byte) error {
	n, err := t.port.Write(frame)
	if err != nil {
		return errors.Wrap(err, "write frame")
	}
	if n != len(frame) {
		return errors.Errorf("incomplete write: %d/%d bytes", n, len(frame))
	}
	return nil
}

func (t *HostTransport) waitForAck(timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ack := <-t.ackChan:
		return ack, nil
	case <-timer.C:
		return nil, errors.Errorf("ACK timeout after %v", timeout)
	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// ReceiveResponse receives a response message with timeout
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	if timeout <= 0 {
		return nil, errors.New("response timeout")
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-t.responseChan:
		return resp, nil
	case <-timer.C:
		return nil, errors.Errorf("response timeout after %v", timeout)
	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// SetResponseHandler sets a callback that sees every response frame before
// it is queued.
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handlerMu.Lock()
	t.responseHandler = handler
	t.handlerMu.Unlock()
}

func (t *HostTransport) drainAcks() {
	for {
		select {
		case <-t.ackChan:
		default:
			return
		}
	}
}

func (t *HostTransport) drainResponses() {
	for {
		select {
		case <-t.responseChan:
		default:
			return
		}
	}
}

// readLoop continuously reads from the port and dispatches frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)
	for {
		n, err := t.port.Read(buffer)
		if n > 0 {
			for _, msg := range t.decoder.Feed(buffer[:n]) {
				t.dispatchMessage(msg)
			}
		}
		if err != nil {
			select {
			case <-t.stopChan:
				return
			default:
			}
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
				return
			}
			// tarm/serial reports an idle read timeout as io.EOF
			if n == 0 {
				time.Sleep(10 * time.Millisecond)
			}
		}
	}
}

// dispatchMessage routes a message to the appropriate channel
func (t *HostTransport) dispatchMessage(msg *Message) {
	if msg.IsAck() {
		select {
		case t.ackChan <- msg:
		default:
			// Replace a stale ACK
			select {
			case <-t.ackChan:
			default:
			}
			t.ackChan <- msg
		}
		return
	}

	t.handlerMu.Lock()
	handler := t.responseHandler
	t.handlerMu.Unlock()
	if handler != nil {
		args := NewArgs(msg.Payload)
		if id := args.ID(); args.Err() == nil {
			handler(id, args)
		}
	}

	select {
	case t.responseChan <- msg:
	default:
		// Drop oldest
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the transport and closes the port.
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

// Sequence returns the sequence number of the next frame.
func (t *HostTransport) Sequence() uint8 {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.seq
}
