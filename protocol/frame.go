package protocol

import "errors"

var ErrFrameTooLong = errors.New("frame exceeds MessageLengthMax")

// AppendFrame appends one complete frame carrying payload with sequence
// seq. An empty payload produces an ACK frame.
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	msgLen := MessageLengthMin + len(payload)
	if msgLen > MessageLengthMax {
		return dst, ErrFrameTooLong
	}
	start := len(dst)
	dst = append(dst, uint8(msgLen), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// FrameDecoder reassembles frames from a byte stream. Garbage and
// corrupted frames are skipped by hunting for the next sync byte.
type FrameDecoder struct {
	input  *FifoBuffer
	synced bool

	// Dropped counts frames discarded for length, sync or CRC errors.
	Dropped int
}

// NewFrameDecoder creates a decoder buffering up to size bytes.
func NewFrameDecoder(size int) *FrameDecoder {
	return &FrameDecoder{input: NewFifoBuffer(size), synced: true}
}

// Feed adds received bytes and returns every frame they completed.
// Bytes that do not fit the buffer are discarded.
func (d *FrameDecoder) Feed(b []byte) []*Message {
	d.input.Write(b)
	data := d.input.Data()

	var out []*Message
	for len(data) > 0 {
		if !d.synced {
			i := 0
			for i < len(data) && data[i] != MessageValueSync {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			d.synced = true
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageLengthMin)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		out = append(out, &Message{
			Length:   uint8(msgLen),
			Sequence: data[MessagePositionSeq],
			Payload:  payload,
			CRC:      frameCRC,
		})
		data = data[msgLen:]
	}

	// Remove consumed bytes
	if consumed := d.input.Available() - len(data); consumed > 0 {
		d.input.Pop(consumed)
	}
	return out
}

func (d *FrameDecoder) desync() {
	d.synced = false
	d.Dropped++
}

// Reset discards buffered input.
func (d *FrameDecoder) Reset() {
	d.input.Reset()
	d.synced = true
}
