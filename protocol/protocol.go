// Package protocol implements the Klipper serial framing used to reach a
// bus bridge MCU: VLQ-encoded command payloads inside CRC-checked,
// sequence-numbered frames.
package protocol

// Frame layout
//
//	<len> <seq> <payload ...> <crc hi> <crc lo> <sync>
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	// Host to MCU sequence numbers are 0x10-0x1F
	MessageDest     = 0x10
	MessageSeqMask  = 0x0F
	MessageSeqShift = 4
)

// Well-known command ids that precede dictionary retrieval.
const (
	CmdIdentifyResponse = 0
	CmdIdentify         = 1
)

// Message represents a parsed Klipper message
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}

// IsAck reports whether the frame carries no payload.
func (m *Message) IsAck() bool {
	return len(m.Payload) == 0
}

// NextSequence returns the sequence number following seq.
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
