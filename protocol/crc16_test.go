package protocol

import "testing"

// bitwiseCRC16 is the unrolled form of CRC16 used to cross-check the table.
func bitwiseCRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ crcPoly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

func TestCRC16(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint16
	}{
		{[]byte{}, 0xFFFF},
		{[]byte{0x00}, 0x0F87},
		{[]byte{0xFF}, 0x00FF},
		{[]byte("123456789"), 0x6F91},
		{[]byte{5, MessageDest}, 0x9E81}, // ACK header, sequence 0x10
		{[]byte{5, MessageDest + 1}, 0x8F08},
		{[]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 0xDD13},
	}

	for i, tc := range testCases {
		if got := CRC16(tc.data); got != tc.expected {
			t.Errorf("Test case %d: CRC16(%v) = 0x%04X, want 0x%04X", i, tc.data, got, tc.expected)
		}
	}
}

func TestCRC16MatchesBitwise(t *testing.T) {
	payload := make([]byte, MessagePayloadMax)
	for i := range payload {
		payload[i] = byte(i*37 + 11)
	}
	for n := 0; n <= len(payload); n++ {
		frame, err := AppendFrame(nil, MessageDest|uint8(n&MessageSeqMask), payload[:n])
		if err != nil {
			t.Fatalf("AppendFrame(%d): %v", n, err)
		}
		body := frame[:len(frame)-MessageTrailerSize]
		if got, want := CRC16(body), bitwiseCRC16(body); got != want {
			t.Errorf("payload %d: CRC16 = 0x%04X, bitwise = 0x%04X", n, got, want)
		}
		got := uint16(frame[len(frame)-MessageTrailerCRC])<<8 | uint16(frame[len(frame)-MessageTrailerCRC+1])
		if got != bitwiseCRC16(body) {
			t.Errorf("payload %d: frame trailer 0x%04X does not match checksum", n, got)
		}
	}
}
