package protocol

// crcPoly is the reflected CCITT polynomial (x^16 + x^12 + x^5 + 1).
const crcPoly = 0x8408

var crcTable = makeCRCTable()

func makeCRCTable() *[256]uint16 {
	t := new([256]uint16)
	for i := range t {
		crc := uint16(i)
		for range 8 {
			if crc&1 != 0 {
				crc = crc>>1 ^ crcPoly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

// CRC16 is the frame checksum: reflected CCITT seeded with 0xFFFF, no
// final xor. Frames carry it high byte first.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc>>8 ^ crcTable[byte(crc)^b]
	}
	return crc
}
