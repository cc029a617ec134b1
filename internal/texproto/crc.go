// Package texproto implements the Texecom Connect wire frame: the CRC-8
// check, the frame codec, and DecodeStream, which reads the rest of one
// frame from a byte stream once its header has been read.
package texproto

// CRC8 computes the frame checksum: polynomial 0x185 (x^8 + x^7 + x^2 + 1),
// input and output not reflected, initial register 0xFF, no final XOR.
// Stateless and safe for concurrent use.
//
// 0x185 is the 9-bit polynomial including the implicit x^8 term; the
// bit-serial loop below works with its 8-bit truncation, 0x85.
func CRC8(data []byte) byte {
	const poly = 0x85
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
