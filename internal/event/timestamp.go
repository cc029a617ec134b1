package event

import "fmt"

// Timestamp is the 32-bit bit-packed date/time carried in a log event.
type Timestamp struct {
	Year   int // full year, e.g. 2011
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// decodeTimestamp unpacks the little-endian 32-bit value from the lowest
// bit up: 6 bits seconds, 6 bits minutes, 4 bits month, 5 bits hours,
// 5 bits day, 6 bits year offset from 2000.
func decodeTimestamp(raw [4]byte) Timestamp {
	v := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
	return Timestamp{
		Second: int(v & 0x3F),
		Minute: int((v >> 6) & 0x3F),
		Month:  int((v >> 12) & 0xF),
		Hour:   int((v >> 16) & 0x1F),
		Day:    int((v >> 21) & 0x1F),
		Year:   2000 + int((v>>26)&0x3F),
	}
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}
