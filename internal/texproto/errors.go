package texproto

import "errors"

// Sentinel errors returned by frame decoding. Wrapped with fmt.Errorf so
// callers can classify via errors.Is.
var (
	ErrBadStart = errors.New("texproto: bad frame start byte")
	ErrBadCRC   = errors.New("texproto: frame crc mismatch")
	ErrShort    = errors.New("texproto: frame truncated")
	ErrBodySize = errors.New("texproto: body length out of range")
)
