package session

import "errors"

// Sentinel errors surfaced by the transport layer.
var (
	// ErrPeerDisconnect is returned when the panel sends its "+++" marker or
	// the TCP connection is closed by the peer.
	ErrPeerDisconnect = errors.New("session: peer disconnected")
	// ErrTimeout is returned when a read exceeds the fixed read deadline.
	ErrTimeout = errors.New("session: read timeout")
	// ErrClosed is returned by operations on a session that has been closed.
	ErrClosed = errors.New("session: closed")
)
