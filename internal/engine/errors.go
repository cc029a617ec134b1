package engine

import "errors"

// Sentinel errors surfaced by the protocol engine.
var (
	// ErrWrongCommandID is returned when a response's echoed command id
	// doesn't match the command that was sent.
	ErrWrongCommandID = errors.New("engine: response for wrong command id")
	// ErrProtocolDesync is returned, wrapped together with ErrWrongCommandID,
	// when a response's echoed command id doesn't match the command that was
	// sent. Responses and messages with an unexpected sequence number are
	// dropped instead, not reported with this error.
	ErrProtocolDesync = errors.New("engine: sequence number desync")
	// ErrLoginRejected is returned when the panel NAKs a LOGIN, meaning the
	// session has timed out and must be restarted from a fresh connection.
	ErrLoginRejected = errors.New("engine: login rejected by panel")
	// ErrRetriesExhausted is returned when a command received no response
	// after all retransmission attempts.
	ErrRetriesExhausted = errors.New("engine: retries exhausted waiting for response")
	// ErrUnexpectedCommandFrame is logged when the panel sends a Command
	// frame, which this client never expects to receive; the frame is dropped.
	ErrUnexpectedCommandFrame = errors.New("engine: received unexpected command frame from panel")
)
