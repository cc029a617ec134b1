// Package session owns the TCP socket to the alarm panel: connecting,
// the mandatory post-connect settle delay, the fixed read timeout, and
// detection of the panel's "+++" disconnect marker. It knows nothing about
// sequence numbers or command/response matching; that's internal/engine.
package session

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/texmon-go/texmon/internal/logging"
	"github.com/texmon-go/texmon/internal/texproto"
)

// ReadTimeout is the fixed socket read deadline. The protocol spec allows
// 2-3s; larger values delay retransmit detection (spec.md §4.3). A var, not
// a const, so the host program can tune it within that range at startup.
var ReadTimeout = 2 * time.Second

// settleDelay is the mandatory pause after connect before sending anything;
// the panel silently drops frames that arrive too soon after connect.
const settleDelay = 500 * time.Millisecond

// sleepFn performs the post-connect settle delay; a variable so the delay
// can be replaced.
var sleepFn = time.Sleep

// Conn is the subset of net.Conn the session needs; it lets tests substitute
// an in-memory pipe instead of a real socket.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Session wraps a connected transport and the bookkeeping needed to
// retransmit the exact last frame on timeout.
type Session struct {
	conn          Conn
	logger        *slog.Logger
	lastSentFrame []byte
	lastSendTime  time.Time
	closed        bool
}

// Dial connects to the panel at addr ("host:port") and waits out the
// post-connect settle delay before returning.
func Dial(addr string) (*Session, error) {
	conn, err := net.DialTimeout("tcp", addr, ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("session dial: %w", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	sleepFn(settleDelay)
	return New(conn), nil
}

// New wraps an already-connected Conn without the dial or settle delay
// (used by tests over a loopback TCP connection).
func New(conn Conn) *Session {
	return &Session{conn: conn, logger: logging.L()}
}

// SendFrame serialises and writes a frame, remembering it for retransmission.
func (s *Session) SendFrame(typ byte, seq byte, body []byte) error {
	raw, err := texproto.Encode(typ, seq, body)
	if err != nil {
		return fmt.Errorf("session send: %w", err)
	}
	return s.sendRaw(raw)
}

// Retransmit re-sends the exact bytes of the last frame sent, byte for byte.
func (s *Session) Retransmit() error {
	if s.lastSentFrame == nil {
		return fmt.Errorf("session retransmit: %w", ErrClosed)
	}
	return s.sendRaw(s.lastSentFrame)
}

func (s *Session) sendRaw(raw []byte) error {
	if s.closed {
		return ErrClosed
	}
	if _, err := s.conn.Write(raw); err != nil {
		return fmt.Errorf("session write: %w", err)
	}
	s.lastSentFrame = raw
	s.lastSendTime = time.Now()
	return nil
}

// LastSendTime reports when the last frame (send or retransmit) was written,
// used by the keep-alive timer.
func (s *Session) LastSendTime() time.Time { return s.lastSendTime }

// RecvFrame reads one frame, applying the fixed read timeout. It returns
// ErrPeerDisconnect if the panel's "+++" marker is seen, ErrTimeout if the
// deadline elapses before a header arrives, or a texproto decode error.
func (s *Session) RecvFrame() (texproto.Frame, error) {
	if s.closed {
		return texproto.Frame{}, ErrClosed
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(ReadTimeout)); err != nil {
		return texproto.Frame{}, fmt.Errorf("session set deadline: %w", err)
	}
	var header [texproto.HeaderLen]byte
	if err := readFull(s.conn, header[:]); err != nil {
		if isTimeout(err) {
			return texproto.Frame{}, ErrTimeout
		}
		return texproto.Frame{}, fmt.Errorf("session read header: %w: %v", ErrPeerDisconnect, err)
	}
	if bytes.Equal(header[:3], []byte("+++")) {
		s.closed = true
		s.logger.Warn("panel_disconnect_marker")
		return texproto.Frame{}, ErrPeerDisconnect
	}
	fr, err := texproto.DecodeStream(header, s.conn)
	if err != nil {
		if isTimeout(err) {
			return texproto.Frame{}, ErrTimeout
		}
		return texproto.Frame{}, err
	}
	return fr, nil
}

// Close marks the session closed and closes the underlying connection.
func (s *Session) Close() error {
	s.closed = true
	return s.conn.Close()
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) error {
	for n := 0; n < len(buf); {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return err
		}
	}
	return nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
