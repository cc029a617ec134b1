package session

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/texmon-go/texmon/internal/texproto"
)

func dialPair(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			serverCh <- c
		}
	}()

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	serverConn := <-serverCh

	sess := New(clientConn)
	t.Cleanup(func() {
		sess.Close()
		serverConn.Close()
	})
	return sess, serverConn
}

func TestSendFrameRoundTrip(t *testing.T) {
	sess, server := dialPair(t)

	if err := sess.SendFrame(texproto.TypeCommand, 3, []byte{0x17}); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	buf := make([]byte, 64)
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	fr, err := texproto.Decode(buf[:n])
	if err != nil {
		t.Fatalf("decode what client sent: %v", err)
	}
	if fr.Type != texproto.TypeCommand || fr.Sequence != 3 || len(fr.Body) != 1 || fr.Body[0] != 0x17 {
		t.Fatalf("unexpected frame on wire: %+v", fr)
	}
}

func TestRecvFrame(t *testing.T) {
	sess, server := dialPair(t)

	raw, err := texproto.Encode(texproto.TypeResponse, 3, []byte{0x06})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := server.Write(raw); err != nil {
		t.Fatalf("server write: %v", err)
	}

	fr, err := sess.RecvFrame()
	if err != nil {
		t.Fatalf("RecvFrame: %v", err)
	}
	if fr.Type != texproto.TypeResponse || fr.Sequence != 3 || len(fr.Body) != 1 || fr.Body[0] != 0x06 {
		t.Fatalf("unexpected frame: %+v", fr)
	}
}

func TestRecvFrameDisconnectMarker(t *testing.T) {
	sess, server := dialPair(t)

	// The marker occupies a full 4-byte header slot: "+++" plus one more byte.
	if _, err := server.Write([]byte("+++\x00")); err != nil {
		t.Fatalf("server write: %v", err)
	}

	_, err := sess.RecvFrame()
	if !errors.Is(err, ErrPeerDisconnect) {
		t.Fatalf("expected ErrPeerDisconnect, got %v", err)
	}
}

func TestRecvFrameTimeout(t *testing.T) {
	orig := ReadTimeout
	_ = orig
	sess, _ := dialPair(t)

	done := make(chan error, 1)
	go func() {
		_, err := sess.RecvFrame()
		done <- err
	}()

	select {
	case err := <-done:
		if err != ErrTimeout {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
	case <-time.After(ReadTimeout + 3*time.Second):
		t.Fatal("RecvFrame did not return within expected timeout window")
	}
}

func TestRetransmitSendsIdenticalBytes(t *testing.T) {
	sess, server := dialPair(t)

	if err := sess.SendFrame(texproto.TypeCommand, 9, []byte{0x01, 'p', 'a', 's', 's'}); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	first := readAll(t, server, 10)

	if err := sess.Retransmit(); err != nil {
		t.Fatalf("Retransmit: %v", err)
	}
	second := readAll(t, server, 10)

	if string(first) != string(second) {
		t.Fatalf("retransmit bytes differ: %x vs %x", first, second)
	}
}

func readAll(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := 0
	for got < n {
		m, err := conn.Read(buf[got:])
		got += m
		if err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	return buf
}
