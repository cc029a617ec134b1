package texproto

import (
	"bytes"
	"testing"
)

// FuzzEncodeDecodeRoundTrip ensures arbitrary valid-length bodies survive an
// Encode/Decode round trip unchanged (the CRC round-trip law from spec.md §8).
func FuzzEncodeDecodeRoundTrip(f *testing.F) {
	f.Add(byte(TypeCommand), byte(0), []byte{0x01})
	f.Add(byte(TypeResponse), byte(255), []byte{0x06})
	f.Add(byte(TypeMessage), byte(17), bytes.Repeat([]byte{0xAB}, 8))
	f.Fuzz(func(t *testing.T, typ byte, seq byte, body []byte) {
		raw, err := Encode(typ, seq, body)
		if err != nil {
			// Out-of-range bodies (empty or >250 bytes) are a legitimate
			// rejection, not a bug; nothing further to check.
			return
		}
		fr, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode(Encode(%d, %d, %v)) failed: %v", typ, seq, body, err)
		}
		if fr.Type != typ || fr.Sequence != seq || !bytes.Equal(fr.Body, body) {
			t.Fatalf("round trip mismatch: got %+v want type=%d seq=%d body=%v", fr, typ, seq, body)
		}
	})
}

// FuzzDecodeNoPanic ensures Decode never panics on arbitrary, possibly
// truncated or corrupted, input bytes.
func FuzzDecodeNoPanic(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{StartByte, TypeCommand, 0x06, 0x00, 0x01, 0x00})
	f.Add([]byte("+++\x00"))
	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = Decode(data)
	})
}
