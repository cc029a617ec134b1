package event

import (
	"errors"
	"testing"
)

// TestTimestampBitUnpacking decodes 0x2F4A1234 (little-endian bytes
// 34 12 4A 2F) by hand-applying the field widths described for log event
// timestamps: 6 bits seconds, 6 bits minutes, 4 bits month, 5 bits hours,
// 5 bits day, 6 bits year-offset-from-2000, packed LSB first.
func TestTimestampBitUnpacking(t *testing.T) {
	raw := [4]byte{0x34, 0x12, 0x4A, 0x2F}
	got := decodeTimestamp(raw)
	want := Timestamp{Second: 52, Minute: 8, Month: 1, Hour: 10, Day: 26, Year: 2011}
	if got != want {
		t.Fatalf("decodeTimestamp(%v) = %+v, want %+v", raw, got, want)
	}
}

func TestDecodeZoneEventTwoByteForm(t *testing.T) {
	// zone 12, bitmap: active(1) | alarmed(bit4) | masked(bit7)
	body := []byte{TypeZone, 12, 0x01 | 1<<4 | 1<<7}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Zone == nil {
		t.Fatal("expected zone event")
	}
	z := ev.Zone
	if z.Zone != 12 || z.State != "active" || !z.Alarmed || !z.Masked || z.Fault {
		t.Fatalf("unexpected zone event: %+v", z)
	}
}

func TestDecodeZoneEventThreeByteForm(t *testing.T) {
	body := []byte{TypeZone, 0x2C, 0x01, 0x02}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Zone.Zone != 0x12C {
		t.Fatalf("expected 16-bit zone number 0x12c, got %d", ev.Zone.Zone)
	}
}

func TestDecodeAreaEvent(t *testing.T) {
	body := []byte{TypeArea, 1, 3}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Area.Area != 1 || ev.Area.State != "armed" {
		t.Fatalf("unexpected area event: %+v", ev.Area)
	}
}

func TestDecodeOutputEventFixedBank(t *testing.T) {
	body := []byte{TypeOutput, 4, 0xFF}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Output.LocationName != "Redcare outputs" {
		t.Fatalf("unexpected output name: %s", ev.Output.LocationName)
	}
}

func TestDecodeOutputEventNetworkKeypad(t *testing.T) {
	name := OutputLocationName(0x20)
	if name != "Network 2 keypad outputs" {
		t.Fatalf("got %q", name)
	}
}

func TestDecodeOutputEventNetworkExpander(t *testing.T) {
	name := OutputLocationName(0x23)
	if name != "Network 2 expander 3 outputs" {
		t.Fatalf("got %q", name)
	}
}

func TestDecodeUserEvent(t *testing.T) {
	body := []byte{TypeUser, 7, 2}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.User.User != 7 || ev.User.Method != "code+tag" {
		t.Fatalf("unexpected user event: %+v", ev.User)
	}
}

func TestDecodeLogEventEightByteVariant(t *testing.T) {
	body := []byte{TypeLog, 9, 3, 2, 1, 0x34, 0x12, 0x4A, 0x2F}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	l := ev.Log
	if l.EventType != 9 || l.EventTypeName != "Fire Alarm" {
		t.Fatalf("unexpected event type: %+v", l)
	}
	if l.GroupType != 3 || l.GroupName != "Alarm" {
		t.Fatalf("unexpected group type: %+v", l)
	}
	if l.Parameter != 2 || l.Areas != 1 {
		t.Fatalf("unexpected parameter/areas: %+v", l)
	}
	if l.Timestamp.Year != 2011 || l.Timestamp.Second != 52 {
		t.Fatalf("unexpected timestamp: %+v", l.Timestamp)
	}
}

func TestDecodeLogEventNineByteVariant(t *testing.T) {
	// areas = byte[3] | byte[8]<<8 = 0x01 | (0x02<<8) = 0x201
	body := []byte{TypeLog, 9, 3, 2, 0x01, 0x34, 0x12, 0x4A, 0x2F, 0x02}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Log.Areas != 0x0201 {
		t.Fatalf("expected 16-bit areas 0x201, got %d", ev.Log.Areas)
	}
}

func TestDecodeLogEventTenByteVariant(t *testing.T) {
	// parameter = byte2 | byte3<<8, areas = byte4 | byte5<<8, timestamp = byte6..10
	body := []byte{TypeLog, 9, 3, 0x05, 0x01, 0x07, 0x00, 0x34, 0x12, 0x4A, 0x2F}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Log.Parameter != 0x0105 || ev.Log.Areas != 0x0007 {
		t.Fatalf("unexpected parameter/areas: %+v", ev.Log)
	}
}

func TestDecodeUnknownMessageType(t *testing.T) {
	_, err := Decode([]byte{42, 1, 2})
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestDecodeDebugEvent(t *testing.T) {
	body := []byte{TypeDebug, 0xDE, 0xAD, 0xBE, 0xEF}
	ev, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.String() != "debug: de ad be ef" {
		t.Fatalf("unexpected debug string: %q", ev.String())
	}
}
