package command

import (
	"errors"
	"math"
	"testing"
)

func TestBuildLogin(t *testing.T) {
	body := BuildLogin("1234")
	want := []byte{Login, '1', '2', '3', '4'}
	if string(body) != string(want) {
		t.Fatalf("got %v want %v", body, want)
	}
}

func TestDecodeAckNak(t *testing.T) {
	if err := DecodeAckNak([]byte{ACK}); err != nil {
		t.Fatalf("expected nil for ACK, got %v", err)
	}
	if err := DecodeAckNak([]byte{NAK}); !errors.Is(err, ErrNAK) {
		t.Fatalf("expected ErrNAK, got %v", err)
	}
	if err := DecodeAckNak([]byte{1, 2}); err == nil {
		t.Fatal("expected error for wrong length")
	}
}

func TestDecodeDateTime(t *testing.T) {
	// day=26 month=1 year-2000=11 hour=10 minute=8 second=52
	payload := []byte{26, 1, 11, 10, 8, 52}
	dt, err := DecodeDateTime(payload)
	if err != nil {
		t.Fatalf("DecodeDateTime: %v", err)
	}
	want := DateTime{Year: 2011, Month: 1, Day: 26, Hour: 10, Minute: 8, Second: 52}
	if dt != want {
		t.Fatalf("got %+v want %+v", dt, want)
	}
	if dt.String() != "2011-01-26 10:08:52" {
		t.Fatalf("unexpected String(): %s", dt.String())
	}
}

func TestDecodeLogPointer(t *testing.T) {
	n, err := DecodeLogPointer([]byte{0x34, 0x12})
	if err != nil {
		t.Fatalf("DecodeLogPointer: %v", err)
	}
	if n != 0x1234 {
		t.Fatalf("got %d want 0x1234", n)
	}
}

func TestParsePanelIdentity(t *testing.T) {
	raw := "Premier_24          024 00 v4  04"
	id, err := ParsePanelIdentity(raw)
	if err != nil {
		t.Fatalf("ParsePanelIdentity: %v", err)
	}
	if id.NumZones != 24 {
		t.Fatalf("got NumZones=%d want 24", id.NumZones)
	}
}

func TestDecodeZoneDetails34Bytes(t *testing.T) {
	payload := append([]byte{1, 0x03}, []byte("KITCHEN\x00WINDOW")...)
	for len(payload) < 34 {
		payload = append(payload, 0)
	}
	zd, err := DecodeZoneDetails(5, payload)
	if err != nil {
		t.Fatalf("DecodeZoneDetails: %v", err)
	}
	if zd.Type != 1 || zd.AreaMask != 0x03 {
		t.Fatalf("unexpected zone details: %+v", zd)
	}
	if zd.Text != "KITCHEN WINDOW" {
		t.Fatalf("unexpected text: %q", zd.Text)
	}
}

func TestDecodeZoneDetails35Bytes(t *testing.T) {
	payload := make([]byte, 35)
	payload[0] = 2
	payload[1] = 0x34
	payload[2] = 0x12
	copy(payload[3:], []byte("FRONT DOOR"))
	zd, err := DecodeZoneDetails(1, payload)
	if err != nil {
		t.Fatalf("DecodeZoneDetails: %v", err)
	}
	if zd.AreaMask != 0x1234 {
		t.Fatalf("got area mask 0x%x want 0x1234", zd.AreaMask)
	}
}

func TestDecodeZoneDetails41Bytes(t *testing.T) {
	payload := make([]byte, 41)
	payload[0] = 1
	for i := 0; i < 8; i++ {
		payload[1+i] = byte(i + 1)
	}
	copy(payload[9:], []byte("KITCHEN WINDOW"))
	zd, err := DecodeZoneDetails(12, payload)
	if err != nil {
		t.Fatalf("DecodeZoneDetails: %v", err)
	}
	var want uint64
	for i := 0; i < 8; i++ {
		want |= uint64(i+1) << (8 * i)
	}
	if zd.AreaMask != want {
		t.Fatalf("got area mask 0x%x want 0x%x", zd.AreaMask, want)
	}
	if zd.Text != "KITCHEN WINDOW" {
		t.Fatalf("unexpected text: %q", zd.Text)
	}
}

func TestDecodeZoneDetailsWrongLength(t *testing.T) {
	if _, err := DecodeZoneDetails(1, make([]byte, 10)); !errors.Is(err, ErrWrongLength) {
		t.Fatalf("expected ErrWrongLength, got %v", err)
	}
}

func TestDecodeSystemPower(t *testing.T) {
	// ref=100, sys=110 (+10 counts -> +0.7V), bat=90 (-10 counts -> -0.7V), sys_i=2, bat_i=3
	payload := []byte{100, 110, 90, 2, 3}
	sp, err := DecodeSystemPower(payload)
	if err != nil {
		t.Fatalf("DecodeSystemPower: %v", err)
	}
	if math.Abs(sp.SystemVoltage-14.4) > 1e-9 {
		t.Fatalf("got system voltage %f want 14.4", sp.SystemVoltage)
	}
	if math.Abs(sp.BatteryVoltage-13.0) > 1e-9 {
		t.Fatalf("got battery voltage %f want 13.0", sp.BatteryVoltage)
	}
	if sp.SystemCurrentMA != 18 || sp.BatteryCurrentMA != 27 {
		t.Fatalf("unexpected currents: %+v", sp)
	}
}

func TestZoneCache(t *testing.T) {
	c := NewZoneCache()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
	c.Set(ZoneDetails{Zone: 3, Type: 1, Text: "HALL"})
	got, ok := c.Get(3)
	if !ok || got.Text != "HALL" {
		t.Fatalf("unexpected Get result: %+v ok=%v", got, ok)
	}
	if c.Text(99) != "zone 99" {
		t.Fatalf("expected placeholder text for unset zone, got %q", c.Text(99))
	}
}
