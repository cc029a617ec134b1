package command

import (
	"errors"
	"fmt"
)

// ErrNAK is returned by DecodeAckNak when the panel rejects the command.
var ErrNAK = errors.New("command: NAK response from panel")

// ErrWrongLength is returned when a response's payload doesn't match the
// length a command's decoder knows how to parse.
var ErrWrongLength = errors.New("command: response wrong length")

// BuildLogin constructs a LOGIN command body carrying the UDL password.
func BuildLogin(udl string) []byte {
	return append([]byte{Login}, []byte(udl)...)
}

// BuildSetEventMessages constructs a SET_EVENT_MESSAGES command body for
// the given 16-bit event mask, sent little-endian.
func BuildSetEventMessages(mask uint16) []byte {
	return []byte{SetEventMessages, byte(mask & 0xFF), byte(mask >> 8)}
}

// DecodeAckNak interprets a one-byte ACK/NAK response payload, as used by
// both LOGIN and SET_EVENT_MESSAGES.
func DecodeAckNak(payload []byte) error {
	if len(payload) != 1 {
		return fmt.Errorf("command: ack/nak %w (%d)", ErrWrongLength, len(payload))
	}
	switch payload[0] {
	case ACK:
		return nil
	case NAK:
		return ErrNAK
	default:
		return fmt.Errorf("command: unexpected ack/nak byte 0x%02x", payload[0])
	}
}

// BuildGetDateTime constructs a GET_DATE_TIME command body.
func BuildGetDateTime() []byte { return []byte{GetDateTime} }

// DecodeDateTime parses the panel's clock: day, month, year-2000, hour,
// minute, second.
func DecodeDateTime(payload []byte) (DateTime, error) {
	if len(payload) < 6 {
		return DateTime{}, fmt.Errorf("command: date/time %w (%d)", ErrWrongLength, len(payload))
	}
	return DateTime{
		Day:    int(payload[0]),
		Month:  int(payload[1]),
		Year:   2000 + int(payload[2]),
		Hour:   int(payload[3]),
		Minute: int(payload[4]),
		Second: int(payload[5]),
	}, nil
}

// BuildGetLCDDisplay constructs a GET_LCD_DISPLAY command body.
func BuildGetLCDDisplay() []byte { return []byte{GetLCDDisplay} }

// DecodeLCDDisplay parses the panel's 32-character LCD text.
func DecodeLCDDisplay(payload []byte) (string, error) {
	if len(payload) != 32 {
		return "", fmt.Errorf("command: lcd display %w (%d)", ErrWrongLength, len(payload))
	}
	return string(payload), nil
}

// BuildGetLogPointer constructs a GET_LOG_POINTER command body.
func BuildGetLogPointer() []byte { return []byte{GetLogPointer} }

// DecodeLogPointer parses the 2-byte little-endian log pointer.
func DecodeLogPointer(payload []byte) (int, error) {
	if len(payload) != 2 {
		return 0, fmt.Errorf("command: log pointer %w (%d)", ErrWrongLength, len(payload))
	}
	return int(payload[0]) | int(payload[1])<<8, nil
}

// BuildGetPanelIdentification constructs a GET_PANEL_IDENTIFICATION command body.
func BuildGetPanelIdentification() []byte { return []byte{GetPanelIdentification} }

// DecodePanelIdentification parses the panel's 32-byte identification
// string into its four whitespace-separated fields.
func DecodePanelIdentification(payload []byte) (PanelIdentity, error) {
	if len(payload) != 32 {
		return PanelIdentity{}, fmt.Errorf("command: panel identification %w (%d)", ErrWrongLength, len(payload))
	}
	return ParsePanelIdentity(string(payload))
}

// BuildGetZoneDetails constructs a GET_ZONE_DETAILS command body for one zone.
func BuildGetZoneDetails(zone int) []byte {
	return []byte{GetZoneDetails, byte(zone)}
}

// DecodeZoneDetails parses one of the three GET_ZONE_DETAILS response shapes:
// 34 bytes (8-bit area bitmap), 35 bytes (16-bit area bitmap), or 41 bytes
// (64-bit area bitmap, one bit per area on larger panels).
func DecodeZoneDetails(zone int, payload []byte) (ZoneDetails, error) {
	var zoneType int
	var areaMask uint64
	var text []byte
	switch len(payload) {
	case 34:
		zoneType = int(payload[0])
		areaMask = uint64(payload[1])
		text = payload[2:]
	case 35:
		zoneType = int(payload[0])
		areaMask = uint64(payload[1]) | uint64(payload[2])<<8
		text = payload[3:]
	case 41:
		zoneType = int(payload[0])
		for i := 0; i < 8; i++ {
			areaMask |= uint64(payload[1+i]) << (8 * i)
		}
		text = payload[9:]
	default:
		return ZoneDetails{}, fmt.Errorf("command: zone details %w (%d)", ErrWrongLength, len(payload))
	}
	return ZoneDetails{
		Zone:     zone,
		Type:     zoneType,
		AreaMask: areaMask,
		Text:     cleanZoneText(string(text)),
	}, nil
}

// BuildGetSystemPower constructs a GET_SYSTEM_POWER command body.
func BuildGetSystemPower() []byte { return []byte{GetSystemPower} }

// DecodeSystemPower parses the 5-byte power rail reading and converts the
// raw A/D values to volts and milliamps, per the panel's fixed reference
// point of 13.7V and 70mV/count, 9mA/count scaling.
func DecodeSystemPower(payload []byte) (SystemPower, error) {
	if len(payload) != 5 {
		return SystemPower{}, fmt.Errorf("command: system power %w (%d)", ErrWrongLength, len(payload))
	}
	refV, sysV, batV, sysI, batI := payload[0], payload[1], payload[2], payload[3], payload[4]
	return SystemPower{
		SystemVoltage:    13.7 + float64(int(sysV)-int(refV))*0.070,
		BatteryVoltage:   13.7 + float64(int(batV)-int(refV))*0.070,
		SystemCurrentMA:  int(sysI) * 9,
		BatteryCurrentMA: int(batI) * 9,
	}, nil
}
