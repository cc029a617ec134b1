// Package command implements the Texecom Connect command set: opcode
// constants, request/response encoding, and the decoded value types each
// command's response carries.
package command

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Opcodes, sent as the first byte of a Command frame's body.
const (
	Login                 byte = 0x01
	GetZoneDetails        byte = 0x03
	GetLCDDisplay         byte = 0x0D
	GetLogPointer         byte = 0x0F
	GetPanelIdentification byte = 0x16
	GetDateTime           byte = 0x17
	GetSystemPower        byte = 0x19
	SetEventMessages      byte = 0x25
)

// ACK and NAK are the single-byte bodies a panel sends in reply to Login
// and SetEventMessages.
const (
	ACK byte = 0x06
	NAK byte = 0x15
)

// ZoneTypeUnused marks a zone slot the panel has not configured.
const ZoneTypeUnused = 0

// EventMask bits for SetEventMessages, sent as a 2-byte little-endian body.
const (
	EventDebug  uint16 = 1 << 0
	EventZone   uint16 = 1 << 1
	EventArea   uint16 = 1 << 2
	EventOutput uint16 = 1 << 3
	EventUser   uint16 = 1 << 4
	EventLog    uint16 = 1 << 5
)

// DefaultEventMask enables zone/area/output/user/log events but not debug,
// matching a monitoring client that doesn't want raw debug chatter.
const DefaultEventMask = EventZone | EventArea | EventOutput | EventUser | EventLog

// ZoneDetails is one zone's configuration as read back by GetZoneDetails.
type ZoneDetails struct {
	Zone      int
	Type      int
	AreaMask  uint64
	Text      string
}

// PanelIdentity is the parsed, whitespace-separated GETPANELIDENTIFICATION
// response: "<panel type> <num zones> <unused> <firmware version>".
type PanelIdentity struct {
	PanelType       string
	NumZones        int
	FirmwareVersion string
}

// ParsePanelIdentity splits a 32-byte identification string into its fields.
func ParsePanelIdentity(raw string) (PanelIdentity, error) {
	fields := strings.Fields(raw)
	if len(fields) < 4 {
		return PanelIdentity{}, fmt.Errorf("command: panel identification has %d fields, want 4", len(fields))
	}
	n, err := parseInt(fields[1])
	if err != nil {
		return PanelIdentity{}, fmt.Errorf("command: panel identification zone count: %w", err)
	}
	return PanelIdentity{PanelType: fields[0], NumZones: n, FirmwareVersion: fields[3]}, nil
}

// DateTime is the panel's clock as read back by GetDateTime.
type DateTime struct {
	Year, Month, Day      int
	Hour, Minute, Second int
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// Time converts to a time.Time in the local timezone, for comparing against
// the client's own clock.
func (d DateTime) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.Local)
}

// Delta reports how far the panel's clock is from now: positive means the
// panel is ahead.
func (d DateTime) Delta(now time.Time) time.Duration {
	return d.Time().Sub(now)
}

// SystemPower is the decoded GetSystemPower response, with the raw
// reference/rail bytes converted to volts and milliamps.
type SystemPower struct {
	SystemVoltage float64
	BatteryVoltage float64
	SystemCurrentMA int
	BatteryCurrentMA int
}

var nonWord = regexp.MustCompile(`\W+`)

// cleanZoneText replaces NUL bytes with spaces, collapses runs of non-word
// characters to a single space, and trims the result.
func cleanZoneText(s string) string {
	s = strings.ReplaceAll(s, "\x00", " ")
	s = nonWord.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func parseInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty integer field")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q in integer field %q", r, s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
