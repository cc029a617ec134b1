// Package event decodes asynchronous Message-frame payloads (debug, zone,
// area, output, user and log events) into typed Go values.
package event

import (
	"errors"
	"fmt"
	"strings"
)

// Message type tags, the first byte of a Message frame's body.
const (
	TypeDebug  byte = 0
	TypeZone   byte = 1
	TypeArea   byte = 2
	TypeOutput byte = 3
	TypeUser   byte = 4
	TypeLog    byte = 5
)

// ErrUnknownPayloadLength is returned when a message's payload length
// doesn't match any variant this decoder understands.
var ErrUnknownPayloadLength = errors.New("event: unknown payload length")

// ErrUnknownType is returned for a message type byte outside TypeDebug..TypeLog.
var ErrUnknownType = errors.New("event: unknown message type")

// Event is the decoded form of one Message frame body.
type Event struct {
	Type  byte
	Debug *DebugEvent
	Zone  *ZoneEvent
	Area  *AreaEvent
	Output *OutputEvent
	User  *UserEvent
	Log   *LogEvent
}

// DebugEvent carries the raw bytes of an undecoded debug message.
type DebugEvent struct {
	Raw []byte
}

// ZoneEvent reports a zone's current state bitmap. Text is populated by the
// engine from its ZoneCache after Decode returns; Decode itself never sees
// the cache (spec.md §3: the cache is "read by the event decoder", but
// keeping Decode a pure function of the wire bytes makes it independently
// testable, so the join happens one layer up).
type ZoneEvent struct {
	Zone    int
	Bitmap  byte
	State   string
	Text    string
	Fault   bool
	FailedTest bool
	Alarmed bool
	ManualBypass bool
	AutoBypass   bool
	Masked       bool
}

// AreaEvent reports an area's current arm state.
type AreaEvent struct {
	Area  int
	State string
}

// OutputEvent reports an output bank's bitmap and resolved location name.
type OutputEvent struct {
	Location     int
	LocationName string
	Bitmap       byte
}

// UserEvent reports a user logon and the credential method used.
type UserEvent struct {
	User   int
	Method string
}

// LogEvent reports one historical log entry read out via a Message frame.
type LogEvent struct {
	EventType     int
	EventTypeName string
	GroupType     int
	GroupName     string
	Parameter     int
	Areas         int
	Timestamp     Timestamp
}

// Decode parses a Message frame body (msg type byte followed by its
// type-specific payload) into an Event.
func Decode(body []byte) (Event, error) {
	if len(body) < 1 {
		return Event{}, fmt.Errorf("event decode: %w", ErrUnknownPayloadLength)
	}
	typ, payload := body[0], body[1:]
	switch typ {
	case TypeDebug:
		return Event{Type: typ, Debug: &DebugEvent{Raw: append([]byte{}, payload...)}}, nil
	case TypeZone:
		z, err := decodeZone(payload)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: typ, Zone: z}, nil
	case TypeArea:
		a, err := decodeArea(payload)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: typ, Area: a}, nil
	case TypeOutput:
		o, err := decodeOutput(payload)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: typ, Output: o}, nil
	case TypeUser:
		u, err := decodeUser(payload)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: typ, User: u}, nil
	case TypeLog:
		l, err := decodeLog(payload)
		if err != nil {
			return Event{}, err
		}
		return Event{Type: typ, Log: l}, nil
	default:
		return Event{}, fmt.Errorf("event decode: %w (%d)", ErrUnknownType, typ)
	}
}

func decodeZone(payload []byte) (*ZoneEvent, error) {
	var zoneNum int
	var bitmap byte
	switch len(payload) {
	case 2:
		zoneNum = int(payload[0])
		bitmap = payload[1]
	case 3:
		zoneNum = int(payload[0]) | int(payload[1])<<8
		bitmap = payload[2]
	default:
		return nil, fmt.Errorf("event decode zone: %w (%d)", ErrUnknownPayloadLength, len(payload))
	}
	return &ZoneEvent{
		Zone:         zoneNum,
		Bitmap:       bitmap,
		State:        zoneStateNames[bitmap&0x3],
		Fault:        bitmap&(1<<2) != 0,
		FailedTest:   bitmap&(1<<3) != 0,
		Alarmed:      bitmap&(1<<4) != 0,
		ManualBypass: bitmap&(1<<5) != 0,
		AutoBypass:   bitmap&(1<<6) != 0,
		Masked:       bitmap&(1<<7) != 0,
	}, nil
}

func decodeArea(payload []byte) (*AreaEvent, error) {
	if len(payload) != 2 {
		return nil, fmt.Errorf("event decode area: %w (%d)", ErrUnknownPayloadLength, len(payload))
	}
	state := int(payload[1])
	if state >= len(areaStateNames) {
		return nil, fmt.Errorf("event decode area: state out of range (%d)", state)
	}
	return &AreaEvent{Area: int(payload[0]), State: areaStateNames[state]}, nil
}

func decodeOutput(payload []byte) (*OutputEvent, error) {
	if len(payload) != 2 {
		return nil, fmt.Errorf("event decode output: %w (%d)", ErrUnknownPayloadLength, len(payload))
	}
	loc := int(payload[0])
	return &OutputEvent{Location: loc, LocationName: OutputLocationName(loc), Bitmap: payload[1]}, nil
}

// OutputLocationName resolves an output event's location byte to a human
// name: the ten fixed banks by index, otherwise a network/device pair where
// device 0 is the network's keypad and any other value an expander.
func OutputLocationName(loc int) string {
	if loc < len(outputLocationNames) {
		return outputLocationNames[loc]
	}
	network, device := loc>>4, loc&0xF
	if device == 0 {
		return fmt.Sprintf("Network %d keypad outputs", network)
	}
	return fmt.Sprintf("Network %d expander %d outputs", network, device)
}

func decodeUser(payload []byte) (*UserEvent, error) {
	if len(payload) != 2 {
		return nil, fmt.Errorf("event decode user: %w (%d)", ErrUnknownPayloadLength, len(payload))
	}
	method := int(payload[1])
	if method >= len(userMethodNames) {
		return nil, fmt.Errorf("event decode user: method out of range (%d)", method)
	}
	return &UserEvent{User: int(payload[0]), Method: userMethodNames[method]}, nil
}

func decodeLog(payload []byte) (*LogEvent, error) {
	var parameter, areas int
	var ts [4]byte
	switch len(payload) {
	case 8:
		parameter = int(payload[2])
		areas = int(payload[3])
		copy(ts[:], payload[4:8])
	case 9:
		// Premier 168: areas gains a high byte tacked on at the end of the payload.
		parameter = int(payload[2])
		areas = int(payload[3]) | int(payload[8])<<8
		copy(ts[:], payload[4:8])
	case 10:
		// Premier 640, unverified against real hardware.
		parameter = int(payload[2]) | int(payload[3])<<8
		areas = int(payload[4]) | int(payload[5])<<8
		copy(ts[:], payload[6:10])
	default:
		return nil, fmt.Errorf("event decode log: %w (%d)", ErrUnknownPayloadLength, len(payload))
	}
	eventType := int(payload[0])
	groupType := int(payload[1])
	return &LogEvent{
		EventType:     eventType,
		EventTypeName: logEventTypeName(eventType),
		GroupType:     groupType,
		GroupName:     logEventGroupName(groupType),
		Parameter:     parameter,
		Areas:         areas,
		Timestamp:     decodeTimestamp(ts),
	}, nil
}

func logEventTypeName(t int) string {
	if name, ok := LogEventTypeName[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown log event type %d", t)
}

func logEventGroupName(g int) string {
	if name, ok := LogEventGroupName[g]; ok {
		return name
	}
	return fmt.Sprintf("Unknown log event group %d", g)
}

// String renders a short human summary, used in log lines.
func (e Event) String() string {
	switch e.Type {
	case TypeDebug:
		return "debug: " + hexString(e.Debug.Raw)
	case TypeZone:
		z := e.Zone
		label := fmt.Sprintf("%d", z.Zone)
		if z.Text != "" {
			label = fmt.Sprintf("%d (%s)", z.Zone, z.Text)
		}
		parts := []string{z.State}
		if z.Fault {
			parts = append(parts, "fault")
		}
		if z.FailedTest {
			parts = append(parts, "failed test")
		}
		if z.Alarmed {
			parts = append(parts, "alarmed")
		}
		if z.ManualBypass {
			parts = append(parts, "manual bypassed")
		}
		if z.AutoBypass {
			parts = append(parts, "auto bypassed")
		}
		if z.Masked {
			parts = append(parts, "zone masked")
		}
		return fmt.Sprintf("zone %s: %s", label, strings.Join(parts, ", "))
	case TypeArea:
		return fmt.Sprintf("area %d: %s", e.Area.Area, e.Area.State)
	case TypeOutput:
		return fmt.Sprintf("output location %d[%s] now 0x%02x", e.Output.Location, e.Output.LocationName, e.Output.Bitmap)
	case TypeUser:
		return fmt.Sprintf("logon by user %d %s", e.User.User, e.User.Method)
	case TypeLog:
		l := e.Log
		return fmt.Sprintf("%s %s group:%d param:%d areas:%d", l.Timestamp, l.EventTypeName, l.GroupType, l.Parameter, l.Areas)
	default:
		return "unknown event"
	}
}

func hexString(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	return sb.String()
}
