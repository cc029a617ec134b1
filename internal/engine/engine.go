// Package engine drives the Texecom Connect session: sequence numbers,
// command/response matching with retransmission, and demultiplexing
// unsolicited Message frames that arrive while a command is outstanding.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/texmon-go/texmon/internal/command"
	"github.com/texmon-go/texmon/internal/event"
	"github.com/texmon-go/texmon/internal/hub"
	"github.com/texmon-go/texmon/internal/logging"
	"github.com/texmon-go/texmon/internal/metrics"
	"github.com/texmon-go/texmon/internal/session"
	"github.com/texmon-go/texmon/internal/texproto"
)

// MaxSendAttempts bounds the total number of times a command's bytes are put
// on the wire (the first send plus retransmissions) before giving up. A
// var, not a const, so the host program can tune the retry budget.
var MaxSendAttempts = 3

// Engine owns the three independent sequence spaces and the single
// outstanding-command invariant: only one SendCommand call may be in flight
// on a given Engine at a time.
type Engine struct {
	sess *session.Session
	hub  *hub.Hub

	mu            sync.Mutex
	txNext        int // next outbound command sequence, wraps at 256
	rxLastMessage int // last Message frame sequence seen, -1 before the first

	Zones *command.ZoneCache
}

// New wraps a connected session. If h is non-nil, decoded Message-frame
// events are broadcast to it as they arrive.
func New(sess *session.Session, h *hub.Hub) *Engine {
	return &Engine{
		sess:          sess,
		hub:           h,
		rxLastMessage: -1,
		Zones:         command.NewZoneCache(),
	}
}

func (e *Engine) nextSequence() byte {
	seq := e.txNext
	e.txNext++
	if e.txNext == 256 {
		e.txNext = 0
	}
	return byte(seq)
}

// SendCommand sends a command (opcode followed by its argument bytes) and
// returns the response payload with the echoed opcode stripped off. Only
// one command may be outstanding at a time; callers running concurrently
// must serialize through their own lock or a single engine goroutine.
func (e *Engine) SendCommand(ctx context.Context, opcode byte, args []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	body := append([]byte{opcode}, args...)
	seq := e.nextSequence()

	if err := e.sess.SendFrame(texproto.TypeCommand, seq, body); err != nil {
		return nil, fmt.Errorf("engine send command: %w", err)
	}
	metrics.IncCommandsSent()

	var payload []byte
	var err error
	for attempt := 0; attempt < MaxSendAttempts; attempt++ {
		if attempt > 0 {
			if rerr := e.sess.Retransmit(); rerr != nil {
				return nil, fmt.Errorf("engine retransmit: %w", rerr)
			}
			metrics.IncCommandRetries()
			logging.L().Warn("command_retry", "opcode", opcode, "seq", seq, "attempt", attempt+1)
		}
		payload, err = e.readUntilResponse(ctx, seq)
		if err == nil {
			break
		}
		if err != session.ErrTimeout {
			return nil, err
		}
	}
	if err != nil {
		metrics.IncCommandTimeouts()
		return nil, fmt.Errorf("engine command %w (opcode=0x%02x)", ErrRetriesExhausted, opcode)
	}

	responseID, rest := payload[0], payload[1:]
	if responseID != opcode {
		if responseID == command.Login && len(rest) >= 1 && rest[0] == command.NAK {
			return nil, ErrLoginRejected
		}
		metrics.IncResponsesMismatched()
		return nil, fmt.Errorf("%w: %w: expected 0x%02x got 0x%02x", ErrProtocolDesync, ErrWrongCommandID, opcode, responseID)
	}
	return rest, nil
}

// readUntilResponse reads frames until the expected Response arrives,
// dispatching any Message frames encountered along the way. A malformed
// frame (bad CRC, bad start byte, short read) or a Response carrying the
// wrong sequence number is dropped and logged, not treated as fatal: per
// spec.md §4.4.2/§7 both are locally recoverable, the receive loop just
// keeps reading against the same retry budget.
func (e *Engine) readUntilResponse(ctx context.Context, seq byte) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fr, err := e.sess.RecvFrame()
		if err != nil {
			if isRecoverableFrameError(err) {
				metrics.IncMalformed()
				logging.L().Warn("frame_decode_error", "error", err)
				continue
			}
			return nil, err
		}
		switch fr.Type {
		case texproto.TypeMessage:
			e.dispatchMessage(fr)
		case texproto.TypeResponse:
			if fr.Sequence != seq {
				metrics.IncResponsesMismatched()
				logging.L().Warn("response_sequence_mismatch", "expected", seq, "actual", fr.Sequence)
				continue
			}
			metrics.IncResponsesMatched()
			return fr.Body, nil
		case texproto.TypeCommand:
			logging.L().Warn("frame_dropped", "error", ErrUnexpectedCommandFrame, "seq", fr.Sequence)
			continue
		default:
			return nil, fmt.Errorf("engine: unknown frame type 0x%02x", fr.Type)
		}
	}
}

// isRecoverableFrameError reports whether err is a texproto frame-decode
// error (bad CRC, bad start byte, short read) rather than a session-level
// error (timeout, peer disconnect, closed session). Spec.md §7 marks these
// frame-decode errors "recovered locally": drop the frame and keep reading.
func isRecoverableFrameError(err error) bool {
	return errors.Is(err, texproto.ErrBadCRC) ||
		errors.Is(err, texproto.ErrBadStart) ||
		errors.Is(err, texproto.ErrShort) ||
		errors.Is(err, texproto.ErrBodySize)
}

// dispatchMessage validates a Message frame's sequence number, decodes its
// event, and broadcasts it. A message that isn't exactly the next expected
// sequence is dropped outright (spec.md §4.4.2/§8: "message acceptance
// requires strictly prev+1 mod 256"), logged but never decoded, broadcast,
// or allowed to advance rxLastMessage.
func (e *Engine) dispatchMessage(fr texproto.Frame) {
	if e.rxLastMessage != -1 {
		want := e.rxLastMessage + 1
		if want == 256 {
			want = 0
		}
		if int(fr.Sequence) != want {
			logging.L().Warn("message_sequence_gap", "expected", want, "actual", fr.Sequence)
			return
		}
	}
	e.rxLastMessage = int(fr.Sequence)

	ev, err := event.Decode(fr.Body)
	if err != nil {
		metrics.IncMalformed()
		logging.L().Warn("event_decode_error", "error", err)
		return
	}
	if ev.Type == event.TypeZone && ev.Zone != nil {
		ev.Zone.Text = e.Zones.Text(ev.Zone.Zone)
	}
	metrics.IncEventDecoded(eventTypeLabel(ev.Type))
	logging.L().Debug("event", "summary", ev.String())
	if e.hub != nil {
		e.hub.Broadcast(ev)
	}
}

func eventTypeLabel(t byte) string {
	switch t {
	case event.TypeDebug:
		return "debug"
	case event.TypeZone:
		return "zone"
	case event.TypeArea:
		return "area"
	case event.TypeOutput:
		return "output"
	case event.TypeUser:
		return "user"
	case event.TypeLog:
		return "log"
	default:
		return "unknown"
	}
}

// Login authenticates with the panel's UDL password.
func (e *Engine) Login(ctx context.Context, udl string) error {
	payload, err := e.SendCommand(ctx, command.Login, []byte(udl))
	if err != nil {
		return err
	}
	if err := command.DecodeAckNak(payload); err != nil {
		if errors.Is(err, command.ErrNAK) {
			return fmt.Errorf("%w: %v", ErrLoginRejected, err)
		}
		return err
	}
	return nil
}

// SetEventMessages enables the given event mask so the panel starts
// sending Message frames for zone/area/output/user/log activity.
func (e *Engine) SetEventMessages(ctx context.Context, mask uint16) error {
	payload, err := e.SendCommand(ctx, command.SetEventMessages, []byte{byte(mask & 0xFF), byte(mask >> 8)})
	if err != nil {
		return err
	}
	return command.DecodeAckNak(payload)
}

// GetDateTime reads the panel's clock.
func (e *Engine) GetDateTime(ctx context.Context) (command.DateTime, error) {
	payload, err := e.SendCommand(ctx, command.GetDateTime, nil)
	if err != nil {
		return command.DateTime{}, err
	}
	return command.DecodeDateTime(payload)
}

// GetLCDDisplay reads the panel's current 32-character LCD text.
func (e *Engine) GetLCDDisplay(ctx context.Context) (string, error) {
	payload, err := e.SendCommand(ctx, command.GetLCDDisplay, nil)
	if err != nil {
		return "", err
	}
	return command.DecodeLCDDisplay(payload)
}

// GetLogPointer reads the panel's current log write pointer.
func (e *Engine) GetLogPointer(ctx context.Context) (int, error) {
	payload, err := e.SendCommand(ctx, command.GetLogPointer, nil)
	if err != nil {
		return 0, err
	}
	return command.DecodeLogPointer(payload)
}

// GetPanelIdentification reads and parses the panel's identification string.
func (e *Engine) GetPanelIdentification(ctx context.Context) (command.PanelIdentity, error) {
	payload, err := e.SendCommand(ctx, command.GetPanelIdentification, nil)
	if err != nil {
		return command.PanelIdentity{}, err
	}
	return command.DecodePanelIdentification(payload)
}

// GetZoneDetails reads one zone's configuration.
func (e *Engine) GetZoneDetails(ctx context.Context, zone int) (command.ZoneDetails, error) {
	payload, err := e.SendCommand(ctx, command.GetZoneDetails, []byte{byte(zone)})
	if err != nil {
		return command.ZoneDetails{}, err
	}
	return command.DecodeZoneDetails(zone, payload)
}

// GetSystemPower reads the panel's power supply rail voltages and currents.
func (e *Engine) GetSystemPower(ctx context.Context) (command.SystemPower, error) {
	payload, err := e.SendCommand(ctx, command.GetSystemPower, nil)
	if err != nil {
		return command.SystemPower{}, err
	}
	return command.DecodeSystemPower(payload)
}

// EnumerateZones reads the panel's identification to learn its zone count,
// then reads every zone's details into the engine's ZoneCache, including
// unused zones. It's meant to run once right after login.
func (e *Engine) EnumerateZones(ctx context.Context) (command.PanelIdentity, error) {
	id, err := e.GetPanelIdentification(ctx)
	if err != nil {
		return command.PanelIdentity{}, fmt.Errorf("engine enumerate zones: %w", err)
	}
	for zone := 1; zone <= id.NumZones; zone++ {
		zd, err := e.GetZoneDetails(ctx, zone)
		if err != nil {
			return id, fmt.Errorf("engine enumerate zones: zone %d: %w", zone, err)
		}
		e.Zones.Set(zd)
	}
	return id, nil
}
