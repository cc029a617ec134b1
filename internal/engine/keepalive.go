package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/texmon-go/texmon/internal/logging"
	"github.com/texmon-go/texmon/internal/metrics"
	"github.com/texmon-go/texmon/internal/session"
	"github.com/texmon-go/texmon/internal/texproto"
)

// KeepAliveThreshold is how long the engine waits since its last send before
// probing the panel; the panel drops idle connections after about 60s, so
// this must leave comfortable margin (spec.md §4.4.4). A var, not a const,
// so tests can shrink it instead of waiting out the real 30s.
var KeepAliveThreshold = 30 * time.Second

// sessionLastSend reports when the underlying session last wrote a frame,
// used to decide whether a keep-alive probe is due.
func (e *Engine) sessionLastSend() time.Time {
	return e.sess.LastSendTime()
}

func (e *Engine) keepAliveDue() bool {
	last := e.sessionLastSend()
	return !last.IsZero() && time.Since(last) >= KeepAliveThreshold
}

// Listen is the application's idle loop: it blocks reading frames off the
// wire so unsolicited Message frames are dispatched as soon as they arrive,
// rather than sitting unread until the next outstanding command happens to
// drain them. Each read uses the session's fixed timeout (spec.md §4.3); a
// timeout with no frame is how the loop notices it's idle and checks whether
// a keep-alive probe (§4.4.4) is due. Listen returns only on a session-level
// error (PeerDisconnect, a failed keep-alive probe, or ctx cancellation).
func (e *Engine) Listen(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.mu.Lock()
		fr, err := e.sess.RecvFrame()
		e.mu.Unlock()
		if err != nil {
			if err == session.ErrTimeout {
				if e.keepAliveDue() {
					logging.L().Debug("keepalive_probe")
					metrics.IncKeepAliveProbes()
					if _, perr := e.GetDateTime(ctx); perr != nil {
						metrics.IncError(metrics.ErrEngineKeepalive)
						return fmt.Errorf("engine keepalive: %w", perr)
					}
				}
				continue
			}
			if isRecoverableFrameError(err) {
				metrics.IncMalformed()
				logging.L().Warn("frame_decode_error", "error", err)
				continue
			}
			return fmt.Errorf("engine listen: %w", err)
		}

		e.mu.Lock()
		switch fr.Type {
		case texproto.TypeMessage:
			e.dispatchMessage(fr)
		default:
			logging.L().Warn("unexpected_frame_while_idle", "type", fr.Type, "seq", fr.Sequence)
		}
		e.mu.Unlock()
	}
}
