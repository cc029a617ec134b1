// Command texmon dials a Texecom Connect alarm panel, logs in, enables
// event messages, and streams decoded zone/area/output/user/log events to
// its registered subscribers (metrics, logs, and an optional Redis mirror)
// until the panel disconnects or the process is signalled to stop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/texmon-go/texmon/internal/command"
	"github.com/texmon-go/texmon/internal/engine"
	"github.com/texmon-go/texmon/internal/event"
	"github.com/texmon-go/texmon/internal/hub"
	"github.com/texmon-go/texmon/internal/metrics"
	"github.com/texmon-go/texmon/internal/session"
)

func applyTunables(cfg *appConfig) {
	session.ReadTimeout = cfg.readTimeout
	engine.MaxSendAttempts = cfg.retryCount
	engine.KeepAliveThreshold = cfg.keepAlive
}

// version, commit and date are overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("texmon %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if cfg == nil {
		os.Exit(1)
	}

	applyTunables(cfg)
	l := setupLogger(cfg.logFormat, cfg.logLevel)
	h := initHub(cfg, l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	stdoutClient := &hub.Client{Out: make(chan event.Event, cfg.hubBuffer), Closed: make(chan struct{})}
	h.Add(stdoutClient)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case ev := <-stdoutClient.Out:
				l.Info("event", "summary", ev.String())
			case <-stdoutClient.Closed:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	cleanupRedis := initRedisSink(ctx, cfg, h, l)
	defer cleanupRedis()

	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	ready := false
	var readyMu sync.Mutex
	metrics.SetReadinessFunc(func() bool {
		readyMu.Lock()
		defer readyMu.Unlock()
		return ready && ctx.Err() == nil
	})

	addr := net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
	e, err := connectAndSetup(ctx, cfg, addr, h, l)
	if err != nil {
		l.Error("setup_failed", "error", err)
		return
	}

	readyMu.Lock()
	ready = true
	readyMu.Unlock()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() { listenErr <- e.Listen(ctx) }()

	select {
	case s := <-sigCh:
		l.Info("shutdown_signal", "signal", s.String())
	case err := <-listenErr:
		l.Error("session_ended", "error", err)
	}
	cancel()
	h.Remove(stdoutClient)
	wg.Wait()
}

// connectAndSetup dials the panel, logs in, enables the configured event
// mask, and enumerates zones so the zone cache is populated before any
// event arrives that would need zone text.
func connectAndSetup(ctx context.Context, cfg *appConfig, addr string, h *hub.Hub, l *slog.Logger) (*engine.Engine, error) {
	sess, err := session.Dial(addr)
	if err != nil {
		metrics.IncError(metrics.ErrSessionDial)
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	e := engine.New(sess, h)
	if err := e.Login(ctx, cfg.udlPassword); err != nil {
		metrics.IncError(metrics.ErrEngineLogin)
		return nil, fmt.Errorf("login: %w", err)
	}

	mask := command.DefaultEventMask
	if cfg.debugEvents {
		mask |= command.EventDebug
	}
	if err := e.SetEventMessages(ctx, mask); err != nil {
		return nil, fmt.Errorf("set event messages: %w", err)
	}

	id, err := e.EnumerateZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate zones: %w", err)
	}
	l.Info("panel_identified", "type", id.PanelType, "zones", id.NumZones, "firmware", id.FirmwareVersion, "cached_zones", e.Zones.Len())

	return e, nil
}
