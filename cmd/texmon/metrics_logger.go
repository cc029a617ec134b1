package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/texmon-go/texmon/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"commands_sent", snap.CommandsSent,
					"command_retries", snap.CommandRetries,
					"command_timeouts", snap.CommandTimeouts,
					"responses_matched", snap.ResponsesMatched,
					"responses_mismatched", snap.ResponsesMismatched,
					"crc_failures", snap.CRCFailures,
					"malformed", snap.Malformed,
					"keepalive_probes", snap.KeepAliveProbes,
					"hub_drops", snap.HubDrops,
					"hub_clients", snap.HubClients,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
