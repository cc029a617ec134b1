package main

import (
	"context"
	"log/slog"

	"github.com/texmon-go/texmon/internal/event"
	"github.com/texmon-go/texmon/internal/fanout"
	"github.com/texmon-go/texmon/internal/hub"
	"github.com/texmon-go/texmon/internal/redissink"
)

// redisAsyncBuf bounds how many events can queue for Redis before new ones
// are dropped; the publish goroutine runs independently of the hub so a slow
// or unreachable Redis instance never stalls event delivery to other
// subscribers.
const redisAsyncBuf = 256

// initRedisSink connects to Redis (if configured) and registers a hub
// subscriber that republishes every event through an AsyncTx worker. It
// returns a cleanup func that is always safe to call.
func initRedisSink(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger) func() {
	if cfg.redisAddr == "" {
		return func() {}
	}
	sink, err := redissink.New(cfg.redisAddr)
	if err != nil {
		l.Error("redis_sink_init_error", "error", err, "addr", cfg.redisAddr)
		return func() {}
	}
	tx := fanout.NewAsyncTx(ctx, redisAsyncBuf, func(ev event.Event) error {
		return sink.Publish(ctx, ev)
	}, fanout.Hooks{
		OnError: func(err error) { l.Warn("redis_publish_error", "error", err) },
	})

	client := &hub.Client{Out: make(chan event.Event, cfg.hubBuffer), Closed: make(chan struct{})}
	h.Add(client)
	go func() {
		for {
			select {
			case ev := <-client.Out:
				_ = tx.SendEvent(ev)
			case <-client.Closed:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	l.Info("redis_sink_connected", "addr", cfg.redisAddr)
	return func() {
		h.Remove(client)
		tx.Close()
		_ = sink.Close()
	}
}
