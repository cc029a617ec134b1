// Package redissink republishes the decoded event stream to Redis: a pub/sub
// channel carrying every event as JSON, plus a last-known-state hash per
// zone/area. It is a generic telemetry bridge, not a site-specific reaction
// (spec.md §1's Non-goal excludes the latter, e.g. running an external
// script when one particular zone fires); this sink only mirrors the pure
// event stream, the way librescoot-bluetooth-service's redis client mirrors
// BLE state.
package redissink

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/texmon-go/texmon/internal/event"
	"github.com/texmon-go/texmon/internal/metrics"
)

// EventsChannel is the pub/sub channel every decoded event is published to.
const EventsChannel = "texecom:events"

const pingTimeout = 5 * time.Second

// Sink publishes decoded events to Redis.
type Sink struct {
	client *redis.Client
}

// New dials addr and verifies the connection with a PING before returning.
func New(addr string) (*Sink, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redissink: connect: %w", err)
	}
	return &Sink{client: client}, nil
}

// Publish marshals ev as JSON and publishes it on EventsChannel, then writes
// the zone/area's last-known state into a per-entity hash — the
// WriteString+Publish split the teacher example's Client uses, done here as
// a single pipelined round trip.
func (s *Sink) Publish(ctx context.Context, ev event.Event) error {
	raw, err := eventJSON(ev)
	if err != nil {
		return fmt.Errorf("redissink: marshal: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Publish(ctx, EventsChannel, raw)
	switch ev.Type {
	case event.TypeZone:
		pipe.HSet(ctx, zoneKey(ev.Zone.Zone), "state", ev.Zone.State, "text", ev.Zone.Text)
	case event.TypeArea:
		pipe.HSet(ctx, areaKey(ev.Area.Area), "state", ev.Area.State)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.IncError(metrics.ErrRedisSink)
		return fmt.Errorf("redissink: publish: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (s *Sink) Close() error { return s.client.Close() }

func eventJSON(ev event.Event) ([]byte, error) { return json.Marshal(ev) }

func zoneKey(zone int) string { return "texecom:zone:" + strconv.Itoa(zone) }
func areaKey(area int) string { return "texecom:area:" + strconv.Itoa(area) }
