package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type appConfig struct {
	host            string
	port            int
	udlPassword     string
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
	readTimeout     time.Duration
	keepAlive       time.Duration
	retryCount      int
	redisAddr       string
	debugEvents     bool
	hubBuffer       int
	hubPolicy       string
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	host := flag.String("host", "", "Panel TCP host")
	port := flag.Int("port", 10001, "Panel TCP port")
	udl := flag.String("udl-password", "", "UDL password (prefer TEXMON_UDL_PASSWORD so it doesn't appear on the command line)")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters (for non-Prometheus setups)")
	readTimeout := flag.Duration("read-timeout", 2*time.Second, "Socket read timeout (spec allows 2-3s)")
	keepAlive := flag.Duration("keepalive-interval", 30*time.Second, "Idle duration before a GET_DATE_TIME keep-alive probe fires")
	retryCount := flag.Int("retry-count", 3, "Total send attempts (first send plus retransmissions) per command")
	redisAddr := flag.String("redis-addr", "", "Redis address to mirror the event stream to (e.g., 127.0.0.1:6379); empty disables")
	debugEvents := flag.Bool("debug-events", false, "Include MSG_DEBUG in the enabled event mask")
	hubBuf := flag.Int("hub-buffer", 64, "Per-subscriber event hub buffer (events)")
	hubPolicy := flag.String("hub-policy", "drop", "Backpressure policy: drop|kick")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.host = *host
	cfg.port = *port
	cfg.udlPassword = *udl
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.readTimeout = *readTimeout
	cfg.keepAlive = *keepAlive
	cfg.retryCount = *retryCount
	cfg.redisAddr = *redisAddr
	cfg.debugEvents = *debugEvents
	cfg.hubBuffer = *hubBuf
	cfg.hubPolicy = *hubPolicy

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// validate range-checks the parsed configuration. It never opens a socket.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.host == "" {
		return errors.New("host must be set")
	}
	if c.port <= 0 || c.port > 65535 {
		return fmt.Errorf("port out of range: %d", c.port)
	}
	if c.udlPassword == "" {
		return errors.New("udl password must be set (flag or TEXMON_UDL_PASSWORD)")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	switch c.hubPolicy {
	case "drop", "kick":
	default:
		return fmt.Errorf("invalid hub-policy: %s", c.hubPolicy)
	}
	if c.hubBuffer <= 0 {
		return fmt.Errorf("hub-buffer must be > 0 (got %d)", c.hubBuffer)
	}
	if c.readTimeout <= 0 {
		return errors.New("read-timeout must be > 0")
	}
	if c.keepAlive <= 0 {
		return errors.New("keepalive-interval must be > 0")
	}
	if c.retryCount <= 0 {
		return fmt.Errorf("retry-count must be > 0 (got %d)", c.retryCount)
	}
	return nil
}

// applyEnvOverrides maps TEXMON_* environment variables onto config fields
// unless the corresponding flag was explicitly set on the command line.
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	if _, ok := set["host"]; !ok {
		if v, ok := get("TEXMON_HOST"); ok && v != "" {
			c.host = v
		}
	}
	if _, ok := set["port"]; !ok {
		if v, ok := get("TEXMON_PORT"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.port = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TEXMON_PORT: %w", err)
			}
		}
	}
	if _, ok := set["udl-password"]; !ok {
		if v, ok := get("TEXMON_UDL_PASSWORD"); ok && v != "" {
			c.udlPassword = v
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("TEXMON_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("TEXMON_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("TEXMON_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("TEXMON_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TEXMON_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	if _, ok := set["read-timeout"]; !ok {
		if v, ok := get("TEXMON_READ_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.readTimeout = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TEXMON_READ_TIMEOUT: %w", err)
			}
		}
	}
	if _, ok := set["keepalive-interval"]; !ok {
		if v, ok := get("TEXMON_KEEPALIVE_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.keepAlive = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TEXMON_KEEPALIVE_INTERVAL: %w", err)
			}
		}
	}
	if _, ok := set["retry-count"]; !ok {
		if v, ok := get("TEXMON_RETRY_COUNT"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.retryCount = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TEXMON_RETRY_COUNT: %w", err)
			}
		}
	}
	if _, ok := set["redis-addr"]; !ok {
		if v, ok := get("TEXMON_REDIS_ADDR"); ok {
			c.redisAddr = v
		}
	}
	if _, ok := set["debug-events"]; !ok {
		if v, ok := get("TEXMON_DEBUG_EVENTS"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.debugEvents = true
			case "0", "false", "no", "off":
				c.debugEvents = false
			}
		}
	}
	if _, ok := set["hub-buffer"]; !ok {
		if v, ok := get("TEXMON_HUB_BUFFER"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.hubBuffer = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TEXMON_HUB_BUFFER: %w", err)
			}
		}
	}
	if _, ok := set["hub-policy"]; !ok {
		if v, ok := get("TEXMON_HUB_POLICY"); ok && v != "" {
			c.hubPolicy = v
		}
	}
	return firstErr
}
