package main

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvOverrides_Basic(t *testing.T) {
	c := baseConfig()

	os.Setenv("TEXMON_PORT", "10002")
	os.Setenv("TEXMON_DEBUG_EVENTS", "true")
	os.Setenv("TEXMON_READ_TIMEOUT", "3s")
	os.Setenv("TEXMON_RETRY_COUNT", "5")
	t.Cleanup(func() {
		os.Unsetenv("TEXMON_PORT")
		os.Unsetenv("TEXMON_DEBUG_EVENTS")
		os.Unsetenv("TEXMON_READ_TIMEOUT")
		os.Unsetenv("TEXMON_RETRY_COUNT")
	})
	if err := applyEnvOverrides(c, map[string]struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.port != 10002 {
		t.Fatalf("expected port override, got %d", c.port)
	}
	if !c.debugEvents {
		t.Fatalf("expected debugEvents true")
	}
	if c.readTimeout != 3*time.Second {
		t.Fatalf("expected readTimeout 3s got %v", c.readTimeout)
	}
	if c.retryCount != 5 {
		t.Fatalf("expected retryCount 5 got %d", c.retryCount)
	}
}

func TestApplyEnvOverrides_FlagPrecedence(t *testing.T) {
	c := baseConfig()
	c.port = 10001
	os.Setenv("TEXMON_PORT", "10002")
	t.Cleanup(func() { os.Unsetenv("TEXMON_PORT") })
	if err := applyEnvOverrides(c, map[string]struct{}{"port": {}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if c.port != 10001 {
		t.Fatalf("expected port unchanged 10001, got %d", c.port)
	}
}

func TestApplyEnvOverrides_UDLPasswordFromEnv(t *testing.T) {
	c := baseConfig()
	c.udlPassword = ""
	os.Setenv("TEXMON_UDL_PASSWORD", "secret")
	t.Cleanup(func() { os.Unsetenv("TEXMON_UDL_PASSWORD") })
	if err := applyEnvOverrides(c, map[string]struct{}{}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if c.udlPassword != "secret" {
		t.Fatalf("expected udlPassword from env, got %q", c.udlPassword)
	}
}

func TestApplyEnvOverrides_BadInt(t *testing.T) {
	c := baseConfig()
	os.Setenv("TEXMON_RETRY_COUNT", "notint")
	t.Cleanup(func() { os.Unsetenv("TEXMON_RETRY_COUNT") })
	if err := applyEnvOverrides(c, map[string]struct{}{}); err == nil {
		t.Fatalf("expected error for bad integer")
	}
}
