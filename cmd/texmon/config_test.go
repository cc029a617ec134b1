package main

import (
	"testing"
	"time"
)

func baseConfig() *appConfig {
	return &appConfig{
		host:        "panel.local",
		port:        10001,
		udlPassword: "1234",
		logFormat:   "text",
		logLevel:    "info",
		hubBuffer:   64,
		hubPolicy:   "drop",
		readTimeout: 2 * time.Second,
		keepAlive:   30 * time.Second,
		retryCount:  3,
	}
}

func TestConfigValidate_OK(t *testing.T) {
	if err := baseConfig().validate(); err != nil {
		t.Fatalf("expected ok got %v", err)
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*appConfig)
	}{
		{"noHost", func(c *appConfig) { c.host = "" }},
		{"badPort", func(c *appConfig) { c.port = 0 }},
		{"noUDL", func(c *appConfig) { c.udlPassword = "" }},
		{"badFormat", func(c *appConfig) { c.logFormat = "xx" }},
		{"badLevel", func(c *appConfig) { c.logLevel = "nope" }},
		{"badPolicy", func(c *appConfig) { c.hubPolicy = "x" }},
		{"badHubBuf", func(c *appConfig) { c.hubBuffer = 0 }},
		{"badReadTimeout", func(c *appConfig) { c.readTimeout = 0 }},
		{"badKeepAlive", func(c *appConfig) { c.keepAlive = 0 }},
		{"badRetryCount", func(c *appConfig) { c.retryCount = 0 }},
	}
	for _, tc := range tests {
		c := baseConfig()
		tc.mod(c)
		if err := c.validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
