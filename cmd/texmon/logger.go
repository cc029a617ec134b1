package main

import (
	"log/slog"
	"os"

	"github.com/texmon-go/texmon/internal/logging"
)

func setupLogger(format, level string) *slog.Logger {
	l := logging.New(format, logging.Level(level), os.Stderr).With("app", "texmon")
	logging.Set(l)
	return l
}
