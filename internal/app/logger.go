package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production deployments set
// LOG_FORMAT=json so the collector can parse it; everything else gets
// the readable text handler.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
