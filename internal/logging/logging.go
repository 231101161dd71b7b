package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Setup creates a configured *slog.Logger writing to w, sets it as the
// default, and returns it. The level parameter accepts "debug", "info",
// "warn", "error" (case-insensitive); anything else means info.
func Setup(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
