package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup returns a JSON slog.Logger writing to w.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault installs the JSON logger as the process default and returns it.
// Debug level is used outside gin's release mode.
func SetupDefault(w io.Writer, ginMode string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	level := slog.LevelInfo
	if ginMode != "release" {
		level = slog.LevelDebug
	}
	l := Setup(w, level)
	slog.SetDefault(l)
	return l
}
