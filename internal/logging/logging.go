// Package logging builds the process-wide slog handler from config.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

var (
	ErrUnknownLevel  = errors.New("unknown log level")
	ErrUnknownFormat = errors.New("unknown log format")
)

// New builds a *slog.Logger writing to stdout from string level/format
// config values, the shape config.LoggingConfig carries.
func New(level, format string) (*slog.Logger, error) {
	handler, err := NewHandler(os.Stdout, level, format)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewHandler parses level/format and builds the corresponding slog.Handler
// writing to w.
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	fmtVal, err := parseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch fmtVal {
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case FormatText:
		return slog.NewTextHandler(w, opts), nil
	}
	return nil, ErrUnknownFormat
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}
	return 0, ErrUnknownLevel
}

func parseFormat(format string) (Format, error) {
	f := Format(strings.ToLower(format))
	if f == "" {
		f = FormatJSON
	}
	if f == FormatJSON || f == FormatText {
		return f, nil
	}
	return "", ErrUnknownFormat
}
