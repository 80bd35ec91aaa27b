// Package sysutil holds process-level helpers shared by the entrypoint and
// the service layer: logger setup and small string utilities for log fields.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel sets the global zerolog level. "warning" is accepted for
// warn; empty or unknown names fall back to info.
func SetLogLevel(lvl string) {
	name := strings.ToLower(strings.TrimSpace(lvl))
	if name == "warning" {
		name = "warn"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// ConfigureLogger sets the global level, installs the process logger and
// makes it the fallback for zerolog.Ctx on contexts without a request logger.
// With pretty=true output goes through a console writer.
func ConfigureLogger(level string, pretty bool, service string) zerolog.Logger {
	SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(w).With().Timestamp().Str("service", service).Logger()

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}

// Mask keeps the last four characters of an identifier and replaces the rest
// with '*'. Values of four characters or fewer are fully masked.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

// FirstNonEmpty returns the first value that is not blank, untrimmed.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
