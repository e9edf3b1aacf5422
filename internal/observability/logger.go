// Package observability sets up structured logging tied to request traces.
package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger replaces the global logger. Development gets human-readable
// console output at debug level; every other env gets JSON at info.
func InitLogger(serviceName, env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if env == "development" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = newLogger(os.Stdout, serviceName, env)
}

func newLogger(out io.Writer, serviceName, env string) zerolog.Logger {
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(out).With().Timestamp().Str("service", serviceName).Logger()
	}
	return zerolog.New(out).With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}

// LoggerFromContext returns the global logger, tagged with trace_id and span_id
// when ctx carries a valid span context.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := withSpan(log.Logger, trace.SpanContextFromContext(ctx))
	return &logger
}

func withSpan(logger zerolog.Logger, sc trace.SpanContext) zerolog.Logger {
	if !sc.IsValid() {
		return logger
	}
	return logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}
