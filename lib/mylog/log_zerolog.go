package mylog

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/udonthavemotion/BRISClothing/lib/mycontext"
)

type zerologLogger struct {
	logger zerolog.Logger
}

func newZerologLogger(componentName string) Logger {
	return zerologLogger{
		logger: zerolog.New(os.Stderr).With().
			Timestamp().
			Str("component", componentName).
			Logger(),
	}
}

func (l zerologLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	event := l.logger.WithLevel(toZerologLevel(severity))

	if traceID := mycontext.TraceIDFromContext(ctx); traceID != "" {
		event = event.Str("traceId", traceID)
	}
	if traceLabel != "" {
		event = event.Str("label", traceLabel)
	}

	event.Msg(fmt.Sprintf(format, a...))
}

func toZerologLevel(severity Severity) zerolog.Level {
	switch severity {
	case SeverityDebug:
		return zerolog.DebugLevel
	case SeverityWarn:
		return zerolog.WarnLevel
	case SeverityError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
