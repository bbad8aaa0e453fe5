// Package adapters provides logger adapters for integrating external logging
// libraries with the notification core's Logger interface.
package adapters

import (
	"github.com/rs/zerolog"

	"github.com/morrisonak/uta-notify-sub001/pkg/logger"
)

// ZerologAdapter adapts a zerolog.Logger to the core Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
	level  logger.LogLevel
}

// NewZerologAdapter creates a new zerolog adapter at the given level.
func NewZerologAdapter(zl zerolog.Logger, level logger.LogLevel) logger.Logger {
	return &ZerologAdapter{
		logger: zl,
		level:  level,
	}
}

// LogMode sets the log level and returns a new logger instance.
func (z *ZerologAdapter) LogMode(level logger.LogLevel) logger.Logger {
	return &ZerologAdapter{
		logger: z.logger,
		level:  level,
	}
}

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, args ...any) {
	if z.level >= logger.Info {
		z.emit(z.logger.Info(), msg, args...)
	}
}

// Warn logs a warning message.
func (z *ZerologAdapter) Warn(msg string, args ...any) {
	if z.level >= logger.Warn {
		z.emit(z.logger.Warn(), msg, args...)
	}
}

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, args ...any) {
	if z.level >= logger.Error {
		z.emit(z.logger.Error(), msg, args...)
	}
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, args ...any) {
	if z.level >= logger.Debug {
		z.emit(z.logger.Debug(), msg, args...)
	}
}

// emit attaches key-value pairs to the event and sends it. Keys that are not
// strings are skipped together with their values.
func (z *ZerologAdapter) emit(event *zerolog.Event, msg string, args ...any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, args[i+1])
	}
	event.Msg(msg)
}
