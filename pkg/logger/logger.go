// Package logger defines the leveled key-value logging contract shared by the
// notification core. The default implementation writes through the standard
// log package; the adapters subpackage bridges external libraries such as
// zerolog onto the same contract.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// LogLevel orders severities from quietest to loudest. A logger emits a
// record when the record's severity is at or below its configured level.
type LogLevel int

const (
	// Silent suppresses all output.
	Silent LogLevel = iota + 1
	Error
	Warn
	Info
	Debug
)

// Logger is the logging contract. Args are alternating key-value pairs.
type Logger interface {
	// LogMode returns a logger at the given level; the receiver is unchanged.
	LogMode(level LogLevel) Logger
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// StandardLogger writes prefixed, leveled lines through a *log.Logger.
type StandardLogger struct {
	logger *log.Logger
	level  LogLevel
	prefix string
}

// NewStandardLogger creates a logger over the given writer.
func NewStandardLogger(writer *log.Logger, level LogLevel, prefix string) Logger {
	return &StandardLogger{
		logger: writer,
		level:  level,
		prefix: prefix,
	}
}

// LogMode returns a copy of the logger at the given level.
func (l *StandardLogger) LogMode(level LogLevel) Logger {
	clone := *l
	clone.level = level
	return &clone
}

func (l *StandardLogger) Info(msg string, args ...any) {
	if l.level >= Info {
		l.logger.Print(l.format("INFO", msg, args...))
	}
}

func (l *StandardLogger) Warn(msg string, args ...any) {
	if l.level >= Warn {
		l.logger.Print(l.format("WARN", msg, args...))
	}
}

func (l *StandardLogger) Error(msg string, args ...any) {
	if l.level >= Error {
		l.logger.Print(l.format("ERROR", msg, args...))
	}
}

func (l *StandardLogger) Debug(msg string, args ...any) {
	if l.level >= Debug {
		l.logger.Print(l.format("DEBUG", msg, args...))
	}
}

// format renders one line: prefix, bracketed level, message, then the
// key-value pairs. A dangling key gets a "(no value)" marker rather than
// being dropped.
func (l *StandardLogger) format(level, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(l.prefix)
	b.WriteString(" [")
	b.WriteString(level)
	b.WriteString("] ")
	b.WriteString(msg)

	for i := 0; i < len(args); i += 2 {
		var val any = "(no value)"
		if i+1 < len(args) {
			val = args[i+1]
		}
		fmt.Fprintf(&b, " %v=%v", args[i], val)
	}
	return b.String()
}

// discardLogger drops everything. It backs the Discard singleton.
type discardLogger struct{}

func (d *discardLogger) LogMode(LogLevel) Logger { return d }
func (d *discardLogger) Info(string, ...any)     {}
func (d *discardLogger) Warn(string, ...any)     {}
func (d *discardLogger) Error(string, ...any)    {}
func (d *discardLogger) Debug(string, ...any)    {}

// Discard is a logger that drops all output, for tests and wiring defaults.
var Discard Logger = &discardLogger{}

// New returns a logger at the given level that writes to stdout.
func New(level LogLevel) Logger {
	return NewStandardLogger(log.New(os.Stdout, "", log.LstdFlags), level, "[utanotify]")
}

// ParseLevel converts a level string to a LogLevel. Unknown strings map to
// Info.
func ParseLevel(s string) LogLevel {
	switch s {
	case "silent":
		return Silent
	case "error":
		return Error
	case "warn", "warning":
		return Warn
	case "debug":
		return Debug
	default:
		return Info
	}
}
