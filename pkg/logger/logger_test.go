package logger

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(level LogLevel) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewStandardLogger(log.New(buf, "", 0), level, "[test]"), buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(Warn)

	l.Debug("debug line")
	l.Info("info line")
	assert.Empty(t, buf.String())

	l.Warn("warn line")
	l.Error("error line")
	out := buf.String()
	assert.Contains(t, out, "[WARN] warn line")
	assert.Contains(t, out, "[ERROR] error line")
}

func TestLogModeReturnsCopy(t *testing.T) {
	l, buf := newBufferLogger(Error)

	debug := l.LogMode(Debug)
	debug.Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	buf.Reset()
	l.Debug("hidden")
	assert.Empty(t, buf.String(), "original logger keeps its level")
}

func TestStructuredFields(t *testing.T) {
	l, buf := newBufferLogger(Info)

	l.Info("sent", "channel", "sms", "recipients", 2)
	assert.Contains(t, buf.String(), "channel=sms")
	assert.Contains(t, buf.String(), "recipients=2")

	buf.Reset()
	l.Info("odd args", "dangling")
	assert.Contains(t, buf.String(), "dangling=(no value)")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"silent":  Silent,
		"error":   Error,
		"warn":    Warn,
		"warning": Warn,
		"debug":   Debug,
		"info":    Info,
		"":        Info,
		"bogus":   Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic and must stay silent at any level.
	d := Discard.LogMode(Debug)
	d.Debug("x")
	d.Info("x")
	d.Warn("x")
	d.Error("x")
}
