package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "info"},
		{"DEBUG", "debug"},
		{" warn ", "warn"},
		{"verbose", "info"},
		{"trace", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLevel(tt.in))
		})
	}
}

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	buf := new(bytes.Buffer)
	log := NewConsoleLogger(buf, "warn")

	log.Debugf("hidden %d", 1)
	log.Infof("hidden %d", 2)
	log.Warnf("shown %s", "warning")
	log.Errorf("shown %s", "error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown warning")
	assert.Contains(t, out, "[ERROR] shown error")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestConsoleLoggerPlainOutputForBuffers(t *testing.T) {
	buf := new(bytes.Buffer)
	log := NewConsoleLogger(buf, "trace")

	log.Tracef("searching %s", "/data")

	line := buf.String()
	assert.NotContains(t, line, "\x1b[", "buffers must not receive ANSI colors")
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] \[TRACE\] searching /data\n$`, line)
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	log := NewConsoleLogger(nil, "trace")
	assert.NotPanics(t, func() { log.Errorf("dropped") })
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	log := NewConsoleLogger(nil, "info")
	assert.Same(t, log, OrNop(log))
}
