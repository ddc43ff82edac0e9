package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{
			name:      "logs when QDASH_DEBUG is set",
			envValue:  "1",
			expectLog: true,
		},
		{
			name:      "logs when QDASH_DEBUG is any value",
			envValue:  "true",
			expectLog: true,
		},
		{
			name:      "does not log when QDASH_DEBUG is empty",
			envValue:  "",
			expectLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			if tt.envValue != "" {
				t.Setenv("QDASH_DEBUG", tt.envValue)
			} else {
				os.Unsetenv("QDASH_DEBUG")
			}

			l := NewEnvLogger("[test]")
			l.Debug("refresh took %s", "12ms")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] refresh took 12ms")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[supervisor]")
	l.Info("started instance %d", 1)
	l.Warn("refresh slow")
	l.Error("refresh failed")

	out := buf.String()
	assert.Contains(t, out, "[supervisor] started instance 1")
	assert.Contains(t, out, "[supervisor] WARN: refresh slow")
	assert.Contains(t, out, "[supervisor] ERROR: refresh failed")
}

func TestNoopLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Empty(t, buf.String(), "noop logger should not produce any output")
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	require.Len(t, l.Messages, 4)

	assert.Equal(t, "debug", l.Messages[0].Level)
	assert.Equal(t, "debug msg", l.Messages[0].Message)

	assert.Equal(t, "error", l.Messages[3].Level)
	assert.Equal(t, "error msg", l.Messages[3].Message)
}

func TestBufferLogger_HasLevel(t *testing.T) {
	l := NewBufferLogger()

	assert.False(t, l.HasLevel("error"))

	l.Error("boom")
	assert.True(t, l.HasLevel("error"))
	assert.False(t, l.HasLevel("warn"))
}

func TestBufferLogger_Clear(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("test1")
	l.Info("test2")
	require.Len(t, l.Messages, 2)

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestDefault(t *testing.T) {
	original := defaultLogger
	defer func() { defaultLogger = original }()

	d := Default()
	assert.NotNil(t, d)

	buf := NewBufferLogger()
	SetDefault(buf)

	assert.Equal(t, buf, Default())
}
