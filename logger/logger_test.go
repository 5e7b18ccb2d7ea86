package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        string
	}{
		{name: "production uses json", environment: "production", want: `"msg":"hello"`},
		{name: "development uses text", environment: "development", want: "msg=hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Writer: &buf, Environment: tt.environment, Level: slog.LevelInfo})
			log.Info("hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json", Level: slog.LevelWarn})

	log.Info("quiet")
	log.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
