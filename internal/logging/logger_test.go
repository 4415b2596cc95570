package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/cleansight/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"", zerolog.InfoLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"off", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug().Msg("hidden")
	logger.Info().Str("component", "relay").Msg("started")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"relay"`)
	assert.Contains(t, out, `"message":"started"`)
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(config.LogConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	logger.Debug().Msg("visible")
	assert.True(t, strings.Contains(buf.String(), "visible"))
}

func TestNew_InvalidFormat(t *testing.T) {
	_, closer, err := New(config.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
	assert.NotNil(t, closer)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleansight.log")
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "json", File: path}, nil)
	require.NoError(t, err)

	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNew_NilWriterIsNop(t *testing.T) {
	logger, _, err := New(config.LogConfig{Level: "info"}, nil)
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithRequestID(logger, "req-1").WithContext(context.Background())

	FromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
}

func TestHertzLogger(t *testing.T) {
	var buf bytes.Buffer
	h := NewHertzLogger(zerolog.New(&buf))
	h.SetLevel(hlog.LevelWarn)

	h.Infof("dropped %d", 1)
	h.Warnf("listener %s", "closed")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"message":"listener closed"`)
	assert.Contains(t, buf.String(), `"component":"hertz"`)

	buf.Reset()
	ctx := WithRequestID(zerolog.New(&buf), "req-9").WithContext(context.Background())
	h.CtxErrorf(ctx, "write failed")
	assert.Contains(t, buf.String(), `"request_id":"req-9"`)
}
