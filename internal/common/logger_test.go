package common

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	logger.Info("hello", "adm_no", 101)
	assert.Contains(t, buf.String(), `"adm_no":101`)

	_, err = NewLogger(&buf, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoggerFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), LoggerFromContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, LoggerFromContext(ctx))
}
