package logger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"cinepulse-catalog/internal/domain"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "debug", Format: "json", Output: path}, SentryConfig{})
	require.NoError(t, err)

	log.Component("catalog").Info("catalog aggregated", zap.Int("items", 3))
	assert.NoError(t, log.Logger.Sync())
	assert.FileExists(t, path)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "verbose", Format: "console", Output: "stderr"}, SentryConfig{})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestForUser(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ForUser(domain.WithUserID(context.Background(), "u1"), base).Info("with user")
	ForUser(context.Background(), base).Info("anonymous")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
	assert.NotContains(t, entries[1].ContextMap(), "user_id")
}

func TestFieldsToMap(t *testing.T) {
	m := fieldsToMap([]zapcore.Field{
		zap.String("source", "movies"),
		zap.Int("count", 2),
		zap.Float64("rating", 7.5),
		zap.Bool("timeout", true),
		zap.Duration("took", 1500*time.Millisecond),
		zap.Error(errors.New("connection reset")),
	})

	assert.Equal(t, "movies", m["source"])
	assert.Equal(t, int64(2), m["count"])
	assert.Equal(t, 7.5, m["rating"])
	assert.Equal(t, true, m["timeout"])
	assert.Equal(t, "1.5s", m["took"])
	assert.Equal(t, "connection reset", m["error"])
}

func TestZapLevelToSentry(t *testing.T) {
	assert.Equal(t, sentry.LevelWarning, zapLevelToSentry(zapcore.WarnLevel))
	assert.Equal(t, sentry.LevelError, zapLevelToSentry(zapcore.ErrorLevel))
	assert.Equal(t, sentry.LevelFatal, zapLevelToSentry(zapcore.FatalLevel))
}
