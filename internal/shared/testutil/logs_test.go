package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturingHandler(t *testing.T) {
	t.Run("captures records and attrs", func(t *testing.T) {
		logger, h := NewTestLogger(t)

		logger.Info("file parsed", slog.String("format", "txt"))
		logger.Error("insert failed", slog.Int("rows", 3))

		require.Equal(t, 2, h.Count())
		assert.True(t, h.HasAttr("format", "txt"))
		r, ok := h.Find("insert")
		require.True(t, ok)
		assert.Equal(t, slog.LevelError, r.Level)
	})

	t.Run("derived loggers share the store", func(t *testing.T) {
		logger, h := NewTestLogger(t)

		logger.With(slog.String("component", "pipeline")).Warn("row dropped")

		assert.Equal(t, 1, h.Count())
		assert.True(t, h.HasAttr("component", "pipeline"))
		AssertLogged(t, h, slog.LevelWarn, "dropped")
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, h := NewTestLogger(t)

		logger.Debug("d")
		logger.Info("i")
		logger.Info("i2")

		assert.Len(t, h.RecordsAt(slog.LevelInfo), 2)
		assert.Len(t, h.RecordsAt(slog.LevelDebug), 1)
		AssertNoErrors(t, h)
	})
}
