package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share the buffer and keep attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.With("component", "validator").Info("validation completed")

		rec, ok := handler.FindMessage("validation")
		require.True(t, ok)
		assert.Equal(t, "validator", rec.Attrs["component"])
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Zero(t, handler.Count())
	})
}

func TestSurveyTable(t *testing.T) {
	table := SurveyTable(t)
	require.Equal(t, len(SurveyRows), table.Len())
	v, ok := table.Cell(2, "PAQ3")
	require.True(t, ok)
	assert.True(t, v.IsNull())
	assert.Contains(t, string(SurveyCSV(t)), "RecordID,LocationID,PAQ1")
}
