package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler_FansOutPastFailures(t *testing.T) {
	var buf bytes.Buffer
	jsonHandler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	m := NewMultiHandler(failingHandler{jsonHandler}, jsonHandler)

	slog.New(m).Info("hello", "request_id", "req-1", "actor", "admin@example.org")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])

	assert.False(t, m.Enabled(context.Background(), slog.LevelDebug))
}

func TestDBHandler_StoresErrorsOnly(t *testing.T) {
	db := testutil.NewDB(t)
	h := NewDBHandler(db)
	t.Cleanup(h.Stop)

	logger := slog.New(h).With("request_id", "req-42")
	logger.Info("ignored")
	logger.Error("report update failed",
		"actor", "admin@example.org",
		"action", "report_status",
		"error", "boom",
		"latency_ms", 12.6,
		"report_id", "abc123",
	)
	h.Flush()

	var logs []models.SystemLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "report update failed", entry.Message)
	assert.Equal(t, "req-42", entry.RequestID)
	require.NotNil(t, entry.Actor)
	assert.Equal(t, "admin@example.org", *entry.Actor)
	assert.Equal(t, "report_status", entry.Action)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, 13, entry.LatencyMs)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.Equal(t, "abc123", extra["report_id"])
}

func TestDBHandler_StopFlushesAndIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	h := NewDBHandler(db)

	slog.New(h).Error("shutting down")
	h.Stop()
	h.Stop()

	var count int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPurge(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	old := models.SystemLog{ID: testID(1), Timestamp: now.AddDate(0, 0, -40), Level: "ERROR"}
	recent := models.SystemLog{ID: testID(2), Timestamp: now.AddDate(0, 0, -2), Level: "ERROR"}
	require.NoError(t, db.Create(&[]models.SystemLog{old, recent}).Error)

	deleted, err := Purge(db, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var left []models.SystemLog
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, recent.ID, left[0].ID)
}

func testID(n byte) uuid.UUID {
	var id uuid.UUID
	id[15] = n
	return id
}
