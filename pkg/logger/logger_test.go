package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getLogLevel("warning"))
	assert.Equal(t, slog.LevelError, getLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getLogLevel(""))
}

func TestLogBookingCreatedJSON(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := newWithWriter(&buf, slog.LevelInfo)
	l.LogBookingCreated(context.Background(), "b-1", "bus-1", "u-1", 1269)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Booking Created", rec["msg"])
	assert.Equal(t, "bus-1", rec["bus_id"])
	assert.EqualValues(t, 1269, rec["total_amount"])
}

func TestLogSeatsHeldRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, slog.LevelError)
	l.LogSeatsHeld(context.Background(), "h", "bus", "u", []string{"L1"}, time.Minute)
	assert.Empty(t, buf.String())
}

func TestNewWithOptionsWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := NewWithOptions(Options{Level: "info", File: path, MaxSizeMB: 1})
	l.Info("hello")
	assert.FileExists(t, path)
}
