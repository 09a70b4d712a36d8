package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", "json", &buf)

	log.WithField("device_id", "AA:BB").Debug("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "AA:BB", line["device_id"])
	assert.Contains(t, line, "time")
}

func TestNewWithOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", "text", &buf)

	log.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestBatchLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	bl := NewBatchLogger(log, 3)

	bl.LogRequest("GET", "/api/v1/climates", 200, time.Millisecond, nil)
	bl.LogRequest("GET", "/api/v1/climates", 200, 3*time.Millisecond, nil)
	assert.Empty(t, hook.AllEntries())

	bl.LogRequest("POST", "/api/v1/climates/x/actions", 404, time.Millisecond, logrus.Fields{"request_id": "r1"})
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	bl.LogRequest("GET", "/health", 204, time.Millisecond, nil)
	require.Len(t, hook.AllEntries(), 2)
	summary := hook.LastEntry()
	assert.Equal(t, 3, summary.Data["total_requests"])
	endpoints := summary.Data["endpoints"].(map[string]*RequestMetrics)
	assert.Equal(t, 2, endpoints["GET /api/v1/climates"].Count)
	assert.Equal(t, 2*time.Millisecond, endpoints["GET /api/v1/climates"].AvgLatency)
}

func TestBatchLogger_FlushPending(t *testing.T) {
	log, hook := test.NewNullLogger()
	bl := NewBatchLogger(log, 0)

	bl.FlushPending()
	assert.Empty(t, hook.AllEntries())

	bl.LogRequest("GET", "/health", 200, time.Millisecond, nil)
	bl.FlushPending()
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, 1, hook.LastEntry().Data["total_requests"])
}
