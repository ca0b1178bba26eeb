package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturedLogger() (*Logger, *bytes.Buffer) {
	log := New("logger-test", "debug")
	var buf bytes.Buffer
	log.SetOutput(&buf)
	return log, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestServiceStamping(t *testing.T) {
	log, buf := newCapturedLogger()

	log.Info("hello")

	entry := lastEntry(t, buf)
	assert.Equal(t, "logger-test", entry["service"])
	assert.Equal(t, "hello", entry["message"])
}

func TestWithComponent(t *testing.T) {
	log, buf := newCapturedLogger()

	log.WithComponent("chat").Warn("fallback recorded")

	entry := lastEntry(t, buf)
	assert.Equal(t, "chat", entry["component"])
	assert.Equal(t, "warning", entry["level"])
}

func TestHTTPRequest(t *testing.T) {
	t.Run("success logs at info", func(t *testing.T) {
		log, buf := newCapturedLogger()

		log.HTTPRequest("GET", "/api/v1/patients", 200, 12, "127.0.0.1:5000")

		entry := lastEntry(t, buf)
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "GET", entry["method"])
		assert.Equal(t, "/api/v1/patients", entry["path"])
		assert.Equal(t, float64(200), entry["status_code"])
	})

	t.Run("error status logs at warn", func(t *testing.T) {
		log, buf := newCapturedLogger()

		log.HTTPRequest("POST", "/api/v1/alerts/sos", 403, 3, "127.0.0.1:5000")

		entry := lastEntry(t, buf)
		assert.Equal(t, "warning", entry["level"])
		assert.Equal(t, float64(403), entry["status_code"])
	})
}

func TestAudit(t *testing.T) {
	log, buf := newCapturedLogger()

	log.Audit("d1", "list_patients", "roster", false, nil)

	entry := lastEntry(t, buf)
	assert.Equal(t, true, entry["audit"])
	assert.Equal(t, "d1", entry["user_id"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, false, entry["success"])
}
