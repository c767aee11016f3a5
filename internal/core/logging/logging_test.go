package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestNewWithWriterTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "not-a-level", "webapp")

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len(), "unknown level should fall back to info")

	logger.Info().Msg("hello")
	line := decodeLine(t, &buf)
	assert.Equal(t, "webapp", line["service"])
	assert.Equal(t, "hello", line["message"])
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "webapp")

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/channels/x", nil))

	line := decodeLine(t, &buf)
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, float64(404), line["status"])
	assert.Equal(t, "/api/v1/channels/x", line["path"])
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	cl := CronLogger{Logger: NewWithWriter(&buf, "info", "worker")}

	cl.Error(errors.New("boom"), "panic", "job", "refresh")
	line := decodeLine(t, &buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "refresh", line["job"])
}
